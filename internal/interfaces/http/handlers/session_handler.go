package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/application/service"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// SessionHandler handles the secure session plane: handshake, sealed
// analysis and teardown.
type SessionHandler struct {
	sessionService service.SessionAppService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionAppService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Handshake establishes a session and returns its id and key material. The
// key appears on the wire exactly once.
func (h *SessionHandler) Handshake(c *gin.Context) {
	tenant, ok := authedTenant(c)
	if !ok {
		return
	}

	result, err := h.sessionService.Handshake(c.Request.Context(), tenant)
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, result)
}

// Close destroys a session ahead of its expiry.
func (h *SessionHandler) Close(c *gin.Context) {
	tenant, ok := authedTenant(c)
	if !ok {
		return
	}

	var req dto.CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest.WithError(err))
		return
	}

	if err := h.sessionService.Close(c.Request.Context(), tenant, &req); err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, gin.H{"closed": true})
}

// SecureAnalyze accepts a sealed analyze request and answers with a sealed
// response under the same session key. Pipeline rejections come back as
// plaintext error envelopes so a caller with a broken key can still read
// them.
func (h *SessionHandler) SecureAnalyze(c *gin.Context) {
	tenant, ok := authedTenant(c)
	if !ok {
		return
	}

	var req dto.SecureEnvelope
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest.WithError(err))
		return
	}

	result, err := h.sessionService.SecureAnalyze(c.Request.Context(), tenant, &req)
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, result)
}
