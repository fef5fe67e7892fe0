package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/application/service"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// AnalyzeHandler handles plaintext analysis requests.
type AnalyzeHandler struct {
	analysisService service.AnalysisAppService
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
func NewAnalyzeHandler(analysisService service.AnalysisAppService) *AnalyzeHandler {
	return &AnalyzeHandler{analysisService: analysisService}
}

// Analyze runs the risk pipeline over the request text and returns the
// verdict together with the policy outcome.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	tenant, ok := authedTenant(c)
	if !ok {
		return
	}

	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest.WithError(err))
		return
	}

	result, err := h.analysisService.Analyze(c.Request.Context(), tenant, &req)
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, result)
}
