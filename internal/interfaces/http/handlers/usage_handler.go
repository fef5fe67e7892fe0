package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rampartlabs/rampart/internal/application/service"
)

// UsageHandler reports quota consumption to the owning tenant.
type UsageHandler struct {
	usageService service.UsageAppService
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(usageService service.UsageAppService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// Usage returns per-window consumption. The inquiry itself is never counted.
func (h *UsageHandler) Usage(c *gin.Context) {
	tenant, ok := authedTenant(c)
	if !ok {
		return
	}

	result, err := h.usageService.Usage(c.Request.Context(), tenant)
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, result)
}
