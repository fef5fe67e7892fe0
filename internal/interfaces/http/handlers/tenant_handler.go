package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/application/service"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// TenantHandler handles the administrative tenant lifecycle.
type TenantHandler struct {
	tenantService service.TenantAppService
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(tenantService service.TenantAppService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// Create provisions a tenant. The response is the only place the clear API
// secret ever appears.
func (h *TenantHandler) Create(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest.WithError(err))
		return
	}

	result, err := h.tenantService.Provision(c.Request.Context(), &req)
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusCreated, result)
}

// Get returns a tenant's configuration.
func (h *TenantHandler) Get(c *gin.Context) {
	result, err := h.tenantService.Get(c.Request.Context(), c.Param("tenant_id"))
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, result)
}

// Update applies a partial configuration change.
func (h *TenantHandler) Update(c *gin.Context) {
	var req dto.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest.WithError(err))
		return
	}

	result, err := h.tenantService.Update(c.Request.Context(), c.Param("tenant_id"), &req)
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, result)
}

// Delete soft-deletes a tenant.
func (h *TenantHandler) Delete(c *gin.Context) {
	if err := h.tenantService.Delete(c.Request.Context(), c.Param("tenant_id")); err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

// List returns a paginated tenant listing.
func (h *TenantHandler) List(c *gin.Context) {
	var req dto.ListTenantsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest.WithError(err))
		return
	}

	result, err := h.tenantService.List(c.Request.Context(), &req)
	if err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, result)
}

// ResetQuota clears a tenant's counted usage in every window.
func (h *TenantHandler) ResetQuota(c *gin.Context) {
	if err := h.tenantService.ResetQuota(c.Request.Context(), c.Param("tenant_id")); err != nil {
		sendError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, gin.H{"reset": true})
}
