// Package handlers implements the HTTP endpoints of the risk mitigation
// service: the tenant data plane, the secure session plane, the admin plane
// and the operational probes.
package handlers

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/interfaces/http/middleware"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// sendSuccess writes the standard success envelope.
func sendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.SuccessResponse(data, traceIDOf(c)))
}

// sendError maps any error to the standard error envelope and its HTTP
// status. Non-AppError causes collapse to an internal error so nothing
// accidental leaks.
func sendError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatusOf(err), dto.ErrorResponse(err, traceIDOf(c)))
}

// traceIDOf prefers the live trace ID so responses can be joined with spans;
// outside a sampled trace the request ID still correlates with logs.
func traceIDOf(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return middleware.RequestIDOf(c)
}

// authedTenant returns the tenant resolved by the authentication middleware.
// A missing tenant means a route was wired without APIKeyAuth.
func authedTenant(c *gin.Context) (*models.Tenant, bool) {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		sendError(c, errors.ErrInternal.WithDescription("no authenticated tenant on request"))
	}
	return tenant, ok
}
