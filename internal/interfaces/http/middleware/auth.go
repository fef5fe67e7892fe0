package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/repository"
	domainService "github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
	"github.com/rampartlabs/rampart/pkg/utils"
)

// tenantContextKey is the gin context key holding the authenticated tenant.
const tenantContextKey = "auth.tenant"

// APIKeyAuth authenticates data-plane requests by API key and secret. Every
// failure mode answers with the same credential rejection so the endpoint
// does not reveal whether a key exists. Failures with a resolved tenant are
// written to the audit trail; unknown keys only reach the structured log.
// APIKeyAuth 通过 API key 和密钥认证数据面请求。所有失败都返回相同的凭证
// 拒绝，避免暴露某个 key 是否存在。能解析出租户的失败写入审计链；未知 key
// 只进入结构化日志。
func APIKeyAuth(
	tenants repository.TenantRepository,
	audit domainService.AuditService,
	log logger.Logger,
) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	log = log.WithComponent("api_key_auth")
	auditLog := logger.NewAuditLogger(log)
	rejection := errors.ErrAuthenticationFailed.WithDescription("invalid api credentials")

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		apiKey := c.GetHeader(constants.HeaderAPIKey)
		apiSecret := c.GetHeader(constants.HeaderAPISecret)
		if apiKey == "" || apiSecret == "" {
			auditLog.LogAuthenticationFailure(ctx, "", "missing credentials")
			abortWithError(c, rejection)
			return
		}

		tenant, err := tenants.FindByAPIKey(ctx, apiKey)
		if err != nil {
			if err.Code == errors.CodeNotFound {
				auditLog.LogAuthenticationFailure(ctx, "", "unknown api key")
				abortWithError(c, rejection)
				return
			}
			// Store trouble is not a credential failure; fail closed as 503.
			log.Error(ctx, "Tenant lookup failed during authentication", err)
			abortWithError(c, errors.ErrUnavailable.WithDescription("cannot verify credentials"))
			return
		}

		if !utils.SecretMatchesHash(apiSecret, tenant.APISecretHash) {
			auditLog.LogAuthenticationFailure(ctx, tenant.TenantID, "secret mismatch")
			recordAuthFailure(ctx, audit, log, tenant.TenantID, "secret mismatch")
			abortWithError(c, rejection)
			return
		}

		ctx = context.WithValue(ctx, constants.ContextKeyTenantID, tenant.TenantID)
		c.Request = c.Request.WithContext(ctx)
		SetTenant(c, tenant)

		c.Next()
	}
}

// SetTenant attaches an authenticated tenant to the request. Authentication
// variants share it so handlers stay agnostic of how the tenant was resolved.
func SetTenant(c *gin.Context, tenant *models.Tenant) {
	c.Set(tenantContextKey, tenant)
}

// recordAuthFailure appends an auth_failure event to the durable trail. Best
// effort: a trail outage never changes the rejection.
func recordAuthFailure(ctx context.Context, audit domainService.AuditService, log logger.Logger, tenantID, reason string) {
	if audit == nil {
		return
	}
	record := models.NewAuditRecord(tenantID, constants.EventTypeAuthFailure).
		WithRequestID(requestIDFromContext(ctx)).
		WithDetail(reason)
	if err := audit.Record(ctx, record); err != nil {
		log.Error(ctx, "Auth failure audit write failed", err, logger.String("tenant_id", tenantID))
	}
}

func requestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// TenantFrom returns the tenant resolved by APIKeyAuth.
func TenantFrom(c *gin.Context) (*models.Tenant, bool) {
	v, ok := c.Get(tenantContextKey)
	if !ok {
		return nil, false
	}
	tenant, ok := v.(*models.Tenant)
	return tenant, ok
}

func abortWithError(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, dto.ErrorResponse(err, RequestIDOf(c)))
}
