package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rampartlabs/rampart/internal/infrastructure/crypto"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// AdminJWTAuth guards the administrative plane with a bearer token issued by
// the admin token manager. Data-plane credentials never open these routes.
// AdminJWTAuth 用管理令牌管理器签发的 bearer 令牌保护管理面。数据面凭证
// 无法访问这些路由。
func AdminJWTAuth(manager *crypto.AdminTokenManager, log logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	log = log.WithComponent("admin_auth")
	auditLog := logger.NewAuditLogger(log)

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		header := c.GetHeader(constants.HeaderAuthorization)
		token, ok := bearerToken(header)
		if !ok {
			auditLog.LogAuthenticationFailure(ctx, "", "missing bearer token")
			abortWithError(c, errors.ErrAuthenticationFailed.WithDescription("bearer token required"))
			return
		}

		if _, err := manager.Verify(ctx, token); err != nil {
			auditLog.LogAuthenticationFailure(ctx, "", "admin token rejected")
			abortWithError(c, err)
			return
		}

		c.Next()
	}
}

// bearerToken extracts the credential from an Authorization header.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
