// Package crypto implements bearer token issuance and verification for
// the administrative API surface.
package crypto

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// AdminSubject is the subject claim carried by every admin token.
const AdminSubject = "admin"

const defaultAdminTokenTTL = time.Hour

// AdminTokenManager issues and verifies the HS256 bearer tokens accepted
// by the admin endpoints. The signing secret comes from configuration or
// the secrets provider; the admin plane has no per-tenant key hierarchy.
// AdminTokenManager 签发并验证管理端点接受的 HS256 令牌。
// 签名密钥来自配置或机密提供程序；管理平面没有按租户的密钥层次结构。
type AdminTokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	log    logger.Logger
}

// NewAdminTokenManager creates a token manager signing with secret.
func NewAdminTokenManager(secret string, ttl time.Duration, log logger.Logger) (*AdminTokenManager, *errors.AppError) {
	if secret == "" {
		return nil, errors.ErrConfiguration.WithDescription("admin token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = defaultAdminTokenTTL
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}

	return &AdminTokenManager{
		secret: []byte(secret),
		issuer: constants.ServiceName,
		ttl:    ttl,
		log:    log.WithComponent("admin_token"),
	}, nil
}

// Issue creates and signs a new admin token.
func (m *AdminTokenManager) Issue(ctx context.Context) (string, time.Time, *errors.AppError) {
	now := time.Now().UTC()
	expiresAt := now.Add(m.ttl)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   AdminSubject,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		m.log.Error(ctx, "Failed to sign admin token", err)
		return "", time.Time{}, errors.ErrInternal.WithError(err)
	}

	return signed, expiresAt, nil
}

// Verify parses and validates an admin token string.
func (m *AdminTokenManager) Verify(ctx context.Context, tokenString string) (*jwt.RegisteredClaims, *errors.AppError) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, stderrors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrAuthenticationFailed.WithDescription("admin token expired")
		}
		return nil, errors.ErrAuthenticationFailed.WithDescription("admin token invalid")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, errors.ErrAuthenticationFailed.WithDescription("admin token invalid")
	}
	if claims.Subject != AdminSubject {
		return nil, errors.ErrAuthenticationFailed.WithDescription("admin token subject mismatch")
	}

	return claims, nil
}
