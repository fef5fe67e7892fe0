package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/domain/models"
	domainService "github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// SessionAppService defines the interface for the secure session application service
type SessionAppService interface {
	// Handshake establishes a volatile session and returns its key material.
	// The key appears on the wire exactly once; the server keeps it only in
	// process memory.
	// Handshake 建立易失会话并返回其密钥材料。密钥仅在线上出现一次；
	// 服务端只在进程内存中保存它。
	Handshake(ctx context.Context, tenant *models.Tenant) (*dto.HandshakeResponse, error)

	// Close destroys a session before its natural expiry.
	// Close 在自然过期前销毁会话。
	Close(ctx context.Context, tenant *models.Tenant, req *dto.CloseSessionRequest) error

	// SecureAnalyze opens a sealed analyze request, runs the standard
	// pipeline and seals the response under the same session key.
	// SecureAnalyze 解开密封的分析请求，执行标准流水线，并用同一会话密钥
	// 密封响应。
	SecureAnalyze(ctx context.Context, tenant *models.Tenant, req *dto.SecureEnvelope) (*dto.SecureEnvelope, error)
}

// sessionAppServiceImpl is the concrete implementation of SessionAppService
type sessionAppServiceImpl struct {
	store           domainService.SessionStore
	sealer          domainService.PayloadSealer
	analysisService AnalysisAppService
	metrics         domainService.Metrics
	ttl             time.Duration
	logger          logger.Logger
}

// NewSessionAppService creates a new instance of SessionAppService. The ttl
// is the session lifetime granted on handshake, clamped to the allowed range.
func NewSessionAppService(
	store domainService.SessionStore,
	sealer domainService.PayloadSealer,
	analysisService AnalysisAppService,
	metrics domainService.Metrics,
	ttl time.Duration,
	log logger.Logger,
) SessionAppService {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &sessionAppServiceImpl{
		store:           store,
		sealer:          sealer,
		analysisService: analysisService,
		metrics:         metrics,
		ttl:             clampSessionTTL(ttl),
		logger:          log.WithComponent("session_app_service"),
	}
}

// Handshake implements session establishment
func (s *sessionAppServiceImpl) Handshake(ctx context.Context, tenant *models.Tenant) (*dto.HandshakeResponse, error) {
	// 1. Check tenant status
	if !tenant.IsActive() {
		return nil, errors.ErrAuthenticationFailed.WithDescription("tenant is not active")
	}

	// 2. Draw the session key from the system CSPRNG
	key := make([]byte, constants.SessionKeySize)
	if _, err := rand.Read(key); err != nil {
		s.logger.Error(ctx, "Session key generation failed", err)
		return nil, errors.ErrInternal.WithError(err)
	}

	now := time.Now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		TenantID:  tenant.TenantID,
		Key:       key,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	// 3. Register the session before the key ever leaves the process
	if err := s.store.Put(session); err != nil {
		return nil, err
	}
	s.recordSessionEvent("established")

	s.logger.Info(ctx, "Session established",
		logger.String("tenant_id", tenant.TenantID),
		logger.String("session_id", session.ID),
		logger.Duration("ttl", s.ttl))

	return &dto.HandshakeResponse{
		SessionID:   session.ID,
		KeyMaterial: base64.StdEncoding.EncodeToString(key),
		ExpiresAt:   session.ExpiresAt.Unix(),
	}, nil
}

// Close implements early session teardown
func (s *sessionAppServiceImpl) Close(ctx context.Context, tenant *models.Tenant, req *dto.CloseSessionRequest) error {
	if req == nil || req.SessionID == "" {
		return errors.ErrInvalidRequest.WithDescription("session_id must not be empty")
	}

	session, appErr := s.resolveSession(tenant, req.SessionID)
	if appErr != nil {
		return appErr
	}

	s.store.Delete(session.ID)
	s.recordSessionEvent("closed")

	s.logger.Info(ctx, "Session closed",
		logger.String("tenant_id", tenant.TenantID),
		logger.String("session_id", session.ID))
	return nil
}

// SecureAnalyze implements the sealed-transport analyze path
func (s *sessionAppServiceImpl) SecureAnalyze(ctx context.Context, tenant *models.Tenant, req *dto.SecureEnvelope) (*dto.SecureEnvelope, error) {
	// 1. Validate the envelope shape
	if req == nil || req.SessionID == "" || req.Payload == "" {
		return nil, errors.ErrInvalidRequest.WithDescription("session_id and payload must not be empty")
	}

	// 2. Resolve the session; expired and foreign sessions read as absent
	session, appErr := s.resolveSession(tenant, req.SessionID)
	if appErr != nil {
		return nil, appErr
	}

	// 3. Open the sealed request
	plaintext, err := s.sealer.Open(session.Key, req.Payload)
	if err != nil {
		s.logger.Warn(ctx, "Sealed payload rejected",
			logger.String("tenant_id", tenant.TenantID),
			logger.String("session_id", session.ID))
		return nil, err
	}

	var inner dto.AnalyzeRequest
	if err := json.Unmarshal(plaintext, &inner); err != nil {
		return nil, errors.ErrInvalidRequest.WithDescription("sealed payload is not a valid analyze request")
	}

	// 4. Run the standard pipeline; quota and policy apply unchanged
	result, err := s.analysisService.Analyze(ctx, tenant, &inner)
	if err != nil {
		return nil, err
	}

	// 5. Seal the response under the same session key
	body, err := json.Marshal(result)
	if err != nil {
		return nil, errors.ErrInternal.WithError(err)
	}
	sealed, err := s.sealer.Seal(session.Key, body)
	if err != nil {
		return nil, err
	}

	return &dto.SecureEnvelope{
		SessionID: session.ID,
		Payload:   sealed,
	}, nil
}

// resolveSession returns the live session owned by the tenant. Unknown,
// expired and foreign sessions all map to the same rejection so the endpoint
// is not an existence oracle.
func (s *sessionAppServiceImpl) resolveSession(tenant *models.Tenant, id string) (*models.Session, *errors.AppError) {
	session := s.store.Get(id, time.Now().UTC())
	if session == nil || session.TenantID != tenant.TenantID {
		return nil, errors.ErrAuthenticationFailed.WithDescription("session unknown or expired")
	}
	return session, nil
}

func (s *sessionAppServiceImpl) recordSessionEvent(event string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSessionEvent(event)
	s.metrics.UpdateActiveSessions(s.store.Count())
}

func clampSessionTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl <= 0:
		return constants.SessionDefaultTTL
	case ttl < constants.SessionMinTTL:
		return constants.SessionMinTTL
	case ttl > constants.SessionMaxTTL:
		return constants.SessionMaxTTL
	default:
		return ttl
	}
}
