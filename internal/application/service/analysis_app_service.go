// Package service provides application-level services that orchestrate domain services and repositories
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/domain/models"
	domainService "github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
	"github.com/rampartlabs/rampart/pkg/utils"
)

// AnalysisAppService defines the interface for the text analysis application service
type AnalysisAppService interface {
	// Analyze runs the full pipeline for an authenticated tenant: quota
	// admission, risk scoring, policy evaluation and audit recording.
	// Analyze 为已认证租户执行完整流水线：配额准入、风险评分、策略裁决与审计记录。
	Analyze(ctx context.Context, tenant *models.Tenant, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
}

// analysisAppServiceImpl is the concrete implementation of AnalysisAppService
type analysisAppServiceImpl struct {
	quotaService   domainService.QuotaService
	scoringService domainService.ScoringService
	policyEngine   domainService.PolicyEngine
	auditService   domainService.AuditService
	metrics        domainService.Metrics
	logger         logger.Logger
}

// NewAnalysisAppService creates a new instance of AnalysisAppService
func NewAnalysisAppService(
	quotaService domainService.QuotaService,
	scoringService domainService.ScoringService,
	policyEngine domainService.PolicyEngine,
	auditService domainService.AuditService,
	metrics domainService.Metrics,
	log logger.Logger,
) AnalysisAppService {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &analysisAppServiceImpl{
		quotaService:   quotaService,
		scoringService: scoringService,
		policyEngine:   policyEngine,
		auditService:   auditService,
		metrics:        metrics,
		logger:         log.WithComponent("analysis_app_service"),
	}
}

// Analyze implements the analyze pipeline
func (s *analysisAppServiceImpl) Analyze(ctx context.Context, tenant *models.Tenant, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	start := time.Now()

	// 1. Validate request payload
	if err := validateAnalyzeRequest(req); err != nil {
		s.recordAnalysis(tenant, "", "", start, err)
		return nil, err
	}

	// 2. Check tenant status; suspension takes effect on the next request
	if !tenant.IsActive() {
		s.logger.Warn(ctx, "Rejected request for inactive tenant",
			logger.String("tenant_id", tenant.TenantID),
			logger.String("status", string(tenant.Status)))
		err := errors.ErrAuthenticationFailed.WithDescription("tenant is not active")
		s.recordAnalysis(tenant, "", "", start, err)
		return nil, err
	}

	// 3. Quota admission; a rejected request consumes no quota
	if err := s.quotaService.Admit(ctx, tenant); err != nil {
		if err.Code == errors.CodeQuotaExceeded {
			s.logger.Warn(ctx, "Quota exceeded",
				logger.String("tenant_id", tenant.TenantID),
				logger.String("detail", err.Description))
			s.recordQuotaRejection(ctx, tenant, err)
		} else {
			s.logger.Error(ctx, "Quota admission unavailable", err,
				logger.String("tenant_id", tenant.TenantID))
		}
		s.recordAnalysis(tenant, "", "", start, err)
		return nil, err
	}

	requestID := requestIDFrom(ctx)

	// 4. Score the text across all detectors with tenant overrides applied
	verdict := s.scoringService.Score(ctx, req.Text, &tenant.ScoringOverrides)

	// 5. Evaluate the tenant policy against the verdict
	decision := s.policyEngine.Evaluate(ctx, req.Text, verdict, tenant.RiskPolicy)

	// 6. Record the audit trail entry; the request fails when the trail
	//    cannot be written, so every completed analysis has its record
	record := models.NewAuditRecord(tenant.TenantID, constants.EventTypeAnalysis).
		WithRequestID(requestID).
		WithVerdict(verdict).
		WithDecision(decision)
	if err := s.auditService.Record(ctx, record); err != nil {
		s.logger.Error(ctx, "Audit record write failed", err,
			logger.String("tenant_id", tenant.TenantID),
			logger.String("request_id", requestID))
		failure := errors.ErrUnavailable.WithDescription("audit trail unavailable")
		s.recordAnalysis(tenant, string(verdict.OverallLevel), string(decision.Disposition), start, failure)
		return nil, failure
	}

	s.recordAnalysis(tenant, string(verdict.OverallLevel), string(decision.Disposition), start, nil)

	s.logger.Info(ctx, "Analysis complete",
		logger.String("tenant_id", tenant.TenantID),
		logger.String("request_id", requestID),
		logger.String("level", string(verdict.OverallLevel)),
		logger.String("disposition", string(decision.Disposition)),
		logger.Float64("score", verdict.OverallScore),
		logger.Duration("elapsed", time.Since(start)))

	return buildAnalyzeResponse(requestID, verdict, decision), nil
}

// validateAnalyzeRequest rejects empty and oversized inputs before any
// detector sees them. The size cap is in bytes, not runes, so it stays a
// manual check.
func validateAnalyzeRequest(req *dto.AnalyzeRequest) *errors.AppError {
	if req == nil {
		return errors.ErrInvalidRequest.WithDescription("request body must not be empty")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}
	if len(req.Text) > constants.MaxAnalyzeTextBytes {
		return errors.ErrInvalidRequest.WithDescription(
			"text exceeds the %d byte limit", constants.MaxAnalyzeTextBytes)
	}
	return nil
}

// recordQuotaRejection writes the quota_rejection audit entry. The entry is
// best effort: the rejection stands even when the trail is unreachable.
func (s *analysisAppServiceImpl) recordQuotaRejection(ctx context.Context, tenant *models.Tenant, cause *errors.AppError) {
	record := models.NewAuditRecord(tenant.TenantID, constants.EventTypeQuotaRejection).
		WithRequestID(requestIDFrom(ctx)).
		WithDetail(cause.Description)
	if err := s.auditService.Record(ctx, record); err != nil {
		s.logger.Error(ctx, "Quota rejection audit write failed", err,
			logger.String("tenant_id", tenant.TenantID))
	}
}

func (s *analysisAppServiceImpl) recordAnalysis(tenant *models.Tenant, level, disposition string, start time.Time, err *errors.AppError) {
	if s.metrics == nil {
		return
	}
	code := ""
	if err != nil {
		code = err.Code
	}
	s.metrics.RecordAnalysis(tenant.TenantID, level, disposition, time.Since(start), code)
}

// requestIDFrom returns the request ID placed in the context by the HTTP
// layer, minting one when the pipeline is called outside a request.
func requestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && v != "" {
		return v
	}
	return uuid.NewString()
}

// buildAnalyzeResponse converts the verdict and decision to the transport
// shape. Only categories that produced a signal appear in DetectedRisks;
// blocked requests carry a reason instead of output text.
func buildAnalyzeResponse(requestID string, verdict *models.RiskVerdict, decision *models.PolicyDecision) *dto.AnalyzeResponse {
	// A redacted or blocked response must never claim no risk was found, so
	// detection follows the findings and the disposition, not the level:
	// a lone low-level signal can still cross a redaction policy.
	detected := decision.Disposition != models.DispositionAllow
	risks := make(map[string]dto.DetectedRisk)
	for _, f := range verdict.Findings {
		if f.Score <= 0 && len(f.Evidence) == 0 && !f.Failed {
			continue
		}
		if !f.Failed && (f.Score > 0 || len(f.Evidence) > 0) {
			detected = true
		}
		risks[string(f.Category)] = dto.DetectedRisk{
			Score:         f.Score,
			Level:         string(f.Level),
			EvidenceCount: len(f.Evidence),
			Failed:        f.Failed,
		}
	}

	resp := &dto.AnalyzeResponse{
		RiskDetected:    detected,
		RiskLevel:       string(verdict.OverallLevel),
		RiskScore:       verdict.OverallScore,
		DetectedRisks:   risks,
		Recommendations: verdict.Recommendations,
		Disposition:     string(decision.Disposition),
		Text:            decision.Output,
		RedactionCount:  decision.RedactionCount,
		RequestID:       requestID,
	}
	if decision.Disposition == models.DispositionBlock {
		resp.Text = ""
		resp.Reason = decision.Reason
		if resp.Reason == "" {
			resp.Reason = "request blocked by tenant risk policy"
		}
	}
	return resp
}
