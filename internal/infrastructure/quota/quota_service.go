package quota

import (
	"context"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// Resetter is implemented by stores that can drop a tenant's counters.
type Resetter interface {
	Reset(ctx context.Context, tenantID string) error
}

// Service implements service.QuotaService over a QuotaStore.
//
// Admission is fail-closed: when the store cannot answer, the request is
// rejected rather than admitted unmetered. Tenants with enforcement disabled
// still count usage so reports stay meaningful, they just never reject.
type Service struct {
	store   service.QuotaStore
	metrics service.Metrics
	logger  logger.Logger
}

var _ service.QuotaService = (*Service)(nil)

// NewService creates the quota admission service.
func NewService(store service.QuotaStore, metrics service.Metrics, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Service{
		store:   store,
		metrics: metrics,
		logger:  log.WithComponent("quota_service"),
	}
}

// Admit implements service.QuotaService.
func (s *Service) Admit(ctx context.Context, tenant *models.Tenant) *errors.AppError {
	now := time.Now().UTC()
	demands := make([]service.WindowDemand, 0, len(models.AllWindowKinds))
	for _, kind := range models.AllWindowKinds {
		limit := tenant.LimitFor(kind)
		if !tenant.QuotaLimits.Enforced {
			limit = 0
		}
		demands = append(demands, service.WindowDemand{
			Kind:        kind,
			WindowStart: kind.WindowStart(now),
			Limit:       limit,
		})
	}

	counts, allowed, err := s.store.TakeAll(ctx, tenant.TenantID, demands)
	if err != nil {
		s.logger.Error(ctx, "quota store unavailable, rejecting request", err,
			logger.String("tenant_id", tenant.TenantID),
		)
		s.recordDecision(tenant.TenantID, "store", false)
		return errors.ErrUnavailable.WithError(err).
			WithDescription("quota state unavailable, request rejected")
	}
	if !allowed {
		exhausted := exhaustedWindow(demands, counts)
		s.logger.Warn(ctx, "quota exceeded",
			logger.String("tenant_id", tenant.TenantID),
			logger.String("window", string(exhausted)),
		)
		s.recordDecision(tenant.TenantID, string(exhausted), false)
		return errors.ErrQuotaExceeded.WithDetail("window", string(exhausted))
	}

	for _, d := range demands {
		s.recordDecision(tenant.TenantID, string(d.Kind), true)
	}
	return nil
}

// Usage implements service.QuotaService.
func (s *Service) Usage(ctx context.Context, tenant *models.Tenant) ([]service.WindowUsage, *errors.AppError) {
	now := time.Now().UTC()
	usages := make([]service.WindowUsage, 0, len(models.AllWindowKinds))
	for _, kind := range models.AllWindowKinds {
		start := kind.WindowStart(now)
		used, err := s.store.Peek(ctx, tenant.TenantID, kind, start)
		if err != nil {
			return nil, errors.ErrUnavailable.WithError(err).
				WithDescription("quota state unavailable")
		}
		counter := models.UsageCounter{
			TenantID:    tenant.TenantID,
			WindowKind:  kind,
			WindowStart: start,
			Count:       used,
		}
		limit := tenant.LimitFor(kind)
		usages = append(usages, service.WindowUsage{
			Kind:        kind,
			WindowStart: start,
			Used:        used,
			Limit:       limit,
			Remaining:   counter.Remaining(limit),
			ResetsAt:    kind.NextStart(start),
		})
	}
	return usages, nil
}

// Reset drops the tenant's counters when the underlying store supports it.
func (s *Service) Reset(ctx context.Context, tenantID string) *errors.AppError {
	resetter, ok := s.store.(Resetter)
	if !ok {
		return errors.ErrInternal.WithDescription("quota store does not support reset")
	}
	if err := resetter.Reset(ctx, tenantID); err != nil {
		return errors.ErrUnavailable.WithError(err)
	}
	s.logger.Info(ctx, "tenant quota reset", logger.String("tenant_id", tenantID))
	return nil
}

// exhaustedWindow names the first window the rejected request did not fit.
func exhaustedWindow(demands []service.WindowDemand, counts []int64) models.WindowKind {
	for i, d := range demands {
		if i < len(counts) && d.Limit > 0 && counts[i]+1 > d.Limit {
			return d.Kind
		}
	}
	if len(demands) > 0 {
		return demands[0].Kind
	}
	return models.WindowDaily
}

func (s *Service) recordDecision(tenantID, window string, allowed bool) {
	if s.metrics != nil {
		s.metrics.RecordQuotaDecision(tenantID, window, allowed)
	}
}
