package service

import (
	"context"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/domain/models"
	domainService "github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// UsageAppService defines the interface for the quota usage application service
type UsageAppService interface {
	// Usage reports the tenant's consumption per window without counting
	// the inquiry against any quota.
	// Usage 报告租户每个窗口的用量，查询本身不计入任何配额。
	Usage(ctx context.Context, tenant *models.Tenant) (*dto.UsageResponse, error)
}

// usageAppServiceImpl is the concrete implementation of UsageAppService
type usageAppServiceImpl struct {
	quotaService domainService.QuotaService
	logger       logger.Logger
}

// NewUsageAppService creates a new instance of UsageAppService
func NewUsageAppService(quotaService domainService.QuotaService, log logger.Logger) UsageAppService {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &usageAppServiceImpl{
		quotaService: quotaService,
		logger:       log.WithComponent("usage_app_service"),
	}
}

// Usage implements the usage report
func (s *usageAppServiceImpl) Usage(ctx context.Context, tenant *models.Tenant) (*dto.UsageResponse, error) {
	windows, err := s.quotaService.Usage(ctx, tenant)
	if err != nil {
		s.logger.Error(ctx, "Usage lookup failed", err, logger.String("tenant_id", tenant.TenantID))
		return nil, err
	}

	out := make([]dto.WindowUsageDTO, 0, len(windows))
	for _, w := range windows {
		out = append(out, dto.WindowUsageDTO{
			Window:    string(w.Kind),
			Used:      w.Used,
			Limit:     w.Limit,
			Remaining: w.Remaining,
			ResetsAt:  w.ResetsAt,
		})
	}

	return &dto.UsageResponse{
		TenantID: tenant.TenantID,
		Enforced: tenant.QuotaLimits.Enforced,
		Windows:  out,
	}, nil
}
