package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/repository"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
	"github.com/rampartlabs/rampart/pkg/utils"
)

const maxTenantNameLength = 128

// QuotaResetter drops a tenant's counted usage in every window. The quota
// service implements it when its store supports resets.
type QuotaResetter interface {
	Reset(ctx context.Context, tenantID string) *errors.AppError
}

// TenantAppService defines the application service interface for tenant management use cases.
// TenantAppService 租户应用服务接口。
type TenantAppService interface {
	// Provision creates a tenant and returns its credentials. The clear API
	// secret appears only in this response; the server keeps its hash.
	// Provision 创建租户并返回其凭证。明文 API 密钥仅出现在此响应中；
	// 服务端只保存其哈希。
	Provision(ctx context.Context, req *dto.CreateTenantRequest) (*dto.ProvisionTenantResponse, error)

	// Get retrieves a tenant's full configuration.
	// Get 获取租户的完整配置。
	Get(ctx context.Context, tenantID string) (*dto.TenantResponse, error)

	// Update applies a partial configuration change. Nil fields keep their
	// current values; identity and credentials are immutable.
	// Update 应用部分配置变更。nil 字段保持当前值；身份与凭证不可变。
	Update(ctx context.Context, tenantID string, req *dto.UpdateTenantRequest) (*dto.TenantResponse, error)

	// Delete soft-deletes a tenant. Its audit records stay resolvable.
	// Delete 软删除租户。其审计记录仍可解析。
	Delete(ctx context.Context, tenantID string) error

	// List retrieves a paginated list of all tenants.
	// List 列出所有租户（分页）。
	List(ctx context.Context, req *dto.ListTenantsRequest) (*dto.ListTenantsResponse, error)

	// ResetQuota clears the tenant's counted usage in every window.
	// ResetQuota 清除租户所有窗口的已计用量。
	ResetQuota(ctx context.Context, tenantID string) error
}

// tenantAppServiceImpl is the concrete implementation of the TenantAppService interface.
// tenantAppServiceImpl 租户应用服务实现。
type tenantAppServiceImpl struct {
	tenantRepo repository.TenantRepository
	quotaReset QuotaResetter
	logger     logger.Logger
}

// NewTenantAppService creates a new instance of TenantAppService. quotaReset
// may be nil when the quota store cannot drop counters.
// NewTenantAppService 创建租户应用服务实例。
func NewTenantAppService(
	tenantRepo repository.TenantRepository,
	quotaReset QuotaResetter,
	log logger.Logger,
) TenantAppService {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &tenantAppServiceImpl{
		tenantRepo: tenantRepo,
		quotaReset: quotaReset,
		logger:     log.WithComponent("tenant_app_service"),
	}
}

// Provision implements tenant creation and credential issuance
func (s *tenantAppServiceImpl) Provision(ctx context.Context, req *dto.CreateTenantRequest) (*dto.ProvisionTenantResponse, error) {
	// 1. Validate the request payload
	if req == nil {
		return nil, errors.ErrInvalidRequest.WithDescription("request body must not be empty")
	}
	if verr := utils.ValidateStruct(req); verr != nil {
		return nil, verr
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrInvalidRequest.WithDescription("tenant name must not be blank")
	}
	if len(name) > maxTenantNameLength {
		return nil, errors.ErrInvalidRequest.WithDescription("tenant name exceeds %d characters", maxTenantNameLength)
	}
	if req.QuotaLimits != nil {
		if err := validateQuotaLimits(req.QuotaLimits); err != nil {
			return nil, err
		}
	}

	// 2. Generate credentials; the secret is hashed before it is stored
	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		s.logger.Error(ctx, "API key generation failed", err)
		return nil, errors.ErrInternal.WithError(err)
	}
	apiSecret, err := utils.GenerateAPISecret()
	if err != nil {
		s.logger.Error(ctx, "API secret generation failed", err)
		return nil, errors.ErrInternal.WithError(err)
	}

	// 3. Build the tenant with defaults, then apply explicit overrides
	tenant := models.NewTenant(uuid.NewString(), name)
	tenant.APIKey = apiKey
	tenant.APISecretHash = utils.HashSecret(apiSecret)
	if req.QuotaLimits != nil {
		tenant.QuotaLimits = *req.QuotaLimits
	}
	if req.RiskPolicy != nil {
		tenant.RiskPolicy = *req.RiskPolicy
	}

	// 4. Persist; duplicate names surface as a conflict
	if saveErr := s.tenantRepo.Save(ctx, tenant); saveErr != nil {
		s.logger.Error(ctx, "Failed to save tenant", saveErr, logger.String("tenant_name", name))
		return nil, saveErr
	}

	s.logger.Info(ctx, "Tenant provisioned",
		logger.String("tenant_id", tenant.TenantID),
		logger.String("tenant_name", tenant.TenantName))

	return &dto.ProvisionTenantResponse{
		TenantID:    tenant.TenantID,
		Name:        tenant.TenantName,
		APIKey:      tenant.APIKey,
		APISecret:   apiSecret,
		Status:      string(tenant.Status),
		QuotaLimits: tenant.QuotaLimits,
		CreatedAt:   tenant.CreatedAt,
	}, nil
}

// Get implements tenant retrieval
func (s *tenantAppServiceImpl) Get(ctx context.Context, tenantID string) (*dto.TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return convertTenantToDTO(tenant), nil
}

// Update implements partial tenant configuration changes
func (s *tenantAppServiceImpl) Update(ctx context.Context, tenantID string, req *dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	// 1. Validate the requested changes before touching storage
	if req == nil {
		return nil, errors.ErrInvalidRequest.WithDescription("request body must not be empty")
	}
	status, err := validateUpdateTenantRequest(req)
	if err != nil {
		return nil, err
	}

	// 2. Load and copy; cached instances stay immutable
	current, findErr := s.tenantRepo.FindByID(ctx, tenantID)
	if findErr != nil {
		return nil, findErr
	}
	tenant := current.Clone()

	// 3. Apply the changes
	if status != "" {
		tenant.Status = status
	}
	if req.QuotaLimits != nil {
		tenant.QuotaLimits = *req.QuotaLimits
	}
	if req.RiskPolicy != nil {
		tenant.RiskPolicy = *req.RiskPolicy
	}
	if req.ScoringOverrides != nil {
		tenant.ScoringOverrides = *req.ScoringOverrides
	}
	tenant.UpdatedAt = time.Now().UTC()

	// 4. Write through; the repository invalidates cached entries
	if updateErr := s.tenantRepo.UpdateConfig(ctx, tenant); updateErr != nil {
		s.logger.Error(ctx, "Failed to update tenant", updateErr, logger.String("tenant_id", tenantID))
		return nil, updateErr
	}

	s.logger.Info(ctx, "Tenant updated", logger.String("tenant_id", tenant.TenantID))
	return convertTenantToDTO(tenant), nil
}

// Delete implements tenant soft deletion
func (s *tenantAppServiceImpl) Delete(ctx context.Context, tenantID string) error {
	if _, err := s.tenantRepo.FindByID(ctx, tenantID); err != nil {
		return err
	}
	if err := s.tenantRepo.SoftDelete(ctx, tenantID); err != nil {
		s.logger.Error(ctx, "Failed to delete tenant", err, logger.String("tenant_id", tenantID))
		return err
	}
	s.logger.Info(ctx, "Tenant deleted", logger.String("tenant_id", tenantID))
	return nil
}

// List implements paginated tenant listing
func (s *tenantAppServiceImpl) List(ctx context.Context, req *dto.ListTenantsRequest) (*dto.ListTenantsResponse, error) {
	limit, offset := 50, 0
	if req != nil {
		if req.Limit > 0 {
			limit = req.Limit
		}
		if req.Offset > 0 {
			offset = req.Offset
		}
	}

	tenants, err := s.tenantRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.TenantSummary, 0, len(tenants))
	for _, t := range tenants {
		summaries = append(summaries, dto.TenantSummary{
			TenantID:  t.TenantID,
			Name:      t.TenantName,
			Status:    string(t.Status),
			CreatedAt: t.CreatedAt,
		})
	}

	return &dto.ListTenantsResponse{
		Tenants: summaries,
		Count:   len(summaries),
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// ResetQuota implements quota counter resets
func (s *tenantAppServiceImpl) ResetQuota(ctx context.Context, tenantID string) error {
	if s.quotaReset == nil {
		return errors.ErrInvalidRequest.WithDescription("quota store does not support resets")
	}
	if _, err := s.tenantRepo.FindByID(ctx, tenantID); err != nil {
		return err
	}
	if err := s.quotaReset.Reset(ctx, tenantID); err != nil {
		s.logger.Error(ctx, "Failed to reset quota", err, logger.String("tenant_id", tenantID))
		return err
	}
	s.logger.Info(ctx, "Quota reset", logger.String("tenant_id", tenantID))
	return nil
}

// validateUpdateTenantRequest checks every field of a partial update and
// returns the parsed status when one was requested.
func validateUpdateTenantRequest(req *dto.UpdateTenantRequest) (constants.TenantStatus, *errors.AppError) {
	var status constants.TenantStatus
	if req.Status != nil {
		switch constants.TenantStatus(*req.Status) {
		case constants.TenantStatusActive:
			status = constants.TenantStatusActive
		case constants.TenantStatusSuspended:
			status = constants.TenantStatusSuspended
		default:
			// Deletion goes through Delete so the repository records it.
			return "", errors.ErrInvalidRequest.WithDescription("status must be active or suspended")
		}
	}
	if req.QuotaLimits != nil {
		if err := validateQuotaLimits(req.QuotaLimits); err != nil {
			return "", err
		}
	}
	if req.ScoringOverrides != nil {
		if err := validateScoringOverrides(req.ScoringOverrides); err != nil {
			return "", err
		}
	}
	return status, nil
}

func validateQuotaLimits(limits *models.QuotaLimits) *errors.AppError {
	if limits.DailyLimit < 0 || limits.MonthlyLimit < 0 {
		return errors.ErrInvalidRequest.WithDescription("quota limits must not be negative")
	}
	return nil
}

// validateScoringOverrides rejects override values the aggregator would have
// to silently discard. Zero values mean "keep the default" and pass.
func validateScoringOverrides(o *models.ScoringOverrides) *errors.AppError {
	for cat, w := range o.Weights {
		if !cat.Valid() {
			return errors.ErrInvalidRequest.WithDescription("unknown scoring category: %s", cat)
		}
		if w <= 0 {
			return errors.ErrInvalidRequest.WithDescription("scoring weight must be positive for category %s", cat)
		}
	}
	if o.MediumThreshold < 0 || o.HighThreshold < 0 {
		return errors.ErrInvalidRequest.WithDescription("scoring thresholds must not be negative")
	}
	if o.MediumThreshold > 0 && o.HighThreshold > 0 && o.MediumThreshold >= o.HighThreshold {
		return errors.ErrInvalidRequest.WithDescription("medium threshold must be below high threshold")
	}
	for cat, t := range o.ThresholdOverrides {
		if !cat.Valid() {
			return errors.ErrInvalidRequest.WithDescription("unknown scoring category: %s", cat)
		}
		if t.Low < 0 || t.Medium < 0 || t.High < 0 || t.Low > 1 || t.Medium > 1 || t.High > 1 {
			return errors.ErrInvalidRequest.WithDescription("threshold overrides for category %s must stay within [0, 1]", cat)
		}
		if t.Low > 0 && t.Medium > 0 && t.Low >= t.Medium {
			return errors.ErrInvalidRequest.WithDescription("low threshold must be below medium for category %s", cat)
		}
		if t.Medium > 0 && t.High > 0 && t.Medium >= t.High {
			return errors.ErrInvalidRequest.WithDescription("medium threshold must be below high for category %s", cat)
		}
	}
	return nil
}

// convertTenantToDTO maps a tenant to its transport shape. The secret hash
// never leaves the service.
func convertTenantToDTO(t *models.Tenant) *dto.TenantResponse {
	return &dto.TenantResponse{
		TenantID:         t.TenantID,
		Name:             t.TenantName,
		APIKey:           t.APIKey,
		Status:           string(t.Status),
		QuotaLimits:      t.QuotaLimits,
		RiskPolicy:       t.RiskPolicy,
		ScoringOverrides: t.ScoringOverrides,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		DeletedAt:        t.DeletedAt,
	}
}
