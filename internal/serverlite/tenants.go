package serverlite

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/repository"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/utils"
)

// SeedTenant declares one tenant known to the lite server at startup. The
// clear secret is hashed at seed time; only the hash is kept.
type SeedTenant struct {
	TenantID  string
	Name      string
	APIKey    string
	APISecret string

	// QuotaLimits and RiskPolicy override the provisioning defaults when set.
	QuotaLimits *models.QuotaLimits
	RiskPolicy  *models.RiskPolicy
}

// memoryTenantRepo keeps tenants in process memory with the same visibility
// rules as the postgres repository: deleted tenants stay readable by id and
// in listings, but never authenticate.
type memoryTenantRepo struct {
	mu      sync.RWMutex
	order   []string
	tenants map[string]*models.Tenant
}

var _ repository.TenantRepository = (*memoryTenantRepo)(nil)

func newMemoryTenantRepo() *memoryTenantRepo {
	return &memoryTenantRepo{tenants: make(map[string]*models.Tenant)}
}

// seed installs a static tenant, bypassing the uniqueness checks a live
// provisioning call goes through.
func (r *memoryTenantRepo) seed(t SeedTenant) error {
	if strings.TrimSpace(t.TenantID) == "" || strings.TrimSpace(t.APIKey) == "" || t.APISecret == "" {
		return errors.ErrConfiguration.WithDescription("seed tenant needs tenant_id, api_key and api_secret")
	}

	tenant := models.NewTenant(t.TenantID, t.Name)
	tenant.APIKey = t.APIKey
	tenant.APISecretHash = utils.HashSecret(t.APISecret)
	if t.QuotaLimits != nil {
		tenant.QuotaLimits = *t.QuotaLimits
	}
	if t.RiskPolicy != nil {
		tenant.RiskPolicy = *t.RiskPolicy
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tenants[tenant.TenantID]; exists {
		return errors.ErrConflict.WithDetail("tenant_id", tenant.TenantID)
	}
	r.tenants[tenant.TenantID] = tenant
	r.order = append(r.order, tenant.TenantID)
	return nil
}

func (r *memoryTenantRepo) FindByID(ctx context.Context, tenantID string) (*models.Tenant, *errors.AppError) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return nil, errors.ErrNotFound.WithDetail("tenant_id", tenantID)
	}
	return tenant.Clone(), nil
}

func (r *memoryTenantRepo) FindByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, *errors.AppError) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tenant := range r.tenants {
		if tenant.APIKey == apiKey && tenant.DeletedAt == nil {
			return tenant.Clone(), nil
		}
	}
	return nil, errors.ErrNotFound.WithDescription("no tenant for api key")
}

func (r *memoryTenantRepo) FindAll(ctx context.Context, limit, offset int) ([]*models.Tenant, *errors.AppError) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	tenants := make([]*models.Tenant, 0, limit)
	for i := offset; i < len(r.order) && len(tenants) < limit; i++ {
		tenants = append(tenants, r.tenants[r.order[i]].Clone())
	}
	return tenants, nil
}

func (r *memoryTenantRepo) Save(ctx context.Context, tenant *models.Tenant) *errors.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tenants[tenant.TenantID]; exists {
		return errors.ErrConflict.WithDetail("tenant_id", tenant.TenantID)
	}
	for _, existing := range r.tenants {
		if existing.TenantName == tenant.TenantName {
			return errors.ErrConflict.WithDescription("tenant name already in use")
		}
		if existing.APIKey == tenant.APIKey {
			return errors.ErrConflict.WithDescription("api key already in use")
		}
	}
	r.tenants[tenant.TenantID] = tenant.Clone()
	r.order = append(r.order, tenant.TenantID)
	return nil
}

func (r *memoryTenantRepo) UpdateConfig(ctx context.Context, tenant *models.Tenant) *errors.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tenants[tenant.TenantID]
	if !ok || stored.DeletedAt != nil {
		return errors.ErrNotFound.WithDetail("tenant_id", tenant.TenantID)
	}

	now := time.Now().UTC()
	stored.Status = tenant.Status
	stored.QuotaLimits = tenant.QuotaLimits
	stored.RiskPolicy = tenant.RiskPolicy
	stored.ScoringOverrides = tenant.ScoringOverrides
	stored.UpdatedAt = now
	tenant.UpdatedAt = now
	return nil
}

func (r *memoryTenantRepo) SoftDelete(ctx context.Context, tenantID string) *errors.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tenants[tenantID]
	if !ok || stored.DeletedAt != nil {
		return errors.ErrNotFound.WithDetail("tenant_id", tenantID)
	}

	now := time.Now().UTC()
	stored.Status = constants.TenantStatusDeleted
	stored.DeletedAt = &now
	stored.UpdatedAt = now
	return nil
}
