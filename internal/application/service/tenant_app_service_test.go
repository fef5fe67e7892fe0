package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/application/dto"
	appservice "github.com/rampartlabs/rampart/internal/application/service"
	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/utils"
)

// fakeTenantRepo keeps tenants in insertion order so listings are stable.
type fakeTenantRepo struct {
	order       []string
	tenants     map[string]*models.Tenant
	saveErr     *errors.AppError
	lastLimit   int
	lastOffset  int
	softDeleted []string
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: map[string]*models.Tenant{}}
}

func (r *fakeTenantRepo) FindByID(_ context.Context, tenantID string) (*models.Tenant, *errors.AppError) {
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return nil, errors.ErrNotFound.WithDescription("tenant not found")
	}
	return tenant.Clone(), nil
}

func (r *fakeTenantRepo) FindByAPIKey(_ context.Context, apiKey string) (*models.Tenant, *errors.AppError) {
	for _, tenant := range r.tenants {
		if tenant.APIKey == apiKey {
			return tenant.Clone(), nil
		}
	}
	return nil, errors.ErrNotFound.WithDescription("tenant not found")
}

func (r *fakeTenantRepo) FindAll(_ context.Context, limit, offset int) ([]*models.Tenant, *errors.AppError) {
	r.lastLimit, r.lastOffset = limit, offset
	out := make([]*models.Tenant, 0, len(r.order))
	for i := offset; i < len(r.order) && len(out) < limit; i++ {
		out = append(out, r.tenants[r.order[i]].Clone())
	}
	return out, nil
}

func (r *fakeTenantRepo) Save(_ context.Context, tenant *models.Tenant) *errors.AppError {
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, existing := range r.tenants {
		if existing.TenantName == tenant.TenantName {
			return errors.ErrConflict.WithDescription("tenant name already exists")
		}
	}
	r.order = append(r.order, tenant.TenantID)
	r.tenants[tenant.TenantID] = tenant.Clone()
	return nil
}

func (r *fakeTenantRepo) UpdateConfig(_ context.Context, tenant *models.Tenant) *errors.AppError {
	if _, ok := r.tenants[tenant.TenantID]; !ok {
		return errors.ErrNotFound.WithDescription("tenant not found")
	}
	r.tenants[tenant.TenantID] = tenant.Clone()
	return nil
}

func (r *fakeTenantRepo) SoftDelete(_ context.Context, tenantID string) *errors.AppError {
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return errors.ErrNotFound.WithDescription("tenant not found")
	}
	now := time.Now().UTC()
	tenant.DeletedAt = &now
	tenant.Status = constants.TenantStatusDeleted
	r.softDeleted = append(r.softDeleted, tenantID)
	return nil
}

// stubResetter records quota reset calls.
type stubResetter struct {
	resets []string
	err    *errors.AppError
}

func (s *stubResetter) Reset(_ context.Context, tenantID string) *errors.AppError {
	s.resets = append(s.resets, tenantID)
	return s.err
}

func newTenantService(repo *fakeTenantRepo, reset appservice.QuotaResetter) appservice.TenantAppService {
	return appservice.NewTenantAppService(repo, reset, nil)
}

func TestTenantAppService_ProvisionIssuesCredentialsOnce(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo, nil)

	resp, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: "Acme"})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.APIKey, "rk_"))
	assert.True(t, strings.HasPrefix(resp.APISecret, "rs_"))
	assert.Equal(t, "active", resp.Status)
	assert.True(t, resp.QuotaLimits.Enforced)
	assert.Equal(t, int64(constants.DefaultDailyLimit), resp.QuotaLimits.DailyLimit)

	stored := repo.tenants[resp.TenantID]
	require.NotNil(t, stored)
	assert.Equal(t, utils.HashSecret(resp.APISecret), stored.APISecretHash)
	assert.NotContains(t, stored.APISecretHash, resp.APISecret)
	assert.True(t, stored.RiskPolicy.BlockHighRisk)
	assert.True(t, stored.RiskPolicy.AutoRedact)
}

func TestTenantAppService_ProvisionAppliesOverrides(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo, nil)

	resp, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{
		Name:        "Acme",
		QuotaLimits: &models.QuotaLimits{DailyLimit: 10, MonthlyLimit: 100, Enforced: false},
		RiskPolicy:  &models.RiskPolicy{BlockHighRisk: false, AutoRedact: false},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.QuotaLimits.DailyLimit)
	stored := repo.tenants[resp.TenantID]
	assert.False(t, stored.QuotaLimits.Enforced)
	assert.False(t, stored.RiskPolicy.BlockHighRisk)
}

func TestTenantAppService_ProvisionValidation(t *testing.T) {
	svc := newTenantService(newFakeTenantRepo(), nil)

	cases := []struct {
		name string
		req  *dto.CreateTenantRequest
	}{
		{"empty name", &dto.CreateTenantRequest{Name: "   "}},
		{"oversized name", &dto.CreateTenantRequest{Name: strings.Repeat("x", 129)}},
		{"negative limits", &dto.CreateTenantRequest{
			Name:        "Acme",
			QuotaLimits: &models.QuotaLimits{DailyLimit: -1},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Provision(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidRequest, errors.CodeOf(err))
		})
	}
}

func TestTenantAppService_ProvisionDuplicateNameConflicts(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo, nil)

	_, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: "Acme"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.CodeOf(err))
}

func TestTenantAppService_GetUnknownTenant(t *testing.T) {
	svc := newTenantService(newFakeTenantRepo(), nil)

	_, err := svc.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestTenantAppService_UpdatePartialChange(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo, nil)
	provisioned, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: "Acme"})
	require.NoError(t, err)

	resp, err := svc.Update(context.Background(), provisioned.TenantID, &dto.UpdateTenantRequest{
		QuotaLimits: &models.QuotaLimits{DailyLimit: 5, MonthlyLimit: 50, Enforced: true},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.QuotaLimits.DailyLimit)
	// Untouched fields keep their values.
	assert.True(t, resp.RiskPolicy.BlockHighRisk)
	assert.Equal(t, "active", resp.Status)
	// Credentials are immutable through updates.
	assert.Equal(t, provisioned.APIKey, resp.APIKey)
}

func TestTenantAppService_UpdateStatusSuspends(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo, nil)
	provisioned, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: "Acme"})
	require.NoError(t, err)

	suspended := "suspended"
	resp, err := svc.Update(context.Background(), provisioned.TenantID, &dto.UpdateTenantRequest{Status: &suspended})

	require.NoError(t, err)
	assert.Equal(t, "suspended", resp.Status)
	assert.Equal(t, constants.TenantStatusSuspended, repo.tenants[provisioned.TenantID].Status)
}

func TestTenantAppService_UpdateValidation(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo, nil)
	provisioned, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: "Acme"})
	require.NoError(t, err)

	deleted := "deleted"
	cases := []struct {
		name string
		req  *dto.UpdateTenantRequest
	}{
		{"status deleted not allowed", &dto.UpdateTenantRequest{Status: &deleted}},
		{"inverted thresholds", &dto.UpdateTenantRequest{
			ScoringOverrides: &models.ScoringOverrides{MediumThreshold: 0.8, HighThreshold: 0.5},
		}},
		{"unknown weight category", &dto.UpdateTenantRequest{
			ScoringOverrides: &models.ScoringOverrides{
				Weights: map[models.Category]float64{models.Category("sentiment"): 0.5},
			},
		}},
		{"non-positive weight", &dto.UpdateTenantRequest{
			ScoringOverrides: &models.ScoringOverrides{
				Weights: map[models.Category]float64{models.CategoryPII: 0},
			},
		}},
		{"unknown threshold category", &dto.UpdateTenantRequest{
			ScoringOverrides: &models.ScoringOverrides{
				ThresholdOverrides: map[models.Category]models.LevelThresholds{
					models.Category("sentiment"): {Medium: 0.2, High: 0.5},
				},
			},
		}},
		{"per-category threshold above one", &dto.UpdateTenantRequest{
			ScoringOverrides: &models.ScoringOverrides{
				ThresholdOverrides: map[models.Category]models.LevelThresholds{
					models.CategoryPII: {High: 1.5},
				},
			},
		}},
		{"per-category inverted thresholds", &dto.UpdateTenantRequest{
			ScoringOverrides: &models.ScoringOverrides{
				ThresholdOverrides: map[models.Category]models.LevelThresholds{
					models.CategoryBias: {Medium: 0.6, High: 0.3},
				},
			},
		}},
		{"per-category low above medium", &dto.UpdateTenantRequest{
			ScoringOverrides: &models.ScoringOverrides{
				ThresholdOverrides: map[models.Category]models.LevelThresholds{
					models.CategoryBias: {Low: 0.5, Medium: 0.4},
				},
			},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, updateErr := svc.Update(context.Background(), provisioned.TenantID, tc.req)
			require.Error(t, updateErr)
			assert.Equal(t, errors.CodeInvalidRequest, errors.CodeOf(updateErr))
		})
	}
}

func TestTenantAppService_DeleteSoftDeletes(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo, nil)
	provisioned, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: "Acme"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), provisioned.TenantID))

	assert.Equal(t, []string{provisioned.TenantID}, repo.softDeleted)
	assert.NotNil(t, repo.tenants[provisioned.TenantID].DeletedAt)
}

func TestTenantAppService_ListDefaultsAndMapping(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo, nil)
	for _, name := range []string{"Acme", "Globex", "Initech"} {
		_, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: name})
		require.NoError(t, err)
	}

	resp, err := svc.List(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, "Acme", resp.Tenants[0].Name)
	assert.Equal(t, "active", resp.Tenants[0].Status)
}

func TestTenantAppService_ListPagination(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo, nil)
	for _, name := range []string{"Acme", "Globex", "Initech"} {
		_, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: name})
		require.NoError(t, err)
	}

	resp, err := svc.List(context.Background(), &dto.ListTenantsRequest{Limit: 1, Offset: 1})

	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Globex", resp.Tenants[0].Name)
	assert.Equal(t, 1, resp.Limit)
	assert.Equal(t, 1, resp.Offset)
}

func TestTenantAppService_ResetQuota(t *testing.T) {
	repo := newFakeTenantRepo()
	reset := &stubResetter{}
	svc := newTenantService(repo, reset)
	provisioned, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: "Acme"})
	require.NoError(t, err)

	require.NoError(t, svc.ResetQuota(context.Background(), provisioned.TenantID))
	assert.Equal(t, []string{provisioned.TenantID}, reset.resets)

	// Unknown tenants never reach the resetter.
	err = svc.ResetQuota(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
	assert.Len(t, reset.resets, 1)
}

func TestTenantAppService_ResetQuotaWithoutResetter(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo, nil)
	provisioned, err := svc.Provision(context.Background(), &dto.CreateTenantRequest{Name: "Acme"})
	require.NoError(t, err)

	err = svc.ResetQuota(context.Background(), provisioned.TenantID)

	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidRequest, errors.CodeOf(err))
}
