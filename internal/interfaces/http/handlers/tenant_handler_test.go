package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/interfaces/http/handlers"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// stubTenantService scripts admin-plane outcomes.
type stubTenantService struct {
	provision *dto.ProvisionTenantResponse
	tenant    *dto.TenantResponse
	list      *dto.ListTenantsResponse
	err       *errors.AppError

	lastList *dto.ListTenantsRequest
}

func (s *stubTenantService) Provision(context.Context, *dto.CreateTenantRequest) (*dto.ProvisionTenantResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.provision, nil
}

func (s *stubTenantService) Get(context.Context, string) (*dto.TenantResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tenant, nil
}

func (s *stubTenantService) Update(context.Context, string, *dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tenant, nil
}

func (s *stubTenantService) Delete(context.Context, string) error {
	if s.err != nil {
		return s.err
	}
	return nil
}

func (s *stubTenantService) List(ctx context.Context, req *dto.ListTenantsRequest) (*dto.ListTenantsResponse, error) {
	s.lastList = req
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

func (s *stubTenantService) ResetQuota(context.Context, string) error {
	if s.err != nil {
		return s.err
	}
	return nil
}

func tenantRouter(svc *stubTenantService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewTenantHandler(svc)
	router := gin.New()
	router.POST("/tenants", h.Create)
	router.GET("/tenants", h.List)
	router.GET("/tenants/:tenant_id", h.Get)
	router.DELETE("/tenants/:tenant_id", h.Delete)
	router.POST("/tenants/:tenant_id/quota/reset", h.ResetQuota)
	return router
}

func TestTenantHandler_CreateReturnsSecretOnce(t *testing.T) {
	svc := &stubTenantService{provision: &dto.ProvisionTenantResponse{
		TenantID:  "tenant-a",
		Name:      "Acme",
		APIKey:    "rk_abc",
		APISecret: "rs_clear",
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}}
	router := tenantRouter(svc)

	w := postJSON(router, "/tenants", `{"name":"Acme"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	e := decodeEnvelope(t, w)
	assert.Equal(t, "rk_abc", e.Data["api_key"])
	assert.Equal(t, "rs_clear", e.Data["api_secret"])
}

func TestTenantHandler_CreateRequiresName(t *testing.T) {
	router := tenantRouter(&stubTenantService{})

	w := postJSON(router, "/tenants", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	e := decodeEnvelope(t, w)
	require.NotNil(t, e.Error)
	assert.Equal(t, errors.CodeInvalidRequest, e.Error.Code)
}

func TestTenantHandler_GetUnknownTenant(t *testing.T) {
	svc := &stubTenantService{err: errors.ErrNotFound.WithDescription("tenant not found")}
	router := tenantRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	e := decodeEnvelope(t, w)
	require.NotNil(t, e.Error)
	assert.Equal(t, errors.CodeNotFound, e.Error.Code)
}

func TestTenantHandler_ListBindsQueryParams(t *testing.T) {
	svc := &stubTenantService{list: &dto.ListTenantsResponse{
		Tenants: []dto.TenantSummary{{TenantID: "tenant-a", Name: "Acme", Status: "active"}},
		Count:   1,
		Limit:   5,
		Offset:  10,
	}}
	router := tenantRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants?limit=5&offset=10", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastList)
	assert.Equal(t, 5, svc.lastList.Limit)
	assert.Equal(t, 10, svc.lastList.Offset)
}

func TestTenantHandler_DeleteAndReset(t *testing.T) {
	router := tenantRouter(&stubTenantService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/tenants/tenant-a", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeEnvelope(t, w).Data["deleted"])

	w = postJSON(router, "/tenants/tenant-a/quota/reset", ``)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeEnvelope(t, w).Data["reset"])
}
