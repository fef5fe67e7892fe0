package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/interfaces/http/handlers"
	"github.com/rampartlabs/rampart/internal/interfaces/http/middleware"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// stubAnalysisService scripts the pipeline outcome for handler tests.
type stubAnalysisService struct {
	resp *dto.AnalyzeResponse
	err  *errors.AppError
}

func (s *stubAnalysisService) Analyze(context.Context, *models.Tenant, *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

// stubSessionService scripts the session plane.
type stubSessionService struct {
	handshake *dto.HandshakeResponse
	envelope  *dto.SecureEnvelope
	err       *errors.AppError
}

func (s *stubSessionService) Handshake(context.Context, *models.Tenant) (*dto.HandshakeResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.handshake, nil
}

func (s *stubSessionService) Close(context.Context, *models.Tenant, *dto.CloseSessionRequest) error {
	if s.err != nil {
		return s.err
	}
	return nil
}

func (s *stubSessionService) SecureAnalyze(context.Context, *models.Tenant, *dto.SecureEnvelope) (*dto.SecureEnvelope, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.envelope, nil
}

// injectTenant stands in for APIKeyAuth in handler tests.
func injectTenant(tenant *models.Tenant) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetTenant(c, tenant)
		c.Next()
	}
}

func handlerTenant() *models.Tenant {
	tenant := models.NewTenant("tenant-a", "Acme")
	tenant.APIKey = "rk_test"
	return tenant
}

// envelope decodes the standard API response wrapper.
type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   *dto.ErrorDTO          `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeHandler_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubAnalysisService{resp: &dto.AnalyzeResponse{
		RiskDetected: true,
		RiskLevel:    "medium",
		Disposition:  "redact",
		Text:         "my email is [REDACTED:EMAIL]",
	}}
	router := gin.New()
	router.POST("/analyze", injectTenant(handlerTenant()), handlers.NewAnalyzeHandler(svc).Analyze)

	w := postJSON(router, "/analyze", `{"text":"my email is a@b.c"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	assert.True(t, e.Success)
	assert.Equal(t, "redact", e.Data["disposition"])
	assert.Equal(t, "my email is [REDACTED:EMAIL]", e.Data["text"])
}

func TestAnalyzeHandler_MalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/analyze", injectTenant(handlerTenant()), handlers.NewAnalyzeHandler(&stubAnalysisService{}).Analyze)

	w := postJSON(router, "/analyze", `{"text": 12`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	e := decodeEnvelope(t, w)
	assert.False(t, e.Success)
	require.NotNil(t, e.Error)
	assert.Equal(t, errors.CodeInvalidRequest, e.Error.Code)
}

func TestAnalyzeHandler_PipelineErrorsKeepTheirStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		err  *errors.AppError
		want int
	}{
		{"quota exceeded", errors.ErrQuotaExceeded, http.StatusTooManyRequests},
		{"audit outage", errors.ErrUnavailable, http.StatusServiceUnavailable},
		{"inactive tenant", errors.ErrAuthenticationFailed, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/analyze", injectTenant(handlerTenant()),
				handlers.NewAnalyzeHandler(&stubAnalysisService{err: tc.err}).Analyze)

			w := postJSON(router, "/analyze", `{"text":"hello"}`)

			assert.Equal(t, tc.want, w.Code)
			e := decodeEnvelope(t, w)
			require.NotNil(t, e.Error)
			assert.Equal(t, tc.err.Code, e.Error.Code)
		})
	}
}

func TestAnalyzeHandler_MissingTenantIsInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	// No auth middleware on the route at all.
	router.POST("/analyze", handlers.NewAnalyzeHandler(&stubAnalysisService{}).Analyze)

	w := postJSON(router, "/analyze", `{"text":"hello"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSessionHandler_Handshake(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubSessionService{handshake: &dto.HandshakeResponse{
		SessionID:   "sess-1",
		KeyMaterial: "c2VjcmV0",
		ExpiresAt:   1700000000,
	}}
	router := gin.New()
	router.POST("/session/handshake", injectTenant(handlerTenant()), handlers.NewSessionHandler(svc).Handshake)

	w := postJSON(router, "/session/handshake", ``)

	assert.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	assert.Equal(t, "sess-1", e.Data["session_id"])
	assert.Equal(t, "c2VjcmV0", e.Data["key_material"])
}

func TestSessionHandler_CloseRequiresSessionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/session/close", injectTenant(handlerTenant()), handlers.NewSessionHandler(&stubSessionService{}).Close)

	w := postJSON(router, "/session/close", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_SecureAnalyzeErrorsArePlaintext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubSessionService{err: errors.ErrDecryptionFailed}
	router := gin.New()
	router.POST("/secure/analyze", injectTenant(handlerTenant()), handlers.NewSessionHandler(svc).SecureAnalyze)

	w := postJSON(router, "/secure/analyze", `{"session_id":"sess-1","payload":"AAAA"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	e := decodeEnvelope(t, w)
	require.NotNil(t, e.Error)
	assert.Equal(t, errors.CodeDecryptionFailed, e.Error.Code)
}

// stubUsageService scripts the usage report.
type stubUsageService struct {
	resp *dto.UsageResponse
	err  *errors.AppError
}

func (s *stubUsageService) Usage(context.Context, *models.Tenant) (*dto.UsageResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestUsageHandler_ReportsWindows(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubUsageService{resp: &dto.UsageResponse{
		TenantID: "tenant-a",
		Enforced: true,
		Windows: []dto.WindowUsageDTO{
			{Window: "daily", Used: 3, Limit: 1000, Remaining: 997},
		},
	}}
	router := gin.New()
	router.GET("/usage", injectTenant(handlerTenant()), handlers.NewUsageHandler(svc).Usage)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/usage", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	assert.Equal(t, "tenant-a", e.Data["tenant_id"])
	windows, ok := e.Data["windows"].([]interface{})
	require.True(t, ok)
	require.Len(t, windows, 1)
	window, ok := windows[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "daily", window["window"])
	assert.Equal(t, float64(997), window["remaining"])
}
