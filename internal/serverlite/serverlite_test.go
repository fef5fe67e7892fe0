package serverlite_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/domain/repository"
	"github.com/rampartlabs/rampart/internal/serverlite"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
)

func liteConfig() serverlite.Config {
	return serverlite.Config{
		AuditSigningKey: []byte("serverlite-test-signing-key"),
		Tenants: []serverlite.SeedTenant{{
			TenantID:  "tenant-lite",
			Name:      "Lite Tenant",
			APIKey:    "rk_lite",
			APISecret: "rs_lite_secret",
		}},
	}
}

func TestNewServer_RequiresSigningKey(t *testing.T) {
	cfg := liteConfig()
	cfg.AuditSigningKey = nil

	_, err := serverlite.NewServer(cfg)

	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigurationError, errors.CodeOf(err))
}

func TestNewServer_RejectsIncompleteSeed(t *testing.T) {
	cfg := liteConfig()
	cfg.Tenants = append(cfg.Tenants, serverlite.SeedTenant{TenantID: "tenant-x", APIKey: "rk_x"})

	_, err := serverlite.NewServer(cfg)

	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigurationError, errors.CodeOf(err))
}

func TestServer_SeededTenantCanAnalyze(t *testing.T) {
	s, err := serverlite.NewServer(liteConfig())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, constants.APIVersionPrefix+"/analyze",
		strings.NewReader(`{"text":"reach me at jane.doe@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderAPIKey, "rk_lite")
	req.Header.Set(constants.HeaderAPISecret, "rs_lite_secret")
	s.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Data struct {
			Disposition string `json:"disposition"`
			Text        string `json:"text"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "redact", body.Data.Disposition)
	assert.NotContains(t, body.Data.Text, "jane.doe@example.com")

	// The trail row lands in the sqlite store with the original text reduced
	// to post-redaction facts.
	records, appErr := s.AuditTrail().List(context.Background(), repository.AuditQuery{TenantID: "tenant-lite"})
	require.Nil(t, appErr)
	require.Len(t, records, 1)
	assert.Equal(t, constants.EventTypeAnalysis, records[0].EventType)
	assert.NotContains(t, records[0].Detail, "jane.doe@example.com")
}

func TestServer_BadCredentialsRejected(t *testing.T) {
	s, err := serverlite.NewServer(liteConfig())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, constants.APIVersionPrefix+"/analyze",
		strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderAPIKey, "rk_lite")
	req.Header.Set(constants.HeaderAPISecret, "rs_wrong")
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_AdminPlaneIsOptional(t *testing.T) {
	s, err := serverlite.NewServer(liteConfig())
	require.NoError(t, err)

	_, err = s.AdminToken(context.Background())
	require.Error(t, err)

	// Admin routes are simply absent without a secret.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, constants.APIVersionPrefix+"/admin/tenants", nil)
	s.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_AdminProvisionedTenantAuthenticates(t *testing.T) {
	cfg := liteConfig()
	cfg.AdminJWTSecret = "lite-admin-secret"
	s, err := serverlite.NewServer(cfg)
	require.NoError(t, err)

	token, err := s.AdminToken(context.Background())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, constants.APIVersionPrefix+"/admin/tenants",
		strings.NewReader(`{"name":"Provisioned Org"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	s.Engine().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			APIKey    string `json:"api_key"`
			APISecret string `json:"api_secret"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, constants.APIVersionPrefix+"/usage", nil)
	req.Header.Set(constants.HeaderAPIKey, created.Data.APIKey)
	req.Header.Set(constants.HeaderAPISecret, created.Data.APISecret)
	s.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
