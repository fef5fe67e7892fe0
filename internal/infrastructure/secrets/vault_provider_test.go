package secrets_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/internal/infrastructure/secrets"
)

// vaultMetrics records RecordVaultAPI calls and ignores everything else.
type vaultMetrics struct {
	reads  int
	errors int
}

func (m *vaultMetrics) RecordAnalysis(string, string, string, time.Duration, string) {}
func (m *vaultMetrics) RecordDetector(string, time.Duration, bool)                   {}
func (m *vaultMetrics) RecordQuotaDecision(string, string, bool)                     {}
func (m *vaultMetrics) RecordSessionEvent(string)                                    {}
func (m *vaultMetrics) UpdateActiveSessions(int)                                     {}
func (m *vaultMetrics) RecordAuditWrite(string, bool)                                {}
func (m *vaultMetrics) RecordCacheAccess(string, bool)                               {}
func (m *vaultMetrics) RecordDBQuery(string, time.Duration)                          {}
func (m *vaultMetrics) UpdateDBConnections(int, int)                                 {}

func (m *vaultMetrics) RecordVaultAPI(operation string, _ time.Duration, err error) {
	if operation == "read" {
		m.reads++
	}
	if err != nil {
		m.errors++
	}
}

func newVaultProvider(t *testing.T, handler http.HandlerFunc, metrics *vaultMetrics) *secrets.VaultProvider {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	provider, appErr := secrets.NewVaultProvider(config.VaultConfig{
		Address:   ts.URL,
		Token:     "unit-test-token",
		MountPath: "secret",
	}, metrics, nil)
	require.Nil(t, appErr)
	return provider
}

func TestVaultProvider_GetSecret(t *testing.T) {
	metrics := &vaultMetrics{}
	provider := newVaultProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/rampart/audit", r.URL.Path)
		assert.Equal(t, "unit-test-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": {"data": {"hmac_key": "signing-key-1"}, "metadata": {"version": 1}}}`)
	}, metrics)

	value, err := provider.GetSecret(context.Background(), secrets.AuditKeyPath, secrets.AuditKeyField)

	require.NoError(t, err)
	assert.Equal(t, "signing-key-1", value)
	assert.Equal(t, 1, metrics.reads)
	assert.Equal(t, 0, metrics.errors)
}

func TestVaultProvider_SecretNotFound(t *testing.T) {
	metrics := &vaultMetrics{}
	provider := newVaultProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errors": []}`)
	}, metrics)

	_, err := provider.GetSecret(context.Background(), "rampart/missing", "key")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, 1, metrics.reads)
}

func TestVaultProvider_MissingField(t *testing.T) {
	provider := newVaultProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": {"data": {"other_field": "x"}}}`)
	}, &vaultMetrics{})

	_, err := provider.GetSecret(context.Background(), secrets.AuditKeyPath, secrets.AuditKeyField)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "hmac_key missing")
}

func TestNewVaultProvider_RequiresAddress(t *testing.T) {
	_, appErr := secrets.NewVaultProvider(config.VaultConfig{}, nil, nil)

	require.NotNil(t, appErr)
}
