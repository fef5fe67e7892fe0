// Package e2e drives the assembled service over real HTTP: serverlite wires
// the full pipeline onto in-memory backends, httptest provides the listener,
// and the tests walk the same journeys an integrating tenant would.
package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/serverlite"
	"github.com/rampartlabs/rampart/pkg/constants"
)

const (
	e2eAPIKey    = "rk_e2e"
	e2eAPISecret = "rs_e2e_secret"
)

type fixture struct {
	t      *testing.T
	base   string
	server *serverlite.Server
}

// newFixture boots serverlite behind an httptest listener. The caller gets
// the base URL for clients and the server handle for backdoor assertions
// (session count, audit trail).
func newFixture(t *testing.T, cfg serverlite.Config) *fixture {
	t.Helper()

	if cfg.AuditSigningKey == nil {
		cfg.AuditSigningKey = []byte("e2e-signing-key")
	}
	s, err := serverlite.NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Engine())
	t.Cleanup(ts.Close)

	return &fixture{t: t, base: ts.URL, server: s}
}

func seedTenant() serverlite.SeedTenant {
	return serverlite.SeedTenant{
		TenantID:  "tenant-e2e",
		Name:      "E2E Org",
		APIKey:    e2eAPIKey,
		APISecret: e2eAPISecret,
	}
}

// envelope mirrors the response wrapper every endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	TraceID string `json:"trace_id"`
}

func (e envelope) decode(t *testing.T, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, out))
}

// call sends one JSON request and decodes the envelope. Transport errors fail
// the test immediately, HTTP status is the caller's to assert.
func (f *fixture) call(method, path string, payload interface{}, headers map[string]string) (int, envelope) {
	f.t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(f.t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, f.base+path, body)
	require.NoError(f.t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)

	var env envelope
	require.NoError(f.t, json.Unmarshal(raw, &env), "undecodable body: %s", raw)
	return resp.StatusCode, env
}

func dataHeaders(apiKey, apiSecret string) map[string]string {
	return map[string]string{
		constants.HeaderAPIKey:    apiKey,
		constants.HeaderAPISecret: apiSecret,
	}
}

func adminHeaders(token string) map[string]string {
	return map[string]string{
		constants.HeaderAuthorization: "Bearer " + token,
	}
}
