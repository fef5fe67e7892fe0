package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/domain/repository"
	"github.com/rampartlabs/rampart/internal/serverlite"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/sdk/go/rampartclient"
)

// recordingTransport captures every request and response body crossing the
// wire so tests can prove what was, and was not, visible in transit.
type recordingTransport struct {
	mu     sync.Mutex
	bodies []string
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if req.Body != nil {
		var err error
		reqBody, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	rt.mu.Lock()
	rt.bodies = append(rt.bodies, string(reqBody), string(respBody))
	rt.mu.Unlock()
	return resp, nil
}

func (rt *recordingTransport) sawOnWire(needle string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, b := range rt.bodies {
		if strings.Contains(b, needle) {
			return true
		}
	}
	return false
}

func TestSecureSessionJourney(t *testing.T) {
	f := newFixture(t, serverlite.Config{Tenants: []serverlite.SeedTenant{seedTenant()}})

	rec := &recordingTransport{}
	client := rampartclient.NewClient(f.base, e2eAPIKey, e2eAPISecret)
	client.HTTPClient = &http.Client{Transport: rec}

	ctx := context.Background()
	const secret = "reach jane.doe@example.com about the contract"

	resp, err := client.AnalyzeSecure(ctx, &rampartclient.AnalyzeRequest{Text: secret})
	require.NoError(t, err)
	assert.Equal(t, "redact", resp.Disposition)
	assert.NotContains(t, resp.Text, "jane.doe@example.com")

	firstSession := client.SessionID()
	assert.NotEmpty(t, firstSession)
	assert.Equal(t, 1, f.server.ActiveSessions())

	// A second call rides the same session.
	resp, err = client.AnalyzeSecure(ctx, &rampartclient.AnalyzeRequest{Text: "routine check-in"})
	require.NoError(t, err)
	assert.Equal(t, "allow", resp.Disposition)
	assert.Equal(t, firstSession, client.SessionID())
	assert.Equal(t, 1, f.server.ActiveSessions())

	// The point of the sealed channel: the PII crossed the wire only inside
	// AES-GCM envelopes, in both directions.
	assert.False(t, rec.sawOnWire("jane.doe@example.com"),
		"plaintext must never appear in any request or response body")

	require.NoError(t, client.CloseSession(ctx))
	assert.Empty(t, client.SessionID())
	assert.Equal(t, 0, f.server.ActiveSessions())

	// The next secure call re-handshakes on its own.
	resp, err = client.AnalyzeSecure(ctx, &rampartclient.AnalyzeRequest{Text: "back again"})
	require.NoError(t, err)
	assert.Equal(t, "allow", resp.Disposition)
	assert.NotEqual(t, firstSession, client.SessionID())
	assert.Equal(t, 1, f.server.ActiveSessions())

	// Trail entries recorded the secure analyses without the plaintext.
	records, appErr := f.server.AuditTrail().List(ctx,
		repository.AuditQuery{TenantID: "tenant-e2e"})
	require.Nil(t, appErr)
	assert.NotEmpty(t, records)
	for _, r := range records {
		assert.NotContains(t, r.Detail, "jane.doe@example.com")
	}
}

func TestSecureSession_HandshakeShape(t *testing.T) {
	f := newFixture(t, serverlite.Config{Tenants: []serverlite.SeedTenant{seedTenant()}})
	headers := dataHeaders(e2eAPIKey, e2eAPISecret)

	status, env := f.call(http.MethodPost, constants.APIVersionPrefix+"/session/handshake", nil, headers)
	require.Equal(t, http.StatusOK, status)

	var handshake struct {
		SessionID   string `json:"session_id"`
		KeyMaterial string `json:"key_material"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	env.decode(t, &handshake)

	assert.NotEmpty(t, handshake.SessionID)
	assert.Positive(t, handshake.ExpiresAt)

	key, err := base64.StdEncoding.DecodeString(handshake.KeyMaterial)
	require.NoError(t, err)
	assert.Len(t, key, constants.SessionKeySize)
}

func TestSecureSession_GarbagePayloadRejected(t *testing.T) {
	f := newFixture(t, serverlite.Config{Tenants: []serverlite.SeedTenant{seedTenant()}})
	headers := dataHeaders(e2eAPIKey, e2eAPISecret)

	status, env := f.call(http.MethodPost, constants.APIVersionPrefix+"/session/handshake", nil, headers)
	require.Equal(t, http.StatusOK, status)
	var handshake struct {
		SessionID string `json:"session_id"`
	}
	env.decode(t, &handshake)

	status, env = f.call(http.MethodPost, constants.APIVersionPrefix+"/secure/analyze",
		map[string]string{
			"session_id": handshake.SessionID,
			"payload":    base64.StdEncoding.EncodeToString([]byte("not an envelope")),
		}, headers)
	require.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.CodeDecryptionFailed, env.Error.Code)

	// A failed open does not tear the session down.
	assert.Equal(t, 1, f.server.ActiveSessions())
}
