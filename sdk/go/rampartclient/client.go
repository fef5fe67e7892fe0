// Package rampartclient is the Go client SDK for the Rampart risk analysis
// API. It speaks both the plaintext and the encrypted analyze paths; on the
// encrypted path the client seals requests and opens responses itself, so
// integrators never handle nonces or key material directly.
package rampartclient

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	headerAPIKey    = "X-API-Key"
	headerAPISecret = "X-API-Secret"

	analyzePath       = "/api/v1/analyze"
	handshakePath     = "/api/v1/session/handshake"
	closeSessionPath  = "/api/v1/session/close"
	secureAnalyzePath = "/api/v1/secure/analyze"

	codeAuthenticationFailed = "authentication_failed"

	sessionKeySize = 32
)

var (
	// ErrNoSession is returned when a secure call cannot obtain a session.
	ErrNoSession = errors.New("rampartclient: no active session")

	// ErrEnvelopeOpen is returned when a response envelope fails to open
	// under the current session key.
	ErrEnvelopeOpen = errors.New("rampartclient: response envelope failed to open")
)

// APIError is a structured error returned by the service.
type APIError struct {
	Status      int    `json:"-"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("rampart: %s (%s): %s", e.Message, e.Code, e.Description)
	}
	return fmt.Sprintf("rampart: %s (%s)", e.Message, e.Code)
}

// AnalyzeRequest is one analysis request. Text is required; Context and
// UserID are optional annotations passed through to the audit trail.
type AnalyzeRequest struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// DetectedRisk summarizes one category's finding in a verdict.
type DetectedRisk struct {
	Score         float64 `json:"score"`
	Level         string  `json:"level"`
	EvidenceCount int     `json:"evidence_count"`
	Failed        bool    `json:"failed,omitempty"`
}

// AnalyzeResponse is the verdict for one analyzed request. Text carries the
// possibly redacted output; it is empty for blocked requests, where Reason
// explains the rejection.
type AnalyzeResponse struct {
	RiskDetected    bool                    `json:"risk_detected"`
	RiskLevel       string                  `json:"risk_level"`
	RiskScore       float64                 `json:"risk_score"`
	DetectedRisks   map[string]DetectedRisk `json:"detected_risks"`
	Recommendations []string                `json:"recommendations"`
	Disposition     string                  `json:"disposition"`
	Text            string                  `json:"text,omitempty"`
	RedactionCount  int                     `json:"redaction_count,omitempty"`
	Reason          string                  `json:"reason,omitempty"`
	RequestID       string                  `json:"request_id,omitempty"`
}

type handshakeResponse struct {
	SessionID   string `json:"session_id"`
	KeyMaterial string `json:"key_material"`
	ExpiresAt   int64  `json:"expires_at"`
}

type secureEnvelope struct {
	SessionID string `json:"session_id"`
	Payload   string `json:"payload"`
}

type closeSessionRequest struct {
	SessionID string `json:"session_id"`
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

type session struct {
	id        string
	key       []byte
	expiresAt time.Time
}

// Client is a thread-safe client for one tenant's credentials. A single
// secure session is held at a time; AnalyzeSecure establishes one on demand
// and replaces it when the server rejects it as expired.
type Client struct {
	// HTTPClient may be replaced before first use, for example with a
	// transport that pins TLS settings.
	HTTPClient *http.Client

	baseURL   string
	apiKey    string
	apiSecret string

	mu      sync.Mutex
	session *session
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
	}
}

// Analyze runs one plaintext analysis request.
func (c *Client) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	var out AnalyzeResponse
	if err := c.postJSON(ctx, analyzePath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Handshake establishes a fresh secure session, replacing any current one.
// AnalyzeSecure calls it automatically; an explicit call forces rotation.
func (c *Client) Handshake(ctx context.Context) error {
	var resp handshakeResponse
	if err := c.postJSON(ctx, handshakePath, nil, &resp); err != nil {
		return err
	}
	key, err := base64.StdEncoding.DecodeString(resp.KeyMaterial)
	if err != nil || len(key) != sessionKeySize {
		return fmt.Errorf("rampart: handshake returned unusable key material")
	}

	c.mu.Lock()
	c.session = &session{
		id:        resp.SessionID,
		key:       key,
		expiresAt: time.Unix(resp.ExpiresAt, 0),
	}
	c.mu.Unlock()
	return nil
}

// SessionID returns the current session identifier, or "" when none is held.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.id
}

// AnalyzeSecure runs one analysis request through the encrypted path. When
// the server no longer recognizes the session, one new handshake and one
// retry happen transparently.
func (c *Client) AnalyzeSecure(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	resp, err := c.analyzeSecureOnce(ctx, req)
	var apiErr *APIError
	if err != nil && errors.As(err, &apiErr) && apiErr.Code == codeAuthenticationFailed {
		if err := c.Handshake(ctx); err != nil {
			return nil, err
		}
		return c.analyzeSecureOnce(ctx, req)
	}
	return resp, err
}

// CloseSession drops the current session on the server. Without a session it
// is a no-op.
func (c *Client) CloseSession(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.mu.Unlock()
	if sess == nil {
		return nil
	}
	return c.postJSON(ctx, closeSessionPath, &closeSessionRequest{SessionID: sess.id}, nil)
}

func (c *Client) analyzeSecureOnce(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	sess, err := c.currentSession(ctx)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	payload, err := seal(sess.key, plaintext)
	if err != nil {
		return nil, err
	}

	var sealed secureEnvelope
	err = c.postJSON(ctx, secureAnalyzePath, &secureEnvelope{SessionID: sess.id, Payload: payload}, &sealed)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeAuthenticationFailed {
			c.dropSession(sess.id)
		}
		return nil, err
	}

	opened, err := open(sess.key, sealed.Payload)
	if err != nil {
		return nil, err
	}
	var out AnalyzeResponse
	if err := json.Unmarshal(opened, &out); err != nil {
		return nil, ErrEnvelopeOpen
	}
	return &out, nil
}

// currentSession returns the held session, performing a handshake when none
// exists or its local expiry has passed.
func (c *Client) currentSession(ctx context.Context) (*session, error) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess != nil && time.Now().Before(sess.expiresAt) {
		return sess, nil
	}

	if err := c.Handshake(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	sess = c.session
	c.mu.Unlock()
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

// dropSession forgets the held session if it still matches id, so a
// handshake raced in by another goroutine survives.
func (c *Client) dropSession(id string) {
	c.mu.Lock()
	if c.session != nil && c.session.id == id {
		c.session = nil
	}
	c.mu.Unlock()
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerAPISecret, c.apiSecret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("rampart: undecodable response (status %d)", resp.StatusCode)
	}
	if envelope.Error != nil {
		envelope.Error.Status = resp.StatusCode
		return envelope.Error
	}
	if !envelope.Success || resp.StatusCode >= http.StatusBadRequest {
		return &APIError{
			Status:  resp.StatusCode,
			Code:    "unknown",
			Message: fmt.Sprintf("request failed with status %d", resp.StatusCode),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("rampart: undecodable response data: %w", err)
	}
	return nil
}

// seal encrypts plaintext under the session key. The envelope is
// base64(nonce || ciphertext) with the GCM tag inside the ciphertext.
func seal(key, plaintext []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// open decrypts a response envelope. Every failure mode maps to
// ErrEnvelopeOpen.
func open(key []byte, envelope string) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, ErrEnvelopeOpen
	}
	if len(raw) < gcm.NonceSize() {
		return nil, ErrEnvelopeOpen
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrEnvelopeOpen
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != sessionKeySize {
		return nil, fmt.Errorf("rampart: session key must be %d bytes", sessionKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
