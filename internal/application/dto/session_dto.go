package dto

// HandshakeResponse returns a freshly established secure session. The key
// material appears exactly once on the wire; the server keeps no copy
// outside process memory.
type HandshakeResponse struct {
	SessionID   string `json:"session_id"`
	KeyMaterial string `json:"key_material"`
	ExpiresAt   int64  `json:"expires_at"`
}

// CloseSessionRequest asks the server to drop a session before expiry.
type CloseSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// SecureEnvelope wraps one sealed payload in either direction. Payload is
// the base64 AEAD envelope of a JSON document: an AnalyzeRequest inbound,
// an AnalyzeResponse outbound.
type SecureEnvelope struct {
	SessionID string `json:"session_id" binding:"required"`
	Payload   string `json:"payload" binding:"required"`
}
