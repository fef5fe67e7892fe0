package dto

// AnalyzeRequest is the plaintext analysis request body. The same shape
// travels sealed inside a secure envelope on the encrypted path.
type AnalyzeRequest struct {
	// Text is the content to analyze. Required, capped by the server.
	Text string `json:"text" binding:"required" validate:"required"`

	// Context optionally names the surrounding conversation or document.
	Context string `json:"context,omitempty"`

	// UserID optionally identifies the end user on whose behalf the
	// tenant sends the request. Opaque to the service.
	UserID string `json:"user_id,omitempty"`
}

// DetectedRisk summarizes one category's finding in the response.
type DetectedRisk struct {
	Score         float64 `json:"score"`
	Level         string  `json:"level"`
	EvidenceCount int     `json:"evidence_count"`
	Failed        bool    `json:"failed,omitempty"`
}

// AnalyzeResponse is the verdict returned for one analyzed request.
// Text carries the possibly redacted output; it is empty for blocked
// requests, where Reason explains the rejection.
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
