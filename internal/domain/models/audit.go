package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rampartlabs/rampart/pkg/constants"
)

// FindingSummary maps each category to the score it contributed. It is the
// only detector output the audit trail retains: no input text, no excerpts.
type FindingSummary map[Category]float64

// Value implements driver.Valuer so the summary persists as a JSON column.
func (s FindingSummary) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for reading the JSON column back.
func (s *FindingSummary) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = FindingSummary{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("finding summary: unsupported scan type %T", src)
	}
}

// AuditRecord is one append-only audit trail event. Records are written
// after policy evaluation so only post-redaction facts reach storage, and
// each row carries an HMAC signature over its canonical form.
type AuditRecord struct {
	ID             string                   `gorm:"column:id;primaryKey" json:"id"`
	TenantID       string                   `gorm:"column:tenant_id;index" json:"tenant_id"`
	RequestID      string                   `gorm:"column:request_id" json:"request_id"`
	EventType      constants.AuditEventType `gorm:"column:event_type;index" json:"event_type"`
	RiskScore      float64                  `gorm:"column:risk_score" json:"risk_score"`
	RiskLevel      RiskLevel                `gorm:"column:risk_level" json:"risk_level"`
	Disposition    Disposition              `gorm:"column:disposition" json:"disposition"`
	FindingSummary FindingSummary           `gorm:"column:finding_summary;type:jsonb" json:"finding_summary"`
	RedactionCount int                      `gorm:"column:redaction_count" json:"redaction_count"`
	Detail         string                   `gorm:"column:detail" json:"detail,omitempty"`
	Signature      string                   `gorm:"column:signature" json:"signature"`
	Timestamp      time.Time                `gorm:"column:timestamp;index" json:"timestamp"`
}

// TableName overrides the GORM table name.
func (AuditRecord) TableName() string {
	return "audit_records"
}

// NewAuditRecord creates a new audit record for the given tenant and event.
func NewAuditRecord(tenantID string, eventType constants.AuditEventType) *AuditRecord {
	return &AuditRecord{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		EventType:      eventType,
		FindingSummary: FindingSummary{},
		Timestamp:      time.Now().UTC(),
	}
}

// WithRequestID sets the originating request ID.
func (r *AuditRecord) WithRequestID(requestID string) *AuditRecord {
	r.RequestID = requestID
	return r
}

// WithVerdict copies the aggregate score, level, and per-category summary.
func (r *AuditRecord) WithVerdict(v *RiskVerdict) *AuditRecord {
	if v == nil {
		return r
	}
	r.RiskScore = v.OverallScore
	r.RiskLevel = v.OverallLevel
	r.FindingSummary = FindingSummary(v.ScoreSummary())
	return r
}

// WithDecision copies the disposition and redaction count.
func (r *AuditRecord) WithDecision(d *PolicyDecision) *AuditRecord {
	if d == nil {
		return r
	}
	r.Disposition = d.Disposition
	r.RedactionCount = d.RedactionCount
	return r
}

// WithDetail sets a short free-form note, e.g. the rejection reason.
func (r *AuditRecord) WithDetail(detail string) *AuditRecord {
	r.Detail = detail
	return r
}

// signingEnvelope fixes the field set and order covered by the signature.
type signingEnvelope struct {
	ID             string                   `json:"id"`
	TenantID       string                   `json:"tenant_id"`
	RequestID      string                   `json:"request_id"`
	EventType      constants.AuditEventType `json:"event_type"`
	RiskScore      float64                  `json:"risk_score"`
	RiskLevel      RiskLevel                `json:"risk_level"`
	Disposition    Disposition              `json:"disposition"`
	FindingSummary FindingSummary           `json:"finding_summary"`
	RedactionCount int                      `json:"redaction_count"`
	Detail         string                   `json:"detail"`
	Timestamp      int64                    `json:"timestamp"`
}

// SigningPayload returns the canonical byte form covered by the HMAC
// signature. Struct field order plus sorted map keys make the encoding
// deterministic; the signature column itself is excluded.
func (r *AuditRecord) SigningPayload() ([]byte, error) {
	return json.Marshal(signingEnvelope{
		ID:             r.ID,
		TenantID:       r.TenantID,
		RequestID:      r.RequestID,
		EventType:      r.EventType,
		RiskScore:      r.RiskScore,
		RiskLevel:      r.RiskLevel,
		Disposition:    r.Disposition,
		FindingSummary: r.FindingSummary,
		RedactionCount: r.RedactionCount,
		Detail:         r.Detail,
		Timestamp:      r.Timestamp.UTC().UnixNano(),
	})
}
