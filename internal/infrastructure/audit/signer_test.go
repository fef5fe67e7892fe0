package audit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/infrastructure/audit"
	"github.com/rampartlabs/rampart/pkg/constants"
)

func sampleRecord() *models.AuditRecord {
	record := models.NewAuditRecord("tenant-a", constants.EventTypeAnalysis)
	record.RequestID = "req-1"
	record.RiskScore = 0.42
	record.RiskLevel = models.RiskLevelMedium
	record.Disposition = models.DispositionRedact
	record.FindingSummary = models.FindingSummary{
		models.CategoryPII:         0.8,
		models.CategoryAdversarial: 0.1,
	}
	record.RedactionCount = 2
	return record
}

func TestSigner_SignIsDeterministic(t *testing.T) {
	signer, appErr := audit.NewSigner([]byte("signing-key"))
	require.Nil(t, appErr)
	record := sampleRecord()

	first, appErr := signer.Sign(record)
	require.Nil(t, appErr)
	second, appErr := signer.Sign(record)
	require.Nil(t, appErr)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestSigner_VerifyDetectsTampering(t *testing.T) {
	signer, appErr := audit.NewSigner([]byte("signing-key"))
	require.Nil(t, appErr)

	record := sampleRecord()
	sig, appErr := signer.Sign(record)
	require.Nil(t, appErr)
	record.Signature = sig

	ok, appErr := signer.Verify(record)
	require.Nil(t, appErr)
	assert.True(t, ok)

	tests := []struct {
		name   string
		mutate func(*models.AuditRecord)
	}{
		{"risk score", func(r *models.AuditRecord) { r.RiskScore = 0.9 }},
		{"disposition", func(r *models.AuditRecord) { r.Disposition = models.DispositionAllow }},
		{"tenant", func(r *models.AuditRecord) { r.TenantID = "tenant-b" }},
		{"summary", func(r *models.AuditRecord) { r.FindingSummary[models.CategoryPII] = 0.0 }},
		{"timestamp", func(r *models.AuditRecord) { r.Timestamp = r.Timestamp.Add(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := sampleRecordFrom(record)
			tt.mutate(tampered)
			ok, appErr := signer.Verify(tampered)
			require.Nil(t, appErr)
			assert.False(t, ok)
		})
	}
}

// sampleRecordFrom copies a record including its summary map.
func sampleRecordFrom(r *models.AuditRecord) *models.AuditRecord {
	cp := *r
	cp.FindingSummary = models.FindingSummary{}
	for k, v := range r.FindingSummary {
		cp.FindingSummary[k] = v
	}
	return &cp
}

func TestSigner_SignatureFieldNotCovered(t *testing.T) {
	signer, appErr := audit.NewSigner([]byte("signing-key"))
	require.Nil(t, appErr)
	record := sampleRecord()

	clean, appErr := signer.Sign(record)
	require.Nil(t, appErr)

	record.Signature = "garbage"
	again, appErr := signer.Sign(record)
	require.Nil(t, appErr)
	assert.Equal(t, clean, again, "re-signing must not feed the old signature back in")
}

func TestSigner_DifferentKeyFailsVerification(t *testing.T) {
	signer, appErr := audit.NewSigner([]byte("key-one"))
	require.Nil(t, appErr)
	other, appErr := audit.NewSigner([]byte("key-two"))
	require.Nil(t, appErr)

	record := sampleRecord()
	sig, appErr := signer.Sign(record)
	require.Nil(t, appErr)
	record.Signature = sig

	ok, appErr := other.Verify(record)
	require.Nil(t, appErr)
	assert.False(t, ok)
}

func TestSigner_RejectsEmptyKey(t *testing.T) {
	_, appErr := audit.NewSigner(nil)
	assert.NotNil(t, appErr)
}
