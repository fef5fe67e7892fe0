package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/constants"
)

func TestAuditRecord_SigningPayload_Deterministic(t *testing.T) {
	record := models.NewAuditRecord("tenant-a", constants.EventTypeAnalysis).
		WithRequestID("req-1").
		WithVerdict(&models.RiskVerdict{
			OverallScore: 0.42,
			OverallLevel: models.RiskLevelMedium,
			Findings: []models.RiskFinding{
				{Category: models.CategoryPII, Score: 0.6},
				{Category: models.CategoryBias, Score: 0.1},
			},
		}).
		WithDecision(&models.PolicyDecision{
			Disposition:    models.DispositionRedact,
			RedactionCount: 2,
		})

	first, err := record.SigningPayload()
	require.NoError(t, err)
	second, err := record.SigningPayload()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotContains(t, string(first), "signature")
}

func TestAuditRecord_SigningPayload_ExcludesSignature(t *testing.T) {
	record := models.NewAuditRecord("tenant-a", constants.EventTypeAnalysis)

	before, err := record.SigningPayload()
	require.NoError(t, err)

	record.Signature = "deadbeef"
	after, err := record.SigningPayload()
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestFindingSummary_RoundTrip(t *testing.T) {
	summary := models.FindingSummary{
		models.CategoryPII:         0.8,
		models.CategoryAdversarial: 1.0,
	}

	value, err := summary.Value()
	require.NoError(t, err)

	var decoded models.FindingSummary
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, summary, decoded)
}

func TestFindingSummary_ScanNil(t *testing.T) {
	var decoded models.FindingSummary
	require.NoError(t, decoded.Scan(nil))
	assert.Empty(t, decoded)
}

func TestSession_Lifecycle(t *testing.T) {
	now := time.Now().UTC()
	session := &models.Session{
		ID:        "sess-1",
		TenantID:  "tenant-a",
		Key:       []byte{1, 2, 3, 4},
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}

	assert.False(t, session.IsExpired(now))
	assert.True(t, session.IsExpired(now.Add(30*time.Minute)))
	assert.Equal(t, 30*time.Minute, session.TTL(now))
	assert.Equal(t, time.Duration(0), session.TTL(now.Add(time.Hour)))

	key := session.Key
	session.Zero()
	assert.Nil(t, session.Key)
	assert.Equal(t, []byte{0, 0, 0, 0}, key)
}
