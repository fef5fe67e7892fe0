package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/service"
)

func verdictAt(level models.RiskLevel, findings ...models.RiskFinding) *models.RiskVerdict {
	return &models.RiskVerdict{
		OverallScore: 0.5,
		OverallLevel: level,
		Findings:     findings,
	}
}

func piiFinding(spans ...models.EvidenceSpan) models.RiskFinding {
	return models.RiskFinding{
		Category:   models.CategoryPII,
		Score:      0.6,
		Confidence: 0.9,
		Evidence:   spans,
	}
}

func TestPolicyEngine_BlocksHighAndCritical(t *testing.T) {
	eng := service.NewPolicyEngine(nil)
	policy := models.RiskPolicy{BlockHighRisk: true, AutoRedact: true}

	for _, level := range []models.RiskLevel{models.RiskLevelHigh, models.RiskLevelCritical} {
		t.Run(string(level), func(t *testing.T) {
			dec := eng.Evaluate(context.Background(), "some text", verdictAt(level), policy)

			assert.Equal(t, models.DispositionBlock, dec.Disposition)
			assert.Empty(t, dec.Output, "blocked content never leaves the engine")
			assert.NotEmpty(t, dec.Reason)
		})
	}
}

func TestPolicyEngine_BlockWinsOverRedact(t *testing.T) {
	eng := service.NewPolicyEngine(nil)
	text := "email me at a@b.com"
	verdict := verdictAt(models.RiskLevelHigh, piiFinding(
		models.EvidenceSpan{Label: "email", Start: 12, End: 19},
	))

	dec := eng.Evaluate(context.Background(), text, verdict, models.RiskPolicy{BlockHighRisk: true, AutoRedact: true})

	assert.Equal(t, models.DispositionBlock, dec.Disposition)
	assert.Empty(t, dec.Output)
	assert.Zero(t, dec.RedactionCount)
}

func TestPolicyEngine_BlockingDisabledFallsThrough(t *testing.T) {
	eng := service.NewPolicyEngine(nil)

	dec := eng.Evaluate(context.Background(), "risky text", verdictAt(models.RiskLevelCritical),
		models.RiskPolicy{BlockHighRisk: false, AutoRedact: false})

	assert.Equal(t, models.DispositionAllow, dec.Disposition)
	assert.Equal(t, "risky text", dec.Output)
}

func TestPolicyEngine_RedactsRightToLeft(t *testing.T) {
	eng := service.NewPolicyEngine(nil)
	text := "email me at a@b.com, SSN 123-45-6789"
	verdict := verdictAt(models.RiskLevelMedium, piiFinding(
		models.EvidenceSpan{Label: "email", Start: 12, End: 19},
		models.EvidenceSpan{Label: "ssn", Start: 25, End: 36},
	))

	dec := eng.Evaluate(context.Background(), text, verdict, models.RiskPolicy{AutoRedact: true})

	require.Equal(t, models.DispositionRedact, dec.Disposition)
	assert.Equal(t, "email me at [REDACTED:email], SSN [REDACTED:ssn]", dec.Output)
	assert.Equal(t, 2, dec.RedactionCount)
	assert.Equal(t, []string{"email", "ssn"}, dec.RedactedLabels)
}

func TestPolicyEngine_OverlappingSpansCollapse(t *testing.T) {
	eng := service.NewPolicyEngine(nil)
	text := "0123456789ABCDEFGHIJ"
	verdict := verdictAt(models.RiskLevelMedium, piiFinding(
		models.EvidenceSpan{Label: "phone", Start: 0, End: 10},
		models.EvidenceSpan{Label: "ssn", Start: 5, End: 15},
	))

	dec := eng.Evaluate(context.Background(), text, verdict, models.RiskPolicy{AutoRedact: true})

	require.Equal(t, models.DispositionRedact, dec.Disposition)
	assert.Equal(t, "01234[REDACTED:ssn]FGHIJ", dec.Output)
	assert.Equal(t, 1, dec.RedactionCount, "the overlapped span is skipped, not double-replaced")
	assert.Equal(t, []string{"ssn"}, dec.RedactedLabels)
}

func TestPolicyEngine_InvalidSpansAreDropped(t *testing.T) {
	eng := service.NewPolicyEngine(nil)
	text := "call 555-123-4567 now"
	verdict := verdictAt(models.RiskLevelMedium, piiFinding(
		models.EvidenceSpan{Label: "phone", Start: 5, End: 17},
		models.EvidenceSpan{Label: "bad", Start: -1, End: 4},
		models.EvidenceSpan{Label: "bad", Start: 10, End: 999},
		models.EvidenceSpan{Label: "bad", Start: 20, End: 20},
	))

	dec := eng.Evaluate(context.Background(), text, verdict, models.RiskPolicy{AutoRedact: true})

	assert.Equal(t, "call [REDACTED:phone] now", dec.Output)
	assert.Equal(t, 1, dec.RedactionCount)
}

func TestPolicyEngine_RedactionIsIdempotent(t *testing.T) {
	eng := service.NewPolicyEngine(nil)
	policy := models.RiskPolicy{AutoRedact: true}
	text := "email me at a@b.com"

	first := eng.Evaluate(context.Background(), text, verdictAt(models.RiskLevelMedium, piiFinding(
		models.EvidenceSpan{Label: "email", Start: 12, End: 19},
	)), policy)
	require.Equal(t, models.DispositionRedact, first.Disposition)

	// A second pass sees placeholders, not raw PII: the finding carries no
	// spans and the text passes through untouched.
	second := eng.Evaluate(context.Background(), first.Output, verdictAt(models.RiskLevelLow, models.RiskFinding{
		Category: models.CategoryPII,
		Score:    0,
	}), policy)

	assert.Equal(t, models.DispositionAllow, second.Disposition)
	assert.Equal(t, first.Output, second.Output)
}

func TestPolicyEngine_RedactionDisabled(t *testing.T) {
	eng := service.NewPolicyEngine(nil)
	text := "email me at a@b.com"
	verdict := verdictAt(models.RiskLevelMedium, piiFinding(
		models.EvidenceSpan{Label: "email", Start: 12, End: 19},
	))

	dec := eng.Evaluate(context.Background(), text, verdict, models.RiskPolicy{AutoRedact: false})

	assert.Equal(t, models.DispositionAllow, dec.Disposition)
	assert.Equal(t, text, dec.Output)
}

func TestPolicyEngine_AllowPassesTextUnchanged(t *testing.T) {
	eng := service.NewPolicyEngine(nil)

	dec := eng.Evaluate(context.Background(), "hello world", verdictAt(models.RiskLevelLow),
		models.RiskPolicy{BlockHighRisk: true, AutoRedact: true})

	assert.Equal(t, models.DispositionAllow, dec.Disposition)
	assert.Equal(t, "hello world", dec.Output)
	assert.Zero(t, dec.RedactionCount)
}
