package service

import (
	"strings"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/rules"
	"github.com/rampartlabs/rampart/pkg/utils"
)

const evidenceExcerptLimit = 64

// NewDefaultDetectors builds the four stock detectors over one rule source.
func NewDefaultDetectors(src rules.Source) []Detector {
	return []Detector{
		NewPIIDetector(src),
		NewBiasDetector(src),
		NewAdversarialDetector(src),
		NewHallucinationDetector(src),
	}
}

// cleanFinding returns the zero-score finding for inputs with no signal.
// Blank input is a certain negative, hence full confidence.
func cleanFinding(category models.Category) *models.RiskFinding {
	return &models.RiskFinding{
		Category:   category,
		Score:      0,
		Confidence: 1,
	}
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// evidenceFromMatch builds the in-memory span for one rule match.
func evidenceFromMatch(text string, m rules.Match) models.EvidenceSpan {
	return models.EvidenceSpan{
		Label:   m.Label,
		Rule:    m.Rule,
		Start:   m.Start,
		End:     m.End,
		Excerpt: utils.Truncate(text[m.Start:m.End], evidenceExcerptLimit),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
