package service

import (
	"context"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/rules"
)

const (
	hallucinationRuleWeight   = 0.3
	hallucinationRepeatWeight = 0.1

	// Proxy signals never reach full certainty: unsupported-claim phrasing
	// correlates with fabrication but does not prove it.
	hallucinationScoreCeiling = 0.9
	hallucinationBaseConf     = 0.4
	hallucinationPerHitConf   = 0.1
	hallucinationConfCeiling  = 0.8
)

// HallucinationDetector scores model output for fabrication proxies:
// uncited studies, absolute certainty phrasing, and suspicious citations.
type HallucinationDetector struct {
	src rules.Source
}

// NewHallucinationDetector creates a hallucination detector over the given rule source.
func NewHallucinationDetector(src rules.Source) *HallucinationDetector {
	return &HallucinationDetector{src: src}
}

// Category implements Detector.
func (d *HallucinationDetector) Category() models.Category {
	return models.CategoryHallucination
}

// Detect implements Detector.
func (d *HallucinationDetector) Detect(ctx context.Context, text string) (*models.RiskFinding, error) {
	if isBlank(text) {
		return cleanFinding(models.CategoryHallucination), nil
	}

	matches := rules.FindAll(text, d.src.Current().Hallucination)
	if len(matches) == 0 {
		return cleanFinding(models.CategoryHallucination), nil
	}

	distinct := make(map[string]struct{}, 4)
	evidence := make([]models.EvidenceSpan, 0, len(matches))
	for _, m := range matches {
		distinct[m.Rule] = struct{}{}
		evidence = append(evidence, evidenceFromMatch(text, m))
	}

	score := hallucinationRuleWeight*float64(len(distinct)) +
		hallucinationRepeatWeight*float64(len(matches)-len(distinct))
	if score > hallucinationScoreCeiling {
		score = hallucinationScoreCeiling
	}

	confidence := hallucinationBaseConf + hallucinationPerHitConf*float64(min(len(matches), 4))
	if confidence > hallucinationConfCeiling {
		confidence = hallucinationConfCeiling
	}

	return &models.RiskFinding{
		Category:   models.CategoryHallucination,
		Score:      score,
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}
