package service

import (
	"context"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/rules"
)

const (
	piiTypeWeight       = 0.3
	piiRepeatWeight     = 0.1
	piiHighConfFloor    = 0.8
	piiHighConfScore    = 0.95
	piiBaseConfidence   = 0.6
	piiPerTypeConfBoost = 0.1
)

// PIIDetector scans input text for personally identifiable information using
// the compiled pattern set. Scoring rewards breadth: each distinct PII type
// contributes more than repeated hits of the same type.
type PIIDetector struct {
	src rules.Source
}

// NewPIIDetector creates a PII detector over the given rule source.
func NewPIIDetector(src rules.Source) *PIIDetector {
	return &PIIDetector{src: src}
}

// Category implements Detector.
func (d *PIIDetector) Category() models.Category {
	return models.CategoryPII
}

// Detect implements Detector. A match of any high-confidence pattern (e.g.
// the SSN format) floors the score at 0.8 no matter how little else matched.
func (d *PIIDetector) Detect(ctx context.Context, text string) (*models.RiskFinding, error) {
	if isBlank(text) {
		return cleanFinding(models.CategoryPII), nil
	}

	set := d.src.Current()
	matches := rules.FindAll(text, set.PII)
	matches = d.dropLuhnFailures(text, matches)
	if len(matches) == 0 {
		return cleanFinding(models.CategoryPII), nil
	}

	evidence := make([]models.EvidenceSpan, 0, len(matches))
	types := make(map[string]int, 4)
	highConfidence := false
	for _, m := range matches {
		types[m.Label]++
		evidence = append(evidence, evidenceFromMatch(text, m))
		if isHighConfidenceRule(set, m.Rule) {
			highConfidence = true
		}
	}

	score := piiTypeWeight * float64(len(types))
	for _, n := range types {
		score += piiRepeatWeight * float64(n-1)
	}
	score = clamp01(score)

	confidence := piiBaseConfidence + piiPerTypeConfBoost*float64(min(len(types), 3))
	if highConfidence {
		if score < piiHighConfFloor {
			score = piiHighConfFloor
		}
		confidence = piiHighConfScore
	}

	return &models.RiskFinding{
		Category:   models.CategoryPII,
		Score:      score,
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}

func isHighConfidenceRule(set *rules.RuleSet, rule string) bool {
	for i := range set.PII {
		if set.PII[i].Name == rule {
			return set.PII[i].HighConfidence
		}
	}
	return false
}

// dropLuhnFailures removes credit card candidates whose digits fail the Luhn
// checksum. Sixteen digits in card grouping are otherwise too easy to hit in
// order numbers and tracking codes.
func (d *PIIDetector) dropLuhnFailures(text string, matches []rules.Match) []rules.Match {
	kept := matches[:0]
	for _, m := range matches {
		if m.Label == "credit_card" && !luhnValid(text[m.Start:m.End]) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

func luhnValid(candidate string) bool {
	var digits []int
	for _, r := range candidate {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
