package service

import (
	"context"
	"math"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/rules"
)

const (
	adversarialGroupBase   = 0.6
	adversarialRepeatBoost = 0.2

	// statisticalWeight is the share of the overall score carried by the
	// entropy anomaly check, alongside the configured pattern groups.
	statisticalWeight = 0.10
	statisticalScore  = 0.8

	// Entropy outside this band on long enough inputs suggests encoded or
	// machine-generated payloads rather than prose.
	entropyFloor     = 2.0
	entropyCeiling   = 7.0
	entropyMinLength = 32
)

// AdversarialDetector scores prompt injection, jailbreak, and obfuscation
// attempts. Pattern groups carry configured weights; an entropy check covers
// payloads the patterns cannot name.
//
// A match of any critical pattern forces the score to 1.0. Known takeover
// phrasings are never averaged down by the rest of the input.
type AdversarialDetector struct {
	src rules.Source
}

// NewAdversarialDetector creates an adversarial detector over the given rule source.
func NewAdversarialDetector(src rules.Source) *AdversarialDetector {
	return &AdversarialDetector{src: src}
}

// Category implements Detector.
func (d *AdversarialDetector) Category() models.Category {
	return models.CategoryAdversarial
}

// Detect implements Detector.
func (d *AdversarialDetector) Detect(ctx context.Context, text string) (*models.RiskFinding, error) {
	if isBlank(text) {
		return cleanFinding(models.CategoryAdversarial), nil
	}

	var (
		evidence    []models.EvidenceSpan
		weightedSum float64
		totalWeight float64
		agreeing    int
		critical    bool
	)

	for _, group := range d.src.Current().Adversarial {
		totalWeight += group.Weight
		matches := rules.FindAll(text, group.Patterns)
		if len(matches) == 0 {
			continue
		}
		agreeing++
		for _, m := range matches {
			evidence = append(evidence, evidenceFromMatch(text, m))
			if d.isCriticalRule(group, m.Rule) {
				critical = true
			}
		}
		groupScore := adversarialGroupBase + adversarialRepeatBoost*float64(len(matches)-1)
		weightedSum += group.Weight * clamp01(groupScore)
	}

	totalWeight += statisticalWeight
	if entropyAnomalous(text) {
		agreeing++
		weightedSum += statisticalWeight * statisticalScore
	}

	if len(evidence) == 0 && agreeing == 0 {
		return cleanFinding(models.CategoryAdversarial), nil
	}

	score := clamp01(weightedSum / totalWeight)
	confidence := agreementConfidence(agreeing)
	if critical {
		score = 1.0
		confidence = 0.95
	}

	return &models.RiskFinding{
		Category:   models.CategoryAdversarial,
		Score:      score,
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}

func (d *AdversarialDetector) isCriticalRule(group rules.Group, rule string) bool {
	for i := range group.Patterns {
		if group.Patterns[i].Name == rule {
			return group.Patterns[i].Critical
		}
	}
	return false
}

// agreementConfidence grows with the number of independent signal groups
// that fired: corroborated detections are trusted more than single hits.
func agreementConfidence(agreeing int) float64 {
	switch {
	case agreeing >= 3:
		return 0.9
	case agreeing == 2:
		return 0.8
	case agreeing == 1:
		return 0.7
	default:
		return 0.6
	}
}

// entropyAnomalous reports whether the rune-level Shannon entropy of a long
// enough input falls outside the band of natural language.
func entropyAnomalous(text string) bool {
	if len(text) < entropyMinLength {
		return false
	}
	e := shannonEntropy(text)
	return e < entropyFloor || e > entropyCeiling
}

func shannonEntropy(text string) float64 {
	freq := make(map[rune]int)
	total := 0
	for _, r := range text {
		freq[r]++
		total++
	}
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, n := range freq {
		p := float64(n) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
