package service

import (
	"context"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/rules"
	"github.com/rampartlabs/rampart/pkg/utils"
)

const (
	// biasDensityFactor scales cue density into a score: one cue in a
	// five-word sentence saturates, one in a long paragraph barely moves it.
	biasDensityFactor = 5.0

	biasBaseConfidence    = 0.6
	biasPerLexiconBoost   = 0.1
	biasConfidenceCeiling = 0.9
)

// BiasDetector scores discriminatory or stereotyping language by matching
// lexicon cues and normalizing by input length, so verbosity alone cannot
// dilute or inflate the result.
type BiasDetector struct {
	src           rules.Source
	densityFactor float64
}

// NewBiasDetector creates a bias detector over the given rule source.
func NewBiasDetector(src rules.Source) *BiasDetector {
	return NewBiasDetectorWithDensity(src, biasDensityFactor)
}

// NewBiasDetectorWithDensity overrides the density factor that scales cue
// density into a score. Factors at or below zero fall back to the default.
func NewBiasDetectorWithDensity(src rules.Source, factor float64) *BiasDetector {
	if factor <= 0 {
		factor = biasDensityFactor
	}
	return &BiasDetector{src: src, densityFactor: factor}
}

// Category implements Detector.
func (d *BiasDetector) Category() models.Category {
	return models.CategoryBias
}

// Detect implements Detector.
func (d *BiasDetector) Detect(ctx context.Context, text string) (*models.RiskFinding, error) {
	if isBlank(text) {
		return cleanFinding(models.CategoryBias), nil
	}

	words := utils.WordCount(text)
	if words == 0 {
		return cleanFinding(models.CategoryBias), nil
	}

	var (
		evidence []models.EvidenceSpan
		cues     int
		lexicons = make(map[string]struct{}, 4)
	)
	for name, terms := range d.src.Current().BiasLexicons {
		for _, term := range terms {
			for _, span := range foldOccurrences(text, term) {
				cues++
				lexicons[name] = struct{}{}
				evidence = append(evidence, models.EvidenceSpan{
					Label:   name,
					Rule:    name + ":" + term,
					Start:   span[0],
					End:     span[1],
					Excerpt: utils.Truncate(text[span[0]:span[1]], evidenceExcerptLimit),
				})
			}
		}
	}
	if cues == 0 {
		return cleanFinding(models.CategoryBias), nil
	}

	score := clamp01(float64(cues) / float64(words) * d.densityFactor)
	confidence := biasBaseConfidence + biasPerLexiconBoost*float64(len(lexicons))
	if confidence > biasConfidenceCeiling {
		confidence = biasConfidenceCeiling
	}

	return &models.RiskFinding{
		Category:   models.CategoryBias,
		Score:      score,
		Confidence: confidence,
		Evidence:   evidence,
	}, nil
}

// foldOccurrences finds every word-bounded, ASCII-case-insensitive occurrence
// of term in text. It scans the original bytes directly so the returned spans
// index into text unchanged; lowering a copy could shift byte offsets for
// non-ASCII runes.
func foldOccurrences(text, term string) [][2]int {
	if term == "" || len(term) > len(text) {
		return nil
	}
	var spans [][2]int
	limit := len(text) - len(term)
	for i := 0; i <= limit; i++ {
		if !foldEqual(text[i:i+len(term)], term) {
			continue
		}
		if !boundaryBefore(text, i) || !boundaryAfter(text, i+len(term)) {
			continue
		}
		spans = append(spans, [2]int{i, i + len(term)})
		i += len(term) - 1
	}
	return spans
}

func foldEqual(a, b string) bool {
	for i := 0; i < len(a); i++ {
		ca, cb := asciiLower(a[i]), asciiLower(b[i])
		if ca != cb {
			return false
		}
	}
	return true
}

func asciiLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func boundaryBefore(text string, i int) bool {
	return i == 0 || !isWordByte(text[i-1])
}

func boundaryAfter(text string, i int) bool {
	return i == len(text) || !isWordByte(text[i])
}
