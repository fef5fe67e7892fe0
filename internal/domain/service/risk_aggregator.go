package service

import (
	"context"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// ScoringConfig carries the aggregation weights and level thresholds.
type ScoringConfig struct {
	Weights         map[models.Category]float64
	MediumThreshold float64
	HighThreshold   float64
	CriticalCutoff  float64
}

// DefaultScoringConfig returns the stock weights and thresholds.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: map[models.Category]float64{
			models.CategoryPII:           0.30,
			models.CategoryBias:          0.20,
			models.CategoryAdversarial:   0.35,
			models.CategoryHallucination: 0.15,
		},
		MediumThreshold: 0.4,
		HighThreshold:   0.7,
		CriticalCutoff:  0.85,
	}
}

// Validate rejects configurations the aggregator cannot order sensibly.
func (c ScoringConfig) Validate() *errors.AppError {
	if c.MediumThreshold <= 0 || c.HighThreshold <= 0 {
		return errors.ErrConfiguration.WithDescription("scoring thresholds must be positive")
	}
	if c.MediumThreshold >= c.HighThreshold {
		return errors.ErrConfiguration.WithDescription("medium threshold must be below high threshold")
	}
	if c.CriticalCutoff < c.HighThreshold {
		return errors.ErrConfiguration.WithDescription("critical cutoff must not be below high threshold")
	}
	if len(c.Weights) == 0 {
		return errors.ErrConfiguration.WithDescription("scoring weights must not be empty")
	}
	for cat, w := range c.Weights {
		if !cat.Valid() {
			return errors.ErrConfiguration.WithDescription("unknown scoring category: %s", cat)
		}
		if w <= 0 {
			return errors.ErrConfiguration.WithDescription("scoring weight must be positive for category %s", cat)
		}
	}
	return nil
}

type aggregator struct {
	cfg ScoringConfig
	log logger.Logger
}

// NewRiskAggregator creates the weighted-normalization aggregator.
func NewRiskAggregator(cfg ScoringConfig, log logger.Logger) RiskAggregator {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &aggregator{cfg: cfg, log: log.WithComponent("risk_aggregator")}
}

// Aggregate implements RiskAggregator.
//
// The overall score is the weighted sum of category scores normalized by the
// weights of the categories actually present, so an absent detector widens
// the influence of the rest instead of reading as a silent zero. A failed
// detector stays present with a zero score.
//
// The critical level has two entry paths, both deliberate: a category score
// saturated at 1.0 (fail-closed pattern overrides must survive aggregation
// undiluted), or a high bucket combined with an overall score at or above
// the critical cutoff.
func (a *aggregator) Aggregate(ctx context.Context, findings []models.RiskFinding, overrides *models.ScoringOverrides) *models.RiskVerdict {
	weights, thresholds := a.effective(overrides)

	byCategory := make(map[models.Category]models.RiskFinding, len(findings))
	for _, f := range findings {
		if !f.Category.Valid() {
			continue
		}
		// Duplicate categories keep the worse score so merge order is irrelevant.
		if prev, ok := byCategory[f.Category]; !ok || f.Score > prev.Score {
			byCategory[f.Category] = f
		}
	}

	var (
		weightedSum float64
		totalWeight float64
		saturated   bool
	)
	levels := make(map[models.Category]models.RiskLevel, len(byCategory))
	ordered := make([]models.RiskFinding, 0, len(byCategory))

	for _, cat := range models.AllCategories {
		f, ok := byCategory[cat]
		if !ok {
			continue
		}
		w := weights[cat]
		score := f.Score
		if f.Failed {
			score = 0
		}
		weightedSum += w * score
		totalWeight += w
		if score >= 1.0 {
			saturated = true
		}

		f.Level = bucketFor(score, thresholds[cat].medium, thresholds[cat].high)
		levels[cat] = f.Level
		ordered = append(ordered, f)
	}

	verdict := &models.RiskVerdict{
		Findings:       ordered,
		CategoryLevels: levels,
		EvaluatedAt:    time.Now().UTC(),
	}
	if totalWeight > 0 {
		verdict.OverallScore = clamp01(weightedSum / totalWeight)
	}

	_, maxLevel := verdict.MaxCategoryLevel()
	if maxLevel == "" {
		maxLevel = models.RiskLevelLow
	}
	verdict.OverallLevel = maxLevel
	if saturated || (maxLevel == models.RiskLevelHigh && verdict.OverallScore >= a.cfg.CriticalCutoff) {
		verdict.OverallLevel = models.RiskLevelCritical
	}

	verdict.Recommendations = a.recommendations(verdict)

	a.log.Debug(ctx, "risk aggregation completed",
		logger.Float64("overall_score", verdict.OverallScore),
		logger.String("overall_level", string(verdict.OverallLevel)),
		logger.Int("categories", len(ordered)),
	)
	return verdict
}

// levelCuts are the resolved bucket cut points for one category.
type levelCuts struct {
	medium float64
	high   float64
}

// effective resolves per-call weights and per-category thresholds from the
// defaults, the tenant-wide threshold overrides, and finally the
// category-keyed ones. The receiver's config is never mutated.
func (a *aggregator) effective(overrides *models.ScoringOverrides) (map[models.Category]float64, map[models.Category]levelCuts) {
	weights := make(map[models.Category]float64, len(a.cfg.Weights))
	for cat, w := range a.cfg.Weights {
		weights[cat] = w
	}
	medium, high := a.cfg.MediumThreshold, a.cfg.HighThreshold
	if overrides != nil {
		for cat, w := range overrides.Weights {
			if cat.Valid() && w > 0 {
				weights[cat] = w
			}
		}
		if overrides.MediumThreshold > 0 {
			medium = overrides.MediumThreshold
		}
		if overrides.HighThreshold > 0 {
			high = overrides.HighThreshold
		}
	}

	thresholds := make(map[models.Category]levelCuts, len(models.AllCategories))
	for _, cat := range models.AllCategories {
		thresholds[cat] = levelCuts{medium: medium, high: high}
	}
	if overrides != nil {
		for cat, t := range overrides.ThresholdOverrides {
			if !cat.Valid() {
				continue
			}
			cuts := thresholds[cat]
			if t.Medium > 0 {
				cuts.medium = t.Medium
			}
			if t.High > 0 {
				cuts.high = t.High
			}
			thresholds[cat] = cuts
		}
	}
	return weights, thresholds
}

func bucketFor(score, medium, high float64) models.RiskLevel {
	switch {
	case score >= high:
		return models.RiskLevelHigh
	case score >= medium:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}

// recommendationTexts is keyed by category and the bucket it reached. The
// same verdict always yields the same strings in the same order.
var recommendationTexts = map[models.Category]map[models.RiskLevel]string{
	models.CategoryAdversarial: {
		models.RiskLevelHigh:   "Block the request: prompt injection or jailbreak patterns matched.",
		models.RiskLevelMedium: "Review the request for manipulation attempts before forwarding.",
	},
	models.CategoryPII: {
		models.RiskLevelHigh:   "Redact personally identifiable information before any downstream use.",
		models.RiskLevelMedium: "Mask detected personal data fields.",
	},
	models.CategoryBias: {
		models.RiskLevelHigh:   "Reject or rewrite discriminatory phrasing.",
		models.RiskLevelMedium: "Flag biased wording and attach a balance notice.",
	},
	models.CategoryHallucination: {
		models.RiskLevelHigh:   "Verify factual claims against trusted sources before release.",
		models.RiskLevelMedium: "Attach an uncertainty notice to unverified claims.",
	},
}

const criticalRecommendation = "Escalate: critical risk, do not deliver this content."

// recommendations emits the critical escalation first, then one entry per
// category that reached a bucket, in category priority order.
func (a *aggregator) recommendations(v *models.RiskVerdict) []string {
	var recs []string
	if v.OverallLevel == models.RiskLevelCritical {
		recs = append(recs, criticalRecommendation)
	}
	for _, cat := range models.AllCategories {
		lvl, ok := v.CategoryLevels[cat]
		if !ok {
			continue
		}
		if text, ok := recommendationTexts[cat][lvl]; ok {
			recs = append(recs, text)
		}
	}
	return recs
}
