package models

import (
	"time"
)

// EvidenceSpan locates one rule match inside the analyzed text.
// Spans are byte offsets into the original input, half-open [Start, End).
// Evidence is working data for the policy engine and is never serialized:
// excerpts may contain the sensitive values the pipeline exists to contain.
type EvidenceSpan struct {
	Label   string `json:"-"`
	Rule    string `json:"-"`
	Start   int    `json:"-"`
	End     int    `json:"-"`
	Excerpt string `json:"-"`
}

// RiskFinding is the output of a single detector for one category.
type RiskFinding struct {
	Category   Category  `json:"category"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Level      RiskLevel `json:"level"`

	// Evidence carries the matched spans that produced the score. Present
	// only in memory; the audit trail keeps category scores, not content.
	Evidence []EvidenceSpan `json:"-"`

	// Failed marks a detector that panicked or errored. A failed finding
	// contributes a zero score and never aborts the pipeline.
	Failed        bool   `json:"failed,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// HasEvidence reports whether the detector matched anything concrete.
func (f *RiskFinding) HasEvidence() bool {
	return len(f.Evidence) > 0
}

// RiskVerdict is the aggregated assessment across all detectors for one
// request, produced by the aggregator and consumed by the policy engine.
type RiskVerdict struct {
	OverallScore    float64                `json:"overall_score"`
	OverallLevel    RiskLevel              `json:"overall_level"`
	Findings        []RiskFinding          `json:"findings"`
	CategoryLevels  map[Category]RiskLevel `json:"category_levels"`
	Recommendations []string               `json:"recommendations"`
	EvaluatedAt     time.Time              `json:"evaluated_at"`
}

// Finding returns the finding for the given category, or nil.
func (v *RiskVerdict) Finding(c Category) *RiskFinding {
	for i := range v.Findings {
		if v.Findings[i].Category == c {
			return &v.Findings[i]
		}
	}
	return nil
}

// MaxCategoryLevel returns the most severe per-category level. Ties resolve
// by category priority so the reported driver is deterministic.
func (v *RiskVerdict) MaxCategoryLevel() (Category, RiskLevel) {
	var (
		topCat   Category
		topLevel RiskLevel
	)
	for _, c := range AllCategories {
		lvl, ok := v.CategoryLevels[c]
		if !ok {
			continue
		}
		if lvl.Rank() > topLevel.Rank() {
			topCat, topLevel = c, lvl
		}
	}
	return topCat, topLevel
}

// ScoreSummary flattens the findings into the category score map persisted
// by the audit trail. Failed detectors report zero.
func (v *RiskVerdict) ScoreSummary() map[Category]float64 {
	out := make(map[Category]float64, len(v.Findings))
	for _, f := range v.Findings {
		if f.Failed {
			out[f.Category] = 0
			continue
		}
		out[f.Category] = f.Score
	}
	return out
}

// PolicyDecision is the policy engine's outcome for one analyzed request.
type PolicyDecision struct {
	Disposition    Disposition `json:"disposition"`
	Output         string      `json:"output"`
	RedactionCount int         `json:"redaction_count"`
	RedactedLabels []string    `json:"redacted_labels,omitempty"`
	Reason         string      `json:"reason,omitempty"`
}
