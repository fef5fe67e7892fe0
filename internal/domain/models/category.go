package models

// Category identifies one risk category scored by a detector.
type Category string

const (
	CategoryPII           Category = "pii"
	CategoryBias          Category = "bias"
	CategoryAdversarial   Category = "adversarial"
	CategoryHallucination Category = "hallucination"
)

// AllCategories lists every category in priority order. The order is the
// tie-break for level escalation and the emission order of recommendations:
// adversarial findings outrank PII, PII outranks bias, bias outranks
// hallucination proxies.
var AllCategories = []Category{
	CategoryAdversarial,
	CategoryPII,
	CategoryBias,
	CategoryHallucination,
}

// Priority returns the tie-break rank of the category. Higher wins.
func (c Category) Priority() int {
	switch c {
	case CategoryAdversarial:
		return 4
	case CategoryPII:
		return 3
	case CategoryBias:
		return 2
	case CategoryHallucination:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the category is one of the known risk categories.
func (c Category) Valid() bool {
	return c.Priority() > 0
}

// RiskLevel is the discrete risk classification of a verdict or category.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Rank orders risk levels for comparisons. Higher is more severe.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelCritical:
		return 4
	case RiskLevelHigh:
		return 3
	case RiskLevelMedium:
		return 2
	case RiskLevelLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether the level is at or above the given severity.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

// Disposition is the policy engine's handling decision for a request.
type Disposition string

const (
	DispositionAllow  Disposition = "allow"
	DispositionRedact Disposition = "redact"
	DispositionBlock  Disposition = "block"
)
