// Package rules holds the compiled detection rule sets: regex patterns for
// PII and adversarial phraseology, lexicons for bias cues, and proxy cues for
// hallucination signals. A RuleSet is immutable once compiled; matching is a
// pure function over (rule set, text). Rule content is data, not logic: the
// built-in defaults can be replaced wholesale by a YAML rules file.
package rules

import (
	"fmt"
	"regexp"
)

// Category identifies a risk category a rule belongs to.
type Category string

const (
	CategoryPII           Category = "pii"
	CategoryBias          Category = "bias"
	CategoryAdversarial   Category = "adversarial"
	CategoryHallucination Category = "hallucination"
)

// Pattern is one compiled detection rule.
type Pattern struct {
	// Name identifies the rule in findings and logs.
	Name string

	// Label tags redaction placeholders and evidence entries. Defaults to Name.
	Label string

	// Regex is the compiled expression. Never nil in a compiled set.
	Regex *regexp.Regexp

	// HighConfidence marks patterns whose single match is decisive
	// (an SSN match alone pushes the PII score to the override floor).
	HighConfidence bool

	// Critical marks patterns that force the category score to 1.0 on any
	// match. Fail-closed: critical overrides are never averaged away.
	Critical bool
}

// Group is a weighted family of adversarial patterns. Group weights shape the
// category score; they do not need to sum to one (the detector normalizes).
type Group struct {
	Name     string
	Weight   float64
	Patterns []Pattern
}

// Match is one pattern hit inside a text.
type Match struct {
	Rule  string
	Label string
	Start int
	End   int
}

// RuleSet is the immutable compiled form of all detection rules.
type RuleSet struct {
	Version string

	// PII and Hallucination are flat pattern lists.
	PII           []Pattern
	Hallucination []Pattern

	// Adversarial patterns are grouped; group weights feed the sub-score mix.
	Adversarial []Group

	// BiasLexicons maps cue group name to lowercased cue phrases.
	BiasLexicons map[string][]string
}

// Source yields the rule set a detector reads on each call. A hot-reloading
// watcher swaps the set between calls; a bare RuleSet is its own Source, so
// fixed-set callers pass the set directly.
type Source interface {
	Current() *RuleSet
}

// Current implements Source.
func (s *RuleSet) Current() *RuleSet {
	return s
}

// FindAll returns every match of the given patterns in order of occurrence.
func FindAll(text string, patterns []Pattern) []Match {
	var matches []Match
	for _, p := range patterns {
		locs := p.Regex.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			matches = append(matches, Match{
				Rule:  p.Name,
				Label: p.Label,
				Start: loc[0],
				End:   loc[1],
			})
		}
	}
	return matches
}

// MatchAny reports whether any of the patterns matches the text.
func MatchAny(text string, patterns []Pattern) bool {
	for _, p := range patterns {
		if p.Regex.MatchString(text) {
			return true
		}
	}
	return false
}

// compile builds a Pattern, normalizing the label.
func compile(name, label, expr string, highConfidence, critical bool) (Pattern, error) {
	if name == "" {
		return Pattern{}, fmt.Errorf("rule with empty name")
	}
	if expr == "" {
		return Pattern{}, fmt.Errorf("rule %q: empty pattern", name)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("rule %q: %w", name, err)
	}
	if label == "" {
		label = name
	}
	return Pattern{
		Name:           name,
		Label:          label,
		Regex:          re,
		HighConfidence: highConfidence,
		Critical:       critical,
	}, nil
}

// mustCompile is the registration helper for built-in rules. Built-in rule
// content is fixed at build time, so a bad expression is a programmer error.
func mustCompile(name, label, expr string, highConfidence, critical bool) Pattern {
	p, err := compile(name, label, expr, highConfidence, critical)
	if err != nil {
		panic(err)
	}
	return p
}
