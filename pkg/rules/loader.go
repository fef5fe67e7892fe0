package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ruleFile is the YAML schema of an external rules file.
type ruleFile struct {
	Version       string              `yaml:"version"`
	PII           []patternSpec       `yaml:"pii"`
	Adversarial   []groupSpec         `yaml:"adversarial"`
	BiasLexicons  map[string][]string `yaml:"bias_lexicons"`
	Hallucination []patternSpec       `yaml:"hallucination"`
}

type patternSpec struct {
	Name           string `yaml:"name"`
	Label          string `yaml:"label"`
	Regex          string `yaml:"regex"`
	HighConfidence bool   `yaml:"high_confidence"`
	Critical       bool   `yaml:"critical"`
}

type groupSpec struct {
	Name     string        `yaml:"name"`
	Weight   float64       `yaml:"weight"`
	Patterns []patternSpec `yaml:"patterns"`
}

// LoadFile reads, validates and compiles a YAML rules file. An invalid file
// is rejected as a whole; callers keep the previously active set.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Parse validates and compiles rules from YAML bytes.
func Parse(data []byte) (*RuleSet, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	rs := &RuleSet{
		Version:      file.Version,
		BiasLexicons: make(map[string][]string, len(file.BiasLexicons)),
	}
	if rs.Version == "" {
		return nil, fmt.Errorf("rules file: missing version")
	}

	var err error
	if rs.PII, err = compileSpecs(file.PII, "pii"); err != nil {
		return nil, err
	}
	if rs.Hallucination, err = compileSpecs(file.Hallucination, "hallucination"); err != nil {
		return nil, err
	}

	for _, g := range file.Adversarial {
		if g.Name == "" {
			return nil, fmt.Errorf("rules file: adversarial group with empty name")
		}
		if g.Weight <= 0 {
			return nil, fmt.Errorf("rules file: adversarial group %q: weight must be positive", g.Name)
		}
		patterns, err := compileSpecs(g.Patterns, "adversarial."+g.Name)
		if err != nil {
			return nil, err
		}
		if len(patterns) == 0 {
			return nil, fmt.Errorf("rules file: adversarial group %q has no patterns", g.Name)
		}
		rs.Adversarial = append(rs.Adversarial, Group{
			Name:     g.Name,
			Weight:   g.Weight,
			Patterns: patterns,
		})
	}

	for group, terms := range file.BiasLexicons {
		if len(terms) == 0 {
			return nil, fmt.Errorf("rules file: bias lexicon %q is empty", group)
		}
		lowered := make([]string, 0, len(terms))
		for _, term := range terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				return nil, fmt.Errorf("rules file: bias lexicon %q contains an empty term", group)
			}
			lowered = append(lowered, term)
		}
		rs.BiasLexicons[group] = lowered
	}

	return rs, nil
}

func compileSpecs(specs []patternSpec, section string) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		p, err := compile(spec.Name, spec.Label, spec.Regex, spec.HighConfidence, spec.Critical)
		if err != nil {
			return nil, fmt.Errorf("rules file: section %s: %w", section, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("rules file: section %s: duplicate rule %q", section, p.Name)
		}
		seen[p.Name] = true
		patterns = append(patterns, p)
	}
	return patterns, nil
}
