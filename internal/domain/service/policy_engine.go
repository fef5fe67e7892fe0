package service

import (
	"context"
	"sort"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/logger"
)

const blockReason = "risk level over tenant blocking policy"

type policyEngine struct {
	log logger.Logger
}

// NewPolicyEngine creates the disposition decision engine. It is a pure
// function of (text, verdict, policy): no I/O, no randomness, no clock.
func NewPolicyEngine(log logger.Logger) PolicyEngine {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &policyEngine{log: log.WithComponent("policy_engine")}
}

// Evaluate implements PolicyEngine.
//
// Decision table, first match wins:
//  1. blocking enabled and level high or critical -> block, empty output
//  2. redaction enabled and PII evidence present  -> redact
//  3. otherwise                                   -> allow, text unchanged
//
// A verdict whose PII finding carries no spans (already-redacted input)
// falls through to allow, which makes redaction idempotent.
func (e *policyEngine) Evaluate(ctx context.Context, text string, verdict *models.RiskVerdict, policy models.RiskPolicy) *models.PolicyDecision {
	if policy.BlockHighRisk && verdict.OverallLevel.AtLeast(models.RiskLevelHigh) {
		e.log.Debug(ctx, "request blocked by policy",
			logger.String("level", string(verdict.OverallLevel)),
		)
		return &models.PolicyDecision{
			Disposition: models.DispositionBlock,
			Output:      "",
			Reason:      blockReason,
		}
	}

	if policy.AutoRedact {
		if pii := verdict.Finding(models.CategoryPII); pii != nil && pii.HasEvidence() {
			output, count, labels := redactSpans(text, pii.Evidence)
			return &models.PolicyDecision{
				Disposition:    models.DispositionRedact,
				Output:         output,
				RedactionCount: count,
				RedactedLabels: labels,
			}
		}
	}

	return &models.PolicyDecision{
		Disposition: models.DispositionAllow,
		Output:      text,
	}
}

// redactSpans replaces each span with a category-tagged placeholder.
// Replacement runs right to left over spans sorted by descending start
// offset so earlier replacements cannot shift the offsets of later ones.
// Overlapping spans collapse into the first (rightmost) replacement.
func redactSpans(text string, spans []models.EvidenceSpan) (string, int, []string) {
	ordered := make([]models.EvidenceSpan, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			continue
		}
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Start != ordered[j].Start {
			return ordered[i].Start > ordered[j].Start
		}
		return ordered[i].End > ordered[j].End
	})

	out := text
	count := 0
	labelSet := make(map[string]struct{}, 4)
	lowestApplied := len(text) + 1
	for _, s := range ordered {
		if s.End > lowestApplied {
			continue
		}
		out = out[:s.Start] + "[REDACTED:" + s.Label + "]" + out[s.End:]
		lowestApplied = s.Start
		count++
		labelSet[s.Label] = struct{}{}
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return out, count, labels
}
