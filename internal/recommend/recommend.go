// Package recommend derives prioritized, human-readable recommendations
// from risk scores and journey coverage gaps.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
	"github.com/jblacketter/qaagent-sub000/internal/journey"
)

// DefaultRiskThreshold and DefaultCoverageTolerance are the knobs
// spec.md §4.8 names; callers may override either.
const (
	DefaultRiskThreshold     = 65.0
	DefaultCoverageTolerance = 0.05
)

// Options tunes which risks and journey gaps produce recommendations.
// A zero Options is invalid; use NewOptions for the documented defaults.
type Options struct {
	RiskThreshold     float64
	CoverageTolerance float64
}

// NewOptions returns Options set to spec.md §4.8's documented defaults.
func NewOptions() Options {
	return Options{RiskThreshold: DefaultRiskThreshold, CoverageTolerance: DefaultCoverageTolerance}
}

// Generate builds one recommendation per risk scoring at or above
// RiskThreshold (rule 1) plus one per under-target journey (rule 2).
func Generate(risks []*evidence.RiskRecord, journeys []journey.Coverage, opts Options, ids *idgen.Generator) ([]*evidence.RecommendationRecord, error) {
	var out []*evidence.RecommendationRecord

	for _, r := range risks {
		if r.Score < opts.RiskThreshold {
			continue
		}
		id, err := ids.Next(idgen.PrefixRecommendation)
		if err != nil {
			return nil, err
		}
		priority := evidence.PriorityFromScore(r.Score)
		rec, err := evidence.NewRecommendationRecord(
			id, r.Component, priority,
			fmt.Sprintf("Focus on %s (%s risk)", r.Component, priority),
			fmt.Sprintf("Risk score %.2f (band %s). Factors: %s", r.Score, r.Band, formatFactors(r.Factors)),
		)
		if err != nil {
			return nil, err
		}
		rec.EvidenceRefs = r.EvidenceRefs
		rec.Metadata["score"] = r.Score
		rec.Metadata["band"] = string(r.Band)
		out = append(out, rec)
	}

	for _, j := range journeys {
		if j.Coverage >= j.Target-opts.CoverageTolerance {
			continue
		}
		id, err := ids.Next(idgen.PrefixRecommendation)
		if err != nil {
			return nil, err
		}
		rec, err := evidence.NewRecommendationRecord(
			id, j.Journey, evidence.PriorityHigh,
			fmt.Sprintf("Raise coverage for journey %s", j.Journey),
			fmt.Sprintf("Coverage %.2f is below target %.2f for journey %s", j.Coverage, j.Target, j.Journey),
		)
		if err != nil {
			return nil, err
		}
		rec.EvidenceRefs = j.Components
		rec.Metadata["coverage"] = j.Coverage
		rec.Metadata["target"] = j.Target
		out = append(out, rec)
	}

	return out, nil
}

func formatFactors(factors map[string]float64) string {
	names := make([]string, 0, len(factors))
	for name := range factors {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%.2f", name, factors[name]))
	}
	return strings.Join(parts, ", ")
}
