// Package riskengine aggregates findings, coverage, and churn evidence
// into one weighted risk score per component.
package riskengine

import (
	"fmt"
	"sort"

	"github.com/jblacketter/qaagent-sub000/internal/config"
	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
)

var severityWeight = map[evidence.Severity]float64{
	evidence.SeverityCritical: 2.0,
	evidence.SeverityHigh:     2.0,
	evidence.SeverityWarning:  1.0,
	evidence.SeverityInfo:     0.5,
}

const unknownSeverityWeight = 1.0

// Aggregate computes one RiskRecord per component that appears in any of
// findings, coverage, or churn, sorted by score descending.
func Aggregate(findings []*evidence.FindingRecord, coverage []*evidence.CoverageRecord, churn []*evidence.ChurnRecord, cfg *config.RiskConfig, ids *idgen.Generator) ([]*evidence.RiskRecord, error) {
	if cfg == nil {
		cfg = config.DefaultRiskConfig()
	}

	components := map[string]bool{}
	for _, f := range findings {
		if f.File != "" {
			components[f.File] = true
		}
	}
	for _, c := range coverage {
		if c.Component != evidence.OverallComponent {
			components[c.Component] = true
		}
	}
	for _, c := range churn {
		components[c.Path] = true
	}

	security := securityFactor(findings)
	coverageGap := coverageFactor(coverage)
	churnNorm := churnFactor(churn)

	var out []*evidence.RiskRecord
	for component := range components {
		raw := map[string]float64{}
		if v, ok := security[component]; ok {
			raw["security"] = v
		}
		if v, ok := coverageGap[component]; ok {
			raw["coverage"] = v
		}
		if v, ok := churnNorm[component]; ok {
			raw["churn"] = v
		}

		weighted := map[string]float64{}
		total := 0.0
		positive := 0
		for name, v := range raw {
			w := cfg.Weights.WeightOf(name) * v
			weighted[name] = w
			total += w
			if v > 0 {
				positive++
			}
		}
		score := total
		if score > cfg.MaxTotal {
			score = cfg.MaxTotal
		}
		if score < 0 {
			score = 0
		}

		band := assignBand(score, cfg.Bands)
		severity := evidence.SeverityFromScore(score)
		confidence := float64(positive) / 3.0

		id, err := ids.Next(idgen.PrefixRisk)
		if err != nil {
			return nil, err
		}
		rec, err := evidence.NewRiskRecord(id, component, score, band, confidence, severity, cfg.MaxTotal)
		if err != nil {
			return nil, err
		}
		rec.Title = fmt.Sprintf("Risk in %s", component)
		rec.Description = fmt.Sprintf("Aggregated risk score %.2f across %d factor(s)", score, len(raw))
		rec.Factors = weighted
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func securityFactor(findings []*evidence.FindingRecord) map[string]float64 {
	out := map[string]float64{}
	for _, f := range findings {
		if f.File == "" {
			continue
		}
		w, ok := severityWeight[f.Severity]
		if !ok {
			w = unknownSeverityWeight
		}
		out[f.File] += w
	}
	return out
}

func coverageFactor(coverage []*evidence.CoverageRecord) map[string]float64 {
	out := map[string]float64{}
	for _, c := range coverage {
		if c.Component == evidence.OverallComponent {
			continue
		}
		gap := 1 - c.Value
		if gap < 0 {
			gap = 0
		}
		out[c.Component] = gap
	}
	return out
}

func churnFactor(churn []*evidence.ChurnRecord) map[string]float64 {
	raw := map[string]float64{}
	for _, c := range churn {
		raw[c.Path] = float64(c.Commits + c.LinesAdded + c.LinesDeleted)
	}
	if len(raw) == 0 {
		return raw
	}
	min, max := minMax(raw)
	out := map[string]float64{}
	if min == max {
		for path := range raw {
			out[path] = 0
		}
		return out
	}
	for path, v := range raw {
		out[path] = (v - min) / (max - min)
	}
	return out
}

func minMax(m map[string]float64) (float64, float64) {
	first := true
	var min, max float64
	for _, v := range m {
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// assignBand sorts bands by MinScore descending and returns the first
// whose threshold is met, falling back to the lowest configured band.
func assignBand(score float64, bands []config.BandThreshold) evidence.Band {
	if len(bands) == 0 {
		bands = config.DefaultRiskConfig().Bands
	}
	sorted := make([]config.BandThreshold, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinScore > sorted[j].MinScore })

	for _, b := range sorted {
		if score >= b.MinScore {
			return evidence.Band(b.Name)
		}
	}
	return evidence.Band(sorted[len(sorted)-1].Name)
}
