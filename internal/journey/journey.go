// Package journey maps coverage evidence onto named business-level
// flows, so a risk or recommendation can speak in terms of "checkout"
// rather than a scattering of source files.
package journey

import (
	"path/filepath"

	"github.com/jblacketter/qaagent-sub000/internal/config"
	"github.com/jblacketter/qaagent-sub000/internal/evidence"
)

// Coverage is one journey's aggregated coverage snapshot.
type Coverage struct {
	Journey    string   `json:"journey"`
	Coverage   float64  `json:"coverage"`
	Target     float64  `json:"target"`
	Components []string `json:"components"`
}

// Aggregate computes one Coverage snapshot per configured journey.
// A component matches a journey when its path matches any of the
// journey's glob patterns via filepath.Match, whose "*" does not cross
// path separators.
func Aggregate(cfg *config.JourneyConfig, coverage []*evidence.CoverageRecord) []Coverage {
	if cfg == nil {
		return nil
	}

	out := make([]Coverage, 0, len(cfg.Journeys))
	for _, j := range cfg.Journeys {
		var matched []string
		var sum float64
		for _, c := range coverage {
			if c.Component == evidence.OverallComponent {
				continue
			}
			if matchesAny(c.Component, j.Components) {
				matched = append(matched, c.Component)
				sum += c.Value
			}
		}

		cov := 0.0
		if len(matched) > 0 {
			cov = sum / float64(len(matched))
		}

		target := 0.0
		if pct, ok := cfg.CoverageTargets[j.ID]; ok {
			target = pct / 100
		}

		out = append(out, Coverage{
			Journey:    j.ID,
			Coverage:   cov,
			Target:     target,
			Components: matched,
		})
	}
	return out
}

func matchesAny(component string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, component); err == nil && ok {
			return true
		}
	}
	return false
}
