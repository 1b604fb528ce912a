// Package idgen allocates deterministic evidence ids of the form
// <PREFIX>-<YYYYMMDD>-<NNNN>, scoped to a single run's date prefix.
package idgen

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z]+$`)

// Known collector/analyzer evidence-id prefixes.
const (
	PrefixFinding        = "FND"
	PrefixCoverage       = "COV"
	PrefixChurn          = "CHN"
	PrefixRisk           = "RSK"
	PrefixRecommendation = "REC"
)

// Generator allocates monotonically increasing, per-prefix ids scoped to
// one run's 8-digit date prefix. Zero value is not usable; use New.
type Generator struct {
	mu       sync.Mutex
	datePart string
	counters map[string]int
}

// New extracts the 8-digit date prefix from a run id of the form
// YYYYMMDD_HHMMSSZ (with an optional _NN collision suffix) and returns a
// Generator scoped to it.
func New(runID string) (*Generator, error) {
	if len(runID) < 8 {
		return nil, qaerr.Validation("run id too short to derive a date prefix: " + runID)
	}
	datePart := runID[:8]
	for _, c := range datePart {
		if c < '0' || c > '9' {
			return nil, qaerr.Validation("run id does not start with an 8-digit date: " + runID)
		}
	}
	return &Generator{datePart: datePart, counters: map[string]int{}}, nil
}

// Next allocates the next id for prefix, formatted "<PREFIX>-<YYYYMMDD>-<NNNN>".
func (g *Generator) Next(prefix string) (string, error) {
	if prefix == "" || !prefixPattern.MatchString(prefix) {
		return "", qaerr.Validation("id prefix must be non-empty and alphabetic: " + prefix)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[prefix]++
	n := g.counters[prefix]
	if n > 9999 {
		return "", qaerr.Validation(fmt.Sprintf("id counter for prefix %s exceeded 9999 in one run", prefix))
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, g.datePart, n), nil
}
