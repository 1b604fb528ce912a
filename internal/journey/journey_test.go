package journey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblacketter/qaagent-sub000/internal/config"
	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/journey"
)

func mustCoverage(t *testing.T, component string, value float64) *evidence.CoverageRecord {
	t.Helper()
	rec, err := evidence.NewCoverageRecord("COV-"+component, evidence.CoverageLine, component, value)
	require.NoError(t, err)
	return rec
}

// Scenario 4 from spec.md §8: journey "auth_login" with components
// "src/auth/*" aggregates only the matching files, as an arithmetic mean.
func TestAggregate_MatchesGlobAndAveragesCoverage(t *testing.T) {
	cfg := &config.JourneyConfig{
		Journeys: []config.Journey{
			{ID: "auth_login", Name: "Auth Login", Components: []string{"src/auth/*"}},
		},
		CoverageTargets: map[string]float64{"auth_login": 80},
	}
	coverage := []*evidence.CoverageRecord{
		mustCoverage(t, "src/auth/login.py", 0.6),
		mustCoverage(t, "src/auth/logout.py", 0.8),
		mustCoverage(t, "src/other.py", 1.0),
		mustCoverage(t, evidence.OverallComponent, 0.9),
	}

	out := journey.Aggregate(cfg, coverage)
	require.Len(t, out, 1)
	assert.Equal(t, "auth_login", out[0].Journey)
	assert.InDelta(t, 0.7, out[0].Coverage, 1e-9)
	assert.InDelta(t, 0.8, out[0].Target, 1e-9)
	assert.ElementsMatch(t, []string{"src/auth/login.py", "src/auth/logout.py"}, out[0].Components)
}

func TestAggregate_GlobDoesNotCrossPathSeparator(t *testing.T) {
	cfg := &config.JourneyConfig{
		Journeys: []config.Journey{
			{ID: "shallow", Components: []string{"src/*"}},
		},
		CoverageTargets: map[string]float64{},
	}
	coverage := []*evidence.CoverageRecord{
		mustCoverage(t, "src/a.py", 0.5),
		mustCoverage(t, "src/nested/b.py", 0.9),
	}

	out := journey.Aggregate(cfg, coverage)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"src/a.py"}, out[0].Components)
}

func TestAggregate_NoMatchesYieldsZeroCoverage(t *testing.T) {
	cfg := &config.JourneyConfig{
		Journeys: []config.Journey{{ID: "empty", Components: []string{"nomatch/*"}}},
	}
	out := journey.Aggregate(cfg, nil)
	require.Len(t, out, 1)
	assert.Equal(t, 0.0, out[0].Coverage)
	assert.Empty(t, out[0].Components)
}
