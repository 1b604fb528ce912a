package recommend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
	"github.com/jblacketter/qaagent-sub000/internal/journey"
	"github.com/jblacketter/qaagent-sub000/internal/recommend"
)

func newIDs(t *testing.T) *idgen.Generator {
	t.Helper()
	g, err := idgen.New("20260801_101500Z")
	require.NoError(t, err)
	return g
}

func mustRisk(t *testing.T, component string, score float64) *evidence.RiskRecord {
	t.Helper()
	rec, err := evidence.NewRiskRecord("RSK-"+component, component, score, bandFor(score), 1.0, evidence.SeverityFromScore(score), 100)
	require.NoError(t, err)
	return rec
}

func bandFor(score float64) evidence.Band {
	switch {
	case score >= 80:
		return evidence.BandP0
	case score >= 65:
		return evidence.BandP1
	case score >= 50:
		return evidence.BandP2
	default:
		return evidence.BandP3
	}
}

func TestGenerate_RiskBelowThresholdIsSkipped(t *testing.T) {
	risks := []*evidence.RiskRecord{mustRisk(t, "low.py", 40)}
	out, err := recommend.Generate(risks, nil, recommend.NewOptions(), newIDs(t))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGenerate_RiskAtOrAboveThresholdProducesRecommendation(t *testing.T) {
	risks := []*evidence.RiskRecord{mustRisk(t, "hot.py", 70)}
	out, err := recommend.Generate(risks, nil, recommend.NewOptions(), newIDs(t))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, evidence.PriorityHigh, out[0].Priority)
	assert.Equal(t, "hot.py", out[0].Component)
	assert.Equal(t, 70.0, out[0].Metadata["score"])
}

// Scenario 3 from spec.md §8: coverage tolerance.
func TestGenerate_CoverageWithinToleranceYieldsNoRecommendation(t *testing.T) {
	journeys := []journey.Coverage{
		{Journey: "checkout", Coverage: 0.75, Target: 0.80, Components: []string{"a.py"}},
	}
	out, err := recommend.Generate(nil, journeys, recommend.NewOptions(), newIDs(t))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGenerate_CoverageJustBeyondToleranceYieldsOneHighRecommendation(t *testing.T) {
	journeys := []journey.Coverage{
		{Journey: "checkout", Coverage: 0.74, Target: 0.80, Components: []string{"a.py"}},
	}
	out, err := recommend.Generate(nil, journeys, recommend.NewOptions(), newIDs(t))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, evidence.PriorityHigh, out[0].Priority)
	assert.Equal(t, "checkout", out[0].Component)
	assert.Equal(t, 0.74, out[0].Metadata["coverage"])
}

func TestGenerate_CustomToleranceNarrowsTheGapWindow(t *testing.T) {
	journeys := []journey.Coverage{
		{Journey: "checkout", Coverage: 0.76, Target: 0.80},
	}
	opts := recommend.Options{RiskThreshold: recommend.DefaultRiskThreshold, CoverageTolerance: 0.01}
	out, err := recommend.Generate(nil, journeys, opts, newIDs(t))
	require.NoError(t, err)
	require.Len(t, out, 1)
}
