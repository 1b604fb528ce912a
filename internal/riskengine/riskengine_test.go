package riskengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblacketter/qaagent-sub000/internal/config"
	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
	"github.com/jblacketter/qaagent-sub000/internal/riskengine"
)

func newIDs(t *testing.T) *idgen.Generator {
	t.Helper()
	g, err := idgen.New("20260801_101500Z")
	require.NoError(t, err)
	return g
}

// Scenario 1 from spec.md §8: risk ordering.
func TestAggregate_RiskOrdering(t *testing.T) {
	finding, err := evidence.NewFindingRecord("FND-1", "bandit", evidence.SeverityHigh, "hardcoded secret")
	require.NoError(t, err)
	finding.File = "src/auth/login.py"

	cov1, err := evidence.NewCoverageRecord("COV-1", evidence.CoverageLine, "src/auth/login.py", 0.3)
	require.NoError(t, err)
	cov2, err := evidence.NewCoverageRecord("COV-2", evidence.CoverageLine, "src/other.py", 0.9)
	require.NoError(t, err)

	churn1, err := evidence.NewChurnRecord("CHN-1", "src/auth/login.py", "90d")
	require.NoError(t, err)
	churn1.Commits, churn1.LinesAdded, churn1.LinesDeleted = 12, 80, 40
	churn2, err := evidence.NewChurnRecord("CHN-2", "src/other.py", "90d")
	require.NoError(t, err)
	churn2.Commits, churn2.LinesAdded, churn2.LinesDeleted = 1, 5, 1

	risks, err := riskengine.Aggregate(
		[]*evidence.FindingRecord{finding},
		[]*evidence.CoverageRecord{cov1, cov2},
		[]*evidence.ChurnRecord{churn1, churn2},
		config.DefaultRiskConfig(),
		newIDs(t),
	)
	require.NoError(t, err)
	require.Len(t, risks, 2)

	assert.Equal(t, "src/auth/login.py", risks[0].Component)
	assert.Greater(t, risks[0].Score, risks[1].Score)
}

// Scenario 2 from spec.md §8: band/severity mapping.
func TestNewRiskRecord_BandSeverityMapping(t *testing.T) {
	cfg := config.DefaultRiskConfig()

	rec85, err := evidence.NewRiskRecord("RSK-1", "c", 85, riskBandFor(85, cfg), 1.0, evidence.SeverityFromScore(85), cfg.MaxTotal)
	require.NoError(t, err)
	assert.Equal(t, evidence.BandP0, rec85.Band)
	assert.Equal(t, evidence.RiskCritical, evidence.SeverityFromScore(85))

	assert.Equal(t, evidence.Band("P1"), riskBandFor(65, cfg))
	assert.Equal(t, evidence.Band("P3"), riskBandFor(49.9, cfg))
}

// riskBandFor applies riskengine's band rule (first band whose threshold
// is met, lowest band as fallback) by walking cfg.Bands in their
// configured order, which for the default config is already MinScore
// descending.
func riskBandFor(score float64, cfg *config.RiskConfig) evidence.Band {
	for _, b := range cfg.Bands {
		if score >= b.MinScore {
			return evidence.Band(b.Name)
		}
	}
	return evidence.Band(cfg.Bands[len(cfg.Bands)-1].Name)
}

func TestAggregate_ChurnMinMaxNormalization(t *testing.T) {
	c1, err := evidence.NewChurnRecord("CHN-1", "a.py", "90d")
	require.NoError(t, err)
	c1.Commits = 10
	c2, err := evidence.NewChurnRecord("CHN-2", "b.py", "90d")
	require.NoError(t, err)
	c2.Commits = 10

	risks, err := riskengine.Aggregate(nil, nil, []*evidence.ChurnRecord{c1, c2}, config.DefaultRiskConfig(), newIDs(t))
	require.NoError(t, err)
	for _, r := range risks {
		assert.Equal(t, float64(0), r.Factors["churn"])
	}
}

func TestAggregate_EmptyInputsYieldNoRisks(t *testing.T) {
	risks, err := riskengine.Aggregate(nil, nil, nil, config.DefaultRiskConfig(), newIDs(t))
	require.NoError(t, err)
	assert.Empty(t, risks)
}
