// Package pipeline wires the run manager, orchestrator, risk aggregator,
// journey mapper, and recommendation engine into the three operations
// the CLI and API server both need: run collectors, aggregate risks,
// derive recommendations. Keeping this in one place means the CLI's
// "analyze" subcommands and the API's POST /repositories/{id}/analyze
// share one analysis path rather than two drifting copies.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jblacketter/qaagent-sub000/internal/collectors"
	"github.com/jblacketter/qaagent-sub000/internal/config"
	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
	"github.com/jblacketter/qaagent-sub000/internal/journey"
	"github.com/jblacketter/qaagent-sub000/internal/orchestrator"
	"github.com/jblacketter/qaagent-sub000/internal/recommend"
	"github.com/jblacketter/qaagent-sub000/internal/riskengine"
	"github.com/jblacketter/qaagent-sub000/internal/runmanager"
	"github.com/jblacketter/qaagent-sub000/internal/store"
)

// RunCollectors creates a new run for target and executes every
// configured collector against it.
func RunCollectors(ctx context.Context, runsRoot, logsRoot string, target evidence.Target, log *zap.Logger) (*runmanager.RunHandle, []collectors.CollectorResult, error) {
	handle, err := runmanager.Create(runsRoot, target, time.Now().UTC())
	if err != nil {
		return nil, nil, err
	}
	o := orchestrator.New(orchestrator.DefaultFactories(), logsRoot, log)
	results, err := o.Run(ctx, handle, target.Path)
	if err != nil {
		return handle, nil, err
	}
	return handle, results, nil
}

// resolveHandle loads runID, or the newest run when runID is empty.
func resolveHandle(runsRoot, runID string) (*runmanager.RunHandle, error) {
	if runID == "" {
		return runmanager.Newest(runsRoot)
	}
	return runmanager.Load(runsRoot, runID)
}

// AggregateRisks loads a run's findings/coverage/churn evidence,
// computes one RiskRecord per component, and writes them to risks.jsonl.
func AggregateRisks(runsRoot, runID string, riskCfg *config.RiskConfig, log *zap.Logger) (*runmanager.RunHandle, []*evidence.RiskRecord, error) {
	handle, err := resolveHandle(runsRoot, runID)
	if err != nil {
		return nil, nil, err
	}
	reader := store.NewReader(handle, log)
	findings, err := reader.Findings()
	if err != nil {
		return handle, nil, err
	}
	coverage, err := reader.Coverage()
	if err != nil {
		return handle, nil, err
	}
	churn, err := reader.Churn()
	if err != nil {
		return handle, nil, err
	}

	ids, err := idgen.New(handle.RunID())
	if err != nil {
		return handle, nil, err
	}
	risks, err := riskengine.Aggregate(findings, coverage, churn, riskCfg, ids)
	if err != nil {
		return handle, nil, err
	}

	w := store.NewWriter(handle)
	if _, err := w.WriteRisks(risks); err != nil {
		return handle, nil, err
	}
	return handle, risks, nil
}

// DeriveRecommendations loads a run's risks and coverage, maps coverage
// onto journeyCfg's journeys, and writes the resulting recommendations
// to recommendations.jsonl.
func DeriveRecommendations(runsRoot, runID string, journeyCfg *config.JourneyConfig, opts recommend.Options, log *zap.Logger) (*runmanager.RunHandle, []*evidence.RecommendationRecord, error) {
	handle, err := resolveHandle(runsRoot, runID)
	if err != nil {
		return nil, nil, err
	}
	reader := store.NewReader(handle, log)
	risks, err := reader.Risks()
	if err != nil {
		return handle, nil, err
	}
	coverage, err := reader.Coverage()
	if err != nil {
		return handle, nil, err
	}

	journeys := journey.Aggregate(journeyCfg, coverage)

	ids, err := idgen.New(handle.RunID())
	if err != nil {
		return handle, nil, err
	}
	recs, err := recommend.Generate(risks, journeys, opts, ids)
	if err != nil {
		return handle, nil, err
	}

	w := store.NewWriter(handle)
	if _, err := w.WriteRecommendations(recs); err != nil {
		return handle, nil, err
	}
	return handle, recs, nil
}
