package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jblacketter/qaagent-sub000/internal/config"
	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/pipeline"
	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
	"github.com/jblacketter/qaagent-sub000/internal/recommend"
)

var (
	targetNameFlag    string
	riskConfigFlag    string
	journeyConfigFlag string
	riskThresholdFlag float64
	coverageTolFlag   float64
	outputFormatFlag  string
)

// exactArgs wraps cobra's own arg-count validators so a usage mistake
// (wrong arg count) surfaces as a qaerr.Validation and exits 2, like
// every other validation failure, instead of falling through to the
// generic exit code 1.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return qaerr.Validation(err.Error())
		}
		return nil
	}
}

func maximumNArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return qaerr.Validation(err.Error())
		}
		return nil
	}
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run collectors and derive risk scores and recommendations",
}

var analyzeCollectorsCmd = &cobra.Command{
	Use:   "collectors [target]",
	Short: "Run every configured collector against a repository (default: the working directory) and record its evidence",
	Args:  maximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runsRoot, err := resolveRunsRoot()
		if err != nil {
			return err
		}
		log, err := newLogger(runsRoot)
		if err != nil {
			return err
		}
		defer log.Sync()

		targetPath := ""
		if len(args) == 1 {
			targetPath = args[0]
		} else if targetPath, err = os.Getwd(); err != nil {
			return err
		}
		name := targetNameFlag
		if name == "" {
			name = targetPath
		}
		target := evidence.Target{Name: name, Path: targetPath}

		handle, results, err := pipeline.RunCollectors(context.Background(), runsRoot, config.LogsRoot(runsRoot), target, log)
		if err != nil {
			return err
		}
		if outputFormatFlag == "json" {
			return printJSON(cmd, map[string]any{
				"run_id":     handle.RunID(),
				"tools":      handle.Manifest().Tools,
				"collectors": results,
			})
		}
		return printSuccess(cmd, "collectors", handle.RunID())
	},
}

var analyzeRisksCmd = &cobra.Command{
	Use:   "risks [run_id]",
	Short: "Aggregate a run's findings, coverage, and churn evidence into risk scores",
	Args:  maximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runsRoot, err := resolveRunsRoot()
		if err != nil {
			return err
		}
		log, err := newLogger(runsRoot)
		if err != nil {
			return err
		}
		defer log.Sync()

		riskCfg := config.DefaultRiskConfig()
		if riskConfigFlag != "" {
			riskCfg, err = config.LoadRiskConfig(riskConfigFlag)
			if err != nil {
				return err
			}
		}

		runID := ""
		if len(args) == 1 {
			runID = args[0]
		}

		handle, risks, err := pipeline.AggregateRisks(runsRoot, runID, riskCfg, log)
		if err != nil {
			return err
		}
		if outputFormatFlag == "json" {
			return printJSON(cmd, map[string]any{
				"run_id": handle.RunID(),
				"risks":  risks,
			})
		}
		return printSuccess(cmd, "risks", handle.RunID())
	},
}

var analyzeRecommendationsCmd = &cobra.Command{
	Use:   "recommendations [run_id]",
	Short: "Derive prioritized recommendations from a run's risks and journey coverage",
	Args:  maximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runsRoot, err := resolveRunsRoot()
		if err != nil {
			return err
		}
		log, err := newLogger(runsRoot)
		if err != nil {
			return err
		}
		defer log.Sync()

		journeyCfg, err := config.LoadJourneyConfig(journeyConfigFlag)
		if err != nil {
			return err
		}

		opts := recommend.NewOptions()
		if cmd.Flags().Changed("risk-threshold") {
			opts.RiskThreshold = riskThresholdFlag
		}
		if cmd.Flags().Changed("coverage-tolerance") {
			opts.CoverageTolerance = coverageTolFlag
		}

		runID := ""
		if len(args) == 1 {
			runID = args[0]
		}

		handle, recs, err := pipeline.DeriveRecommendations(runsRoot, runID, journeyCfg, opts, log)
		if err != nil {
			return err
		}
		if outputFormatFlag == "json" {
			return printJSON(cmd, map[string]any{
				"run_id":          handle.RunID(),
				"recommendations": recs,
			})
		}
		return printSuccess(cmd, "recommendations", handle.RunID())
	},
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&outputFormatFlag, "output", "text", "output format: text (single-line success message) or json (full payload)")

	analyzeCollectorsCmd.Flags().StringVar(&targetNameFlag, "name", "", "display name for the target (default: the target path)")

	analyzeRisksCmd.Flags().StringVar(&riskConfigFlag, "risk-config", "", "path to a risk_weights.yaml override")

	analyzeRecommendationsCmd.Flags().StringVar(&journeyConfigFlag, "journey-config", "", "path to a journeys.yaml mapping")
	analyzeRecommendationsCmd.Flags().Float64Var(&riskThresholdFlag, "risk-threshold", recommend.DefaultRiskThreshold, "minimum risk score to generate a recommendation")
	analyzeRecommendationsCmd.Flags().Float64Var(&coverageTolFlag, "coverage-tolerance", recommend.DefaultCoverageTolerance, "coverage slack below a journey's target before flagging a gap")

	analyzeCmd.AddCommand(analyzeCollectorsCmd, analyzeRisksCmd, analyzeRecommendationsCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSuccess is the default CLI success path: a single line carrying
// the run id, not a dump of the run's payload.
func printSuccess(cmd *cobra.Command, step, runID string) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: run %s complete\n", step, runID)
	return err
}
