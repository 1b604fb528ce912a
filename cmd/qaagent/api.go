package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jblacketter/qaagent-sub000/internal/apiserver"
	"github.com/jblacketter/qaagent-sub000/internal/config"
	"github.com/jblacketter/qaagent-sub000/internal/tracing"
)

var (
	apiHostFlag         string
	apiPortFlag         int
	apiOtelEndpointFlag string
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the read-only evidence API over HTTP",
	Long: `api starts the HTTP server exposing run listings, per-category
evidence, risk scores, recommendations, and trend history. It never
runs collectors on its own; use "qaagent analyze" to populate runs, or
register a repository and POST /api/repositories/{id}/analyze, which
invokes the same in-process collector path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runsRoot, err := resolveRunsRoot()
		if err != nil {
			return err
		}
		if runsDirFlag != "" {
			os.Setenv("QAAGENT_RUNS_DIR", runsDirFlag)
		}

		log, err := newLogger(runsRoot)
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg := apiserver.DefaultConfig()
		if apiHostFlag != "" {
			cfg.Host = apiHostFlag
		}
		if apiPortFlag != 0 {
			cfg.Port = apiPortFlag
		}
		cfg.AllowedOrigins = config.CORSOrigins()

		shutdownTracing, err := tracing.Init("qaagent", apiOtelEndpointFlag)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Warn("tracing shutdown failed", zap.Error(err))
			}
		}()

		srv := apiserver.New(cfg, log)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return srv.Run(ctx)
	},
}

func init() {
	apiCmd.Flags().StringVar(&apiHostFlag, "host", "", "listen host (default: 127.0.0.1)")
	apiCmd.Flags().IntVar(&apiPortFlag, "port", 0, "listen port (default: 8000)")
	apiCmd.Flags().StringVar(&apiOtelEndpointFlag, "otel-endpoint", "", "OTLP trace collector endpoint (default: tracing disabled)")
}
