// Command qaagent is the CLI entry point for the local, read-only code
// quality analysis platform: it runs collectors against a repository,
// aggregates the resulting evidence into risk scores and
// recommendations, and can optionally serve that evidence over the
// read API implemented by internal/apiserver.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jblacketter/qaagent-sub000/internal/config"
	"github.com/jblacketter/qaagent-sub000/internal/logging"
	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"

	cfgFile      string
	runsDirFlag  string
	logLevelFlag string
	logFileFlag  string

	rootCmd = &cobra.Command{
		Use:   "qaagent",
		Short: "qaagent runs read-only code quality analysis against a local repository",
		Long: `qaagent collects lint, coverage, dependency, security, and churn
evidence from a repository, scores components by risk, maps coverage
onto user journeys, and derives prioritized recommendations. Every
collector is read-only: nothing it runs modifies the target
repository.`,
		// main prints the returned error itself and translates it to an
		// exit code via qaerr.ExitCode; cobra's own usage dump on error
		// would just duplicate that.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .qaagent.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&runsDirFlag, "runs-dir", "", "runs directory (default: $QAAGENT_RUNS_DIR or $HOME/.qaagent/runs)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error (default: $QAAGENT_LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "log file path (default: <runs-dir>/../logs/qaagent.log)")

	rootCmd.AddCommand(versionCmd, analyzeCmd, apiCmd)
}

// initViper loads an optional .qaagent.yaml so operators can pin
// runs-dir/log-level/host/port without repeating flags on every
// invocation; flags and environment variables still take precedence
// since those are read explicitly, not through viper's own binding.
func initViper() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".qaagent")
	}
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		if runsDirFlag == "" && os.Getenv("QAAGENT_RUNS_DIR") == "" {
			runsDirFlag = viper.GetString("runs_dir")
		}
		if logLevelFlag == "" && os.Getenv("QAAGENT_LOG_LEVEL") == "" {
			logLevelFlag = viper.GetString("log_level")
		}
		if apiHostFlag == "" {
			apiHostFlag = viper.GetString("api.host")
		}
		if apiPortFlag == 0 {
			apiPortFlag = viper.GetInt("api.port")
		}
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("qaagent %s (%s)\n", version, commit)
	},
}

// resolveRunsRoot applies the --runs-dir flag on top of the usual
// environment/default priority order from config.ResolveRunsRoot.
func resolveRunsRoot() (string, error) {
	return config.ResolveRunsRoot(runsDirFlag)
}

// newLogger builds the shared rotating JSON logger every subcommand
// uses, honoring --log-level/--log-file overrides.
func newLogger(runsRoot string) (*zap.Logger, error) {
	level := logLevelFlag
	if level == "" {
		level = config.LogLevel()
	}
	path := logFileFlag
	if path == "" {
		path = config.LogsRoot(runsRoot) + "/qaagent.log"
	}
	cfg := logging.DefaultConfig(path)
	cfg.Level = level
	cfg.Console = true
	return logging.New(cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(qaerr.ExitCode(err))
	}
}
