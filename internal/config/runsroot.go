package config

import (
	"os"
	"path/filepath"
	"strings"
)

const runsDirEnvVar = "QAAGENT_RUNS_DIR"

// ResolveRunsRoot centralizes the runs-root priority order from spec.md
// §4.1: explicit argument, then environment variable, then platform
// default (`$HOME/.qaagent/runs`). A test harness can redirect storage by
// setting QAAGENT_RUNS_DIR without touching process flags.
func ResolveRunsRoot(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if v := os.Getenv(runsDirEnvVar); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".qaagent", "runs"), nil
}

// LogsRoot returns the sibling directory the orchestrator writes its
// per-run event log into, per spec.md §4.5 ("<runs_root>/../logs").
func LogsRoot(runsRoot string) string {
	return filepath.Join(filepath.Dir(runsRoot), "logs")
}

// CORSOrigins parses the QAAGENT_CORS_ORIGINS comma list env var.
func CORSOrigins() []string {
	v := os.Getenv("QAAGENT_CORS_ORIGINS")
	if v == "" {
		return []string{"*"}
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if seg := strings.TrimSpace(part); seg != "" {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// LogLevel reads QAAGENT_LOG_LEVEL, defaulting to "info".
func LogLevel() string {
	if v := os.Getenv("QAAGENT_LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}
