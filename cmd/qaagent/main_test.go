package main

import "testing"

func TestResolveRunsRoot_PrefersExplicitFlag(t *testing.T) {
	old := runsDirFlag
	defer func() { runsDirFlag = old }()

	runsDirFlag = "/tmp/explicit-runs"
	got, err := resolveRunsRoot()
	if err != nil {
		t.Fatalf("resolveRunsRoot returned error: %v", err)
	}
	if got != "/tmp/explicit-runs" {
		t.Fatalf("resolveRunsRoot() = %q, want explicit flag value", got)
	}
}

func TestRootCmd_RegistersExpectedSubcommands(t *testing.T) {
	want := map[string]bool{"version": false, "analyze": false, "api": false}
	for _, c := range rootCmd.Commands() {
		name := c.Name()
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("expected rootCmd to register a %q subcommand", name)
		}
	}
}

func TestAnalyzeCmd_RegistersExpectedSubcommands(t *testing.T) {
	want := map[string]bool{"collectors": false, "risks": false, "recommendations": false}
	for _, c := range analyzeCmd.Commands() {
		name := c.Name()
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("expected analyzeCmd to register a %q subcommand", name)
		}
	}
}
