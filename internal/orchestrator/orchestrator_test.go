package orchestrator_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblacketter/qaagent-sub000/internal/collectors"
	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
	"github.com/jblacketter/qaagent-sub000/internal/orchestrator"
	"github.com/jblacketter/qaagent-sub000/internal/runmanager"
)

type fakeCollector struct {
	name      string
	available bool
}

func (f *fakeCollector) Name() string { return f.name }

func (f *fakeCollector) Probe(ctx context.Context, targetPath string) (bool, string, error) {
	return f.available, "1.0.0", nil
}

func (f *fakeCollector) Invoke(ctx context.Context, targetPath string, timeout time.Duration) collectors.InvocationResult {
	code := 0
	return collectors.InvocationResult{Executed: true, ExitCode: &code}
}

func (f *fakeCollector) Parse(ctx context.Context, targetPath string, result collectors.InvocationResult, ids *idgen.Generator) (collectors.ParsedEvidence, error) {
	id, err := ids.Next(idgen.PrefixFinding)
	if err != nil {
		return collectors.ParsedEvidence{}, err
	}
	rec, err := evidence.NewFindingRecord(id, f.name, evidence.SeverityInfo, "synthetic finding")
	if err != nil {
		return collectors.ParsedEvidence{}, err
	}
	return collectors.ParsedEvidence{Findings: []*evidence.FindingRecord{rec}}, nil
}

func TestOrchestrator_RunsAllCollectorsAndEmitsEvents(t *testing.T) {
	runsRoot := t.TempDir()
	logsRoot := filepath.Join(runsRoot, "..", "logs")

	h, err := runmanager.Create(runsRoot, evidence.Target{Name: "demo", Path: runsRoot}, time.Now().UTC())
	require.NoError(t, err)

	factories := []orchestrator.Factory{
		func() collectors.Collector { return &fakeCollector{name: "a", available: true} },
		func() collectors.Collector { return &fakeCollector{name: "b", available: false} },
	}
	o := orchestrator.New(factories, logsRoot, nil)
	results, err := o.Run(context.Background(), h, runsRoot)
	require.NoError(t, err)
	require.Len(t, results, 2)

	m := h.Manifest()
	assert.Equal(t, 1, m.Counts.Findings) // only collector "a" was available

	events := readEventLines(t, filepath.Join(logsRoot, h.RunID()+".jsonl"))
	var starts, finishes int
	for _, e := range events {
		if e["type"] == "collector.start" {
			starts++
		}
		if e["type"] == "collector.finish" {
			finishes++
		}
	}
	assert.Equal(t, 2, starts)
	assert.Equal(t, 2, finishes)
}

func readEventLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		out = append(out, m)
	}
	return out
}
