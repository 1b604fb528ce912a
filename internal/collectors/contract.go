// Package collectors implements the six evidence-producing tool
// integrations: two lint passes, a security scanner, a dependency
// auditor, a coverage ingester, and a VCS churn aggregator. Each shares
// one Collector contract (Probe/Invoke/Parse) composed by a single Run
// helper, rather than an inheritance hierarchy.
package collectors

import (
	"context"
	"strconv"
	"time"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
	"github.com/jblacketter/qaagent-sub000/internal/metrics"
	"github.com/jblacketter/qaagent-sub000/internal/redact"
	"github.com/jblacketter/qaagent-sub000/internal/runmanager"
	"github.com/jblacketter/qaagent-sub000/internal/store"
)

// InvocationResult is the raw output of running a collector's external
// tool (or, for collectors with no subprocess, the ingested artifact).
type InvocationResult struct {
	Executed bool
	Version  string
	ExitCode *int
	Stdout   []byte
	Stderr   []byte
	Err      error
}

// ParsedEvidence is the normalized output of Parse, boxed by category so
// the shared Run helper can dispatch to the right writer method without
// a type switch per collector.
type ParsedEvidence struct {
	Findings        []*evidence.FindingRecord
	Coverage        []*evidence.CoverageRecord
	Churn           []*evidence.ChurnRecord
	Diagnostics     []string
	Errors          []string
}

// Collector is the shared capability every tool integration implements.
type Collector interface {
	// Name is the tool_name recorded on the manifest and in CollectorResult.
	Name() string
	// Probe reports whether the backing tool is available, and its
	// version if discoverable, within a short timeout.
	Probe(ctx context.Context, targetPath string) (available bool, version string, err error)
	// Invoke runs the tool (or ingests an artifact) against targetPath.
	Invoke(ctx context.Context, targetPath string, timeout time.Duration) InvocationResult
	// Parse normalizes the invocation's raw output into evidence records.
	Parse(ctx context.Context, targetPath string, result InvocationResult, ids *idgen.Generator) (ParsedEvidence, error)
}

// jsonArtifactCollector is implemented by collectors whose tool already
// emits structured JSON, so their captured output is archived as
// "<tool>.json" rather than the plain-text "<tool>.log" every other
// collector gets.
type jsonArtifactCollector interface {
	UsesJSONArtifact() bool
}

// CollectorResult summarizes one collector's run for the orchestrator's event log.
type CollectorResult struct {
	ToolName string
	Version  string
	Executed bool
	ExitCode *int
	// Findings is the total evidence record count this collector wrote,
	// across whichever category (findings, coverage, or churn) it produces.
	Findings    int
	Diagnostics []string
	Errors      []string
	StartedAt   time.Time
	FinishedAt  time.Time
}

const defaultTimeout = 120 * time.Second
const probeTimeout = 5 * time.Second

// Run executes the shared probe → invoke → write-artifact → parse →
// write-evidence → set-tool-status sequence common to every collector.
// Any failure local to this collector is captured in the returned
// CollectorResult rather than propagated, per the failure policy: a
// missing binary or a non-fatal tool error degrades confidence downstream
// but never aborts the run.
func Run(ctx context.Context, c Collector, handle *runmanager.RunHandle, w *store.Writer, ids *idgen.Generator, targetPath string) CollectorResult {
	started := time.Now().UTC()
	res := CollectorResult{ToolName: c.Name(), StartedAt: started}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	available, version, err := c.Probe(probeCtx, targetPath)
	cancel()
	res.Version = version
	if err != nil || !available {
		res.Executed = false
		diag := "tool not available"
		if err != nil {
			diag = "probe failed: " + err.Error()
		}
		res.Diagnostics = append(res.Diagnostics, diag)
		res.FinishedAt = time.Now().UTC()
		_ = handle.SetTool(c.Name(), evidence.ToolStatus{Version: version, Executed: false, Error: diag})
		return res
	}

	invokeStarted := time.Now()
	invocation := c.Invoke(ctx, targetPath, defaultTimeout)
	metrics.CollectorDuration.WithLabelValues(c.Name()).Observe(time.Since(invokeStarted).Seconds())
	metrics.CollectorRunsTotal.WithLabelValues(c.Name(), strconv.FormatBool(invocation.Executed)).Inc()
	res.Executed = invocation.Executed
	res.ExitCode = invocation.ExitCode

	if err := writeArtifact(handle, c, invocation); err != nil {
		res.Errors = append(res.Errors, "write artifact: "+err.Error())
	}

	status := evidence.ToolStatus{Version: version, Executed: invocation.Executed, ExitCode: invocation.ExitCode}
	if invocation.Err != nil {
		status.Error = invocation.Err.Error()
		res.Errors = append(res.Errors, invocation.Err.Error())
	}

	parsed, err := c.Parse(ctx, targetPath, invocation, ids)
	if err != nil {
		res.Errors = append(res.Errors, "parse: "+err.Error())
		status.Error = err.Error()
	} else {
		res.Diagnostics = append(res.Diagnostics, parsed.Diagnostics...)
		res.Errors = append(res.Errors, parsed.Errors...)

		if n, werr := w.WriteFindings(parsed.Findings); werr != nil {
			res.Errors = append(res.Errors, "write findings: "+werr.Error())
		} else {
			res.Findings += n
		}
		if n, werr := w.WriteCoverage(parsed.Coverage); werr != nil {
			res.Errors = append(res.Errors, "write coverage: "+werr.Error())
		} else {
			res.Findings += n
		}
		if n, werr := w.WriteChurn(parsed.Churn); werr != nil {
			res.Errors = append(res.Errors, "write churn: "+werr.Error())
		} else {
			res.Findings += n
		}
	}

	_ = handle.SetTool(c.Name(), status)
	res.FinishedAt = time.Now().UTC()
	return res
}

func writeArtifact(handle *runmanager.RunHandle, c Collector, inv InvocationResult) error {
	combined := append(append([]byte{}, inv.Stdout...), inv.Stderr...)
	if len(combined) == 0 {
		return nil
	}
	clean, _ := redact.Text(string(combined))
	if je, ok := c.(jsonArtifactCollector); ok && je.UsesJSONArtifact() {
		return writeJSONArtifact(handle, c.Name(), []byte(clean))
	}
	return writeArtifactFile(handle, c.Name(), []byte(clean))
}
