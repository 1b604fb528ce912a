// Package orchestrator runs every configured collector against a run,
// serializing evidence writes while letting the collectors themselves
// execute concurrently, and emits a structured event log of each
// collector's lifecycle.
package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jblacketter/qaagent-sub000/internal/collectors"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
	"github.com/jblacketter/qaagent-sub000/internal/runmanager"
	"github.com/jblacketter/qaagent-sub000/internal/store"
)

// Factory constructs one collector instance per orchestrator run, so
// stateful collectors (e.g. a configurable churn window) get a fresh
// value each time rather than being shared across runs.
type Factory func() collectors.Collector

// Event is one line appended to <logs_root>/<run_id>.jsonl.
type Event struct {
	Type        string    `json:"type"`
	Tool        string    `json:"tool"`
	Timestamp   time.Time `json:"timestamp"`
	Executed    *bool     `json:"executed,omitempty"`
	Findings    *int      `json:"findings,omitempty"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
	Errors      []string  `json:"errors,omitempty"`
}

// Orchestrator runs a fixed, ordered list of collector factories against
// one run, logging via the shared application logger.
type Orchestrator struct {
	factories []Factory
	logsRoot  string
	log       *zap.Logger
	eventMu   sync.Mutex
}

// New returns an Orchestrator that appends its event log to
// <logsRoot>/<run_id>.jsonl.
func New(factories []Factory, logsRoot string, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{factories: factories, logsRoot: logsRoot, log: log}
}

// DefaultFactories returns the factory list for the six standard
// collectors, in the order §4.4 lists them.
func DefaultFactories() []Factory {
	return []Factory{
		func() collectors.Collector { return &collectors.StyleLintCollector{} },
		func() collectors.Collector { return &collectors.QualityLintCollector{} },
		func() collectors.Collector { return &collectors.SecurityCollector{} },
		func() collectors.Collector { return &collectors.DependencyAuditCollector{} },
		func() collectors.Collector { return &collectors.CoverageCollector{} },
		func() collectors.Collector { return &collectors.ChurnCollector{} },
	}
}

// Run invokes every collector concurrently against handle, serializing
// evidence writes inside each collector's own Run call (guarded by the
// RunHandle's single mutex), and returns once every collector finishes.
func (o *Orchestrator) Run(ctx context.Context, handle *runmanager.RunHandle, targetPath string) ([]collectors.CollectorResult, error) {
	ids, err := idgen.New(handle.RunID())
	if err != nil {
		return nil, err
	}
	w := store.NewWriter(handle)

	eventLog, err := o.openEventLog(handle.RunID())
	if err != nil {
		return nil, err
	}
	defer eventLog.Close()

	var (
		mu      sync.Mutex
		results []collectors.CollectorResult
		wg      sync.WaitGroup
	)

	for _, factory := range o.factories {
		c := factory()
		wg.Add(1)
		go func(c collectors.Collector) {
			defer wg.Done()
			o.emit(eventLog, Event{Type: "collector.start", Tool: c.Name(), Timestamp: time.Now().UTC()})

			res := collectors.Run(ctx, c, handle, w, ids, targetPath)

			executed := res.Executed
			findings := res.Findings
			o.emit(eventLog, Event{
				Type:        "collector.finish",
				Tool:        c.Name(),
				Timestamp:   time.Now().UTC(),
				Executed:    &executed,
				Findings:    &findings,
				Diagnostics: res.Diagnostics,
				Errors:      res.Errors,
			})

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	return results, nil
}

func (o *Orchestrator) openEventLog(runID string) (*os.File, error) {
	if err := os.MkdirAll(o.logsRoot, 0o755); err != nil {
		return nil, qaerr.Wrap(qaerr.KindIO, "create logs directory", err)
	}
	path := filepath.Join(o.logsRoot, runID+".jsonl")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, qaerr.Wrap(qaerr.KindIO, "open event log", err)
	}
	return f, nil
}

func (o *Orchestrator) emit(f *os.File, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		o.log.Warn("failed to marshal orchestrator event", zap.Error(err))
		return
	}
	o.eventMu.Lock()
	defer o.eventMu.Unlock()
	if _, err := f.Write(append(b, '\n')); err != nil {
		o.log.Warn("failed to write orchestrator event", zap.Error(err))
	}
}
