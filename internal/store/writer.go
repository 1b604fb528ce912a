// Package store provides the append-only JSONL writer and tolerant
// reader over a run's evidence files, coupling each write to the run's
// manifest counters through runmanager.RunHandle.
package store

import (
	"encoding/json"
	"path/filepath"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/metrics"
	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
	"github.com/jblacketter/qaagent-sub000/internal/runmanager"
)

// Writer appends typed evidence records to a run's JSONL files.
type Writer struct {
	handle *runmanager.RunHandle
}

// NewWriter returns a Writer bound to handle.
func NewWriter(handle *runmanager.RunHandle) *Writer {
	return &Writer{handle: handle}
}

func (w *Writer) write(rt evidence.RecordType, records []any) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	lines := make([][]byte, 0, len(records))
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return 0, qaerr.Wrap(qaerr.KindIO, "marshal evidence record", err)
		}
		lines = append(lines, b)
	}
	relPath := filepath.ToSlash(filepath.Join("evidence", rt.FileName()))
	if err := w.handle.AppendEvidence(rt, relPath, lines); err != nil {
		return 0, err
	}
	metrics.EvidenceRecordsTotal.WithLabelValues(string(rt)).Add(float64(len(records)))
	return len(records), nil
}

// WriteFindings appends FindingRecords to quality.jsonl.
func (w *Writer) WriteFindings(records []*evidence.FindingRecord) (int, error) {
	boxed := make([]any, len(records))
	for i, r := range records {
		boxed[i] = r
	}
	return w.write(evidence.RecordQuality, boxed)
}

// WriteCoverage appends CoverageRecords to coverage.jsonl.
func (w *Writer) WriteCoverage(records []*evidence.CoverageRecord) (int, error) {
	boxed := make([]any, len(records))
	for i, r := range records {
		boxed[i] = r
	}
	return w.write(evidence.RecordCoverage, boxed)
}

// WriteChurn appends ChurnRecords to churn.jsonl.
func (w *Writer) WriteChurn(records []*evidence.ChurnRecord) (int, error) {
	boxed := make([]any, len(records))
	for i, r := range records {
		boxed[i] = r
	}
	return w.write(evidence.RecordChurn, boxed)
}

// WriteRisks appends RiskRecords to risks.jsonl.
func (w *Writer) WriteRisks(records []*evidence.RiskRecord) (int, error) {
	boxed := make([]any, len(records))
	for i, r := range records {
		boxed[i] = r
	}
	return w.write(evidence.RecordRisks, boxed)
}

// WriteRecommendations appends RecommendationRecords to recommendations.jsonl.
func (w *Writer) WriteRecommendations(records []*evidence.RecommendationRecord) (int, error) {
	boxed := make([]any, len(records))
	for i, r := range records {
		boxed[i] = r
	}
	return w.write(evidence.RecordRecommendations, boxed)
}
