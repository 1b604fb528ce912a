package store_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/runmanager"
	"github.com/jblacketter/qaagent-sub000/internal/store"
)

func newHandle(t *testing.T) *runmanager.RunHandle {
	t.Helper()
	root := t.TempDir()
	h, err := runmanager.Create(root, evidence.Target{Name: "demo", Path: root}, time.Now().UTC())
	require.NoError(t, err)
	return h
}

func TestWriter_WriteFindings_UpdatesCountsAndFile(t *testing.T) {
	h := newHandle(t)
	w := store.NewWriter(h)

	f1, err := evidence.NewFindingRecord("FND-20260801-0001", "ruff", evidence.SeverityWarning, "unused import")
	require.NoError(t, err)
	f2, err := evidence.NewFindingRecord("FND-20260801-0002", "ruff", evidence.SeverityHigh, "bare except")
	require.NoError(t, err)

	n, err := w.WriteFindings([]*evidence.FindingRecord{f1, f2})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m := h.Manifest()
	assert.Equal(t, 2, m.Counts.Findings)
	assert.Equal(t, "evidence/quality.jsonl", m.EvidenceFiles["quality"])

	data, err := os.ReadFile(filepath.Join(h.Dir(), "evidence", "quality.jsonl"))
	require.NoError(t, err)
	assert.Len(t, bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n")), 2)
}

func TestWriter_EmptyInputIsNoop(t *testing.T) {
	h := newHandle(t)
	w := store.NewWriter(h)

	n, err := w.WriteRisks(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, h.Manifest().EvidenceFiles)
}

func TestReader_MissingFilesYieldEmpty(t *testing.T) {
	h := newHandle(t)
	r := store.NewReader(h, nil)

	findings, err := r.Findings()
	require.NoError(t, err)
	assert.Empty(t, findings)

	risks, err := r.Risks()
	require.NoError(t, err)
	assert.Empty(t, risks)
}

func TestReader_SkipsMalformedLines(t *testing.T) {
	h := newHandle(t)
	w := store.NewWriter(h)

	f1, err := evidence.NewFindingRecord("FND-20260801-0001", "ruff", evidence.SeverityWarning, "ok")
	require.NoError(t, err)
	_, err = w.WriteFindings([]*evidence.FindingRecord{f1})
	require.NoError(t, err)

	// append a malformed line directly
	path := filepath.Join(h.Dir(), "evidence", "quality.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not valid json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r := store.NewReader(h, nil)
	findings, err := r.Findings()
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "FND-20260801-0001", findings[0].EvidenceID)
}

func TestReader_RoundTrip(t *testing.T) {
	h := newHandle(t)
	w := store.NewWriter(h)

	cov, err := evidence.NewCoverageRecord("COV-20260801-0001", evidence.CoverageLine, "src/a.py", 0.75)
	require.NoError(t, err)
	_, err = w.WriteCoverage([]*evidence.CoverageRecord{cov})
	require.NoError(t, err)

	r := store.NewReader(h, nil)
	got, err := r.Coverage()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "src/a.py", got[0].Component)
	assert.InDelta(t, 0.75, got[0].Value, 1e-9)
}
