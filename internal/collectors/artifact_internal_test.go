package collectors

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/runmanager"
)

func newTestHandle(t *testing.T) *runmanager.RunHandle {
	t.Helper()
	root := t.TempDir()
	now := time.Date(2026, 8, 1, 10, 15, 0, 0, time.UTC)
	h, err := runmanager.Create(root, evidence.Target{Name: "demo", Path: root}, now)
	require.NoError(t, err)
	return h
}

func TestWriteArtifact_JSONEmittingCollectorUsesJSONExtension(t *testing.T) {
	h := newTestHandle(t)
	c := &SecurityCollector{}
	require.NoError(t, writeArtifact(h, c, InvocationResult{Stdout: []byte(`{"results":[]}`)}))

	_, err := os.Stat(filepath.Join(h.ArtifactsDir(), "security_scan.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(h.ArtifactsDir(), "security_scan.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteArtifact_PlainCollectorUsesLogExtension(t *testing.T) {
	h := newTestHandle(t)
	c := &StyleLintCollector{}
	require.NoError(t, writeArtifact(h, c, InvocationResult{Stdout: []byte("src/a.py:1:1: E501\n")}))

	_, err := os.Stat(filepath.Join(h.ArtifactsDir(), "style_lint.log"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(h.ArtifactsDir(), "style_lint.json"))
	assert.True(t, os.IsNotExist(err))
}
