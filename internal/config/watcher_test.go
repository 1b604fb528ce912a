package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblacketter/qaagent-sub000/internal/config"
)

func TestRiskConfigWatcher_MissingPathReturnsDefaults(t *testing.T) {
	w, err := config.NewRiskConfigWatcher("", nil)
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, config.DefaultRiskConfig(), w.Current())
}

func TestRiskConfigWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring:\n  caps:\n    max_total: 50\n"), 0o644))

	w, err := config.NewRiskConfigWatcher(path, nil)
	require.NoError(t, err)
	defer w.Close()
	require.Equal(t, 50.0, w.Current().MaxTotal)

	require.NoError(t, os.WriteFile(path, []byte("scoring:\n  caps:\n    max_total: 75\n"), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.Current().MaxTotal == 75 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, 75.0, w.Current().MaxTotal)
}
