package collectors

import (
	"os"
	"path/filepath"

	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
	"github.com/jblacketter/qaagent-sub000/internal/runmanager"
)

func writeArtifactFile(handle *runmanager.RunHandle, tool string, data []byte) error {
	path := filepath.Join(handle.ArtifactsDir(), tool+".log")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return qaerr.Wrap(qaerr.KindIO, "write collector artifact", err)
	}
	return nil
}

// writeJSONArtifact writes raw structured tool output under its own
// extension (".json") instead of sharing the plain-text ".log" name, for
// tools whose native output format is already JSON.
func writeJSONArtifact(handle *runmanager.RunHandle, tool string, data []byte) error {
	path := filepath.Join(handle.ArtifactsDir(), tool+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return qaerr.Wrap(qaerr.KindIO, "write collector json artifact", err)
	}
	return nil
}
