package downloads

import (
	"os"
	"path/filepath"

	"telefetch/internal/utils/logging"
)

// PurgePartials removes every file in dir whose name starts with the
// task's stem, sparing keep (the delivered artifact) when non-empty.
// Temp and partial files from the external tool (.part, .ytdl,
// per-stream .fNNN segments) all share the stem prefix.
func PurgePartials(dir, stem, keep string) {
	if dir == "" || stem == "" {
		return
	}

	matches, err := filepath.Glob(filepath.Join(dir, stem+"*"))
	if err != nil {
		logging.E("Bad cleanup glob for stem %q: %v", stem, err)
		return
	}

	for _, m := range matches {
		if keep != "" && m == keep {
			continue
		}
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			logging.W("Could not remove partial file %q: %v", m, err)
			continue
		}
		logging.D(2, "Removed partial file %q", m)
	}
}
