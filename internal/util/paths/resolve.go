package paths

import (
	"os"
	"path/filepath"
)

// ResolveAbsolute converts a user-supplied path to an absolute one, expanding
// a leading ~ and resolving symlinks and junctions in the existing portion
// before appending any components that do not exist yet. Download targets
// like ~/Downloads/reports work even when the user folder is a junction and
// the subdirectory has not been created.
//
// An empty path resolves to the working directory.
func ResolveAbsolute(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = home + path[1:]
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	// Fast path: the whole path exists.
	if canon, err := filepath.EvalSymlinks(abs); err == nil {
		return canon, nil
	}

	// Otherwise find the deepest existing ancestor, canonicalize that, and
	// put the missing components back on top.
	probe := abs
	var missing []string

	for {
		if _, err := os.Stat(probe); err == nil {
			canon, err := filepath.EvalSymlinks(probe)
			if err != nil {
				canon = probe
			}
			return filepath.Join(append([]string{canon}, missing...)...), nil
		}

		parent := filepath.Dir(probe)
		if parent == probe {
			// Hit the filesystem root without finding anything on disk.
			return abs, nil
		}
		missing = append([]string{filepath.Base(probe)}, missing...)
		probe = parent
	}
}
