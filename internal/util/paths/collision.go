// Package paths provides utilities for local file path handling in downloads.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NextAvailablePath returns path if nothing exists there, otherwise the first
// free variant with a counter inserted before the extension:
//
//	report.pdf -> report (1).pdf -> report (2).pdf
//
// Downloads run one item at a time, so probing the disk immediately before
// each transfer also catches collisions between items of the same batch.
func NextAvailablePath(path string) string {
	if !pathExists(path) {
		return path
	}

	ext := filepath.Ext(path)
	if ext == filepath.Base(path) {
		// Dotfiles like ".bashrc" have no extension to preserve
		ext = ""
	}
	base := strings.TrimSuffix(path, ext)

	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if !pathExists(candidate) {
			return candidate
		}
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
