// Package validation guards the filesystem boundary: names that arrive from
// the remote API are untrusted and must not steer writes outside the
// directory the user chose.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilename rejects a bare filename that could change meaning inside
// filepath.Join: empty names, embedded separators, null bytes, and the
// literal "..". Entry titles come back from listings and metadata calls, so
// every download target runs through this before it touches a path.
//
// Interior dots are fine; "results..v2.csv" is a normal name. Only the exact
// ".." component traverses, and with separators already rejected it can only
// appear as the whole name.
func ValidateFilename(filename string) error {
	switch {
	case filename == "":
		return fmt.Errorf("empty filename")
	case strings.ContainsRune(filename, 0):
		return fmt.Errorf("filename %q contains a null byte", filename)
	case strings.ContainsAny(filename, `/\`):
		return fmt.Errorf("filename %q contains a path separator", filename)
	case filename == "..":
		return fmt.Errorf("filename %q is a traversal component", filename)
	}
	return nil
}

// ValidatePathInDirectory reports whether path, resolved against baseDir,
// stays inside baseDir. Relative paths resolve under the base; absolute
// paths are compared as-is. The check is lexical (Clean + Rel), it does not
// follow symlinks.
func ValidatePathInDirectory(path string, baseDir string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if baseDir == "" {
		return fmt.Errorf("empty base directory")
	}

	base := filepath.Clean(baseDir)
	if !filepath.IsAbs(base) {
		abs, err := filepath.Abs(base)
		if err != nil {
			return fmt.Errorf("resolve base directory %q: %w", baseDir, err)
		}
		base = abs
	}

	target := filepath.Clean(path)
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}

	rel, err := filepath.Rel(base, target)
	if err != nil {
		return fmt.Errorf("relate %q to %q: %w", path, baseDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes %q", path, baseDir)
	}
	return nil
}
