// Package filter provides reusable listing filter logic, shared by the ls
// command and anything else that narrows an entry list by name.
package filter

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/driveman/driveman/internal/models"
)

// Config narrows a listing by title.
type Config struct {
	// Include keeps only titles matching at least one glob. Empty keeps
	// everything.
	Include []string

	// Exclude drops titles matching any glob, before Include is consulted.
	Exclude []string

	// Search keeps titles containing every term, case-insensitively.
	Search []string
}

// Empty reports whether the config filters nothing.
func (c Config) Empty() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0 && len(c.Search) == 0
}

// ApplyToEntries filters a listing by entry title. Folders and files are
// treated alike; a folder not matching an include pattern is dropped the
// same way a file is.
func ApplyToEntries(entries []models.Entry, config Config) []models.Entry {
	if config.Empty() {
		return entries
	}

	kept := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if matches(e.Title, config) {
			kept = append(kept, e)
		}
	}
	return kept
}

func matches(name string, config Config) bool {
	globbed := func(pattern string) bool {
		ok, _ := filepath.Match(pattern, name)
		return ok
	}

	if slices.ContainsFunc(config.Exclude, globbed) {
		return false
	}
	if len(config.Include) > 0 && !slices.ContainsFunc(config.Include, globbed) {
		return false
	}

	lowered := strings.ToLower(name)
	for _, term := range config.Search {
		if !strings.Contains(lowered, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// ParsePatternList splits a comma-separated flag value into patterns,
// dropping empty segments: "*.pdf, *.txt" becomes ["*.pdf" "*.txt"].
func ParsePatternList(patternStr string) []string {
	if patternStr == "" {
		return nil
	}

	var patterns []string
	for _, part := range strings.Split(patternStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}
