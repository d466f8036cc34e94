// Package sanitize normalizes remote titles for use as local file names.
//
// Remote titles are free-form: they may contain separators, characters the
// local filesystem rejects (Windows has the strictest set), control bytes,
// or more bytes than a filesystem accepts in one name. Sanitization runs on
// every download; uploads never touch the name, so the remote title is
// preserved as-is in the cloud.
package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/driveman/driveman/internal/constants"
)

// unsafeChars matches characters rejected by at least one supported
// filesystem: the Windows reserved set plus ASCII control characters.
var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeFileName rewrites name so it is safe to create on the local
// filesystem. Unsafe characters become underscores, leading/trailing dots
// and spaces are stripped, and over-long names are truncated with the
// extension preserved. A name that sanitizes to nothing becomes "unnamed".
func SanitizeFileName(name string) string {
	sanitized := unsafeChars.ReplaceAllString(name, "_")
	sanitized = strings.Trim(sanitized, ". ")
	if sanitized == "" {
		return "unnamed"
	}
	return truncateFileName(sanitized, constants.MaxFilenameLength)
}

// truncateFileName caps name at maxLen bytes, keeping the extension.
// Filesystem name limits are byte counts, not rune counts.
func truncateFileName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}

	ext := filepath.Ext(name)
	if len(ext) >= maxLen {
		// Pathological extension longer than the whole budget
		ext = ""
	}

	cut := maxLen - len(ext)
	// Back up to a rune boundary so truncation never splits a character
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut] + ext
}
