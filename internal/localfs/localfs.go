// Package localfs is the local side of transfers: directory listings for the
// browse shell and the pre-order tree scan behind recursive upload. The
// dot-prefix hidden policy lives here so both agree on what gets skipped.
package localfs

import "strings"

// IsHiddenName reports whether a bare file name is hidden under the
// dot-prefix convention. The "." and ".." entries are never hidden.
func IsHiddenName(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}

// ListOptions controls ListDirectory.
type ListOptions struct {
	// IncludeHidden keeps dot-prefixed entries in the listing.
	IncludeHidden bool
}

// WalkOptions controls ScanTree's traversal.
type WalkOptions struct {
	// IncludeHidden keeps dot-prefixed entries in the walk.
	IncludeHidden bool

	// SkipHiddenDirs prunes hidden directories without descending into
	// them. Meaningful only when IncludeHidden is false.
	SkipHiddenDirs bool
}
