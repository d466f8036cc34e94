package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/driveman/driveman/internal/constants"
)

// ErrInvalidEntry indicates a listing row that cannot be represented as an Entry.
// Callers mapping raw listing rows should skip these rather than abort the listing.
var ErrInvalidEntry = errors.New("invalid entry")

// Entry is an immutable snapshot of one remote file or folder at listing time.
// It is passed by value; refreshing a listing produces new Entry values rather
// than mutating old ones.
type Entry struct {
	// ID is the backend identifier, unique across the whole drive.
	ID string

	// Title is the display name. Not guaranteed unique within a folder.
	Title string

	// MimeType determines the entry kind. Folders carry
	// constants.FolderMimeType; everything else is a regular file.
	MimeType string

	// Size is the file size in bytes. Always 0 for folders.
	Size int64

	// ModTime is the last modification time reported by the backend.
	// Zero when the backend omitted or mangled the timestamp.
	ModTime time.Time

	// ParentID is the containing folder, constants.RootFolderID for
	// top-level entries.
	ParentID string
}

// NewEntry validates and normalizes an Entry. ID and Title must be non-empty,
// ParentID defaults to the root folder, and folder sizes are forced to 0.
func NewEntry(e Entry) (Entry, error) {
	if strings.TrimSpace(e.ID) == "" {
		return Entry{}, fmt.Errorf("%w: missing id", ErrInvalidEntry)
	}
	if strings.TrimSpace(e.Title) == "" {
		return Entry{}, fmt.Errorf("%w: missing title (id=%s)", ErrInvalidEntry, e.ID)
	}
	if e.ParentID == "" {
		e.ParentID = constants.RootFolderID
	}
	if e.Size < 0 {
		return Entry{}, fmt.Errorf("%w: negative size %d (id=%s)", ErrInvalidEntry, e.Size, e.ID)
	}
	if e.IsFolder() {
		e.Size = 0
	}
	return e, nil
}

// IsFolder reports whether the entry is a folder.
func (e Entry) IsFolder() bool {
	return e.MimeType == constants.FolderMimeType
}

// EntryFromRemote maps a raw listing row to a validated Entry.
// Rows with a missing id or title yield ErrInvalidEntry; an unparseable
// modification date degrades to a zero ModTime instead of failing the row.
func EntryFromRemote(rf RemoteFile) (Entry, error) {
	e := Entry{
		ID:       rf.ID,
		Title:    rf.Title,
		MimeType: rf.MimeType,
		Size:     rf.Size,
	}
	if len(rf.Parents) > 0 {
		e.ParentID = rf.Parents[0].ID
	}
	if rf.ModifiedDate != "" {
		if t, err := time.Parse(time.RFC3339, rf.ModifiedDate); err == nil {
			e.ModTime = t
		}
	}
	return NewEntry(e)
}

// SortEntries orders a listing for display: folders before files, then
// case-insensitive by title.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		// Folders always come first
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}

		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}
