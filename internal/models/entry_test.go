package models

import (
	"errors"
	"testing"
	"time"

	"github.com/driveman/driveman/internal/constants"
)

func TestNewEntry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{
			name:    "valid file",
			entry:   Entry{ID: "f1", Title: "report.pdf", MimeType: "application/pdf", Size: 1024},
			wantErr: false,
		},
		{
			name:    "missing id",
			entry:   Entry{Title: "report.pdf"},
			wantErr: true,
		},
		{
			name:    "whitespace id",
			entry:   Entry{ID: "   ", Title: "report.pdf"},
			wantErr: true,
		},
		{
			name:    "missing title",
			entry:   Entry{ID: "f1"},
			wantErr: true,
		},
		{
			name:    "whitespace title",
			entry:   Entry{ID: "f1", Title: "\t "},
			wantErr: true,
		},
		{
			name:    "negative size",
			entry:   Entry{ID: "f1", Title: "report.pdf", Size: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntry(tt.entry)
			if tt.wantErr && err == nil {
				t.Errorf("NewEntry(%+v) = nil error, want error", tt.entry)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("NewEntry(%+v) unexpected error: %v", tt.entry, err)
			}
			if tt.wantErr && err != nil && !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("error %v is not ErrInvalidEntry", err)
			}
		})
	}
}

func TestNewEntry_DefaultsParentToRoot(t *testing.T) {
	e, err := NewEntry(Entry{ID: "f1", Title: "report.pdf"})
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	if e.ParentID != constants.RootFolderID {
		t.Errorf("ParentID = %q, want %q", e.ParentID, constants.RootFolderID)
	}

	e, err = NewEntry(Entry{ID: "f2", Title: "report.pdf", ParentID: "folder123"})
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	if e.ParentID != "folder123" {
		t.Errorf("explicit ParentID = %q, want folder123", e.ParentID)
	}
}

func TestNewEntry_FolderSizeForcedToZero(t *testing.T) {
	e, err := NewEntry(Entry{
		ID:       "d1",
		Title:    "Documents",
		MimeType: constants.FolderMimeType,
		Size:     4096,
	})
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	if e.Size != 0 {
		t.Errorf("folder Size = %d, want 0", e.Size)
	}
}

func TestEntry_IsFolder(t *testing.T) {
	folder := Entry{MimeType: constants.FolderMimeType}
	if !folder.IsFolder() {
		t.Error("folder MIME type not recognized as folder")
	}

	for _, mt := range []string{"", "application/pdf", "image/png", "application/vnd.google-apps.document"} {
		if (Entry{MimeType: mt}).IsFolder() {
			t.Errorf("MimeType %q wrongly classified as folder", mt)
		}
	}
}

func TestEntryFromRemote_ValidRow(t *testing.T) {
	e, err := EntryFromRemote(RemoteFile{
		ID:           "abc123",
		Title:        "notes.txt",
		MimeType:     "text/plain",
		Size:         2048,
		ModifiedDate: "2024-01-15T10:30:00.000Z",
		Parents:      []ParentRef{{ID: "parent1"}},
	})
	if err != nil {
		t.Fatalf("EntryFromRemote failed: %v", err)
	}
	if e.ID != "abc123" || e.Title != "notes.txt" || e.Size != 2048 {
		t.Errorf("unexpected mapping: %+v", e)
	}
	if e.ParentID != "parent1" {
		t.Errorf("ParentID = %q, want parent1", e.ParentID)
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !e.ModTime.Equal(want) {
		t.Errorf("ModTime = %v, want %v", e.ModTime, want)
	}
}

func TestEntryFromRemote_BadModifiedDateDegrades(t *testing.T) {
	e, err := EntryFromRemote(RemoteFile{
		ID:           "abc123",
		Title:        "notes.txt",
		ModifiedDate: "yesterday-ish",
	})
	if err != nil {
		t.Fatalf("bad timestamp should not fail the row: %v", err)
	}
	if !e.ModTime.IsZero() {
		t.Errorf("ModTime = %v, want zero", e.ModTime)
	}
}

func TestEntryFromRemote_InvalidRow(t *testing.T) {
	_, err := EntryFromRemote(RemoteFile{Title: "orphan.txt"})
	if !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("expected ErrInvalidEntry for row without id, got %v", err)
	}
}

func TestSortEntries_FoldersFirstThenTitle(t *testing.T) {
	entries := []Entry{
		{ID: "1", Title: "zebra.txt"},
		{ID: "2", Title: "Beta", MimeType: constants.FolderMimeType},
		{ID: "3", Title: "apple.txt"},
		{ID: "4", Title: "alpha", MimeType: constants.FolderMimeType},
		{ID: "5", Title: "Apple.TXT"},
	}

	SortEntries(entries)

	wantOrder := []string{"4", "2", "3", "5", "1"}
	for i, want := range wantOrder {
		if entries[i].ID != want {
			t.Fatalf("position %d: got id %s, want %s (order: %v)", i, entries[i].ID, want, entryIDs(entries))
		}
	}
}

func TestSortEntries_StableForEqualTitles(t *testing.T) {
	entries := []Entry{
		{ID: "first", Title: "same.txt"},
		{ID: "second", Title: "SAME.txt"},
	}

	SortEntries(entries)

	if entries[0].ID != "first" || entries[1].ID != "second" {
		t.Errorf("equal titles reordered: %v", entryIDs(entries))
	}
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
