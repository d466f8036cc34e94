// Package state provides the observable containers the interactive layer
// renders from: where the user is in the remote tree (Navigation) and what
// the current folder holds (FileList). Worker goroutines mutate them
// through their methods; each mutation publishes an event after the lock
// is released, so observers apply changes on their own goroutine and never
// run inside a worker.
package state

import (
	"time"

	"github.com/driveman/driveman/internal/events"
	"github.com/driveman/driveman/internal/models"
)

// State event types
const (
	EventNavigationChanged events.EventType = "navigation_changed"
	EventFileListChanged   events.EventType = "file_list_changed"
	EventFileListLoading   events.EventType = "file_list_loading"
	EventFileListError     events.EventType = "file_list_error"
)

// Navigation reasons carried by NavigationChangedEvent.
const (
	NavigateInto = "into"
	NavigateBack = "back"
	NavigateHome = "home"
)

// NavigationChangedEvent is published after every navigation transition.
type NavigationChangedEvent struct {
	events.BaseEvent
	FolderID   string
	FolderName string
	Depth      int    // history size after the transition
	Reason     string // NavigateInto, NavigateBack or NavigateHome
}

// FileListChangedEvent is published when a folder listing is replaced.
type FileListChangedEvent struct {
	events.BaseEvent
	FolderID   string
	FolderName string
	Entries    []models.Entry
}

// FileListLoadingEvent is published when a listing load starts or ends.
type FileListLoadingEvent struct {
	events.BaseEvent
	FolderID string
	Loading  bool
}

// FileListErrorEvent is published when a listing load fails.
type FileListErrorEvent struct {
	events.BaseEvent
	FolderID string
	Error    error
}

// NewNavigationChangedEvent creates a NavigationChangedEvent.
func NewNavigationChangedEvent(folderID, folderName string, depth int, reason string) *NavigationChangedEvent {
	return &NavigationChangedEvent{
		BaseEvent: events.BaseEvent{
			EventType: EventNavigationChanged,
			Time:      time.Now(),
		},
		FolderID:   folderID,
		FolderName: folderName,
		Depth:      depth,
		Reason:     reason,
	}
}

// NewFileListChangedEvent creates a FileListChangedEvent.
func NewFileListChangedEvent(folderID, folderName string, entries []models.Entry) *FileListChangedEvent {
	return &FileListChangedEvent{
		BaseEvent: events.BaseEvent{
			EventType: EventFileListChanged,
			Time:      time.Now(),
		},
		FolderID:   folderID,
		FolderName: folderName,
		Entries:    entries,
	}
}

// NewFileListLoadingEvent creates a FileListLoadingEvent.
func NewFileListLoadingEvent(folderID string, loading bool) *FileListLoadingEvent {
	return &FileListLoadingEvent{
		BaseEvent: events.BaseEvent{
			EventType: EventFileListLoading,
			Time:      time.Now(),
		},
		FolderID: folderID,
		Loading:  loading,
	}
}

// NewFileListErrorEvent creates a FileListErrorEvent.
func NewFileListErrorEvent(folderID string, err error) *FileListErrorEvent {
	return &FileListErrorEvent{
		BaseEvent: events.BaseEvent{
			EventType: EventFileListError,
			Time:      time.Now(),
		},
		FolderID: folderID,
		Error:    err,
	}
}
