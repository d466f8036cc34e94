package state

import (
	"sync"

	"github.com/driveman/driveman/internal/events"
	"github.com/driveman/driveman/internal/models"
)

// FileList is the observable listing of one remote folder. Whoever loads
// a listing stores it here; whoever renders subscribes to the change
// events. Entries are kept sorted folders-first the way they display.
// Thread-safe for concurrent access.
type FileList struct {
	mu         sync.RWMutex
	entries    []models.Entry
	folderID   string
	folderName string
	loading    bool
	lastError  error
	bus        *events.EventBus
}

// NewFileList creates an empty file list.
func NewFileList(bus *events.EventBus) *FileList {
	return &FileList{bus: bus}
}

// Entries returns a copy of the current entries.
func (l *FileList) Entries() []models.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// SetEntries replaces the listing with a freshly loaded one, sorts it for
// display and publishes the change. Clears any previous error and the
// loading flag.
func (l *FileList) SetEntries(folderID, folderName string, entries []models.Entry) {
	sorted := make([]models.Entry, len(entries))
	copy(sorted, entries)
	models.SortEntries(sorted)

	l.mu.Lock()
	l.entries = sorted
	l.folderID = folderID
	l.folderName = folderName
	l.loading = false
	l.lastError = nil
	published := make([]models.Entry, len(sorted))
	copy(published, sorted)
	l.mu.Unlock()

	if l.bus != nil {
		l.bus.Publish(NewFileListChangedEvent(folderID, folderName, published))
	}
}

// SetLoading flips the loading flag and publishes it.
func (l *FileList) SetLoading(loading bool) {
	l.mu.Lock()
	l.loading = loading
	folderID := l.folderID
	l.mu.Unlock()

	if l.bus != nil {
		l.bus.Publish(NewFileListLoadingEvent(folderID, loading))
	}
}

// IsLoading reports whether a listing load is in flight.
func (l *FileList) IsLoading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

// SetError records a failed listing load and publishes it.
func (l *FileList) SetError(err error) {
	l.mu.Lock()
	l.lastError = err
	l.loading = false
	folderID := l.folderID
	l.mu.Unlock()

	if l.bus != nil && err != nil {
		l.bus.Publish(NewFileListErrorEvent(folderID, err))
	}
}

// Err returns the last listing error, nil after a successful load.
func (l *FileList) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastError
}

// Folder returns the listed folder's ID and display name.
func (l *FileList) Folder() (id, name string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.folderID, l.folderName
}

// FindByID looks an entry up by its remote ID.
func (l *FileList) FindByID(id string) (models.Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.Entry{}, false
}

// FindByTitle looks an entry up by display name. First match wins; the
// remote allows duplicate titles.
func (l *FileList) FindByTitle(title string) (models.Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.Title == title {
			return e, true
		}
	}
	return models.Entry{}, false
}

// Count returns the number of entries.
func (l *FileList) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops all entries, keeping the folder association.
func (l *FileList) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.lastError = nil
	folderID := l.folderID
	folderName := l.folderName
	l.mu.Unlock()

	if l.bus != nil {
		l.bus.Publish(NewFileListChangedEvent(folderID, folderName, nil))
	}
}
