package state

import (
	"sync"

	"github.com/driveman/driveman/internal/constants"
	"github.com/driveman/driveman/internal/events"
)

// Location is one (folderID, display name) pair in the remote tree.
type Location struct {
	FolderID string
	Name     string
}

// Navigation tracks the current remote folder and the trail that led
// there. The history is a strict LIFO stack: forward navigation pushes,
// back pops, home clears. It is empty exactly when the user is at root.
//
// Created once at startup and lives until the process exits.
type Navigation struct {
	mu      sync.RWMutex
	current Location
	history []Location
	bus     *events.EventBus
}

// NewNavigation creates a navigation state positioned at the root folder.
func NewNavigation(bus *events.EventBus) *Navigation {
	return &Navigation{
		current: Location{
			FolderID: constants.RootFolderID,
			Name:     constants.RootFolderName,
		},
		bus: bus,
	}
}

// CurrentID returns the current folder's ID.
func (n *Navigation) CurrentID() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current.FolderID
}

// CurrentName returns the current folder's display name.
func (n *Navigation) CurrentName() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current.Name
}

// Depth returns the history size: how many GoBack calls would reach root.
func (n *Navigation) Depth() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.history)
}

// CanGoBack reports whether there is anywhere to go back to.
func (n *Navigation) CanGoBack() bool {
	return n.Depth() > 0
}

// Trail returns the path from root to here: the history in order, then the
// current location. The slice is a copy.
func (n *Navigation) Trail() []Location {
	n.mu.RLock()
	defer n.mu.RUnlock()
	trail := make([]Location, 0, len(n.history)+1)
	trail = append(trail, n.history...)
	return append(trail, n.current)
}

// NavigateInto descends into a folder: the current location is pushed
// onto the history and the given pair becomes current.
func (n *Navigation) NavigateInto(folderID, name string) {
	n.mu.Lock()
	n.history = append(n.history, n.current)
	n.current = Location{FolderID: folderID, Name: name}
	current, depth := n.current, len(n.history)
	n.mu.Unlock()

	n.publish(current, depth, NavigateInto)
}

// GoBack pops the most recent location off the history and makes it
// current. With an empty history it does nothing and reports false.
func (n *Navigation) GoBack() bool {
	n.mu.Lock()
	if len(n.history) == 0 {
		n.mu.Unlock()
		return false
	}
	n.current = n.history[len(n.history)-1]
	n.history = n.history[:len(n.history)-1]
	current, depth := n.current, len(n.history)
	n.mu.Unlock()

	n.publish(current, depth, NavigateBack)
	return true
}

// GoHome clears the history and returns to the root folder.
func (n *Navigation) GoHome() {
	n.mu.Lock()
	n.history = n.history[:0]
	n.current = Location{
		FolderID: constants.RootFolderID,
		Name:     constants.RootFolderName,
	}
	current := n.current
	n.mu.Unlock()

	n.publish(current, 0, NavigateHome)
}

func (n *Navigation) publish(current Location, depth int, reason string) {
	if n.bus == nil {
		return
	}
	n.bus.Publish(NewNavigationChangedEvent(current.FolderID, current.Name, depth, reason))
}
