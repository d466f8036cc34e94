// Package ops runs user-initiated storage batches: uploads, downloads,
// deletions, recursive folder uploads. An Operation is the cancel flag and
// status holder for one batch; a Runner executes the batch items strictly
// in input order on a single goroutine; a Registry tracks what is live so
// shutdown can sweep everything.
//
// Cancellation is cooperative. Workers poll the flag at item boundaries
// only, so the remote call in flight always finishes and completed items
// are never rolled back.
package ops

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/driveman/driveman/internal/events"
	"github.com/driveman/driveman/internal/progress"
)

// Operation kinds as they appear in events and logs.
const (
	KindUpload       = "upload"
	KindDownload     = "download"
	KindDelete       = "delete"
	KindFolderUpload = "folder_upload"
)

// Operation is the shared handle for one user-initiated batch. The worker
// goroutine reports status through it; any goroutine may request
// cancellation or read a snapshot. The operation itself never fails - it
// only holds state.
type Operation struct {
	id   string
	kind string
	name string

	cancelled atomic.Bool
	tracker   *progress.Tracker
	bus       *events.EventBus
	createdAt time.Time
}

// NewOperation creates the handle for a batch of total items. The name is
// a display label for the whole batch: the folder being uploaded, or the
// first item of a selection. A nil bus silently drops status updates,
// which tests sometimes want.
func NewOperation(kind, name string, total int, bus *events.EventBus) *Operation {
	return &Operation{
		id:        uuid.NewString(),
		kind:      kind,
		name:      name,
		tracker:   progress.NewTracker(total),
		bus:       bus,
		createdAt: time.Now(),
	}
}

// ID returns the operation's unique identifier.
func (o *Operation) ID() string { return o.id }

// Kind returns the operation kind ("upload", "download", ...).
func (o *Operation) Kind() string { return o.kind }

// Name returns the batch display name.
func (o *Operation) Name() string { return o.name }

// Tracker returns the operation's progress counters.
func (o *Operation) Tracker() *progress.Tracker { return o.tracker }

// RequestCancel sets the cancel flag. Idempotent, and one-way: there is no
// un-cancel. The call in flight is not interrupted; the flag only stops
// the next item from starting.
func (o *Operation) RequestCancel() {
	o.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested. Safe to poll
// from any goroutine.
func (o *Operation) Cancelled() bool {
	return o.cancelled.Load()
}

// ReportStatus records an activity label with an explicit percentage and
// publishes the update. Listeners consume it from the bus on their own
// goroutine; nothing here blocks the worker.
func (o *Operation) ReportStatus(label string, percent float64) {
	o.tracker.SetLabel(label)
	o.publishProgress(o.tracker.Completed(), label, percent)
}

// reportItem publishes the status line for the item at index, just before
// it runs.
func (o *Operation) reportItem(index int, label string, percent float64) {
	o.tracker.SetLabel(label)
	o.publishProgress(index, label, percent)
}

func (o *Operation) publishProgress(index int, label string, percent float64) {
	if o.bus == nil {
		return
	}
	o.bus.PublishProgress(o.id, o.kind, label, percent, index, o.tracker.Total())
}

// RecordError appends a failure to the status and publishes it. Fatal
// means the remaining batch was aborted because of this error.
func (o *Operation) RecordError(scope string, err error, fatal bool) {
	o.tracker.AddError(err.Error())
	if o.bus == nil {
		return
	}
	o.bus.PublishError(o.id, scope, err, fatal)
}

// Status is a point-in-time snapshot of an operation for display.
type Status struct {
	ID        string
	Kind      string
	Name      string
	Label     string
	Completed int
	Total     int
	Percent   float64
	Errors    []string
	Cancelled bool
	Elapsed   time.Duration
}

// Status returns the operation's current state as an independent snapshot.
func (o *Operation) Status() Status {
	return Status{
		ID:        o.id,
		Kind:      o.kind,
		Name:      o.name,
		Label:     o.tracker.Label(),
		Completed: o.tracker.Completed(),
		Total:     o.tracker.Total(),
		Percent:   o.tracker.Percent(),
		Errors:    o.tracker.Errors(),
		Cancelled: o.Cancelled(),
		Elapsed:   time.Since(o.createdAt),
	}
}

func (o *Operation) publishStarted(total int) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(&events.OperationEvent{
		BaseEvent: events.BaseEvent{
			EventType: events.EventOperationStarted,
			Time:      time.Now(),
		},
		OperationID: o.id,
		Kind:        o.kind,
		Name:        o.name,
		Total:       total,
	})
}

func (o *Operation) publishCancelled(attempted, total int) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(&events.OperationEvent{
		BaseEvent: events.BaseEvent{
			EventType: events.EventOperationCancelled,
			Time:      time.Now(),
		},
		OperationID: o.id,
		Kind:        o.kind,
		Name:        o.name,
		Total:       total,
		Attempted:   attempted,
	})
}

func (o *Operation) publishComplete(res *Result) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(&events.CompleteEvent{
		BaseEvent: events.BaseEvent{
			EventType: events.EventComplete,
			Time:      time.Now(),
		},
		OperationID: o.id,
		Kind:        o.kind,
		Total:       res.Total,
		Succeeded:   res.Succeeded,
		Failed:      res.Failed,
		Skipped:     res.Skipped,
		Duration:    res.Duration,
	})
}
