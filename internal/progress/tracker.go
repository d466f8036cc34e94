package progress

import (
	"fmt"
	"sync"
	"time"
)

// Tracker holds the counters for one batch operation: how many items it
// covers, how many finished, what is being worked on right now, and what
// failed along the way. Pure state with no I/O; the owning operation
// publishes snapshots of it elsewhere.
//
// Total is fixed at creation. Completed only moves forward and never passes
// Total. Errors are append-only and keep their order.
type Tracker struct {
	mu        sync.Mutex
	total     int
	completed int
	label     string
	errors    []string
	startedAt time.Time
}

// NewTracker creates a tracker for a batch of total items.
// A negative total is treated as zero.
func NewTracker(total int) *Tracker {
	if total < 0 {
		total = 0
	}
	return &Tracker{
		total:     total,
		startedAt: time.Now(),
	}
}

// Total returns the number of items in the batch.
func (t *Tracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Completed returns the number of items finished so far.
func (t *Tracker) Completed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// ItemCompleted records one more finished item, clamped to Total.
func (t *Tracker) ItemCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed < t.total {
		t.completed++
	}
}

// Update sets the completed count and current label in one step.
// Backwards moves are ignored so the count stays monotonic.
func (t *Tracker) Update(completed int, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if completed > t.completed {
		t.completed = completed
		if t.completed > t.total {
			t.completed = t.total
		}
	}
	t.label = label
}

// SetLabel sets the current activity label.
func (t *Tracker) SetLabel(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.label = label
}

// Label returns the current activity label.
func (t *Tracker) Label() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.label
}

// AddError appends one failure description.
func (t *Tracker) AddError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, msg)
}

// Errors returns a copy of the recorded failures in order.
func (t *Tracker) Errors() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.errors))
	copy(out, t.errors)
	return out
}

// Percent returns completion as 0..100. Zero when the batch is empty.
func (t *Tracker) Percent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percentLocked()
}

func (t *Tracker) percentLocked() float64 {
	if t.total == 0 {
		return 0.0
	}
	return float64(t.completed) / float64(t.total) * 100.0
}

// Elapsed returns the time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.startedAt)
}

// ETA estimates the remaining time from the completion rate so far.
// ok is false before the first item completes - there is no rate to
// extrapolate from yet.
func (t *Tracker) ETA() (remaining time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed == 0 {
		return 0, false
	}

	elapsed := time.Since(t.startedAt)
	if elapsed <= 0 {
		return 0, false
	}

	rate := float64(t.completed) / elapsed.Seconds()
	if rate <= 0 {
		return 0, false
	}

	left := float64(t.total-t.completed) / rate
	return time.Duration(left * float64(time.Second)), true
}

// StatusMessage formats the current state for a status bar. With a label it
// names the item in flight; without one it reports the overall tally.
func (t *Tracker) StatusMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.label != "" {
		return fmt.Sprintf("Processing: %s (%d/%d)", t.label, t.completed, t.total)
	}
	return fmt.Sprintf("Progress: %d/%d (%.1f%%)", t.completed, t.total, t.percentLocked())
}
