package ops

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/driveman/driveman/internal/api"
)

// Item is one unit of work in a batch: a file to upload, an entry to
// download or delete. ID is the remote entry ID, or the local path for
// uploads. Name is what progress labels show.
type Item struct {
	ID   string
	Name string
	Size int64
}

// Action executes one item. The context carries transport deadlines and
// process shutdown; batch cancellation is the operation's flag, never the
// context, so the item in flight always runs to completion.
type Action func(ctx context.Context, item Item) error

// FatalError marks an error that aborts the remaining batch instead of
// being recorded and moved past. Lost authentication is the built-in case;
// actions wrap their own with Fatal.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err as batch-aborting. Returns nil for a nil err.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// isFatal reports whether err must abort the remaining batch. An
// unauthorized response always does: every following request would fail
// the same way.
func isFatal(err error) bool {
	var fe *FatalError
	if errors.As(err, &fe) {
		return true
	}
	return api.IsUnauthorizedError(err)
}

// ItemError records which item failed and why, in batch order.
type ItemError struct {
	Item Item
	Err  error
}

// Result is the tally of one finished batch.
type Result struct {
	Total     int
	Attempted int // items whose action was started
	Succeeded int
	Failed    int
	Skipped   int // items never started: cancelled or aborted first
	Cancelled bool
	FatalErr  error // non-nil when a fatal error aborted the batch
	Errors    []ItemError
	Duration  time.Duration
}

// Runner executes a batch strictly in input order, one item at a time, on
// a single goroutine. Items fail independently: an error is recorded and
// the loop moves on to the next item. Only cancellation and fatal errors
// stop the loop early.
type Runner struct {
	op      *Operation
	verb    string // label prefix: "Uploading", "Downloading", "Deleting"
	items   []Item
	action  Action
	refresh func()
}

// NewRunner pairs an operation with its work. The verb prefixes every
// per-item status label, e.g. "Uploading: report.pdf (2/5)".
func NewRunner(op *Operation, verb string, items []Item, action Action) *Runner {
	return &Runner{
		op:     op,
		verb:   verb,
		items:  items,
		action: action,
	}
}

// SetRefresh registers a callback run after the completion summary, meant
// to re-list the current folder. Callers gate it on the auto_refresh
// setting; a cancelled or fully failed batch never triggers it.
func (r *Runner) SetRefresh(fn func()) {
	r.refresh = fn
}

// Start runs the batch on its own goroutine and returns a channel that
// yields the single Result. One goroutine per user action, no shared pool.
func (r *Runner) Start(ctx context.Context) <-chan *Result {
	done := make(chan *Result, 1)
	go func() {
		done <- r.Run(ctx)
	}()
	return done
}

// Run executes the batch on the calling goroutine and returns the tally.
//
// Per item: check the cancel flag, report the status line, run the action.
// The reported percent counts items started rather than finished - the bar
// moves when work begins, so a slow final item does not sit at 100%.
func (r *Runner) Run(ctx context.Context) *Result {
	total := len(r.items)
	res := &Result{Total: total}

	r.op.publishStarted(total)

	for i, item := range r.items {
		if r.op.Cancelled() {
			break
		}

		percent := float64(i) / float64(total) * 100.0
		r.op.reportItem(i, fmt.Sprintf("%s: %s (%d/%d)", r.verb, item.Name, i+1, total), percent)

		res.Attempted++
		err := r.runItem(ctx, item)
		if err == nil {
			res.Succeeded++
			r.op.tracker.ItemCompleted()
			continue
		}

		fatal := isFatal(err)
		res.Failed++
		res.Errors = append(res.Errors, ItemError{Item: item, Err: err})
		r.op.RecordError(r.op.kind, err, fatal)
		if fatal {
			res.FatalErr = err
			break
		}
	}

	res.Cancelled = r.op.Cancelled()
	res.Skipped = total - res.Attempted
	res.Duration = r.op.tracker.Elapsed()

	// The success summary fires exactly once, and only for a batch that
	// was neither cancelled nor aborted and achieved something.
	switch {
	case res.Cancelled:
		r.op.publishCancelled(res.Attempted, total)
	case res.FatalErr == nil && res.Succeeded > 0:
		r.op.publishComplete(res)
		if r.refresh != nil {
			r.refresh()
		}
	}

	return res
}

// runItem shields the loop from a panicking action by converting the
// panic into a per-item error.
func (r *Runner) runItem(ctx context.Context, item Item) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s %q panicked: %v", r.op.kind, item.Name, rec)
		}
	}()
	return r.action(ctx, item)
}
