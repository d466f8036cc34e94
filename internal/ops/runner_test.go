package ops

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/driveman/driveman/internal/api"
	"github.com/driveman/driveman/internal/events"
)

var errTest = errors.New("boom")

func testItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ID: fmt.Sprintf("id-%d", i), Name: fmt.Sprintf("file-%d.txt", i)}
	}
	return items
}

// recorder collects the item names an action saw, in order.
type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, name)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.seen))
	copy(out, r.seen)
	return out
}

func TestRunner_AllSucceed(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()
	completeCh := bus.Subscribe(events.EventComplete)

	rec := &recorder{}
	op := NewOperation(KindUpload, "five files", 5, bus)
	r := NewRunner(op, "Uploading", testItems(5), func(ctx context.Context, item Item) error {
		rec.record(item.Name)
		return nil
	})

	res := r.Run(context.Background())

	if res.Succeeded != 5 || res.Failed != 0 || res.Skipped != 0 {
		t.Errorf("tally = %d/%d/%d (succeeded/failed/skipped), want 5/0/0",
			res.Succeeded, res.Failed, res.Skipped)
	}
	if res.Attempted != 5 {
		t.Errorf("Attempted = %d, want 5", res.Attempted)
	}
	if res.Cancelled {
		t.Error("Cancelled = true, want false")
	}
	if res.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", res.Duration)
	}

	got := rec.names()
	for i, name := range got {
		want := fmt.Sprintf("file-%d.txt", i)
		if name != want {
			t.Errorf("item %d ran as %q, want %q (order must match input)", i, name, want)
		}
	}

	completes := drainEvents(completeCh)
	if len(completes) != 1 {
		t.Fatalf("got %d completion events, want exactly 1", len(completes))
	}
	ce := completes[0].(*events.CompleteEvent)
	if ce.Succeeded != 5 || ce.Total != 5 {
		t.Errorf("completion says %d/%d, want 5/5", ce.Succeeded, ce.Total)
	}
}

func TestRunner_CancelStopsAtNextBoundary(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()
	completeCh := bus.Subscribe(events.EventComplete)
	cancelCh := bus.Subscribe(events.EventOperationCancelled)

	op := NewOperation(KindUpload, "five files", 5, bus)
	count := 0
	r := NewRunner(op, "Uploading", testItems(5), func(ctx context.Context, item Item) error {
		count++
		if count == 2 {
			// Cancel arrives while item 2 is in flight. The item still
			// finishes; only item 3 onwards is skipped.
			op.RequestCancel()
		}
		return nil
	})

	res := r.Run(context.Background())

	if res.Attempted != 2 {
		t.Errorf("Attempted = %d, want 2", res.Attempted)
	}
	if res.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2 (in-flight item completes)", res.Succeeded)
	}
	if res.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", res.Skipped)
	}
	if !res.Cancelled {
		t.Error("Cancelled = false, want true")
	}

	if completes := drainEvents(completeCh); len(completes) != 0 {
		t.Errorf("got %d completion events after cancel, want 0", len(completes))
	}

	cancels := drainEvents(cancelCh)
	if len(cancels) != 1 {
		t.Fatalf("got %d cancelled events, want 1", len(cancels))
	}
	oe := cancels[0].(*events.OperationEvent)
	if oe.Attempted != 2 {
		t.Errorf("cancelled event Attempted = %d, want 2", oe.Attempted)
	}
}

func TestRunner_CancelBeforeStartSkipsEverything(t *testing.T) {
	op := NewOperation(KindDelete, "batch", 4, nil)
	op.RequestCancel()

	ran := false
	r := NewRunner(op, "Deleting", testItems(4), func(ctx context.Context, item Item) error {
		ran = true
		return nil
	})

	res := r.Run(context.Background())
	if ran {
		t.Error("action ran despite cancellation before start")
	}
	if res.Attempted != 0 || res.Skipped != 4 {
		t.Errorf("Attempted/Skipped = %d/%d, want 0/4", res.Attempted, res.Skipped)
	}
}

func TestRunner_FailuresDoNotStopTheBatch(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()
	completeCh := bus.Subscribe(events.EventComplete)

	rec := &recorder{}
	op := NewOperation(KindDownload, "five files", 5, bus)
	r := NewRunner(op, "Downloading", testItems(5), func(ctx context.Context, item Item) error {
		rec.record(item.Name)
		if item.Name == "file-0.txt" || item.Name == "file-2.txt" {
			return fmt.Errorf("download %s: %w", item.Name, errTest)
		}
		return nil
	})

	res := r.Run(context.Background())

	if len(rec.names()) != 5 {
		t.Errorf("ran %d items, want all 5 despite failures", len(rec.names()))
	}
	if res.Succeeded != 3 || res.Failed != 2 {
		t.Errorf("Succeeded/Failed = %d/%d, want 3/2", res.Succeeded, res.Failed)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("len(Errors) = %d, want 2", len(res.Errors))
	}
	if res.Errors[0].Item.Name != "file-0.txt" || res.Errors[1].Item.Name != "file-2.txt" {
		t.Errorf("errors out of order: %q then %q", res.Errors[0].Item.Name, res.Errors[1].Item.Name)
	}

	// Partial success still deserves its summary.
	if completes := drainEvents(completeCh); len(completes) != 1 {
		t.Errorf("got %d completion events, want 1", len(completes))
	}

	if got := len(op.Tracker().Errors()); got != 2 {
		t.Errorf("tracker recorded %d errors, want 2", got)
	}
}

func TestRunner_AllFailMeansNoSummary(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()
	completeCh := bus.Subscribe(events.EventComplete)

	refreshed := false
	op := NewOperation(KindUpload, "two files", 2, bus)
	r := NewRunner(op, "Uploading", testItems(2), func(ctx context.Context, item Item) error {
		return errTest
	})
	r.SetRefresh(func() { refreshed = true })

	res := r.Run(context.Background())

	if res.Succeeded != 0 || res.Failed != 2 {
		t.Errorf("Succeeded/Failed = %d/%d, want 0/2", res.Succeeded, res.Failed)
	}
	if completes := drainEvents(completeCh); len(completes) != 0 {
		t.Errorf("got %d completion events with zero successes, want 0", len(completes))
	}
	if refreshed {
		t.Error("refresh ran for a batch with zero successes")
	}
}

func TestRunner_UnauthorizedAbortsRemainingItems(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()
	completeCh := bus.Subscribe(events.EventComplete)
	errorCh := bus.Subscribe(events.EventError)

	op := NewOperation(KindDelete, "five items", 5, bus)
	r := NewRunner(op, "Deleting", testItems(5), func(ctx context.Context, item Item) error {
		if item.Name == "file-1.txt" {
			return fmt.Errorf("delete file: %w", api.ErrUnauthorized)
		}
		return nil
	})

	res := r.Run(context.Background())

	if res.Attempted != 2 {
		t.Errorf("Attempted = %d, want 2 (abort after the fatal item)", res.Attempted)
	}
	if res.Succeeded != 1 || res.Failed != 1 || res.Skipped != 3 {
		t.Errorf("tally = %d/%d/%d, want 1/1/3", res.Succeeded, res.Failed, res.Skipped)
	}
	if res.FatalErr == nil {
		t.Fatal("FatalErr = nil, want the unauthorized error")
	}
	if !api.IsUnauthorizedError(res.FatalErr) {
		t.Errorf("FatalErr = %v, want an unauthorized error", res.FatalErr)
	}

	if completes := drainEvents(completeCh); len(completes) != 0 {
		t.Errorf("got %d completion events after a fatal abort, want 0", len(completes))
	}

	errs := drainEvents(errorCh)
	if len(errs) != 1 {
		t.Fatalf("got %d error events, want 1", len(errs))
	}
	if ee := errs[0].(*events.ErrorEvent); !ee.Fatal {
		t.Error("error event Fatal = false, want true")
	}
}

func TestRunner_ExplicitFatalErrorAborts(t *testing.T) {
	op := NewOperation(KindUpload, "four files", 4, nil)
	r := NewRunner(op, "Uploading", testItems(4), func(ctx context.Context, item Item) error {
		if item.Name == "file-0.txt" {
			return Fatal(errors.New("local disk vanished"))
		}
		return nil
	})

	res := r.Run(context.Background())
	if res.FatalErr == nil {
		t.Fatal("FatalErr = nil, want the wrapped fatal error")
	}
	if res.Attempted != 1 || res.Skipped != 3 {
		t.Errorf("Attempted/Skipped = %d/%d, want 1/3", res.Attempted, res.Skipped)
	}

	var fe *FatalError
	if !errors.As(res.FatalErr, &fe) {
		t.Errorf("FatalErr is %T, want *FatalError", res.FatalErr)
	}
}

func TestRunner_ProgressPercentNondecreasing(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()
	progressCh := bus.Subscribe(events.EventProgress)

	op := NewOperation(KindUpload, "files", 7, bus)
	r := NewRunner(op, "Uploading", testItems(7), func(ctx context.Context, item Item) error {
		if item.Name == "file-3.txt" {
			return errTest // failures must not push the bar backwards
		}
		return nil
	})
	r.Run(context.Background())

	evs := drainEvents(progressCh)
	if len(evs) != 7 {
		t.Fatalf("got %d progress events, want 7", len(evs))
	}

	prev := -1.0
	for i, ev := range evs {
		pe := ev.(*events.ProgressEvent)
		if pe.Percent < prev {
			t.Errorf("event %d percent %.1f dropped below previous %.1f", i, pe.Percent, prev)
		}
		if pe.Percent > 100 {
			t.Errorf("event %d percent %.1f exceeds 100", i, pe.Percent)
		}
		prev = pe.Percent
	}
}

func TestRunner_LabelCountsItemsFromOne(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()
	progressCh := bus.Subscribe(events.EventProgress)

	items := []Item{
		{ID: "1", Name: "report.pdf"},
		{ID: "2", Name: "data.csv"},
	}
	op := NewOperation(KindUpload, "two files", 2, bus)
	r := NewRunner(op, "Uploading", items, func(ctx context.Context, item Item) error {
		return nil
	})
	r.Run(context.Background())

	evs := drainEvents(progressCh)
	if len(evs) != 2 {
		t.Fatalf("got %d progress events, want 2", len(evs))
	}

	wantLabels := []string{
		"Uploading: report.pdf (1/2)",
		"Uploading: data.csv (2/2)",
	}
	wantPercents := []float64{0, 50}
	for i, ev := range evs {
		pe := ev.(*events.ProgressEvent)
		if pe.Label != wantLabels[i] {
			t.Errorf("label %d = %q, want %q", i, pe.Label, wantLabels[i])
		}
		if pe.Percent != wantPercents[i] {
			t.Errorf("percent %d = %.1f, want %.1f (counts items started)", i, pe.Percent, wantPercents[i])
		}
		if pe.Index != i {
			t.Errorf("index %d = %d", i, pe.Index)
		}
	}
}

func TestRunner_RefreshRunsAfterSuccessfulBatch(t *testing.T) {
	op := NewOperation(KindUpload, "one file", 1, nil)
	refreshes := 0
	r := NewRunner(op, "Uploading", testItems(1), func(ctx context.Context, item Item) error {
		return nil
	})
	r.SetRefresh(func() { refreshes++ })

	r.Run(context.Background())
	if refreshes != 1 {
		t.Errorf("refresh ran %d times, want 1", refreshes)
	}
}

func TestRunner_RefreshSkippedWhenCancelled(t *testing.T) {
	op := NewOperation(KindUpload, "files", 3, nil)
	refreshed := false
	r := NewRunner(op, "Uploading", testItems(3), func(ctx context.Context, item Item) error {
		op.RequestCancel()
		return nil
	})
	r.SetRefresh(func() { refreshed = true })

	res := r.Run(context.Background())
	if !res.Cancelled {
		t.Fatal("Cancelled = false, want true")
	}
	if refreshed {
		t.Error("refresh ran for a cancelled batch")
	}
}

func TestRunner_PanicBecomesItemError(t *testing.T) {
	op := NewOperation(KindUpload, "files", 3, nil)
	r := NewRunner(op, "Uploading", testItems(3), func(ctx context.Context, item Item) error {
		if item.Name == "file-1.txt" {
			panic("action bug")
		}
		return nil
	})

	res := r.Run(context.Background())
	if res.Succeeded != 2 || res.Failed != 1 {
		t.Errorf("Succeeded/Failed = %d/%d, want 2/1", res.Succeeded, res.Failed)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1", len(res.Errors))
	}
	if got := res.Errors[0].Err.Error(); got == "" {
		t.Error("panic error has empty message")
	}
}

func TestFatal_NilStaysNil(t *testing.T) {
	if Fatal(nil) != nil {
		t.Error("Fatal(nil) != nil")
	}
}
