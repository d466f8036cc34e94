package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/driveman/driveman/internal/constants"
)

func recvOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestPublishReachesTypedSubscriber(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventProgress)
	bus.PublishProgress("op-7", "upload", "Uploading: report.pdf (1/4)", 25.0, 0, 4)

	progress, ok := recvOne(t, ch).(*ProgressEvent)
	if !ok {
		t.Fatal("event is not a ProgressEvent")
	}
	if progress.OperationID != "op-7" {
		t.Errorf("OperationID = %q, want op-7", progress.OperationID)
	}
	if progress.Percent != 25.0 {
		t.Errorf("Percent = %v, want 25", progress.Percent)
	}
	if progress.Total != 4 {
		t.Errorf("Total = %d, want 4", progress.Total)
	}
}

func TestPublishFansOutToEverySubscriber(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	first := bus.Subscribe(EventError)
	second := bus.Subscribe(EventError)

	bus.PublishError("op-7", "upload", errors.New("network unreachable"), false)

	for i, ch := range []<-chan Event{first, second} {
		ev, ok := recvOne(t, ch).(*ErrorEvent)
		if !ok {
			t.Fatalf("subscriber %d: event is not an ErrorEvent", i)
		}
		if ev.Fatal {
			t.Errorf("subscriber %d: Fatal = true, want false", i)
		}
	}
}

func TestTypedSubscriptionFiltersOtherEvents(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	progressCh := bus.Subscribe(EventProgress)
	errorCh := bus.Subscribe(EventError)

	bus.PublishProgress("op-1", "delete", "Deleting: old.txt (1/2)", 0, 0, 2)

	recvOne(t, progressCh)

	select {
	case ev := <-errorCh:
		t.Errorf("error subscriber received %s event", ev.Type())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeAllSeesEveryType(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	allCh := bus.SubscribeAll()

	bus.PublishProgress("op-1", "upload", "Uploading: a.txt (1/1)", 0, 0, 1)
	bus.PublishError("op-1", "upload", errors.New("disk full"), true)
	bus.Publish(&CompleteEvent{
		BaseEvent: BaseEvent{EventType: EventComplete, Time: time.Now()},
		Kind:      "upload",
		Total:     1,
		Succeeded: 1,
	})

	want := []EventType{EventProgress, EventError, EventComplete}
	for i, wt := range want {
		if got := recvOne(t, allCh).Type(); got != wt {
			t.Errorf("event %d type = %s, want %s", i, got, wt)
		}
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := NewEventBus(2)
	defer bus.Close()

	ch := bus.Subscribe(EventProgress)

	// Fill the buffer well past capacity. Publish must return regardless.
	for i := 0; i < 10; i++ {
		bus.PublishProgress("op-1", "upload", "Uploading", float64(i*10), i, 10)
	}

	if bus.Dropped() == 0 {
		t.Error("Dropped() = 0, want drops with a full buffer")
	}

	// Whatever survived arrives in publish order.
	lastIndex := -1
	received := 0
	for {
		select {
		case ev := <-ch:
			progress := ev.(*ProgressEvent)
			if progress.Index <= lastIndex {
				t.Fatalf("index %d arrived after %d", progress.Index, lastIndex)
			}
			lastIndex = progress.Index
			received++
		default:
			if received == 0 {
				t.Error("no events delivered at all")
			}
			return
		}
	}
}

func TestDeliveryOrder(t *testing.T) {
	bus := NewEventBus(20)
	defer bus.Close()

	ch := bus.Subscribe(EventProgress)

	for i := 0; i < 5; i++ {
		bus.PublishProgress("op-1", "download", "Downloading", float64(i*20), i, 5)
	}

	for i := 0; i < 5; i++ {
		progress := recvOne(t, ch).(*ProgressEvent)
		if progress.Index != i {
			t.Fatalf("event %d has index %d, want %d", i, progress.Index, i)
		}
	}
}

func TestCloseEndsSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	ch := bus.Subscribe(EventProgress)

	bus.Close()

	if _, open := <-ch; open {
		t.Error("channel still open after Close")
	}

	// Publishing and closing again must both be no-ops.
	bus.PublishProgress("op-1", "upload", "Uploading", 0, 0, 1)
	bus.Close()
}

func TestSubscribeAfterClose(t *testing.T) {
	bus := NewEventBus(10)
	bus.Close()

	// A closed bus hands out closed channels, so a drain loop over the
	// subscription ends immediately instead of hanging.
	for range bus.SubscribeAll() {
		t.Fatal("received event from a closed bus")
	}
}

func TestBufferSizeClamping(t *testing.T) {
	if got := NewEventBus(0).buffer; got != constants.EventBusDefaultBuffer {
		t.Errorf("buffer for size 0 = %d, want default %d", got, constants.EventBusDefaultBuffer)
	}
	if got := NewEventBus(constants.EventBusMaxBuffer + 1).buffer; got != constants.EventBusMaxBuffer {
		t.Errorf("buffer = %d, want clamped to %d", got, constants.EventBusMaxBuffer)
	}
	if got := NewEventBus(64).buffer; got != 64 {
		t.Errorf("buffer = %d, want 64 unchanged", got)
	}
}

// TestConcurrentPublishAccounting hammers the bus from several goroutines
// and checks that every event is either delivered or counted as dropped.
func TestConcurrentPublishAccounting(t *testing.T) {
	bus := NewEventBus(32)
	defer bus.Close()

	ch := bus.SubscribeAll()

	const publishers = 8
	const perPublisher = 50

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range ch {
			received++
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				bus.PublishProgress("op-1", "upload", "Uploading", 0, p*perPublisher+i, publishers*perPublisher)
			}
		}(p)
	}
	wg.Wait()
	bus.Close()
	<-done

	total := int64(publishers * perPublisher)
	if got := int64(received) + bus.Dropped(); got != total {
		t.Errorf("delivered %d + dropped %d = %d, want %d", received, bus.Dropped(), got, total)
	}
}
