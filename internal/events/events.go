// Package events carries batch progress from the layer running operations
// to whatever renders it. Publishers never block; a slow consumer loses
// events rather than stalling a transfer.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/driveman/driveman/internal/constants"
)

// EventType names a kind of event on the bus. Packages layered on top of
// the bus (state, for one) declare their own EventType values.
type EventType string

const (
	EventProgress EventType = "progress"
	EventError    EventType = "error"
	EventComplete EventType = "complete"

	EventOperationStarted   EventType = "operation_started"   // batch began executing
	EventOperationCancelled EventType = "operation_cancelled" // cancel honored at an item boundary
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// ProgressEvent represents one progress update from a running operation.
// Percent counts items started, so it can sit below 100 while the last
// item is still in flight.
type ProgressEvent struct {
	BaseEvent
	OperationID string
	Kind        string  // "upload", "download", "delete", "folder_upload"
	Label       string  // e.g. "Uploading: report.pdf (2/5)"
	Percent     float64 // 0..100
	Index       int     // 0-based index of the item being started
	Total       int
}

// ErrorEvent represents a per-item or fatal operation error.
// Fatal means the remaining batch was aborted.
type ErrorEvent struct {
	BaseEvent
	OperationID string
	Scope       string
	Error       error
	Fatal       bool
}

// CompleteEvent is the success summary for a finished batch.
// Published exactly once, and only when the batch was not cancelled and at
// least one item succeeded.
type CompleteEvent struct {
	BaseEvent
	OperationID string
	Kind        string
	Total       int
	Succeeded   int
	Failed      int
	Skipped     int
	Duration    time.Duration
}

// OperationEvent marks operation lifecycle transitions (started, cancelled).
type OperationEvent struct {
	BaseEvent
	OperationID string
	Kind        string
	Name        string // display name for the batch, e.g. first item or folder name
	Total       int
	Attempted   int // meaningful for cancellation: items started before the flag was honored
}

// EventBus fans events out to subscribers. Subscriptions are per-type or
// catch-all; both receive on a buffered channel sized at construction.
type EventBus struct {
	mu       sync.RWMutex
	byType   map[EventType][]chan Event
	catchAll []chan Event
	buffer   int
	closed   bool
	dropped  atomic.Int64
}

// NewEventBus creates a bus whose subscriber channels hold bufferSize
// events. Zero or negative picks the default; oversized requests clamp.
func NewEventBus(bufferSize int) *EventBus {
	switch {
	case bufferSize <= 0:
		bufferSize = constants.EventBusDefaultBuffer
	case bufferSize > constants.EventBusMaxBuffer:
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		byType: make(map[EventType][]chan Event),
		buffer: bufferSize,
	}
}

// newChannel is called with eb.mu held. A closed bus hands out an
// already-closed channel so range loops over it terminate immediately.
func (eb *EventBus) newChannel() chan Event {
	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	return make(chan Event, eb.buffer)
}

// Subscribe returns a channel receiving events of one type.
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := eb.newChannel()
	if !eb.closed {
		eb.byType[eventType] = append(eb.byType[eventType], ch)
	}
	return ch
}

// SubscribeAll returns a channel receiving every event on the bus.
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := eb.newChannel()
	if !eb.closed {
		eb.catchAll = append(eb.catchAll, ch)
	}
	return ch
}

// offer hands the event to one subscriber without blocking.
func (eb *EventBus) offer(ch chan Event, event Event) {
	select {
	case ch <- event:
	default:
		eb.dropped.Add(1)
	}
}

// Publish fans the event out to every matching subscriber. It never
// blocks: a subscriber whose buffer is full loses the event and the drop
// counter increments. Updates therefore arrive in publish order or not at
// all.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.byType[event.Type()] {
		eb.offer(ch, event)
	}
	for _, ch := range eb.catchAll {
		eb.offer(ch, event)
	}
}

// Close shuts the bus down and closes every subscriber channel. Publishing
// after Close is a no-op.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true

	for _, subs := range eb.byType {
		for _, ch := range subs {
			close(ch)
		}
	}
	for _, ch := range eb.catchAll {
		close(ch)
	}
}

// Dropped returns how many events were lost to full subscriber buffers.
func (eb *EventBus) Dropped() int64 {
	return eb.dropped.Load()
}

// PublishProgress is a convenience method for publishing progress events.
func (eb *EventBus) PublishProgress(operationID, kind, label string, percent float64, index, total int) {
	eb.Publish(&ProgressEvent{
		BaseEvent: BaseEvent{
			EventType: EventProgress,
			Time:      time.Now(),
		},
		OperationID: operationID,
		Kind:        kind,
		Label:       label,
		Percent:     percent,
		Index:       index,
		Total:       total,
	})
}

// PublishError is a convenience method for publishing error events.
func (eb *EventBus) PublishError(operationID, scope string, err error, fatal bool) {
	eb.Publish(&ErrorEvent{
		BaseEvent: BaseEvent{
			EventType: EventError,
			Time:      time.Now(),
		},
		OperationID: operationID,
		Scope:       scope,
		Error:       err,
		Fatal:       fatal,
	})
}
