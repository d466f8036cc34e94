package ops

import (
	"sync"
)

// Registry tracks live operations by ID. It observes rather than executes:
// callers register an operation before starting its runner and remove it
// when the runner finishes. Shutdown sweeps whatever is still registered
// with CancelAll, and status surfaces enumerate snapshots without touching
// the workers.
type Registry struct {
	mu   sync.RWMutex
	ops  []*Operation // registration order
	byID map[string]*Operation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*Operation),
	}
}

// Add registers an operation. Re-adding the same ID is a no-op.
func (r *Registry) Add(op *Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[op.ID()]; exists {
		return
	}
	r.ops = append(r.ops, op)
	r.byID[op.ID()] = op
}

// Remove deregisters a finished operation.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return
	}
	delete(r.byID, id)
	for i, op := range r.ops {
		if op.ID() == id {
			r.ops = append(r.ops[:i], r.ops[i+1:]...)
			break
		}
	}
}

// Get looks up a live operation by ID.
func (r *Registry) Get(id string) (*Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.byID[id]
	return op, ok
}

// Len returns the number of live operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops)
}

// Snapshot returns the status of every live operation in registration
// order.
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Status, 0, len(r.ops))
	for _, op := range r.ops {
		out = append(out, op.Status())
	}
	return out
}

// CancelAll requests cancellation of every live operation and returns how
// many were flagged. Each runner honors the flag at its next item
// boundary; nothing is interrupted mid-call.
func (r *Registry) CancelAll() int {
	r.mu.RLock()
	ops := make([]*Operation, len(r.ops))
	copy(ops, r.ops)
	r.mu.RUnlock()

	for _, op := range ops {
		op.RequestCancel()
	}
	return len(ops)
}
