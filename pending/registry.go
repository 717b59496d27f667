package pending

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultGrace is the default force-release window. It should sit slightly
// above the request timeout so a lost settlement cannot pin an entry forever.
const DefaultGrace = 35 * time.Second

// Sentinel errors for pending operations.
var (
	// ErrAbandoned is returned to waiters when an operation is
	// force-released without ever settling.
	ErrAbandoned = errors.New("pending: operation abandoned")
)

// Operation is a single in-flight request shared by all callers for a key.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Settlement: the first Resolve or Reject wins; later calls are no-ops.
// - Waiters: every Wait observes the identical value or the identical error.
type Operation struct {
	key  string
	reg  *Registry
	done chan struct{}
	once sync.Once

	value any
	err   error
}

// Resolve settles the operation successfully. The registry entry is
// released immediately.
func (o *Operation) Resolve(value any) {
	o.once.Do(func() {
		o.value = value
		close(o.done)
		if o.reg != nil {
			o.reg.release(o.key, o)
		}
	})
}

// Reject settles the operation with an error. The registry entry is
// released immediately.
func (o *Operation) Reject(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
		if o.reg != nil {
			o.reg.release(o.key, o)
		}
	})
}

// Wait blocks until the operation settles or ctx is done.
func (o *Operation) Wait(ctx context.Context) (any, error) {
	select {
	case <-o.done:
		return o.value, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Settled reports whether the operation has resolved or rejected.
func (o *Operation) Settled() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// Registry tracks in-flight operations keyed by cache key.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Uniqueness: at most one live Operation exists per key.
type Registry struct {
	mu    sync.Mutex
	ops   map[string]*registered
	grace time.Duration
}

type registered struct {
	op    *Operation
	timer *time.Timer
}

// NewRegistry creates a registry with the given grace window.
// A non-positive grace falls back to DefaultGrace.
func NewRegistry(grace time.Duration) *Registry {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Registry{
		ops:   make(map[string]*registered),
		grace: grace,
	}
}

// Register returns the Operation for key. The boolean is true when this
// call created the operation (the caller owns performing the request) and
// false when an in-flight operation already existed (the caller joins it).
func (r *Registry) Register(key string) (*Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reg, ok := r.ops[key]; ok {
		return reg.op, false
	}

	op := &Operation{
		key:  key,
		reg:  r,
		done: make(chan struct{}),
	}
	reg := &registered{op: op}
	reg.timer = time.AfterFunc(r.grace, func() {
		r.forceRelease(key, op)
	})
	r.ops[key] = reg
	return op, true
}

// Lookup returns the in-flight operation for key, if any.
func (r *Registry) Lookup(key string) (*Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.ops[key]
	if !ok {
		return nil, false
	}
	return reg.op, true
}

// Release removes the entry for key without settling its operation.
// Idempotent.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	reg, ok := r.ops[key]
	if ok {
		delete(r.ops, key)
	}
	r.mu.Unlock()

	if ok && reg.timer != nil {
		reg.timer.Stop()
	}
}

// Len returns the number of tracked operations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ops)
}

// release removes the entry for key if it still holds op. Called on
// settlement; a newer operation registered under the same key is left alone.
func (r *Registry) release(key string, op *Operation) {
	r.mu.Lock()
	reg, ok := r.ops[key]
	if ok && reg.op == op {
		delete(r.ops, key)
	} else {
		reg = nil
	}
	r.mu.Unlock()

	if reg != nil && reg.timer != nil {
		reg.timer.Stop()
	}
}

// forceRelease evicts a stale entry whose settlement notification was lost
// and rejects its waiters so they do not hang forever.
func (r *Registry) forceRelease(key string, op *Operation) {
	r.mu.Lock()
	reg, ok := r.ops[key]
	if ok && reg.op == op {
		delete(r.ops, key)
	}
	r.mu.Unlock()

	op.Reject(ErrAbandoned)
}
