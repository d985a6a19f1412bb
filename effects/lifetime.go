package effects

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

type lifetimeState int32

const (
	stateActive lifetimeState = iota
	stateCompleted
	stateFailed
	stateCancelled
)

// Lifetime is the scope of one effect run.
//
// It ends exactly once, by completion, error or cancellation. Whatever the
// exit path, its context is cancelled and every dispose hook runs once, last
// registered first.
type Lifetime struct {
	RunID uuid.UUID

	ctx    context.Context
	cancel context.CancelFunc
	state  atomic.Int32
	parent *Lifetime

	mu        sync.Mutex
	disposers []func()
	finishers []func()
}

// NewLifetime creates an active lifetime whose context derives from ctx.
//
// The lifetime does not end when ctx is cancelled; the owner ends it.
func NewLifetime(ctx context.Context) *Lifetime {
	ctx, cancel := context.WithCancel(ctx)
	return &Lifetime{
		RunID:  uuid.New(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// child creates a lifetime that is disposed together with l.
func (l *Lifetime) child() *Lifetime {
	c := NewLifetime(l.ctx)
	c.parent = l
	l.OnDispose(c.Dispose)
	return c
}

// Context is cancelled as soon as the lifetime ends.
func (l *Lifetime) Context() context.Context {
	return l.ctx
}

// Done is closed as soon as the lifetime ends.
func (l *Lifetime) Done() <-chan struct{} {
	return l.ctx.Done()
}

func (l *Lifetime) Active() bool {
	return lifetimeState(l.state.Load()) == stateActive
}

// Cancelled reports whether the lifetime ended by cancellation.
func (l *Lifetime) Cancelled() bool {
	return lifetimeState(l.state.Load()) == stateCancelled
}

// Revoked reports whether l, or any lifetime it was started within, has been
// cancelled. A member that completed before its enclosing run was cancelled
// is revoked without being cancelled itself.
func (l *Lifetime) Revoked() bool {
	for p := l; p != nil; p = p.parent {
		if p.Cancelled() {
			return true
		}
	}
	return false
}

// OnDispose registers fn to run when the lifetime ends.
// If it has already ended, fn runs immediately.
func (l *Lifetime) OnDispose(fn func()) {
	l.mu.Lock()
	if l.Active() {
		l.disposers = append(l.disposers, fn)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	fn()
}

// OnFinish registers fn to run when a graceful stop is requested.
func (l *Lifetime) OnFinish(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finishers = append(l.finishers, fn)
}

// Dispose cancels the run. It is idempotent and a no-op after the lifetime
// ended any other way.
func (l *Lifetime) Dispose() {
	l.end(stateCancelled)
}

// finish runs the finish hooks and reports whether there were any.
func (l *Lifetime) finish() bool {
	if !l.Active() {
		return true
	}
	l.mu.Lock()
	finishers := append([]func(){}, l.finishers...)
	l.mu.Unlock()

	for _, fn := range finishers {
		fn()
	}
	return len(finishers) > 0
}

// end moves an active lifetime to a terminal state. Only the first caller wins.
func (l *Lifetime) end(to lifetimeState) bool {
	l.mu.Lock()
	if !l.state.CompareAndSwap(int32(stateActive), int32(to)) {
		l.mu.Unlock()
		return false
	}
	disposers := l.disposers
	l.disposers = nil
	l.finishers = nil
	l.mu.Unlock()

	l.cancel()
	for i := len(disposers) - 1; i >= 0; i-- {
		disposers[i]()
	}
	return true
}
