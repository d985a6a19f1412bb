package store

import (
	"sync"

	"github.com/on-the-ground/unidir_go/effects"
)

// queued is an accepted action. origin is the effect run that emitted it,
// nil for actions sent from outside the store.
type queued[A any] struct {
	action A
	origin *effects.Lifetime
}

// stale reports whether the emitting run, or a run enclosing it, was
// cancelled before the action reached the reducer.
func (q queued[A]) stale() bool {
	return q.origin != nil && q.origin.Revoked()
}

// actionQueue is the FIFO in front of the reducer.
//
// At most one goroutine drains it at a time. Whoever enqueues while nobody is
// draining becomes the drainer; everybody else only appends and returns, so
// re-entrant sends from synchronous effects never grow the call stack.
type actionQueue[A any] struct {
	mu       sync.Mutex
	items    []queued[A]
	draining bool
	closed   bool
}

func newActionQueue[A any]() *actionQueue[A] {
	return &actionQueue[A]{
		items: make([]queued[A], 0, 16),
	}
}

// enqueue appends item. drain is true when the caller must now drain the
// queue; accepted is false once the queue is closed.
func (q *actionQueue[A]) enqueue(item queued[A]) (drain bool, accepted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, false
	}
	q.items = append(q.items, item)
	if q.draining {
		return false, true
	}
	q.draining = true
	return true, true
}

// next pops the front item. When the queue is empty or closed it releases
// the drainer role and returns false.
func (q *actionQueue[A]) next() (queued[A], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(q.items) == 0 {
		q.items = q.items[:0]
		q.draining = false
		return queued[A]{}, false
	}
	item := q.items[0]
	q.items[0] = queued[A]{}
	q.items = q.items[1:]
	return item, true
}

// abandon releases the drainer role without consuming the remaining items;
// the next enqueue picks them up.
func (q *actionQueue[A]) abandon() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.draining = false
}

// close drops pending items and rejects further ones.
func (q *actionQueue[A]) close() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := len(q.items)
	q.closed = true
	q.items = nil
	return dropped
}
