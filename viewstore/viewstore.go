// Package viewstore watches a store and forwards only meaningful changes.
//
// A ViewStore keeps the last state it forwarded. Every state the source
// publishes is compared with it and dropped when the two are duplicates, so
// observers run only when something they can see has changed.
package viewstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/on-the-ground/unidir_go/store"
	"go.uber.org/zap"
)

type observer[S any] struct {
	id      uuid.UUID
	fn      func(S)
	removed bool
}

// ViewStore is a deduplicating observer of a store.
type ViewStore[S, A any] struct {
	src         store.Observable[S, A]
	isDuplicate func(prev, next S) bool
	logger      *zap.Logger

	mu        sync.RWMutex
	state     S
	observers []*observer[S]
	closed    bool

	// deliveries runs every call into an observer; delivered is the last
	// state it handed out and is only touched by it.
	deliveries  deliveryQueue
	delivered   S
	unsubscribe func()
	done        chan struct{}
}

var _ store.Observable[int, int] = (*ViewStore[int, int])(nil)

// New starts watching src. The current state of src becomes the first
// snapshot without being compared to anything.
func New[S, A any](src store.Observable[S, A], isDuplicate func(prev, next S) bool, opts ...Option) *ViewStore[S, A] {
	o := newOptions(opts)
	v := &ViewStore[S, A]{
		src:         src,
		isDuplicate: isDuplicate,
		logger:      o.logger,
		done:        make(chan struct{}),
	}

	v.mu.Lock()
	v.unsubscribe = src.Subscribe(v.receive)
	v.state = src.State()
	v.delivered = v.state
	v.mu.Unlock()

	return v
}

// NewComparable is New with == as the duplicate test.
func NewComparable[S comparable, A any](src store.Observable[S, A], opts ...Option) *ViewStore[S, A] {
	return New(src, func(prev, next S) bool { return prev == next }, opts...)
}

func (v *ViewStore[S, A]) receive(next S) {
	v.mu.Lock()
	if v.closed || v.isDuplicate(v.state, next) {
		v.mu.Unlock()
		return
	}
	v.state = next
	v.mu.Unlock()

	v.deliveries.enqueue(func() {
		v.delivered = next
		for _, o := range v.current() {
			o.fn(next)
		}
	})
}

func (v *ViewStore[S, A]) current() []*observer[S] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]*observer[S](nil), v.observers...)
}

// State returns the last forwarded snapshot.
func (v *ViewStore[S, A]) State() S {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Send forwards action to the source store.
func (v *ViewStore[S, A]) Send(action A) {
	v.src.Send(action)
}

// Observe calls fn with the current snapshot, then with every forwarded
// change, until the returned cancel is called. fn may call Send or Observe,
// and the changes that follow reach fn after it returns.
func (v *ViewStore[S, A]) Observe(fn func(S)) (cancel func()) {
	return v.add(fn, true)
}

// Subscribe calls fn with every forwarded change, but not with the current
// snapshot.
func (v *ViewStore[S, A]) Subscribe(fn func(S)) (cancel func()) {
	return v.add(fn, false)
}

func (v *ViewStore[S, A]) add(fn func(S), initial bool) func() {
	o := &observer[S]{id: uuid.New(), fn: fn}

	v.deliveries.enqueue(func() {
		v.mu.Lock()
		if o.removed || v.closed {
			v.mu.Unlock()
			return
		}
		v.observers = append(v.observers, o)
		v.mu.Unlock()

		if initial {
			fn(v.delivered)
		}
	})

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		o.removed = true
		for i, other := range v.observers {
			if other.id == o.id {
				v.observers = append(v.observers[:i:i], v.observers[i+1:]...)
				return
			}
		}
	}
}

// Changes returns a channel receiving the current snapshot and then every
// forwarded change. Delivery never blocks the store: when the channel is full
// the change is dropped and logged. The channel is closed once ctx is done or
// the view store is closed. A buffer below one is raised to one.
func (v *ViewStore[S, A]) Changes(ctx context.Context, buffer int) <-chan S {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan S, buffer)

	cancel := v.Observe(func(state S) {
		select {
		case ch <- state:
		default:
			v.logger.Warn("dropped state change, channel full", zap.Int("buffer", buffer))
		}
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-v.done:
		}
		// queued behind any delivery already sending on ch
		v.deliveries.enqueue(func() {
			cancel()
			close(ch)
		})
	}()

	return ch
}

// Close stops watching the source and closes every Changes channel.
// Close is idempotent.
func (v *ViewStore[S, A]) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.observers = nil
	v.mu.Unlock()

	v.unsubscribe()
	close(v.done)
}
