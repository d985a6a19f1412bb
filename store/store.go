// Package store owns application state and advances it only through a reducer.
//
// Send is the single entry point. Each action is reduced, the new state is
// published to subscribers, and the effect the reducer returned is started;
// whatever that effect emits comes back through the same queue. Actions are
// reduced one at a time and strictly in the order they were accepted, no
// matter how many goroutines send them.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/on-the-ground/unidir_go/effects"
	"github.com/on-the-ground/unidir_go/effects/registry"
	"go.uber.org/zap"
)

// Reducer computes the next state and the effect to run for one action.
//
// It must not start goroutines or block; asynchronous work belongs in the
// returned effect. It is never called concurrently with itself.
type Reducer[S, A any] func(state S, action A) (S, effects.Effect[A])

// Observable is what consumers need from a store: read, watch and send.
type Observable[S, A any] interface {
	State() S
	Send(action A)
	Subscribe(fn func(S)) (cancel func())
}

var _ Observable[int, int] = (*Store[int, int])(nil)

type subscription[S any] struct {
	id uuid.UUID
	fn func(S)
}

// Store holds one state value and the effects started on its behalf.
type Store[S, A any] struct {
	reducer  Reducer[S, A]
	snapshot func(S) S
	logger   *zap.Logger
	registry *registry.Registry

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	queue *actionQueue[A]

	// state is written only by the current drainer.
	stateMu sync.RWMutex
	state   S

	subsMu sync.Mutex
	subs   []subscription[S]

	runMu   sync.Mutex
	running map[uuid.UUID]*effects.Lifetime
	closed  bool
}

// New creates a live store holding initial.
//
// The store is torn down by Close, or when ctx is cancelled.
func New[S, A any](ctx context.Context, initial S, reducer Reducer[S, A], opts ...Option) *Store[S, A] {
	o := newOptions(opts)

	snapshot := func(s S) S { return s }
	if o.snapshot != nil {
		fn, ok := o.snapshot.(func(S) S)
		if !ok {
			panic(fmt.Sprintf("store: snapshot option is %T, want func(%T) %T", o.snapshot, initial, initial))
		}
		snapshot = fn
	}

	reg := o.registry
	if reg == nil {
		reg = registry.New(registry.NewConfig(o.config.RegistryShards))
	}

	storeCtx, cancel := context.WithCancel(effects.WithRegistry(ctx, reg))
	s := &Store[S, A]{
		reducer:  reducer,
		snapshot: snapshot,
		logger:   o.logger,
		registry: reg,
		ctx:      storeCtx,
		cancel:   cancel,
		done:     make(chan struct{}),
		queue:    newActionQueue[A](),
		state:    initial,
		running:  make(map[uuid.UUID]*effects.Lifetime),
	}
	s.watchParentCancel(ctx)

	s.logger.Debug("created store", zap.Int("registryShards", o.config.RegistryShards))
	return s
}

// watchParentCancel tears the store down when the parent context ends.
func (s *Store[S, A]) watchParentCancel(parent context.Context) {
	if parent.Done() == nil {
		return
	}
	ready := make(chan struct{})
	go func() {
		close(ready)
		select {
		case <-parent.Done():
			s.logger.Debug("parent context cancelled, closing store")
			s.Close()
		case <-s.done:
		}
	}()
	<-ready
}

// Send accepts one action.
//
// If no other goroutine is reducing, Send reduces the action, and every
// action it causes synchronously, before returning. Otherwise the action is
// queued and the goroutine currently reducing applies it in turn.
func (s *Store[S, A]) Send(action A) {
	s.enqueue(queued[A]{action: action})
}

func (s *Store[S, A]) enqueue(item queued[A]) {
	drain, accepted := s.queue.enqueue(item)
	if !accepted {
		s.logger.Warn("dropped action", zap.Error(ErrClosed))
		return
	}
	if drain {
		s.drain()
	}
}

func (s *Store[S, A]) drain() {
	defer func() {
		if r := recover(); r != nil {
			// leave the store usable for whoever recovers the panic
			s.queue.abandon()
			panic(r)
		}
	}()

	for {
		item, ok := s.queue.next()
		if !ok {
			return
		}
		s.process(item)
	}
}

func (s *Store[S, A]) process(item queued[A]) {
	if item.stale() {
		if ce := s.logger.Check(zap.DebugLevel, "dropped action from cancelled effect"); ce != nil {
			ce.Write(zap.Stringer("run", item.origin.RunID), zap.Any("action", item.action))
		}
		return
	}

	if ce := s.logger.Check(zap.DebugLevel, "reducing action"); ce != nil {
		ce.Write(zap.Any("action", item.action))
	}

	next, eff := s.reducer(s.state, item.action)

	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()

	s.publish(next)
	s.start(eff)
}

func (s *Store[S, A]) publish(state S) {
	s.subsMu.Lock()
	subs := append([]subscription[S](nil), s.subs...)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(s.snapshot(state))
	}
}

func (s *Store[S, A]) start(eff effects.Effect[A]) {
	if eff.IsNone() {
		return
	}

	l := effects.NewLifetime(s.ctx)
	if !s.track(l) {
		s.logger.Warn("effect not started", zap.Error(ErrClosed))
		return
	}
	l.OnDispose(func() {
		s.untrack(l)
	})

	effects.Run(l, eff, effects.Observer[A]{
		OnEmit: func(action A, from *effects.Lifetime) {
			s.enqueue(queued[A]{action: action, origin: from})
		},
		OnError: func(err error) {
			s.logger.Error("effect failed with an uncaught error",
				zap.Stringer("run", l.RunID),
				zap.Error(err),
			)
		},
	})
}

func (s *Store[S, A]) track(l *effects.Lifetime) bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed {
		return false
	}
	s.running[l.RunID] = l
	return true
}

func (s *Store[S, A]) untrack(l *effects.Lifetime) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	delete(s.running, l.RunID)
}

// State returns a snapshot of the current state.
func (s *Store[S, A]) State() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshot(s.state)
}

// Subscribe calls fn with a snapshot after every reduced action, on the
// goroutine doing the reducing, until the returned cancel is called.
func (s *Store[S, A]) Subscribe(fn func(S)) (cancel func()) {
	id := uuid.New()

	s.subsMu.Lock()
	s.subs = append(s.subs, subscription[S]{id: id, fn: fn})
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Registry returns the registry owned by this store.
func (s *Store[S, A]) Registry() *registry.Registry {
	return s.registry
}

// Running returns the number of effect runs that have not ended yet.
func (s *Store[S, A]) Running() int {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return len(s.running)
}

// Done is closed once the store has been torn down.
func (s *Store[S, A]) Done() <-chan struct{} {
	return s.done
}

// Close tears the store down: pending actions are dropped, every effect it
// started is cancelled, and later sends are ignored. Close is idempotent.
func (s *Store[S, A]) Close() {
	s.runMu.Lock()
	if s.closed {
		s.runMu.Unlock()
		return
	}
	s.closed = true
	running := make([]*effects.Lifetime, 0, len(s.running))
	for _, l := range s.running {
		running = append(running, l)
	}
	s.runMu.Unlock()

	dropped := s.queue.close()

	now := time.Now()
	for _, entry := range s.registry.Entries() {
		s.logger.Debug("cancelling registered effect",
			zap.Any("id", entry.ID),
			zap.Stringer("run", entry.RunID),
			zap.Duration("active", entry.Span(now).Duration()),
		)
	}
	cancelled := s.registry.CancelAll()
	for _, l := range running {
		l.Dispose()
	}

	s.cancel()
	close(s.done)

	s.logger.Debug("closed store",
		zap.Int("droppedActions", dropped),
		zap.Int("cancelledEffects", len(running)),
		zap.Int("cancelledIds", cancelled),
	)
}
