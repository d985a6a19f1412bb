package effects

import (
	"context"
	"fmt"
)

// Effect is a cold unit of asynchronous work that emits values of type A.
//
// Constructing an Effect performs no work; it starts when run. The zero
// Effect behaves like None.
type Effect[A any] struct {
	start func(sub *Subscriber[A])
}

// Observer receives what an effect run delivers. Callbacks may be nil.
// Cancellation is never reported to an observer.
//
// OnEmit, when set, is used instead of OnValue and also reports the run that
// emitted the value; for composed effects that is the member's own lifetime.
type Observer[A any] struct {
	OnValue    func(A)
	OnEmit     func(value A, from *Lifetime)
	OnError    func(error)
	OnComplete func()
}

func (o Observer[A]) emit(value A, from *Lifetime) {
	switch {
	case o.OnEmit != nil:
		o.OnEmit(value, from)
	case o.OnValue != nil:
		o.OnValue(value)
	}
}

// Subscriber is the emission sink of one run.
//
// Every method is a no-op once the run has ended, so an emission racing a
// cancellation that already returned is dropped.
type Subscriber[A any] struct {
	lifetime *Lifetime
	obs      Observer[A]
}

func newSubscriber[A any](l *Lifetime, obs Observer[A]) *Subscriber[A] {
	return &Subscriber[A]{lifetime: l, obs: obs}
}

func (s *Subscriber[A]) Lifetime() *Lifetime {
	return s.lifetime
}

func (s *Subscriber[A]) Context() context.Context {
	return s.lifetime.Context()
}

// Send emits one value.
func (s *Subscriber[A]) Send(value A) {
	s.emit(value, s.lifetime)
}

func (s *Subscriber[A]) emit(value A, from *Lifetime) {
	if !s.lifetime.Active() {
		return
	}
	s.obs.emit(value, from)
}

// SendError ends the run with err. Nothing is emitted afterwards.
func (s *Subscriber[A]) SendError(err error) {
	if !s.lifetime.end(stateFailed) {
		return
	}
	if s.obs.OnError != nil {
		s.obs.OnError(err)
	}
}

// Complete ends the run normally.
func (s *Subscriber[A]) Complete() {
	if !s.lifetime.end(stateCompleted) {
		return
	}
	if s.obs.OnComplete != nil {
		s.obs.OnComplete()
	}
}

// SendResult bridges callback APIs that report (result, error) pairs.
//
// Exactly one of value and err must be set; anything else is a contract
// violation and panics.
func (s *Subscriber[A]) SendResult(value *A, err error) {
	switch {
	case value != nil && err != nil:
		panic(fmt.Errorf("%w: both a result and an error were delivered: %v", ErrContractViolation, err))
	case value == nil && err == nil:
		panic(fmt.Errorf("%w: neither a result nor an error was delivered", ErrContractViolation))
	case err != nil:
		s.SendError(err)
	default:
		s.Send(*value)
	}
}

// Run starts eff inside l, delivering to obs.
//
// Run returns once the effect's start procedure returns: either the work was
// synchronous and is done, or it has scheduled asynchronous callbacks.
func Run[A any](l *Lifetime, eff Effect[A], obs Observer[A]) {
	eff.run(newSubscriber(l, obs))
}

// Start runs eff under a new lifetime derived from ctx and returns it.
func Start[A any](ctx context.Context, eff Effect[A], obs Observer[A]) *Lifetime {
	l := NewLifetime(ctx)
	Run(l, eff, obs)
	return l
}

func (e Effect[A]) run(sub *Subscriber[A]) {
	if e.start == nil {
		sub.Complete()
		return
	}
	e.start(sub)
}

// IsNone reports whether e is the zero effect.
func (e Effect[A]) IsNone() bool {
	return e.start == nil
}
