// Package operation is the contract between the runtime and adapters for
// long-running external work, such as a recognition session on a device.
//
// An adapter only knows how to start its work and how to stop it. Which run
// is live under which token is tracked by the store's registry, never by the
// adapter.
package operation

import (
	"context"
	"sync/atomic"

	"github.com/on-the-ground/unidir_go/effects"
)

// Operation is a running external operation.
//
// Cancel aborts it and discards partial results. Finish stops feeding it new
// input while still letting it deliver a final result, after which the
// adapter completes the subscriber.
type Operation interface {
	Cancel()
	Finish()
}

// StartFunc begins the operation, emitting through sub.
//
// It returns once the operation is running. A non-nil error means the
// operation could not start and ends the run on the error channel.
type StartFunc[A any] func(ctx context.Context, sub *effects.Subscriber[A]) (Operation, error)

// Task starts an operation under id.
//
// Starting another task under the same id cancels this one first. The
// operation is cancelled whenever the run ends without a finish having been
// requested: on cancellation, on an error sent by the adapter, and on
// completion.
func Task[A any](id any, start StartFunc[A]) effects.Effect[A] {
	return effects.Cancellable(effects.Custom(func(sub *effects.Subscriber[A]) {
		op, err := start(sub.Context(), sub)
		if err != nil {
			sub.SendError(err)
			return
		}

		// a finished operation winds down on its own; every other exit releases it
		var finishing atomic.Bool
		l := sub.Lifetime()
		l.OnFinish(func() {
			finishing.Store(true)
			op.Finish()
		})
		l.OnDispose(func() {
			if !finishing.Load() {
				op.Cancel()
			}
		})
	}), id)
}

// CancelTask aborts the task under id, discarding partial results.
func CancelTask[A any](id any) effects.Effect[A] {
	return effects.Cancel[A](id)
}

// FinishTask asks the task under id to stop gracefully.
func FinishTask[A any](id any) effects.Effect[A] {
	return effects.Finish[A](id)
}

// Funcs adapts a pair of functions to Operation.
type Funcs struct {
	CancelFn func()
	FinishFn func()
}

func (f Funcs) Cancel() {
	if f.CancelFn != nil {
		f.CancelFn()
	}
}

func (f Funcs) Finish() {
	if f.FinishFn != nil {
		f.FinishFn()
	}
}
