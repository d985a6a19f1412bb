package effects

import "context"

// None completes immediately without emitting.
func None[A any]() Effect[A] {
	return Effect[A]{}
}

// Custom is the general form. start gets the run's subscriber and wires its
// own cleanup through sub.Lifetime().OnDispose.
//
// start must return once its work is either done or handed off to callbacks.
func Custom[A any](start func(sub *Subscriber[A])) Effect[A] {
	return Effect[A]{start: start}
}

// FireAndForget runs work synchronously when started, then completes.
// It never emits; work should hand anything slow to its own goroutine.
func FireAndForget[A any](work func(ctx context.Context)) Effect[A] {
	return Custom(func(sub *Subscriber[A]) {
		work(sub.Context())
		sub.Complete()
	})
}

// Future runs producer on its own goroutine and emits its single result.
//
// A failure ends the run through the error channel. The producer's context
// is cancelled when the run is cancelled; a result arriving after that is
// dropped.
func Future[A any](producer func(ctx context.Context) (A, error)) Effect[A] {
	return Custom(func(sub *Subscriber[A]) {
		go func() {
			value, err := producer(sub.Context())
			if err != nil {
				sub.SendError(err)
				return
			}
			sub.Send(value)
			sub.Complete()
		}()
	})
}

// Values emits the given values synchronously, then completes.
func Values[A any](values ...A) Effect[A] {
	return Custom(func(sub *Subscriber[A]) {
		for _, v := range values {
			sub.Send(v)
		}
		sub.Complete()
	})
}

// Fail ends immediately with err.
func Fail[A any](err error) Effect[A] {
	return Custom(func(sub *Subscriber[A]) {
		sub.SendError(err)
	})
}
