package effects

import "sync/atomic"

// Merge runs every member concurrently and completes when all of them have.
//
// Values keep their order within a member; there is no order across members.
// The first member error ends the merge and cancels the remaining members.
func Merge[A any](effs ...Effect[A]) Effect[A] {
	return Custom(func(sub *Subscriber[A]) {
		if len(effs) == 0 {
			sub.Complete()
			return
		}

		var remaining atomic.Int32
		remaining.Store(int32(len(effs)))
		for _, eff := range effs {
			if !sub.lifetime.Active() {
				return
			}
			eff.run(newSubscriber(sub.lifetime.child(), Observer[A]{
				OnEmit:  sub.emit,
				OnError: sub.SendError,
				OnComplete: func() {
					if remaining.Add(-1) == 0 {
						sub.Complete()
					}
				},
			}))
		}
	})
}

// Concatenate runs the members one after another, starting each when the
// previous one completes.
func Concatenate[A any](effs ...Effect[A]) Effect[A] {
	return Custom(func(sub *Subscriber[A]) {
		var next func(i int)
		next = func(i int) {
			if i == len(effs) {
				sub.Complete()
				return
			}
			if !sub.lifetime.Active() {
				return
			}
			effs[i].run(newSubscriber(sub.lifetime.child(), Observer[A]{
				OnEmit:     sub.emit,
				OnError:    sub.SendError,
				OnComplete: func() { next(i + 1) },
			}))
		}
		next(0)
	})
}

// Map transforms every emitted value. Errors and completion pass through.
func Map[A, B any](eff Effect[A], f func(A) B) Effect[B] {
	if eff.IsNone() {
		return None[B]()
	}
	return Custom(func(sub *Subscriber[B]) {
		eff.run(newSubscriber(sub.lifetime, Observer[A]{
			OnEmit: func(a A, from *Lifetime) {
				sub.obs.emit(f(a), from)
			},
			OnError:    sub.obs.OnError,
			OnComplete: sub.obs.OnComplete,
		}))
	})
}

// Catch turns a terminal error into a final value followed by completion.
// It is how an effect's error channel reaches a reducer as an action.
func Catch[A any](eff Effect[A], f func(error) A) Effect[A] {
	if eff.IsNone() {
		return eff
	}
	return Custom(func(sub *Subscriber[A]) {
		eff.run(newSubscriber(sub.lifetime, Observer[A]{
			OnEmit: sub.obs.emit,
			OnError: func(err error) {
				sub.obs.emit(f(err), sub.lifetime)
				if sub.obs.OnComplete != nil {
					sub.obs.OnComplete()
				}
			},
			OnComplete: sub.obs.OnComplete,
		}))
	})
}
