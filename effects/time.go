package effects

import (
	"time"
)

// Deferred starts eff after d. Cancelling the run before then stops the timer
// and eff never starts.
func Deferred[A any](eff Effect[A], d time.Duration) Effect[A] {
	return Custom(func(sub *Subscriber[A]) {
		timer := time.AfterFunc(d, func() {
			if sub.lifetime.Active() {
				eff.run(sub)
			}
		})
		sub.Lifetime().OnDispose(func() {
			timer.Stop()
		})
	})
}

// Debounce delays eff by d under id; starting it again within d replaces the
// pending run.
func Debounce[A any](eff Effect[A], id any, d time.Duration) Effect[A] {
	return Cancellable(Deferred(eff, d), id)
}

// Timer emits f(tick) every interval until cancelled or finished under id.
func Timer[A any](id any, interval time.Duration, f func(time.Time) A) Effect[A] {
	return Cancellable(Custom(func(sub *Subscriber[A]) {
		ticker := time.NewTicker(interval)
		sub.Lifetime().OnDispose(ticker.Stop)

		go func() {
			for {
				select {
				case <-sub.Context().Done():
					return
				case tick := <-ticker.C:
					sub.Send(f(tick))
				}
			}
		}()
	}), id)
}
