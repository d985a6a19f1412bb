// Package effects provides the side-effect half of a unidirectional state loop.
//
// A reducer stays pure by returning an Effect instead of doing work. The store
// starts that effect, and whatever the effect emits is fed back to the reducer
// as new actions.
//
// # What is an Effect?
//
// An Effect[A] is a cold description of asynchronous work. It does nothing
// until started, then emits any number of A values and ends exactly once:
//   - completion (no more values),
//   - an error on the error channel (terminal),
//   - or cancellation (silent, nothing is delivered for it).
//
// Once a run has been cancelled, anything it still tries to emit is dropped.
//
// # Lifetimes
//
// Each run has a Lifetime. Cleanup registered with Lifetime.OnDispose runs on
// every exit path: completion, error, cancellation by id, replacement by a new
// run under the same id, or store teardown.
//
// # Identities
//
// Cancellable(eff, id) names a run so that Cancel(id) and Finish(id) can reach
// it later, and so that starting another run under the same id replaces it.
// Ids live in a registry.Registry carried by the run's context; every store
// installs its own with WithRegistry.
//
// Example:
//
//	func reduce(s State, a Action) (State, effects.Effect[Action]) {
//	    switch a.(type) {
//	    case StartTapped:
//	        return s, effects.Timer[Action](timerID{}, time.Second, func(time.Time) Action {
//	            return Tick{}
//	        })
//	    case StopTapped:
//	        return s, effects.Cancel[Action](timerID{})
//	    }
//	    return s, effects.None[Action]()
//	}
package effects
