package store

// Scoped is a view of part of a parent store's state and actions.
// It holds no state of its own; every action goes through the parent reducer.
type Scoped[S, A any] struct {
	state     func() S
	send      func(A)
	subscribe func(func(S)) func()
}

var _ Observable[int, int] = (*Scoped[int, int])(nil)

// Scope derives a store over toLocal(state) that accepts local actions and
// forwards them to parent as fromLocal(action).
func Scope[S, A, LS, LA any](
	parent Observable[S, A],
	toLocal func(S) LS,
	fromLocal func(LA) A,
) *Scoped[LS, LA] {
	return &Scoped[LS, LA]{
		state: func() LS {
			return toLocal(parent.State())
		},
		send: func(action LA) {
			parent.Send(fromLocal(action))
		},
		subscribe: func(fn func(LS)) func() {
			return parent.Subscribe(func(s S) {
				fn(toLocal(s))
			})
		},
	}
}

func (s *Scoped[S, A]) State() S {
	return s.state()
}

func (s *Scoped[S, A]) Send(action A) {
	s.send(action)
}

func (s *Scoped[S, A]) Subscribe(fn func(S)) (cancel func()) {
	return s.subscribe(fn)
}
