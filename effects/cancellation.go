package effects

import (
	"context"
	"fmt"

	effectmodel "github.com/on-the-ground/unidir_go/effects/internal/model"
	"github.com/on-the-ground/unidir_go/effects/registry"
	"github.com/on-the-ground/unidir_go/shared/helper"
)

// WithRegistry returns a context carrying reg. Cancellation effects started
// under that context address reg.
func WithRegistry(ctx context.Context, reg *registry.Registry) context.Context {
	return context.WithValue(ctx, effectmodel.EffectRegistry, reg)
}

// RegistryFrom returns the registry carried by ctx.
func RegistryFrom(ctx context.Context) (*registry.Registry, error) {
	return helper.ValueOf[*registry.Registry](ctx, effectmodel.EffectRegistry, effectmodel.ErrNoEffectHandler)
}

func mustRegistryFrom(ctx context.Context) *registry.Registry {
	reg, err := RegistryFrom(ctx)
	if err != nil {
		panic(fmt.Errorf("%w: %w", ErrNoRegistry, err))
	}
	return reg
}

// Cancellable registers the run of eff under id.
//
// Starting it cancels whatever was registered under id before eff starts.
// The run deregisters itself on every exit path, unless it has been replaced.
//
// Cancelling the run revokes everything it emitted that a store has not
// reduced yet, including values from members that had already completed.
func Cancellable[A any](eff Effect[A], id any) Effect[A] {
	return Custom(func(sub *Subscriber[A]) {
		reg := mustRegistryFrom(sub.Context())
		l := sub.lifetime

		reg.Register(id, l.RunID, runHandle[A]{sub: sub})
		l.OnDispose(func() {
			reg.Deregister(id, l.RunID)
		})

		eff.run(sub)
	})
}

// Cancel cancels whatever is registered under id. Cancelling an unknown or
// already cancelled id does nothing.
func Cancel[A any](id any) Effect[A] {
	return FireAndForget[A](func(ctx context.Context) {
		mustRegistryFrom(ctx).Cancel(id)
	})
}

// Finish asks the run registered under id to stop gracefully.
//
// A run that registered finish hooks keeps running until it completes on
// its own, so it can still deliver a final result. A run without hooks is
// completed on the spot.
func Finish[A any](id any) Effect[A] {
	return FireAndForget[A](func(ctx context.Context) {
		mustRegistryFrom(ctx).Finish(id)
	})
}

var _ registry.Handle = runHandle[any]{}

type runHandle[A any] struct {
	sub *Subscriber[A]
}

func (h runHandle[A]) Cancel() {
	h.sub.lifetime.Dispose()
}

func (h runHandle[A]) Finish() {
	if !h.sub.lifetime.finish() {
		h.sub.Complete()
	}
}
