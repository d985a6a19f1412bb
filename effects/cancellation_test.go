package effects_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/on-the-ground/unidir_go/effects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancellable_ReplacementCancelsPriorBeforeFirstEmission(t *testing.T) {
	ctx, reg := newTestContext()

	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	prior := effects.Cancellable(effects.Custom(func(s *effects.Subscriber[string]) {
		s.Lifetime().OnDispose(func() { record("prior disposed") })
	}), "X")
	next := effects.Cancellable(effects.Custom(func(s *effects.Subscriber[string]) {
		s.Send("next value")
	}), "X")

	obs := effects.Observer[string]{OnValue: record}
	priorRun := effects.Start(ctx, prior, obs)
	effects.Start(ctx, next, obs)

	assert.Equal(t, []string{"prior disposed", "next value"}, events)
	assert.True(t, priorRun.Cancelled())
	assert.Equal(t, 1, reg.Len())
}

func TestCancellable_DeregistersOnCompletion(t *testing.T) {
	ctx, reg := newTestContext()

	effects.Start(ctx, effects.Cancellable(effects.Values(1, 2), "X"), effects.Observer[int]{})
	assert.Equal(t, 0, reg.Len())

	effects.Start(ctx, effects.Cancellable(effects.Fail[int](errBoom), "X"), effects.Observer[int]{})
	assert.Equal(t, 0, reg.Len())
}

func TestCancellable_ReplacedRunDoesNotEvictSuccessor(t *testing.T) {
	ctx, reg := newTestContext()

	pending := func() effects.Effect[int] {
		return effects.Cancellable(effects.Custom(func(*effects.Subscriber[int]) {}), "X")
	}
	first := effects.Start(ctx, pending(), effects.Observer[int]{})
	second := effects.Start(ctx, pending(), effects.Observer[int]{})

	assert.True(t, first.Cancelled())
	entry, ok := reg.Lookup("X")
	require.True(t, ok)
	assert.Equal(t, second.RunID, entry.RunID)
}

func TestCancel_PreventsPendingResult(t *testing.T) {
	ctx, reg := newTestContext()
	c := newCollector[int]()

	effects.Start(ctx, effects.Cancellable(effects.Future(func(ctx context.Context) (int, error) {
		select {
		case <-time.After(10 * time.Millisecond):
			return 42, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}), "X"), c.observer())

	time.Sleep(5 * time.Millisecond)
	effects.Start(ctx, effects.Cancel[int]("X"), effects.Observer[int]{})

	time.Sleep(30 * time.Millisecond)
	values, errs, completed := c.snapshot()
	assert.Empty(t, values)
	assert.Empty(t, errs, "a cancelled run never reports its error")
	assert.Equal(t, 0, completed)
	assert.Equal(t, 0, reg.Len())
}

func TestCancel_IsIdempotent(t *testing.T) {
	ctx, reg := newTestContext()

	var disposed atomic.Int32
	effects.Start(ctx, effects.Cancellable(effects.Custom(func(s *effects.Subscriber[int]) {
		s.Lifetime().OnDispose(func() { disposed.Add(1) })
	}), "X"), effects.Observer[int]{})

	effects.Start(ctx, effects.Cancel[int]("X"), effects.Observer[int]{})
	effects.Start(ctx, effects.Cancel[int]("X"), effects.Observer[int]{})

	assert.Equal(t, int32(1), disposed.Load())
	assert.Equal(t, 0, reg.Len())
}

func TestCancellable_StaleErrorAfterCancelIsDropped(t *testing.T) {
	ctx, _ := newTestContext()
	c := newCollector[int]()

	fail := make(chan struct{})
	effects.Start(ctx, effects.Cancellable(effects.Custom(func(s *effects.Subscriber[int]) {
		go func() {
			<-fail
			s.SendError(errors.New("stale"))
		}()
	}), "X"), c.observer())

	effects.Start(ctx, effects.Cancel[int]("X"), effects.Observer[int]{})
	close(fail)

	time.Sleep(20 * time.Millisecond)
	_, errs, _ := c.snapshot()
	assert.Empty(t, errs)
}

func TestFinish_CompletesRunWithoutHooks(t *testing.T) {
	ctx, reg := newTestContext()
	c := newCollector[int]()

	l := effects.Start(ctx, effects.Cancellable(effects.Custom(func(*effects.Subscriber[int]) {}), "X"), c.observer())
	effects.Start(ctx, effects.Finish[int]("X"), effects.Observer[int]{})

	_, _, completed := c.snapshot()
	assert.Equal(t, 1, completed)
	assert.False(t, l.Cancelled())
	assert.Equal(t, 0, reg.Len())
}

func TestFinish_LetsFinalResultThrough(t *testing.T) {
	ctx, reg := newTestContext()
	c := newCollector[string]()

	effects.Start(ctx, effects.Cancellable(effects.Custom(func(s *effects.Subscriber[string]) {
		s.Send("partial")
		s.Lifetime().OnFinish(func() {
			go func() {
				s.Send("final")
				s.Complete()
			}()
		})
	}), "X"), c.observer())

	effects.Start(ctx, effects.Finish[string]("X"), effects.Observer[string]{})

	require.True(t, c.wait(time.Second))
	values, _, completed := c.snapshot()
	assert.Equal(t, []string{"partial", "final"}, values)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 0, reg.Len())
}

func TestCancellable_PanicsWithoutRegistry(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, effects.ErrNoRegistry)
	}()
	effects.Start(context.Background(), effects.Cancellable(effects.None[int](), "X"), effects.Observer[int]{})
}

func TestRegistryFrom(t *testing.T) {
	ctx, reg := newTestContext()

	got, err := effects.RegistryFrom(ctx)
	require.NoError(t, err)
	assert.Same(t, reg, got)

	_, err = effects.RegistryFrom(context.Background())
	assert.Error(t, err)
}
