package effects_test

import (
	"context"
	"sync"
	"time"

	"github.com/on-the-ground/unidir_go/effects"
	"github.com/on-the-ground/unidir_go/effects/registry"
)

func newTestContext() (context.Context, *registry.Registry) {
	reg := registry.New(registry.NewConfig(1))
	return effects.WithRegistry(context.Background(), reg), reg
}

// collector records everything a run delivers.
type collector[A any] struct {
	mu        sync.Mutex
	values    []A
	errs      []error
	completed int
	done      chan struct{}
	once      sync.Once
}

func newCollector[A any]() *collector[A] {
	return &collector[A]{done: make(chan struct{})}
}

func (c *collector[A]) observer() effects.Observer[A] {
	return effects.Observer[A]{
		OnValue: func(v A) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.values = append(c.values, v)
		},
		OnError: func(err error) {
			c.mu.Lock()
			c.errs = append(c.errs, err)
			c.mu.Unlock()
			c.once.Do(func() { close(c.done) })
		},
		OnComplete: func() {
			c.mu.Lock()
			c.completed++
			c.mu.Unlock()
			c.once.Do(func() { close(c.done) })
		},
	}
}

func (c *collector[A]) wait(timeout time.Duration) bool {
	select {
	case <-c.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (c *collector[A]) snapshot() ([]A, []error, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]A(nil), c.values...), append([]error(nil), c.errs...), c.completed
}
