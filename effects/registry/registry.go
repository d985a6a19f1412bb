// Package registry tracks running effects by caller-chosen identity so they can
// be cancelled, finished or replaced.
//
// A Registry is owned by exactly one store. Tokens are any comparable value;
// two stores may use identical tokens without interfering with each other.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	effectmodel "github.com/on-the-ground/unidir_go/effects/internal/model"
)

// Handle is the control surface of one running effect.
//
// Cancel aborts the run and must be idempotent. Finish asks the run to stop
// gracefully and may still let it deliver a final result.
type Handle interface {
	Cancel()
	Finish()
}

// Config is the registry configuration.
type Config = effectmodel.RegistryConfig

// NewConfig normalises non-positive values to their defaults.
func NewConfig(numShards int) Config {
	return effectmodel.NewRegistryConfig(numShards)
}

// Registry maps tokens to the handle of the run currently registered under them.
//
// Every operation is atomic relative to the others. Handle callbacks are never
// invoked while a shard lock is held, so a handle may deregister itself from
// within Cancel.
type Registry struct {
	shards []*shard
	now    func() time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[any]Entry
}

// New creates an empty registry.
func New(config Config) *Registry {
	config = NewConfig(config.NumShards)
	shards := make([]*shard, config.NumShards)
	for i := range shards {
		shards[i] = &shard{entries: make(map[any]Entry)}
	}
	return &Registry{
		shards: shards,
		now:    time.Now,
	}
}

func (r *Registry) shardOf(id any) *shard {
	return r.shards[getIndexByHash(id, len(r.shards))]
}

// Register installs handle as the run registered under id.
//
// A previous run under the same id is removed and cancelled before Register
// returns, so the new run never observes a live predecessor.
func (r *Registry) Register(id any, runID uuid.UUID, handle Handle) {
	s := r.shardOf(id)

	s.mu.Lock()
	prior, replaced := s.entries[id]
	s.entries[id] = Entry{
		ID:      id,
		RunID:   runID,
		Handle:  handle,
		Started: r.now(),
	}
	s.mu.Unlock()

	// re-registering the same run under the same id is not a replacement
	if replaced && prior.RunID != runID {
		prior.Handle.Cancel()
	}
}

// Cancel removes and cancels whatever is registered under id.
// It reports whether an entry was removed; a second call is a no-op.
func (r *Registry) Cancel(id any) bool {
	s := r.shardOf(id)

	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()

	if ok {
		entry.Handle.Cancel()
	}
	return ok
}

// Deregister removes the entry under id only if it still belongs to runID.
// A run that has been replaced cannot evict its successor.
func (r *Registry) Deregister(id any, runID uuid.UUID) bool {
	s := r.shardOf(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.RunID != runID {
		return false
	}
	delete(s.entries, id)
	return true
}

// Finish asks the run under id to stop gracefully.
// The entry stays registered until the run terminates and deregisters.
func (r *Registry) Finish(id any) bool {
	entry, ok := r.Lookup(id)
	if ok {
		entry.Handle.Finish()
	}
	return ok
}

// Lookup returns the entry currently registered under id.
func (r *Registry) Lookup(id any) (Entry, bool) {
	s := r.shardOf(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	return entry, ok
}

// CancelAll removes and cancels every entry, returning how many were cancelled.
func (r *Registry) CancelAll() int {
	var removed []Entry
	for _, s := range r.shards {
		s.mu.Lock()
		for id, entry := range s.entries {
			removed = append(removed, entry)
			delete(s.entries, id)
		}
		s.mu.Unlock()
	}

	for _, entry := range removed {
		entry.Handle.Cancel()
	}
	return len(removed)
}

// Entries returns a copy of all current entries in no particular order.
func (r *Registry) Entries() []Entry {
	var entries []Entry
	for _, s := range r.shards {
		s.mu.Lock()
		for _, entry := range s.entries {
			entries = append(entries, entry)
		}
		s.mu.Unlock()
	}
	return entries
}

// Len returns the number of registered runs.
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}
