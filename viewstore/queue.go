package viewstore

import "sync"

// deliveryQueue runs observer deliveries one at a time and in order.
//
// Whoever enqueues while nobody is delivering runs the queue until it is
// empty; everybody else only appends. An observer that sends an action, and
// so causes another delivery, never waits on itself.
type deliveryQueue struct {
	mu         sync.Mutex
	items      []func()
	delivering bool
}

func (q *deliveryQueue) enqueue(fn func()) {
	q.mu.Lock()
	q.items = append(q.items, fn)
	if q.delivering {
		q.mu.Unlock()
		return
	}
	q.delivering = true
	q.mu.Unlock()

	q.drain()
}

func (q *deliveryQueue) drain() {
	defer func() {
		if r := recover(); r != nil {
			q.mu.Lock()
			q.delivering = false
			q.mu.Unlock()
			panic(r)
		}
	}()

	for {
		fn, ok := q.next()
		if !ok {
			return
		}
		fn()
	}
}

func (q *deliveryQueue) next() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		q.items = q.items[:0]
		q.delivering = false
		return nil, false
	}
	fn := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return fn, true
}
