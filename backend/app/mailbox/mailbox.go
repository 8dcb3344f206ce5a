// Package mailbox provides keyed, mutex-guarded stores with a fixed
// consumption policy. Every method is atomic with respect to every other
// method on the same mailbox.
package mailbox

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("mailbox: key not found")

// Slot holds at most one value per key. Put replaces whatever is there.
type Slot[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]V
}

func NewSlot[K comparable, V any]() *Slot[K, V] {
	return &Slot[K, V]{items: make(map[K]V)}
}

// Put stores v under k and reports whether an unconsumed value was replaced.
func (s *Slot[K, V]) Put(k K, v V) bool {
	s.mu.Lock()
	_, replaced := s.items[k]
	s.items[k] = v
	s.mu.Unlock()
	return replaced
}

// Take removes and returns the value under k.
func (s *Slot[K, V]) Take(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[k]
	if ok {
		delete(s.items, k)
	}
	return v, ok
}

// TakeIf removes the value under k only when pred accepts it. The value is
// returned either way so callers can tell "present but not ready" apart
// from "absent".
func (s *Slot[K, V]) TakeIf(k K, pred func(V) bool) (v V, present bool, taken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, present = s.items[k]
	if !present {
		return v, false, false
	}
	if pred(v) {
		delete(s.items, k)
		return v, true, true
	}
	return v, true, false
}

func (s *Slot[K, V]) Peek(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[k]
	return v, ok
}

// Update replaces the value under k with fn's result. If fn fails the
// stored value is left untouched.
func (s *Slot[K, V]) Update(k K, fn func(V) (V, error)) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[k]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	s.items[k] = next
	return next, nil
}

// Values returns a snapshot of every stored value in unspecified order.
func (s *Slot[K, V]) Values() []V {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]V, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out
}

func (s *Slot[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]K, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	return out
}

// Evict removes every value pred accepts and returns them.
func (s *Slot[K, V]) Evict(pred func(K, V) bool) []V {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []V
	for k, v := range s.items {
		if pred(k, v) {
			out = append(out, v)
			delete(s.items, k)
		}
	}
	return out
}

func (s *Slot[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Queue is a FIFO per key. With a positive capacity it is a bounded FIFO:
// Put appends then drops from the front until the key fits again.
type Queue[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K][]V
}

// NewQueue returns a queue; capacity <= 0 means unbounded.
func NewQueue[K comparable, V any](capacity int) *Queue[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue[K, V]{capacity: capacity, items: make(map[K][]V)}
}

func (q *Queue[K, V]) Capacity() int { return q.capacity }

// Put appends v to k's FIFO and returns what overflow discarded, oldest first.
func (q *Queue[K, V]) Put(k K, v V) []V {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := append(q.items[k], v)
	var dropped []V
	if q.capacity > 0 && len(list) > q.capacity {
		n := len(list) - q.capacity
		dropped = make([]V, n)
		copy(dropped, list[:n])
		list = append(list[:0:0], list[n:]...)
	}
	q.items[k] = list
	return dropped
}

// Take pops the oldest value for k.
func (q *Queue[K, V]) Take(k K) (V, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.items[k]
	if len(list) == 0 {
		var zero V
		return zero, false
	}
	v := list[0]
	var zero V
	list[0] = zero
	list = list[1:]
	if len(list) == 0 {
		delete(q.items, k)
	} else {
		q.items[k] = list
	}
	return v, true
}

// TakeAll pops every value for k in FIFO order.
func (q *Queue[K, V]) TakeAll(k K) []V {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.items[k]
	delete(q.items, k)
	return list
}

func (q *Queue[K, V]) Peek(k K) (V, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.items[k]
	if len(list) == 0 {
		var zero V
		return zero, false
	}
	return list[0], true
}

func (q *Queue[K, V]) Len(k K) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items[k])
}

// Total counts values across all keys.
func (q *Queue[K, V]) Total() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, list := range q.items {
		n += len(list)
	}
	return n
}

// Evict removes every value pred accepts, preserving the order of the rest.
func (q *Queue[K, V]) Evict(pred func(K, V) bool) []V {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []V
	for k, list := range q.items {
		kept := list[:0]
		for _, v := range list {
			if pred(k, v) {
				out = append(out, v)
				continue
			}
			kept = append(kept, v)
		}
		var zero V
		for i := len(kept); i < len(list); i++ {
			list[i] = zero
		}
		if len(kept) == 0 {
			delete(q.items, k)
		} else {
			q.items[k] = kept
		}
	}
	return out
}
