// Package queue provides the fixed-capacity event queue owned by an active object.
package queue

import "sync"

// Ring is a bounded FIFO over a backing array allocated once by New.
// Size is tracked explicitly, so every slot is usable.
//
// A Ring is safe for one producer and one consumer running concurrently.
type Ring[T any] struct {
	mu    sync.Mutex
	items []T
	front int
	size  int
}

// New creates a ring holding at most capacity items.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		panic("queue: capacity must be greater than zero")
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Enqueue appends item. It returns false and leaves the ring unchanged when full.
func (q *Ring[T]) Enqueue(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.items) {
		return false
	}
	rear := (q.front + q.size) % len(q.items)
	q.items[rear] = item
	q.size++
	return true
}

// Dequeue removes and returns the oldest item, or the zero value when empty.
// Use TryDequeue when a zero value could be mistaken for real data.
func (q *Ring[T]) Dequeue() T {
	item, _ := q.TryDequeue()
	return item
}

// TryDequeue removes and returns the oldest item.
func (q *Ring[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}
	item := q.items[q.front]
	q.items[q.front] = zero
	q.front = (q.front + 1) % len(q.items)
	q.size--
	if q.size == 0 {
		q.front = 0
	}
	return item, true
}

// Peek returns the oldest item without removing it, or the zero value when empty.
func (q *Ring[T]) Peek() T {
	item, _ := q.TryPeek()
	return item
}

// TryPeek returns the oldest item without removing it.
func (q *Ring[T]) TryPeek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.items[q.front], true
}

// Len returns the number of queued items.
func (q *Ring[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the fixed capacity.
func (q *Ring[T]) Cap() int {
	return len(q.items)
}

// IsEmpty reports whether the ring holds no items.
func (q *Ring[T]) IsEmpty() bool {
	return q.Len() == 0
}

// IsFull reports whether the next Enqueue would fail.
func (q *Ring[T]) IsFull() bool {
	return q.Len() == len(q.items)
}

// Reset drops all queued items. The backing array is kept.
func (q *Ring[T]) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	clear(q.items)
	q.front = 0
	q.size = 0
}
