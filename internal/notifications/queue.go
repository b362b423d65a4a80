// Package notifications provides the in-app notification feed.
package notifications

import (
	"context"
	"sync"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
)

// DefaultQueueCapacity is the number of notifications kept before the oldest are dropped.
const DefaultQueueCapacity = 100

// Queue is a bounded notification buffer. Enqueue assigns the ID.
// When full, the oldest entry is dropped to make room.
type Queue interface {
	Enqueue(ctx context.Context, n *domain.Notification) error
	// Drain returns all entries oldest first and empties the queue atomically.
	Drain(ctx context.Context) ([]domain.Notification, error)
	Clear(ctx context.Context) error
}

// RingQueue is an in-process Queue backed by a fixed-size ring buffer.
type RingQueue struct {
	mu   sync.Mutex
	buf  []domain.Notification
	head int
	size int
	seq  int64
}

// NewRingQueue creates a ring queue. Capacity below one uses DefaultQueueCapacity.
func NewRingQueue(capacity int) *RingQueue {
	if capacity < 1 {
		capacity = DefaultQueueCapacity
	}
	return &RingQueue{buf: make([]domain.Notification, capacity)}
}

// Enqueue appends n, overwriting the oldest entry when full.
func (q *RingQueue) Enqueue(_ context.Context, n *domain.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	n.ID = q.seq

	capacity := len(q.buf)
	if q.size == capacity {
		q.buf[q.head] = *n
		q.head = (q.head + 1) % capacity
		recordDropped(1)
		return nil
	}
	q.buf[(q.head+q.size)%capacity] = *n
	q.size++
	return nil
}

// Drain returns and removes all entries.
func (q *RingQueue) Drain(_ context.Context) ([]domain.Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.Notification, 0, q.size)
	for i := 0; i < q.size; i++ {
		out = append(out, q.buf[(q.head+i)%len(q.buf)])
	}
	q.reset()
	return out, nil
}

// Clear removes all entries. IDs keep increasing.
func (q *RingQueue) Clear(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reset()
	return nil
}

// Len returns the number of buffered entries.
func (q *RingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *RingQueue) reset() {
	for i := range q.buf {
		q.buf[i] = domain.Notification{}
	}
	q.head = 0
	q.size = 0
}
