// Package queue buffers league changes between mutations and publishers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/meerkat/internal/domain/model"
	"github.com/okian/meerkat/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
)

// Change is the payload type flowing through the queue.
type Change = model.Change

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a change to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, c Change) bool

	// Dequeue returns the channel changes are delivered on.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Change

	// Len returns the current number of queued changes.
	Len(ctx context.Context) int

	// Close stops accepting changes.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	changes  chan Change
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.changes = make(chan Change, q.capacity)

	metrics.UpdateFeedQueueCapacity(q.capacity)
	metrics.UpdateFeedQueueSize(0)

	return q
}

// Enqueue adds a change without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Change) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordFeedDropped("closed")
		return false
	}

	select {
	case q.changes <- c:
		metrics.RecordFeedEnqueued()
		metrics.UpdateFeedQueueSize(len(q.changes))
		return true
	case <-ctx.Done():
		metrics.RecordFeedDropped("context_cancelled")
		return false
	default:
		metrics.RecordFeedDropped("queue_full")
		return false
	}
}

// Dequeue returns the underlying channel. Every consumer shares it, so each
// change is delivered to exactly one consumer.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Change {
	return q.changes
}

// Len returns the current number of queued changes.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.changes)
	metrics.UpdateFeedQueueSize(size)
	return size
}

// Close stops accepting changes. Changes already queued stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.changes)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
