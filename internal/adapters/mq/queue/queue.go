// Package queue holds scoring runs waiting for a worker.
package queue

import (
	"context"
	"sync"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/metrics"
)

const defaultCapacity = 1000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a run without blocking. ErrFull signals backpressure.
	Enqueue(ctx context.Context, r model.RunRequest) error

	// Dequeue returns a channel of runs; it closes when the queue is closed.
	Dequeue(ctx context.Context) <-chan model.RunRequest

	Len() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	runs     chan model.RunRequest
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.runs = make(chan model.RunRequest, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a run to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r model.RunRequest) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return err
	}

	select {
	case q.runs <- r:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.runs))
		return nil
	default:
		metrics.RecordQueueEnqueueError("full")
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return ErrFull
	}
}

// Dequeue returns a channel that receives runs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.RunRequest {
	out := make(chan model.RunRequest)
	go func() {
		defer close(out)
		for r := range q.runs {
			select {
			case out <- r:
				metrics.UpdateQueueSize(len(q.runs))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of pending runs.
func (q *InMemoryQueue) Len() int {
	size := len(q.runs)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting runs; pending runs are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.runs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
