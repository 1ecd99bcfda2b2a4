// Package queue holds pending sync tasks between a mutation and the refetch
// it triggers.
//
// The queue is bounded and FIFO. A single consumer preserves the order in
// which mutations completed.
package queue

import (
	"context"
	"sync"

	"github.com/okian/househunt/internal/domain/model"
	"github.com/okian/househunt/pkg/metrics"
)

const defaultQueueCapacity = 64

// Task is the payload type flowing through the queue.
type Task = model.SyncTask

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task. It returns ErrFull or ErrClosed without blocking.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue returns a channel that receives tasks in FIFO order.
	// The channel is closed when the queue is closed or ctx ends.
	Dequeue(ctx context.Context) <-chan Task

	// Len returns the number of pending tasks.
	Len() int

	// Close stops accepting tasks and closes the dequeue channel.
	Close() error

	// IsClosed reports whether Close was called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks    chan Task
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a task to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueRejected("context_cancelled")
		return ctx.Err()
	default:
	}

	select {
	case q.tasks <- t:
		metrics.UpdateQueueSize(len(q.tasks))
		return nil
	default:
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive tasks as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Task {
	out := make(chan Task)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-q.tasks:
				if !ok {
					return
				}
				metrics.UpdateQueueSize(len(q.tasks))
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued tasks.
func (q *InMemoryQueue) Len() int {
	return len(q.tasks)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
