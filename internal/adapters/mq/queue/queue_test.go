package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/househunt/internal/domain/model"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, model.SyncTask{Revision: 1, Reason: "mount"}); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	task := <-q.Dequeue(ctx)
	if task.Revision != 1 || task.Reason != "mount" {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := uint64(1); i <= 2; i++ {
		if err := q.Enqueue(ctx, model.SyncTask{Revision: i}); err != nil {
			t.Fatalf("expected enqueue %d to succeed, got %v", i, err)
		}
	}

	if err := q.Enqueue(ctx, model.SyncTask{Revision: 3}); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := uint64(1); i <= 5; i++ {
		if err := q.Enqueue(ctx, model.SyncTask{Revision: i}); err != nil {
			t.Fatal(err)
		}
	}

	ch := q.Dequeue(ctx)
	for want := uint64(1); want <= 5; want++ {
		got := <-ch
		if got.Revision != want {
			t.Fatalf("expected revision %d, got %d", want, got.Revision)
		}
	}
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := q.Enqueue(ctx, model.SyncTask{Reason: "refresh"}); err != nil {
					t.Errorf("enqueue failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if l := q.Len(); l != 500 {
		t.Errorf("expected 500 pending tasks, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, model.SyncTask{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected nothing queued, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, model.SyncTask{Revision: 1}); err != nil {
		t.Fatal(err)
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, model.SyncTask{Revision: 2}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Pending tasks drain before the channel closes.
	ch := q.Dequeue(ctx)
	timeout := time.After(time.Second)
	var drained int
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if drained != 1 {
					t.Errorf("expected 1 drained task, got %d", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
