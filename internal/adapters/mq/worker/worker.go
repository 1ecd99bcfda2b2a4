package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/househunt/internal/adapters/mq/queue"
	"github.com/okian/househunt/internal/domain/model"
	"github.com/okian/househunt/pkg/logger"
	"github.com/okian/househunt/pkg/metrics"
)

// Fetcher reads all projects visible to the current identity.
type Fetcher interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// Applier receives load results. BeginLoad marks the start of a load and
// returns the revision it covers.
type Applier interface {
	BeginLoad() uint64
	Replace(rev uint64, projects []model.Project)
	Fail(rev uint64, err error)
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker processes sync tasks until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// RefetchWorker consumes sync tasks one at a time. Each task triggers a full
// read whose result replaces the applier's state wholesale. Tasks run in
// queue order, and the applier discards results older than the last one it
// installed.
type RefetchWorker struct {
	queue   Queue
	fetcher Fetcher
	applier Applier
	name    string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewRefetchWorker creates a new worker with configuration options.
func NewRefetchWorker(q Queue, fetcher Fetcher, applier Applier, opts ...Option) *RefetchWorker {
	w := &RefetchWorker{
		queue:    q,
		fetcher:  fetcher,
		applier:  applier,
		name:     "refetch",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *RefetchWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			if err := w.process(ctx, task); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Warn(ctx, "refetch failed",
					logger.Uint64("task_revision", task.Revision),
					logger.String("reason", task.Reason),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for Run to return.
func (w *RefetchWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *RefetchWorker) Done() <-chan struct{} { return w.done }

// process runs one load. Results that arrive after ctx ended are dropped.
func (w *RefetchWorker) process(ctx context.Context, task queue.Task) error {
	start := time.Now()
	rev := w.applier.BeginLoad()

	projects, err := w.fetcher.ListProjects(ctx)
	if ctx.Err() != nil {
		metrics.RecordRefetch(metrics.RefetchCancelled, metrics.SinceMillis(start))
		return ctx.Err()
	}
	select {
	case <-w.shutdown:
		metrics.RecordRefetch(metrics.RefetchCancelled, metrics.SinceMillis(start))
		return context.Canceled
	default:
	}

	latency := metrics.SinceMillis(start)
	if !task.EnqueuedAt.IsZero() {
		metrics.RecordWorkerProcessed(metrics.SinceMillis(task.EnqueuedAt))
	}

	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordRefetch(metrics.RefetchFailed, latency)
		w.applier.Fail(rev, err)
		return fmt.Errorf("list projects at revision %d: %w", rev, err)
	}

	result := metrics.RefetchLoaded
	if len(projects) == 0 {
		result = metrics.RefetchEmpty
	}
	metrics.RecordRefetch(result, latency)
	w.applier.Replace(rev, projects)
	w.logger.Debug(ctx, "refetch applied",
		logger.Uint64("revision", rev),
		logger.Int("projects", len(projects)),
	)
	return nil
}
