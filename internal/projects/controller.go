package projects

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/househunt/internal/adapters/mq/queue"
	"github.com/okian/househunt/internal/adapters/mq/worker"
	"github.com/okian/househunt/internal/adapters/remote"
	"github.com/okian/househunt/internal/domain/criteria"
	"github.com/okian/househunt/internal/domain/model"
	"github.com/okian/househunt/internal/domain/scoring"
	"github.com/okian/househunt/pkg/logger"
	"github.com/okian/househunt/pkg/metrics"
)

const (
	defaultQueueCapacity = 64
	unmountTimeout       = 5 * time.Second
)

// Sync task reasons.
const (
	ReasonMount         = "mount"
	ReasonCreateProject = "create_project"
	ReasonAddEntry      = "add_entry"
	ReasonRefresh       = "refresh"
)

// Remote is the durable project store.
type Remote interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, draft model.ProjectDraft) error
	AddEntry(ctx context.Context, projectID string, entry model.Entry) error
}

// Authenticator reports whether the session is live.
type Authenticator interface {
	Authenticated() bool
}

// Controller runs mutations against the remote store and keeps the local
// Store in sync by refetching after each one.
type Controller struct {
	remote        Remote
	store         *Store
	auth          Authenticator
	queueCapacity int
	logger        logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	queue  *queue.InMemoryQueue
	worker *worker.RefetchWorker
}

// NewController creates a controller over remote.
func NewController(r Remote, opts ...Option) *Controller {
	c := &Controller{
		remote:        r,
		queueCapacity: defaultQueueCapacity,
		logger:        logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NewStore()
	}
	c.logger = c.logger.Named("sync")
	return c
}

// Mount starts the refetch worker and schedules the initial load.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return ErrAlreadyMounted
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.queue = queue.NewInMemoryQueue(queue.WithCapacity(c.queueCapacity))
	c.worker = worker.NewRefetchWorker(c.queue, c.remote, c.store, worker.WithLogger(c.logger))
	go c.worker.Run(runCtx)

	return c.enqueueLocked(runCtx, c.store.Revision(), ReasonMount)
}

// Unmount stops the worker. In-flight reads are cancelled and their results
// dropped; the store is not touched after Unmount returns.
func (c *Controller) Unmount() {
	c.mu.Lock()
	cancel, w, q := c.cancel, c.worker, c.queue
	c.cancel, c.worker, c.queue = nil, nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	ctx, done := context.WithTimeout(context.Background(), unmountTimeout)
	defer done()
	if err := w.Shutdown(ctx); err != nil {
		c.logger.Warn(ctx, "refetch worker did not stop", logger.Error(err))
	}
	_ = q.Close()
}

// CreateProject validates the draft locally, submits it, and on success bumps
// the revision and schedules one refetch. It returns the new revision.
// On failure nothing is bumped.
func (c *Controller) CreateProject(ctx context.Context, title, description string, schema *criteria.Schema) (uint64, error) {
	draft := model.ProjectDraft{Title: title, Description: description, Schema: schema.Clone()}
	if err := draft.Validate(); err != nil {
		metrics.RecordMutation(ReasonCreateProject, "invalid")
		return 0, err
	}
	if err := c.checkAuth(); err != nil {
		metrics.RecordMutation(ReasonCreateProject, "unauthenticated")
		return 0, fmt.Errorf("create project: %w", err)
	}
	if err := c.remote.CreateProject(ctx, draft); err != nil {
		metrics.RecordMutation(ReasonCreateProject, "failed")
		c.logger.Error(ctx, "create project failed", logger.String("title", title), logger.Error(err))
		return 0, fmt.Errorf("create project: %w", err)
	}
	metrics.RecordMutation(ReasonCreateProject, "ok")
	return c.committed(ctx, ReasonCreateProject), nil
}

// AddEntry validates and submits a new entry. Notes default to a single
// placeholder. Nothing is inserted locally; the entry appears after the
// refetch it schedules.
func (c *Controller) AddEntry(ctx context.Context, projectID string, draft *model.EntryDraft) (uint64, error) {
	if projectID == "" {
		metrics.RecordMutation(ReasonAddEntry, "invalid")
		return 0, ErrEmptyProjectID
	}
	if draft == nil {
		draft = &model.EntryDraft{}
	}
	entry, err := draft.Submission()
	if err != nil {
		metrics.RecordMutation(ReasonAddEntry, "invalid")
		return 0, err
	}
	if err := c.checkAuth(); err != nil {
		metrics.RecordMutation(ReasonAddEntry, "unauthenticated")
		return 0, fmt.Errorf("add entry: %w", err)
	}
	if err := c.remote.AddEntry(ctx, projectID, entry); err != nil {
		metrics.RecordMutation(ReasonAddEntry, "failed")
		c.logger.Error(ctx, "add entry failed",
			logger.String("project_id", projectID),
			logger.String("address", entry.Address),
			logger.Error(err),
		)
		return 0, fmt.Errorf("add entry to %s: %w", projectID, err)
	}
	metrics.RecordMutation(ReasonAddEntry, "ok")
	return c.committed(ctx, ReasonAddEntry), nil
}

// Refresh bumps the revision and schedules a refetch.
func (c *Controller) Refresh(ctx context.Context) uint64 {
	return c.committed(ctx, ReasonRefresh)
}

// Snapshot returns the current cache state.
func (c *Controller) Snapshot() Snapshot { return c.store.Snapshot() }

// Wait blocks until a load covering rev has settled.
func (c *Controller) Wait(ctx context.Context, rev uint64) (Snapshot, error) {
	return c.store.Wait(ctx, rev)
}

// Subscribe registers fn for change notifications.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	return c.store.Subscribe(fn)
}

// Summaries recomputes the entry summaries of a cached project.
func (c *Controller) Summaries(projectID string) ([]scoring.EntrySummary, bool) {
	p, ok := c.store.Snapshot().Project(projectID)
	if !ok {
		return nil, false
	}
	return p.Summaries(), true
}

func (c *Controller) checkAuth() error {
	if c.auth != nil && !c.auth.Authenticated() {
		return remote.ErrAuth
	}
	return nil
}

// committed bumps the revision and schedules the refetch for it.
func (c *Controller) committed(ctx context.Context, reason string) uint64 {
	rev := c.store.Bump()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue == nil {
		c.logger.Debug(ctx, "not mounted; refetch deferred to mount", logger.Uint64("revision", rev))
		return rev
	}
	if err := c.enqueueLocked(ctx, rev, reason); err != nil {
		c.logger.Warn(ctx, "refetch not scheduled",
			logger.Uint64("revision", rev),
			logger.String("reason", reason),
			logger.Error(err),
		)
	}
	return rev
}

func (c *Controller) enqueueLocked(ctx context.Context, rev uint64, reason string) error {
	task := model.SyncTask{Revision: rev, Reason: reason, EnqueuedAt: time.Now()}
	if err := c.queue.Enqueue(context.WithoutCancel(ctx), task); err != nil {
		return fmt.Errorf("enqueue %s refetch: %w", reason, err)
	}
	return nil
}
