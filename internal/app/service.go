// Package service implements the project API on top of a repository store.
//
// Every operation is scoped to the caller's identity. Project ids are
// derived from the owner's email and the project title, so creating a
// project with an existing title overwrites it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/househunt/internal/adapters/repository"
	"github.com/okian/househunt/internal/auth"
	"github.com/okian/househunt/internal/domain/model"
	"github.com/okian/househunt/internal/domain/types"
	"github.com/okian/househunt/pkg/logger"
	"github.com/okian/househunt/pkg/metrics"
)

// Store backends accepted by OpenStore.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Service implements the API dependencies for the project store.
type Service struct {
	store  repository.Store
	newID  func() string
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDFunc overrides the generator for criterion ids the client omitted.
func WithIDFunc(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New constructs a new Service.
func New(opts ...Option) *Service {
	s := &Service{
		newID:  uuid.NewString,
		logger: logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.Instrument(repository.NewMemoryStore(), BackendMemory)
	}
	return s
}

// OpenStore connects the named backend and wraps it with metrics.
func OpenStore(ctx context.Context, backend, redisURL, databaseURL string, opts ...repository.Option) (repository.Store, error) {
	var (
		store repository.Store
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		backend = BackendMemory
		store = repository.NewMemoryStore(opts...)
	case BackendRedis:
		store, err = repository.NewRedisStore(ctx, redisURL, opts...)
	case BackendPostgres:
		store, err = repository.OpenPostgres(ctx, databaseURL, opts...)
	default:
		return nil, fmt.Errorf("%q: %w", backend, repository.ErrUnknownBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}
	return repository.Instrument(store, backend), nil
}

// ProjectID derives the id of the owner's project with the given title.
func ProjectID(email, title string) string {
	return uuid.NewMD5(auth.Namespace, []byte("PROJECTID::"+email+"::"+title)).String()
}

// ListProjects returns the caller's projects, oldest first.
func (s *Service) ListProjects(ctx context.Context, id auth.Identity) ([]types.ProjectEnvelope, error) {
	recs, err := s.store.ListProjects(ctx, id.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]types.ProjectEnvelope, 0, len(recs))
	for _, r := range recs {
		out = append(out, envelope(r))
	}
	return out, nil
}

// GetProject returns one project owned by the caller.
func (s *Service) GetProject(ctx context.Context, id auth.Identity, projectID string) (types.ProjectEnvelope, error) {
	rec, err := s.owned(ctx, id, projectID)
	if err != nil {
		return types.ProjectEnvelope{}, err
	}
	return envelope(rec), nil
}

// CreateProject stores p for the caller and returns its id.
func (s *Service) CreateProject(ctx context.Context, id auth.Identity, p types.Project) (string, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return "", ErrEmptyTitle
	}
	p.Criteria = s.normalizeCriteria(p.Criteria)
	if len(p.Criteria) == 0 {
		return "", ErrEmptyCriteria
	}
	entries := make([]types.HouseEntry, 0, len(p.HouseEntries))
	for _, e := range p.HouseEntries {
		if strings.TrimSpace(e.Address) == "" {
			continue
		}
		entries = append(entries, normalizeEntry(e))
	}
	p.HouseEntries = entries

	rec := repository.Record{
		ID:      ProjectID(id.Email, p.Title),
		OwnerID: id.OwnerID,
		Email:   id.Email,
		Project: p,
	}
	if err := s.store.PutProject(ctx, rec); err != nil {
		return "", fmt.Errorf("create project: %w", err)
	}
	metrics.RecordProjectCreated()
	s.logger.Info(ctx, "project stored",
		logger.String("projectId", rec.ID),
		logger.Int("criteria", len(p.Criteria)),
	)
	return rec.ID, nil
}

// AppendEntry adds one house entry to a project owned by the caller.
func (s *Service) AppendEntry(ctx context.Context, id auth.Identity, projectID string, e types.HouseEntry) error {
	if strings.TrimSpace(e.Address) == "" {
		return ErrEmptyAddress
	}
	if _, err := s.owned(ctx, id, projectID); err != nil {
		return err
	}
	if err := s.store.AppendEntry(ctx, projectID, normalizeEntry(e)); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	metrics.RecordEntryAppended()
	s.logger.Debug(ctx, "entry appended", logger.String("projectId", projectID))
	return nil
}

// Close releases the store.
func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) owned(ctx context.Context, id auth.Identity, projectID string) (repository.Record, error) {
	if id.OwnerID == "" {
		return repository.Record{}, ErrUnauthenticated
	}
	if strings.TrimSpace(projectID) == "" {
		return repository.Record{}, ErrEmptyProjectID
	}
	rec, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Record{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
		return repository.Record{}, fmt.Errorf("get project: %w", err)
	}
	if rec.OwnerID != id.OwnerID {
		return repository.Record{}, ErrForbidden
	}
	return rec, nil
}

// normalizeCriteria converts legacy shapes, drops criteria without a
// category, keeps client ids and assigns the missing ones. Duplicate ids
// keep the first occurrence.
func (s *Service) normalizeCriteria(in []types.Criterion) []types.Criterion {
	out := make([]types.Criterion, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		c = c.Normalized()
		c.Category = strings.TrimSpace(c.Category)
		if c.Category == "" {
			continue
		}
		if c.ID == "" {
			c.ID = s.newID()
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		if c.Items == nil {
			c.Items = []string{}
		}
		out = append(out, c)
	}
	return out
}

func normalizeEntry(e types.HouseEntry) types.HouseEntry {
	e.Address = strings.TrimSpace(e.Address)
	scores := make([]types.Score, 0, len(e.Scores))
	for _, sc := range types.ClampScores(e.Scores) {
		if sc.CriteriaID != "" {
			scores = append(scores, sc)
		}
	}
	e.Scores = scores
	notes := make([]string, 0, len(e.Notes))
	for _, n := range e.Notes {
		if strings.TrimSpace(n) != "" {
			notes = append(notes, n)
		}
	}
	if len(notes) == 0 {
		notes = []string{model.DefaultNote}
	}
	e.Notes = notes
	return e
}

func envelope(r repository.Record) types.ProjectEnvelope {
	p := r.Project
	if p.Criteria == nil {
		p.Criteria = []types.Criterion{}
	}
	if p.HouseEntries == nil {
		p.HouseEntries = []types.HouseEntry{}
	}
	return types.ProjectEnvelope{ProjectID: r.ID, Project: p}
}
