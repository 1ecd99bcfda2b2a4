// Package repository persists projects for the project API.
//
// Three backends share one contract: an in-memory map, Redis, and Postgres.
// Records are keyed by project id and grouped by owner.
package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/okian/househunt/internal/domain/types"
	"github.com/okian/househunt/pkg/metrics"
)

// Record is one stored project.
type Record struct {
	ID        string        `json:"id"`
	OwnerID   string        `json:"ownerId"`
	Email     string        `json:"email"`
	Project   types.Project `json:"project"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (r Record) validate() error {
	if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.OwnerID) == "" {
		return ErrInvalidRecord
	}
	return nil
}

// Store provides read/write access to stored projects.
type Store interface {
	// ListProjects returns the owner's projects, oldest first.
	ListProjects(ctx context.Context, ownerID string) ([]Record, error)

	// GetProject returns ErrNotFound for unknown ids.
	GetProject(ctx context.Context, projectID string) (Record, error)

	// PutProject creates or fully overwrites a record.
	PutProject(ctx context.Context, rec Record) error

	// AppendEntry appends to the project's entries atomically.
	// Returns ErrNotFound for unknown ids.
	AppendEntry(ctx context.Context, projectID string, entry types.HouseEntry) error

	// Close releases backend resources.
	Close() error
}

func sortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}

// Instrumented wraps a store and records per-operation metrics.
type Instrumented struct {
	next    Store
	backend string
}

// Instrument wraps next, labelling its metrics with backend.
func Instrument(next Store, backend string) *Instrumented {
	return &Instrumented{next: next, backend: backend}
}

// ListProjects implements Store.
func (s *Instrumented) ListProjects(ctx context.Context, ownerID string) ([]Record, error) {
	start := time.Now()
	recs, err := s.next.ListProjects(ctx, ownerID)
	metrics.RecordRepositoryOp(s.backend, "list_projects", err, metrics.SinceMillis(start))
	return recs, err
}

// GetProject implements Store.
func (s *Instrumented) GetProject(ctx context.Context, projectID string) (Record, error) {
	start := time.Now()
	rec, err := s.next.GetProject(ctx, projectID)
	metrics.RecordRepositoryOp(s.backend, "get_project", err, metrics.SinceMillis(start))
	return rec, err
}

// PutProject implements Store.
func (s *Instrumented) PutProject(ctx context.Context, rec Record) error {
	start := time.Now()
	err := s.next.PutProject(ctx, rec)
	metrics.RecordRepositoryOp(s.backend, "put_project", err, metrics.SinceMillis(start))
	return err
}

// AppendEntry implements Store.
func (s *Instrumented) AppendEntry(ctx context.Context, projectID string, entry types.HouseEntry) error {
	start := time.Now()
	err := s.next.AppendEntry(ctx, projectID, entry)
	metrics.RecordRepositoryOp(s.backend, "append_entry", err, metrics.SinceMillis(start))
	return err
}

// Close implements Store.
func (s *Instrumented) Close() error { return s.next.Close() }
