package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/okian/househunt/internal/domain/types"
)

// MemoryStore keeps records in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	opts    options
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		opts:    newOptions(opts),
	}
}

// ListProjects implements Store.
func (s *MemoryStore) ListProjects(_ context.Context, ownerID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, r := range s.records {
		if r.OwnerID == ownerID {
			cp, err := deepCopy(r)
			if err != nil {
				return nil, err
			}
			out = append(out, cp)
		}
	}
	sortRecords(out)
	return out, nil
}

// GetProject implements Store.
func (s *MemoryStore) GetProject(_ context.Context, projectID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[projectID]
	if !ok {
		return Record{}, fmt.Errorf("get %s: %w", projectID, ErrNotFound)
	}
	return deepCopy(r)
}

// PutProject implements Store. Overwrites keep the original creation time.
func (s *MemoryStore) PutProject(_ context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	cp, err := deepCopy(rec)
	if err != nil {
		return err
	}
	now := s.opts.now()
	cp.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.records[rec.ID]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	s.records[rec.ID] = cp
	return nil
}

// AppendEntry implements Store.
func (s *MemoryStore) AppendEntry(_ context.Context, projectID string, entry types.HouseEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[projectID]
	if !ok {
		return fmt.Errorf("append to %s: %w", projectID, ErrNotFound)
	}
	entries := make([]types.HouseEntry, 0, len(r.Project.HouseEntries)+1)
	entries = append(entries, r.Project.HouseEntries...)
	r.Project.HouseEntries = append(entries, entry)
	r.UpdatedAt = s.opts.now()
	s.records[projectID] = r
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// deepCopy detaches a record from caller-owned slices.
func deepCopy(r Record) (Record, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return Record{}, fmt.Errorf("copy record: %w", err)
	}
	var out Record
	if err := json.Unmarshal(b, &out); err != nil {
		return Record{}, fmt.Errorf("copy record: %w", err)
	}
	return out, nil
}
