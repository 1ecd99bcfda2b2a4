// Package projects keeps the local, read-through cache of the current user's
// projects and drives its resynchronization with the remote store.
//
// The remote store is the only source of truth. Every successful mutation
// bumps a revision counter and schedules a full refetch whose result replaces
// the cache wholesale. Nothing is inserted optimistically.
package projects

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/househunt/internal/domain/model"
	"github.com/okian/househunt/pkg/metrics"
)

// Store holds the cached projects, the load state and the revision counter.
// It is safe for concurrent use.
type Store struct {
	mu             sync.Mutex
	state          State
	projects       []model.Project
	revision       uint64
	loadedRevision uint64
	err            error

	changed chan struct{}
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore returns an empty store in NotLoaded.
func NewStore() *Store {
	return &Store{
		changed: make(chan struct{}),
		subs:    make(map[int]func(Snapshot)),
	}
}

// Revision returns the current revision.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Bump increments the revision and returns the new value.
func (s *Store) Bump() uint64 {
	s.mu.Lock()
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	metrics.UpdateRevision(rev)
	s.notify()
	return rev
}

// BeginLoad enters Loading and returns the revision the load covers.
func (s *Store) BeginLoad() uint64 {
	s.mu.Lock()
	s.state = Loading
	rev := s.revision
	s.mu.Unlock()

	s.notify()
	return rev
}

// Replace installs the result of a load covering rev. A result older than
// the last installed one is discarded.
func (s *Store) Replace(rev uint64, projects []model.Project) {
	s.mu.Lock()
	if rev < s.loadedRevision {
		s.mu.Unlock()
		return
	}
	s.projects = append([]model.Project(nil), projects...)
	s.err = nil
	if len(projects) == 0 {
		s.state = LoadedEmpty
	} else {
		s.state = LoadedNonEmpty
	}
	s.loadedRevision = rev
	s.mu.Unlock()

	metrics.UpdateLoadedProjects(len(projects))
	s.notify()
}

// Fail records a failed load covering rev. Cached projects are cleared.
// A failure older than the last installed result is discarded.
func (s *Store) Fail(rev uint64, err error) {
	s.mu.Lock()
	if rev < s.loadedRevision {
		s.mu.Unlock()
		return
	}
	s.projects = nil
	s.err = err
	s.state = LoadFailed
	s.loadedRevision = rev
	s.mu.Unlock()

	metrics.UpdateLoadedProjects(0)
	s.notify()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		State:          s.state,
		Projects:       append([]model.Project(nil), s.projects...),
		Revision:       s.revision,
		LoadedRevision: s.loadedRevision,
		Err:            s.err,
	}
}

// Subscribe registers fn to be called with a snapshot after every change.
// Calls happen on the goroutine that made the change. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Wait blocks until a load covering rev has settled, then returns the
// snapshot at that point.
func (s *Store) Wait(ctx context.Context, rev uint64) (Snapshot, error) {
	for {
		s.mu.Lock()
		if s.state.Settled() && s.loadedRevision >= rev {
			snap := s.snapshotLocked()
			s.mu.Unlock()
			return snap, nil
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return Snapshot{}, fmt.Errorf("wait for revision %d: %w", rev, ctx.Err())
		}
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	close(s.changed)
	s.changed = make(chan struct{})
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
