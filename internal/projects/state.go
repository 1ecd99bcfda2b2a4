package projects

import (
	"github.com/okian/househunt/internal/domain/model"
)

// State is the load state of the project cache.
type State int

// Load states. Loading is re-entered on every refetch.
const (
	NotLoaded State = iota
	Loading
	LoadedEmpty
	LoadedNonEmpty
	LoadFailed
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case LoadedEmpty:
		return "loaded_empty"
	case LoadedNonEmpty:
		return "loaded_nonempty"
	case LoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// Settled reports whether s is a terminal load state.
func (s State) Settled() bool {
	return s == LoadedEmpty || s == LoadedNonEmpty || s == LoadFailed
}

// Snapshot is a consistent copy of the store.
type Snapshot struct {
	State          State
	Projects       []model.Project
	Revision       uint64 // latest mutation revision
	LoadedRevision uint64 // revision covered by the last settled load
	Err            error  // last load error, set only in LoadFailed
}

// Visible is the state presented to the UI. A failed load shows as empty.
func (s Snapshot) Visible() State {
	if s.State == LoadFailed {
		return LoadedEmpty
	}
	return s.State
}

// Project finds a project by id.
func (s Snapshot) Project(id string) (model.Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}
