// Package criteria models a project's evaluation schema: an ordered set of
// criterion groups, each a category label holding a growable list of items.
//
// Groups are indexed by id. The id is assigned once when the group is created
// and is the join key used by recorded scores.
package criteria

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Group is one category of criteria, e.g. "Kitchen" with items
// "Counters" and "Pantry".
type Group struct {
	ID       string
	Category string
	Items    []string
}

func (g Group) clone() Group {
	g.Items = append([]string(nil), g.Items...)
	return g
}

// maxIDAttempts bounds how often AddGroup draws from the id generator.
const maxIDAttempts = 16

// Option applies a configuration option to a Schema.
type Option func(*Schema)

// WithIDFunc overrides the id generator used by AddGroup.
func WithIDFunc(fn func() string) Option {
	return func(s *Schema) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Schema is an ordered set of groups, unique by id.
// A Schema is not safe for concurrent mutation.
type Schema struct {
	groups map[string]*Group
	order  []string
	newID  func() string
}

// New returns an empty schema.
func New(opts ...Option) *Schema {
	s := &Schema{
		groups: make(map[string]*Group),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromGroups rebuilds a schema from already-identified groups, as received
// from the remote store. The first occurrence of a duplicated id wins and
// groups without an id are skipped.
func FromGroups(groups []Group, opts ...Option) *Schema {
	s := New(opts...)
	for _, g := range groups {
		if g.ID == "" {
			continue
		}
		if _, dup := s.groups[g.ID]; dup {
			continue
		}
		cp := g.clone()
		s.groups[g.ID] = &cp
		s.order = append(s.order, g.ID)
	}
	return s
}

// AddGroup creates a new group with a fresh id and appends it. It fails with
// ErrIDExhausted when the generator keeps returning empty or used ids.
func (s *Schema) AddGroup(category, firstItem string) (Group, error) {
	category = strings.TrimSpace(category)
	firstItem = strings.TrimSpace(firstItem)
	if category == "" {
		return Group{}, ErrEmptyCategory
	}
	if firstItem == "" {
		return Group{}, ErrEmptyItem
	}

	id, err := s.freshID()
	if err != nil {
		return Group{}, err
	}

	g := &Group{ID: id, Category: category, Items: []string{firstItem}}
	s.groups[id] = g
	s.order = append(s.order, id)
	return g.clone(), nil
}

func (s *Schema) freshID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		if id := s.newID(); id != "" && !s.has(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("after %d attempts: %w", maxIDAttempts, ErrIDExhausted)
}

// AddItem appends value to the group's items. Duplicates are kept.
func (s *Schema) AddItem(groupID, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmptyItem
	}
	g, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("add item to %q: %w", groupID, ErrGroupNotFound)
	}
	g.Items = append(g.Items, value)
	return nil
}

// RemoveGroup deletes a group. Scores that reference it are not touched;
// they become orphaned and resolve to the unknown-criterion label.
func (s *Schema) RemoveGroup(groupID string) error {
	if _, ok := s.groups[groupID]; !ok {
		return fmt.Errorf("remove %q: %w", groupID, ErrGroupNotFound)
	}
	delete(s.groups, groupID)
	for i, id := range s.order {
		if id == groupID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Schema) has(id string) bool {
	_, ok := s.groups[id]
	return ok
}

// Group returns a copy of the group with the given id.
func (s *Schema) Group(id string) (Group, bool) {
	if s == nil {
		return Group{}, false
	}
	g, ok := s.groups[id]
	if !ok {
		return Group{}, false
	}
	return g.clone(), true
}

// Groups returns copies of all groups in insertion order.
func (s *Schema) Groups() []Group {
	if s == nil {
		return nil
	}
	out := make([]Group, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.groups[id].clone())
	}
	return out
}

// IDs returns the group ids in insertion order.
func (s *Schema) IDs() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Len reports the number of groups.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Clone returns a deep copy.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return New()
	}
	cp := FromGroups(s.Groups())
	cp.newID = s.newID
	return cp
}
