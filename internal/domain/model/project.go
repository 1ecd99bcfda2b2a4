// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/okian/househunt/internal/domain/criteria"
	"github.com/okian/househunt/internal/domain/scoring"
)

// DefaultNote is submitted when the user recorded no notes.
const DefaultNote = "No notes"

// Score and ScoreSet are the scoring package's types, re-exported so callers
// working with entries need a single import.
type (
	Score    = scoring.Score
	ScoreSet = scoring.ScoreSet
)

// Entry is one recorded house. The aggregate score is derived on read.
type Entry struct {
	Address string
	Notes   []string
	Scores  ScoreSet
}

// Summary recomputes the entry's labels and aggregate against schema.
func (e Entry) Summary(schema *criteria.Schema) scoring.EntrySummary {
	return scoring.Summarize(schema, e.Address, e.Notes, e.Scores)
}

// EntryDraft is the authoring state of a new entry before submission.
type EntryDraft struct {
	Address string
	Notes   []string
	Scores  ScoreSet
}

// SetScore clamps raw and records it for groupID, replacing any earlier value.
func (d *EntryDraft) SetScore(groupID string, raw float64) {
	d.Scores.Set(groupID, raw)
}

// AddNote appends text. Blank text is ignored and reported as false.
func (d *EntryDraft) AddNote(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	d.Notes = append(d.Notes, text)
	return true
}

// RemoveNote removes the note at index. Out-of-range indexes are ignored.
func (d *EntryDraft) RemoveNote(index int) bool {
	if index < 0 || index >= len(d.Notes) {
		return false
	}
	d.Notes = append(d.Notes[:index], d.Notes[index+1:]...)
	return true
}

// Validate checks the submission precondition.
func (d *EntryDraft) Validate() error {
	if strings.TrimSpace(d.Address) == "" {
		return ErrEmptyAddress
	}
	return nil
}

// Submission returns the entry to send. Notes default to DefaultNote.
func (d *EntryDraft) Submission() (Entry, error) {
	if err := d.Validate(); err != nil {
		return Entry{}, err
	}
	notes := append([]string(nil), d.Notes...)
	if len(notes) == 0 {
		notes = []string{DefaultNote}
	}
	return Entry{
		Address: strings.TrimSpace(d.Address),
		Notes:   notes,
		Scores:  scoring.NewScoreSet(d.Scores.Scores()...),
	}, nil
}

// Project pairs an evaluation schema with the houses scored against it.
// ID is assigned by the remote store.
type Project struct {
	ID          string
	Title       string
	Description string
	Schema      *criteria.Schema
	Entries     []Entry
}

// Summaries returns the derived view of every entry, in stored order.
func (p Project) Summaries() []scoring.EntrySummary {
	out := make([]scoring.EntrySummary, 0, len(p.Entries))
	for _, e := range p.Entries {
		out = append(out, e.Summary(p.Schema))
	}
	return out
}

// ProjectDraft is the input to project creation.
type ProjectDraft struct {
	Title       string
	Description string
	Schema      *criteria.Schema
}

// Validate checks that all three fields are present.
func (d ProjectDraft) Validate() error {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return ErrEmptyTitle
	case strings.TrimSpace(d.Description) == "":
		return ErrEmptyDescription
	case d.Schema.Len() == 0:
		return ErrEmptySchema
	}
	return nil
}

// SyncTask asks the refetch worker to reload all projects.
type SyncTask struct {
	Revision   uint64    // revision that triggered the task
	Reason     string    // mount, create_project, add_entry, refresh
	EnqueuedAt time.Time // used for queue latency metrics
}
