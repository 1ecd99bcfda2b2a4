package types

import (
	"github.com/okian/househunt/internal/domain/criteria"
	"github.com/okian/househunt/internal/domain/model"
	"github.com/okian/househunt/internal/domain/scoring"
)

// Dropped counts payload items skipped while decoding or converting to the
// model.
type Dropped struct {
	Projects int
	Criteria int
	Entries  int
	Notes    int
	Scores   int
}

// Any reports whether anything was skipped.
func (d Dropped) Any() bool {
	return d.Projects > 0 || d.Criteria > 0 || d.Entries > 0 || d.Notes > 0 || d.Scores > 0
}

// Add accumulates o into d.
func (d *Dropped) Add(o Dropped) {
	d.Projects += o.Projects
	d.Criteria += o.Criteria
	d.Entries += o.Entries
	d.Notes += o.Notes
	d.Scores += o.Scores
}

// FromGroups converts schema groups to wire criteria.
func FromGroups(groups []criteria.Group) []Criterion {
	out := make([]Criterion, 0, len(groups))
	for _, g := range groups {
		out = append(out, Criterion{
			ID:       g.ID,
			Category: g.Category,
			Items:    append([]string(nil), g.Items...),
		})
	}
	return out
}

// ToSchema rebuilds a schema from wire criteria. Criteria without an id or
// a category are skipped and counted.
func ToSchema(in []Criterion) (*criteria.Schema, Dropped) {
	var dropped Dropped
	groups := make([]criteria.Group, 0, len(in))
	for _, c := range in {
		c = c.Normalized()
		if c.ID == "" || c.Category == "" {
			dropped.Criteria++
			continue
		}
		groups = append(groups, criteria.Group{ID: c.ID, Category: c.Category, Items: c.Items})
	}
	return criteria.FromGroups(groups), dropped
}

// FromEntry converts an entry to its wire shape.
func FromEntry(e model.Entry) HouseEntry {
	h := HouseEntry{
		Address: e.Address,
		Notes:   append([]string{}, e.Notes...),
		Scores:  []Score{},
	}
	for _, sc := range e.Scores.Scores() {
		h.Scores = append(h.Scores, Score{Score: sc.Value, CriteriaID: sc.CriterionGroupID})
	}
	return h
}

// ToEntry converts a wire entry. Scores without a criteria id are skipped;
// values are clamped. Scores whose id is not in the schema are kept.
func ToEntry(h HouseEntry) (model.Entry, Dropped) {
	var dropped Dropped
	e := model.Entry{Address: h.Address, Notes: append([]string(nil), h.Notes...)}
	for _, s := range h.Scores {
		if s.CriteriaID == "" {
			dropped.Scores++
			continue
		}
		e.Scores.Set(s.CriteriaID, s.Score)
	}
	return e, dropped
}

// FromDraft builds the create-project body.
func FromDraft(d model.ProjectDraft) CreateProjectRequest {
	return CreateProjectRequest{Project: Project{
		Title:        d.Title,
		Description:  d.Description,
		Criteria:     FromGroups(d.Schema.Groups()),
		HouseEntries: []HouseEntry{},
	}}
}

// FromProject converts a project to its enveloped wire shape.
func FromProject(p model.Project) ProjectEnvelope {
	env := ProjectEnvelope{
		ProjectID: p.ID,
		Project: Project{
			Title:        p.Title,
			Description:  p.Description,
			Criteria:     FromGroups(p.Schema.Groups()),
			HouseEntries: make([]HouseEntry, 0, len(p.Entries)),
		},
	}
	for _, e := range p.Entries {
		env.Project.HouseEntries = append(env.Project.HouseEntries, FromEntry(e))
	}
	return env
}

// ToProject converts an envelope to the model, skipping malformed items.
func ToProject(env ProjectEnvelope) (model.Project, Dropped) {
	schema, dropped := ToSchema(env.Project.Criteria)
	p := model.Project{
		ID:          env.ProjectID,
		Title:       env.Project.Title,
		Description: env.Project.Description,
		Schema:      schema,
	}
	for _, h := range env.Project.HouseEntries {
		e, d := ToEntry(h)
		dropped.Add(d)
		p.Entries = append(p.Entries, e)
	}
	return p, dropped
}

// ClampScores returns scores with every value clamped into range.
func ClampScores(in []Score) []Score {
	out := make([]Score, 0, len(in))
	for _, s := range in {
		out = append(out, Score{Score: scoring.Clamp(s.Score), CriteriaID: s.CriteriaID})
	}
	return out
}
