package scoring

import (
	"sort"

	"github.com/okian/househunt/internal/domain/criteria"
)

// ResolveLabel returns the category of the group with the given id, or
// UnknownCriterion when the id does not resolve in schema.
func ResolveLabel(schema *criteria.Schema, groupID string) string {
	g, ok := schema.Group(groupID)
	if !ok || g.Category == "" {
		return UnknownCriterion
	}
	return g.Category
}

// LabeledScore is a score paired with its display label.
type LabeledScore struct {
	CriterionGroupID string
	Label            string
	Value            float64
	Orphaned         bool
}

// EntrySummary is the derived, render-ready view of one entry.
type EntrySummary struct {
	Address   string
	Notes     []string
	Scores    []LabeledScore
	Aggregate float64
	Scored    bool
	Display   string
}

// Summarize recomputes an entry's view against the current schema.
// Orphaned scores keep their value and count toward the aggregate.
func Summarize(schema *criteria.Schema, address string, notes []string, set ScoreSet) EntrySummary {
	mean, ok := Aggregate(set)
	sum := EntrySummary{
		Address:   address,
		Notes:     append([]string(nil), notes...),
		Aggregate: mean,
		Scored:    ok,
		Display:   Format(mean, ok),
	}
	for _, sc := range set.scores {
		_, found := schema.Group(sc.CriterionGroupID)
		sum.Scores = append(sum.Scores, LabeledScore{
			CriterionGroupID: sc.CriterionGroupID,
			Label:            ResolveLabel(schema, sc.CriterionGroupID),
			Value:            sc.Value,
			Orphaned:         !found,
		})
	}
	return sum
}

// Rank orders summaries by aggregate, highest first. Unscored entries go last.
// Ties keep their input order.
func Rank(summaries []EntrySummary) []EntrySummary {
	out := append([]EntrySummary(nil), summaries...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scored != out[j].Scored {
			return out[i].Scored
		}
		return out[i].Aggregate > out[j].Aggregate
	})
	return out
}
