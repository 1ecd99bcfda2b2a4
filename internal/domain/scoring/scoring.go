// Package scoring holds the pure scoring rules: clamping raw input into the
// allowed range, collecting at most one score per criterion group, and
// aggregating an entry's scores into a single comparable number.
package scoring

import (
	"fmt"
	"math"
)

// Score bounds. Step is the display granularity; stored values are not rounded.
const (
	MinScore = 0.0
	MaxScore = 5.0
	Step     = 0.1
)

// Display sentinels.
const (
	NoScore          = "no score"
	UnknownCriterion = "unknown criterion"
)

// Clamp bounds raw into [MinScore, MaxScore]. In-range values are returned
// unchanged. NaN maps to MinScore.
func Clamp(raw float64) float64 {
	switch {
	case math.IsNaN(raw):
		return MinScore
	case raw < MinScore:
		return MinScore
	case raw > MaxScore:
		return MaxScore
	default:
		return raw
	}
}

// Score is a value recorded against a criterion group. The group id is a
// lookup key only; the group may no longer exist.
type Score struct {
	CriterionGroupID string
	Value            float64
}

// ScoreSet is an ordered list of scores with at most one score per group.
// The zero value is ready to use.
type ScoreSet struct {
	scores []Score
}

// NewScoreSet builds a set from scores, applying Set to each in order so
// later duplicates replace earlier ones.
func NewScoreSet(scores ...Score) ScoreSet {
	var s ScoreSet
	for _, sc := range scores {
		s.Set(sc.CriterionGroupID, sc.Value)
	}
	return s
}

// Set clamps raw and upserts it for groupID. Out-of-range input is never
// rejected.
func (s *ScoreSet) Set(groupID string, raw float64) {
	v := Clamp(raw)
	for i := range s.scores {
		if s.scores[i].CriterionGroupID == groupID {
			s.scores[i].Value = v
			return
		}
	}
	s.scores = append(s.scores, Score{CriterionGroupID: groupID, Value: v})
}

// Get returns the score recorded for groupID.
func (s ScoreSet) Get(groupID string) (float64, bool) {
	for _, sc := range s.scores {
		if sc.CriterionGroupID == groupID {
			return sc.Value, true
		}
	}
	return 0, false
}

// Len reports the number of recorded scores.
func (s ScoreSet) Len() int { return len(s.scores) }

// Scores returns a copy of the recorded scores in insertion order.
func (s ScoreSet) Scores() []Score {
	if len(s.scores) == 0 {
		return nil
	}
	return append([]Score(nil), s.scores...)
}

// Values returns the recorded values in insertion order.
func (s ScoreSet) Values() []float64 {
	if len(s.scores) == 0 {
		return nil
	}
	out := make([]float64, len(s.scores))
	for i, sc := range s.scores {
		out[i] = sc.Value
	}
	return out
}

// Aggregate returns the arithmetic mean of the recorded scores. The divisor
// is the number of scores present, not the number of groups in the schema,
// so a partially scored entry averages only what was scored. ok is false for
// an empty set.
func Aggregate(set ScoreSet) (mean float64, ok bool) {
	if set.Len() == 0 {
		return 0, false
	}
	var sum float64
	for _, sc := range set.scores {
		sum += sc.Value
	}
	return sum / float64(set.Len()), true
}

// Format renders an aggregate with two decimals, or NoScore when absent.
func Format(value float64, ok bool) string {
	if !ok {
		return NoScore
	}
	return fmt.Sprintf("%.2f", value)
}
