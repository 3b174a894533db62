// Package standings ranks competition tables. Points always order first;
// ties are broken by a configurable criteria chain.
package standings

import "sort"

// Criterion is one tie-breaker in the chain applied after points.
type Criterion string

const (
	GoalDifference Criterion = "goal_difference"
	GoalsFor       Criterion = "goals_for"
	GoalsAgainst   Criterion = "goals_against"
	Wins           Criterion = "wins"
	Draws          Criterion = "draws"
	Losses         Criterion = "losses"
	// HeadToHead requires per-pair match data the table rows do not carry,
	// so it currently never separates two clubs.
	HeadToHead Criterion = "head_to_head"
)

// Row is one club's accumulated record in a competition.
type Row struct {
	ClubID       string `db:"club_id" json:"club_id"`
	Group        string `db:"group_label" json:"group,omitempty"`
	Points       int    `db:"points" json:"points"`
	Wins         int    `db:"wins" json:"wins"`
	Draws        int    `db:"draws" json:"draws"`
	Losses       int    `db:"losses" json:"losses"`
	GoalsFor     int    `db:"goals_for" json:"goals_for"`
	GoalsAgainst int    `db:"goals_against" json:"goals_against"`
}

// GoalDiff returns goals for minus goals against.
func (r Row) GoalDiff() int {
	return r.GoalsFor - r.GoalsAgainst
}

// ParseCriteria converts raw names into criteria, preserving order. Unknown
// names pass through unchanged; Rank skips them.
func ParseCriteria(names []string) []Criterion {
	out := make([]Criterion, len(names))
	for i, n := range names {
		out[i] = Criterion(n)
	}
	return out
}

// Rank returns rows ordered by points descending, then by each criterion in
// turn. The input slice is not modified and equal rows keep their relative
// input order.
func Rank(rows []Row, criteria []Criterion) []Row {
	ranked := make([]Row, len(rows))
	copy(ranked, rows)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		for _, c := range criteria {
			if cmp := compare(a, b, c); cmp != 0 {
				return cmp > 0
			}
		}
		return false
	})
	return ranked
}

// compare returns >0 when a ranks ahead of b on the criterion, <0 when b
// ranks ahead, 0 when the criterion does not separate them.
func compare(a, b Row, c Criterion) int {
	switch c {
	case GoalDifference:
		return a.GoalDiff() - b.GoalDiff()
	case GoalsFor:
		return a.GoalsFor - b.GoalsFor
	case GoalsAgainst:
		// fewer conceded ranks higher
		return b.GoalsAgainst - a.GoalsAgainst
	case Wins:
		return a.Wins - b.Wins
	case Draws:
		return a.Draws - b.Draws
	case Losses:
		// fewer losses ranks higher
		return b.Losses - a.Losses
	case HeadToHead:
		return 0
	default:
		return 0
	}
}
