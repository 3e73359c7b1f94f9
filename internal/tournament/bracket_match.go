package tournament

import (
	"time"

	"github.com/google/uuid"
)

type BracketMatch struct {
	ID     uuid.UUID `db:"id" json:"id"`
	League string    `db:"league" json:"league"`

	// Nil for the final
	ParentID *uuid.UUID `db:"parent_id" json:"parentId"`

	// Position in the bracket, round 1 being the first round and the final the highest round
	RoundNumber int `db:"round_number" json:"round"`
	MatchOrder  int `db:"match_order" json:"order"`

	Date      *time.Time `db:"date" json:"date"`
	CreatedAt time.Time  `db:"created_at" json:"-"`
}

func (m *BracketMatch) IsRoot() bool {
	return m.ParentID == nil
}

type BracketMatchTeam struct {
	ID             uuid.UUID `db:"id" json:"id"`
	BracketMatchID uuid.UUID `db:"bracket_match_id" json:"bracketMatchId"`
	TeamID         uuid.UUID `db:"team_id" json:"teamId"`
	Slot           int       `db:"slot" json:"slot"`
	Score          *int      `db:"score" json:"score"`
}

func (t BracketMatchTeam) IsPlayed() bool {
	return t.Score != nil
}

// MatchNode is one bracket match with its participants and the two matches feeding into it.
// Leaves have no children.
type MatchNode struct {
	ID       uuid.UUID     `json:"id"`
	Date     *time.Time    `json:"date"`
	League   string        `json:"league"`
	Round    int           `json:"round"`
	Order    int           `json:"order"`
	Teams    []Participant `json:"teams"`
	Children []*MatchNode  `json:"children"`
}

func (n *MatchNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Count returns the number of matches in the subtree rooted at n, n included.
func (n *MatchNode) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Depth returns the number of rounds in the subtree rooted at n.
func (n *MatchNode) Depth() int {
	deepest := 0
	for _, c := range n.Children {
		deepest = max(deepest, c.Depth())
	}
	return deepest + 1
}
