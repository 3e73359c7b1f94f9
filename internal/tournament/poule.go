package tournament

import (
	"time"

	"github.com/google/uuid"
)

type Poule struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	League    string    `db:"league" json:"league"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type PouleMatch struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PouleID   uuid.UUID  `db:"poule_id" json:"pouleId"`
	Date      *time.Time `db:"date" json:"date"`
	CreatedAt time.Time  `db:"created_at" json:"-"`

	// Position of the pairing in the generated schedule
	MatchOrder int `db:"match_order" json:"order"`

	Teams []PouleMatchTeam `db:"-" json:"teams"`
}

// A participant row. Slot 1 and 2 keep the pairing order stable on reads.
type PouleMatchTeam struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PouleMatchID uuid.UUID `db:"poule_match_id" json:"pouleMatchId"`
	TeamID       uuid.UUID `db:"team_id" json:"teamId"`
	Slot         int       `db:"slot" json:"slot"`
	Score        *int      `db:"score" json:"score"`
}

func (t PouleMatchTeam) IsPlayed() bool {
	return t.Score != nil
}

// IsPlayed reports whether any participant already has a score.
func (m PouleMatch) IsPlayed() bool {
	for _, t := range m.Teams {
		if t.IsPlayed() {
			return true
		}
	}
	return false
}

func (m PouleMatch) HasTeam(teamID uuid.UUID) bool {
	for _, t := range m.Teams {
		if t.TeamID == teamID {
			return true
		}
	}
	return false
}
