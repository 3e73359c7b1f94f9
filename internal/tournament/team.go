package tournament

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	League    string    `db:"league" json:"league"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Participant is a team as it appears in a single match, together with its score there.
type Participant struct {
	TeamID uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	League string    `json:"league"`
	Score  *int      `json:"score"`
}

// Roster indexes teams by id so participant rows can be resolved to names.
type Roster map[uuid.UUID]Team

func NewRoster(teams []Team) Roster {
	roster := make(Roster, len(teams))
	for _, t := range teams {
		roster[t.ID] = t
	}
	return roster
}

func (r Roster) Participant(teamID uuid.UUID, score *int) Participant {
	team := r[teamID]
	return Participant{
		TeamID: teamID,
		Name:   team.Name,
		League: team.League,
		Score:  score,
	}
}
