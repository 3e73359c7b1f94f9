package service

import (
	"cmp"
	"slices"

	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/AdamBeresnev/league-stages/internal/utils"
	"github.com/google/uuid"
)

type Standing struct {
	TeamID uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	League string    `json:"league"`
	Score  int       `json:"score"`
	Played int       `json:"played"`
}

// Standings sums the scores of every team over the poule's matches. Unplayed participations count
// as zero. Ties are broken by fewer matches played, then by name, then by team id.
func Standings(matches []tournament.PouleMatch, roster tournament.Roster) []Standing {
	index := make(map[uuid.UUID]*Standing)
	var order []uuid.UUID

	for _, match := range matches {
		for _, participant := range match.Teams {
			entry, ok := index[participant.TeamID]
			if !ok {
				team := roster[participant.TeamID]
				entry = &Standing{TeamID: participant.TeamID, Name: team.Name, League: team.League}
				index[participant.TeamID] = entry
				order = append(order, participant.TeamID)
			}

			if participant.IsPlayed() {
				entry.Played++
				entry.Score += utils.OrZero(participant.Score)
			}
		}
	}

	standings := make([]Standing, 0, len(order))
	for _, id := range order {
		standings = append(standings, *index[id])
	}

	slices.SortStableFunc(standings, func(a, b Standing) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(a.Played, b.Played),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.TeamID.String(), b.TeamID.String()),
		)
	})

	return standings
}
