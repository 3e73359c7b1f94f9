package views

import (
	"fmt"
	"strconv"

	"github.com/AdamBeresnev/league-stages/internal/service"
	"github.com/AdamBeresnev/league-stages/internal/tournament"
)

const dateLayout = "2 Jan 2006 15:04"

type BracketRound struct {
	Name    string
	Matches []*tournament.MatchNode
}

type BracketData struct {
	Rounds []BracketRound
}

// PrepareBracketData lays the bracket out in columns, first round on the left.
func PrepareBracketData(roots []*tournament.MatchNode) BracketData {
	rounds := service.Rounds(roots)

	data := BracketData{Rounds: make([]BracketRound, 0, len(rounds))}
	for i, matches := range rounds {
		data.Rounds = append(data.Rounds, BracketRound{
			Name:    roundName(len(rounds)-i, i+1),
			Matches: matches,
		})
	}
	return data
}

// roundName names a round by how far it is from the final.
func roundName(fromEnd, round int) string {
	switch fromEnd {
	case 1:
		return "Final"
	case 2:
		return "Semi-finals"
	case 3:
		return "Quarter-finals"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}

// slotName names the team in a slot of the match, an open slot shows as TBD.
func slotName(m *tournament.MatchNode, slot int) string {
	if slot >= len(m.Teams) {
		return "TBD"
	}
	return m.Teams[slot].Name
}

func slotScore(m *tournament.MatchNode, slot int) string {
	if slot >= len(m.Teams) || m.Teams[slot].Score == nil {
		return ""
	}
	return strconv.Itoa(*m.Teams[slot].Score)
}
