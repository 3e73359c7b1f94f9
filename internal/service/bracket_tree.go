package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/google/uuid"
)

// AssembleTree turns the flat bracket rows of one league back into the match tree. Matches are
// linked through their parent ids only, the order of the input does not matter. A match whose
// parent is missing from the input ends up as an extra root. Parent links that loop back on
// themselves are reported as ErrBrokenBracket.
func AssembleTree(matches []tournament.BracketMatch, teams []tournament.BracketMatchTeam, roster tournament.Roster) ([]*tournament.MatchNode, error) {
	if len(matches) == 0 {
		return nil, tournament.ErrNoBracket
	}

	participants := make(map[uuid.UUID][]tournament.BracketMatchTeam)
	for _, t := range teams {
		participants[t.BracketMatchID] = append(participants[t.BracketMatchID], t)
	}

	nodes := make(map[uuid.UUID]*tournament.MatchNode, len(matches))
	for _, m := range matches {
		nodes[m.ID] = newMatchNode(m, participants[m.ID], roster)
	}

	var roots []*tournament.MatchNode
	for _, m := range matches {
		node := nodes[m.ID]
		if m.IsRoot() {
			roots = append(roots, node)
			continue
		}

		parent, ok := nodes[*m.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	// Matches caught in a parent cycle hang below no root
	reachable := 0
	for _, root := range roots {
		reachable += root.Count()
	}
	if reachable != len(matches) {
		return nil, fmt.Errorf("%w: %d of %d matches reachable from a root", tournament.ErrBrokenBracket, reachable, len(matches))
	}

	for _, node := range nodes {
		slices.SortFunc(node.Children, compareNodes)
	}
	slices.SortFunc(roots, compareNodes)

	return roots, nil
}

func newMatchNode(m tournament.BracketMatch, teams []tournament.BracketMatchTeam, roster tournament.Roster) *tournament.MatchNode {
	slices.SortFunc(teams, func(a, b tournament.BracketMatchTeam) int {
		return cmp.Compare(a.Slot, b.Slot)
	})

	node := &tournament.MatchNode{
		ID:       m.ID,
		Date:     m.Date,
		League:   m.League,
		Round:    m.RoundNumber,
		Order:    m.MatchOrder,
		Teams:    make([]tournament.Participant, 0, len(teams)),
		Children: []*tournament.MatchNode{},
	}
	for _, t := range teams {
		node.Teams = append(node.Teams, roster.Participant(t.TeamID, t.Score))
	}
	return node
}

func compareNodes(a, b *tournament.MatchNode) int {
	return cmp.Or(
		cmp.Compare(b.Round, a.Round),
		cmp.Compare(a.Order, b.Order),
		strings.Compare(a.ID.String(), b.ID.String()),
	)
}

// Rounds flattens the tree into its rounds, first round first. Matches within a round keep their
// left to right order.
func Rounds(roots []*tournament.MatchNode) [][]*tournament.MatchNode {
	byRound := make(map[int][]*tournament.MatchNode)

	var walk func(n *tournament.MatchNode)
	walk = func(n *tournament.MatchNode) {
		byRound[n.Round] = append(byRound[n.Round], n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}

	numbers := make([]int, 0, len(byRound))
	for round := range byRound {
		numbers = append(numbers, round)
	}
	slices.Sort(numbers)

	rounds := make([][]*tournament.MatchNode, 0, len(numbers))
	for _, round := range numbers {
		matches := byRound[round]
		slices.SortStableFunc(matches, compareNodes)
		rounds = append(rounds, matches)
	}
	return rounds
}

// GetBracket reads the league's bracket and returns its roots, normally just the final.
func (s *BracketService) GetBracket(ctx context.Context, league string) ([]*tournament.MatchNode, error) {
	matches, err := s.store.GetMatches(ctx, s.db, league)
	if err != nil {
		return nil, fmt.Errorf("failed to get bracket matches: %w", err)
	}
	if len(matches) == 0 {
		return nil, tournament.ErrNoBracket
	}

	teams, err := s.store.GetLeagueTeams(ctx, s.db, league)
	if err != nil {
		return nil, fmt.Errorf("failed to get bracket teams: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.TeamID)
	}
	resolved, err := s.teams.GetTeamsByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}

	return AssembleTree(matches, teams, tournament.NewRoster(resolved))
}
