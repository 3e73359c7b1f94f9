package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RoundRobinPairs pairs every team with every other team exactly once. Team i is paired with
// every team j > i, in the order the teams were given.
func RoundRobinPairs(teamIDs []uuid.UUID) ([][2]uuid.UUID, error) {
	if len(teamIDs) < 2 {
		return nil, fmt.Errorf("%w (got %d)", tournament.ErrNotEnoughTeams, len(teamIDs))
	}

	seen := make(map[uuid.UUID]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s", tournament.ErrDuplicateTeam, id)
		}
		seen[id] = struct{}{}
	}

	n := len(teamIDs)
	pairs := make([][2]uuid.UUID, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]uuid.UUID{teamIDs[i], teamIDs[j]})
		}
	}

	return pairs, nil
}

// scheduleRoundRobin builds the unplayed, undated matches of a poule. Nothing is stored.
func scheduleRoundRobin(pouleID uuid.UUID, teamIDs []uuid.UUID) ([]tournament.PouleMatch, error) {
	pairs, err := RoundRobinPairs(teamIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	matches := make([]tournament.PouleMatch, 0, len(pairs))
	for i, pair := range pairs {
		matchID := uuid.New()
		matches = append(matches, tournament.PouleMatch{
			ID:         matchID,
			PouleID:    pouleID,
			MatchOrder: i + 1,
			CreatedAt:  now,
			Teams: []tournament.PouleMatchTeam{
				{ID: uuid.New(), PouleMatchID: matchID, TeamID: pair[0], Slot: 1},
				{ID: uuid.New(), PouleMatchID: matchID, TeamID: pair[1], Slot: 2},
			},
		})
	}

	return matches, nil
}

// generateRoundRobin schedules and stores the full round robin of a poule. It runs on the
// caller's executor so the poule and its matches land in the same transaction.
func (s *PouleService) generateRoundRobin(ctx context.Context, q sqlx.ExtContext, teamIDs []uuid.UUID, poule *tournament.Poule) ([]tournament.PouleMatch, error) {
	matches, err := scheduleRoundRobin(poule.ID, teamIDs)
	if err != nil {
		return nil, err
	}

	participants := make([]tournament.PouleMatchTeam, 0, 2*len(matches))
	for _, m := range matches {
		participants = append(participants, m.Teams...)
	}

	if err := s.store.CreatePouleMatches(ctx, q, matches); err != nil {
		return nil, fmt.Errorf("failed to create poule matches: %w", err)
	}
	if err := s.store.CreatePouleMatchTeams(ctx, q, participants); err != nil {
		return nil, fmt.Errorf("failed to create poule match teams: %w", err)
	}

	return matches, nil
}
