package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/league-stages/internal/store"
	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/AdamBeresnev/league-stages/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Advancer moves the winner of a finished bracket match on to the next match. It runs in the
// same transaction as the result that finished the match, so an error undoes the result too.
type Advancer interface {
	Advance(ctx context.Context, q sqlx.ExtContext, match tournament.BracketMatch, teams []tournament.BracketMatchTeam) error
}

// MatchService handles bracket matches once the bracket exists: placing teams in them and
// registering results. Without an Advancer winners stay where they are.
type MatchService struct {
	db       *sqlx.DB
	store    *store.BracketStore
	teams    *store.TeamStore
	advancer Advancer
}

func NewMatchService(db *sqlx.DB, bracketStore *store.BracketStore, teamStore *store.TeamStore) *MatchService {
	return &MatchService{db: db, store: bracketStore, teams: teamStore}
}

func (s *MatchService) WithAdvancer(advancer Advancer) *MatchService {
	s.advancer = advancer
	return s
}

func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*tournament.MatchNode, error) {
	return s.matchNode(ctx, s.db, matchID)
}

// AssignTeam places a team in a bracket match. Slot 0 picks the first free slot.
func (s *MatchService) AssignTeam(ctx context.Context, matchID, teamID uuid.UUID, slot int) (*tournament.MatchNode, error) {
	if slot < 0 || slot > 2 {
		return nil, tournament.ErrInvalidSlot
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrMatchNotFound, "bracket match")
	}

	team, err := s.teams.GetTeam(ctx, tx, teamID)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrUnknownTeam, "team")
	}
	if team.League != match.League {
		return nil, fmt.Errorf("%w: %s plays in %q", tournament.ErrLeagueMismatch, team.Name, team.League)
	}

	current, err := s.store.GetMatchTeams(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match teams: %w", err)
	}
	if len(current) >= 2 {
		return nil, tournament.ErrMatchFull
	}

	taken := make(map[int]bool, len(current))
	for _, t := range current {
		if t.TeamID == teamID {
			return nil, tournament.ErrDuplicateTeam
		}
		taken[t.Slot] = true
	}

	switch {
	case slot == 0 && !taken[1]:
		slot = 1
	case slot == 0:
		slot = 2
	case taken[slot]:
		return nil, fmt.Errorf("%w: %d", tournament.ErrSlotTaken, slot)
	}

	participant := tournament.BracketMatchTeam{BracketMatchID: matchID, TeamID: teamID, Slot: slot}
	if err := s.store.CreateMatchTeam(ctx, tx, &participant); err != nil {
		return nil, fmt.Errorf("failed to assign team: %w", err)
	}

	node, err := s.matchNode(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	return node, tx.Commit()
}

// UpdateTeamScore sets the score of one participant. A nil score marks it unplayed again.
func (s *MatchService) UpdateTeamScore(ctx context.Context, matchID, teamID uuid.UUID, score *int) (*tournament.MatchNode, error) {
	if score != nil && *score < 0 {
		return nil, tournament.ErrNegativeScore
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrMatchNotFound, "bracket match")
	}

	if err := s.store.UpdateMatchTeamScore(ctx, tx, matchID, teamID, score); err != nil {
		return nil, lookupErr(err, tournament.ErrParticipantNotFound, "bracket match team")
	}
	if err := s.advance(ctx, tx, *match); err != nil {
		return nil, err
	}

	node, err := s.matchNode(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	return node, tx.Commit()
}

// UpdateMatch registers when a bracket match was played and, optionally, the scores of its teams.
func (s *MatchService) UpdateMatch(ctx context.Context, matchID uuid.UUID, result MatchResult) (*tournament.MatchNode, error) {
	if result.Date == nil {
		return nil, tournament.ErrDateRequired
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrMatchNotFound, "bracket match")
	}

	current, err := s.store.GetMatchTeams(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match teams: %w", err)
	}
	for teamID, score := range result.Scores {
		if !hasBracketTeam(current, teamID) {
			return nil, fmt.Errorf("%w: %s", tournament.ErrNotParticipant, teamID)
		}
		if score < 0 {
			return nil, tournament.ErrNegativeScore
		}
	}

	date := result.Date.UTC()
	if err := s.store.UpdateMatchDate(ctx, tx, matchID, date); err != nil {
		return nil, fmt.Errorf("failed to update match date: %w", err)
	}
	match.Date = &date

	for teamID, score := range result.Scores {
		if err := s.store.UpdateMatchTeamScore(ctx, tx, matchID, teamID, utils.Ptr(score)); err != nil {
			return nil, fmt.Errorf("failed to update score of team %s: %w", teamID, err)
		}
	}
	if err := s.advance(ctx, tx, *match); err != nil {
		return nil, err
	}

	node, err := s.matchNode(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	return node, tx.Commit()
}

// advance hands a match to the Advancer once both teams have a score.
func (s *MatchService) advance(ctx context.Context, q sqlx.ExtContext, match tournament.BracketMatch) error {
	if s.advancer == nil {
		return nil
	}

	teams, err := s.store.GetMatchTeams(ctx, q, match.ID)
	if err != nil {
		return fmt.Errorf("failed to get match teams: %w", err)
	}
	if len(teams) < 2 {
		return nil
	}
	for _, t := range teams {
		if !t.IsPlayed() {
			return nil
		}
	}

	if err := s.advancer.Advance(ctx, q, match, teams); err != nil {
		return fmt.Errorf("failed to advance winner of match %s: %w", match.ID, err)
	}
	slog.Debug("advanced bracket match", "match", match.ID, "league", match.League)
	return nil
}

func (s *MatchService) matchNode(ctx context.Context, q sqlx.ExtContext, matchID uuid.UUID) (*tournament.MatchNode, error) {
	match, err := s.store.GetMatch(ctx, q, matchID)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrMatchNotFound, "bracket match")
	}

	teams, err := s.store.GetMatchTeams(ctx, q, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match teams: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.TeamID)
	}
	resolved, err := s.teams.GetTeamsByIDs(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}

	return newMatchNode(*match, teams, tournament.NewRoster(resolved)), nil
}

func hasBracketTeam(teams []tournament.BracketMatchTeam, teamID uuid.UUID) bool {
	for _, t := range teams {
		if t.TeamID == teamID {
			return true
		}
	}
	return false
}
