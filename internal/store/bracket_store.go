package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BracketStore struct{}

func NewBracketStore() *BracketStore {
	return &BracketStore{}
}

const (
	bracketMatchColumns = "bm.id, bm.league, bm.parent_id, bm.round_number, bm.match_order, bm.date, bm.created_at"
	bracketTeamColumns  = "bmt.id, bmt.bracket_match_id, bmt.team_id, bmt.slot, bmt.score"
)

// CreateMatches inserts the whole bracket in batches. Parents have to come before their children
// in the slice.
func (s *BracketStore) CreateMatches(ctx context.Context, q sqlx.ExtContext, matches []tournament.BracketMatch) error {
	if len(matches) == 0 {
		return nil
	}
	return namedInsert(ctx, q, `INSERT INTO bracket_matches (id, league, parent_id, round_number, match_order, date, created_at)
		VALUES (:id, :league, :parent_id, :round_number, :match_order, :date, :created_at)`, matches)
}

func (s *BracketStore) BracketExists(ctx context.Context, q sqlx.ExtContext, league string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, q.Rebind("SELECT EXISTS (SELECT 1 FROM bracket_matches WHERE league = ?)"), league)
	return exists, err
}

// GetMatches returns every match of the league's bracket, final first.
func (s *BracketStore) GetMatches(ctx context.Context, q sqlx.ExtContext, league string) ([]tournament.BracketMatch, error) {
	matches := []tournament.BracketMatch{}
	err := sqlx.SelectContext(ctx, q, &matches, q.Rebind(`SELECT `+bracketMatchColumns+` FROM bracket_matches bm
		WHERE bm.league = ?
		ORDER BY bm.round_number DESC, bm.match_order ASC`), league)
	return matches, err
}

func (s *BracketStore) GetMatch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*tournament.BracketMatch, error) {
	var match tournament.BracketMatch
	err := sqlx.GetContext(ctx, q, &match, q.Rebind("SELECT "+bracketMatchColumns+" FROM bracket_matches bm WHERE bm.id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *BracketStore) UpdateMatchDate(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, date time.Time) error {
	return execOne(ctx, q, "UPDATE bracket_matches SET date = ? WHERE id = ?", date, id)
}

func (s *BracketStore) GetLeagueTeams(ctx context.Context, q sqlx.ExtContext, league string) ([]tournament.BracketMatchTeam, error) {
	teams := []tournament.BracketMatchTeam{}
	err := sqlx.SelectContext(ctx, q, &teams, q.Rebind(`SELECT `+bracketTeamColumns+` FROM bracket_match_teams bmt
		JOIN bracket_matches bm ON bm.id = bmt.bracket_match_id
		WHERE bm.league = ?
		ORDER BY bmt.slot ASC`), league)
	return teams, err
}

func (s *BracketStore) GetMatchTeams(ctx context.Context, q sqlx.ExtContext, matchID uuid.UUID) ([]tournament.BracketMatchTeam, error) {
	teams := []tournament.BracketMatchTeam{}
	err := sqlx.SelectContext(ctx, q, &teams, q.Rebind(`SELECT `+bracketTeamColumns+` FROM bracket_match_teams bmt
		WHERE bmt.bracket_match_id = ?
		ORDER BY bmt.slot ASC`), matchID)
	return teams, err
}

func (s *BracketStore) CreateMatchTeam(ctx context.Context, q sqlx.ExtContext, team *tournament.BracketMatchTeam) error {
	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO bracket_match_teams (id, bracket_match_id, team_id, slot, score)
		VALUES (:id, :bracket_match_id, :team_id, :slot, :score)`, team)
	return err
}

func (s *BracketStore) UpdateMatchTeamScore(ctx context.Context, q sqlx.ExtContext, matchID, teamID uuid.UUID, score *int) error {
	return execOne(ctx, q, "UPDATE bracket_match_teams SET score = ? WHERE bracket_match_id = ? AND team_id = ?", score, matchID, teamID)
}

// DeleteBracket removes every match of a league together with its participants.
func (s *BracketStore) DeleteBracket(ctx context.Context, q sqlx.ExtContext, league string) error {
	_, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM bracket_match_teams
		WHERE bracket_match_id IN (SELECT id FROM bracket_matches WHERE league = ?)`), league)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, q.Rebind("DELETE FROM bracket_matches WHERE league = ?"), league)
	return err
}

// IsTeamInBracket reports whether the team already plays a bracket match.
func (s *BracketStore) IsTeamInBracket(ctx context.Context, q sqlx.ExtContext, teamID uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, q.Rebind("SELECT EXISTS (SELECT 1 FROM bracket_match_teams WHERE team_id = ?)"), teamID)
	return exists, err
}
