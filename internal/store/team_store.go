package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TeamStore reads and writes teams. Every method runs on the executor it is given, so callers
// decide whether it is part of a transaction.
type TeamStore struct{}

const (
	teamColumns     = "id, name, league, created_at"
	getTeamQuery    = "SELECT " + teamColumns + " FROM teams WHERE id = ?"
	getTeamsQuery   = "SELECT " + teamColumns + " FROM teams ORDER BY created_at ASC, name ASC"
	getLeagueQuery  = "SELECT " + teamColumns + " FROM teams WHERE league = ? ORDER BY created_at ASC, name ASC"
	getTeamsInQuery = "SELECT " + teamColumns + " FROM teams WHERE id IN (?) ORDER BY name ASC"
	createTeamQuery = `
		INSERT INTO teams (id, name, league, created_at) VALUES
		(:id, :name, :league, :created_at)
	`
	updateTeamQuery = `
		UPDATE teams SET
		name = :name,
		league = :league
		WHERE id = :id
	`
	deleteTeamQuery = "DELETE FROM teams WHERE id = ?"
	// Poule the team plays in, if any. A team is only ever scheduled in one poule.
	getTeamPouleQuery = `
		SELECT pm.poule_id FROM poule_match_teams pmt
		JOIN poule_matches pm ON pm.id = pmt.poule_match_id
		WHERE pmt.team_id = ?
		LIMIT 1
	`
)

func NewTeamStore() *TeamStore {
	return &TeamStore{}
}

func (s *TeamStore) CreateTeam(ctx context.Context, q sqlx.ExtContext, team *tournament.Team) error {
	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	_, err := sqlx.NamedExecContext(ctx, q, createTeamQuery, team)
	return err
}

func (s *TeamStore) GetTeam(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*tournament.Team, error) {
	var team tournament.Team
	err := sqlx.GetContext(ctx, q, &team, q.Rebind(getTeamQuery), id)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// GetTeams lists the teams of a league, or every team when league is empty.
func (s *TeamStore) GetTeams(ctx context.Context, q sqlx.ExtContext, league string) ([]tournament.Team, error) {
	teams := []tournament.Team{}
	var err error
	if league == "" {
		err = sqlx.SelectContext(ctx, q, &teams, getTeamsQuery)
	} else {
		err = sqlx.SelectContext(ctx, q, &teams, q.Rebind(getLeagueQuery), league)
	}
	return teams, err
}

func (s *TeamStore) GetTeamsByIDs(ctx context.Context, q sqlx.ExtContext, ids []uuid.UUID) ([]tournament.Team, error) {
	teams := []tournament.Team{}
	if len(ids) == 0 {
		return teams, nil
	}

	query, args, err := sqlx.In(getTeamsInQuery, ids)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, q, &teams, q.Rebind(query), args...)
	return teams, err
}

func (s *TeamStore) UpdateTeam(ctx context.Context, q sqlx.ExtContext, team *tournament.Team) error {
	_, err := sqlx.NamedExecContext(ctx, q, updateTeamQuery, team)
	return err
}

func (s *TeamStore) DeleteTeam(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	_, err := q.ExecContext(ctx, q.Rebind(deleteTeamQuery), id)
	return err
}

// GetTeamPouleID returns the poule the team is scheduled in, or nil when it is not in any poule.
func (s *TeamStore) GetTeamPouleID(ctx context.Context, q sqlx.ExtContext, teamID uuid.UUID) (*uuid.UUID, error) {
	var pouleIDs []uuid.UUID
	if err := sqlx.SelectContext(ctx, q, &pouleIDs, q.Rebind(getTeamPouleQuery), teamID); err != nil {
		return nil, err
	}
	if len(pouleIDs) == 0 {
		return nil, nil
	}
	return &pouleIDs[0], nil
}
