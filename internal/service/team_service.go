package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/league-stages/internal/store"
	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/AdamBeresnev/league-stages/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TeamService struct {
	db       *sqlx.DB
	store    *store.TeamStore
	brackets *store.BracketStore
}

func NewTeamService(db *sqlx.DB, teamStore *store.TeamStore, bracketStore *store.BracketStore) *TeamService {
	return &TeamService{db: db, store: teamStore, brackets: bracketStore}
}

type TeamUpdate struct {
	Name   *string
	League *string
}

func (s *TeamService) CreateTeam(ctx context.Context, name, league string) (*tournament.Team, error) {
	team := tournament.Team{
		Name:   strings.TrimSpace(name),
		League: strings.TrimSpace(league),
	}
	if team.Name == "" {
		return nil, tournament.ErrNameRequired
	}
	if team.League == "" {
		return nil, tournament.ErrLeagueRequired
	}

	if err := s.store.CreateTeam(ctx, s.db, &team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return &team, nil
}

func (s *TeamService) GetTeam(ctx context.Context, id uuid.UUID) (*tournament.Team, error) {
	team, err := s.store.GetTeam(ctx, s.db, id)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrTeamNotFound, "team")
	}
	return team, nil
}

func (s *TeamService) ListTeams(ctx context.Context, league string) ([]tournament.Team, error) {
	teams, err := s.store.GetTeams(ctx, s.db, strings.TrimSpace(league))
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	return teams, nil
}

// UpdateTeam renames a team and/or moves it to another league. Moving is refused once the team
// is scheduled in a match.
func (s *TeamService) UpdateTeam(ctx context.Context, id uuid.UUID, update TeamUpdate) (*tournament.Team, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	team, err := s.store.GetTeam(ctx, tx, id)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrTeamNotFound, "team")
	}

	if league := utils.TrimPtr(update.League); league != nil {
		if *league == "" {
			return nil, tournament.ErrLeagueRequired
		}
		if *league != team.League {
			if err := s.ensureUnused(ctx, tx, id); err != nil {
				return nil, err
			}
			team.League = *league
		}
	}

	if name := utils.TrimPtr(update.Name); name != nil {
		if *name == "" {
			return nil, tournament.ErrNameRequired
		}
		team.Name = *name
	}

	if err := s.store.UpdateTeam(ctx, tx, team); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}

	return team, tx.Commit()
}

// DeleteTeam removes a team that is not used in any poule or bracket match.
func (s *TeamService) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.store.GetTeam(ctx, tx, id); err != nil {
		return lookupErr(err, tournament.ErrTeamNotFound, "team")
	}
	if err := s.ensureUnused(ctx, tx, id); err != nil {
		return err
	}
	if err := s.store.DeleteTeam(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	return tx.Commit()
}

func (s *TeamService) ensureUnused(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	pouleID, err := s.store.GetTeamPouleID(ctx, q, id)
	if err != nil {
		return fmt.Errorf("failed to check poule of team: %w", err)
	}
	if pouleID != nil {
		return fmt.Errorf("%w: it plays in a poule", tournament.ErrTeamInUse)
	}

	inBracket, err := s.brackets.IsTeamInBracket(ctx, q, id)
	if err != nil {
		return fmt.Errorf("failed to check bracket of team: %w", err)
	}
	if inBracket {
		return fmt.Errorf("%w: it plays in a bracket", tournament.ErrTeamInUse)
	}
	return nil
}
