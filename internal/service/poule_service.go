package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/league-stages/internal/store"
	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/AdamBeresnev/league-stages/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PouleService struct {
	db    *sqlx.DB
	store *store.PouleStore
	teams *store.TeamStore
}

func NewPouleService(db *sqlx.DB, pouleStore *store.PouleStore, teamStore *store.TeamStore) *PouleService {
	return &PouleService{db: db, store: pouleStore, teams: teamStore}
}

type PouleInput struct {
	Name    string
	League  string
	TeamIDs []uuid.UUID
}

// PouleUpdate changes the fields that are set. A non-nil TeamIDs regenerates the schedule.
type PouleUpdate struct {
	Name    *string
	TeamIDs []uuid.UUID
}

// MatchResult registers a played match. Scores are keyed by team id.
type MatchResult struct {
	Date   *time.Time
	Scores map[uuid.UUID]int
}

type PouleMatchView struct {
	ID      uuid.UUID                `json:"id"`
	PouleID uuid.UUID                `json:"pouleId"`
	Date    *time.Time               `json:"date"`
	Order   int                      `json:"order"`
	Teams   []tournament.Participant `json:"teams"`
}

type PouleDetails struct {
	tournament.Poule
	Teams   []tournament.Team `json:"teams"`
	Matches []PouleMatchView  `json:"matches"`
}

type PouleSummary struct {
	tournament.Poule
	Teams []Standing `json:"teams"`
}

func (s *PouleService) CreatePoule(ctx context.Context, input PouleInput) (*PouleDetails, error) {
	name := strings.TrimSpace(input.Name)
	league := strings.TrimSpace(input.League)
	if name == "" {
		return nil, tournament.ErrNameRequired
	}
	if league == "" {
		return nil, tournament.ErrLeagueRequired
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	roster, err := s.validateTeams(ctx, tx, input.TeamIDs, uuid.Nil)
	if err != nil {
		return nil, err
	}

	poule := tournament.Poule{Name: name, League: league}
	if err := s.store.CreatePoule(ctx, tx, &poule); err != nil {
		return nil, fmt.Errorf("failed to create poule: %w", err)
	}

	matches, err := s.generateRoundRobin(ctx, tx, input.TeamIDs, &poule)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return newPouleDetails(poule, matches, roster), nil
}

func (s *PouleService) GetPoule(ctx context.Context, id uuid.UUID) (*PouleDetails, error) {
	poule, err := s.store.GetPoule(ctx, s.db, id)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrPouleNotFound, "poule")
	}

	matches, err := s.store.GetPouleMatches(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get poule matches: %w", err)
	}

	roster, err := s.rosterFor(ctx, s.db, matches)
	if err != nil {
		return nil, err
	}

	return newPouleDetails(*poule, matches, roster), nil
}

// ListPoules returns the poules of a league with their current standings.
func (s *PouleService) ListPoules(ctx context.Context, league string) ([]PouleSummary, error) {
	poules, err := s.store.GetPoules(ctx, s.db, strings.TrimSpace(league))
	if err != nil {
		return nil, fmt.Errorf("failed to get poules: %w", err)
	}

	summaries := make([]PouleSummary, 0, len(poules))
	for _, p := range poules {
		matches, err := s.store.GetPouleMatches(ctx, s.db, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get matches of poule %s: %w", p.ID, err)
		}

		roster, err := s.rosterFor(ctx, s.db, matches)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, PouleSummary{Poule: p, Teams: Standings(matches, roster)})
	}

	return summaries, nil
}

func (s *PouleService) ListPouleMatches(ctx context.Context, pouleID uuid.UUID) ([]PouleMatchView, error) {
	details, err := s.GetPoule(ctx, pouleID)
	if err != nil {
		return nil, err
	}
	return details.Matches, nil
}

func (s *PouleService) GetPouleMatch(ctx context.Context, pouleID, matchID uuid.UUID) (*PouleMatchView, error) {
	match, err := s.store.GetPouleMatch(ctx, s.db, pouleID, matchID)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrMatchNotFound, "poule match")
	}

	roster, err := s.rosterFor(ctx, s.db, []tournament.PouleMatch{*match})
	if err != nil {
		return nil, err
	}

	view := newPouleMatchView(*match, roster)
	return &view, nil
}

// RecentMatches returns up to count registered matches of a league, newest first.
func (s *PouleService) RecentMatches(ctx context.Context, league string, count int) ([]PouleMatchView, error) {
	if count <= 0 {
		return []PouleMatchView{}, nil
	}

	matches, err := s.store.GetRecentPouleMatches(ctx, s.db, strings.TrimSpace(league), count)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent matches: %w", err)
	}

	roster, err := s.rosterFor(ctx, s.db, matches)
	if err != nil {
		return nil, err
	}

	views := make([]PouleMatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, newPouleMatchView(m, roster))
	}
	return views, nil
}

// UpdatePoule renames a poule and/or replaces its teams. Replacing the teams throws away the
// current schedule, which is refused once a match has been played.
func (s *PouleService) UpdatePoule(ctx context.Context, id uuid.UUID, update PouleUpdate) (*PouleDetails, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	poule, err := s.store.GetPoule(ctx, tx, id)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrPouleNotFound, "poule")
	}

	if name := utils.TrimPtr(update.Name); name != nil {
		if *name == "" {
			return nil, tournament.ErrNameRequired
		}
		if err := s.store.UpdatePouleName(ctx, tx, id, *name); err != nil {
			return nil, fmt.Errorf("failed to rename poule: %w", err)
		}
		poule.Name = *name
	}

	if update.TeamIDs != nil {
		if _, err := s.validateTeams(ctx, tx, update.TeamIDs, id); err != nil {
			return nil, err
		}
		if err := s.teardown(ctx, tx, id); err != nil {
			return nil, err
		}
		if _, err := s.generateRoundRobin(ctx, tx, update.TeamIDs, poule); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetPoule(ctx, id)
}

// DeletePoule removes a poule with its whole schedule, unless a match has been played.
func (s *PouleService) DeletePoule(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.store.GetPoule(ctx, tx, id); err != nil {
		return lookupErr(err, tournament.ErrPouleNotFound, "poule")
	}
	if err := s.teardown(ctx, tx, id); err != nil {
		return err
	}
	if err := s.store.DeletePoule(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete poule: %w", err)
	}

	return tx.Commit()
}

// HasPlayedMatches reports whether any match of the poule already has a score.
func (s *PouleService) HasPlayedMatches(ctx context.Context, pouleID uuid.UUID) (bool, error) {
	if _, err := s.store.GetPoule(ctx, s.db, pouleID); err != nil {
		return false, lookupErr(err, tournament.ErrPouleNotFound, "poule")
	}

	played, err := s.store.HasPlayedMatches(ctx, s.db, pouleID)
	if err != nil {
		return false, fmt.Errorf("failed to check played matches: %w", err)
	}
	return played, nil
}

// DeleteAllMatchesAndParticipants clears the schedule of a poule in one transaction. Callers
// are expected to have checked HasPlayedMatches first.
func (s *PouleService) DeleteAllMatchesAndParticipants(ctx context.Context, pouleID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.store.DeletePouleMatchesAndTeams(ctx, tx, pouleID); err != nil {
		return fmt.Errorf("failed to delete poule matches: %w", err)
	}

	return tx.Commit()
}

// UpdatePouleMatch registers when a match was played and, optionally, the scores of its teams.
func (s *PouleService) UpdatePouleMatch(ctx context.Context, pouleID, matchID uuid.UUID, result MatchResult) (*PouleMatchView, error) {
	if result.Date == nil {
		return nil, tournament.ErrDateRequired
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetPouleMatch(ctx, tx, pouleID, matchID)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrMatchNotFound, "poule match")
	}

	for teamID, score := range result.Scores {
		if !match.HasTeam(teamID) {
			return nil, fmt.Errorf("%w: %s", tournament.ErrNotParticipant, teamID)
		}
		if score < 0 {
			return nil, tournament.ErrNegativeScore
		}
	}

	if err := s.store.UpdatePouleMatchDate(ctx, tx, matchID, result.Date.UTC()); err != nil {
		return nil, fmt.Errorf("failed to update match date: %w", err)
	}
	for teamID, score := range result.Scores {
		if err := s.store.UpdatePouleMatchTeamScore(ctx, tx, matchID, teamID, utils.Ptr(score)); err != nil {
			return nil, fmt.Errorf("failed to update score of team %s: %w", teamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetPouleMatch(ctx, pouleID, matchID)
}

// UpdatePouleMatchTeamScore sets the score of one participant. A nil score marks it unplayed again.
func (s *PouleService) UpdatePouleMatchTeamScore(ctx context.Context, pouleID, matchID, teamID uuid.UUID, score *int) (*PouleMatchView, error) {
	if score != nil && *score < 0 {
		return nil, tournament.ErrNegativeScore
	}

	match, err := s.store.GetPouleMatch(ctx, s.db, pouleID, matchID)
	if err != nil {
		return nil, lookupErr(err, tournament.ErrMatchNotFound, "poule match")
	}
	if !match.HasTeam(teamID) {
		return nil, fmt.Errorf("%w: %s", tournament.ErrNotParticipant, teamID)
	}

	if err := s.store.UpdatePouleMatchTeamScore(ctx, s.db, matchID, teamID, score); err != nil {
		return nil, lookupErr(err, tournament.ErrParticipantNotFound, "poule match team")
	}

	return s.GetPouleMatch(ctx, pouleID, matchID)
}

// teardown is the guarded form of DeleteAllMatchesAndParticipants used inside larger transactions.
func (s *PouleService) teardown(ctx context.Context, q sqlx.ExtContext, pouleID uuid.UUID) error {
	played, err := s.store.HasPlayedMatches(ctx, q, pouleID)
	if err != nil {
		return fmt.Errorf("failed to check played matches: %w", err)
	}
	if played {
		return tournament.ErrMatchesPlayed
	}

	if err := s.store.DeletePouleMatchesAndTeams(ctx, q, pouleID); err != nil {
		return fmt.Errorf("failed to delete poule matches: %w", err)
	}
	return nil
}

// validateTeams checks a new poule roster: enough distinct teams, all existing, none scheduled
// in a poule other than pouleID.
func (s *PouleService) validateTeams(ctx context.Context, q sqlx.ExtContext, teamIDs []uuid.UUID, pouleID uuid.UUID) (tournament.Roster, error) {
	if _, err := RoundRobinPairs(teamIDs); err != nil {
		return nil, err
	}

	teams, err := s.teams.GetTeamsByIDs(ctx, q, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	roster := tournament.NewRoster(teams)

	for _, id := range teamIDs {
		if _, ok := roster[id]; !ok {
			return nil, fmt.Errorf("%w: %s", tournament.ErrUnknownTeam, id)
		}

		assigned, err := s.teams.GetTeamPouleID(ctx, q, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check poule of team %s: %w", id, err)
		}
		if assigned != nil && *assigned != pouleID {
			return nil, fmt.Errorf("%w: %s", tournament.ErrTeamAssigned, id)
		}
	}

	return roster, nil
}

func (s *PouleService) rosterFor(ctx context.Context, q sqlx.ExtContext, matches []tournament.PouleMatch) (tournament.Roster, error) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, m := range matches {
		for _, t := range m.Teams {
			if !seen[t.TeamID] {
				seen[t.TeamID] = true
				ids = append(ids, t.TeamID)
			}
		}
	}

	teams, err := s.teams.GetTeamsByIDs(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	return tournament.NewRoster(teams), nil
}

func newPouleMatchView(m tournament.PouleMatch, roster tournament.Roster) PouleMatchView {
	view := PouleMatchView{
		ID:      m.ID,
		PouleID: m.PouleID,
		Date:    m.Date,
		Order:   m.MatchOrder,
		Teams:   make([]tournament.Participant, 0, len(m.Teams)),
	}
	for _, t := range m.Teams {
		view.Teams = append(view.Teams, roster.Participant(t.TeamID, t.Score))
	}
	return view
}

// newPouleDetails lists the teams of the poule in the order they first appear in the schedule.
func newPouleDetails(poule tournament.Poule, matches []tournament.PouleMatch, roster tournament.Roster) *PouleDetails {
	details := &PouleDetails{
		Poule:   poule,
		Teams:   []tournament.Team{},
		Matches: make([]PouleMatchView, 0, len(matches)),
	}

	seen := make(map[uuid.UUID]bool)
	for _, m := range matches {
		for _, t := range m.Teams {
			if !seen[t.TeamID] {
				seen[t.TeamID] = true
				details.Teams = append(details.Teams, roster[t.TeamID])
			}
		}
		details.Matches = append(details.Matches, newPouleMatchView(m, roster))
	}

	return details
}
