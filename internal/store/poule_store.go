package store

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PouleStore struct{}

func NewPouleStore() *PouleStore {
	return &PouleStore{}
}

const (
	pouleColumns      = "id, name, league, created_at"
	pouleMatchColumns = "pm.id, pm.poule_id, pm.match_order, pm.date, pm.created_at"
	pouleTeamColumns  = "pmt.id, pmt.poule_match_id, pmt.team_id, pmt.slot, pmt.score"
)

func (s *PouleStore) CreatePoule(ctx context.Context, q sqlx.ExtContext, poule *tournament.Poule) error {
	if poule.ID == uuid.Nil {
		poule.ID = uuid.New()
	}
	if poule.CreatedAt.IsZero() {
		poule.CreatedAt = time.Now().UTC()
	}
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO poules (id, name, league, created_at)
		VALUES (:id, :name, :league, :created_at)`, poule)
	return err
}

func (s *PouleStore) GetPoule(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*tournament.Poule, error) {
	var poule tournament.Poule
	err := sqlx.GetContext(ctx, q, &poule, q.Rebind("SELECT "+pouleColumns+" FROM poules WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &poule, nil
}

// GetPoules lists the poules of a league, or every poule when league is empty.
func (s *PouleStore) GetPoules(ctx context.Context, q sqlx.ExtContext, league string) ([]tournament.Poule, error) {
	poules := []tournament.Poule{}
	var err error
	if league == "" {
		err = sqlx.SelectContext(ctx, q, &poules, "SELECT "+pouleColumns+" FROM poules ORDER BY created_at ASC, name ASC")
	} else {
		err = sqlx.SelectContext(ctx, q, &poules, q.Rebind("SELECT "+pouleColumns+" FROM poules WHERE league = ? ORDER BY created_at ASC, name ASC"), league)
	}
	return poules, err
}

func (s *PouleStore) UpdatePouleName(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, name string) error {
	return execOne(ctx, q, "UPDATE poules SET name = ? WHERE id = ?", name, id)
}

func (s *PouleStore) DeletePoule(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	return execOne(ctx, q, "DELETE FROM poules WHERE id = ?", id)
}

func (s *PouleStore) CreatePouleMatches(ctx context.Context, q sqlx.ExtContext, matches []tournament.PouleMatch) error {
	if len(matches) == 0 {
		return nil
	}
	return namedInsert(ctx, q, `INSERT INTO poule_matches (id, poule_id, match_order, date, created_at)
		VALUES (:id, :poule_id, :match_order, :date, :created_at)`, matches)
}

func (s *PouleStore) CreatePouleMatchTeams(ctx context.Context, q sqlx.ExtContext, teams []tournament.PouleMatchTeam) error {
	if len(teams) == 0 {
		return nil
	}
	return namedInsert(ctx, q, `INSERT INTO poule_match_teams (id, poule_match_id, team_id, slot, score)
		VALUES (:id, :poule_match_id, :team_id, :slot, :score)`, teams)
}

// GetPouleMatches returns the matches of a poule in schedule order, participants included.
func (s *PouleStore) GetPouleMatches(ctx context.Context, q sqlx.ExtContext, pouleID uuid.UUID) ([]tournament.PouleMatch, error) {
	matches := []tournament.PouleMatch{}
	err := sqlx.SelectContext(ctx, q, &matches, q.Rebind(`SELECT `+pouleMatchColumns+` FROM poule_matches pm
		WHERE pm.poule_id = ?
		ORDER BY pm.match_order ASC`), pouleID)
	if err != nil {
		return nil, err
	}
	return matches, s.attachTeams(ctx, q, matches)
}

func (s *PouleStore) GetPouleMatch(ctx context.Context, q sqlx.ExtContext, pouleID, matchID uuid.UUID) (*tournament.PouleMatch, error) {
	var match tournament.PouleMatch
	err := sqlx.GetContext(ctx, q, &match, q.Rebind(`SELECT `+pouleMatchColumns+` FROM poule_matches pm
		WHERE pm.id = ? AND pm.poule_id = ?`), matchID, pouleID)
	if err != nil {
		return nil, err
	}

	matches := []tournament.PouleMatch{match}
	if err := s.attachTeams(ctx, q, matches); err != nil {
		return nil, err
	}
	return &matches[0], nil
}

// GetRecentPouleMatches returns the latest registered matches of a league, newest first.
func (s *PouleStore) GetRecentPouleMatches(ctx context.Context, q sqlx.ExtContext, league string, limit int) ([]tournament.PouleMatch, error) {
	matches := []tournament.PouleMatch{}
	err := sqlx.SelectContext(ctx, q, &matches, q.Rebind(`SELECT `+pouleMatchColumns+` FROM poule_matches pm
		JOIN poules p ON p.id = pm.poule_id
		WHERE pm.date IS NOT NULL AND p.league = ?
		ORDER BY pm.date DESC
		LIMIT ?`), league, limit)
	if err != nil {
		return nil, err
	}
	return matches, s.attachTeams(ctx, q, matches)
}

func (s *PouleStore) UpdatePouleMatchDate(ctx context.Context, q sqlx.ExtContext, matchID uuid.UUID, date time.Time) error {
	return execOne(ctx, q, "UPDATE poule_matches SET date = ? WHERE id = ?", date, matchID)
}

func (s *PouleStore) UpdatePouleMatchTeamScore(ctx context.Context, q sqlx.ExtContext, matchID, teamID uuid.UUID, score *int) error {
	return execOne(ctx, q, "UPDATE poule_match_teams SET score = ? WHERE poule_match_id = ? AND team_id = ?", score, matchID, teamID)
}

func (s *PouleStore) HasPlayedMatches(ctx context.Context, q sqlx.ExtContext, pouleID uuid.UUID) (bool, error) {
	var played bool
	err := sqlx.GetContext(ctx, q, &played, q.Rebind(`SELECT EXISTS (
		SELECT 1 FROM poule_match_teams pmt
		JOIN poule_matches pm ON pm.id = pmt.poule_match_id
		WHERE pm.poule_id = ? AND pmt.score IS NOT NULL
	)`), pouleID)
	return played, err
}

// DeletePouleMatchesAndTeams removes participants before their matches so the foreign keys hold
// at every statement.
func (s *PouleStore) DeletePouleMatchesAndTeams(ctx context.Context, q sqlx.ExtContext, pouleID uuid.UUID) error {
	_, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM poule_match_teams
		WHERE poule_match_id IN (SELECT id FROM poule_matches WHERE poule_id = ?)`), pouleID)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, q.Rebind("DELETE FROM poule_matches WHERE poule_id = ?"), pouleID)
	return err
}

func (s *PouleStore) attachTeams(ctx context.Context, q sqlx.ExtContext, matches []tournament.PouleMatch) error {
	if len(matches) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	var teams []tournament.PouleMatchTeam
	for batch := range slices.Chunk(ids, batchSize) {
		query, args, err := sqlx.In(`SELECT `+pouleTeamColumns+` FROM poule_match_teams pmt
			WHERE pmt.poule_match_id IN (?)
			ORDER BY pmt.slot ASC`, batch)
		if err != nil {
			return err
		}

		var found []tournament.PouleMatchTeam
		if err := sqlx.SelectContext(ctx, q, &found, q.Rebind(query), args...); err != nil {
			return err
		}
		teams = append(teams, found...)
	}

	byMatch := make(map[uuid.UUID][]tournament.PouleMatchTeam, len(matches))
	for _, t := range teams {
		byMatch[t.PouleMatchID] = append(byMatch[t.PouleMatchID], t)
	}
	for i := range matches {
		matches[i].Teams = byMatch[matches[i].ID]
	}
	return nil
}

// batchSize caps the rows per statement so the bound variables stay well below the sqlite limit.
const batchSize = 500

// namedInsert runs a multi-row named insert batchSize rows at a time. Pass a transaction
// as q when the rows have to land together.
func namedInsert[T any](ctx context.Context, q sqlx.ExtContext, query string, rows []T) error {
	for batch := range slices.Chunk(rows, batchSize) {
		if _, err := sqlx.NamedExecContext(ctx, q, query, batch); err != nil {
			return err
		}
	}
	return nil
}

// execOne runs a statement that has to touch a row, reporting sql.ErrNoRows when it did not.
func execOne(ctx context.Context, q sqlx.ExtContext, query string, args ...any) error {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
