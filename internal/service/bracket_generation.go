package service

import (
	"context"
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/AdamBeresnev/league-stages/internal/store"
	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BracketService struct {
	db    *sqlx.DB
	store *store.BracketStore
	teams *store.TeamStore
}

func NewBracketService(db *sqlx.DB, bracketStore *store.BracketStore, teamStore *store.TeamStore) *BracketService {
	return &BracketService{db: db, store: bracketStore, teams: teamStore}
}

// PlannedMatch is a bracket match before it is stored. Index is its position in the plan and
// Parent the index of the match its winner moves on to, -1 for the final.
type PlannedMatch struct {
	Index  int
	Parent int
	Round  int
	Order  int
}

// MaxBracketSlots is the largest bracket CreateBracket accepts.
const MaxBracketSlots = 1 << 13

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// PlanBracket lays out the empty single elimination tree for slotCount teams. slotCount has to
// be a power of two no larger than MaxBracketSlots. The final comes first and every match
// precedes the matches feeding into it.
func PlanBracket(slotCount int) ([]PlannedMatch, error) {
	if !isPowerOfTwo(slotCount) {
		return nil, fmt.Errorf("%w (got %d)", tournament.ErrNotPowerOfTwo, slotCount)
	}
	if slotCount > MaxBracketSlots {
		return nil, fmt.Errorf("%w (got %d)", tournament.ErrBracketTooLarge, slotCount)
	}

	totalRounds := bits.Len(uint(slotCount)) - 1
	plan := make([]PlannedMatch, 0, slotCount-1)
	// Next free position per round, filled left to right because the left half is planned first
	nextOrder := make([]int, totalRounds+1)

	var split func(n, parent, round int)
	split = func(n, parent, round int) {
		if n < 2 {
			// A single slot needs no game
			return
		}

		nextOrder[round]++
		m := PlannedMatch{
			Index:  len(plan),
			Parent: parent,
			Round:  round,
			Order:  nextOrder[round],
		}
		plan = append(plan, m)

		if n == 2 {
			return
		}
		split(n/2, m.Index, round-1)
		split(n/2, m.Index, round-1)
	}
	split(slotCount, -1, totalRounds)

	return plan, nil
}

// materialize gives every planned match an id and wires the parent ids.
func materialize(plan []PlannedMatch, league string) []tournament.BracketMatch {
	now := time.Now().UTC()
	matches := make([]tournament.BracketMatch, len(plan))

	for i, p := range plan {
		matches[i] = tournament.BracketMatch{
			ID:          uuid.New(),
			League:      league,
			RoundNumber: p.Round,
			MatchOrder:  p.Order,
			CreatedAt:   now,
		}
		if p.Parent >= 0 {
			parentID := matches[p.Parent].ID
			matches[i].ParentID = &parentID
		}
	}

	return matches
}

// CreateBracket stores the empty bracket of a league. Every check happens before anything is
// written and the bracket is written in a single transaction.
func (s *BracketService) CreateBracket(ctx context.Context, league string, slotCount int) error {
	league = strings.TrimSpace(league)
	if league == "" {
		return tournament.ErrLeagueRequired
	}

	plan, err := PlanBracket(slotCount)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := s.store.BracketExists(ctx, tx, league)
	if err != nil {
		return fmt.Errorf("failed to check existing bracket: %w", err)
	}
	if exists {
		return tournament.ErrBracketExists
	}

	if err := s.store.CreateMatches(ctx, tx, materialize(plan, league)); err != nil {
		return fmt.Errorf("failed to create bracket matches: %w", err)
	}

	return tx.Commit()
}

// DeleteBracket throws away the bracket of a league so a new one can be created.
func (s *BracketService) DeleteBracket(ctx context.Context, league string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := s.store.BracketExists(ctx, tx, league)
	if err != nil {
		return fmt.Errorf("failed to check existing bracket: %w", err)
	}
	if !exists {
		return tournament.ErrNoBracket
	}

	if err := s.store.DeleteBracket(ctx, tx, league); err != nil {
		return fmt.Errorf("failed to delete bracket: %w", err)
	}

	return tx.Commit()
}
