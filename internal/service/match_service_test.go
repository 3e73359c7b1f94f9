package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AdamBeresnev/league-stages/internal/store"
	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/AdamBeresnev/league-stages/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// highestScoreAdvancer puts the winner in the first free slot of the parent match.
type highestScoreAdvancer struct {
	store *store.BracketStore
	calls int
	err   error
}

func (a *highestScoreAdvancer) Advance(ctx context.Context, q sqlx.ExtContext, match tournament.BracketMatch, teams []tournament.BracketMatchTeam) error {
	a.calls++
	if a.err != nil {
		return a.err
	}
	if match.IsRoot() {
		return nil
	}

	winner := teams[0]
	if utils.OrZero(teams[1].Score) > utils.OrZero(winner.Score) {
		winner = teams[1]
	}

	current, err := a.store.GetMatchTeams(ctx, q, *match.ParentID)
	if err != nil {
		return err
	}
	return a.store.CreateMatchTeam(ctx, q, &tournament.BracketMatchTeam{
		BracketMatchID: *match.ParentID,
		TeamID:         winner.TeamID,
		Slot:           len(current) + 1,
	})
}

type bracketFixture struct {
	matches  *MatchService
	brackets *BracketService
	store    *store.BracketStore
	teams    []tournament.Team
	final    *tournament.MatchNode
	left     *tournament.MatchNode
	right    *tournament.MatchNode
}

func setupBracket(t *testing.T) *bracketFixture {
	t.Helper()

	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	bracketStore := store.NewBracketStore()
	teamStore := store.NewTeamStore()
	f := &bracketFixture{
		matches:  NewMatchService(db, bracketStore, teamStore),
		brackets: NewBracketService(db, bracketStore, teamStore),
		store:    bracketStore,
		teams:    createTeams(t, db, "A", "Red", "Blue", "Green", "Yellow"),
	}

	ctx := context.Background()
	require.NoError(t, f.brackets.CreateBracket(ctx, "A", 4))
	roots, err := f.brackets.GetBracket(ctx, "A")
	require.NoError(t, err)
	require.Len(t, roots, 1)

	f.final = roots[0]
	f.left = f.final.Children[0]
	f.right = f.final.Children[1]
	return f
}

func TestAssignTeam(t *testing.T) {
	f := setupBracket(t)
	ctx := context.Background()

	node, err := f.matches.AssignTeam(ctx, f.left.ID, f.teams[0].ID, 2)
	require.NoError(t, err)
	require.Len(t, node.Teams, 1)

	// Slot 1 is still free
	node, err = f.matches.AssignTeam(ctx, f.left.ID, f.teams[1].ID, 0)
	require.NoError(t, err)
	require.Len(t, node.Teams, 2)
	assert.Equal(t, f.teams[1].ID, node.Teams[0].TeamID)
	assert.Equal(t, f.teams[0].ID, node.Teams[1].TeamID)

	_, err = f.matches.AssignTeam(ctx, f.left.ID, f.teams[2].ID, 0)
	assert.ErrorIs(t, err, tournament.ErrMatchFull)
}

func TestAssignTeamRejections(t *testing.T) {
	f := setupBracket(t)
	ctx := context.Background()

	_, err := f.matches.AssignTeam(ctx, f.right.ID, f.teams[0].ID, 1)
	require.NoError(t, err)

	testCases := []struct {
		name        string
		matchID     uuid.UUID
		teamID      uuid.UUID
		slot        int
		expectedErr error
	}{
		{name: "Same team twice", matchID: f.right.ID, teamID: f.teams[0].ID, slot: 0, expectedErr: tournament.ErrDuplicateTeam},
		{name: "Slot taken", matchID: f.right.ID, teamID: f.teams[1].ID, slot: 1, expectedErr: tournament.ErrSlotTaken},
		{name: "Invalid slot", matchID: f.right.ID, teamID: f.teams[1].ID, slot: 3, expectedErr: tournament.ErrInvalidSlot},
		{name: "Unknown match", matchID: uuid.New(), teamID: f.teams[1].ID, slot: 0, expectedErr: tournament.ErrMatchNotFound},
		{name: "Unknown team", matchID: f.right.ID, teamID: uuid.New(), slot: 0, expectedErr: tournament.ErrUnknownTeam},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.matches.AssignTeam(ctx, tc.matchID, tc.teamID, tc.slot)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestAssignTeamLeagueMismatch(t *testing.T) {
	f := setupBracket(t)
	ctx := context.Background()

	teamService := NewTeamService(f.matches.db, store.NewTeamStore(), f.store)
	other, err := teamService.CreateTeam(ctx, "Purple", "B")
	require.NoError(t, err)

	_, err = f.matches.AssignTeam(ctx, f.left.ID, other.ID, 0)
	assert.ErrorIs(t, err, tournament.ErrLeagueMismatch)
}

func TestUpdateMatchWithoutAdvancer(t *testing.T) {
	f := setupBracket(t)
	ctx := context.Background()

	_, err := f.matches.AssignTeam(ctx, f.left.ID, f.teams[0].ID, 0)
	require.NoError(t, err)
	_, err = f.matches.AssignTeam(ctx, f.left.ID, f.teams[1].ID, 0)
	require.NoError(t, err)

	_, err = f.matches.UpdateMatch(ctx, f.left.ID, MatchResult{})
	assert.ErrorIs(t, err, tournament.ErrDateRequired)

	date := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	node, err := f.matches.UpdateMatch(ctx, f.left.ID, MatchResult{
		Date:   &date,
		Scores: map[uuid.UUID]int{f.teams[0].ID: 3, f.teams[1].ID: 1},
	})
	require.NoError(t, err)
	require.NotNil(t, node.Date)
	assert.True(t, date.Equal(*node.Date))
	assert.Equal(t, 3, *node.Teams[0].Score)
	assert.Equal(t, 1, *node.Teams[1].Score)

	// Nothing moves on by itself
	final, err := f.matches.GetMatch(ctx, f.final.ID)
	require.NoError(t, err)
	assert.Empty(t, final.Teams)

	_, err = f.matches.UpdateMatch(ctx, f.left.ID, MatchResult{
		Date:   &date,
		Scores: map[uuid.UUID]int{f.teams[2].ID: 1},
	})
	assert.ErrorIs(t, err, tournament.ErrNotParticipant)
}

func TestUpdateMatchAdvancesWinner(t *testing.T) {
	f := setupBracket(t)
	ctx := context.Background()

	advancer := &highestScoreAdvancer{store: f.store}
	f.matches.WithAdvancer(advancer)

	for i, match := range []*tournament.MatchNode{f.left, f.left, f.right, f.right} {
		_, err := f.matches.AssignTeam(ctx, match.ID, f.teams[i].ID, 0)
		require.NoError(t, err)
	}

	// A single score does not finish the match
	_, err := f.matches.UpdateTeamScore(ctx, f.left.ID, f.teams[0].ID, utils.Ptr(1))
	require.NoError(t, err)
	assert.Zero(t, advancer.calls)

	_, err = f.matches.UpdateTeamScore(ctx, f.left.ID, f.teams[1].ID, utils.Ptr(2))
	require.NoError(t, err)
	assert.Equal(t, 1, advancer.calls)

	date := time.Now()
	_, err = f.matches.UpdateMatch(ctx, f.right.ID, MatchResult{
		Date:   &date,
		Scores: map[uuid.UUID]int{f.teams[2].ID: 5, f.teams[3].ID: 0},
	})
	require.NoError(t, err)

	final, err := f.matches.GetMatch(ctx, f.final.ID)
	require.NoError(t, err)
	require.Len(t, final.Teams, 2)
	assert.Equal(t, "Blue", final.Teams[0].Name)
	assert.Equal(t, "Green", final.Teams[1].Name)
}

func TestUpdateMatchAdvancerFailureRollsBack(t *testing.T) {
	f := setupBracket(t)
	ctx := context.Background()

	f.matches.WithAdvancer(&highestScoreAdvancer{store: f.store, err: errors.New("boom")})

	_, err := f.matches.AssignTeam(ctx, f.left.ID, f.teams[0].ID, 0)
	require.NoError(t, err)
	_, err = f.matches.AssignTeam(ctx, f.left.ID, f.teams[1].ID, 0)
	require.NoError(t, err)

	date := time.Now()
	_, err = f.matches.UpdateMatch(ctx, f.left.ID, MatchResult{
		Date:   &date,
		Scores: map[uuid.UUID]int{f.teams[0].ID: 1, f.teams[1].ID: 0},
	})
	require.Error(t, err)

	node, err := f.matches.GetMatch(ctx, f.left.ID)
	require.NoError(t, err)
	assert.Nil(t, node.Date)
	assert.Nil(t, node.Teams[0].Score)
}

func TestUpdateTeamScore(t *testing.T) {
	f := setupBracket(t)
	ctx := context.Background()

	_, err := f.matches.AssignTeam(ctx, f.left.ID, f.teams[0].ID, 0)
	require.NoError(t, err)

	node, err := f.matches.UpdateTeamScore(ctx, f.left.ID, f.teams[0].ID, utils.Ptr(4))
	require.NoError(t, err)
	assert.Equal(t, 4, *node.Teams[0].Score)

	node, err = f.matches.UpdateTeamScore(ctx, f.left.ID, f.teams[0].ID, nil)
	require.NoError(t, err)
	assert.Nil(t, node.Teams[0].Score)

	_, err = f.matches.UpdateTeamScore(ctx, f.left.ID, f.teams[0].ID, utils.Ptr(-1))
	assert.ErrorIs(t, err, tournament.ErrNegativeScore)

	_, err = f.matches.UpdateTeamScore(ctx, f.left.ID, f.teams[1].ID, utils.Ptr(1))
	assert.ErrorIs(t, err, tournament.ErrParticipantNotFound)
}
