package tournament

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("%w: %s", ErrTeamAssigned, uuid.New())

	assert.ErrorIs(t, wrapped, ErrTeamAssigned)
	assert.ErrorIs(t, wrapped, ErrValidation)
	assert.False(t, errors.Is(wrapped, ErrNotFound))

	assert.ErrorIs(t, ErrNoBracket, ErrNotFound)
	assert.False(t, errors.Is(ErrNoBracket, ErrValidation))
	assert.Equal(t, "no bracket exists for this league", ErrNoBracket.Error())
}

func TestMatchNodeShape(t *testing.T) {
	leaf := func() *MatchNode { return &MatchNode{ID: uuid.New()} }
	semi1 := &MatchNode{ID: uuid.New(), Children: []*MatchNode{leaf(), leaf()}}
	semi2 := &MatchNode{ID: uuid.New(), Children: []*MatchNode{leaf(), leaf()}}
	final := &MatchNode{ID: uuid.New(), Children: []*MatchNode{semi1, semi2}}

	assert.Equal(t, 7, final.Count())
	assert.Equal(t, 3, final.Depth())
	assert.False(t, final.IsLeaf())
	assert.True(t, semi1.Children[0].IsLeaf())
	assert.Equal(t, 1, semi1.Children[0].Depth())
}

func TestPouleMatchPlayed(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	zero := 0
	match := PouleMatch{Teams: []PouleMatchTeam{{TeamID: a, Slot: 1}, {TeamID: b, Slot: 2}}}

	assert.False(t, match.IsPlayed())
	assert.True(t, match.HasTeam(b))
	assert.False(t, match.HasTeam(uuid.New()))

	match.Teams[1].Score = &zero
	assert.True(t, match.IsPlayed(), "a zero score is still a score")
}

func TestRosterParticipant(t *testing.T) {
	red := Team{ID: uuid.New(), Name: "Red", League: "A"}
	roster := NewRoster([]Team{red})
	score := 2

	p := roster.Participant(red.ID, &score)
	assert.Equal(t, Participant{TeamID: red.ID, Name: "Red", League: "A", Score: &score}, p)

	unknown := roster.Participant(uuid.New(), nil)
	assert.Empty(t, unknown.Name)
}
