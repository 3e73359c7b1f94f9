package tournament

import "errors"

var (
	// ErrValidation marks a rejected request: the caller has to change its input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a request for an entity that does not exist.
	ErrNotFound = errors.New("not found")
)

var (
	ErrNotEnoughTeams      = wrap(ErrValidation, "at least 2 teams are required")
	ErrDuplicateTeam       = wrap(ErrValidation, "a team can only be listed once")
	ErrUnknownTeam         = wrap(ErrValidation, "team does not exist")
	ErrTeamAssigned        = wrap(ErrValidation, "team is already assigned to another poule")
	ErrTeamInUse           = wrap(ErrValidation, "team is already scheduled in a match")
	ErrMatchesPlayed       = wrap(ErrValidation, "matches have already been played")
	ErrNameRequired        = wrap(ErrValidation, "name should not be empty")
	ErrLeagueRequired      = wrap(ErrValidation, "league should not be empty")
	ErrNotPowerOfTwo       = wrap(ErrValidation, "amount should be a power of 2")
	ErrBracketTooLarge     = wrap(ErrValidation, "amount should be at most 8192")
	ErrBracketExists       = wrap(ErrValidation, "league already has a bracket")
	ErrDateRequired        = wrap(ErrValidation, "a date is required when registering a match")
	ErrNotParticipant      = wrap(ErrValidation, "team is not a participant of this match")
	ErrMatchFull           = wrap(ErrValidation, "match already has two teams")
	ErrSlotTaken           = wrap(ErrValidation, "slot is already taken")
	ErrLeagueMismatch      = wrap(ErrValidation, "team does not play in this league")
	ErrInvalidSlot         = wrap(ErrValidation, "slot should be 1 or 2")
	ErrNegativeScore       = wrap(ErrValidation, "score should not be negative")
	ErrTeamNotFound        = wrap(ErrNotFound, "team not found")
	ErrPouleNotFound       = wrap(ErrNotFound, "poule not found")
	ErrMatchNotFound       = wrap(ErrNotFound, "match not found")
	ErrNoBracket           = wrap(ErrNotFound, "no bracket exists for this league")
	ErrParticipantNotFound = wrap(ErrNotFound, "participant not found")
)

// ErrBrokenBracket means the stored parent links of a bracket do not form a tree.
var ErrBrokenBracket = errors.New("bracket matches do not form a tree")

type sentinel struct {
	kind error
	msg  string
}

func (e *sentinel) Error() string { return e.msg }
func (e *sentinel) Unwrap() error { return e.kind }

func wrap(kind error, msg string) error {
	return &sentinel{kind: kind, msg: msg}
}
