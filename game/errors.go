package game

import "errors"

// Named failure signals surfaced to the requesting connection.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	ErrNotHost      = errors.New("only the host can start the game")
	ErrRoomNotReady = errors.New("room is not at capacity")
	ErrStarted      = errors.New("game already started")
)

// Validation rejections. These are dropped silently at the protocol
// layer: a well-behaved client never sends them and a hostile one
// learns nothing from the drop.
var (
	ErrNotStarted    = errors.New("game has not started")
	ErrNotMember     = errors.New("caller is not a member of this room")
	ErrColorNotOwned = errors.New("caller does not own this color")
	ErrNotYourTurn   = errors.New("not this color's turn")
	ErrAlreadyRolled = errors.New("color has already rolled this turn")
	ErrNoRoll        = errors.New("no roll committed for this turn")
	ErrAlreadyMoved  = errors.New("color has already moved this turn")
	ErrBadDiceValue  = errors.New("dice value out of range")
)

// IsValidationRejection reports whether an error belongs to the
// silently-dropped class of rejections.
func IsValidationRejection(err error) bool {
	for _, target := range []error{
		ErrNotStarted, ErrNotMember, ErrColorNotOwned, ErrNotYourTurn,
		ErrAlreadyRolled, ErrNoRoll, ErrAlreadyMoved, ErrBadDiceValue,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
