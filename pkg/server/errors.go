package server

import "errors"

// GameError is a rules or lobby violation surfaced to the offending client
// only. It never terminates the room and never changes room state.
type GameError struct {
	msg string
}

func newGameError(msg string) *GameError {
	return &GameError{msg: msg}
}

func (e *GameError) Error() string {
	return e.msg
}

// The messages below are part of the wire protocol; clients display them
// verbatim.
var (
	ErrNotTimeToPlay       = newGameError("Not time to play")
	ErrNotYourTurn         = newGameError("Not your turn")
	ErrNotTimeToCallTrumps = newGameError("Not time to call trumps")
	ErrNotYourTrumpCall    = newGameError("Not your turn to call trumps")
	ErrAlreadyPlayed       = newGameError("Already played this round")
	ErrCardNotInHand       = newGameError("Card not in hand")
	ErrMustFollowSuit      = newGameError("Must follow suit")
	ErrInvalidSuit         = newGameError("Invalid suit")
	ErrInvalidCard         = newGameError("Invalid card")
	ErrGameNotFound        = newGameError("Game not found")
	ErrGameFull            = newGameError("Game full")
	ErrGameAlreadyStarted  = newGameError("Game already started")
	ErrGameNotFinished     = newGameError("Game not finished")
	ErrInvalidSession      = newGameError("Invalid session")
	ErrNeedTwoPlayers      = newGameError("Need at least 2 players")
	ErrPlayerNotFound      = newGameError("Player not found in game")
)

// IsGameError reports whether err is a client-facing game error as opposed
// to an internal failure.
func IsGameError(err error) bool {
	var ge *GameError
	return errors.As(err, &ge)
}
