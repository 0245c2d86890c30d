package app

import "errors"

// Rule violations are rejected locally and never mutate engine state; the
// transport layer forwards them to the offending sender only.
var (
	ErrGameNotStarted    = errors.New("game has not started")
	ErrGameOver          = errors.New("game is over")
	ErrNotYourTurn       = errors.New("it is not your turn to act")
	ErrWrongRequest      = errors.New("response does not match the pending request")
	ErrInvalidChoice     = errors.New("choice is not among the offered candidates")
	ErrInvalidInstrument = errors.New("instrument is not in play")
	ErrCannotAfford      = errors.New("not enough cash")
	ErrActionLocked      = errors.New("turn is committed to the other trade type")
	ErrLimitReached      = errors.New("trade limit for this turn reached")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrUndoBlocked       = errors.New("cannot undo past an ability use")
	ErrAbilityUsed       = errors.New("ability already used this turn")
	ErrNoAbilityPending  = errors.New("no ability step awaiting input")
	ErrPlayerCount       = errors.New("unsupported player count")
)
