package game

import "errors"

// Error taxonomy for the engine. All of these are client-recoverable and
// surfaced at the HTTP boundary; operational faults (empty puzzle list,
// storage errors) pass through wrapped instead.
var (
	ErrInvalidPuzzleNumber = errors.New("invalid game number")
	ErrGameAlreadyOver     = errors.New("game is already over (Won or Lost)")
	ErrInvalidGuessLength  = errors.New("guess has the wrong length")
	ErrWordNotAccepted     = errors.New("word not in accepted list")
	ErrPuzzleNotFound      = errors.New("custom game not found")
)

// IsClientError reports whether err is caused by client input or a stale
// client view, as opposed to a server-side fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPuzzleNumber) ||
		errors.Is(err, ErrGameAlreadyOver) ||
		errors.Is(err, ErrInvalidGuessLength) ||
		errors.Is(err, ErrWordNotAccepted) ||
		errors.Is(err, ErrPuzzleNotFound)
}
