package actions

import (
	"errors"
	"fmt"

	"github.com/multiverse-rpg/world-engine/internal/character"
)

// ErrGameLogic matches contextually impossible actions: the request is well
// formed but the world state does not allow it.
var ErrGameLogic = errors.New("game logic violation")

// ErrMovement matches unreachable, locked or contested movement targets.
var ErrMovement = errors.New("movement not possible")

// ErrStateConflict signals a serialization conflict on the aggregate; the
// caller may retry once.
var ErrStateConflict = errors.New("state conflict")

// GameLogicError carries the human-readable reason an action was refused.
type GameLogicError struct {
	Reason string
}

func (e *GameLogicError) Error() string { return e.Reason }
func (e *GameLogicError) Unwrap() error { return ErrGameLogic }

func logicf(format string, args ...interface{}) error {
	return &GameLogicError{Reason: fmt.Sprintf(format, args...)}
}

// MovementError carries the reason a move was refused or blocked.
type MovementError struct {
	Reason string
}

func (e *MovementError) Error() string { return e.Reason }
func (e *MovementError) Unwrap() error { return ErrMovement }

func movementf(format string, args ...interface{}) error {
	return &MovementError{Reason: fmt.Sprintf(format, args...)}
}

// Error kind labels stored on failed actions and reported in events.
const (
	ErrorKindGameLogic    = "game_logic"
	ErrorKindMovement     = "movement"
	ErrorKindInsufficient = "insufficient_resources"
	ErrorKindInternal     = "internal"
)

// classifyError maps an error onto its recorded kind.
func classifyError(err error) string {
	switch {
	case errors.Is(err, character.ErrInsufficientResources):
		return ErrorKindInsufficient
	case errors.Is(err, ErrMovement):
		return ErrorKindMovement
	case errors.Is(err, ErrGameLogic):
		return ErrorKindGameLogic
	default:
		return ErrorKindInternal
	}
}
