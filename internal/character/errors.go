package character

import (
	"errors"
	"fmt"

	"github.com/multiverse-rpg/world-engine/internal/game"
)

// ErrInsufficientResources matches every InsufficientResourceError via
// errors.Is.
var ErrInsufficientResources = errors.New("insufficient resources")

// InsufficientResourceError reports which resource kind fell short.
type InsufficientResourceError struct {
	Kind game.ResourceKind
}

func (e *InsufficientResourceError) Error() string {
	return fmt.Sprintf("insufficient %s", e.Kind)
}

func (e *InsufficientResourceError) Unwrap() error { return ErrInsufficientResources }
