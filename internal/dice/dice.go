// Package dice implements the luck-weighted multiplier roll used to scale
// skill impacts and resolve chance-based interactions.
package dice

import (
	"errors"
	"math"
	"math/rand"

	"github.com/multiverse-rpg/world-engine/internal/game"
)

// ErrInvalidSides indicates a roll was requested with a non-positive die.
var ErrInvalidSides = errors.New("dice must have at least one side")

// RollRequest describes a multiplier roll.
type RollRequest struct {
	Sides int
	// Luck biases the draw: with probability clamp(luck/100, 0, 0.5) the
	// die is rerolled once and the higher side kept.
	Luck int
	Seed int64
}

// RollResult captures the rolled side, the impact multiplier and the
// qualitative outcome class.
type RollResult struct {
	Side       int
	Multiplier float64
	Outcome    game.DiceOutcome
}

// Roll performs a multiplier roll.
//
// # Determinism
//
// Roll is deterministic with respect to the Seed field: the same seed,
// sides and luck always produce the same RollResult. The rng is consumed
// in a fixed order (candidate side, reroll gate, optional second side) so
// results stay reproducible across calls.
func Roll(request RollRequest) (RollResult, error) {
	if request.Sides <= 0 {
		return RollResult{}, ErrInvalidSides
	}
	rng := rand.New(rand.NewSource(request.Seed))
	return RollWith(rng, request.Sides, request.Luck), nil
}

// RollWith performs a multiplier roll using the provided rng. Callers that
// roll several dice in one pipeline share a single rng for determinism.
func RollWith(rng *rand.Rand, sides, luck int) RollResult {
	side := rng.Intn(sides) + 1

	chance := float64(luck) / 100.0
	if chance < 0 {
		chance = 0
	}
	if chance > 0.5 {
		chance = 0.5
	}
	if chance > 0 && rng.Float64() < chance {
		second := rng.Intn(sides) + 1
		if second > side {
			side = second
		}
	}

	multiplier, outcome := classify(side, sides)
	return RollResult{Side: side, Multiplier: multiplier, Outcome: outcome}
}

// classify maps a side onto the d20 reference bucket table, scaling the
// bucket boundaries linearly for other die sizes.
//
// d20 reference: 1 -> 0.0, 2-4 -> 0.25, 5-9 -> 0.6, 10-14 -> 1.0,
// 15-17 -> 1.5, 18-19 -> 2.0, 20 -> 3.0.
func classify(side, sides int) (float64, game.DiceOutcome) {
	ref := side
	if sides != 20 {
		ref = int(math.Ceil(float64(side) * 20.0 / float64(sides)))
		if ref < 1 {
			ref = 1
		}
		if ref > 20 {
			ref = 20
		}
	}

	switch {
	case ref <= 1:
		return 0.0, game.OutcomeCritFail
	case ref <= 4:
		return 0.25, game.OutcomeFail
	case ref <= 9:
		return 0.6, game.OutcomeFail
	case ref <= 14:
		return 1.0, game.OutcomeNeutral
	case ref <= 17:
		return 1.5, game.OutcomeSuccess
	case ref <= 19:
		return 2.0, game.OutcomeSuccess
	default:
		return 3.0, game.OutcomeCritSuccess
	}
}
