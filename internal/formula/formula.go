// Package formula evaluates skill formulas against a character's stat
// vector. Evaluation is deterministic; dice scaling happens elsewhere.
package formula

import (
	"math"

	"github.com/multiverse-rpg/world-engine/internal/game"
)

const (
	// DefaultMinEfficiency and DefaultMaxEfficiency bound the per-term
	// efficiency when the formula does not specify its own clamp.
	DefaultMinEfficiency = 0.01
	DefaultMaxEfficiency = 3.0
)

// Efficiency computes the scalar efficiency of a formula for the given
// effective stats. With no terms the efficiency is 1. Otherwise it is the
// minimum over all terms of a log-ratio curve: a stat exactly at the
// required value yields 1, twice the requirement pushes toward the scaling
// bonus, shortfalls decay logarithmically.
func Efficiency(f game.Formula, stats game.Stats) float64 {
	minEff := f.MinEfficiency
	if minEff <= 0 {
		minEff = DefaultMinEfficiency
	}
	maxEff := f.MaxEfficiency
	if maxEff <= 0 {
		maxEff = DefaultMaxEfficiency
	}

	if len(f.Terms) == 0 {
		return 1
	}

	lowest := math.Inf(1)
	for _, term := range f.Terms {
		value := stats.Get(term.Stat)
		var eff float64
		if term.Required > 0 {
			ratio := float64(value) / float64(term.Required)
			normalized := math.Log10(1+ratio) / math.Log10(2)
			eff = 1 + (normalized-1)*(1+term.Scaling)
		} else {
			eff = minEff * (1 + term.Scaling)
		}
		if eff < minEff {
			eff = minEff
		}
		if eff > maxEff {
			eff = maxEff
		}
		if eff < lowest {
			lowest = eff
		}
	}
	return lowest
}

// Evaluate returns the integer magnitude of a formula: base times the
// efficiency, rounded half-down (a .5 fraction rounds toward zero, anything
// strictly above rounds up).
func Evaluate(f game.Formula, stats game.Stats) int {
	return roundHalfDown(float64(f.Base) * Efficiency(f, stats))
}

func roundHalfDown(v float64) int {
	floor := math.Floor(v)
	if v-floor > 0.5 {
		return int(floor) + 1
	}
	return int(floor)
}
