// Package character provides the typed view over a character row (derived
// maxima, effective stats, resource spending) and the multi-resource cost
// service.
package character

import (
	"math"

	"github.com/multiverse-rpg/world-engine/internal/game"
)

// Derived maxima coefficients. Maxima grow with grade and scale with the
// matching stat.
const (
	baseHealthPerGrade = 10
	baseHealthFloor    = 50
	healthPerStrength  = 2

	baseEnergyPerGrade = 10
	baseEnergyFloor    = 30
	energyPerFlow      = 2

	apSpeedFactor = 0.5
)

// View wraps a character together with its dimension and (optionally) its
// position, exposing the derived attributes the engine works with. The view
// mutates the wrapped row in memory; persisting it is the caller's job.
type View struct {
	Char      *game.Character
	Dimension game.Dimension
	Position  *game.Position
}

// NewView builds a view. Position may be nil when the caller does not need
// place-sensitive checks.
func NewView(c *game.Character, dim game.Dimension, pos *game.Position) *View {
	return &View{Char: c, Dimension: dim, Position: pos}
}

// EffectiveStats sums base stats, rank-spend modifiers, equipped item
// bonuses and active effect modifiers.
func (v *View) EffectiveStats() game.Stats {
	s := v.Char.Base.Plus(v.Char.Spent)
	for i := range v.Char.Items {
		if v.Char.Items[i].Equipped {
			s = s.Plus(v.Char.Items[i].Bonus)
		}
	}
	for i := range v.Char.Effects {
		s = s.Plus(v.Char.Effects[i].Modifiers)
	}
	return s
}

// Stat returns the effective value of a named stat.
func (v *View) Stat(name string) int { return v.EffectiveStats().Get(name) }

// RealStat returns the base value only, ignoring all modifiers.
func (v *View) RealStat(name string) int { return v.Char.Base.Get(name) }

// Current returns the current value of a resource kind.
func (v *View) Current(kind game.ResourceKind) int {
	switch kind {
	case game.ResourceHealth:
		return v.Char.CurrentHealth
	case game.ResourceEnergy:
		return v.Char.CurrentEnergy
	case game.ResourceActionPoints:
		return v.Char.CurrentActionPoints
	}
	return 0
}

// Max returns the derived maximum of a resource kind.
func (v *View) Max(kind game.ResourceKind) int {
	switch kind {
	case game.ResourceHealth:
		return baseHealthFloor + v.Char.Grade*baseHealthPerGrade + v.Stat(game.StatPhysicalStrength)*healthPerStrength
	case game.ResourceEnergy:
		return baseEnergyFloor + v.Char.Grade*baseEnergyPerGrade + v.Stat(game.StatFlowManipulation)*energyPerFlow
	case game.ResourceActionPoints:
		return int(math.Round(float64(v.Stat(game.StatSpeed)) * apSpeedFactor * v.Dimension.SpeedFactor))
	}
	return 0
}

// Spend debits n from a resource, failing without mutation when the balance
// is short.
func (v *View) Spend(kind game.ResourceKind, n int) error {
	if v.Current(kind) < n {
		return &InsufficientResourceError{Kind: kind}
	}
	v.set(kind, v.Current(kind)-n)
	return nil
}

// Refill restores one resource to its maximum.
func (v *View) Refill(kind game.ResourceKind) {
	v.set(kind, v.Max(kind))
}

// RefillAll restores health, energy and action points to their maxima.
func (v *View) RefillAll() {
	v.Refill(game.ResourceHealth)
	v.Refill(game.ResourceEnergy)
	v.Refill(game.ResourceActionPoints)
}

// SpendAllAP zeroes the action point budget (move, long rest and similar
// full-turn actions).
func (v *View) SpendAllAP() {
	v.Char.CurrentActionPoints = 0
}

// Clamp forces every current attribute into [0, max]. Call after direct
// mutations such as impacts or god interventions.
func (v *View) Clamp() {
	for _, kind := range []game.ResourceKind{game.ResourceHealth, game.ResourceEnergy, game.ResourceActionPoints} {
		cur := v.Current(kind)
		if cur < 0 {
			v.set(kind, 0)
		} else if max := v.Max(kind); cur > max {
			v.set(kind, max)
		}
	}
}

func (v *View) set(kind game.ResourceKind, value int) {
	switch kind {
	case game.ResourceHealth:
		v.Char.CurrentHealth = value
	case game.ResourceEnergy:
		v.Char.CurrentEnergy = value
	case game.ResourceActionPoints:
		v.Char.CurrentActionPoints = value
	}
}

// IsKnockedOut reports whether the character is out of action.
func (v *View) IsKnockedOut() bool { return v.Char.KnockedOut() }

// IsInSafePlace reports whether the current position allows a long rest.
func (v *View) IsInSafePlace() bool {
	return v.Position != nil && v.Position.IsSafe
}

// InFight reports whether the character participates in an active fight.
func (v *View) InFight() bool { return v.Char.FightID != nil }

// HasSkill reports whether the skill is learned (base or school).
func (v *View) HasSkill(name string) bool {
	for i := range v.Char.LearnedSkills {
		if v.Char.LearnedSkills[i].SkillName == name {
			return true
		}
	}
	return false
}

// HasItem reports whether the character carries the item.
func (v *View) HasItem(itemID uint) bool {
	for i := range v.Char.Items {
		if v.Char.Items[i].ID == itemID {
			return true
		}
	}
	return false
}

// Item returns the carried item or nil.
func (v *View) Item(itemID uint) *game.WorldItem {
	for i := range v.Char.Items {
		if v.Char.Items[i].ID == itemID {
			return &v.Char.Items[i]
		}
	}
	return nil
}

// EffectiveSpeed is the speed stat scaled by the dimension, used for fight
// turn ordering. Never below 1 so ordering math cannot divide by zero.
func (v *View) EffectiveSpeed() int {
	speed := int(math.Round(float64(v.Stat(game.StatSpeed)) * v.Dimension.SpeedFactor))
	if speed < 1 {
		speed = 1
	}
	return speed
}
