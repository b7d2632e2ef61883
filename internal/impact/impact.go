// Package impact applies skill impacts to targets: formula magnitude, one
// dice multiplier per skill use, shield absorption, health mutation and
// chance-based effect attachment.
package impact

import (
	"math/rand"

	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/dice"
	"github.com/multiverse-rpg/world-engine/internal/formula"
	"github.com/multiverse-rpg/world-engine/internal/game"
)

// Manager computes and applies skill impacts. It mutates the provided
// views in memory; persisting the touched rows is the caller's job.
type Manager struct {
	rng *rand.Rand
}

// NewManager builds a manager around the given rng. Schedulers inject a
// seeded rng for reproducible cycles.
func NewManager(rng *rand.Rand) *Manager {
	return &Manager{rng: rng}
}

// ApplyInput bundles one skill use.
type ApplyInput struct {
	Skill       game.Skill
	Initiator   *character.View
	Targets     []*character.View
	CycleNumber int
}

// Apply rolls one luck-weighted multiplier, scales every impact of the
// skill by it and applies the result to each target (shields first), then
// rolls the skill's effects. Returns one ActionImpact record per
// impact/target pair.
func (m *Manager) Apply(in ApplyInput) []game.ActionImpact {
	roll := dice.RollWith(m.rng, 20, in.Initiator.Stat(game.StatLuck))
	stats := in.Initiator.EffectiveStats()

	records := make([]game.ActionImpact, 0, len(in.Skill.Impacts)*len(in.Targets))
	for _, imp := range in.Skill.Impacts {
		raw := formula.Evaluate(imp.Formula, stats)
		magnitude := int(float64(raw) * roll.Multiplier)
		if magnitude < 0 {
			magnitude = 0
		}
		for _, target := range in.Targets {
			applied := m.applyOne(imp, magnitude, target)
			records = append(records, game.ActionImpact{
				TargetID:       target.Char.ID,
				Type:           imp.Type,
				Violation:      imp.Violation,
				Size:           applied,
				DiceSide:       roll.Side,
				DiceMultiplier: roll.Multiplier,
				DiceOutcome:    roll.Outcome,
			})
		}
	}

	for _, def := range in.Skill.Effects {
		for _, target := range in.Targets {
			m.rollEffect(def, stats, target, in.CycleNumber)
		}
	}

	return records
}

// applyOne pushes a single magnitude into a target and returns the amount
// that actually landed after shields.
func (m *Manager) applyOne(imp game.SkillImpact, magnitude int, target *character.View) int {
	switch imp.Type {
	case game.ImpactDamage:
		remaining := absorb(target, imp.Violation, magnitude)
		target.Char.CurrentHealth -= remaining
		if target.Char.CurrentHealth < 0 {
			target.Char.CurrentHealth = 0
		}
		return remaining
	case game.ImpactHeal:
		max := target.Max(game.ResourceHealth)
		healed := magnitude
		if target.Char.CurrentHealth+healed > max {
			healed = max - target.Char.CurrentHealth
		}
		target.Char.CurrentHealth += healed
		return healed
	}
	return 0
}

// absorb runs the damage through every active shield of a matching
// violation type. Depleted shields are deactivated.
func absorb(target *character.View, violation game.ViolationType, magnitude int) int {
	for i := range target.Char.Shields {
		sh := &target.Char.Shields[i]
		if !sh.Active || sh.Violation != violation {
			continue
		}
		if magnitude <= 0 {
			break
		}
		soaked := sh.Remaining
		if soaked > magnitude {
			soaked = magnitude
		}
		sh.Remaining -= soaked
		magnitude -= soaked
		if sh.Remaining <= 0 {
			sh.Active = false
		}
	}
	if magnitude < 0 {
		magnitude = 0
	}
	return magnitude
}

// rollEffect attaches the effect to the target when the chance roll
// succeeds. Shield effects create an active shield instead.
func (m *Manager) rollEffect(def game.EffectDef, initiatorStats game.Stats, target *character.View, cycleNumber int) {
	if m.rng.Float64() >= def.BaseChance {
		return
	}
	if def.ShieldCapacity > 0 {
		target.Char.Shields = append(target.Char.Shields, game.ActiveShield{
			CharacterID: target.Char.ID,
			Violation:   def.ShieldViolation,
			Capacity:    def.ShieldCapacity,
			Remaining:   def.ShieldCapacity,
			Active:      true,
		})
		return
	}
	duration := formula.Evaluate(def.Duration, initiatorStats)
	if duration < 1 {
		duration = 1
	}
	target.Char.Effects = append(target.Char.Effects, game.ActiveEffect{
		CharacterID:    target.Char.ID,
		Name:           def.Name,
		ExpiresAtCycle: cycleNumber + duration,
		Modifiers:      def.Modifiers,
	})
}
