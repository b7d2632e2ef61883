package impact

import (
	"math/rand"
	"testing"

	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/dice"
	"github.com/multiverse-rpg/world-engine/internal/game"
)

func view(c *game.Character) *character.View {
	return character.NewView(c, game.Dimension{SpeedFactor: 1}, nil)
}

// findSeed scans for a seed whose first d20 roll (at the given luck) lands
// on a side inside [lo, hi].
func findSeed(t *testing.T, luck, lo, hi int) int64 {
	t.Helper()
	for seed := int64(1); seed < 100000; seed++ {
		r := dice.RollWith(rand.New(rand.NewSource(seed)), 20, luck)
		if r.Side >= lo && r.Side <= hi {
			return seed
		}
	}
	t.Fatal("no seed found for requested dice side range")
	return 0
}

func damageSkill(base int, violation game.ViolationType) game.Skill {
	return game.Skill{
		Name: "strike",
		Kind: game.SkillAttack,
		Impacts: []game.SkillImpact{
			{Type: game.ImpactDamage, Violation: violation, Formula: game.Formula{Base: base}},
		},
	}
}

func TestApply_DamageWithNeutralRoll(t *testing.T) {
	// pick a seed that rolls a neutral side (10-14, multiplier 1.0) so the
	// formula base lands unscaled
	seed := findSeed(t, 0, 10, 14)

	attacker := &game.Character{}
	target := &game.Character{CurrentHealth: 30}

	m := NewManager(rand.New(rand.NewSource(seed)))
	records := m.Apply(ApplyInput{
		Skill:     damageSkill(10, game.ViolationPhysical),
		Initiator: view(attacker),
		Targets:   []*character.View{view(target)},
	})

	if target.CurrentHealth != 20 {
		t.Fatalf("target health: got %d, want 20", target.CurrentHealth)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 impact record, got %d", len(records))
	}
	rec := records[0]
	if rec.Type != game.ImpactDamage || rec.Size != 10 || rec.DiceMultiplier != 1.0 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.DiceSide < 10 || rec.DiceSide > 14 {
		t.Fatalf("unexpected dice side %d", rec.DiceSide)
	}
}

func TestApply_ShieldAbsorbsMatchingViolation(t *testing.T) {
	seed := findSeed(t, 0, 10, 14)

	attacker := &game.Character{}
	target := &game.Character{CurrentHealth: 30}
	target.Shields = []game.ActiveShield{
		{Violation: game.ViolationPhysical, Capacity: 4, Remaining: 4, Active: true},
		{Violation: game.ViolationMental, Capacity: 50, Remaining: 50, Active: true},
	}

	m := NewManager(rand.New(rand.NewSource(seed)))
	records := m.Apply(ApplyInput{
		Skill:     damageSkill(10, game.ViolationPhysical),
		Initiator: view(attacker),
		Targets:   []*character.View{view(target)},
	})

	if target.CurrentHealth != 24 {
		t.Fatalf("shield should soak 4 of 10: health %d, want 24", target.CurrentHealth)
	}
	if target.Shields[0].Active || target.Shields[0].Remaining != 0 {
		t.Fatalf("depleted shield should deactivate: %+v", target.Shields[0])
	}
	if !target.Shields[1].Active || target.Shields[1].Remaining != 50 {
		t.Fatalf("mismatched violation shield must not soak: %+v", target.Shields[1])
	}
	if records[0].Size != 6 {
		t.Fatalf("record should carry the landed amount: got %d, want 6", records[0].Size)
	}
}

func TestApply_DamageFloorsHealthAtZero(t *testing.T) {
	seed := findSeed(t, 0, 10, 14)

	target := &game.Character{CurrentHealth: 3}
	m := NewManager(rand.New(rand.NewSource(seed)))
	m.Apply(ApplyInput{
		Skill:     damageSkill(10, game.ViolationPhysical),
		Initiator: view(&game.Character{}),
		Targets:   []*character.View{view(target)},
	})
	if target.CurrentHealth != 0 {
		t.Fatalf("health must floor at 0, got %d", target.CurrentHealth)
	}
}

func TestApply_HealCapsAtMax(t *testing.T) {
	seed := findSeed(t, 0, 10, 14)

	// no grade, no strength: max health is the floor of 50
	target := &game.Character{CurrentHealth: 45}
	heal := game.Skill{
		Name: "mend",
		Kind: game.SkillHeal,
		Impacts: []game.SkillImpact{
			{Type: game.ImpactHeal, Violation: game.ViolationNone, Formula: game.Formula{Base: 20}},
		},
	}

	m := NewManager(rand.New(rand.NewSource(seed)))
	records := m.Apply(ApplyInput{
		Skill:     heal,
		Initiator: view(&game.Character{}),
		Targets:   []*character.View{view(target)},
	})

	if target.CurrentHealth != 50 {
		t.Fatalf("heal must cap at max: got %d, want 50", target.CurrentHealth)
	}
	if records[0].Size != 5 {
		t.Fatalf("record should carry the capped amount: got %d, want 5", records[0].Size)
	}
}

func TestApply_MultiplierScalesMagnitude(t *testing.T) {
	// crit success (side 20) triples the formula base
	seed := findSeed(t, 0, 20, 20)

	target := &game.Character{CurrentHealth: 100}
	m := NewManager(rand.New(rand.NewSource(seed)))
	records := m.Apply(ApplyInput{
		Skill:     damageSkill(10, game.ViolationPhysical),
		Initiator: view(&game.Character{}),
		Targets:   []*character.View{view(target)},
	})
	if target.CurrentHealth != 70 {
		t.Fatalf("crit should triple damage: health %d, want 70", target.CurrentHealth)
	}
	if records[0].DiceOutcome != game.OutcomeCritSuccess {
		t.Fatalf("unexpected outcome %s", records[0].DiceOutcome)
	}
}

func TestApply_GuaranteedEffectAttaches(t *testing.T) {
	seed := findSeed(t, 0, 10, 14)

	target := &game.Character{CurrentHealth: 50}
	buff := game.Skill{
		Name: "focus",
		Kind: game.SkillBuff,
		Effects: []game.EffectDef{
			{
				Name:       "focused",
				BaseChance: 1.0,
				Duration:   game.Formula{Base: 3},
				Modifiers:  game.Stats{Concentration: 5},
			},
		},
	}

	m := NewManager(rand.New(rand.NewSource(seed)))
	m.Apply(ApplyInput{
		Skill:       buff,
		Initiator:   view(&game.Character{}),
		Targets:     []*character.View{view(target)},
		CycleNumber: 7,
	})

	if len(target.Effects) != 1 {
		t.Fatalf("expected 1 effect, got %d", len(target.Effects))
	}
	eff := target.Effects[0]
	if eff.Name != "focused" || eff.ExpiresAtCycle != 10 || eff.Modifiers.Concentration != 5 {
		t.Fatalf("unexpected effect: %+v", eff)
	}
}

func TestApply_ShieldEffectCreatesShield(t *testing.T) {
	seed := findSeed(t, 0, 10, 14)

	target := &game.Character{CurrentHealth: 50}
	ward := game.Skill{
		Name: "ward",
		Kind: game.SkillShield,
		Effects: []game.EffectDef{
			{
				Name:            "warded",
				BaseChance:      1.0,
				ShieldViolation: game.ViolationEnergy,
				ShieldCapacity:  12,
			},
		},
	}

	m := NewManager(rand.New(rand.NewSource(seed)))
	m.Apply(ApplyInput{
		Skill:     ward,
		Initiator: view(&game.Character{}),
		Targets:   []*character.View{view(target)},
	})

	if len(target.Shields) != 1 {
		t.Fatalf("expected 1 shield, got %d", len(target.Shields))
	}
	sh := target.Shields[0]
	if !sh.Active || sh.Violation != game.ViolationEnergy || sh.Remaining != 12 || sh.Capacity != 12 {
		t.Fatalf("unexpected shield: %+v", sh)
	}
}

func TestApply_ZeroChanceEffectNeverAttaches(t *testing.T) {
	target := &game.Character{CurrentHealth: 50}
	s := game.Skill{
		Effects: []game.EffectDef{{Name: "never", BaseChance: 0}},
	}
	m := NewManager(rand.New(rand.NewSource(1)))
	m.Apply(ApplyInput{
		Skill:     s,
		Initiator: view(&game.Character{}),
		Targets:   []*character.View{view(target)},
	})
	if len(target.Effects) != 0 {
		t.Fatalf("zero-chance effect attached: %+v", target.Effects)
	}
}
