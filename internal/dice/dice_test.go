package dice

import (
	"math/rand"
	"testing"

	"github.com/multiverse-rpg/world-engine/internal/game"
)

func TestRoll_InvalidSides(t *testing.T) {
	if _, err := Roll(RollRequest{Sides: 0}); err != ErrInvalidSides {
		t.Fatalf("expected ErrInvalidSides, got %v", err)
	}
}

func TestRoll_DeterministicBySeed(t *testing.T) {
	req := RollRequest{Sides: 20, Luck: 30, Seed: 12345}
	first, err := Roll(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Roll(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("same seed should reproduce the roll: %+v vs %+v", first, second)
	}
}

func TestRollWith_D20BucketTable(t *testing.T) {
	expect := func(side int) (float64, game.DiceOutcome) {
		switch {
		case side == 1:
			return 0.0, game.OutcomeCritFail
		case side <= 4:
			return 0.25, game.OutcomeFail
		case side <= 9:
			return 0.6, game.OutcomeFail
		case side <= 14:
			return 1.0, game.OutcomeNeutral
		case side <= 17:
			return 1.5, game.OutcomeSuccess
		case side <= 19:
			return 2.0, game.OutcomeSuccess
		default:
			return 3.0, game.OutcomeCritSuccess
		}
	}

	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 10000; i++ {
		r := RollWith(rng, 20, 0)
		if r.Side < 1 || r.Side > 20 {
			t.Fatalf("side %d out of range", r.Side)
		}
		mult, outcome := expect(r.Side)
		if r.Multiplier != mult || r.Outcome != outcome {
			t.Fatalf("side %d: got (%v,%s), want (%v,%s)", r.Side, r.Multiplier, r.Outcome, mult, outcome)
		}
	}
}

func TestRollWith_ZeroLuckIsRoughlyUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const rolls = 20000
	counts := make([]int, 21)
	for i := 0; i < rolls; i++ {
		counts[RollWith(rng, 20, 0).Side]++
	}
	// expected 1000 per side; allow generous statistical slack
	for side := 1; side <= 20; side++ {
		if counts[side] < 800 || counts[side] > 1200 {
			t.Fatalf("side %d count %d deviates from uniform", side, counts[side])
		}
	}
}

func TestRollWith_LuckRaisesMeanSide(t *testing.T) {
	const rolls = 20000
	mean := func(luck int) float64 {
		rng := rand.New(rand.NewSource(7))
		sum := 0
		for i := 0; i < rolls; i++ {
			sum += RollWith(rng, 20, luck).Side
		}
		return float64(sum) / rolls
	}
	plain := mean(0)
	lucky := mean(50)
	if lucky <= plain {
		t.Fatalf("luck should raise the mean side: %v vs %v", lucky, plain)
	}
}

func TestRollWith_LuckChanceIsCapped(t *testing.T) {
	// luck above 100 must behave like the 0.5 cap, not reroll always
	r1 := rand.New(rand.NewSource(11))
	r2 := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		a := RollWith(r1, 20, 200)
		b := RollWith(r2, 20, 1000)
		if a != b {
			t.Fatalf("capped luck values should draw identically: %+v vs %+v", a, b)
		}
	}
}

func TestRollWith_ScalesBucketsForOtherDice(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		r := RollWith(rng, 6, 0)
		if r.Side < 1 || r.Side > 6 {
			t.Fatalf("side %d out of range for d6", r.Side)
		}
		// side 6 maps onto the d20 crit bucket
		if r.Side == 6 && r.Outcome != game.OutcomeCritSuccess {
			t.Fatalf("d6 side 6 should be a crit success, got %s", r.Outcome)
		}
		if r.Side == 1 && r.Multiplier > 0.25 {
			t.Fatalf("d6 side 1 should land in a low bucket, got %v", r.Multiplier)
		}
	}
}
