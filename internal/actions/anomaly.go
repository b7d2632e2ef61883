package actions

import (
	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/dice"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

// anomalyGifts name the items a benign anomaly may hand out.
var anomalyGifts = []string{"strange fruit", "shimmering shard", "warm ember stone"}

// anomalyHandler probes an unknown dimension anomaly. The outcome depends
// on one d20 roll and the anomaly's polarity; positive anomalies read the
// roll mirrored so a 20 is the best draw.
type anomalyHandler struct{ baseHandler }

func (anomalyHandler) immediate() bool { return true }

func (anomalyHandler) cost(*Engine, storage.Repository, *game.CharacterAction, *character.View) ([]character.Cost, error) {
	return []character.Cost{
		{Kind: game.ResourceActionPoints, Value: 1},
		{Kind: game.ResourceEnergy, Value: 1},
	}, nil
}

func (anomalyHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if act.AnomalyID == nil {
		return logicf("anomaly interaction requires an anomaly")
	}
	anomaly, err := tx.GetAnomalyByID(*act.AnomalyID)
	if err != nil {
		return logicf("unknown anomaly %d", *act.AnomalyID)
	}
	if anomaly.Known {
		return logicf("anomaly %d has already been explored", anomaly.ID)
	}
	if initiator.Char.PositionID == nil || anomaly.PositionID != *initiator.Char.PositionID {
		return logicf("anomaly %d is not at the character's position", anomaly.ID)
	}
	return nil
}

func (anomalyHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	anomaly, err := tx.GetAnomalyByID(*act.AnomalyID)
	if err != nil {
		return err
	}
	roll := e.rollDice(20, initiator.Stat(game.StatLuck))

	var healthDelta int
	if anomaly.Polarity == game.PolarityNegative {
		healthDelta = applyNegativeAnomaly(roll.Side, initiator)
	} else {
		healthDelta = applyPositiveAnomaly(roll.Side, initiator, func() error {
			gift := &game.WorldItem{
				CampaignID:  initiator.Char.CampaignID,
				Name:        anomalyGifts[e.randIntn(len(anomalyGifts))],
				CharacterID: &initiator.Char.ID,
				Visible:     true,
			}
			return tx.CreateItem(gift)
		})
	}

	anomaly.Known = true
	if err := tx.UpdateAnomaly(anomaly); err != nil {
		return err
	}
	act.Impacts = append(act.Impacts, impactRecord(act.ID, initiator.Char.ID, healthDelta, game.ViolationEnergy, roll))
	return nil
}

// applyNegativeAnomaly drains the character per the d20 bucket; 1 wipes
// every attribute. Returns the (negative) health change.
func applyNegativeAnomaly(side int, v *character.View) int {
	before := v.Char.CurrentHealth
	maxHP := v.Max(game.ResourceHealth)
	switch {
	case side == 1:
		v.Char.CurrentHealth = 0
		v.Char.CurrentActionPoints = 0
		v.Char.CurrentEnergy = 0
	case side <= 4:
		v.Char.CurrentHealth -= maxHP * 3 / 4
		v.Char.CurrentActionPoints = 0
		v.Char.CurrentEnergy = 0
	case side <= 9:
		v.Char.CurrentHealth -= maxHP / 2
		v.Char.CurrentActionPoints = 0
		v.Char.CurrentEnergy = 0
	case side <= 14:
		v.Char.CurrentHealth -= maxHP / 4
		v.Char.CurrentActionPoints = 0
		v.Char.CurrentEnergy = 0
	case side <= 17:
		v.Char.CurrentActionPoints = 0
		v.Char.CurrentEnergy = 0
	default:
		v.Char.CurrentActionPoints = 0
	}
	v.Clamp()
	return v.Char.CurrentHealth - before
}

// applyPositiveAnomaly restores the character; the side is mirrored so 20
// lands in the refill-everything bucket. grantItem runs on the best draw.
func applyPositiveAnomaly(side int, v *character.View, grantItem func() error) int {
	before := v.Char.CurrentHealth
	mirrored := 21 - side
	switch {
	case mirrored == 1:
		v.RefillAll()
		if grantItem != nil {
			// item creation failure is not worth failing a lucky roll
			_ = grantItem()
		}
	case mirrored <= 4:
		v.RefillAll()
	case mirrored <= 9:
		v.Char.CurrentHealth += v.Max(game.ResourceHealth) / 4
		v.Refill(game.ResourceActionPoints)
		v.Refill(game.ResourceEnergy)
	case mirrored <= 14:
		v.Refill(game.ResourceActionPoints)
		v.Refill(game.ResourceEnergy)
	case mirrored <= 17:
		v.Char.CurrentActionPoints += v.Max(game.ResourceActionPoints) / 2
		v.Char.CurrentEnergy += v.Max(game.ResourceEnergy) / 2
	default:
		v.Char.CurrentActionPoints += v.Max(game.ResourceActionPoints) / 4
		v.Char.CurrentEnergy += v.Max(game.ResourceEnergy) / 4
	}
	v.Clamp()
	return v.Char.CurrentHealth - before
}

func impactRecord(actionID, targetID uint, healthDelta int, violation game.ViolationType, roll dice.RollResult) game.ActionImpact {
	rec := game.ActionImpact{
		ActionID:       actionID,
		TargetID:       targetID,
		Type:           game.ImpactNone,
		Violation:      game.ViolationNone,
		DiceSide:       roll.Side,
		DiceMultiplier: roll.Multiplier,
		DiceOutcome:    roll.Outcome,
	}
	switch {
	case healthDelta < 0:
		rec.Type = game.ImpactDamage
		rec.Violation = violation
		rec.Size = -healthDelta
	case healthDelta > 0:
		rec.Type = game.ImpactHeal
		rec.Size = healthDelta
	}
	return rec
}

// godInterventionHandler is the game master's escape hatch: strip every
// effect from the target, then shift all attributes by a share of their
// maxima. A negative size curses instead of blessing.
type godInterventionHandler struct{ baseHandler }

func (godInterventionHandler) immediate() bool        { return true }
func (godInterventionHandler) needsActionPoint() bool { return false }

func (godInterventionHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if !e.isMaster(initiator.Char.OwnerUUID) {
		return logicf("god intervention is reserved for the game master")
	}
	if len(act.Targets) != 1 {
		return logicf("god intervention requires exactly one target")
	}
	if act.InterventionSize == 0 {
		return logicf("god intervention requires a non-zero size")
	}
	return nil
}

func (godInterventionHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	target, err := e.lockView(tx, act.Targets[0].CharacterID)
	if err != nil {
		return err
	}

	if err := tx.DeleteCharacterEffects(target.Char.ID); err != nil {
		return err
	}
	target.Char.Effects = nil

	roll := e.rollDice(20, initiator.Stat(game.StatLuck))
	size := act.InterventionSize
	curse := size < 0
	if curse {
		size = -size
	}

	before := target.Char.CurrentHealth
	for _, kind := range []game.ResourceKind{game.ResourceHealth, game.ResourceEnergy, game.ResourceActionPoints} {
		delta := int(float64(target.Max(kind)) * size * roll.Multiplier)
		if curse {
			delta = -delta
		}
		switch kind {
		case game.ResourceHealth:
			target.Char.CurrentHealth += delta
		case game.ResourceEnergy:
			target.Char.CurrentEnergy += delta
		case game.ResourceActionPoints:
			target.Char.CurrentActionPoints += delta
		}
	}
	target.Clamp()

	act.Impacts = append(act.Impacts, impactRecord(act.ID, target.Char.ID, target.Char.CurrentHealth-before, game.ViolationNone, roll))
	if target.Char.ID != initiator.Char.ID {
		return tx.UpdateCharacter(target.Char)
	}
	return nil
}

// diceRollHandler records a bare roll; useful for GM adjudication and
// out-of-band checks.
type diceRollHandler struct{ baseHandler }

func (diceRollHandler) immediate() bool        { return true }
func (diceRollHandler) needsActionPoint() bool { return false }

func (diceRollHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if act.DiceSides <= 0 {
		return logicf("dice roll requires a positive side count")
	}
	return nil
}

func (diceRollHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	roll := e.rollDice(act.DiceSides, initiator.Stat(game.StatLuck))
	act.Impacts = append(act.Impacts, game.ActionImpact{
		ActionID:       act.ID,
		TargetID:       initiator.Char.ID,
		Type:           game.ImpactNone,
		Violation:      game.ViolationNone,
		Size:           roll.Side,
		DiceSide:       roll.Side,
		DiceMultiplier: roll.Multiplier,
		DiceOutcome:    roll.Outcome,
	})
	return nil
}
