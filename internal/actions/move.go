package actions

import (
	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

// moveHandler walks the initiator over one position connection. Aggressive
// NPCs at the origin may contest the move with a speed roll.
type moveHandler struct{ baseHandler }

func (moveHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if act.PositionID == nil {
		return logicf("move requires a target position")
	}
	if initiator.Char.PositionID == nil {
		return logicf("character %d has no position", initiator.Char.ID)
	}
	target, err := tx.GetPositionByID(*act.PositionID)
	if err != nil {
		return movementf("target position %d not found", *act.PositionID)
	}
	conn, err := tx.GetConnection(*initiator.Char.PositionID, target.ID)
	if err != nil || conn == nil {
		return movementf("position %d is not reachable from here", target.ID)
	}
	if !conn.Active {
		return movementf("the way to position %d is not passable", target.ID)
	}
	if conn.Locked {
		return movementf("the way to position %d is locked", target.ID)
	}
	if !conn.Public {
		return movementf("the way to position %d is not open", target.ID)
	}
	if conn.RequiredSkill != "" && !initiator.HasSkill(conn.RequiredSkill) {
		return movementf("passage requires the %s skill", conn.RequiredSkill)
	}
	if conn.RequiredItemID != nil && !initiator.HasItem(*conn.RequiredItemID) {
		return movementf("passage requires item %d", *conn.RequiredItemID)
	}
	if conn.RequiredCharacterID != nil {
		if present, err := characterAt(tx, *conn.RequiredCharacterID, target.ID); err != nil {
			return err
		} else if !present {
			return movementf("passage requires character %d to be present", *conn.RequiredCharacterID)
		}
	}
	return nil
}

func (h moveHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if err := h.contestBlockers(e, tx, initiator); err != nil {
		return err
	}
	target, err := tx.GetPositionByID(*act.PositionID)
	if err != nil {
		return err
	}
	initiator.Char.PositionID = &target.ID
	initiator.Char.DimensionID = target.DimensionID
	if target.IsSafe {
		initiator.Char.LastSafePositionID = &target.ID
	}
	initiator.Position = target
	initiator.SpendAllAP()
	return nil
}

// contestBlockers lets every aggressive NPC at the origin roll against the
// mover. A blocker that wins the contested speed roll stops the move.
func (h moveHandler) contestBlockers(e *Engine, tx storage.Repository, initiator *character.View) error {
	others, err := tx.GetCharactersAtPosition(*initiator.Char.PositionID)
	if err != nil {
		return err
	}
	moverRoll := e.rollDice(20, initiator.Stat(game.StatLuck))
	moverScore := moverRoll.Side + initiator.EffectiveSpeed()
	for i := range others {
		npc := &others[i]
		if npc.ID == initiator.Char.ID || !npc.NPC || !npc.Active || npc.KnockedOut() {
			continue
		}
		state, err := e.rel.CharacterState(initiator.Char.CampaignID, npc.ID, initiator.Char.ID, npc.OrganizationID, initiator.Char.OrganizationID)
		if err != nil {
			return err
		}
		if state != game.RelationAggressive && npc.Behavior != game.BehaviorAggressive {
			continue
		}
		blocker := character.NewView(npc, initiator.Dimension, initiator.Position)
		blockerRoll := e.rollDice(20, blocker.Stat(game.StatLuck))
		if blockerRoll.Side+blocker.EffectiveSpeed() > moverScore {
			return movementf("blocked by %s", npc.Name)
		}
	}
	return nil
}

func characterAt(tx storage.Repository, characterID, positionID uint) (bool, error) {
	chars, err := tx.GetCharactersAtPosition(positionID)
	if err != nil {
		return false, err
	}
	for i := range chars {
		if chars[i].ID == characterID {
			return true, nil
		}
	}
	return false, nil
}

// longRestHandler refills every attribute; only allowed in a safe place.
type longRestHandler struct{ baseHandler }

func (longRestHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if !initiator.IsInSafePlace() {
		return logicf("long rest is only possible in a safe place")
	}
	return nil
}

func (longRestHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	initiator.RefillAll()
	initiator.SpendAllAP()
	return nil
}

// backToSafeHandler teleports the character to its last safe position, or
// the world origin when it never visited one.
type backToSafeHandler struct{ baseHandler }

func (backToSafeHandler) needsActionPoint() bool { return false }

func (backToSafeHandler) cost(*Engine, storage.Repository, *game.CharacterAction, *character.View) ([]character.Cost, error) {
	return []character.Cost{{Kind: game.ResourceActionPoints, Value: 1}}, nil
}

func (backToSafeHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if initiator.IsInSafePlace() {
		return logicf("character %d is already in a safe place", initiator.Char.ID)
	}
	return nil
}

func (backToSafeHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	var target *game.Position
	var err error
	if initiator.Char.LastSafePositionID != nil {
		target, err = tx.GetPositionByID(*initiator.Char.LastSafePositionID)
	} else {
		target, err = tx.GetOriginPosition(initiator.Char.CampaignID)
	}
	if err != nil {
		return err
	}
	initiator.Char.PositionID = &target.ID
	initiator.Char.DimensionID = target.DimensionID
	initiator.Position = target
	initiator.SpendAllAP()
	return nil
}

// dimensionShiftHandler moves the character one dimension level up or down.
// The energy price is the target dimension's shift cost.
type dimensionShiftHandler struct{ baseHandler }

func (dimensionShiftHandler) cost(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) ([]character.Cost, error) {
	if act.TargetDimensionID == nil {
		return nil, logicf("dimension shift requires a target dimension")
	}
	dim, err := tx.GetDimensionByID(*act.TargetDimensionID)
	if err != nil {
		return nil, err
	}
	if dim.ShiftCost <= 0 {
		return nil, nil
	}
	return []character.Cost{{Kind: game.ResourceEnergy, Value: dim.ShiftCost}}, nil
}

func (dimensionShiftHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if act.TargetDimensionID == nil {
		return logicf("dimension shift requires a target dimension")
	}
	target, err := tx.GetDimensionByID(*act.TargetDimensionID)
	if err != nil {
		return logicf("unknown dimension %d", *act.TargetDimensionID)
	}
	diff := target.Level - initiator.Dimension.Level
	if diff != 1 && diff != -1 {
		return logicf("dimension %s is not adjacent", target.Name)
	}
	return nil
}

func (dimensionShiftHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	target, err := tx.GetDimensionByID(*act.TargetDimensionID)
	if err != nil {
		return err
	}
	initiator.Char.DimensionID = target.ID
	initiator.Dimension = *target
	initiator.SpendAllAP()
	return nil
}
