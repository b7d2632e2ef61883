package actions

import (
	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/impact"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

// useSkillHandler applies a learned skill to its targets.
type useSkillHandler struct{ baseHandler }

func (useSkillHandler) cost(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) ([]character.Cost, error) {
	skill, ok := e.skills[act.SkillName]
	if !ok {
		return nil, logicf("unknown skill %q", act.SkillName)
	}
	return character.SkillCost(skill), nil
}

func (useSkillHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	skill, ok := e.skills[act.SkillName]
	if !ok {
		return logicf("unknown skill %q", act.SkillName)
	}
	if !initiator.HasSkill(skill.Name) {
		return logicf("character %d has not learned %s", initiator.Char.ID, skill.Name)
	}
	if err := targetsPresent(tx, act, initiator); err != nil {
		return err
	}
	return validateTargetSides(e, act, initiator, skill)
}

func (useSkillHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	skill := e.skills[act.SkillName]
	return applySkillAction(e, tx, act, initiator, skill)
}

// useItemHandler triggers the skill stored on an equipped, charged item.
type useItemHandler struct{ baseHandler }

func (useItemHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if act.ItemID == nil {
		return logicf("use_item requires an item")
	}
	item := initiator.Item(*act.ItemID)
	if item == nil {
		return logicf("character %d does not carry item %d", initiator.Char.ID, *act.ItemID)
	}
	if !item.Equipped {
		return logicf("item %s is not equipped", item.Name)
	}
	if item.Charges <= 0 {
		return logicf("item %s has no charges left", item.Name)
	}
	skill, ok := e.skills[item.SkillName]
	if !ok {
		return logicf("item %s holds no usable skill", item.Name)
	}
	if err := targetsPresent(tx, act, initiator); err != nil {
		return err
	}
	return validateTargetSides(e, act, initiator, skill)
}

func (useItemHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	item := initiator.Item(*act.ItemID)
	skill := e.skills[item.SkillName]
	item.Charges--
	if err := tx.UpdateItem(item); err != nil {
		return err
	}
	return applySkillAction(e, tx, act, initiator, skill)
}

// applySkillAction locks the targets, runs the impact manager and records
// the resulting impacts on the action.
func applySkillAction(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View, skill game.Skill) error {
	targets, err := skillTargets(e, tx, act, initiator, skill)
	if err != nil {
		return err
	}
	number, err := e.cycleNumber(tx, act)
	if err != nil {
		return err
	}
	records := e.applySkill(impact.ApplyInput{
		Skill:       skill,
		Initiator:   initiator,
		Targets:     targets,
		CycleNumber: number,
	})
	for i := range records {
		records[i].ActionID = act.ID
	}
	act.Impacts = append(act.Impacts, records...)
	for _, t := range targets {
		if t.Char.ID == initiator.Char.ID {
			continue
		}
		t.Clamp()
		if err := tx.UpdateCharacter(t.Char); err != nil {
			return err
		}
	}
	initiator.Clamp()
	return nil
}

// skillTargets resolves the target views; self-targeting skills default to
// the initiator when no explicit target is given.
func skillTargets(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View, skill game.Skill) ([]*character.View, error) {
	if skill.Target == game.TargetSelf && len(act.Targets) == 0 {
		return []*character.View{initiator}, nil
	}
	return e.lockTargets(tx, act, initiator)
}

// validateTargetSides enforces the skill's target side against the relation
// graph.
func validateTargetSides(e *Engine, act *game.CharacterAction, initiator *character.View, skill game.Skill) error {
	switch skill.Target {
	case game.TargetSelf:
		for _, t := range act.Targets {
			if t.CharacterID != initiator.Char.ID {
				return logicf("%s targets only the caster", skill.Name)
			}
		}
		return nil
	case game.TargetAny:
		return nil
	}

	for _, t := range act.Targets {
		if t.CharacterID == initiator.Char.ID {
			if skill.Target == game.TargetEnemy {
				return logicf("%s cannot target the caster", skill.Name)
			}
			continue
		}
		target, err := e.repo.GetCharacterByID(t.CharacterID)
		if err != nil {
			return err
		}
		friendly := sameOrganization(initiator.Char, target)
		if !friendly {
			state, err := e.rel.CharacterState(initiator.Char.CampaignID, initiator.Char.ID, target.ID, initiator.Char.OrganizationID, target.OrganizationID)
			if err != nil {
				return err
			}
			switch skill.Target {
			case game.TargetEnemy:
				if state != game.RelationAggressive {
					return logicf("character %d is not an enemy", target.ID)
				}
			case game.TargetFriend:
				if state != game.RelationFriendly {
					return logicf("character %d is not a friend", target.ID)
				}
			}
		} else if skill.Target == game.TargetEnemy {
			return logicf("character %d is not an enemy", target.ID)
		}
	}
	return nil
}

func sameOrganization(a, b *game.Character) bool {
	return a.OrganizationID != nil && b.OrganizationID != nil && *a.OrganizationID == *b.OrganizationID
}
