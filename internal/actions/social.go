package actions

import (
	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/events"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

// snatchHandler steals a random visible item from a target at the same
// position. The victim turns aggressive toward the thief.
type snatchHandler struct{ baseHandler }

func (snatchHandler) immediate() bool { return true }

func (snatchHandler) cost(*Engine, storage.Repository, *game.CharacterAction, *character.View) ([]character.Cost, error) {
	return []character.Cost{{Kind: game.ResourceActionPoints, Value: 1}}, nil
}

func (snatchHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if len(act.Targets) != 1 {
		return logicf("snatch requires exactly one target")
	}
	if act.Targets[0].CharacterID == initiator.Char.ID {
		return logicf("cannot snatch from yourself")
	}
	return targetsPresent(tx, act, initiator)
}

func (snatchHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	targets, err := e.lockTargets(tx, act, initiator)
	if err != nil {
		return err
	}
	victim := targets[0]

	visible := make([]*game.WorldItem, 0, len(victim.Char.Items))
	for i := range victim.Char.Items {
		if victim.Char.Items[i].Visible {
			visible = append(visible, &victim.Char.Items[i])
		}
	}
	if len(visible) == 0 {
		return logicf("%s carries nothing visible", victim.Char.Name)
	}
	item := visible[e.randIntn(len(visible))]
	item.CharacterID = &initiator.Char.ID
	item.Equipped = false
	if err := tx.UpdateItem(item); err != nil {
		return err
	}
	return e.rel.BecomeAggressive(initiator.Char.CampaignID, game.ScopeCharacter, victim.Char.ID, initiator.Char.ID)
}

// bargainHandler opens a trade offer between two characters. With gift set
// the offer carries no requested item and the giving side counts as
// already agreed.
type bargainHandler struct {
	baseHandler
	gift bool
}

func (bargainHandler) immediate() bool { return true }

func (bargainHandler) cost(*Engine, storage.Repository, *game.CharacterAction, *character.View) ([]character.Cost, error) {
	return []character.Cost{{Kind: game.ResourceActionPoints, Value: 1}}, nil
}

func (h bargainHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if len(act.Targets) != 1 {
		return logicf("bargain requires exactly one target")
	}
	if act.Targets[0].CharacterID == initiator.Char.ID {
		return logicf("cannot bargain with yourself")
	}
	if act.ItemID == nil {
		return logicf("bargain requires an offered item")
	}
	if !initiator.HasItem(*act.ItemID) {
		return logicf("character %d does not carry item %d", initiator.Char.ID, *act.ItemID)
	}
	if !h.gift && act.RequestedItemID == nil {
		return logicf("bargain requires a requested item")
	}
	return targetsPresent(tx, act, initiator)
}

func (h bargainHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	targets, err := e.lockTargets(tx, act, initiator)
	if err != nil {
		return err
	}
	target := targets[0]
	if !h.gift && !target.HasItem(*act.RequestedItemID) {
		return logicf("%s does not carry item %d", target.Char.Name, *act.RequestedItemID)
	}
	bargain := &game.Bargain{
		CampaignID:    initiator.Char.CampaignID,
		InitiatorID:   initiator.Char.ID,
		TargetID:      target.Char.ID,
		OfferedItemID: act.ItemID,
		IsGift:        h.gift,
		Status:        game.BargainOpen,
	}
	if !h.gift {
		bargain.RequestedItemID = act.RequestedItemID
	}
	return tx.CreateBargain(bargain)
}

// ResolveBargain closes an open bargain. Accepting swaps the items (or
// hands over the gift); declining just marks the offer.
func (e *Engine) ResolveBargain(bargainID uint, accept bool) error {
	err := e.repo.Transaction(func(tx storage.Repository) error {
		bargain, err := tx.GetBargainByID(bargainID)
		if err != nil {
			return err
		}
		if bargain.Status != game.BargainOpen {
			return logicf("bargain %d is already %s", bargain.ID, bargain.Status)
		}
		if !accept {
			bargain.Status = game.BargainDeclined
			return tx.UpdateBargain(bargain)
		}

		if bargain.OfferedItemID != nil {
			if err := transferItem(tx, *bargain.OfferedItemID, bargain.InitiatorID, bargain.TargetID); err != nil {
				return err
			}
		}
		if bargain.RequestedItemID != nil {
			if err := transferItem(tx, *bargain.RequestedItemID, bargain.TargetID, bargain.InitiatorID); err != nil {
				return err
			}
		}
		bargain.Status = game.BargainAccepted
		return tx.UpdateBargain(bargain)
	})
	if err != nil {
		return err
	}

	bargain, err := e.repo.GetBargainByID(bargainID)
	if err == nil && bargain.Status == game.BargainAccepted {
		e.bus.Publish(events.CharacterChangedEvent{Meta: events.NewMeta(), CharacterID: bargain.InitiatorID})
		e.bus.Publish(events.CharacterChangedEvent{Meta: events.NewMeta(), CharacterID: bargain.TargetID})
	}
	return nil
}

// transferItem moves an item between characters, verifying the giver still
// owns it.
func transferItem(tx storage.Repository, itemID, fromID, toID uint) error {
	item, err := tx.GetItemByID(itemID)
	if err != nil {
		return err
	}
	if item.CharacterID == nil || *item.CharacterID != fromID {
		return logicf("item %d is no longer held by character %d", itemID, fromID)
	}
	item.CharacterID = &toID
	item.Equipped = false
	return tx.UpdateItem(item)
}

// inspectHandler reads a target's info; the detail level depends on the
// inspector's knowledge against the target's mental strength.
type inspectHandler struct{ baseHandler }

func (inspectHandler) immediate() bool { return true }

func (inspectHandler) cost(*Engine, storage.Repository, *game.CharacterAction, *character.View) ([]character.Cost, error) {
	return []character.Cost{{Kind: game.ResourceActionPoints, Value: 1}}, nil
}

func (inspectHandler) check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if len(act.Targets) != 1 {
		return logicf("inspect requires exactly one target")
	}
	if act.Targets[0].CharacterID == initiator.Char.ID {
		return logicf("cannot inspect yourself")
	}
	return targetsPresent(tx, act, initiator)
}

func (inspectHandler) perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	targets, err := e.lockTargets(tx, act, initiator)
	if err != nil {
		return err
	}
	target := targets[0]

	detailed := initiator.Stat(game.StatKnowledge) >= target.Stat(game.StatMentalStrength)
	var info interface{}
	if detailed {
		info = target.GetCharacterInfo()
	} else {
		info = target.GetBriefInfo()
	}
	e.bus.Publish(events.InspectResultEvent{
		Meta:        events.NewMeta(),
		InspectorID: initiator.Char.ID,
		OwnerUUID:   initiator.Char.OwnerUUID,
		TargetID:    target.Char.ID,
		Detailed:    detailed,
		Info:        info,
	})
	return nil
}
