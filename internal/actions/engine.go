// Package actions implements the per-type action services behind one
// engine: check acceptance, charge the cost, and perform side effects.
// Immediate actions run inside the submitting cycle; the rest wait for the
// scheduler or the fight turn processor.
package actions

import (
	"math/rand"
	"sync"

	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/constants"
	"github.com/multiverse-rpg/world-engine/internal/dice"
	"github.com/multiverse-rpg/world-engine/internal/events"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/impact"
	"github.com/multiverse-rpg/world-engine/internal/logging"
	"github.com/multiverse-rpg/world-engine/internal/relation"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

// handler is the per-action-type contract: cost and check gate acceptance,
// check runs again before perform since state may have changed in between.
type handler interface {
	immediate() bool
	needsActionPoint() bool
	cost(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) ([]character.Cost, error)
	check(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error
	perform(e *Engine, tx storage.Repository, act *game.CharacterAction, initiator *character.View) error
}

// baseHandler supplies the defaults: deferred execution, one action point
// gate, no extra cost, no extra checks.
type baseHandler struct{}

func (baseHandler) immediate() bool        { return false }
func (baseHandler) needsActionPoint() bool { return true }
func (baseHandler) cost(*Engine, storage.Repository, *game.CharacterAction, *character.View) ([]character.Cost, error) {
	return nil, nil
}
func (baseHandler) check(*Engine, storage.Repository, *game.CharacterAction, *character.View) error {
	return nil
}

// Engine routes actions to their type handler and owns the shared rng for
// dice and impact rolls.
type Engine struct {
	repo     storage.Repository
	rel      *relation.Service
	skills   map[string]game.Skill
	bus      *events.Bus
	isMaster func(ownerUUID string) bool

	rngMu   sync.Mutex
	rng     *rand.Rand
	impacts *impact.Manager

	handlers map[game.ActionType]handler
}

// NewEngine wires the action services. isMaster gates god interventions; a
// nil func denies them all.
func NewEngine(repo storage.Repository, rel *relation.Service, skills map[string]game.Skill, bus *events.Bus, rng *rand.Rand, isMaster func(string) bool) *Engine {
	if isMaster == nil {
		isMaster = func(string) bool { return false }
	}
	e := &Engine{
		repo:     repo,
		rel:      rel,
		skills:   skills,
		bus:      bus,
		isMaster: isMaster,
		rng:      rng,
		impacts:  impact.NewManager(rng),
	}
	e.handlers = map[game.ActionType]handler{
		game.ActionMove:            moveHandler{},
		game.ActionUseSkill:        useSkillHandler{},
		game.ActionUseItem:         useItemHandler{},
		game.ActionSnatch:          snatchHandler{},
		game.ActionBargain:         bargainHandler{},
		game.ActionGift:            bargainHandler{gift: true},
		game.ActionInspect:         inspectHandler{},
		game.ActionLongRest:        longRestHandler{},
		game.ActionBackToSafe:      backToSafeHandler{},
		game.ActionAnomalyInteract: anomalyHandler{},
		game.ActionGodIntervention: godInterventionHandler{},
		game.ActionDiceRoll:        diceRollHandler{},
		game.ActionDimensionShift:  dimensionShiftHandler{},
	}
	return e
}

// Submit runs acceptance for a freshly built action: preconditions, cost
// debit, persistence. Acceptance failures leave no trace beyond the
// rejection event.
func (e *Engine) Submit(act *game.CharacterAction) error {
	h, ok := e.handlers[act.Type]
	if !ok {
		return logicf("unknown action type %q", act.Type)
	}

	var ownerUUID string
	err := e.repo.Transaction(func(tx storage.Repository) error {
		initiator, err := e.lockView(tx, act.InitiatorID)
		if err != nil {
			return err
		}
		ownerUUID = initiator.Char.OwnerUUID

		if err := e.gate(h, initiator); err != nil {
			return err
		}
		if err := h.check(e, tx, act, initiator); err != nil {
			return err
		}
		costs, err := h.cost(e, tx, act, initiator)
		if err != nil {
			return err
		}
		if err := character.SpendCost(costs, initiator); err != nil {
			return err
		}

		act.Accepted = true
		act.Immediate = h.immediate()
		if initiator.InFight() && !act.Immediate {
			fight, err := tx.GetFightByID(*initiator.Char.FightID)
			if err != nil {
				return err
			}
			act.FightTurnID = fight.CurrentTurnID
		}
		if err := tx.CreateAction(act); err != nil {
			return err
		}
		return tx.UpdateCharacter(initiator.Char)
	})
	if err != nil {
		e.bus.Publish(events.ActionNotAcceptedEvent{
			Meta:        events.NewMeta(),
			ActionType:  act.Type,
			InitiatorID: act.InitiatorID,
			OwnerUUID:   ownerUUID,
			Reason:      err.Error(),
		})
		return err
	}
	e.bus.Publish(events.ActionAcceptedEvent{
		Meta:        events.NewMeta(),
		ActionID:    act.ID,
		ActionType:  act.Type,
		InitiatorID: act.InitiatorID,
		OwnerUUID:   ownerUUID,
		Immediate:   act.Immediate,
	})
	return nil
}

// Perform executes an accepted action. A failure is recorded on the action
// and reported via an event; the charged cost stays spent.
func (e *Engine) Perform(act *game.CharacterAction) error {
	h, ok := e.handlers[act.Type]
	if !ok {
		return logicf("unknown action type %q", act.Type)
	}
	if !act.Accepted || act.Performed || act.Failed {
		return logicf("action %d is not pending", act.ID)
	}

	err := e.repo.Transaction(func(tx storage.Repository) error {
		initiator, err := e.lockView(tx, act.InitiatorID)
		if err != nil {
			return err
		}
		if initiator.IsKnockedOut() || !initiator.Char.Active {
			return logicf("character %d can no longer act", initiator.Char.ID)
		}
		if err := h.check(e, tx, act, initiator); err != nil {
			return err
		}
		if err := h.perform(e, tx, act, initiator); err != nil {
			return err
		}
		act.Performed = true
		if err := tx.UpdateAction(act); err != nil {
			return err
		}
		return tx.UpdateCharacter(initiator.Char)
	})
	if err != nil {
		e.markFailed(act, err)
		return err
	}
	e.bus.Publish(events.ActionPerformedEvent{
		Meta:        events.NewMeta(),
		ActionID:    act.ID,
		ActionType:  act.Type,
		InitiatorID: act.InitiatorID,
		CycleID:     act.CycleID,
	})
	seen := map[uint]struct{}{}
	for i := range act.Impacts {
		id := act.Impacts[i].TargetID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		e.bus.Publish(events.CharacterChangedEvent{Meta: events.NewMeta(), CharacterID: id})
	}
	return nil
}

// gate is the acceptance precondition every action shares.
func (e *Engine) gate(h handler, initiator *character.View) error {
	if !initiator.Char.Active {
		return logicf("character %d is not active", initiator.Char.ID)
	}
	if initiator.IsKnockedOut() {
		return logicf("character %d is knocked out", initiator.Char.ID)
	}
	if h.needsActionPoint() && initiator.Current(game.ResourceActionPoints) < 1 {
		return &character.InsufficientResourceError{Kind: game.ResourceActionPoints}
	}
	return nil
}

func (e *Engine) markFailed(act *game.CharacterAction, cause error) {
	act.Failed = true
	act.ErrorKind = classifyError(cause)
	if err := e.repo.UpdateAction(act); err != nil {
		logging.Error("failed to record action failure", err, logging.Fields{
			constants.LogFieldActionID: act.ID,
		})
	}
	e.bus.Publish(events.ActionFailedEvent{
		Meta:        events.NewMeta(),
		ActionID:    act.ID,
		ActionType:  act.Type,
		InitiatorID: act.InitiatorID,
		ErrorKind:   act.ErrorKind,
	})
}

// lockView loads a character under a row lock together with its dimension
// and position.
func (e *Engine) lockView(tx storage.Repository, characterID uint) (*character.View, error) {
	c, err := tx.LockCharacterByID(characterID)
	if err != nil {
		return nil, err
	}
	dim, err := tx.GetDimensionByID(c.DimensionID)
	if err != nil {
		return nil, err
	}
	var pos *game.Position
	if c.PositionID != nil {
		pos, err = tx.GetPositionByID(*c.PositionID)
		if err != nil {
			return nil, err
		}
	}
	return character.NewView(c, *dim, pos), nil
}

// lockTargets loads the action's targets under row locks, requiring each to
// share the initiator's position.
func (e *Engine) lockTargets(tx storage.Repository, act *game.CharacterAction, initiator *character.View) ([]*character.View, error) {
	if len(act.Targets) == 0 {
		return nil, logicf("action %s requires at least one target", act.Type)
	}
	views := make([]*character.View, 0, len(act.Targets))
	for _, t := range act.Targets {
		if t.CharacterID == initiator.Char.ID {
			views = append(views, initiator)
			continue
		}
		v, err := e.lockView(tx, t.CharacterID)
		if err != nil {
			return nil, err
		}
		if !samePosition(initiator, v) {
			return nil, logicf("target %d is not at the initiator's position", t.CharacterID)
		}
		views = append(views, v)
	}
	return views, nil
}

// targetsPresent verifies at acceptance time that every non-self target is
// at the initiator's position. lockTargets repeats the check under row
// locks at perform time.
func targetsPresent(tx storage.Repository, act *game.CharacterAction, initiator *character.View) error {
	if initiator.Char.PositionID == nil {
		return logicf("character %d has no position", initiator.Char.ID)
	}
	for _, t := range act.Targets {
		if t.CharacterID == initiator.Char.ID {
			continue
		}
		present, err := characterAt(tx, t.CharacterID, *initiator.Char.PositionID)
		if err != nil {
			return err
		}
		if !present {
			return logicf("target %d is not at the initiator's position", t.CharacterID)
		}
	}
	return nil
}

func samePosition(a, b *character.View) bool {
	return a.Char.PositionID != nil && b.Char.PositionID != nil &&
		*a.Char.PositionID == *b.Char.PositionID &&
		a.Char.DimensionID == b.Char.DimensionID
}

// randIntn draws from the shared rng under its lock.
func (e *Engine) randIntn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

// rollDice draws one multiplier roll from the shared rng.
func (e *Engine) rollDice(sides, luck int) dice.RollResult {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return dice.RollWith(e.rng, sides, luck)
}

// applySkill runs the impact manager under the rng lock.
func (e *Engine) applySkill(in impact.ApplyInput) []game.ActionImpact {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.impacts.Apply(in)
}

// cycleNumber resolves the number of the cycle an action belongs to.
func (e *Engine) cycleNumber(tx storage.Repository, act *game.CharacterAction) (int, error) {
	cycle, err := tx.GetCycleByID(act.CycleID)
	if err != nil {
		return 0, err
	}
	return cycle.Number, nil
}
