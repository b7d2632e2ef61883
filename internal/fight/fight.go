// Package fight manages fight lifecycles and plays fight turns: actions
// are ordered by action point cost over effective speed, performed in
// ascending order, and every applied impact is broadcast on the fight
// channel.
package fight

import (
	"sort"
	"time"

	"github.com/multiverse-rpg/world-engine/internal/actions"
	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/constants"
	"github.com/multiverse-rpg/world-engine/internal/events"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/logging"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

// dimensionShiftOrder pins dimension shifts to the end of every turn.
const dimensionShiftOrder = 100000

// Service plays fights. One service instance serves all campaigns; claims
// on the fight rows keep processing serialized per fight.
type Service struct {
	repo         storage.Repository
	engine       *actions.Engine
	skills       map[string]game.Skill
	bus          *events.Bus
	turnDuration time.Duration
	workerID     string
}

func NewService(repo storage.Repository, engine *actions.Engine, skills map[string]game.Skill, bus *events.Bus, turnDuration time.Duration, workerID string) *Service {
	return &Service{
		repo:         repo,
		engine:       engine,
		skills:       skills,
		bus:          bus,
		turnDuration: turnDuration,
		workerID:     workerID,
	}
}

// Start opens a fight between two characters, placing them on opposite
// sides, and spins up the first turn.
func (s *Service) Start(initiatorID, targetID uint) (*game.Fight, error) {
	var fight *game.Fight
	err := s.repo.Transaction(func(tx storage.Repository) error {
		initiator, err := tx.LockCharacterByID(initiatorID)
		if err != nil {
			return err
		}
		target, err := tx.LockCharacterByID(targetID)
		if err != nil {
			return err
		}
		if initiator.FightID != nil || target.FightID != nil {
			return ErrAlreadyFighting
		}

		fight = &game.Fight{
			CampaignID:  initiator.CampaignID,
			InitiatorID: initiatorID,
			TargetID:    targetID,
			IsOpen:      true,
			Participants: []game.FightParticipant{
				{CharacterID: initiatorID, Side: game.SideA},
				{CharacterID: targetID, Side: game.SideB},
			},
		}
		if err := tx.CreateFight(fight); err != nil {
			return err
		}
		turn := &game.FightTurn{FightID: fight.ID, Number: 1}
		if err := tx.CreateFightTurn(turn); err != nil {
			return err
		}
		fight.CurrentTurnID = &turn.ID
		if err := tx.UpdateFight(fight); err != nil {
			return err
		}

		initiator.FightID = &fight.ID
		target.FightID = &fight.ID
		if err := tx.UpdateCharacter(initiator); err != nil {
			return err
		}
		return tx.UpdateCharacter(target)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.FightStartedEvent{
		Meta:        events.NewMeta(),
		FightID:     fight.ID,
		InitiatorID: initiatorID,
		TargetID:    targetID,
	})
	for _, p := range fight.Participants {
		s.bus.Publish(events.CharacterJoinFightEvent{
			Meta:        events.NewMeta(),
			FightID:     fight.ID,
			CharacterID: p.CharacterID,
			Side:        p.Side,
		})
	}
	return fight, nil
}

// Join adds a character to a side of an open fight.
func (s *Service) Join(fightID, characterID uint, side string) error {
	if side != game.SideA && side != game.SideB {
		return ErrUnknownSide
	}
	err := s.repo.Transaction(func(tx storage.Repository) error {
		fight, err := tx.GetFightByID(fightID)
		if err != nil {
			return err
		}
		if fight.IsEnded || !fight.IsOpen {
			return ErrFightClosed
		}
		c, err := tx.LockCharacterByID(characterID)
		if err != nil {
			return err
		}
		if c.FightID != nil {
			return ErrAlreadyFighting
		}
		fight.Participants = append(fight.Participants, game.FightParticipant{
			FightID:     fight.ID,
			CharacterID: characterID,
			Side:        side,
		})
		if err := tx.UpdateFight(fight); err != nil {
			return err
		}
		c.FightID = &fight.ID
		return tx.UpdateCharacter(c)
	})
	if err != nil {
		return err
	}
	s.bus.Publish(events.CharacterJoinFightEvent{
		Meta:        events.NewMeta(),
		FightID:     fightID,
		CharacterID: characterID,
		Side:        side,
	})
	return nil
}

// ProcessDueFights claims a batch of active fights and advances each one.
// Called on a fixed interval by the fight scanner.
func (s *Service) ProcessDueFights(now time.Time, limit int) {
	ids, err := s.repo.ClaimActiveFightIDs(now, limit, 2*s.turnDuration, s.workerID)
	if err != nil {
		logging.Error("failed to claim fights", err, nil)
		return
	}
	for _, id := range ids {
		if err := s.Process(id, now); err != nil {
			logging.Error("fight processing failed", err, logging.Fields{
				constants.LogFieldFightID: id,
			})
		}
	}
}

// Process advances one fight: plays the current turn once its duration has
// elapsed, then either ends the fight or opens the next turn.
func (s *Service) Process(fightID uint, now time.Time) error {
	fight, err := s.repo.GetFightByID(fightID)
	if err != nil {
		return err
	}
	if fight.IsEnded || fight.CurrentTurnID == nil {
		return nil
	}
	turn, err := s.repo.GetFightTurnByID(*fight.CurrentTurnID)
	if err != nil {
		return err
	}
	if turn.IsFinished || now.Sub(turn.CreatedAt) < s.turnDuration {
		return nil
	}
	return s.playTurn(fight, turn)
}

func (s *Service) playTurn(fight *game.Fight, turn *game.FightTurn) error {
	acts, err := s.orderTurnActions(turn.ID)
	if err != nil {
		return err
	}

	for i := range acts {
		act := &acts[i]
		if err := s.engine.Perform(act); err != nil {
			// failure is recorded on the action; the turn goes on
			continue
		}
		for _, imp := range act.Impacts {
			s.bus.Publish(events.TurnResultEvent{
				Meta:        events.NewMeta(),
				FightID:     fight.ID,
				TurnID:      turn.ID,
				ActionID:    act.ID,
				InitiatorID: act.InitiatorID,
				TargetID:    imp.TargetID,
				Impact:      imp,
			})
		}
	}

	turn.IsFinished = true
	if err := s.repo.UpdateFightTurn(turn); err != nil {
		return err
	}
	return s.advance(fight, turn)
}

// orderTurnActions assigns the execution order: per initiator, each skill
// use adds ap_cost x 100 / effective_speed to a running clock; dimension
// shifts run last. Everything is persisted before playing starts.
func (s *Service) orderTurnActions(turnID uint) ([]game.CharacterAction, error) {
	var acts []game.CharacterAction
	err := s.repo.Transaction(func(tx storage.Repository) error {
		var err error
		acts, err = tx.GetTurnActions(turnID)
		if err != nil {
			return err
		}

		clocks := make(map[uint]float64)
		speeds := make(map[uint]int)
		for i := range acts {
			act := &acts[i]
			if act.Type == game.ActionDimensionShift {
				act.Order = dimensionShiftOrder
				continue
			}
			speed, ok := speeds[act.InitiatorID]
			if !ok {
				speed, err = s.effectiveSpeed(tx, act.InitiatorID)
				if err != nil {
					return err
				}
				speeds[act.InitiatorID] = speed
			}
			clocks[act.InitiatorID] += float64(s.apCost(act)) * 100.0 / float64(speed)
			act.Order = clocks[act.InitiatorID]
		}
		for i := range acts {
			if err := tx.UpdateAction(&acts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(acts, func(i, j int) bool { return acts[i].Order < acts[j].Order })
	return acts, nil
}

// apCost prices an action for ordering purposes. Skill uses cost their
// skill's action points; everything else counts as one.
func (s *Service) apCost(act *game.CharacterAction) int {
	if act.Type == game.ActionUseSkill {
		if skill, ok := s.skills[act.SkillName]; ok && skill.CostActionPoints > 0 {
			return skill.CostActionPoints
		}
	}
	return 1
}

func (s *Service) effectiveSpeed(tx storage.Repository, characterID uint) (int, error) {
	c, err := tx.GetCharacterByID(characterID)
	if err != nil {
		return 0, err
	}
	dim, err := tx.GetDimensionByID(c.DimensionID)
	if err != nil {
		return 0, err
	}
	return character.NewView(c, *dim, nil).EffectiveSpeed(), nil
}

// advance ends the fight when a side has no standing participants,
// otherwise opens the next turn and refills everyone's action points.
func (s *Service) advance(fight *game.Fight, finished *game.FightTurn) error {
	standing := map[string]int{}
	views := make(map[uint]*character.View, len(fight.Participants))

	err := s.repo.Transaction(func(tx storage.Repository) error {
		for _, p := range fight.Participants {
			c, err := tx.LockCharacterByID(p.CharacterID)
			if err != nil {
				return err
			}
			dim, err := tx.GetDimensionByID(c.DimensionID)
			if err != nil {
				return err
			}
			views[p.CharacterID] = character.NewView(c, *dim, nil)
			if !c.KnockedOut() {
				standing[p.Side]++
			}
		}

		if standing[game.SideA] == 0 || standing[game.SideB] == 0 {
			fight.IsEnded = true
			fight.IsOpen = false
			if err := tx.UpdateFight(fight); err != nil {
				return err
			}
			for _, v := range views {
				v.Char.FightID = nil
				if err := tx.UpdateCharacter(v.Char); err != nil {
					return err
				}
			}
			return nil
		}

		next := &game.FightTurn{FightID: fight.ID, Number: finished.Number + 1}
		if err := tx.CreateFightTurn(next); err != nil {
			return err
		}
		fight.CurrentTurnID = &next.ID
		if err := tx.UpdateFight(fight); err != nil {
			return err
		}
		for _, v := range views {
			if v.IsKnockedOut() {
				continue
			}
			v.Refill(game.ResourceActionPoints)
			if err := tx.UpdateCharacter(v.Char); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if fight.IsEnded {
		winner := game.SideA
		if standing[game.SideA] == 0 {
			winner = game.SideB
		}
		s.bus.Publish(events.FightEndedEvent{
			Meta:        events.NewMeta(),
			FightID:     fight.ID,
			WinningSide: winner,
		})
		for _, p := range fight.Participants {
			s.bus.Publish(events.CharacterLeaveFightEvent{
				Meta:        events.NewMeta(),
				FightID:     fight.ID,
				CharacterID: p.CharacterID,
			})
		}
		return nil
	}

	turn, err := s.repo.GetFightTurnByID(*fight.CurrentTurnID)
	if err != nil {
		return err
	}
	for _, p := range fight.Participants {
		v := views[p.CharacterID]
		if v == nil || v.IsKnockedOut() {
			continue
		}
		s.bus.Publish(events.PlayerTurnInitEvent{
			Meta:         events.NewMeta(),
			FightID:      fight.ID,
			TurnID:       turn.ID,
			TurnNumber:   turn.Number,
			CharacterID:  p.CharacterID,
			ActionPoints: v.Char.CurrentActionPoints,
		})
	}
	return nil
}
