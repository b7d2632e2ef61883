// Package scheduler advances campaigns one cycle at a time: NPC
// scheduling, follow rules, spawners, pending actions, and the cycle
// handover itself.
package scheduler

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/multiverse-rpg/world-engine/internal/actions"
	"github.com/multiverse-rpg/world-engine/internal/behavior"
	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/constants"
	"github.com/multiverse-rpg/world-engine/internal/events"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/logging"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

// Service owns the cycle pipeline. Concurrent run-cycle requests for the
// same campaign collapse into one execution via singleflight.
type Service struct {
	repo      storage.Repository
	engine    *actions.Engine
	behavior  *behavior.Service
	templates map[string]game.CharacterTemplate
	bus       *events.Bus
	workerID  string
	interval  time.Duration

	group singleflight.Group
}

func NewService(repo storage.Repository, engine *actions.Engine, bhv *behavior.Service, templates map[string]game.CharacterTemplate, bus *events.Bus, workerID string, interval time.Duration) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		behavior:  bhv,
		templates: templates,
		bus:       bus,
		workerID:  workerID,
		interval:  interval,
	}
}

// PlayCycle advances a campaign by one cycle and returns the freshly
// opened cycle.
func (s *Service) PlayCycle(campaignID uint) (*game.Cycle, error) {
	v, err, _ := s.group.Do(fmt.Sprintf("cycle-%d", campaignID), func() (interface{}, error) {
		return s.playCycle(campaignID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*game.Cycle), nil
}

func (s *Service) playCycle(campaignID uint) (*game.Cycle, error) {
	campaign, err := s.repo.GetCampaignByID(campaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.Active || campaign.Completed {
		return nil, fmt.Errorf("campaign %d is not playable", campaignID)
	}

	cycle, err := s.currentCycle(campaign)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteExpiredEffects(campaignID, cycle.Number); err != nil {
		logging.Error("expired effect cleanup failed", err, logging.Fields{
			constants.LogFieldCampaignID: campaignID,
		})
	}

	s.scheduleNPCs(campaign, cycle)
	s.processFollowRules(campaign)
	s.runSpawners(campaign, cycle)
	s.playImmediateActions(cycle)
	s.playDeferredActions(cycle)

	return s.advanceCycle(campaign, cycle)
}

// currentCycle resolves the campaign's open cycle, bootstrapping cycle 1
// for a campaign that never ran.
func (s *Service) currentCycle(campaign *game.Campaign) (*game.Cycle, error) {
	if campaign.CurrentCycleID != nil {
		return s.repo.GetCycleByID(*campaign.CurrentCycleID)
	}
	cycle := &game.Cycle{CampaignID: campaign.ID, Number: 1}
	if err := s.repo.CreateCycle(cycle); err != nil {
		return nil, err
	}
	campaign.CurrentCycleID = &cycle.ID
	if err := s.repo.UpdateCampaign(campaign); err != nil {
		return nil, err
	}
	return cycle, nil
}

// scheduleNPCs lets every NPC sharing a position with at least one player
// submit one action. Positions and characters iterate in id order so a
// cycle replays deterministically.
func (s *Service) scheduleNPCs(campaign *game.Campaign, cycle *game.Cycle) {
	positionIDs, err := s.repo.GetOccupiedPositionIDs(campaign.ID)
	if err != nil {
		logging.Error("failed to list occupied positions", err, logging.Fields{
			constants.LogFieldCampaignID: campaign.ID,
		})
		return
	}
	for _, posID := range positionIDs {
		contexts, err := s.behavior.BuildContexts(s.repo, campaign.ID, posID)
		if err != nil {
			logging.Error("failed to build position context", err, logging.Fields{
				constants.LogFieldCampaignID: campaign.ID,
			})
			continue
		}
		for _, ctx := range contexts {
			act := s.behavior.Choose(cycle.ID, ctx)
			if act == nil {
				continue
			}
			if err := s.engine.Submit(act); err != nil {
				logging.Warn("npc action not accepted", logging.Fields{
					constants.LogFieldCharacterID: act.InitiatorID,
					constants.LogFieldActionType:  act.Type,
					"reason":                      err.Error(),
				})
			}
		}
	}
}

// processFollowRules moves followers toward their leaders and consumes
// rule lifetimes. A rule dies with its follower, with its countdown, or
// with a failed walk.
func (s *Service) processFollowRules(campaign *game.Campaign) {
	rules, err := s.repo.GetFollowRules(campaign.ID)
	if err != nil {
		logging.Error("failed to list follow rules", err, logging.Fields{
			constants.LogFieldCampaignID: campaign.ID,
		})
		return
	}
	for i := range rules {
		rule := &rules[i]
		if err := s.applyFollowRule(rule); err != nil {
			logging.Warn("follow rule dropped", logging.Fields{
				constants.LogFieldCharacterID: rule.FollowerID,
				"reason":                      err.Error(),
			})
			if err := s.repo.DeleteFollowRule(rule.ID); err != nil {
				logging.Error("failed to delete follow rule", err, nil)
			}
		}
	}
}

func (s *Service) applyFollowRule(rule *game.FollowRule) error {
	return s.repo.Transaction(func(tx storage.Repository) error {
		follower, err := tx.LockCharacterByID(rule.FollowerID)
		if err != nil {
			return err
		}
		if follower.KnockedOut() || !follower.Active {
			return fmt.Errorf("follower %d can no longer follow", follower.ID)
		}
		leader, err := tx.GetCharacterByID(rule.LeaderID)
		if err != nil {
			return err
		}
		if leader.PositionID == nil {
			return fmt.Errorf("leader %d has no position", leader.ID)
		}

		moved := follower.PositionID == nil || *follower.PositionID != *leader.PositionID
		if moved {
			if rule.Type == game.FollowWalk {
				if err := walkable(tx, follower, *leader.PositionID); err != nil {
					return err
				}
			}
			follower.PositionID = leader.PositionID
			follower.DimensionID = leader.DimensionID
			if err := tx.UpdateCharacter(follower); err != nil {
				return err
			}
		}

		if rule.Permanent {
			return nil
		}
		rule.CyclesLeft--
		if rule.CyclesLeft <= 0 {
			return tx.DeleteFollowRule(rule.ID)
		}
		return tx.UpdateFollowRule(rule)
	})
}

// walkable checks the connection a walking follower would take.
func walkable(tx storage.Repository, follower *game.Character, targetPositionID uint) error {
	if follower.PositionID == nil {
		return fmt.Errorf("follower %d has no position", follower.ID)
	}
	conn, err := tx.GetConnection(*follower.PositionID, targetPositionID)
	if err != nil || conn == nil {
		return fmt.Errorf("no path from %d to %d", *follower.PositionID, targetPositionID)
	}
	if !conn.Active || conn.Locked || !conn.Public {
		return fmt.Errorf("path from %d to %d is not passable", *follower.PositionID, targetPositionID)
	}
	return nil
}

// runSpawners instantiates one NPC per due spawner still under its limit.
func (s *Service) runSpawners(campaign *game.Campaign, cycle *game.Cycle) {
	spawners, err := s.repo.GetDueSpawners(campaign.ID, cycle.Number)
	if err != nil {
		logging.Error("failed to list due spawners", err, logging.Fields{
			constants.LogFieldCampaignID: campaign.ID,
		})
		return
	}
	for i := range spawners {
		spawner := &spawners[i]
		if err := s.spawn(spawner, cycle); err != nil {
			logging.Error("spawner failed", err, logging.Fields{
				constants.LogFieldCampaignID: campaign.ID,
				"spawner_id":                 spawner.ID,
			})
		}
	}
}

func (s *Service) spawn(spawner *game.NPCSpawner, cycle *game.Cycle) error {
	template, ok := s.templates[spawner.TemplateName]
	if !ok {
		return fmt.Errorf("unknown npc template %q", spawner.TemplateName)
	}
	return s.repo.Transaction(func(tx storage.Repository) error {
		count, err := tx.CountSpawnedCharacters(spawner.ID)
		if err != nil {
			return err
		}
		if count >= int64(spawner.SpawnLimit) {
			return nil
		}

		npc, err := s.instantiate(tx, spawner, template)
		if err != nil {
			return err
		}
		if err := tx.CreateCharacter(npc); err != nil {
			return err
		}

		spawner.NextSpawnCycleNumber = cycle.Number + spawner.RespawnCycles
		return tx.UpdateSpawner(spawner)
	})
}

// instantiate builds an NPC row from its template with full attributes.
func (s *Service) instantiate(tx storage.Repository, spawner *game.NPCSpawner, template game.CharacterTemplate) (*game.Character, error) {
	stats := template.Stats
	if stats.IsZero() {
		stats = game.DefaultStats()
	}
	npc := &game.Character{
		CampaignID:  spawner.CampaignID,
		Name:        template.Name,
		NPC:         true,
		Active:      true,
		PositionID:  &spawner.PositionID,
		DimensionID: spawner.DimensionID,
		Behavior:    template.Behavior,
		Grade:       template.Grade,
		Base:        stats,
		SpawnerID:   &spawner.ID,
	}
	if template.Organization != "" {
		org, err := tx.GetOrCreateOrganization(spawner.CampaignID, template.Organization)
		if err != nil {
			return nil, err
		}
		npc.OrganizationID = &org.ID
	}
	for _, skillName := range template.Skills {
		npc.LearnedSkills = append(npc.LearnedSkills, game.LearnedSkill{SkillName: skillName, IsBase: true})
	}

	dim, err := tx.GetDimensionByID(spawner.DimensionID)
	if err != nil {
		return nil, err
	}
	character.NewView(npc, *dim, nil).RefillAll()
	return npc, nil
}

// playImmediateActions performs every accepted immediate action of the
// closing cycle. Failures are recorded per action and never stop the run.
func (s *Service) playImmediateActions(cycle *game.Cycle) {
	acts, err := s.repo.GetPendingImmediateActions(cycle.ID)
	if err != nil {
		logging.Error("failed to list immediate actions", err, logging.Fields{
			constants.LogFieldCycleNumber: cycle.Number,
		})
		return
	}
	for i := range acts {
		if err := s.engine.Perform(&acts[i]); err != nil {
			logging.Warn("immediate action failed", logging.Fields{
				constants.LogFieldActionID:   acts[i].ID,
				constants.LogFieldActionType: acts[i].Type,
				"reason":                     err.Error(),
			})
		}
	}
}

// playDeferredActions performs the accepted deferred actions of the
// closing cycle. Actions bound to a fight turn stay with the turn
// processor.
func (s *Service) playDeferredActions(cycle *game.Cycle) {
	acts, err := s.repo.GetPendingDeferredActions(cycle.ID)
	if err != nil {
		logging.Error("failed to list deferred actions", err, logging.Fields{
			constants.LogFieldCycleNumber: cycle.Number,
		})
		return
	}
	for i := range acts {
		if err := s.engine.Perform(&acts[i]); err != nil {
			logging.Warn("deferred action failed", logging.Fields{
				constants.LogFieldActionID:   acts[i].ID,
				constants.LogFieldActionType: acts[i].Type,
				"reason":                     err.Error(),
			})
		}
	}
}

// advanceCycle closes the current cycle, opens the next and announces it.
func (s *Service) advanceCycle(campaign *game.Campaign, cycle *game.Cycle) (*game.Cycle, error) {
	next := &game.Cycle{CampaignID: campaign.ID, Number: cycle.Number + 1}
	err := s.repo.Transaction(func(tx storage.Repository) error {
		cycle.Finished = true
		if err := tx.UpdateCycle(cycle); err != nil {
			return err
		}
		if err := tx.CreateCycle(next); err != nil {
			return err
		}
		campaign.CurrentCycleID = &next.ID
		return tx.UpdateCampaign(campaign)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewCycleEvent{
		Meta:        events.NewMeta(),
		CampaignID:  campaign.ID,
		CycleID:     next.ID,
		CycleNumber: next.Number,
	})
	logging.Info("cycle advanced", logging.Fields{
		constants.LogFieldCampaignID:  campaign.ID,
		constants.LogFieldCycleNumber: next.Number,
	})
	return next, nil
}

// RunDueCampaigns claims auto-play campaigns whose interval elapsed and
// plays one cycle for each. A failing campaign is retried on the next
// scan and never stalls the others.
func (s *Service) RunDueCampaigns(now time.Time, limit int) {
	ids, err := s.repo.ClaimAutoPlayCampaignIDs(now, limit, s.interval, s.workerID)
	if err != nil {
		logging.Error("failed to claim auto-play campaigns", err, nil)
		return
	}
	for _, id := range ids {
		if _, err := s.PlayCycle(id); err != nil {
			logging.Error("auto-play cycle failed", err, logging.Fields{
				constants.LogFieldCampaignID: id,
			})
		}
	}
}
