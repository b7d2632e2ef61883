// Package behavior builds per-position friend/enemy/neutral contexts from
// the relation graph and picks one action per NPC per cycle.
package behavior

import (
	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/formula"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/relation"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

// healThreshold is the health share below which friendly NPCs start
// healing.
const healThreshold = 0.5

// Context is one character's disjoint classification of everyone else at
// its position.
type Context struct {
	Subject *character.View
	Friends []*character.View
	Enemies []*character.View
	Neutral []*character.View
}

// Service classifies positions and drives NPC decisions.
type Service struct {
	rel    *relation.Service
	skills map[string]game.Skill
}

func NewService(rel *relation.Service, skills map[string]game.Skill) *Service {
	return &Service{rel: rel, skills: skills}
}

// BuildContexts classifies every active character at a position against
// every other. Before classifying it promotes organization pairs to
// aggressive when any of their members hold a character-level aggression
// (organization coherence).
func (s *Service) BuildContexts(tx storage.Repository, campaignID, positionID uint) ([]Context, error) {
	chars, err := tx.GetCharactersAtPosition(positionID)
	if err != nil {
		return nil, err
	}
	dims := map[uint]*game.Dimension{}
	views := make([]*character.View, 0, len(chars))
	for i := range chars {
		c := &chars[i]
		if !c.Active {
			continue
		}
		dim, ok := dims[c.DimensionID]
		if !ok {
			dim, err = tx.GetDimensionByID(c.DimensionID)
			if err != nil {
				return nil, err
			}
			dims[c.DimensionID] = dim
		}
		views = append(views, character.NewView(c, *dim, nil))
	}

	if err := s.promoteOrganizations(campaignID, views); err != nil {
		return nil, err
	}

	contexts := make([]Context, 0, len(views))
	for _, subject := range views {
		ctx := Context{Subject: subject}
		for _, other := range views {
			if other == subject {
				continue
			}
			side, err := s.classify(campaignID, subject.Char, other.Char)
			if err != nil {
				return nil, err
			}
			switch side {
			case game.RelationFriendly:
				ctx.Friends = append(ctx.Friends, other)
			case game.RelationAggressive:
				ctx.Enemies = append(ctx.Enemies, other)
			default:
				ctx.Neutral = append(ctx.Neutral, other)
			}
		}
		contexts = append(contexts, ctx)
	}
	return contexts, nil
}

// promoteOrganizations spreads any character-level aggression between
// members of two organizations to the organizations themselves.
func (s *Service) promoteOrganizations(campaignID uint, views []*character.View) error {
	for _, a := range views {
		if a.Char.OrganizationID == nil {
			continue
		}
		for _, b := range views {
			if b.Char.OrganizationID == nil || *a.Char.OrganizationID == *b.Char.OrganizationID {
				continue
			}
			state, err := s.rel.State(campaignID, game.ScopeCharacter, a.Char.ID, b.Char.ID)
			if err != nil {
				return err
			}
			if state != game.RelationAggressive {
				continue
			}
			if err := s.rel.BecomeAggressive(campaignID, game.ScopeOrganization, *a.Char.OrganizationID, *b.Char.OrganizationID); err != nil {
				return err
			}
		}
	}
	return nil
}

// classify resolves the disposition of subject toward other: same
// organization means friend, otherwise the relation graph decides.
func (s *Service) classify(campaignID uint, subject, other *game.Character) (game.RelationState, error) {
	if subject.OrganizationID != nil && other.OrganizationID != nil &&
		*subject.OrganizationID == *other.OrganizationID {
		return game.RelationFriendly, nil
	}
	return s.rel.CharacterState(campaignID, subject.ID, other.ID, subject.OrganizationID, other.OrganizationID)
}

// Choose picks at most one action for an NPC. A nil action means idle.
func (s *Service) Choose(cycleID uint, ctx Context) *game.CharacterAction {
	npc := ctx.Subject
	if !npc.Char.NPC || npc.IsKnockedOut() || npc.Current(game.ResourceActionPoints) < 1 {
		return nil
	}
	switch npc.Char.Behavior {
	case game.BehaviorAggressive:
		return s.chooseAggressive(cycleID, ctx)
	case game.BehaviorFriendly:
		return s.chooseFriendly(cycleID, ctx)
	}
	return nil
}

// chooseAggressive attacks the standing enemy with the lowest health using
// the learned offensive skill with the best magnitude per cost.
func (s *Service) chooseAggressive(cycleID uint, ctx Context) *game.CharacterAction {
	target := lowestHealth(ctx.Enemies)
	if target == nil {
		return nil
	}
	skill := s.bestSkill(ctx.Subject, game.SkillAttack, game.TargetEnemy)
	if skill == nil {
		return nil
	}
	return skillAction(cycleID, ctx.Subject, *skill, target)
}

// chooseFriendly heals the weakest injured friend, then buffs, then
// shields.
func (s *Service) chooseFriendly(cycleID uint, ctx Context) *game.CharacterAction {
	if wounded := s.woundedFriend(ctx); wounded != nil {
		if skill := s.bestSkill(ctx.Subject, game.SkillHeal, game.TargetFriend); skill != nil {
			return skillAction(cycleID, ctx.Subject, *skill, wounded)
		}
	}
	if skill := s.bestSkill(ctx.Subject, game.SkillBuff, game.TargetFriend); skill != nil {
		if friend := lowestHealth(ctx.Friends); friend != nil {
			return skillAction(cycleID, ctx.Subject, *skill, friend)
		}
	}
	if skill := s.bestSkill(ctx.Subject, game.SkillShield, game.TargetFriend); skill != nil {
		if friend := lowestHealth(ctx.Friends); friend != nil {
			return skillAction(cycleID, ctx.Subject, *skill, friend)
		}
	}
	return nil
}

// woundedFriend returns the lowest-health friend below the heal threshold.
func (s *Service) woundedFriend(ctx Context) *character.View {
	weakest := lowestHealth(ctx.Friends)
	if weakest == nil {
		return nil
	}
	max := weakest.Max(game.ResourceHealth)
	if max <= 0 || float64(weakest.Char.CurrentHealth)/float64(max) >= healThreshold {
		return nil
	}
	return weakest
}

// bestSkill picks the learned, currently payable skill of the wanted kind
// maximizing expected magnitude per total cost.
func (s *Service) bestSkill(npc *character.View, kind game.SkillKind, side game.TargetSide) *game.Skill {
	stats := npc.EffectiveStats()
	var best *game.Skill
	var bestScore float64
	for i := range npc.Char.LearnedSkills {
		skill, ok := s.skills[npc.Char.LearnedSkills[i].SkillName]
		if !ok || skill.Kind != kind {
			continue
		}
		if skill.Target != side && skill.Target != game.TargetAny {
			continue
		}
		if character.ValidateCost(character.SkillCost(skill), npc) != nil {
			continue
		}
		magnitude := 0
		for _, imp := range skill.Impacts {
			magnitude += formula.Evaluate(imp.Formula, stats)
		}
		if magnitude == 0 && len(skill.Effects) > 0 {
			magnitude = 1
		}
		cost := skill.TotalCost()
		if cost < 1 {
			cost = 1
		}
		score := float64(magnitude) / float64(cost)
		if best == nil || score > bestScore {
			copied := skill
			best = &copied
			bestScore = score
		}
	}
	return best
}

// lowestHealth returns the standing member with the least current health.
func lowestHealth(side []*character.View) *character.View {
	var pick *character.View
	for _, v := range side {
		if v.IsKnockedOut() {
			continue
		}
		if pick == nil || v.Char.CurrentHealth < pick.Char.CurrentHealth {
			pick = v
		}
	}
	return pick
}

func skillAction(cycleID uint, npc *character.View, skill game.Skill, target *character.View) *game.CharacterAction {
	return &game.CharacterAction{
		CycleID:     cycleID,
		InitiatorID: npc.Char.ID,
		Type:        game.ActionUseSkill,
		SkillName:   skill.Name,
		Targets:     []game.ActionTarget{{CharacterID: target.Char.ID}},
	}
}
