// Package relation tracks the directed pairwise disposition between
// characters and between organizations. Aggression is sticky: once a pair
// turns aggressive only an explicit reset clears it.
package relation

import (
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

type Service struct {
	repo storage.Repository
}

func NewService(repo storage.Repository) *Service {
	return &Service{repo: repo}
}

// State reads one direction of a pair in the given scope. Unset pairs are
// neutral.
func (s *Service) State(campaignID uint, scope game.RelationScope, fromID, toID uint) (game.RelationState, error) {
	rel, err := s.repo.GetRelation(campaignID, scope, fromID, toID)
	if err != nil {
		return game.RelationNeutral, err
	}
	if rel == nil {
		return game.RelationNeutral, nil
	}
	return rel.State, nil
}

// CharacterState resolves the effective disposition from character a toward
// character b: the character-level pair when set, otherwise the
// organization-level pair, otherwise neutral.
func (s *Service) CharacterState(campaignID, fromID, toID uint, fromOrg, toOrg *uint) (game.RelationState, error) {
	rel, err := s.repo.GetRelation(campaignID, game.ScopeCharacter, fromID, toID)
	if err != nil {
		return game.RelationNeutral, err
	}
	if rel != nil {
		return rel.State, nil
	}
	if fromOrg != nil && toOrg != nil && *fromOrg != *toOrg {
		return s.State(campaignID, game.ScopeOrganization, *fromOrg, *toOrg)
	}
	return game.RelationNeutral, nil
}

// BecomeAggressive flips both directions of the pair to aggressive.
func (s *Service) BecomeAggressive(campaignID uint, scope game.RelationScope, a, b uint) error {
	if err := s.setState(campaignID, scope, a, b, game.RelationAggressive); err != nil {
		return err
	}
	return s.setState(campaignID, scope, b, a, game.RelationAggressive)
}

// BecomeFriendly sets both directions friendly, unless either direction is
// already aggressive — then it is a no-op.
func (s *Service) BecomeFriendly(campaignID uint, scope game.RelationScope, a, b uint) error {
	forward, err := s.State(campaignID, scope, a, b)
	if err != nil {
		return err
	}
	backward, err := s.State(campaignID, scope, b, a)
	if err != nil {
		return err
	}
	if forward == game.RelationAggressive || backward == game.RelationAggressive {
		return nil
	}
	if err := s.setState(campaignID, scope, a, b, game.RelationFriendly); err != nil {
		return err
	}
	return s.setState(campaignID, scope, b, a, game.RelationFriendly)
}

// Reset clears both directions back to neutral. This is the only way out
// of an aggressive pair.
func (s *Service) Reset(campaignID uint, scope game.RelationScope, a, b uint) error {
	if err := s.setState(campaignID, scope, a, b, game.RelationNeutral); err != nil {
		return err
	}
	return s.setState(campaignID, scope, b, a, game.RelationNeutral)
}

func (s *Service) setState(campaignID uint, scope game.RelationScope, fromID, toID uint, state game.RelationState) error {
	return s.repo.UpsertRelation(&game.Relation{
		CampaignID: campaignID,
		Scope:      scope,
		FromID:     fromID,
		ToID:       toID,
		State:      state,
	})
}
