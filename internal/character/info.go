package character

import "github.com/multiverse-rpg/world-engine/internal/game"

// BriefInfo is the public snapshot anyone at the same position may read.
type BriefInfo struct {
	ID         uint              `json:"id"`
	Name       string            `json:"name"`
	NPC        bool              `json:"npc"`
	Grade      int               `json:"grade"`
	Behavior   game.BehaviorType `json:"behavior,omitempty"`
	KnockedOut bool              `json:"knocked_out"`
	InFight    bool              `json:"in_fight"`
}

// Info is the detailed snapshot; inspect gates its fields by the
// inspector's mental stats.
type Info struct {
	BriefInfo
	Health       int        `json:"health"`
	MaxHealth    int        `json:"max_health"`
	Energy       int        `json:"energy,omitempty"`
	MaxEnergy    int        `json:"max_energy,omitempty"`
	ActionPoints int        `json:"action_points,omitempty"`
	Stats        *game.Stats `json:"stats,omitempty"`
	Skills       []string   `json:"skills,omitempty"`
}

// GetBriefInfo returns the public snapshot.
func (v *View) GetBriefInfo() BriefInfo {
	return BriefInfo{
		ID:         v.Char.ID,
		Name:       v.Char.Name,
		NPC:        v.Char.NPC,
		Grade:      v.Char.Grade,
		Behavior:   v.Char.Behavior,
		KnockedOut: v.IsKnockedOut(),
		InFight:    v.InFight(),
	}
}

// GetCharacterInfo returns the full snapshot, including effective stats.
func (v *View) GetCharacterInfo() Info {
	stats := v.EffectiveStats()
	skills := make([]string, 0, len(v.Char.LearnedSkills))
	for i := range v.Char.LearnedSkills {
		skills = append(skills, v.Char.LearnedSkills[i].SkillName)
	}
	return Info{
		BriefInfo:    v.GetBriefInfo(),
		Health:       v.Char.CurrentHealth,
		MaxHealth:    v.Max(game.ResourceHealth),
		Energy:       v.Char.CurrentEnergy,
		MaxEnergy:    v.Max(game.ResourceEnergy),
		ActionPoints: v.Char.CurrentActionPoints,
		Stats:        &stats,
		Skills:       skills,
	}
}
