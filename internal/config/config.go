package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/multiverse-rpg/world-engine/internal/game"
)

type dimensionEntry struct {
	Name         string  `json:"name"`
	Level        int     `json:"level"`
	SpeedFactor  float64 `json:"speed_factor"`
	EnergyFactor float64 `json:"energy_factor"`
	ShiftCost    int     `json:"shift_cost"`
}

type serverEntry struct {
	Address string `json:"address"`
}

type rawConfig struct {
	SkillList     []game.Skill             `json:"skill_list"`
	DimensionList []dimensionEntry         `json:"dimension_list"`
	TemplateList  []game.CharacterTemplate `json:"npc_template_list"`
	Server        *serverEntry             `json:"server"`
	// Interval settings in seconds. Zero falls back to defaults.
	CampaignAutoCycleIntervalSeconds int `json:"campaign_auto_cycle_interval_seconds"`
	FightTurnDurationSeconds         int `json:"fight_turn_duration_seconds"`
	// MasterUUIDList names the player clients allowed to run god
	// interventions.
	MasterUUIDList []string `json:"master_uuid_list"`
}

// LoadedConfig contains the world definitions and server settings.
type LoadedConfig struct {
	Skills     map[string]game.Skill
	Dimensions []game.Dimension
	Templates  map[string]game.CharacterTemplate

	ServerAddress                    string
	CampaignAutoCycleIntervalSeconds int
	FightTurnDurationSeconds         int
	MasterUUIDs                      map[string]bool
}

const (
	defaultAutoCycleInterval = 90
	defaultFightTurnDuration = 30
)

// LoadConfig reads the world configuration file at path. It requires the
// keys `skill_list` and `dimension_list` (snake_case).
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(rc.SkillList) == 0 {
		return nil, fmt.Errorf("config file %s: skill_list is empty (provide 'skill_list' array)", path)
	}
	if len(rc.DimensionList) == 0 {
		return nil, fmt.Errorf("config file %s: dimension_list is empty (provide 'dimension_list' array)", path)
	}

	skills := make(map[string]game.Skill, len(rc.SkillList))
	for _, s := range rc.SkillList {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, fmt.Errorf("config file %s: skill entry missing 'name'", path)
		}
		if _, exists := skills[name]; exists {
			return nil, fmt.Errorf("config file %s: duplicate skill name '%s'", path, name)
		}
		for i := range s.Impacts {
			applyFormulaDefaults(&s.Impacts[i].Formula)
		}
		for i := range s.Effects {
			applyFormulaDefaults(&s.Effects[i].Duration)
		}
		skills[name] = s
	}

	dims := make([]game.Dimension, 0, len(rc.DimensionList))
	levelSeen := make(map[int]struct{}, len(rc.DimensionList))
	for _, d := range rc.DimensionList {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("config file %s: dimension entry missing 'name'", path)
		}
		if d.SpeedFactor <= 0 {
			return nil, fmt.Errorf("config file %s: dimension '%s' needs positive speed_factor", path, d.Name)
		}
		if _, exists := levelSeen[d.Level]; exists {
			return nil, fmt.Errorf("config file %s: duplicate dimension level %d", path, d.Level)
		}
		levelSeen[d.Level] = struct{}{}
		dims = append(dims, game.Dimension{
			Name:         d.Name,
			Level:        d.Level,
			SpeedFactor:  d.SpeedFactor,
			EnergyFactor: d.EnergyFactor,
			ShiftCost:    d.ShiftCost,
		})
	}

	templates := make(map[string]game.CharacterTemplate, len(rc.TemplateList))
	for _, t := range rc.TemplateList {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("config file %s: npc template missing 'name'", path)
		}
		if _, exists := templates[name]; exists {
			return nil, fmt.Errorf("config file %s: duplicate npc template '%s'", path, name)
		}
		for _, sk := range t.Skills {
			if _, ok := skills[sk]; !ok {
				return nil, fmt.Errorf("config file %s: npc template '%s' references unknown skill '%s'", path, name, sk)
			}
		}
		templates[name] = t
	}

	addr := ":8080"
	if rc.Server != nil && rc.Server.Address != "" {
		addr = rc.Server.Address
	}

	autoCycle := rc.CampaignAutoCycleIntervalSeconds
	if autoCycle <= 0 {
		autoCycle = defaultAutoCycleInterval
	}
	turnDuration := rc.FightTurnDurationSeconds
	if turnDuration <= 0 {
		turnDuration = defaultFightTurnDuration
	}

	masters := make(map[string]bool, len(rc.MasterUUIDList))
	for _, uuid := range rc.MasterUUIDList {
		masters[uuid] = true
	}

	return &LoadedConfig{
		Skills:                           skills,
		Dimensions:                       dims,
		Templates:                        templates,
		ServerAddress:                    addr,
		CampaignAutoCycleIntervalSeconds: autoCycle,
		FightTurnDurationSeconds:         turnDuration,
		MasterUUIDs:                      masters,
	}, nil
}

// applyFormulaDefaults fills the efficiency clamp bounds when unset.
func applyFormulaDefaults(f *game.Formula) {
	if f.MinEfficiency == 0 {
		f.MinEfficiency = 0.01
	}
	if f.MaxEfficiency == 0 {
		f.MaxEfficiency = 3
	}
}
