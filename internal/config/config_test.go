package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world_config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const minimalConfig = `{
	"skill_list": [
		{
			"name": "strike",
			"kind": "attack",
			"target": "enemy",
			"cost_action_points": 2,
			"impacts": [
				{"type": "damage", "violation": "physical", "formula": {"base": 10}}
			]
		}
	],
	"dimension_list": [
		{"name": "prime", "level": 0, "speed_factor": 1.0, "energy_factor": 1.0},
		{"name": "veil", "level": 1, "speed_factor": 0.8, "energy_factor": 1.2, "shift_cost": 5}
	]
}`

func TestLoadConfig_Minimal(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	skill, ok := cfg.Skills["strike"]
	if !ok {
		t.Fatal("skill strike not loaded")
	}
	if skill.CostActionPoints != 2 || len(skill.Impacts) != 1 {
		t.Fatalf("unexpected skill: %+v", skill)
	}
	// formula clamp defaults are applied on load
	if skill.Impacts[0].Formula.MinEfficiency != 0.01 || skill.Impacts[0].Formula.MaxEfficiency != 3 {
		t.Fatalf("formula defaults not applied: %+v", skill.Impacts[0].Formula)
	}
	if len(cfg.Dimensions) != 2 || cfg.Dimensions[1].ShiftCost != 5 {
		t.Fatalf("unexpected dimensions: %+v", cfg.Dimensions)
	}
	if cfg.ServerAddress != ":8080" {
		t.Fatalf("default address: got %s", cfg.ServerAddress)
	}
	if cfg.CampaignAutoCycleIntervalSeconds != 90 || cfg.FightTurnDurationSeconds != 30 {
		t.Fatalf("default intervals: %d and %d", cfg.CampaignAutoCycleIntervalSeconds, cfg.FightTurnDurationSeconds)
	}
	if len(cfg.MasterUUIDs) != 0 {
		t.Fatalf("no masters expected, got %v", cfg.MasterUUIDs)
	}
}

func TestLoadConfig_FullSettings(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{
		"skill_list": [{"name": "strike", "kind": "attack", "target": "enemy"}],
		"dimension_list": [{"name": "prime", "level": 0, "speed_factor": 1.0}],
		"npc_template_list": [
			{"name": "guard", "behavior": "aggressive", "grade": 1, "skills": ["strike"], "organization": "watch"}
		],
		"server": {"address": ":9090"},
		"campaign_auto_cycle_interval_seconds": 45,
		"fight_turn_duration_seconds": 10,
		"master_uuid_list": ["gm-1", "gm-2"]
	}`))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ServerAddress != ":9090" {
		t.Fatalf("address: got %s", cfg.ServerAddress)
	}
	if cfg.CampaignAutoCycleIntervalSeconds != 45 || cfg.FightTurnDurationSeconds != 10 {
		t.Fatalf("intervals: %d and %d", cfg.CampaignAutoCycleIntervalSeconds, cfg.FightTurnDurationSeconds)
	}
	if !cfg.MasterUUIDs["gm-1"] || !cfg.MasterUUIDs["gm-2"] || cfg.MasterUUIDs["other"] {
		t.Fatalf("masters: %v", cfg.MasterUUIDs)
	}
	tmpl, ok := cfg.Templates["guard"]
	if !ok || tmpl.Organization != "watch" || len(tmpl.Skills) != 1 {
		t.Fatalf("template: %+v", tmpl)
	}
}

func TestLoadConfig_Rejections(t *testing.T) {
	cases := map[string]string{
		"missing skills":       `{"dimension_list": [{"name": "prime", "level": 0, "speed_factor": 1}]}`,
		"missing dimensions":   `{"skill_list": [{"name": "strike"}]}`,
		"duplicate skill":      `{"skill_list": [{"name": "strike"}, {"name": "strike"}], "dimension_list": [{"name": "prime", "level": 0, "speed_factor": 1}]}`,
		"duplicate dim level":  `{"skill_list": [{"name": "strike"}], "dimension_list": [{"name": "a", "level": 0, "speed_factor": 1}, {"name": "b", "level": 0, "speed_factor": 1}]}`,
		"zero speed factor":    `{"skill_list": [{"name": "strike"}], "dimension_list": [{"name": "prime", "level": 0, "speed_factor": 0}]}`,
		"unknown template ref": `{"skill_list": [{"name": "strike"}], "dimension_list": [{"name": "prime", "level": 0, "speed_factor": 1}], "npc_template_list": [{"name": "guard", "skills": ["missing"]}]}`,
		"broken json":          `{`,
	}
	for name, body := range cases {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
