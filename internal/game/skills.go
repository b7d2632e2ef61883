package game

// FormulaTerm pairs a required stat value with its scaling factor. A skill
// formula holds parallel require/scale terms; efficiency is the minimum over
// all terms.
type FormulaTerm struct {
	Stat     string  `json:"stat"`
	Required int     `json:"required"`
	Scaling  float64 `json:"scaling"`
}

// Formula is the deterministic numeric pipeline from a stat vector to a
// scalar efficiency and an integer magnitude.
type Formula struct {
	Base          int           `json:"base"`
	Terms         []FormulaTerm `json:"terms"`
	MinEfficiency float64       `json:"min_efficiency"`
	MaxEfficiency float64       `json:"max_efficiency"`
}

// SkillImpact describes one numeric mutation a skill applies to each target.
type SkillImpact struct {
	Type      ImpactType    `json:"type"`
	Violation ViolationType `json:"violation"`
	Formula   Formula       `json:"formula"`
}

// EffectDef describes a chance-based effect a skill may attach to a target.
// Shield effects carry a violation and capacity instead of stat modifiers.
type EffectDef struct {
	Name            string        `json:"name"`
	BaseChance      float64       `json:"base_chance"`
	Duration        Formula       `json:"duration"`
	Modifiers       Stats         `json:"modifiers"`
	ShieldViolation ViolationType `json:"shield_violation,omitempty"`
	ShieldCapacity  int           `json:"shield_capacity,omitempty"`
}

// Skill is a config-defined ability referenced by name from learned-skill
// rows, items and actions. Definitions live in the world config file; the
// database stores only references.
type Skill struct {
	Name             string      `json:"name"`
	School           string      `json:"school"`
	Kind             SkillKind   `json:"kind"`
	Target           TargetSide  `json:"target"`
	CostHealth       int         `json:"cost_health"`
	CostEnergy       int         `json:"cost_energy"`
	CostActionPoints int         `json:"cost_action_points"`
	Impacts          []SkillImpact `json:"impacts"`
	Effects          []EffectDef   `json:"effects"`
}

// TotalCost is the summed resource price, used to rank candidate skills.
func (s Skill) TotalCost() int {
	return s.CostHealth + s.CostEnergy + s.CostActionPoints
}

// CharacterTemplate seeds NPCs created by spawners.
type CharacterTemplate struct {
	Name         string       `json:"name"`
	Behavior     BehaviorType `json:"behavior"`
	Grade        int          `json:"grade"`
	Stats        Stats        `json:"stats"`
	Skills       []string     `json:"skills"`
	Organization string       `json:"organization"`
}
