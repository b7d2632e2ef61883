package game

import (
	"gorm.io/gorm"
)

// Campaign is the tenant-like container that owns cycles, positions,
// characters, fights and spawners.
type Campaign struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:64"`
	Description string `json:"description" gorm:"size:256"`
	Active      bool   `json:"active"`
	Completed   bool   `json:"completed"`
	AutoPlay    bool   `json:"auto_play"`
	// CurrentCycleID points at the single non-finished cycle. It is kept
	// denormalized on the campaign so "current cycle" is a plain lookup
	// instead of a computed property.
	CurrentCycleID *uint `json:"current_cycle_id"`

	// ClaimedUntil/ClaimedBy support worker claiming for the auto-play
	// scanner so a stuck worker does not block the campaign forever.
	ClaimedUntil *int64 `json:"-"`
	ClaimedBy    string `json:"-"`
}

// Cycle is one discrete global tick of world time for a campaign. Numbers
// are monotonic per campaign; exactly one cycle per campaign is unfinished.
type Cycle struct {
	gorm.Model
	CampaignID uint `json:"campaign_id" gorm:"index"`
	Number     int  `json:"number"`
	Finished   bool `json:"finished"`
}

// Dimension is a world layer with speed/energy multipliers. Characters may
// shift only between dimensions whose levels differ by one.
type Dimension struct {
	gorm.Model
	Name         string  `json:"name" gorm:"uniqueIndex"`
	Level        int     `json:"level"`
	SpeedFactor  float64 `json:"speed_factor"`
	EnergyFactor float64 `json:"energy_factor"`
	// ShiftCost is the energy price of shifting into this dimension.
	ShiftCost int `json:"shift_cost"`
}

// Position is a node in the 3-D connection graph.
type Position struct {
	gorm.Model
	CampaignID  uint   `json:"campaign_id" gorm:"index"`
	GridX       int    `json:"grid_x"`
	GridY       int    `json:"grid_y"`
	GridZ       int    `json:"grid_z"`
	SubLocation string `json:"sub_location"`
	IsSafe      bool   `json:"is_safe"`
	Labels      string `json:"labels" gorm:"size:256"`
	DimensionID uint   `json:"dimension_id"`
}

// PositionConnection links two positions. When Bidirectional is false the
// edge is traversable only From -> To.
type PositionConnection struct {
	gorm.Model
	CampaignID    uint `json:"campaign_id" gorm:"index"`
	FromID        uint `json:"from_id" gorm:"index"`
	ToID          uint `json:"to_id" gorm:"index"`
	Bidirectional bool `json:"bidirectional"`
	Active        bool `json:"active"`
	Locked        bool `json:"locked"`
	Public        bool `json:"public"`
	IsVertical    bool `json:"is_vertical"`
	IsHorizontal  bool `json:"is_horizontal"`
	// Optional traversal requirements.
	RequiredSkill       string `json:"required_skill"`
	RequiredItemID      *uint  `json:"required_item_id"`
	RequiredCharacterID *uint  `json:"required_character_id"`
}

// Organization groups characters; organization-level relations seed
// character-level ones.
type Organization struct {
	gorm.Model
	CampaignID uint   `json:"campaign_id" gorm:"index"`
	Name       string `json:"name" gorm:"size:64"`
}

// Character is the central game object for both players and NPCs.
type Character struct {
	gorm.Model
	CampaignID uint   `json:"campaign_id" gorm:"index"`
	Name       string `json:"name" gorm:"size:64"`
	// OwnerUUID identifies the owning player client; empty for NPCs.
	OwnerUUID string `json:"owner_uuid" gorm:"index"`
	NPC       bool   `json:"npc"`
	Active    bool   `json:"active"`

	PositionID         *uint `json:"position_id" gorm:"index"`
	LastSafePositionID *uint `json:"last_safe_position_id"`
	DimensionID        uint  `json:"dimension_id"`

	OrganizationID *uint        `json:"organization_id" gorm:"index"`
	Behavior       BehaviorType `json:"behavior"`

	Grade      int    `json:"grade"`
	GradeRank  int    `json:"grade_rank"`
	Experience int    `json:"experience"`
	Path       string `json:"path"`

	Base  Stats `json:"base_stats" gorm:"embedded;embeddedPrefix:base_"`
	Spent Stats `json:"spent_stats" gorm:"embedded;embeddedPrefix:spent_"`

	CurrentHealth       int `json:"current_health"`
	CurrentEnergy       int `json:"current_energy"`
	CurrentActionPoints int `json:"current_action_points"`

	// FightID is set while the character participates in an active fight.
	FightID *uint `json:"fight_id"`
	// SpawnerID backlinks NPCs created by a spawner.
	SpawnerID *uint `json:"spawner_id"`

	Tokens int `json:"tokens"`

	LearnedSkills  []LearnedSkill  `json:"learned_skills"`
	LearnedSchools []LearnedSchool `json:"learned_schools"`
	Items          []WorldItem     `json:"items" gorm:"foreignKey:CharacterID"`
	Effects        []ActiveEffect  `json:"effects" gorm:"foreignKey:CharacterID"`
	Shields        []ActiveShield  `json:"shields" gorm:"foreignKey:CharacterID"`
	Challenge      *Challenge      `json:"challenge,omitempty"`
}

// KnockedOut reports whether the character is out of action.
func (c *Character) KnockedOut() bool { return c.CurrentHealth <= 0 }

// LearnedSkill references a skill definition by name. IsBase skills are the
// ones granted by the character's path rather than learned from a school.
type LearnedSkill struct {
	gorm.Model
	CharacterID uint   `json:"-" gorm:"index"`
	SkillName   string `json:"skill_name"`
	IsBase      bool   `json:"is_base"`
}

type LearnedSchool struct {
	gorm.Model
	CharacterID uint   `json:"-" gorm:"index"`
	SchoolName  string `json:"school_name"`
}

// WorldItem is owned by a position until picked up, then by a character.
type WorldItem struct {
	gorm.Model
	CampaignID  uint   `json:"campaign_id" gorm:"index"`
	Name        string `json:"name" gorm:"size:64"`
	PositionID  *uint  `json:"position_id" gorm:"index"`
	CharacterID *uint  `json:"character_id" gorm:"index"`
	Charges     int    `json:"charges"`
	SkillName   string `json:"skill_name"`
	Visible     bool   `json:"visible"`
	Equipped    bool   `json:"equipped"`
	Bonus       Stats  `json:"bonus" gorm:"embedded;embeddedPrefix:bonus_"`
}

// ActiveEffect is an applied skill effect with a cycle-based expiry.
type ActiveEffect struct {
	gorm.Model
	CharacterID    uint   `json:"-" gorm:"index"`
	Name           string `json:"name"`
	SourceSkill    string `json:"source_skill"`
	ExpiresAtCycle int    `json:"expires_at_cycle"`
	Modifiers      Stats  `json:"modifiers" gorm:"embedded;embeddedPrefix:mod_"`
}

// ActiveShield absorbs matching-violation damage before health changes.
type ActiveShield struct {
	gorm.Model
	CharacterID uint          `json:"-" gorm:"index"`
	Violation   ViolationType `json:"violation"`
	Capacity    int           `json:"capacity"`
	Remaining   int           `json:"remaining"`
	Active      bool          `json:"active"`
}

// Challenge is the at-most-one open challenge attached to a character.
type Challenge struct {
	gorm.Model
	CharacterID uint   `json:"-" gorm:"uniqueIndex"`
	IssuedByID  uint   `json:"issued_by_id"`
	Description string `json:"description" gorm:"size:256"`
}

// Fight pits side A against side B; each character joins at most one active
// fight.
type Fight struct {
	gorm.Model
	CampaignID    uint               `json:"campaign_id" gorm:"index"`
	InitiatorID   uint               `json:"initiator_id"`
	TargetID      uint               `json:"target_id"`
	CurrentTurnID *uint              `json:"current_turn_id"`
	IsOpen        bool               `json:"is_open"`
	IsEnded       bool               `json:"is_ended" gorm:"index"`
	Participants  []FightParticipant `json:"participants"`

	ClaimedUntil *int64 `json:"-"`
	ClaimedBy    string `json:"-"`
}

// Fight side labels.
const (
	SideA = "a"
	SideB = "b"
)

type FightParticipant struct {
	gorm.Model
	FightID     uint   `json:"-" gorm:"index"`
	CharacterID uint   `json:"character_id"`
	Side        string `json:"side" gorm:"size:1"`
}

// FightTurn is a sub-cycle during combat in which ordered actions resolve.
type FightTurn struct {
	gorm.Model
	FightID    uint `json:"fight_id" gorm:"index"`
	Number     int  `json:"number"`
	IsFinished bool `json:"is_finished"`
}

// CharacterAction is one submitted action bound to a cycle (and optionally
// a fight turn). The payload is a typed variant: exactly the fields the
// action type needs are set.
type CharacterAction struct {
	gorm.Model
	CycleID     uint       `json:"cycle_id" gorm:"index"`
	FightTurnID *uint      `json:"fight_turn_id" gorm:"index"`
	InitiatorID uint       `json:"initiator_id" gorm:"index"`
	Type        ActionType `json:"type"`

	Targets []ActionTarget `json:"targets"`

	SkillName         string `json:"skill_name,omitempty"`
	ItemID            *uint  `json:"item_id,omitempty"`
	RequestedItemID   *uint  `json:"requested_item_id,omitempty"`
	PositionID        *uint  `json:"position_id,omitempty"`
	AnomalyID         *uint  `json:"anomaly_id,omitempty"`
	TargetDimensionID *uint  `json:"target_dimension_id,omitempty"`
	DiceSides         int    `json:"dice_sides,omitempty"`
	// InterventionSize scales a god intervention; negative values curse.
	InterventionSize float64 `json:"intervention_size,omitempty"`

	Immediate bool   `json:"immediate"`
	Accepted  bool   `json:"accepted"`
	Performed bool   `json:"performed"`
	Failed    bool   `json:"failed"`
	ErrorKind string `json:"error_kind,omitempty"`

	// Order is the ascending execution key inside a fight turn.
	Order float64 `json:"order"`

	Impacts []ActionImpact `json:"impacts" gorm:"foreignKey:ActionID"`
}

type ActionTarget struct {
	gorm.Model
	CharacterActionID uint `json:"-" gorm:"index"`
	CharacterID       uint `json:"character_id"`
}

// ActionImpact records one applied mutation together with the dice roll
// that scaled it.
type ActionImpact struct {
	gorm.Model
	ActionID       uint          `json:"-" gorm:"index"`
	TargetID       uint          `json:"target_id"`
	Type           ImpactType    `json:"type"`
	Violation      ViolationType `json:"violation"`
	Size           int           `json:"size"`
	DiceSide       int           `json:"dice_side"`
	DiceMultiplier float64       `json:"dice_multiplier"`
	DiceOutcome    DiceOutcome   `json:"dice_outcome"`
}

// Relation is one direction of a pairwise disposition. Scope selects the
// character or organization graph; FromID/ToID reference rows of that scope.
type Relation struct {
	gorm.Model
	CampaignID uint          `json:"campaign_id" gorm:"index"`
	Scope      RelationScope `json:"scope" gorm:"uniqueIndex:idx_relation_pair"`
	FromID     uint          `json:"from_id" gorm:"uniqueIndex:idx_relation_pair"`
	ToID       uint          `json:"to_id" gorm:"uniqueIndex:idx_relation_pair"`
	State      RelationState `json:"state"`
}

// FollowRule moves a follower toward its leader every cycle until consumed.
type FollowRule struct {
	gorm.Model
	CampaignID uint       `json:"campaign_id" gorm:"index"`
	LeaderID   uint       `json:"leader_id" gorm:"index"`
	FollowerID uint       `json:"follower_id" gorm:"index"`
	Type       FollowType `json:"type"`
	Priority   int        `json:"priority"`
	CyclesLeft int        `json:"cycles_left"`
	Permanent  bool       `json:"permanent"`
}

// NPCSpawner instantiates NPCs from a config template on a cadence.
type NPCSpawner struct {
	gorm.Model
	CampaignID           uint   `json:"campaign_id" gorm:"index"`
	PositionID           uint   `json:"position_id"`
	DimensionID          uint   `json:"dimension_id"`
	TemplateName         string `json:"template_name"`
	SpawnLimit           int    `json:"spawn_limit"`
	RespawnCycles        int    `json:"respawn_cycles"`
	NextSpawnCycleNumber int    `json:"next_spawn_cycle_number"`
	IsActive             bool   `json:"is_active"`
}

// DimensionAnomaly is an interactable singularity at a position. Unknown
// anomalies may be probed with the anomaly_interact action.
type DimensionAnomaly struct {
	gorm.Model
	CampaignID  uint            `json:"campaign_id" gorm:"index"`
	PositionID  uint            `json:"position_id" gorm:"index"`
	DimensionID uint            `json:"dimension_id"`
	Polarity    AnomalyPolarity `json:"polarity"`
	Known       bool            `json:"known"`
}

// Bargain is an open trade offer between two characters. Gift offers are
// pre-accepted by the initiator side.
type Bargain struct {
	gorm.Model
	CampaignID      uint          `json:"campaign_id" gorm:"index"`
	InitiatorID     uint          `json:"initiator_id"`
	TargetID        uint          `json:"target_id"`
	OfferedItemID   *uint         `json:"offered_item_id"`
	RequestedItemID *uint         `json:"requested_item_id"`
	IsGift          bool          `json:"is_gift"`
	Status          BargainStatus `json:"status"`
}
