package game

// BehaviorType drives autonomous NPC action selection.
type BehaviorType string

const (
	BehaviorPassive    BehaviorType = "passive"
	BehaviorFriendly   BehaviorType = "friendly"
	BehaviorAggressive BehaviorType = "aggressive"
)

// RelationState is the directed pairwise disposition between two characters
// or two organizations. Aggressive is sticky: it can only be cleared by an
// explicit reset, never by become-friendly.
type RelationState string

const (
	RelationFriendly   RelationState = "friendly"
	RelationNeutral    RelationState = "neutral"
	RelationAggressive RelationState = "aggressive"
)

// RelationScope selects the character-level or organization-level graph.
type RelationScope string

const (
	ScopeCharacter    RelationScope = "character"
	ScopeOrganization RelationScope = "organization"
)

// ActionType enumerates every action kind the engine accepts.
type ActionType string

const (
	ActionMove            ActionType = "move"
	ActionUseSkill        ActionType = "use_skill"
	ActionUseItem         ActionType = "use_item"
	ActionSnatch          ActionType = "snatch"
	ActionBargain         ActionType = "bargain"
	ActionGift            ActionType = "gift"
	ActionInspect         ActionType = "inspect"
	ActionLongRest        ActionType = "long_rest"
	ActionBackToSafe      ActionType = "back_to_safe"
	ActionAnomalyInteract ActionType = "anomaly_interact"
	ActionGodIntervention ActionType = "god_intervention"
	ActionDiceRoll        ActionType = "dice_roll"
	ActionDimensionShift  ActionType = "dimension_shift"
)

// ImpactType classifies a single numeric mutation applied to a target.
type ImpactType string

const (
	ImpactDamage ImpactType = "damage"
	ImpactHeal   ImpactType = "heal"
	ImpactNone   ImpactType = "none"
)

// ViolationType is the damage family of an impact; shields absorb only
// impacts of a matching violation.
type ViolationType string

const (
	ViolationPhysical ViolationType = "physical"
	ViolationMental   ViolationType = "mental"
	ViolationEnergy   ViolationType = "energy"
	ViolationHeat     ViolationType = "heat"
	ViolationCold     ViolationType = "cold"
	ViolationLight    ViolationType = "light"
	ViolationDarkness ViolationType = "darkness"
	ViolationNone     ViolationType = "none"
)

// ResourceKind names a spendable current attribute of a character.
type ResourceKind string

const (
	ResourceHealth       ResourceKind = "health"
	ResourceEnergy       ResourceKind = "energy"
	ResourceActionPoints ResourceKind = "action_points"
)

// DiceOutcome is the qualitative class of a multiplier roll.
type DiceOutcome string

const (
	OutcomeCritFail    DiceOutcome = "crit_fail"
	OutcomeFail        DiceOutcome = "fail"
	OutcomeNeutral     DiceOutcome = "neutral"
	OutcomeSuccess     DiceOutcome = "success"
	OutcomeCritSuccess DiceOutcome = "crit_success"
)

// FollowType selects how a follow rule moves the follower each cycle.
type FollowType string

const (
	FollowWalk     FollowType = "walk"
	FollowTeleport FollowType = "teleport"
)

// AnomalyPolarity tells whether interacting with a dimension anomaly harms
// or restores the character.
type AnomalyPolarity string

const (
	PolarityPositive AnomalyPolarity = "positive"
	PolarityNegative AnomalyPolarity = "negative"
)

// SkillKind is a coarse classification used by NPC action selection.
type SkillKind string

const (
	SkillAttack SkillKind = "attack"
	SkillHeal   SkillKind = "heal"
	SkillBuff   SkillKind = "buff"
	SkillShield SkillKind = "shield"
)

// TargetSide restricts which side of a position context a skill may target.
type TargetSide string

const (
	TargetEnemy  TargetSide = "enemy"
	TargetFriend TargetSide = "friend"
	TargetAny    TargetSide = "any"
	TargetSelf   TargetSide = "self"
)

// BargainStatus is the lifecycle state of an open trade offer.
type BargainStatus string

const (
	BargainOpen     BargainStatus = "open"
	BargainAccepted BargainStatus = "accepted"
	BargainDeclined BargainStatus = "declined"
)
