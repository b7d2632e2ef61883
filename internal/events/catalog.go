package events

import "github.com/multiverse-rpg/world-engine/internal/game"

// Normative event names.
const (
	NameNewCycle            = "new_cycle"
	NameActionAccepted      = "action_accepted"
	NameActionNotAccepted   = "action_not_accepted"
	NameActionPerformed     = "action_performed"
	NameActionFailed        = "action_failed"
	NameCharacterChanged    = "character_changed"
	NameFightStarted        = "fight_started"
	NameFightEnded          = "fight_ended"
	NameCharacterJoinFight  = "character_join_fight"
	NameCharacterLeaveFight = "character_leave_fight"
	NamePlayerTurnInit      = "player_turn_init"
	NameTurnResult          = "turn_result"
	NameChallengeCreated    = "challenge_created"
	NameInspectResult       = "inspect_result"
)

// RegisterCatalog records every event type this process produces or
// consumes. Call once during startup before installing the publisher.
func RegisterCatalog() {
	Register(NameNewCycle, CategoryWorld, FlowProduced)
	Register(NameActionAccepted, CategoryPlayer, FlowProduced)
	Register(NameActionNotAccepted, CategoryPlayer, FlowProduced)
	Register(NameActionPerformed, CategoryGame, FlowProduced)
	Register(NameActionFailed, CategoryPlayer, FlowProduced)
	Register(NameCharacterChanged, CategoryPlayer, FlowProduced)
	Register(NameFightStarted, CategoryFight, FlowProduced)
	Register(NameFightEnded, CategoryFight, FlowProduced)
	Register(NameCharacterJoinFight, CategoryFight, FlowProduced)
	Register(NameCharacterLeaveFight, CategoryFight, FlowProduced)
	Register(NamePlayerTurnInit, CategoryFight, FlowProduced)
	Register(NameTurnResult, CategoryFight, FlowProduced)
	Register(NameChallengeCreated, CategoryPlayer, FlowProduced)
	Register(NameInspectResult, CategoryPlayer, FlowProduced)
}

// InspectResultEvent delivers the outcome of an inspect action to the
// inspecting player. Info is the stat-gated snapshot of the target.
type InspectResultEvent struct {
	Meta
	InspectorID uint        `json:"inspector_id"`
	OwnerUUID   string      `json:"-"`
	TargetID    uint        `json:"target_id"`
	Detailed    bool        `json:"detailed"`
	Info        interface{} `json:"info"`
}

func (InspectResultEvent) EventName() string { return NameInspectResult }
func (InspectResultEvent) EventCategory() Category { return CategoryPlayer }
func (e InspectResultEvent) Channels() []string {
	chs := []string{CharacterChannel(e.InspectorID)}
	if e.OwnerUUID != "" {
		chs = append(chs, PlayerActions(e.OwnerUUID))
	}
	return chs
}

// NewCycleEvent announces that a campaign advanced to a new cycle.
type NewCycleEvent struct {
	Meta
	CampaignID  uint `json:"campaign_id"`
	CycleID     uint `json:"cycle_id"`
	CycleNumber int  `json:"cycle_number"`
}

func (NewCycleEvent) EventName() string { return NameNewCycle }
func (NewCycleEvent) EventCategory() Category { return CategoryWorld }
func (NewCycleEvent) Channels() []string {
	return []string{ChannelWorldGlobal, ChannelWorldMaster}
}

// ActionAcceptedEvent confirms an action passed acceptance and its cost was
// charged.
type ActionAcceptedEvent struct {
	Meta
	ActionID    uint            `json:"action_id"`
	ActionType  game.ActionType `json:"action_type"`
	InitiatorID uint            `json:"initiator_id"`
	OwnerUUID   string          `json:"-"`
	Immediate   bool            `json:"immediate"`
}

func (ActionAcceptedEvent) EventName() string { return NameActionAccepted }
func (ActionAcceptedEvent) EventCategory() Category { return CategoryPlayer }
func (e ActionAcceptedEvent) Channels() []string {
	chs := []string{CharacterChannel(e.InitiatorID)}
	if e.OwnerUUID != "" {
		chs = append(chs, PlayerActions(e.OwnerUUID))
	}
	return chs
}

// ActionNotAcceptedEvent reports an acceptance failure back to the caller.
type ActionNotAcceptedEvent struct {
	Meta
	ActionType  game.ActionType `json:"action_type"`
	InitiatorID uint            `json:"initiator_id"`
	OwnerUUID   string          `json:"-"`
	Reason      string          `json:"reason"`
}

func (ActionNotAcceptedEvent) EventName() string { return NameActionNotAccepted }
func (ActionNotAcceptedEvent) EventCategory() Category { return CategoryPlayer }
func (e ActionNotAcceptedEvent) Channels() []string {
	chs := []string{CharacterChannel(e.InitiatorID)}
	if e.OwnerUUID != "" {
		chs = append(chs, PlayerActions(e.OwnerUUID))
	}
	return chs
}

// ActionPerformedEvent announces a completed action.
type ActionPerformedEvent struct {
	Meta
	ActionID    uint            `json:"action_id"`
	ActionType  game.ActionType `json:"action_type"`
	InitiatorID uint            `json:"initiator_id"`
	CycleID     uint            `json:"cycle_id"`
}

func (ActionPerformedEvent) EventName() string { return NameActionPerformed }
func (ActionPerformedEvent) EventCategory() Category { return CategoryGame }
func (e ActionPerformedEvent) Channels() []string {
	return []string{ChannelWorldGlobal, CharacterChannel(e.InitiatorID)}
}

// ActionFailedEvent reports a perform-time failure. The action stays
// accepted; its cost is not refunded.
type ActionFailedEvent struct {
	Meta
	ActionID    uint            `json:"action_id"`
	ActionType  game.ActionType `json:"action_type"`
	InitiatorID uint            `json:"initiator_id"`
	ErrorKind   string          `json:"error_kind"`
}

func (ActionFailedEvent) EventName() string { return NameActionFailed }
func (ActionFailedEvent) EventCategory() Category { return CategoryPlayer }
func (e ActionFailedEvent) Channels() []string {
	return []string{CharacterChannel(e.InitiatorID)}
}

// CharacterChangedEvent signals that a character's visible state mutated.
type CharacterChangedEvent struct {
	Meta
	CharacterID uint `json:"character_id"`
}

func (CharacterChangedEvent) EventName() string { return NameCharacterChanged }
func (CharacterChangedEvent) EventCategory() Category { return CategoryPlayer }
func (e CharacterChangedEvent) Channels() []string {
	return []string{CharacterChannel(e.CharacterID)}
}

// FightStartedEvent announces a new fight.
type FightStartedEvent struct {
	Meta
	FightID     uint `json:"fight_id"`
	InitiatorID uint `json:"initiator_id"`
	TargetID    uint `json:"target_id"`
}

func (FightStartedEvent) EventName() string { return NameFightStarted }
func (FightStartedEvent) EventCategory() Category { return CategoryFight }
func (e FightStartedEvent) Channels() []string {
	return []string{ChannelWorldGlobal, FightChannel(e.FightID)}
}

// FightEndedEvent announces the end of a fight and its winning side.
type FightEndedEvent struct {
	Meta
	FightID     uint   `json:"fight_id"`
	WinningSide string `json:"winning_side"`
}

func (FightEndedEvent) EventName() string { return NameFightEnded }
func (FightEndedEvent) EventCategory() Category { return CategoryFight }
func (e FightEndedEvent) Channels() []string {
	return []string{ChannelWorldGlobal, FightChannel(e.FightID)}
}

// CharacterJoinFightEvent announces a combatant joining a side.
type CharacterJoinFightEvent struct {
	Meta
	FightID     uint   `json:"fight_id"`
	CharacterID uint   `json:"character_id"`
	Side        string `json:"side"`
}

func (CharacterJoinFightEvent) EventName() string { return NameCharacterJoinFight }
func (CharacterJoinFightEvent) EventCategory() Category { return CategoryFight }
func (e CharacterJoinFightEvent) Channels() []string {
	return []string{FightChannel(e.FightID)}
}

// CharacterLeaveFightEvent announces a combatant leaving.
type CharacterLeaveFightEvent struct {
	Meta
	FightID     uint `json:"fight_id"`
	CharacterID uint `json:"character_id"`
}

func (CharacterLeaveFightEvent) EventName() string { return NameCharacterLeaveFight }
func (CharacterLeaveFightEvent) EventCategory() Category { return CategoryFight }
func (e CharacterLeaveFightEvent) Channels() []string {
	return []string{FightChannel(e.FightID)}
}

// PlayerTurnInitEvent tells one participant a new fight turn started and
// their action points were refilled.
type PlayerTurnInitEvent struct {
	Meta
	FightID      uint `json:"fight_id"`
	TurnID       uint `json:"turn_id"`
	TurnNumber   int  `json:"turn_number"`
	CharacterID  uint `json:"character_id"`
	ActionPoints int  `json:"action_points"`
}

func (PlayerTurnInitEvent) EventName() string { return NamePlayerTurnInit }
func (PlayerTurnInitEvent) EventCategory() Category { return CategoryFight }
func (e PlayerTurnInitEvent) Channels() []string {
	return []string{FightParticipantChannel(e.FightID, e.CharacterID)}
}

// TurnResultEvent carries one applied impact of a fight turn action.
type TurnResultEvent struct {
	Meta
	FightID     uint              `json:"fight_id"`
	TurnID      uint              `json:"turn_id"`
	ActionID    uint              `json:"action_id"`
	InitiatorID uint              `json:"initiator_id"`
	TargetID    uint              `json:"target_id"`
	Impact      game.ActionImpact `json:"impact"`
}

func (TurnResultEvent) EventName() string { return NameTurnResult }
func (TurnResultEvent) EventCategory() Category { return CategoryFight }
func (e TurnResultEvent) Channels() []string {
	return []string{FightChannel(e.FightID)}
}

// ChallengeCreatedEvent announces a new challenge on a character.
type ChallengeCreatedEvent struct {
	Meta
	CharacterID uint   `json:"character_id"`
	IssuedByID  uint   `json:"issued_by_id"`
	Description string `json:"description"`
}

func (ChallengeCreatedEvent) EventName() string { return NameChallengeCreated }
func (ChallengeCreatedEvent) EventCategory() Category { return CategoryPlayer }
func (e ChallengeCreatedEvent) Channels() []string {
	return []string{CharacterChannel(e.CharacterID)}
}
