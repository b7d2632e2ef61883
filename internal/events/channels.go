package events

import "fmt"

// Channel naming scheme. Per-channel ordering is FIFO within one publisher
// call chain; there is no cross-channel guarantee.
const (
	ChannelWorldGlobal = "world::global"
	ChannelWorldMaster = "world::master"
)

// CharacterChannel is the private stream of one character.
func CharacterChannel(characterID uint) string {
	return fmt.Sprintf("character::%d", characterID)
}

// PlayerActions streams action results back to the submitting client.
func PlayerActions(playerUUID string) string {
	return fmt.Sprintf("player_actions::%s", playerUUID)
}

// FightChannel carries everything both sides of a fight may see.
func FightChannel(fightID uint) string {
	return fmt.Sprintf("fight::%d", fightID)
}

// FightParticipantChannel targets one combatant.
func FightParticipantChannel(fightID, characterID uint) string {
	return fmt.Sprintf("fight::%d::participant::%d", fightID, characterID)
}
