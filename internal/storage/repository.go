package storage

import (
	"time"

	"github.com/multiverse-rpg/world-engine/internal/game"
)

// Repository is the transactional store boundary for the engine. Write
// paths run inside Transaction with row-level locks on the primary
// aggregate; read paths never block writers.
type Repository interface {
	// Transaction runs fn against a repository bound to one transaction.
	// Returning an error rolls everything back.
	Transaction(fn func(Repository) error) error

	// Campaigns and cycles
	GetCampaignByID(id uint) (*game.Campaign, error)
	GetPublicCampaigns() ([]game.Campaign, error)
	UpdateCampaign(c *game.Campaign) error
	// ClaimAutoPlayCampaignIDs leases auto-play campaigns due for a cycle
	// so exactly one worker advances each.
	ClaimAutoPlayCampaignIDs(now time.Time, limit int, lease time.Duration, workerID string) ([]uint, error)
	GetCurrentCycle(campaignID uint) (*game.Cycle, error)
	GetCycleByID(id uint) (*game.Cycle, error)
	CreateCycle(c *game.Cycle) error
	UpdateCycle(c *game.Cycle) error

	// Characters
	GetCharacterByID(id uint) (*game.Character, error)
	// LockCharacterByID loads the row under a row-level exclusive lock.
	// Only meaningful inside Transaction.
	LockCharacterByID(id uint) (*game.Character, error)
	CreateCharacter(c *game.Character) error
	UpdateCharacter(c *game.Character) error
	GetCharactersAtPosition(positionID uint) ([]game.Character, error)
	GetCampaignCharacters(campaignID uint) ([]game.Character, error)
	// GetOccupiedPositionIDs lists positions holding at least one active
	// non-NPC character, sorted by id.
	GetOccupiedPositionIDs(campaignID uint) ([]uint, error)
	CountSpawnedCharacters(spawnerID uint) (int64, error)
	DeleteCharacterEffects(characterID uint) error
	DeleteExpiredEffects(campaignID uint, cycleNumber int) error
	CreateChallenge(ch *game.Challenge) error

	// Positions and dimensions
	GetPositionByID(id uint) (*game.Position, error)
	GetCampaignPositions(campaignID uint) ([]game.Position, error)
	GetConnection(fromID, toID uint) (*game.PositionConnection, error)
	// GetOriginPosition returns the world origin (grid 0,0,0) of a campaign.
	GetOriginPosition(campaignID uint) (*game.Position, error)
	GetDimensionByID(id uint) (*game.Dimension, error)
	SeedDimensions(dims []game.Dimension) error

	// Actions
	CreateAction(a *game.CharacterAction) error
	UpdateAction(a *game.CharacterAction) error
	GetActionByID(id uint) (*game.CharacterAction, error)
	// GetPendingImmediateActions lists accepted, unperformed immediate
	// actions of a cycle in submission order.
	GetPendingImmediateActions(cycleID uint) ([]game.CharacterAction, error)
	// GetPendingDeferredActions lists accepted, unperformed deferred
	// actions of a cycle that belong to no fight turn, in submission order.
	GetPendingDeferredActions(cycleID uint) ([]game.CharacterAction, error)
	// GetTurnActions lists accepted, unperformed actions of a fight turn.
	GetTurnActions(turnID uint) ([]game.CharacterAction, error)

	// Organizations
	GetOrCreateOrganization(campaignID uint, name string) (*game.Organization, error)

	// Relations
	GetRelation(campaignID uint, scope game.RelationScope, fromID, toID uint) (*game.Relation, error)
	UpsertRelation(r *game.Relation) error

	// Fights
	CreateFight(f *game.Fight) error
	UpdateFight(f *game.Fight) error
	GetFightByID(id uint) (*game.Fight, error)
	ClaimActiveFightIDs(now time.Time, limit int, lease time.Duration, workerID string) ([]uint, error)
	CreateFightTurn(t *game.FightTurn) error
	UpdateFightTurn(t *game.FightTurn) error
	GetFightTurnByID(id uint) (*game.FightTurn, error)

	// Follow rules, spawners, anomalies
	GetFollowRules(campaignID uint) ([]game.FollowRule, error)
	UpdateFollowRule(r *game.FollowRule) error
	DeleteFollowRule(id uint) error
	GetDueSpawners(campaignID uint, cycleNumber int) ([]game.NPCSpawner, error)
	UpdateSpawner(s *game.NPCSpawner) error
	GetAnomalyByID(id uint) (*game.DimensionAnomaly, error)
	UpdateAnomaly(a *game.DimensionAnomaly) error

	// Items and bargains
	GetItemByID(id uint) (*game.WorldItem, error)
	CreateItem(i *game.WorldItem) error
	UpdateItem(i *game.WorldItem) error
	CreateBargain(b *game.Bargain) error
	GetBargainByID(id uint) (*game.Bargain, error)
	UpdateBargain(b *game.Bargain) error
}
