package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/multiverse-rpg/world-engine/internal/game"
)

type sqliteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository wraps a gorm handle into the Repository interface.
func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&sqliteRepository{db: tx})
	})
}

// --- Campaigns and cycles ----------------------------------------------

func (r *sqliteRepository) GetCampaignByID(id uint) (*game.Campaign, error) {
	var c game.Campaign
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) GetPublicCampaigns() ([]game.Campaign, error) {
	var cs []game.Campaign
	if err := r.db.Where("active = ? AND completed = ?", true, false).Order("id").Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *sqliteRepository) UpdateCampaign(c *game.Campaign) error {
	return r.db.Save(c).Error
}

func (r *sqliteRepository) ClaimAutoPlayCampaignIDs(now time.Time, limit int, lease time.Duration, workerID string) ([]uint, error) {
	var ids []uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		nowUnix := now.Unix()
		if err := tx.Model(&game.Campaign{}).
			Where("auto_play = ? AND active = ? AND completed = ?", true, true, false).
			Where("claimed_until IS NULL OR claimed_until < ?", nowUnix).
			Order("id").Limit(limit).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		until := now.Add(lease).Unix()
		return tx.Model(&game.Campaign{}).Where("id IN ?", ids).
			Updates(map[string]interface{}{"claimed_until": until, "claimed_by": workerID}).Error
	})
	return ids, err
}

func (r *sqliteRepository) GetCurrentCycle(campaignID uint) (*game.Cycle, error) {
	var c game.Cycle
	err := r.db.Where("campaign_id = ? AND finished = ?", campaignID, false).
		Order("number DESC").First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) GetCycleByID(id uint) (*game.Cycle, error) {
	var c game.Cycle
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) CreateCycle(c *game.Cycle) error { return r.db.Create(c).Error }
func (r *sqliteRepository) UpdateCycle(c *game.Cycle) error { return r.db.Save(c).Error }

// --- Characters ---------------------------------------------------------

func characterPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("LearnedSkills").
		Preload("LearnedSchools").
		Preload("Items").
		Preload("Effects").
		Preload("Shields").
		Preload("Challenge")
}

func (r *sqliteRepository) GetCharacterByID(id uint) (*game.Character, error) {
	var c game.Character
	if err := characterPreloads(r.db).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) LockCharacterByID(id uint) (*game.Character, error) {
	var c game.Character
	err := characterPreloads(r.db.Clauses(clause.Locking{Strength: "UPDATE"})).First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) CreateCharacter(c *game.Character) error { return r.db.Create(c).Error }

func (r *sqliteRepository) UpdateCharacter(c *game.Character) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(c).Error
}

func (r *sqliteRepository) GetCharactersAtPosition(positionID uint) ([]game.Character, error) {
	var cs []game.Character
	err := characterPreloads(r.db).
		Where("position_id = ? AND active = ?", positionID, true).
		Order("id").Find(&cs).Error
	if err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *sqliteRepository) GetOccupiedPositionIDs(campaignID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&game.Character{}).
		Where("campaign_id = ? AND active = ? AND npc = ? AND position_id IS NOT NULL", campaignID, true, false).
		Distinct().Order("position_id").
		Pluck("position_id", &ids).Error
	return ids, err
}

func (r *sqliteRepository) CountSpawnedCharacters(spawnerID uint) (int64, error) {
	var n int64
	err := r.db.Model(&game.Character{}).Where("spawner_id = ?", spawnerID).Count(&n).Error
	return n, err
}

func (r *sqliteRepository) DeleteCharacterEffects(characterID uint) error {
	return r.db.Where("character_id = ?", characterID).Delete(&game.ActiveEffect{}).Error
}

func (r *sqliteRepository) DeleteExpiredEffects(campaignID uint, cycleNumber int) error {
	return r.db.
		Where("expires_at_cycle < ? AND character_id IN (?)", cycleNumber,
			r.db.Model(&game.Character{}).Select("id").Where("campaign_id = ?", campaignID)).
		Delete(&game.ActiveEffect{}).Error
}

func (r *sqliteRepository) CreateChallenge(ch *game.Challenge) error { return r.db.Create(ch).Error }

func (r *sqliteRepository) GetCampaignCharacters(campaignID uint) ([]game.Character, error) {
	var cs []game.Character
	err := characterPreloads(r.db).
		Where("campaign_id = ?", campaignID).
		Order("id").Find(&cs).Error
	if err != nil {
		return nil, err
	}
	return cs, nil
}

// --- Positions and dimensions -------------------------------------------

func (r *sqliteRepository) GetCampaignPositions(campaignID uint) ([]game.Position, error) {
	var ps []game.Position
	err := r.db.Where("campaign_id = ?", campaignID).Order("id").Find(&ps).Error
	return ps, err
}

func (r *sqliteRepository) GetPositionByID(id uint) (*game.Position, error) {
	var p game.Position
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *sqliteRepository) GetConnection(fromID, toID uint) (*game.PositionConnection, error) {
	var c game.PositionConnection
	err := r.db.
		Where("(from_id = ? AND to_id = ?) OR (bidirectional = ? AND from_id = ? AND to_id = ?)",
			fromID, toID, true, toID, fromID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) GetOriginPosition(campaignID uint) (*game.Position, error) {
	var p game.Position
	err := r.db.
		Where("campaign_id = ? AND grid_x = 0 AND grid_y = 0 AND grid_z = 0", campaignID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *sqliteRepository) GetDimensionByID(id uint) (*game.Dimension, error) {
	var d game.Dimension
	if err := r.db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *sqliteRepository) SeedDimensions(dims []game.Dimension) error {
	for _, d := range dims {
		var existing game.Dimension
		err := r.db.Where("name = ?", d.Name).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := r.db.Create(&d).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			// Config is source of truth for the multipliers.
			existing.Level = d.Level
			existing.SpeedFactor = d.SpeedFactor
			existing.EnergyFactor = d.EnergyFactor
			existing.ShiftCost = d.ShiftCost
			if err := r.db.Save(&existing).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// --- Actions ------------------------------------------------------------

func (r *sqliteRepository) CreateAction(a *game.CharacterAction) error { return r.db.Create(a).Error }

func (r *sqliteRepository) UpdateAction(a *game.CharacterAction) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(a).Error
}

func (r *sqliteRepository) GetActionByID(id uint) (*game.CharacterAction, error) {
	var a game.CharacterAction
	err := r.db.Preload("Targets").Preload("Impacts").First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *sqliteRepository) GetPendingImmediateActions(cycleID uint) ([]game.CharacterAction, error) {
	var as []game.CharacterAction
	err := r.db.Preload("Targets").
		Where("cycle_id = ? AND immediate = ? AND accepted = ? AND performed = ? AND failed = ?",
			cycleID, true, true, false, false).
		Order("id").Find(&as).Error
	return as, err
}

func (r *sqliteRepository) GetPendingDeferredActions(cycleID uint) ([]game.CharacterAction, error) {
	var as []game.CharacterAction
	err := r.db.Preload("Targets").
		Where("cycle_id = ? AND immediate = ? AND fight_turn_id IS NULL AND accepted = ? AND performed = ? AND failed = ?",
			cycleID, false, true, false, false).
		Order("id").Find(&as).Error
	return as, err
}

func (r *sqliteRepository) GetTurnActions(turnID uint) ([]game.CharacterAction, error) {
	var as []game.CharacterAction
	err := r.db.Preload("Targets").
		Where("fight_turn_id = ? AND accepted = ? AND performed = ? AND failed = ?",
			turnID, true, false, false).
		Order("id").Find(&as).Error
	return as, err
}

// --- Relations ----------------------------------------------------------

func (r *sqliteRepository) GetRelation(campaignID uint, scope game.RelationScope, fromID, toID uint) (*game.Relation, error) {
	var rel game.Relation
	err := r.db.
		Where("campaign_id = ? AND scope = ? AND from_id = ? AND to_id = ?", campaignID, scope, fromID, toID).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *sqliteRepository) UpsertRelation(rel *game.Relation) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "from_id"}, {Name: "to_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(rel).Error
}

// --- Fights -------------------------------------------------------------

func (r *sqliteRepository) CreateFight(f *game.Fight) error { return r.db.Create(f).Error }

func (r *sqliteRepository) UpdateFight(f *game.Fight) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(f).Error
}

func (r *sqliteRepository) GetFightByID(id uint) (*game.Fight, error) {
	var f game.Fight
	if err := r.db.Preload("Participants").First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *sqliteRepository) ClaimActiveFightIDs(now time.Time, limit int, lease time.Duration, workerID string) ([]uint, error) {
	var ids []uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		nowUnix := now.Unix()
		if err := tx.Model(&game.Fight{}).
			Where("is_ended = ?", false).
			Where("claimed_until IS NULL OR claimed_until < ?", nowUnix).
			Order("id").Limit(limit).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		until := now.Add(lease).Unix()
		return tx.Model(&game.Fight{}).Where("id IN ?", ids).
			Updates(map[string]interface{}{"claimed_until": until, "claimed_by": workerID}).Error
	})
	return ids, err
}

func (r *sqliteRepository) CreateFightTurn(t *game.FightTurn) error { return r.db.Create(t).Error }
func (r *sqliteRepository) UpdateFightTurn(t *game.FightTurn) error { return r.db.Save(t).Error }

func (r *sqliteRepository) GetFightTurnByID(id uint) (*game.FightTurn, error) {
	var t game.FightTurn
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Follow rules, spawners, anomalies ----------------------------------

func (r *sqliteRepository) GetFollowRules(campaignID uint) ([]game.FollowRule, error) {
	var rules []game.FollowRule
	err := r.db.Where("campaign_id = ?", campaignID).
		Order("priority DESC, id").Find(&rules).Error
	return rules, err
}

func (r *sqliteRepository) UpdateFollowRule(rule *game.FollowRule) error {
	return r.db.Save(rule).Error
}

func (r *sqliteRepository) DeleteFollowRule(id uint) error {
	return r.db.Delete(&game.FollowRule{}, id).Error
}

func (r *sqliteRepository) GetDueSpawners(campaignID uint, cycleNumber int) ([]game.NPCSpawner, error) {
	var ss []game.NPCSpawner
	err := r.db.
		Where("campaign_id = ? AND is_active = ? AND next_spawn_cycle_number <= ?", campaignID, true, cycleNumber).
		Order("id").Find(&ss).Error
	return ss, err
}

func (r *sqliteRepository) UpdateSpawner(s *game.NPCSpawner) error { return r.db.Save(s).Error }

func (r *sqliteRepository) GetAnomalyByID(id uint) (*game.DimensionAnomaly, error) {
	var a game.DimensionAnomaly
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *sqliteRepository) UpdateAnomaly(a *game.DimensionAnomaly) error { return r.db.Save(a).Error }

// --- Organizations -------------------------------------------------------

func (r *sqliteRepository) GetOrCreateOrganization(campaignID uint, name string) (*game.Organization, error) {
	var org game.Organization
	err := r.db.Where(game.Organization{CampaignID: campaignID, Name: name}).
		FirstOrCreate(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// --- Items and bargains --------------------------------------------------

func (r *sqliteRepository) GetItemByID(id uint) (*game.WorldItem, error) {
	var i game.WorldItem
	if err := r.db.First(&i, id).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *sqliteRepository) CreateItem(i *game.WorldItem) error { return r.db.Create(i).Error }
func (r *sqliteRepository) UpdateItem(i *game.WorldItem) error { return r.db.Save(i).Error }

func (r *sqliteRepository) CreateBargain(b *game.Bargain) error { return r.db.Create(b).Error }

func (r *sqliteRepository) GetBargainByID(id uint) (*game.Bargain, error) {
	var b game.Bargain
	if err := r.db.First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *sqliteRepository) UpdateBargain(b *game.Bargain) error { return r.db.Save(b).Error }
