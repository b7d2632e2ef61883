package storage

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/multiverse-rpg/world-engine/internal/game"
)

// OpenAndMigrate opens the sqlite database and keeps the schema updated via
// AutoMigrate. Dimension rows are seeded from the world config (the config
// file stays the source of truth for their factors).
func OpenAndMigrate(dataSourceName string, dims []game.Dimension) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&game.Campaign{}, &game.Cycle{}, &game.Dimension{},
		&game.Position{}, &game.PositionConnection{}, &game.Organization{},
		&game.Character{}, &game.LearnedSkill{}, &game.LearnedSchool{},
		&game.WorldItem{}, &game.ActiveEffect{}, &game.ActiveShield{},
		&game.Challenge{}, &game.Fight{}, &game.FightParticipant{},
		&game.FightTurn{}, &game.CharacterAction{}, &game.ActionTarget{},
		&game.ActionImpact{}, &game.Relation{}, &game.FollowRule{},
		&game.NPCSpawner{}, &game.DimensionAnomaly{}, &game.Bargain{},
	)
	if err != nil {
		return nil, err
	}

	repo := NewSQLiteRepository(db)
	if err := repo.SeedDimensions(dims); err != nil {
		return nil, err
	}
	return db, nil
}
