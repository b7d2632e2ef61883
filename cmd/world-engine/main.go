package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/multiverse-rpg/world-engine/internal/actions"
	"github.com/multiverse-rpg/world-engine/internal/api"
	"github.com/multiverse-rpg/world-engine/internal/behavior"
	"github.com/multiverse-rpg/world-engine/internal/config"
	"github.com/multiverse-rpg/world-engine/internal/constants"
	"github.com/multiverse-rpg/world-engine/internal/events"
	"github.com/multiverse-rpg/world-engine/internal/fight"
	"github.com/multiverse-rpg/world-engine/internal/logging"
	"github.com/multiverse-rpg/world-engine/internal/pubsub"
	"github.com/multiverse-rpg/world-engine/internal/relation"
	"github.com/multiverse-rpg/world-engine/internal/scheduler"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

// fightScanInterval is how often active fights are checked for a due turn.
const fightScanInterval = 1 * time.Second

// claimBatchSize bounds how many campaigns or fights one scan picks up.
const claimBatchSize = 32

func main() {
	// World configuration file (required). Path may be provided via
	// WORLD_CONFIG env var or defaults to ./world_config.json in the
	// current working directory.
	configPath := os.Getenv(constants.EnvWorldConfig)
	if configPath == "" {
		configPath = "./world_config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Fatal("Missing or invalid world configuration", err, logging.Fields{
			"config_path": configPath,
			"hint":        "create a world_config.json with 'skill_list' and 'dimension_list' arrays and optional keys: npc_template_list, server.address, campaign_auto_cycle_interval_seconds, fight_turn_duration_seconds, master_uuid_list",
		})
	}

	// Allow the DB path to be configured via WORLD_DB. Default to a
	// `data/` directory for local development.
	dbPath := os.Getenv(constants.EnvWorldDB)
	if dbPath == "" {
		dbPath = "./data/world.db"
	}
	db, err := storage.OpenAndMigrate(dbPath, cfg.Dimensions)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	repo := storage.NewSQLiteRepository(db)

	events.RegisterCatalog()
	hub := pubsub.NewHub()
	events.SetPublisher(hub)

	workerID := workerID()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	rel := relation.NewService(repo)
	engine := actions.NewEngine(repo, rel, cfg.Skills, events.Default, rng, func(uuid string) bool {
		return cfg.MasterUUIDs[uuid]
	})
	bhv := behavior.NewService(rel, cfg.Skills)

	autoInterval := time.Duration(cfg.CampaignAutoCycleIntervalSeconds) * time.Second
	turnDuration := time.Duration(cfg.FightTurnDurationSeconds) * time.Second

	sched := scheduler.NewService(repo, engine, bhv, cfg.Templates, events.Default, workerID, autoInterval)
	fights := fight.NewService(repo, engine, cfg.Skills, events.Default, turnDuration, workerID)

	// Background scanner: advance auto-play campaigns whose interval
	// elapsed. Claims keep one worker per campaign.
	go func() {
		ticker := time.NewTicker(autoInterval)
		defer ticker.Stop()
		for range ticker.C {
			sched.RunDueCampaigns(time.Now(), claimBatchSize)
		}
	}()

	// Background scanner: play due fight turns once per second.
	go func() {
		ticker := time.NewTicker(fightScanInterval)
		defer ticker.Stop()
		for range ticker.C {
			fights.ProcessDueFights(time.Now(), claimBatchSize)
		}
	}()

	router := api.New(repo, engine, sched, fights, hub).Router()

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
