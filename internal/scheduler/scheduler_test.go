package scheduler

import (
	"math/rand"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/multiverse-rpg/world-engine/internal/actions"
	"github.com/multiverse-rpg/world-engine/internal/behavior"
	"github.com/multiverse-rpg/world-engine/internal/events"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/relation"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

type mockRepo struct {
	storage.Repository
	campaigns   map[uint]*game.Campaign
	cycles      map[uint]*game.Cycle
	characters  map[uint]*game.Character
	dimensions  map[uint]*game.Dimension
	positions   map[uint]*game.Position
	connections map[[2]uint]*game.PositionConnection
	spawners    map[uint]*game.NPCSpawner
	rules       map[uint]*game.FollowRule
	actions     map[uint]*game.CharacterAction

	nextCycleID     uint
	nextCharacterID uint
	nextActionID    uint

	created      []*game.Character
	deletedRules []uint
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		campaigns:   map[uint]*game.Campaign{},
		cycles:      map[uint]*game.Cycle{},
		characters:  map[uint]*game.Character{},
		dimensions:  map[uint]*game.Dimension{1: {Model: gorm.Model{ID: 1}, Name: "prime", SpeedFactor: 1}},
		positions:   map[uint]*game.Position{},
		connections: map[[2]uint]*game.PositionConnection{},
		spawners:    map[uint]*game.NPCSpawner{},
		rules:       map[uint]*game.FollowRule{},
		actions:     map[uint]*game.CharacterAction{},
	}
}

func (m *mockRepo) Transaction(fn func(storage.Repository) error) error { return fn(m) }

func (m *mockRepo) GetCampaignByID(id uint) (*game.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *mockRepo) UpdateCampaign(c *game.Campaign) error { return nil }

func (m *mockRepo) GetCycleByID(id uint) (*game.Cycle, error) {
	c, ok := m.cycles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *mockRepo) CreateCycle(c *game.Cycle) error {
	m.nextCycleID++
	c.ID = m.nextCycleID
	m.cycles[c.ID] = c
	return nil
}

func (m *mockRepo) UpdateCycle(c *game.Cycle) error {
	m.cycles[c.ID] = c
	return nil
}

func (m *mockRepo) DeleteExpiredEffects(campaignID uint, cycleNumber int) error { return nil }

func (m *mockRepo) GetOccupiedPositionIDs(campaignID uint) ([]uint, error) { return nil, nil }

func (m *mockRepo) CreateAction(a *game.CharacterAction) error {
	m.nextActionID++
	a.ID = m.nextActionID
	m.actions[a.ID] = a
	return nil
}

func (m *mockRepo) UpdateAction(a *game.CharacterAction) error {
	m.actions[a.ID] = a
	return nil
}

func (m *mockRepo) GetPendingImmediateActions(cycleID uint) ([]game.CharacterAction, error) {
	return m.pendingActions(cycleID, true), nil
}

func (m *mockRepo) GetPendingDeferredActions(cycleID uint) ([]game.CharacterAction, error) {
	return m.pendingActions(cycleID, false), nil
}

func (m *mockRepo) pendingActions(cycleID uint, immediate bool) []game.CharacterAction {
	var out []game.CharacterAction
	for _, a := range m.actions {
		if a.CycleID == cycleID && a.Immediate == immediate && a.FightTurnID == nil &&
			a.Accepted && !a.Performed && !a.Failed {
			out = append(out, *a)
		}
	}
	return out
}

func (m *mockRepo) LockCharacterByID(id uint) (*game.Character, error) {
	c, ok := m.characters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *mockRepo) GetCharacterByID(id uint) (*game.Character, error) {
	return m.LockCharacterByID(id)
}

func (m *mockRepo) CreateCharacter(c *game.Character) error {
	m.nextCharacterID++
	c.ID = m.nextCharacterID
	m.characters[c.ID] = c
	m.created = append(m.created, c)
	return nil
}

func (m *mockRepo) UpdateCharacter(c *game.Character) error { return nil }

func (m *mockRepo) CountSpawnedCharacters(spawnerID uint) (int64, error) {
	var n int64
	for _, c := range m.characters {
		if c.SpawnerID != nil && *c.SpawnerID == spawnerID {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) GetDimensionByID(id uint) (*game.Dimension, error) {
	d, ok := m.dimensions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (m *mockRepo) GetPositionByID(id uint) (*game.Position, error) {
	p, ok := m.positions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (m *mockRepo) GetCharactersAtPosition(positionID uint) ([]game.Character, error) {
	var out []game.Character
	for _, c := range m.characters {
		if c.PositionID != nil && *c.PositionID == positionID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockRepo) GetConnection(fromID, toID uint) (*game.PositionConnection, error) {
	if c, ok := m.connections[[2]uint{fromID, toID}]; ok {
		return c, nil
	}
	return nil, nil
}

func (m *mockRepo) GetDueSpawners(campaignID uint, cycleNumber int) ([]game.NPCSpawner, error) {
	var out []game.NPCSpawner
	for _, sp := range m.spawners {
		if sp.CampaignID == campaignID && sp.IsActive && sp.NextSpawnCycleNumber <= cycleNumber {
			out = append(out, *sp)
		}
	}
	return out, nil
}

func (m *mockRepo) UpdateSpawner(s *game.NPCSpawner) error {
	m.spawners[s.ID] = s
	return nil
}

func (m *mockRepo) GetOrCreateOrganization(campaignID uint, name string) (*game.Organization, error) {
	return &game.Organization{Model: gorm.Model{ID: 55}, CampaignID: campaignID, Name: name}, nil
}

func (m *mockRepo) GetFollowRules(campaignID uint) ([]game.FollowRule, error) {
	var out []game.FollowRule
	for _, r := range m.rules {
		if r.CampaignID == campaignID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRepo) UpdateFollowRule(r *game.FollowRule) error {
	m.rules[r.ID] = r
	return nil
}

func (m *mockRepo) DeleteFollowRule(id uint) error {
	delete(m.rules, id)
	m.deletedRules = append(m.deletedRules, id)
	return nil
}

type recordingPublisher struct {
	names []string
}

func (p *recordingPublisher) Send(ev events.Event, channel string) error {
	p.names = append(p.names, ev.EventName())
	return nil
}

func (p *recordingPublisher) Broadcast(ev events.Event, channels []string) error {
	p.names = append(p.names, ev.EventName())
	return nil
}

func uintPtr(v uint) *uint { return &v }

func newTestService(repo *mockRepo, templates map[string]game.CharacterTemplate) (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	bus := events.NewBus()
	bus.SetPublisher(pub)
	bhv := behavior.NewService(relation.NewService(repo), nil)
	return NewService(repo, nil, bhv, templates, bus, "w1", time.Minute), pub
}

// newEngineService wires a real action engine so submitted actions flow
// through the cycle pipeline.
func newEngineService(repo *mockRepo) (*Service, *actions.Engine, *recordingPublisher) {
	pub := &recordingPublisher{}
	bus := events.NewBus()
	bus.SetPublisher(pub)
	rel := relation.NewService(repo)
	eng := actions.NewEngine(repo, rel, nil, bus, rand.New(rand.NewSource(1)), nil)
	bhv := behavior.NewService(rel, nil)
	return NewService(repo, eng, bhv, nil, bus, "w1", time.Minute), eng, pub
}

func campaignWorld() *mockRepo {
	repo := newMockRepo()
	repo.campaigns[1] = &game.Campaign{Model: gorm.Model{ID: 1}, Name: "world", Active: true}
	return repo
}

func TestPlayCycle_BootstrapsAndAdvances(t *testing.T) {
	repo := campaignWorld()
	svc, pub := newTestService(repo, nil)

	next, err := svc.PlayCycle(1)
	if err != nil {
		t.Fatalf("play cycle failed: %v", err)
	}
	// a never-run campaign bootstraps cycle 1, plays it and opens cycle 2
	if next.Number != 2 {
		t.Fatalf("next cycle number: got %d, want 2", next.Number)
	}
	campaign := repo.campaigns[1]
	if campaign.CurrentCycleID == nil || *campaign.CurrentCycleID != next.ID {
		t.Fatalf("campaign should point at the new cycle, got %v", campaign.CurrentCycleID)
	}
	var finished int
	for _, c := range repo.cycles {
		if c.Finished {
			finished++
		}
	}
	if finished != 1 {
		t.Fatalf("exactly one cycle should be finished, got %d", finished)
	}
	found := false
	for _, n := range pub.names {
		if n == "new_cycle" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing new_cycle event, saw %v", pub.names)
	}
}

func TestPlayCycle_RejectsInactiveCampaign(t *testing.T) {
	repo := campaignWorld()
	repo.campaigns[1].Active = false
	svc, _ := newTestService(repo, nil)
	if _, err := svc.PlayCycle(1); err == nil {
		t.Fatal("expected rejection of inactive campaign")
	}
}

func TestPlayCycle_PerformsDeferredActions(t *testing.T) {
	repo := campaignWorld()
	cycle := &game.Cycle{CampaignID: 1, Number: 1}
	if err := repo.CreateCycle(cycle); err != nil {
		t.Fatalf("create cycle: %v", err)
	}
	repo.campaigns[1].CurrentCycleID = uintPtr(cycle.ID)
	repo.positions[1] = &game.Position{Model: gorm.Model{ID: 1}, CampaignID: 1, DimensionID: 1}
	repo.positions[2] = &game.Position{Model: gorm.Model{ID: 2}, CampaignID: 1, DimensionID: 1}
	repo.connections[[2]uint{1, 2}] = &game.PositionConnection{CampaignID: 1, FromID: 1, ToID: 2, Active: true, Public: true}
	walker := &game.Character{
		Model: gorm.Model{ID: 1}, CampaignID: 1, Active: true,
		DimensionID: 1, PositionID: uintPtr(1),
		CurrentHealth: 10, CurrentActionPoints: 5,
	}
	walker.Base = game.DefaultStats()
	repo.characters[1] = walker

	svc, eng, pub := newEngineService(repo)
	act := &game.CharacterAction{
		CycleID:     cycle.ID,
		InitiatorID: 1,
		Type:        game.ActionMove,
		PositionID:  uintPtr(2),
	}
	if err := eng.Submit(act); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if act.Immediate {
		t.Fatal("move should be deferred")
	}

	next, err := svc.PlayCycle(1)
	if err != nil {
		t.Fatalf("play cycle failed: %v", err)
	}
	if next.Number != 2 {
		t.Fatalf("next cycle number: got %d, want 2", next.Number)
	}
	if walker.PositionID == nil || *walker.PositionID != 2 {
		t.Fatalf("deferred move not performed, position %v", walker.PositionID)
	}
	if walker.CurrentActionPoints != 0 {
		t.Fatalf("move must drain action points, got %d", walker.CurrentActionPoints)
	}
	stored := repo.actions[act.ID]
	if stored == nil || !stored.Performed || stored.Failed {
		t.Fatalf("action not closed by the cycle: %+v", stored)
	}
	found := false
	for _, n := range pub.names {
		if n == "action_performed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing action_performed event, saw %v", pub.names)
	}
}

func TestRunSpawners_RespawnCadence(t *testing.T) {
	repo := campaignWorld()
	repo.spawners[7] = &game.NPCSpawner{
		Model:                gorm.Model{ID: 7},
		CampaignID:           1,
		PositionID:           1,
		DimensionID:          1,
		TemplateName:         "guard",
		SpawnLimit:           2,
		RespawnCycles:        3,
		NextSpawnCycleNumber: 1,
		IsActive:             true,
	}
	templates := map[string]game.CharacterTemplate{
		"guard": {Name: "guard", Behavior: game.BehaviorAggressive, Grade: 1, Skills: nil},
	}
	svc, _ := newTestService(repo, templates)

	spawnsPerCycle := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		if _, err := svc.PlayCycle(1); err != nil {
			t.Fatalf("cycle %d failed: %v", i+1, err)
		}
		spawnsPerCycle = append(spawnsPerCycle, len(repo.created))
	}

	// due at cycle 1, then again 3 cycles later
	want := []int{1, 1, 1, 2, 2}
	for i, got := range spawnsPerCycle {
		if got != want[i] {
			t.Fatalf("cumulative spawns after cycle %d: got %d, want %d", i+1, got, want[i])
		}
	}
	if repo.spawners[7].NextSpawnCycleNumber != 7 {
		t.Fatalf("next spawn cycle: got %d, want 7", repo.spawners[7].NextSpawnCycleNumber)
	}

	npc := repo.created[0]
	if !npc.NPC || !npc.Active || npc.Behavior != game.BehaviorAggressive || npc.Grade != 1 {
		t.Fatalf("unexpected npc: %+v", npc)
	}
	if npc.SpawnerID == nil || *npc.SpawnerID != 7 {
		t.Fatalf("npc not bound to its spawner: %v", npc.SpawnerID)
	}
	// template without stats falls back to defaults and spawns at full
	// attributes: 50 + grade 10 + strength 20
	if npc.CurrentHealth != 80 {
		t.Fatalf("npc should spawn at full health, got %d", npc.CurrentHealth)
	}
}

func TestRunSpawners_RespectsSpawnLimit(t *testing.T) {
	repo := campaignWorld()
	repo.spawners[7] = &game.NPCSpawner{
		Model:                gorm.Model{ID: 7},
		CampaignID:           1,
		PositionID:           1,
		DimensionID:          1,
		TemplateName:         "guard",
		SpawnLimit:           1,
		RespawnCycles:        1,
		NextSpawnCycleNumber: 1,
		IsActive:             true,
	}
	templates := map[string]game.CharacterTemplate{"guard": {Name: "guard"}}
	svc, _ := newTestService(repo, templates)

	for i := 0; i < 3; i++ {
		if _, err := svc.PlayCycle(1); err != nil {
			t.Fatalf("cycle failed: %v", err)
		}
	}
	if len(repo.created) != 1 {
		t.Fatalf("spawn limit ignored: created %d", len(repo.created))
	}
}

func TestFollowRule_WalkCountsDown(t *testing.T) {
	repo := campaignWorld()
	leader := &game.Character{Model: gorm.Model{ID: 1}, CampaignID: 1, Active: true, DimensionID: 1, PositionID: uintPtr(2), CurrentHealth: 10}
	follower := &game.Character{Model: gorm.Model{ID: 2}, CampaignID: 1, Active: true, DimensionID: 1, PositionID: uintPtr(1), CurrentHealth: 10}
	repo.characters[1] = leader
	repo.characters[2] = follower
	repo.connections[[2]uint{1, 2}] = &game.PositionConnection{CampaignID: 1, FromID: 1, ToID: 2, Active: true, Public: true}
	repo.rules[3] = &game.FollowRule{Model: gorm.Model{ID: 3}, CampaignID: 1, LeaderID: 1, FollowerID: 2, Type: game.FollowWalk, CyclesLeft: 2}

	svc, _ := newTestService(repo, nil)
	if _, err := svc.PlayCycle(1); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	if follower.PositionID == nil || *follower.PositionID != 2 {
		t.Fatalf("follower should walk to the leader, at %v", follower.PositionID)
	}
	if repo.rules[3] == nil || repo.rules[3].CyclesLeft != 1 {
		t.Fatalf("rule countdown wrong: %+v", repo.rules[3])
	}

	if _, err := svc.PlayCycle(1); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if repo.rules[3] != nil {
		t.Fatalf("rule should expire after its countdown: %+v", repo.rules[3])
	}
}

func TestFollowRule_WalkFailsWithoutPath(t *testing.T) {
	repo := campaignWorld()
	repo.characters[1] = &game.Character{Model: gorm.Model{ID: 1}, CampaignID: 1, Active: true, DimensionID: 1, PositionID: uintPtr(2), CurrentHealth: 10}
	repo.characters[2] = &game.Character{Model: gorm.Model{ID: 2}, CampaignID: 1, Active: true, DimensionID: 1, PositionID: uintPtr(1), CurrentHealth: 10}
	repo.rules[3] = &game.FollowRule{Model: gorm.Model{ID: 3}, CampaignID: 1, LeaderID: 1, FollowerID: 2, Type: game.FollowWalk, CyclesLeft: 5}

	svc, _ := newTestService(repo, nil)
	if _, err := svc.PlayCycle(1); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	if *repo.characters[2].PositionID != 1 {
		t.Fatal("follower must not move without a path")
	}
	if repo.rules[3] != nil {
		t.Fatal("a failing walk rule should be dropped")
	}
}

func TestFollowRule_TeleportIgnoresConnections(t *testing.T) {
	repo := campaignWorld()
	repo.characters[1] = &game.Character{Model: gorm.Model{ID: 1}, CampaignID: 1, Active: true, DimensionID: 1, PositionID: uintPtr(2), CurrentHealth: 10}
	repo.characters[2] = &game.Character{Model: gorm.Model{ID: 2}, CampaignID: 1, Active: true, DimensionID: 1, PositionID: uintPtr(1), CurrentHealth: 10}
	repo.rules[3] = &game.FollowRule{Model: gorm.Model{ID: 3}, CampaignID: 1, LeaderID: 1, FollowerID: 2, Type: game.FollowTeleport, Permanent: true}

	svc, _ := newTestService(repo, nil)
	if _, err := svc.PlayCycle(1); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	if *repo.characters[2].PositionID != 2 {
		t.Fatal("teleport follow should move without a connection")
	}
	if repo.rules[3] == nil || repo.rules[3].Permanent != true {
		t.Fatalf("permanent rule must survive: %+v", repo.rules[3])
	}
}

func TestFollowRule_DropsKnockedOutFollower(t *testing.T) {
	repo := campaignWorld()
	repo.characters[1] = &game.Character{Model: gorm.Model{ID: 1}, CampaignID: 1, Active: true, DimensionID: 1, PositionID: uintPtr(2), CurrentHealth: 10}
	repo.characters[2] = &game.Character{Model: gorm.Model{ID: 2}, CampaignID: 1, Active: true, DimensionID: 1, PositionID: uintPtr(1), CurrentHealth: 0}
	repo.rules[3] = &game.FollowRule{Model: gorm.Model{ID: 3}, CampaignID: 1, LeaderID: 1, FollowerID: 2, Type: game.FollowTeleport, CyclesLeft: 5}

	svc, _ := newTestService(repo, nil)
	if _, err := svc.PlayCycle(1); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	if repo.rules[3] != nil {
		t.Fatal("a knocked out follower ends the rule")
	}
	if len(repo.deletedRules) != 1 || repo.deletedRules[0] != 3 {
		t.Fatalf("rule not deleted: %v", repo.deletedRules)
	}
}
