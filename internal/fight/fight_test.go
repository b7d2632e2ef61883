package fight

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/multiverse-rpg/world-engine/internal/events"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

type mockRepo struct {
	storage.Repository
	characters map[uint]*game.Character
	dimensions map[uint]*game.Dimension
	fights     map[uint]*game.Fight
	turns      map[uint]*game.FightTurn
	turnActs   map[uint][]game.CharacterAction

	nextFightID uint
	nextTurnID  uint

	updatedActions []game.CharacterAction
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		characters: map[uint]*game.Character{},
		dimensions: map[uint]*game.Dimension{1: {Model: gorm.Model{ID: 1}, Name: "prime", SpeedFactor: 1}},
		fights:     map[uint]*game.Fight{},
		turns:      map[uint]*game.FightTurn{},
		turnActs:   map[uint][]game.CharacterAction{},
	}
}

func (m *mockRepo) Transaction(fn func(storage.Repository) error) error { return fn(m) }

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

func (m *mockRepo) UpdateCharacter(c *game.Character) error { return nil }

func (m *mockRepo) GetDimensionByID(id uint) (*game.Dimension, error) {
	d, ok := m.dimensions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (m *mockRepo) CreateFight(f *game.Fight) error {
	m.nextFightID++
	f.ID = m.nextFightID
	m.fights[f.ID] = f
	return nil
}

func (m *mockRepo) UpdateFight(f *game.Fight) error {
	m.fights[f.ID] = f
	return nil
}

func (m *mockRepo) GetFightByID(id uint) (*game.Fight, error) {
	f, ok := m.fights[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f, nil
}

func (m *mockRepo) CreateFightTurn(t *game.FightTurn) error {
	m.nextTurnID++
	t.ID = m.nextTurnID
	t.CreatedAt = time.Now()
	m.turns[t.ID] = t
	return nil
}

func (m *mockRepo) UpdateFightTurn(t *game.FightTurn) error {
	m.turns[t.ID] = t
	return nil
}

func (m *mockRepo) GetFightTurnByID(id uint) (*game.FightTurn, error) {
	t, ok := m.turns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (m *mockRepo) GetTurnActions(turnID uint) ([]game.CharacterAction, error) {
	return m.turnActs[turnID], nil
}

func (m *mockRepo) UpdateAction(a *game.CharacterAction) error {
	m.updatedActions = append(m.updatedActions, *a)
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

func (p *recordingPublisher) count(name string) int {
	n := 0
	for _, v := range p.names {
		if v == name {
			n++
		}
	}
	return n
}

func uintPtr(v uint) *uint { return &v }

func fighter(id uint, speed, health int) *game.Character {
	c := &game.Character{
		Model:               gorm.Model{ID: id},
		CampaignID:          1,
		Active:              true,
		DimensionID:         1,
		CurrentHealth:       health,
		CurrentActionPoints: 3,
	}
	c.Base = game.DefaultStats()
	c.Base.Speed = speed
	return c
}

func newTestService(repo *mockRepo, skills map[string]game.Skill) (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	bus := events.NewBus()
	bus.SetPublisher(pub)
	return NewService(repo, nil, skills, bus, 30*time.Second, "w1"), pub
}

func TestStart_OpensFightWithFirstTurn(t *testing.T) {
	repo := newMockRepo()
	repo.characters[1] = fighter(1, 20, 50)
	repo.characters[2] = fighter(2, 10, 50)
	svc, pub := newTestService(repo, nil)

	fight, err := svc.Start(1, 2)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !fight.IsOpen || fight.IsEnded {
		t.Fatalf("fight should be open: %+v", fight)
	}
	if fight.CurrentTurnID == nil {
		t.Fatal("fight has no current turn")
	}
	if turn := repo.turns[*fight.CurrentTurnID]; turn.Number != 1 {
		t.Fatalf("first turn number: got %d, want 1", turn.Number)
	}
	if len(fight.Participants) != 2 ||
		fight.Participants[0].Side != game.SideA ||
		fight.Participants[1].Side != game.SideB {
		t.Fatalf("unexpected participants: %+v", fight.Participants)
	}
	for id := uint(1); id <= 2; id++ {
		if repo.characters[id].FightID == nil || *repo.characters[id].FightID != fight.ID {
			t.Fatalf("character %d not bound to fight", id)
		}
	}
	if pub.count("fight_started") != 1 || pub.count("character_join_fight") != 2 {
		t.Fatalf("unexpected events: %v", pub.names)
	}
}

func TestStart_RejectsBusyCharacter(t *testing.T) {
	repo := newMockRepo()
	repo.characters[1] = fighter(1, 20, 50)
	busy := fighter(2, 10, 50)
	busy.FightID = uintPtr(7)
	repo.characters[2] = busy
	svc, _ := newTestService(repo, nil)

	if _, err := svc.Start(1, 2); err != ErrAlreadyFighting {
		t.Fatalf("expected ErrAlreadyFighting, got %v", err)
	}
}

func TestJoin_ValidatesSideAndState(t *testing.T) {
	repo := newMockRepo()
	repo.characters[1] = fighter(1, 20, 50)
	repo.characters[2] = fighter(2, 10, 50)
	repo.characters[3] = fighter(3, 10, 50)
	svc, _ := newTestService(repo, nil)

	fight, err := svc.Start(1, 2)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := svc.Join(fight.ID, 3, "c"); err != ErrUnknownSide {
		t.Fatalf("expected ErrUnknownSide, got %v", err)
	}
	if err := svc.Join(fight.ID, 3, game.SideB); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if len(fight.Participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(fight.Participants))
	}
	if repo.characters[3].FightID == nil {
		t.Fatal("joiner not bound to fight")
	}

	fight.IsEnded = true
	repo.characters[3].FightID = nil
	if err := svc.Join(fight.ID, 3, game.SideA); err != ErrFightClosed {
		t.Fatalf("expected ErrFightClosed, got %v", err)
	}
}

func TestOrderTurnActions_SpeedOverCost(t *testing.T) {
	repo := newMockRepo()
	repo.characters[1] = fighter(1, 20, 50) // fast
	repo.characters[2] = fighter(2, 10, 50) // slow
	skills := map[string]game.Skill{
		"heavy": {Name: "heavy", CostActionPoints: 5},
	}
	svc, _ := newTestService(repo, skills)

	repo.turnActs[40] = []game.CharacterAction{
		{Model: gorm.Model{ID: 100}, InitiatorID: 2, Type: game.ActionUseSkill, SkillName: "heavy", Accepted: true},
		{Model: gorm.Model{ID: 101}, InitiatorID: 1, Type: game.ActionUseSkill, SkillName: "heavy", Accepted: true},
		{Model: gorm.Model{ID: 102}, InitiatorID: 1, Type: game.ActionDimensionShift, Accepted: true},
	}

	acts, err := svc.orderTurnActions(40)
	if err != nil {
		t.Fatalf("ordering failed: %v", err)
	}
	if len(acts) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(acts))
	}
	// 5 ap x 100 / speed: fast initiator 25.0, slow 50.0, shift pinned last
	if acts[0].ID != 101 || acts[0].Order != 25.0 {
		t.Fatalf("first action: id=%d order=%v", acts[0].ID, acts[0].Order)
	}
	if acts[1].ID != 100 || acts[1].Order != 50.0 {
		t.Fatalf("second action: id=%d order=%v", acts[1].ID, acts[1].Order)
	}
	if acts[2].ID != 102 || acts[2].Order != dimensionShiftOrder {
		t.Fatalf("dimension shift not pinned last: id=%d order=%v", acts[2].ID, acts[2].Order)
	}
	if len(repo.updatedActions) != 3 {
		t.Fatalf("orders must be persisted, updated %d", len(repo.updatedActions))
	}
}

func TestOrderTurnActions_ClockAccumulatesPerInitiator(t *testing.T) {
	repo := newMockRepo()
	repo.characters[1] = fighter(1, 20, 50)
	skills := map[string]game.Skill{
		"jab": {Name: "jab", CostActionPoints: 1},
	}
	svc, _ := newTestService(repo, skills)

	repo.turnActs[41] = []game.CharacterAction{
		{Model: gorm.Model{ID: 200}, InitiatorID: 1, Type: game.ActionUseSkill, SkillName: "jab", Accepted: true},
		{Model: gorm.Model{ID: 201}, InitiatorID: 1, Type: game.ActionUseSkill, SkillName: "jab", Accepted: true},
	}

	acts, err := svc.orderTurnActions(41)
	if err != nil {
		t.Fatalf("ordering failed: %v", err)
	}
	if acts[0].Order != 5.0 || acts[1].Order != 10.0 {
		t.Fatalf("clock should accumulate: %v then %v", acts[0].Order, acts[1].Order)
	}
}

func TestProcess_SkipsYoungTurn(t *testing.T) {
	repo := newMockRepo()
	repo.characters[1] = fighter(1, 20, 50)
	repo.characters[2] = fighter(2, 10, 50)
	svc, pub := newTestService(repo, nil)

	fight, err := svc.Start(1, 2)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := svc.Process(fight.ID, time.Now()); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if repo.turns[*fight.CurrentTurnID].IsFinished {
		t.Fatal("a turn younger than the turn duration must not play")
	}
	if pub.count("player_turn_init") != 0 {
		t.Fatalf("no turn should have advanced: %v", pub.names)
	}
}

func TestProcess_AdvancesToNextTurn(t *testing.T) {
	repo := newMockRepo()
	repo.characters[1] = fighter(1, 20, 50)
	repo.characters[2] = fighter(2, 10, 50)
	svc, pub := newTestService(repo, nil)

	fight, err := svc.Start(1, 2)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	firstTurnID := *fight.CurrentTurnID
	repo.characters[1].CurrentActionPoints = 0
	repo.characters[2].CurrentActionPoints = 0

	due := time.Now().Add(31 * time.Second)
	if err := svc.Process(fight.ID, due); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if !repo.turns[firstTurnID].IsFinished {
		t.Fatal("elapsed turn should finish")
	}
	if *fight.CurrentTurnID == firstTurnID {
		t.Fatal("fight should advance to a new turn")
	}
	if repo.turns[*fight.CurrentTurnID].Number != 2 {
		t.Fatalf("next turn number: got %d, want 2", repo.turns[*fight.CurrentTurnID].Number)
	}
	// default speed 20 and 10 in a factor-1 dimension: 10 and 5 AP
	if repo.characters[1].CurrentActionPoints != 10 || repo.characters[2].CurrentActionPoints != 5 {
		t.Fatalf("action points not refilled: %d and %d",
			repo.characters[1].CurrentActionPoints, repo.characters[2].CurrentActionPoints)
	}
	if pub.count("player_turn_init") != 2 {
		t.Fatalf("expected turn init per standing fighter: %v", pub.names)
	}
}

func TestProcess_EndsFightWhenSideFalls(t *testing.T) {
	repo := newMockRepo()
	repo.characters[1] = fighter(1, 20, 50)
	repo.characters[2] = fighter(2, 10, 50)
	svc, pub := newTestService(repo, nil)

	fight, err := svc.Start(1, 2)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	repo.characters[2].CurrentHealth = 0

	due := time.Now().Add(31 * time.Second)
	if err := svc.Process(fight.ID, due); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if !fight.IsEnded || fight.IsOpen {
		t.Fatalf("fight should end when a side falls: %+v", fight)
	}
	for id := uint(1); id <= 2; id++ {
		if repo.characters[id].FightID != nil {
			t.Fatalf("character %d still bound to the ended fight", id)
		}
	}
	if pub.count("fight_ended") != 1 || pub.count("character_leave_fight") != 2 {
		t.Fatalf("unexpected events: %v", pub.names)
	}
	// the knocked out side must not get a refill
	if repo.characters[2].CurrentActionPoints != 3 {
		t.Fatalf("loser action points changed to %d", repo.characters[2].CurrentActionPoints)
	}
}
