package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/factionrealms/factionbot/factionbot/database/repositories"
	"github.com/factionrealms/factionbot/factionbot/economy"
)

type fakeCharacterRepo struct {
	nextID     int64
	characters map[int64]*models.Character
	records    map[snowflake.ID]*models.FactionRecord
	switches   map[snowflake.ID]int
}

func newFakeCharacterRepo() *fakeCharacterRepo {
	return &fakeCharacterRepo{
		nextID:     1,
		characters: make(map[int64]*models.Character),
		records:    make(map[snowflake.ID]*models.FactionRecord),
		switches:   make(map[snowflake.ID]int),
	}
}

func (f *fakeCharacterRepo) CreateWithLedger(_ context.Context, ch *models.Character, rec *models.FactionRecord, _ *models.FactionResources) error {
	ch.ID = f.nextID
	f.nextID++
	now := time.Now()
	rec.History = []models.FactionEvent{{
		Faction:     ch.BirthFaction,
		Timestamp:   now,
		Reason:      "character_creation",
		CharacterID: ch.ID,
	}}
	f.characters[ch.ID] = ch
	f.records[ch.PlayerID] = rec
	return nil
}

func (f *fakeCharacterRepo) GetByID(_ context.Context, id int64) (*models.Character, error) {
	ch, ok := f.characters[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "character", ID: id}
	}
	return ch, nil
}

func (f *fakeCharacterRepo) GetActiveByPlayer(_ context.Context, playerID snowflake.ID) (*models.Character, error) {
	for _, ch := range f.characters {
		if ch.PlayerID == playerID && ch.Active && ch.Alive {
			return ch, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "character", ID: int64(playerID)}
}

func (f *fakeCharacterRepo) GetAllByPlayer(_ context.Context, playerID snowflake.ID) ([]*models.Character, error) {
	var out []*models.Character
	for id := int64(1); id < f.nextID; id++ {
		if ch, ok := f.characters[id]; ok && ch.PlayerID == playerID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeCharacterRepo) GetAllLiving(_ context.Context) ([]*models.Character, error) {
	var out []*models.Character
	for _, ch := range f.characters {
		if ch.Active && ch.Alive {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeCharacterRepo) SwitchActive(_ context.Context, rec *models.FactionRecord, from, to *models.Character) error {
	f.characters[from.ID].Active = false
	f.characters[to.ID].Active = true
	f.records[rec.PlayerID] = rec
	f.switches[rec.PlayerID]++
	return nil
}

func (f *fakeCharacterRepo) AgeAllLiving(_ context.Context) (int64, error) {
	var aged int64
	for _, ch := range f.characters {
		if ch.Alive {
			ch.Age++
			ch.LifeStage = models.LifeStageForAge(ch.Age)
			aged++
		}
	}
	return aged, nil
}

func (f *fakeCharacterRepo) GetFactionRecord(_ context.Context, playerID snowflake.ID) (*models.FactionRecord, error) {
	rec, ok := f.records[playerID]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "faction record", ID: int64(playerID)}
	}
	return rec, nil
}

func (f *fakeCharacterRepo) GetSwitchCount(_ context.Context, playerID snowflake.ID) (int, error) {
	return f.switches[playerID], nil
}

type fakeResourceRepo struct {
	mu       sync.Mutex
	balances map[snowflake.ID]map[string]int64
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{balances: make(map[snowflake.ID]map[string]int64)}
}

func (f *fakeResourceRepo) GetOrCreate(_ context.Context, playerID snowflake.ID) (*models.FactionResources, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.balances[playerID]; !ok {
		f.balances[playerID] = make(map[string]int64)
	}
	return &models.FactionResources{
		PlayerID: playerID,
		Food:     f.balances[playerID][models.ResourceFood],
		Currency: f.balances[playerID][models.ResourceCurrency],
	}, nil
}

func (f *fakeResourceRepo) Add(_ context.Context, playerID snowflake.ID, deltas map[string]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.balances[playerID]; !ok {
		f.balances[playerID] = make(map[string]int64)
	}
	for k, v := range deltas {
		f.balances[playerID][k] += v
	}
	return nil
}

func (f *fakeResourceRepo) DeductForDay(_ context.Context, _ snowflake.ID, _ int64, _ models.Faction, costs map[string]int64, _ time.Time) (*repositories.DeductionResult, error) {
	return &repositories.DeductionResult{Deducted: true, Costs: costs}, nil
}

func (f *fakeResourceRepo) CountConsumptionLogs(_ context.Context, _ int64) (int, error) {
	return 0, nil
}

type fakeAchievementRepo struct {
	defs    []*models.AchievementDefinition
	awarded map[snowflake.ID]map[string]time.Time
}

func newFakeAchievementRepo(defs ...*models.AchievementDefinition) *fakeAchievementRepo {
	return &fakeAchievementRepo{
		defs:    defs,
		awarded: make(map[snowflake.ID]map[string]time.Time),
	}
}

func (f *fakeAchievementRepo) GetDefinitions(_ context.Context) ([]*models.AchievementDefinition, error) {
	return f.defs, nil
}

func (f *fakeAchievementRepo) GetByPlayer(_ context.Context, playerID snowflake.ID) ([]*models.PlayerAchievement, error) {
	var out []*models.PlayerAchievement
	for id, at := range f.awarded[playerID] {
		out = append(out, &models.PlayerAchievement{PlayerID: playerID, AchievementID: id, EarnedAt: at})
	}
	return out, nil
}

func (f *fakeAchievementRepo) Award(_ context.Context, playerID snowflake.ID, achievementID string) (bool, error) {
	if _, ok := f.awarded[playerID]; !ok {
		f.awarded[playerID] = make(map[string]time.Time)
	}
	if _, ok := f.awarded[playerID][achievementID]; ok {
		return false, nil
	}
	f.awarded[playerID][achievementID] = time.Now()
	return true, nil
}

func newTestService() (*Service, *fakeCharacterRepo, *fakeResourceRepo, *fakeAchievementRepo) {
	characters := newFakeCharacterRepo()
	resources := newFakeResourceRepo()
	achievements := newFakeAchievementRepo()
	engine := economy.NewEngine(characters, resources)
	return NewService(characters, resources, achievements, engine), characters, resources, achievements
}

func TestCreateCharacter(t *testing.T) {
	svc, _, _, _ := newTestService()
	playerID := snowflake.ID(42)

	profile, err := svc.CreateCharacter(context.Background(), playerID, "Aria", models.FactionHuman)
	if err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}
	if profile.CharacterID == 0 {
		t.Error("expected a character ID to be assigned")
	}
	if profile.Faction != models.FactionHuman {
		t.Errorf("faction = %v, want human", profile.Faction)
	}
	if profile.Purity != 1.0 {
		t.Errorf("purity = %v, want 1.0", profile.Purity)
	}

	current, err := svc.GetCurrentCharacter(context.Background(), playerID)
	if err != nil {
		t.Fatalf("GetCurrentCharacter() error = %v", err)
	}
	if current == nil || current.Name != "Aria" {
		t.Errorf("current character = %+v, want Aria", current)
	}
	if current.LifeStage != models.LifeStageBaby {
		t.Errorf("new character life stage = %v, want baby", current.LifeStage)
	}
}

func TestCreateCharacterRejectsUnknownFaction(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateCharacter(context.Background(), snowflake.ID(42), "Aria", "demon")
	if !repositories.IsInvalidArgument(err) {
		t.Errorf("error = %v, want InvalidArgumentError", err)
	}
}

func TestCreateCharacterWhileOneIsActive(t *testing.T) {
	svc, _, _, _ := newTestService()
	playerID := snowflake.ID(42)
	ctx := context.Background()

	if _, err := svc.CreateCharacter(ctx, playerID, "Aria", models.FactionHuman); err != nil {
		t.Fatalf("first CreateCharacter() error = %v", err)
	}

	_, err := svc.CreateCharacter(ctx, playerID, "Unit-7", models.FactionAI)
	if !repositories.IsInvalidState(err) {
		t.Errorf("second CreateCharacter() error = %v, want InvalidStateError", err)
	}
}

func TestGetCurrentCharacterNone(t *testing.T) {
	svc, _, _, _ := newTestService()

	current, err := svc.GetCurrentCharacter(context.Background(), snowflake.ID(99))
	if err != nil {
		t.Fatalf("GetCurrentCharacter() error = %v", err)
	}
	if current != nil {
		t.Errorf("current = %+v, want nil", current)
	}
}

func TestSwitchToCharacter(t *testing.T) {
	svc, characters, _, _ := newTestService()
	playerID := snowflake.ID(42)
	ctx := context.Background()

	first, err := svc.CreateCharacter(ctx, playerID, "Aria", models.FactionHuman)
	if err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}

	// Seed a second, inactive character directly.
	second := &models.Character{
		ID:             100,
		PlayerID:       playerID,
		Name:           "Unit-7",
		BirthFaction:   models.FactionAI,
		CurrentFaction: models.FactionAI,
		Alive:          true,
	}
	characters.characters[second.ID] = second

	switched, err := svc.SwitchToCharacter(ctx, playerID, second.ID)
	if err != nil {
		t.Fatalf("SwitchToCharacter() error = %v", err)
	}
	if !switched.Active {
		t.Error("target should be active after switch")
	}
	if characters.characters[first.CharacterID].Active {
		t.Error("previous character should be inactive after switch")
	}

	rec := characters.records[playerID]
	if rec.CurrentFaction != models.FactionAI {
		t.Errorf("record faction = %v, want ai", rec.CurrentFaction)
	}
	last := rec.History[len(rec.History)-1]
	if last.Reason != "character_switch" {
		t.Errorf("last history reason = %q, want character_switch", last.Reason)
	}
	if last.PreviousCharacterID == nil || *last.PreviousCharacterID != first.CharacterID {
		t.Errorf("last history previous = %v, want %d", last.PreviousCharacterID, first.CharacterID)
	}
}

func TestSwitchToCharacterErrors(t *testing.T) {
	svc, characters, _, _ := newTestService()
	playerID := snowflake.ID(42)
	ctx := context.Background()

	profile, err := svc.CreateCharacter(ctx, playerID, "Aria", models.FactionHuman)
	if err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}

	characters.characters[200] = &models.Character{
		ID: 200, PlayerID: snowflake.ID(7), Alive: true,
		CurrentFaction: models.FactionNature,
	}
	characters.characters[201] = &models.Character{
		ID: 201, PlayerID: playerID, Alive: false,
		CurrentFaction: models.FactionNature,
	}

	tests := []struct {
		name     string
		targetID int64
		check    func(error) bool
		errName  string
	}{
		{name: "unknown character", targetID: 999, check: repositories.IsNotFound, errName: "NotFoundError"},
		{name: "someone else's character", targetID: 200, check: repositories.IsNotFound, errName: "NotFoundError"},
		{name: "dead character", targetID: 201, check: repositories.IsNotFound, errName: "NotFoundError"},
		{name: "already active", targetID: profile.CharacterID, check: repositories.IsInvalidState, errName: "InvalidStateError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SwitchToCharacter(ctx, playerID, tt.targetID)
			if !tt.check(err) {
				t.Errorf("error = %v, want %s", err, tt.errName)
			}
		})
	}
}

func TestAddFactionResourcesFiltersUnknownKeys(t *testing.T) {
	svc, _, resources, _ := newTestService()
	playerID := snowflake.ID(42)
	ctx := context.Background()

	err := svc.AddFactionResources(ctx, playerID, map[string]int64{
		models.ResourceFood: 25,
		"gold":              999,
	})
	if err != nil {
		t.Fatalf("AddFactionResources() error = %v", err)
	}

	if got := resources.balances[playerID][models.ResourceFood]; got != 25 {
		t.Errorf("food = %d, want 25", got)
	}
	if got := resources.balances[playerID]["gold"]; got != 0 {
		t.Errorf("unknown key leaked into balances: gold = %d", got)
	}

	// All-unknown payloads never touch the repository.
	if err := svc.AddFactionResources(ctx, snowflake.ID(77), map[string]int64{"gold": 1}); err != nil {
		t.Fatalf("AddFactionResources(all unknown) error = %v", err)
	}
	if _, ok := resources.balances[snowflake.ID(77)]; ok {
		t.Error("all-unknown payload should not create a balance row")
	}
}

func TestAgeCharacters(t *testing.T) {
	svc, characters, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateCharacter(ctx, snowflake.ID(1), "Aria", models.FactionHuman); err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}
	characters.characters[50] = &models.Character{
		ID: 50, PlayerID: snowflake.ID(2), Age: 11, Alive: true,
		LifeStage:      models.LifeStageChild,
		CurrentFaction: models.FactionNature,
	}
	characters.characters[51] = &models.Character{
		ID: 51, PlayerID: snowflake.ID(3), Age: 30, Alive: false,
		LifeStage:      models.LifeStageAdult,
		CurrentFaction: models.FactionAI,
	}

	aged, err := svc.AgeCharacters(ctx)
	if err != nil {
		t.Fatalf("AgeCharacters() error = %v", err)
	}
	if aged != 2 {
		t.Errorf("aged = %d, want 2", aged)
	}
	if got := characters.characters[50]; got.Age != 12 || got.LifeStage != models.LifeStageTeen {
		t.Errorf("character 50 = age %d stage %v, want 12/teen", got.Age, got.LifeStage)
	}
	if got := characters.characters[51]; got.Age != 30 {
		t.Errorf("dead character aged: %d, want 30", got.Age)
	}
}
