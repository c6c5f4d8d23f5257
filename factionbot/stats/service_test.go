package stats

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/factionrealms/factionbot/factionbot/database/repositories"
)

type fakeStatsRepo struct {
	stats map[snowflake.ID]*models.PlayerStats
	saves int
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[snowflake.ID]*models.PlayerStats)}
}

func (f *fakeStatsRepo) GetOrCreate(_ context.Context, playerID snowflake.ID) (*models.PlayerStats, error) {
	if ps, ok := f.stats[playerID]; ok {
		return ps, nil
	}
	ps := &models.PlayerStats{
		PlayerID:      playerID,
		Games:         make(map[string]models.GameStats),
		ActivityLog:   make(map[string]int64),
		ActivityLevel: ActivityCasual,
	}
	f.stats[playerID] = ps
	return ps, nil
}

func (f *fakeStatsRepo) Save(_ context.Context, stats *models.PlayerStats) error {
	f.stats[stats.PlayerID] = stats
	f.saves++
	return nil
}

func (f *fakeStatsRepo) all() []*models.PlayerStats {
	out := make([]*models.PlayerStats, 0, len(f.stats))
	for _, ps := range f.stats {
		out = append(out, ps)
	}
	return out
}

func (f *fakeStatsRepo) TopByVariety(_ context.Context, limit int) ([]*models.PlayerStats, error) {
	out := f.all()
	sort.Slice(out, func(i, j int) bool { return out[i].VarietyScore > out[j].VarietyScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStatsRepo) TopByHardcoreRecency(_ context.Context, limit int) ([]*models.PlayerStats, error) {
	var out []*models.PlayerStats
	for _, ps := range f.all() {
		if ps.ActivityLevel == ActivityHardcore {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CalculatedAt.After(out[j].CalculatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStatsRepo) TopByTotalGames(_ context.Context, limit int) ([]*models.PlayerStats, error) {
	out := f.all()
	sort.Slice(out, func(i, j int) bool { return out[i].TotalGames > out[j].TotalGames })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestRecordGame(t *testing.T) {
	repo := newFakeStatsRepo()
	svc := NewService(repo)
	playerID := snowflake.ID(42)
	ctx := context.Background()

	ps, err := svc.RecordGame(ctx, playerID, "trivia", 80)
	if err != nil {
		t.Fatalf("RecordGame() error = %v", err)
	}
	game := ps.Games["trivia"]
	if game.Plays != 1 || game.TotalScore != 80 || game.BestScore != 80 {
		t.Errorf("game = %+v, want plays 1 total 80 best 80", game)
	}
	if ps.TotalGames != 1 {
		t.Errorf("total games = %d, want 1", ps.TotalGames)
	}
	// One game type, one play: perfect variety.
	if ps.VarietyScore != 1.0 {
		t.Errorf("variety score = %v, want 1.0", ps.VarietyScore)
	}

	// A lower score keeps the best, still accumulates the total.
	ps, err = svc.RecordGame(ctx, playerID, "trivia", 50)
	if err != nil {
		t.Fatalf("RecordGame() error = %v", err)
	}
	game = ps.Games["trivia"]
	if game.Plays != 2 || game.TotalScore != 130 || game.BestScore != 80 {
		t.Errorf("game after second play = %+v, want plays 2 total 130 best 80", game)
	}
	if ps.VarietyScore != 0.5 {
		t.Errorf("variety score = %v, want 0.5", ps.VarietyScore)
	}

	today := time.Now().UTC().Format("2006-01-02")
	if got := ps.ActivityLog[today]; got != 2 {
		t.Errorf("activity log today = %d, want 2", got)
	}
}

func TestRecordActivity(t *testing.T) {
	repo := newFakeStatsRepo()
	svc := NewService(repo)
	playerID := snowflake.ID(42)
	ctx := context.Background()

	kinds := []ActivityKind{ActivitySocial, ActivitySocial, ActivityFaction, ActivityResource, ActivityCare}
	var ps *models.PlayerStats
	var err error
	for _, kind := range kinds {
		if ps, err = svc.RecordActivity(ctx, playerID, kind); err != nil {
			t.Fatalf("RecordActivity(%s) error = %v", kind, err)
		}
	}

	if ps.SocialCount != 2 || ps.FactionCount != 1 || ps.ResourceCount != 1 || ps.CareCount != 1 {
		t.Errorf("counters = social %d faction %d resource %d care %d, want 2/1/1/1",
			ps.SocialCount, ps.FactionCount, ps.ResourceCount, ps.CareCount)
	}

	if _, err := svc.RecordActivity(ctx, playerID, "napping"); !repositories.IsInvalidArgument(err) {
		t.Errorf("unknown kind error = %v, want InvalidArgumentError", err)
	}
}

func TestActivityLogTrimsOldDays(t *testing.T) {
	repo := newFakeStatsRepo()
	svc := NewService(repo)
	playerID := snowflake.ID(42)
	ctx := context.Background()

	ps, _ := repo.GetOrCreate(ctx, playerID)
	old := time.Now().UTC().AddDate(0, 0, -10).Format("2006-01-02")
	recent := time.Now().UTC().AddDate(0, 0, -3).Format("2006-01-02")
	ps.ActivityLog[old] = 50
	ps.ActivityLog[recent] = 5

	ps, err := svc.RecordActivity(ctx, playerID, ActivitySocial)
	if err != nil {
		t.Fatalf("RecordActivity() error = %v", err)
	}
	if _, ok := ps.ActivityLog[old]; ok {
		t.Error("entry outside the window should be trimmed")
	}
	if got := ps.ActivityLog[recent]; got != 5 {
		t.Errorf("recent entry = %d, want 5", got)
	}
}

func TestCapRewards(t *testing.T) {
	repo := newFakeStatsRepo()
	svc := NewService(repo)
	playerID := snowflake.ID(42)
	ctx := context.Background()

	ps, _ := repo.GetOrCreate(ctx, playerID)
	ps.Games["trivia"] = models.GameStats{Plays: 3}
	ps.Games["duel"] = models.GameStats{Plays: 1}

	capped, cap, err := svc.CapRewards(ctx, playerID, map[string]int64{models.ResourceCurrency: 100})
	if err != nil {
		t.Fatalf("CapRewards() error = %v", err)
	}
	if cap != 0.75 {
		t.Errorf("cap = %v, want 0.75", cap)
	}
	if capped[models.ResourceCurrency] != 75 {
		t.Errorf("capped currency = %d, want 75", capped[models.ResourceCurrency])
	}
}

func TestLeaderboard(t *testing.T) {
	repo := newFakeStatsRepo()
	svc := NewService(repo)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		ps, _ := repo.GetOrCreate(ctx, snowflake.ID(i))
		ps.VarietyScore = float64(i) / 10
		ps.TotalGames = int64(i * 10)
	}

	board, err := svc.Leaderboard(ctx, CategoryVariety, 3)
	if err != nil {
		t.Fatalf("Leaderboard(variety) error = %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("board size = %d, want 3", len(board))
	}
	if board[0].PlayerID != snowflake.ID(5) {
		t.Errorf("top variety = %v, want player 5", board[0].PlayerID)
	}

	games, err := svc.Leaderboard(ctx, CategoryGames, 2)
	if err != nil {
		t.Fatalf("Leaderboard(games) error = %v", err)
	}
	if games[0].TotalGames != 50 {
		t.Errorf("top games = %d, want 50", games[0].TotalGames)
	}

	if _, err := svc.Leaderboard(ctx, "wealth", 3); !repositories.IsInvalidArgument(err) {
		t.Errorf("unknown category error = %v, want InvalidArgumentError", err)
	}
}

func TestLeaderboardCaching(t *testing.T) {
	repo := newFakeStatsRepo()
	svc := NewService(repo)
	ctx := context.Background()

	ps, _ := repo.GetOrCreate(ctx, snowflake.ID(1))
	ps.VarietyScore = 0.9

	first, err := svc.Leaderboard(ctx, CategoryVariety, 5)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("board size = %d, want 1", len(first))
	}

	// A new player appears, but the cached board is still served.
	other, _ := repo.GetOrCreate(ctx, snowflake.ID(2))
	other.VarietyScore = 1.0

	second, err := svc.Leaderboard(ctx, CategoryVariety, 5)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(second) != 1 {
		t.Errorf("cached board size = %d, want 1", len(second))
	}

	// A different limit is a different cache key and sees fresh data.
	fresh, err := svc.Leaderboard(ctx, CategoryVariety, 10)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(fresh) != 2 {
		t.Errorf("fresh board size = %d, want 2", len(fresh))
	}
}
