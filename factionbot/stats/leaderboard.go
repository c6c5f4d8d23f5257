package stats

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/factionrealms/factionbot/factionbot/database/models"
	"github.com/factionrealms/factionbot/factionbot/database/repositories"
)

// Leaderboard categories.
const (
	CategoryVariety  = "variety"
	CategoryActivity = "activity"
	CategoryGames    = "games"
)

const (
	leaderboardCacheSize = 64
	leaderboardCacheTTL  = 1 * time.Minute
	defaultLeaderboardN  = 10
)

type cachedBoard struct {
	entries   []*models.PlayerStats
	timestamp time.Time
}

type leaderboardCache struct {
	cache *lru.Cache
}

func newLeaderboardCache() *leaderboardCache {
	cache, _ := lru.New(leaderboardCacheSize)
	return &leaderboardCache{cache: cache}
}

func (c *leaderboardCache) get(key string) ([]*models.PlayerStats, bool) {
	if cached, ok := c.cache.Get(key); ok {
		if b, ok := cached.(cachedBoard); ok {
			if time.Since(b.timestamp) < leaderboardCacheTTL {
				return b.entries, true
			}
		}
	}
	return nil, false
}

func (c *leaderboardCache) put(key string, entries []*models.PlayerStats) {
	c.cache.Add(key, cachedBoard{entries: entries, timestamp: time.Now()})
}

// Leaderboard returns the top players for a category. Results are cached
// briefly since boards are read far more often than they change.
func (s *Service) Leaderboard(ctx context.Context, category string, limit int) ([]*models.PlayerStats, error) {
	if limit <= 0 {
		limit = defaultLeaderboardN
	}

	key := fmt.Sprintf("board:%s:%d", category, limit)
	if entries, ok := s.cache.get(key); ok {
		return entries, nil
	}

	var (
		entries []*models.PlayerStats
		err     error
	)
	switch category {
	case CategoryVariety:
		entries, err = s.repo.TopByVariety(ctx, limit)
	case CategoryActivity:
		entries, err = s.repo.TopByHardcoreRecency(ctx, limit)
	case CategoryGames:
		entries, err = s.repo.TopByTotalGames(ctx, limit)
	default:
		return nil, &repositories.InvalidArgumentError{Field: "leaderboard category", Value: category}
	}
	if err != nil {
		return nil, err
	}

	s.cache.put(key, entries)
	return entries, nil
}
