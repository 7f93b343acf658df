package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-academy/internal/leaderboard"
)

const leaderboardGenKey = keyPrefix + "leaderboard:gen"

// LeaderboardCache stores ranked standings as JSON, one entry per requested
// limit. Entries are stored under a generation number; Invalidate bumps the
// generation so every older entry is skipped and left to expire.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewLeaderboardCache creates a leaderboard cache. A nil cache yields a cache
// that always misses.
func NewLeaderboardCache(c *Cache, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{cache: c, ttl: ttl}
}

// Get returns cached standings for limit.
func (l *LeaderboardCache) Get(ctx context.Context, limit int) ([]leaderboard.Standing, bool) {
	if !l.cache.usable() {
		return nil, false
	}
	key, err := l.key(ctx, limit)
	if err != nil {
		slog.Warn("leaderboard cache unavailable", "error", err)
		return nil, false
	}

	raw, err := l.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("leaderboard cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var standings []leaderboard.Standing
	if err := json.Unmarshal(raw, &standings); err != nil {
		slog.Warn("leaderboard cache entry is corrupt", "key", key, "error", err)
		return nil, false
	}
	return standings, true
}

// Set stores standings for limit.
func (l *LeaderboardCache) Set(ctx context.Context, limit int, standings []leaderboard.Standing) {
	if !l.cache.usable() {
		return
	}
	key, err := l.key(ctx, limit)
	if err != nil {
		slog.Warn("leaderboard cache unavailable", "error", err)
		return
	}
	raw, err := json.Marshal(standings)
	if err != nil {
		slog.Warn("marshal leaderboard", "error", err)
		return
	}
	if err := l.cache.Client.Set(ctx, key, raw, l.ttl).Err(); err != nil {
		slog.Warn("leaderboard cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops every cached limit.
func (l *LeaderboardCache) Invalidate(ctx context.Context) {
	if !l.cache.usable() {
		return
	}
	if err := l.cache.Client.Incr(ctx, leaderboardGenKey).Err(); err != nil {
		slog.Warn("leaderboard cache invalidation failed", "error", err)
	}
}

func (l *LeaderboardCache) key(ctx context.Context, limit int) (string, error) {
	gen, err := l.cache.Client.Get(ctx, leaderboardGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read generation: %w", err)
	}
	return leaderboardKey(gen, limit), nil
}

func leaderboardKey(gen int64, limit int) string {
	if limit < 0 {
		limit = 0
	}
	return fmt.Sprintf("%sleaderboard:%d:%d", keyPrefix, gen, limit)
}
