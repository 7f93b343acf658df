package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// SummaryCache keeps one computed value per user next to the fingerprint of
// the inputs it was computed from. A lookup with a different fingerprint is
// a miss, so stale values are never served and are overwritten on the next
// Set.
type SummaryCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewSummaryCache creates a summary cache. A nil cache yields a cache that
// always misses.
func NewSummaryCache(c *Cache, ttl time.Duration) *SummaryCache {
	return &SummaryCache{cache: c, ttl: ttl}
}

// Fingerprint hashes the JSON encoding of v with BLAKE2b-256.
func Fingerprint(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal fingerprint input: %w", err)
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Get decodes the cached value of userID into dst when it was stored with
// the same fingerprint input.
func (s *SummaryCache) Get(ctx context.Context, userID string, input, dst any) bool {
	if !s.cache.usable() {
		return false
	}
	fp, err := Fingerprint(input)
	if err != nil {
		slog.Warn("summary fingerprint failed", "user_id", userID, "error", err)
		return false
	}

	vals, err := s.cache.Client.HMGet(ctx, summaryKey(userID), "fp", "data").Result()
	if err != nil {
		slog.Warn("summary cache read failed", "user_id", userID, "error", err)
		return false
	}
	stored, _ := vals[0].(string)
	data, _ := vals[1].(string)
	if stored != fp || data == "" {
		return false
	}

	if err := json.Unmarshal([]byte(data), dst); err != nil {
		slog.Warn("summary cache entry is corrupt", "user_id", userID, "error", err)
		return false
	}
	return true
}

// Set stores v for userID under the fingerprint of input.
func (s *SummaryCache) Set(ctx context.Context, userID string, input, v any) {
	if !s.cache.usable() {
		return
	}
	fp, err := Fingerprint(input)
	if err != nil {
		slog.Warn("summary fingerprint failed", "user_id", userID, "error", err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("marshal summary", "user_id", userID, "error", err)
		return
	}

	key := summaryKey(userID)
	_, err = s.cache.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "fp", fp, "data", string(data))
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		slog.Warn("summary cache write failed", "user_id", userID, "error", err)
	}
}

func summaryKey(userID string) string {
	return keyPrefix + "summary:" + userID
}
