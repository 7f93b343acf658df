package cache

import (
	"context"
	"testing"
	"time"

	"github.com/p-n-ai/pai-academy/internal/leaderboard"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid-redis", "redis://localhost:6379", false},
		{"valid-with-db", "redis://localhost:6379/0", false},
		{"empty", "", true},
		{"wrong-scheme", "http://localhost:6379", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	ctx := t.Context()
	_, err := New(ctx, "redis://localhost:59999")
	if err == nil {
		t.Fatal("New() should return error for unreachable host")
	}
}

func TestFingerprint(t *testing.T) {
	type snapshot struct {
		Lessons []string
		Score   int
	}

	a, err := Fingerprint(snapshot{Lessons: []string{"l1", "l2"}, Score: 80})
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	b, _ := Fingerprint(snapshot{Lessons: []string{"l1", "l2"}, Score: 80})
	c, _ := Fingerprint(snapshot{Lessons: []string{"l1", "l2"}, Score: 81})

	if len(a) != 64 {
		t.Errorf("len(fingerprint) = %d, want 64 hex chars", len(a))
	}
	if a != b {
		t.Error("equal inputs should share a fingerprint")
	}
	if a == c {
		t.Error("different inputs should not share a fingerprint")
	}

	if _, err := Fingerprint(make(chan int)); err == nil {
		t.Error("expected error for unencodable input")
	}
}

func TestLeaderboardKey(t *testing.T) {
	tests := []struct {
		gen   int64
		limit int
		want  string
	}{
		{0, 10, "academy:leaderboard:0:10"},
		{3, 0, "academy:leaderboard:3:0"},
		{3, -5, "academy:leaderboard:3:0"},
	}
	for _, tt := range tests {
		if got := leaderboardKey(tt.gen, tt.limit); got != tt.want {
			t.Errorf("leaderboardKey(%d, %d) = %q, want %q", tt.gen, tt.limit, got, tt.want)
		}
	}
}

func TestCaches_WithoutClientAlwaysMiss(t *testing.T) {
	ctx := context.Background()

	lb := NewLeaderboardCache(nil, time.Minute)
	lb.Set(ctx, 10, []leaderboard.Standing{{Position: 0}})
	lb.Invalidate(ctx)
	if _, ok := lb.Get(ctx, 10); ok {
		t.Error("leaderboard cache without a client should miss")
	}

	sc := NewSummaryCache(nil, time.Minute)
	sc.Set(ctx, "u1", "fp", map[string]int{"total": 3})
	var dst map[string]int
	if sc.Get(ctx, "u1", "fp", &dst) {
		t.Error("summary cache without a client should miss")
	}
}

func newLiveCache(t *testing.T) *Cache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping cache integration test in short mode")
	}
	c, err := New(t.Context(), "redis://localhost:6379/15")
	if err != nil {
		t.Skipf("no cache server available: %v", err)
	}
	t.Cleanup(func() {
		c.Client.FlushDB(context.Background())
		c.Close()
	})
	return c
}

func TestLeaderboardCache_Live(t *testing.T) {
	c := newLiveCache(t)
	ctx := t.Context()
	lb := NewLeaderboardCache(c, time.Minute)

	want := leaderboard.Rank([]leaderboard.Entry{{UserID: "a", BadgeCount: 2}, {UserID: "b", BadgeCount: 5}})
	lb.Set(ctx, 10, want)

	got, ok := lb.Get(ctx, 10)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if len(got) != 2 || got[0].UserID != "b" || got[0].Medal != leaderboard.MedalGold {
		t.Errorf("Get() = %+v, want b first with gold", got)
	}

	lb.Invalidate(ctx)
	if _, ok := lb.Get(ctx, 10); ok {
		t.Error("expected a miss after Invalidate")
	}
}

func TestSummaryCache_Live(t *testing.T) {
	c := newLiveCache(t)
	ctx := t.Context()
	sc := NewSummaryCache(c, time.Minute)

	sc.Set(ctx, "u1", []string{"l1"}, map[string]int{"total": 3})

	var got map[string]int
	if !sc.Get(ctx, "u1", []string{"l1"}, &got) {
		t.Fatal("expected a cache hit")
	}
	if got["total"] != 3 {
		t.Errorf("total = %d, want 3", got["total"])
	}
	if sc.Get(ctx, "u1", []string{"l1", "l2"}, &got) {
		t.Error("a new fingerprint should miss")
	}
}
