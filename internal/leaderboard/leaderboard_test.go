package leaderboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-n-ai/pai-academy/internal/leaderboard"
)

func TestRank_ByBadgeCountDescending(t *testing.T) {
	got := leaderboard.Rank([]leaderboard.Entry{
		{UserID: "ana", BadgeCount: 3},
		{UserID: "bruno", BadgeCount: 12},
		{UserID: "carla", BadgeCount: 7},
		{UserID: "davi", BadgeCount: 0},
	})

	require.Len(t, got, 4)
	order := []string{got[0].UserID, got[1].UserID, got[2].UserID, got[3].UserID}
	assert.Equal(t, []string{"bruno", "carla", "ana", "davi"}, order)
	for i, s := range got {
		assert.Equal(t, i, s.Position)
	}
}

func TestRank_TiesKeepStoreOrder(t *testing.T) {
	got := leaderboard.Rank([]leaderboard.Entry{
		{UserID: "z", BadgeCount: 5},
		{UserID: "a", BadgeCount: 5},
		{UserID: "m", BadgeCount: 9},
		{UserID: "b", BadgeCount: 5},
	})

	order := []string{got[0].UserID, got[1].UserID, got[2].UserID, got[3].UserID}
	assert.Equal(t, []string{"m", "z", "a", "b"}, order)
}

func TestRank_Medals(t *testing.T) {
	got := leaderboard.Rank([]leaderboard.Entry{
		{UserID: "a", BadgeCount: 4},
		{UserID: "b", BadgeCount: 3},
		{UserID: "c", BadgeCount: 2},
		{UserID: "d", BadgeCount: 1},
	})

	assert.Equal(t, leaderboard.MedalGold, got[0].Medal)
	assert.Equal(t, leaderboard.MedalSilver, got[1].Medal)
	assert.Equal(t, leaderboard.MedalBronze, got[2].Medal)
	assert.Equal(t, leaderboard.MedalNone, got[3].Medal)
}

func TestRank_DoesNotModifyInput(t *testing.T) {
	in := []leaderboard.Entry{{UserID: "a", BadgeCount: 1}, {UserID: "b", BadgeCount: 2}}
	leaderboard.Rank(in)
	assert.Equal(t, "a", in[0].UserID)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, leaderboard.Rank(nil))
}

func TestTopAndPositionOf(t *testing.T) {
	standings := leaderboard.Rank([]leaderboard.Entry{
		{UserID: "a", BadgeCount: 1},
		{UserID: "b", BadgeCount: 2},
		{UserID: "c", BadgeCount: 3},
	})

	assert.Len(t, leaderboard.Top(standings, 2), 2)
	assert.Len(t, leaderboard.Top(standings, 0), 3)
	assert.Len(t, leaderboard.Top(standings, 10), 3)

	assert.Equal(t, 2, leaderboard.PositionOf(standings, "a"))
	assert.Equal(t, -1, leaderboard.PositionOf(standings, "nobody"))
}
