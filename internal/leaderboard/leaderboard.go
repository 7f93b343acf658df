// Package leaderboard ranks learners by the number of badges they hold.
package leaderboard

import (
	"cmp"
	"slices"
)

// Entry is a learner's badge total as reported by the store.
type Entry struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	BadgeCount  int    `json:"badge_count"`
}

// Medal decorates the first three positions.
type Medal string

const (
	MedalNone   Medal = ""
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
)

// MedalFor returns the medal of a 0-based position.
func MedalFor(position int) Medal {
	switch position {
	case 0:
		return MedalGold
	case 1:
		return MedalSilver
	case 2:
		return MedalBronze
	default:
		return MedalNone
	}
}

// Standing is a ranked entry. Position is 0-based.
type Standing struct {
	Entry
	Position int   `json:"position"`
	Medal    Medal `json:"medal,omitempty"`
}

// Rank orders entries by badge count, highest first. Entries with equal
// counts keep the order the store supplied them in. The input is not
// modified.
func Rank(entries []Entry) []Standing {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return cmp.Compare(b.BadgeCount, a.BadgeCount)
	})

	standings := make([]Standing, len(sorted))
	for i, e := range sorted {
		standings[i] = Standing{Entry: e, Position: i, Medal: MedalFor(i)}
	}
	return standings
}

// Top returns at most n standings. A non-positive n returns all of them.
func Top(standings []Standing, n int) []Standing {
	if n <= 0 || n >= len(standings) {
		return standings
	}
	return standings[:n]
}

// PositionOf returns the position of a user, or -1 when absent.
func PositionOf(standings []Standing, userID string) int {
	for _, s := range standings {
		if s.UserID == userID {
			return s.Position
		}
	}
	return -1
}
