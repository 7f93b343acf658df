// Package badge defines the achievement catalog: the closed set of badge ids,
// their tiers and display metadata.
package badge

import "strings"

// Tier is a badge rank. Tiers are ordered: bronze < silver < gold < diamond.
type Tier int

const (
	TierBronze Tier = iota
	TierSilver
	TierGold
	TierDiamond
)

// Tiers lists every tier in ascending order.
var Tiers = []Tier{TierBronze, TierSilver, TierGold, TierDiamond}

func (t Tier) String() string {
	switch t {
	case TierBronze:
		return "bronze"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	case TierDiamond:
		return "diamond"
	default:
		return "bronze"
	}
}

// ParseTier parses a tier name. Unknown names fall back to bronze.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silver":
		return TierSilver
	case "gold":
		return TierGold
	case "diamond":
		return TierDiamond
	default:
		return TierBronze
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name; unknown names become bronze.
func (t *Tier) UnmarshalText(b []byte) error {
	*t = ParseTier(string(b))
	return nil
}

// Scope is the level at which a badge is earned.
type Scope string

const (
	ScopeLesson     Scope = "lesson"
	ScopeDiscipline Scope = "discipline"
	ScopePlatform   Scope = "platform"
)

// ID identifies a badge definition.
type ID string

const (
	LessonComplete         ID = "lesson_complete"
	LessonQuizPerfect      ID = "lesson_quiz_perfect"
	AllLessonsComplete     ID = "all_lessons_complete"
	AllQuizzesPerfect      ID = "all_quizzes_perfect"
	AllQuizzesGreat        ID = "all_quizzes_great"
	AllQuizzesGood         ID = "all_quizzes_good"
	FinalQuizPerfect       ID = "final_quiz_perfect"
	FinalQuizPassed        ID = "final_quiz_passed"
	DisciplineMaster       ID = "discipline_master"
	AllDisciplinesComplete ID = "all_disciplines_complete"
)

// Badge is an earned or displayable achievement.
type Badge struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Tier        Tier   `json:"tier"`
	Scope       Scope  `json:"scope"`

	// DisciplineID and LessonID locate an earned badge; both are empty in
	// catalog definitions.
	DisciplineID string `json:"discipline_id,omitempty"`
	LessonID     string `json:"lesson_id,omitempty"`
}

// Key identifies an earned badge instance: the same definition earned in two
// lessons yields two keys.
func (b Badge) Key() string {
	return string(b.ID) + "|" + b.DisciplineID + "|" + b.LessonID
}

// In returns a copy of b located in the given discipline and lesson.
func (b Badge) In(disciplineID, lessonID string) Badge {
	b.DisciplineID = disciplineID
	b.LessonID = lessonID
	return b
}

// NewlyEarned returns the badges in next that are absent from prev, comparing
// by Key. The order of next is preserved and each key is reported once.
func NewlyEarned(prev, next []Badge) []Badge {
	seen := make(map[string]bool, len(prev))
	for _, b := range prev {
		seen[b.Key()] = true
	}

	var earned []Badge
	for _, b := range next {
		if seen[b.Key()] {
			continue
		}
		seen[b.Key()] = true
		earned = append(earned, b)
	}
	return earned
}

// CountByTier tallies badges per tier. Every tier is present in the result.
func CountByTier(badges []Badge) map[Tier]int {
	counts := make(map[Tier]int, len(Tiers))
	for _, t := range Tiers {
		counts[t] = 0
	}
	for _, b := range badges {
		counts[b.Tier]++
	}
	return counts
}
