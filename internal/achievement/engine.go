// Package achievement derives badges from a learner's activity snapshot.
//
// Badges are never stored as events: every call recomputes the full set from
// the latest completions and quiz results, so the same snapshot always yields
// the same badges. A snapshot that lags behind the store yields fewer badges,
// never more.
package achievement

import (
	"github.com/p-n-ai/pai-academy/internal/badge"
	"github.com/p-n-ai/pai-academy/internal/curriculum"
	"github.com/p-n-ai/pai-academy/internal/progression"
	"github.com/p-n-ai/pai-academy/internal/quiz"
)

const (
	greatAverage = 80
	goodAverage  = 60
)

// DisciplineInput is the activity of one learner in one discipline.
type DisciplineInput struct {
	DisciplineID string
	// Lessons of the discipline, ordered.
	Lessons []curriculum.Lesson
	// CompletedLessonIDs holds lessons with a completion record.
	CompletedLessonIDs map[string]bool
	// LessonQuizScores maps lesson id to the score of the latest attempt.
	LessonQuizScores map[string]int
	// FinalQuizScore is the latest final quiz score, nil when never taken.
	FinalQuizScore *int
}

// LessonBadges are the badges earned inside one lesson.
type LessonBadges struct {
	LessonID string        `json:"lesson_id"`
	Badges   []badge.Badge `json:"badges"`
}

// DisciplineBadges is everything earned in one discipline.
type DisciplineBadges struct {
	DisciplineID string `json:"discipline_id"`
	// Badges are the discipline-scope badges in catalog order.
	Badges []badge.Badge `json:"badges"`
	// Lessons lists lessons with at least one badge, in lesson order.
	Lessons          []LessonBadges `json:"lessons"`
	PerfectLessonIDs []string       `json:"perfect_lesson_ids"`
	// Complete marks a finished discipline: every lesson done and the final
	// quiz passed.
	Complete bool `json:"complete"`
}

// ComputeDisciplineBadges derives the badges of one discipline. It does not
// modify in. Completions and scores for lessons outside in.Lessons are
// ignored.
func ComputeDisciplineBadges(in DisciplineInput) DisciplineBadges {
	out := DisciplineBadges{
		DisciplineID:     in.DisciplineID,
		Badges:           []badge.Badge{},
		Lessons:          []LessonBadges{},
		PerfectLessonIDs: []string{},
	}

	completed := 0
	var scores []int
	for _, l := range in.Lessons {
		var lb []badge.Badge
		if in.CompletedLessonIDs[l.ID] {
			completed++
			lb = append(lb, badge.MustLookup(badge.LessonComplete).In(in.DisciplineID, l.ID))
		}
		if score, ok := in.LessonQuizScores[l.ID]; ok {
			scores = append(scores, score)
			if score == quiz.PerfectScore {
				lb = append(lb, badge.MustLookup(badge.LessonQuizPerfect).In(in.DisciplineID, l.ID))
				out.PerfectLessonIDs = append(out.PerfectLessonIDs, l.ID)
			}
		}
		if len(lb) > 0 {
			out.Lessons = append(out.Lessons, LessonBadges{LessonID: l.ID, Badges: lb})
		}
	}

	total := len(in.Lessons)
	allLessons := total > 0 && completed >= total
	allPerfect := len(scores) > 0 && len(scores) >= total && everyPerfect(scores)
	finalPerfect := in.FinalQuizScore != nil && *in.FinalQuizScore == quiz.PerfectScore
	finalPassed := in.FinalQuizScore != nil && *in.FinalQuizScore >= quiz.FinalPassScore

	add := func(id badge.ID) {
		out.Badges = append(out.Badges, badge.MustLookup(id).In(in.DisciplineID, ""))
	}

	if allLessons {
		add(badge.AllLessonsComplete)
	}
	if len(scores) > 0 {
		switch {
		case allPerfect:
			add(badge.AllQuizzesPerfect)
		case sum(scores) >= greatAverage*len(scores):
			add(badge.AllQuizzesGreat)
		case sum(scores) >= goodAverage*len(scores):
			add(badge.AllQuizzesGood)
		}
	}
	switch {
	case finalPerfect:
		add(badge.FinalQuizPerfect)
	case finalPassed:
		add(badge.FinalQuizPassed)
	}
	if allLessons && allPerfect && finalPerfect {
		add(badge.DisciplineMaster)
	}

	out.Complete = progression.IsQuizUnlocked(total, completed) && finalPassed
	return out
}

// Has reports whether a discipline-scope badge was earned.
func (d DisciplineBadges) Has(id badge.ID) bool {
	for _, b := range d.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// ForLesson returns the badges earned in a lesson.
func (d DisciplineBadges) ForLesson(lessonID string) []badge.Badge {
	for _, lb := range d.Lessons {
		if lb.LessonID == lessonID {
			return lb.Badges
		}
	}
	return nil
}

// IsPerfect reports whether the lesson's quiz was answered fully correctly.
func (d DisciplineBadges) IsPerfect(lessonID string) bool {
	for _, id := range d.PerfectLessonIDs {
		if id == lessonID {
			return true
		}
	}
	return false
}

// All returns discipline badges followed by lesson badges in lesson order.
func (d DisciplineBadges) All() []badge.Badge {
	all := append([]badge.Badge{}, d.Badges...)
	for _, lb := range d.Lessons {
		all = append(all, lb.Badges...)
	}
	return all
}

// Count is the number of badges in All.
func (d DisciplineBadges) Count() int {
	n := len(d.Badges)
	for _, lb := range d.Lessons {
		n += len(lb.Badges)
	}
	return n
}

func everyPerfect(scores []int) bool {
	for _, s := range scores {
		if s != quiz.PerfectScore {
			return false
		}
	}
	return true
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
