// Package progression decides which disciplines, lessons and quizzes a learner
// may open, from their completion records.
//
// Disciplines and lessons are chained: an item opens once its predecessor is
// done. A discipline's final quiz opens once every lesson is done. All inputs
// must already be ordered by OrderIndex.
package progression

import "github.com/p-n-ai/pai-academy/internal/curriculum"

// IsDisciplineAccessible reports whether the discipline at index may be
// opened. The first discipline is always accessible; any other needs its
// predecessor completed. An out-of-range index is never accessible.
func IsDisciplineAccessible(ordered []curriculum.Discipline, completed map[string]bool, index int) bool {
	if index < 0 || index >= len(ordered) {
		return false
	}
	if index == 0 {
		return true
	}
	return completed[ordered[index-1].ID]
}

// IsLessonAccessible reports whether the lesson at index may be opened. The
// first lesson is always accessible; any other needs its predecessor done.
func IsLessonAccessible(ordered []curriculum.Lesson, done map[string]bool, index int) bool {
	if index < 0 || index >= len(ordered) {
		return false
	}
	if index == 0 {
		return true
	}
	return done[ordered[index-1].ID]
}

// IsQuizUnlocked reports whether a discipline's final quiz may be taken. A
// discipline without lessons is unlocked immediately.
func IsQuizUnlocked(totalLessons, completedLessonCount int) bool {
	return totalLessons == 0 || completedLessonCount >= totalLessons
}

// CountCompleted counts the lessons in ordered that are done. Records for
// lessons outside the list are not counted.
func CountCompleted(ordered []curriculum.Lesson, done map[string]bool) int {
	n := 0
	for _, l := range ordered {
		if done[l.ID] {
			n++
		}
	}
	return n
}
