// Package curriculum holds the course content: disciplines, their ordered
// lessons and the quiz questions attached to both.
package curriculum

import (
	"cmp"
	"slices"

	"github.com/p-n-ai/pai-academy/internal/quiz"
)

// Discipline is a unit of curriculum. OrderIndex defines its position in the
// platform-wide sequence.
type Discipline struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	OrderIndex  int    `yaml:"order_index" json:"order_index"`
	Icon        string `yaml:"icon" json:"icon,omitempty"`
}

// Lesson is an ordered content unit within a discipline.
type Lesson struct {
	ID           string `yaml:"id" json:"id"`
	DisciplineID string `yaml:"-" json:"discipline_id"`
	Title        string `yaml:"title" json:"title"`
	OrderIndex   int    `yaml:"order_index" json:"order_index"`
	VideoURL     string `yaml:"video_url" json:"video_url,omitempty"`
}

// DisciplineFile is the on-disk layout of one discipline: the discipline
// itself, its lessons, and its questions. Lesson questions are listed under
// their lesson; final quiz questions sit at the top level.
type DisciplineFile struct {
	Discipline `yaml:",inline"`
	Lessons    []LessonFile    `yaml:"lessons"`
	FinalQuiz  []quiz.Question `yaml:"final_quiz"`
}

// LessonFile is a lesson with its quiz as stored on disk.
type LessonFile struct {
	Lesson `yaml:",inline"`
	Quiz   []quiz.Question `yaml:"quiz"`
}

// SortDisciplines orders disciplines by OrderIndex, keeping the input order
// of equal indexes.
func SortDisciplines(ds []Discipline) {
	slices.SortStableFunc(ds, func(a, b Discipline) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
}

// SortLessons orders lessons by OrderIndex, keeping the input order of equal
// indexes.
func SortLessons(ls []Lesson) {
	slices.SortStableFunc(ls, func(a, b Lesson) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
}

// SortQuestions orders questions by OrderIndex, keeping the input order of
// equal indexes.
func SortQuestions(qs []quiz.Question) {
	slices.SortStableFunc(qs, func(a, b quiz.Question) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
}
