package progression

import "github.com/p-n-ai/pai-academy/internal/curriculum"

// LessonState is the gate view of one lesson.
type LessonState struct {
	Lesson     curriculum.Lesson `json:"lesson"`
	Accessible bool              `json:"accessible"`
	Done       bool              `json:"done"`
}

// DisciplineState is the gate view of one discipline.
type DisciplineState struct {
	Discipline       curriculum.Discipline `json:"discipline"`
	Accessible       bool                  `json:"accessible"`
	Completed        bool                  `json:"completed"`
	QuizUnlocked     bool                  `json:"quiz_unlocked"`
	CompletedLessons int                   `json:"completed_lessons"`
	TotalLessons     int                   `json:"total_lessons"`
	Lessons          []LessonState         `json:"lessons"`
}

// Map evaluates the gate for a whole curriculum. disciplines and every lesson
// list must be ordered. completed holds discipline completion flags and done
// holds lesson completions. A lesson inside an inaccessible discipline is
// reported inaccessible.
func Map(disciplines []curriculum.Discipline, lessons map[string][]curriculum.Lesson, completed, done map[string]bool) []DisciplineState {
	states := make([]DisciplineState, len(disciplines))
	for i, d := range disciplines {
		ls := lessons[d.ID]
		accessible := IsDisciplineAccessible(disciplines, completed, i)
		count := CountCompleted(ls, done)

		st := DisciplineState{
			Discipline:       d,
			Accessible:       accessible,
			Completed:        completed[d.ID],
			QuizUnlocked:     accessible && IsQuizUnlocked(len(ls), count),
			CompletedLessons: count,
			TotalLessons:     len(ls),
			Lessons:          make([]LessonState, len(ls)),
		}
		for j, l := range ls {
			st.Lessons[j] = LessonState{
				Lesson:     l,
				Accessible: accessible && IsLessonAccessible(ls, done, j),
				Done:       done[l.ID],
			}
		}
		states[i] = st
	}
	return states
}
