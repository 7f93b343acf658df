package progression_test

import (
	"fmt"
	"testing"

	"github.com/p-n-ai/pai-academy/internal/curriculum"
	"github.com/p-n-ai/pai-academy/internal/progression"
)

func disciplines(n int) []curriculum.Discipline {
	ds := make([]curriculum.Discipline, n)
	for i := range ds {
		ds[i] = curriculum.Discipline{ID: fmt.Sprintf("d%d", i), OrderIndex: i}
	}
	return ds
}

func lessons(disciplineID string, n int) []curriculum.Lesson {
	ls := make([]curriculum.Lesson, n)
	for i := range ls {
		ls[i] = curriculum.Lesson{ID: fmt.Sprintf("%s-l%d", disciplineID, i), DisciplineID: disciplineID, OrderIndex: i}
	}
	return ls
}

func TestIsDisciplineAccessible_FirstAlwaysOpen(t *testing.T) {
	ds := disciplines(3)

	if !progression.IsDisciplineAccessible(ds, nil, 0) {
		t.Error("discipline 0 should be accessible with no completions")
	}
	if !progression.IsDisciplineAccessible(ds, map[string]bool{"d0": false}, 0) {
		t.Error("discipline 0 should be accessible regardless of completion state")
	}
}

func TestIsDisciplineAccessible_Chained(t *testing.T) {
	ds := disciplines(4)

	for i := 0; i < len(ds)-1; i++ {
		for _, done := range []bool{false, true} {
			completed := map[string]bool{ds[i].ID: done}
			got := progression.IsDisciplineAccessible(ds, completed, i+1)
			if got != done {
				t.Errorf("IsDisciplineAccessible(%d) with d%d completed=%v = %v", i+1, i, done, got)
			}
		}
	}
}

func TestIsDisciplineAccessible_OnlyPredecessorMatters(t *testing.T) {
	ds := disciplines(3)

	// d0 not done but d1 done: d2 opens, d1 stays closed.
	completed := map[string]bool{"d1": true}
	if progression.IsDisciplineAccessible(ds, completed, 1) {
		t.Error("d1 should be locked while d0 is incomplete")
	}
	if !progression.IsDisciplineAccessible(ds, completed, 2) {
		t.Error("d2 should open when d1 is completed")
	}
}

func TestIsDisciplineAccessible_OutOfRange(t *testing.T) {
	ds := disciplines(2)
	for _, idx := range []int{-1, 2, 10} {
		if progression.IsDisciplineAccessible(ds, map[string]bool{"d0": true, "d1": true}, idx) {
			t.Errorf("IsDisciplineAccessible(%d) should be false", idx)
		}
	}
	if progression.IsDisciplineAccessible(nil, nil, 0) {
		t.Error("empty curriculum has nothing accessible")
	}
}

func TestIsLessonAccessible(t *testing.T) {
	ls := lessons("d0", 3)

	tests := []struct {
		name  string
		done  map[string]bool
		index int
		want  bool
	}{
		{"first lesson", nil, 0, true},
		{"second locked", nil, 1, false},
		{"second open", map[string]bool{"d0-l0": true}, 1, true},
		{"third needs second", map[string]bool{"d0-l0": true}, 2, false},
		{"third open", map[string]bool{"d0-l1": true}, 2, true},
		{"out of range", map[string]bool{"d0-l2": true}, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progression.IsLessonAccessible(ls, tt.done, tt.index); got != tt.want {
				t.Errorf("IsLessonAccessible(%d) = %v, want %v", tt.index, got, tt.want)
			}
		})
	}
}

func TestIsQuizUnlocked(t *testing.T) {
	tests := []struct {
		total, completed int
		want             bool
	}{
		{0, 0, true},
		{3, 0, false},
		{3, 2, false},
		{3, 3, true},
		{3, 4, true},
	}
	for _, tt := range tests {
		if got := progression.IsQuizUnlocked(tt.total, tt.completed); got != tt.want {
			t.Errorf("IsQuizUnlocked(%d, %d) = %v, want %v", tt.total, tt.completed, got, tt.want)
		}
	}
}

func TestCountCompleted_IgnoresForeignLessons(t *testing.T) {
	ls := lessons("d0", 2)
	done := map[string]bool{"d0-l0": true, "d9-l0": true, "d9-l1": true}
	if got := progression.CountCompleted(ls, done); got != 1 {
		t.Errorf("CountCompleted() = %d, want 1", got)
	}
}

func TestMap(t *testing.T) {
	ds := disciplines(3)
	byDiscipline := map[string][]curriculum.Lesson{
		"d0": lessons("d0", 2),
		"d1": lessons("d1", 1),
		// d2 has no lessons
	}
	completed := map[string]bool{"d0": true}
	done := map[string]bool{"d0-l0": true, "d0-l1": true}

	states := progression.Map(ds, byDiscipline, completed, done)
	if len(states) != 3 {
		t.Fatalf("Map() = %d states, want 3", len(states))
	}

	d0 := states[0]
	if !d0.Accessible || !d0.Completed || !d0.QuizUnlocked || d0.CompletedLessons != 2 {
		t.Errorf("d0 state = %+v", d0)
	}

	d1 := states[1]
	if !d1.Accessible || d1.Completed || d1.QuizUnlocked {
		t.Errorf("d1 state = %+v, want accessible with quiz locked", d1)
	}
	if !d1.Lessons[0].Accessible {
		t.Error("first lesson of an accessible discipline should be open")
	}

	d2 := states[2]
	if d2.Accessible {
		t.Error("d2 should be locked until d1 is completed")
	}
	if d2.QuizUnlocked {
		t.Error("quiz of a locked discipline should stay locked")
	}
}

func TestMap_EmptyDisciplineQuizUnlocked(t *testing.T) {
	states := progression.Map(disciplines(1), nil, nil, nil)
	if !states[0].QuizUnlocked {
		t.Error("an accessible discipline without lessons should be quiz-unlocked")
	}
}
