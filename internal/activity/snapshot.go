package activity

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-academy/internal/achievement"
	"github.com/p-n-ai/pai-academy/internal/curriculum"
)

// Snapshot is everything recorded for one learner. The four collections are
// read concurrently, so a snapshot taken during a write may lag by one
// record; badge computation only trusts records that belong to the
// discipline being evaluated.
type Snapshot struct {
	UserID                string
	LessonCompletions     []LessonCompletion
	LessonQuizResults     []LessonQuizResult
	DisciplineQuizResults []DisciplineQuizResult
	DisciplineCompletions []DisciplineCompletion
}

// LoadSnapshot reads a learner's records in parallel. Any failed read fails
// the load.
func LoadSnapshot(ctx context.Context, store Store, userID string) (Snapshot, error) {
	snap := Snapshot{UserID: userID}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.LessonCompletions, err = store.LessonCompletions(ctx, userID)
		return wrap("lesson completions", err)
	})
	g.Go(func() (err error) {
		snap.LessonQuizResults, err = store.LessonQuizResults(ctx, userID)
		return wrap("lesson quiz results", err)
	})
	g.Go(func() (err error) {
		snap.DisciplineQuizResults, err = store.DisciplineQuizResults(ctx, userID)
		return wrap("discipline quiz results", err)
	})
	g.Go(func() (err error) {
		snap.DisciplineCompletions, err = store.DisciplineCompletions(ctx, userID)
		return wrap("discipline completions", err)
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	return nil
}

// DoneLessons returns the set of completed lesson ids.
func (s Snapshot) DoneLessons() map[string]bool {
	done := make(map[string]bool, len(s.LessonCompletions))
	for _, c := range s.LessonCompletions {
		done[c.LessonID] = true
	}
	return done
}

// CompletedDisciplines returns the set of disciplines whose completion flag
// is set.
func (s Snapshot) CompletedDisciplines() map[string]bool {
	completed := make(map[string]bool, len(s.DisciplineCompletions))
	for _, c := range s.DisciplineCompletions {
		if c.Completed {
			completed[c.DisciplineID] = true
		}
	}
	return completed
}

// LessonScores maps lesson id to the latest lesson quiz score.
func (s Snapshot) LessonScores() map[string]int {
	latest := make(map[string]LessonQuizResult, len(s.LessonQuizResults))
	for _, r := range s.LessonQuizResults {
		if prev, ok := latest[r.LessonID]; ok && prev.CompletedAt.After(r.CompletedAt) {
			continue
		}
		latest[r.LessonID] = r
	}
	scores := make(map[string]int, len(latest))
	for id, r := range latest {
		scores[id] = r.Score
	}
	return scores
}

// FinalScore returns the latest final quiz score of a discipline, or nil when
// it was never taken.
func (s Snapshot) FinalScore(disciplineID string) *int {
	var found *DisciplineQuizResult
	for i, r := range s.DisciplineQuizResults {
		if r.DisciplineID != disciplineID {
			continue
		}
		if found == nil || r.CompletedAt.After(found.CompletedAt) {
			found = &s.DisciplineQuizResults[i]
		}
	}
	if found == nil {
		return nil
	}
	score := found.Score
	return &score
}

// Input builds the badge engine input for one discipline.
func (s Snapshot) Input(disciplineID string, lessons []curriculum.Lesson) achievement.DisciplineInput {
	return achievement.DisciplineInput{
		DisciplineID:       disciplineID,
		Lessons:            lessons,
		CompletedLessonIDs: s.DoneLessons(),
		LessonQuizScores:   s.LessonScores(),
		FinalQuizScore:     s.FinalScore(disciplineID),
	}
}
