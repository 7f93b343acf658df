// Package activity persists a learner's progress records and assembles them
// into snapshots.
//
// Every write is an upsert keyed by (user, lesson) or (user, discipline).
// Resubmitting replaces the previous result; concurrent writers resolve as
// last write wins.
package activity

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrInvalidID is returned for identifiers the store cannot key on.
var ErrInvalidID = errors.New("invalid id")

// LessonCompletion records that a learner finished a lesson.
type LessonCompletion struct {
	UserID       string    `json:"user_id"`
	LessonID     string    `json:"lesson_id"`
	DisciplineID string    `json:"discipline_id"`
	CompletedAt  time.Time `json:"completed_at"`
}

// LessonQuizResult is the latest attempt at a lesson quiz.
type LessonQuizResult struct {
	UserID         string    `json:"user_id"`
	LessonID       string    `json:"lesson_id"`
	DisciplineID   string    `json:"discipline_id"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	Passed         bool      `json:"passed"`
	CompletedAt    time.Time `json:"completed_at"`
}

// DisciplineQuizResult is the latest attempt at a discipline's final quiz.
type DisciplineQuizResult struct {
	UserID         string    `json:"user_id"`
	DisciplineID   string    `json:"discipline_id"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	Passed         bool      `json:"passed"`
	CompletedAt    time.Time `json:"completed_at"`
}

// DisciplineCompletion is set once the final quiz of a discipline is passed.
type DisciplineCompletion struct {
	UserID       string    `json:"user_id"`
	DisciplineID string    `json:"discipline_id"`
	Completed    bool      `json:"completed"`
	CompletedAt  time.Time `json:"completed_at"`
}

// BadgeTotal is the leaderboard projection of a learner's badge count.
type BadgeTotal struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	BadgeCount  int       `json:"badge_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DisciplineStat aggregates final quiz activity of one discipline across
// all learners.
type DisciplineStat struct {
	DisciplineID   string  `json:"discipline_id"`
	Completed      int     `json:"completed"`
	Attempts       int     `json:"attempts"`
	MeanFinalScore float64 `json:"mean_final_score"`
}

// Store persists progress records.
type Store interface {
	// CompleteLesson records a lesson completion. Completing twice keeps the
	// first record.
	CompleteLesson(ctx context.Context, c LessonCompletion) error
	UpsertLessonQuizResult(ctx context.Context, r LessonQuizResult) error
	UpsertDisciplineQuizResult(ctx context.Context, r DisciplineQuizResult) error
	// MarkDisciplineCompleted sets the completed flag. It never clears it.
	MarkDisciplineCompleted(ctx context.Context, c DisciplineCompletion) error

	LessonCompletions(ctx context.Context, userID string) ([]LessonCompletion, error)
	LessonQuizResults(ctx context.Context, userID string) ([]LessonQuizResult, error)
	DisciplineQuizResults(ctx context.Context, userID string) ([]DisciplineQuizResult, error)
	DisciplineCompletions(ctx context.Context, userID string) ([]DisciplineCompletion, error)

	// SetBadgeTotal stores a learner's badge count. UpdatedAt only moves when
	// the count changes; an empty DisplayName keeps the stored one. It reports
	// whether the count or the name changed.
	SetBadgeTotal(ctx context.Context, t BadgeTotal) (bool, error)
	// BadgeTotals lists totals by count, highest first; equal counts are
	// listed by who reached the count first. limit <= 0 lists all.
	BadgeTotals(ctx context.Context, limit int) ([]BadgeTotal, error)
	// DisciplineStats lists disciplines with at least one final quiz result
	// or completion, ordered by id. The mean covers latest attempts only.
	DisciplineStats(ctx context.Context) ([]DisciplineStat, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	lessons     map[recordKey]LessonCompletion
	lessonQuiz  map[recordKey]LessonQuizResult
	finalQuiz   map[recordKey]DisciplineQuizResult
	disciplines map[recordKey]DisciplineCompletion
	totals      map[string]BadgeTotal
	mu          sync.RWMutex
	now         func() time.Time
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lessons:     make(map[recordKey]LessonCompletion),
		lessonQuiz:  make(map[recordKey]LessonQuizResult),
		finalQuiz:   make(map[recordKey]DisciplineQuizResult),
		disciplines: make(map[recordKey]DisciplineCompletion),
		totals:      make(map[string]BadgeTotal),
		now:         time.Now,
	}
}

func (s *MemoryStore) CompleteLesson(_ context.Context, c LessonCompletion) error {
	if c.UserID == "" || c.LessonID == "" {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(c.UserID, c.LessonID)
	if _, ok := s.lessons[k]; ok {
		return nil
	}
	if c.CompletedAt.IsZero() {
		c.CompletedAt = s.now()
	}
	s.lessons[k] = c
	return nil
}

func (s *MemoryStore) UpsertLessonQuizResult(_ context.Context, r LessonQuizResult) error {
	if r.UserID == "" || r.LessonID == "" {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CompletedAt.IsZero() {
		r.CompletedAt = s.now()
	}
	s.lessonQuiz[key(r.UserID, r.LessonID)] = r
	return nil
}

func (s *MemoryStore) UpsertDisciplineQuizResult(_ context.Context, r DisciplineQuizResult) error {
	if r.UserID == "" || r.DisciplineID == "" {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CompletedAt.IsZero() {
		r.CompletedAt = s.now()
	}
	s.finalQuiz[key(r.UserID, r.DisciplineID)] = r
	return nil
}

func (s *MemoryStore) MarkDisciplineCompleted(_ context.Context, c DisciplineCompletion) error {
	if c.UserID == "" || c.DisciplineID == "" {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(c.UserID, c.DisciplineID)
	if prev, ok := s.disciplines[k]; ok && prev.Completed {
		return nil
	}
	if c.CompletedAt.IsZero() {
		c.CompletedAt = s.now()
	}
	c.Completed = true
	s.disciplines[k] = c
	return nil
}

func (s *MemoryStore) LessonCompletions(_ context.Context, userID string) ([]LessonCompletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byUser(s.lessons, userID), nil
}

func (s *MemoryStore) LessonQuizResults(_ context.Context, userID string) ([]LessonQuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byUser(s.lessonQuiz, userID), nil
}

func (s *MemoryStore) DisciplineQuizResults(_ context.Context, userID string) ([]DisciplineQuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byUser(s.finalQuiz, userID), nil
}

func (s *MemoryStore) DisciplineCompletions(_ context.Context, userID string) ([]DisciplineCompletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byUser(s.disciplines, userID), nil
}

func (s *MemoryStore) SetBadgeTotal(_ context.Context, t BadgeTotal) (bool, error) {
	if t.UserID == "" {
		return false, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.totals[t.UserID]
	if ok && prev.BadgeCount == t.BadgeCount {
		if t.DisplayName == "" || t.DisplayName == prev.DisplayName {
			return false, nil
		}
		prev.DisplayName = t.DisplayName
		s.totals[t.UserID] = prev
		return true, nil
	}
	if ok && t.DisplayName == "" {
		t.DisplayName = prev.DisplayName
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = s.now()
	}
	s.totals[t.UserID] = t
	return true, nil
}

func (s *MemoryStore) BadgeTotals(_ context.Context, limit int) ([]BadgeTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BadgeTotal, 0, len(s.totals))
	for _, t := range s.totals {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b BadgeTotal) int {
		return cmp.Or(
			cmp.Compare(b.BadgeCount, a.BadgeCount),
			a.UpdatedAt.Compare(b.UpdatedAt),
			cmp.Compare(a.UserID, b.UserID),
		)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DisciplineStats(_ context.Context) ([]DisciplineStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]*DisciplineStat)
	get := func(id string) *DisciplineStat {
		if stats[id] == nil {
			stats[id] = &DisciplineStat{DisciplineID: id}
		}
		return stats[id]
	}
	sums := make(map[string]int)
	for _, r := range s.finalQuiz {
		get(r.DisciplineID).Attempts++
		sums[r.DisciplineID] += r.Score
	}
	for _, c := range s.disciplines {
		if c.Completed {
			get(c.DisciplineID).Completed++
		}
	}

	out := make([]DisciplineStat, 0, len(stats))
	for id, st := range stats {
		if st.Attempts > 0 {
			st.MeanFinalScore = float64(sums[id]) / float64(st.Attempts)
		}
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b DisciplineStat) int { return cmp.Compare(a.DisciplineID, b.DisciplineID) })
	return out, nil
}

// recordKey identifies a record by learner and the lesson or discipline it
// belongs to.
type recordKey struct {
	user  string
	scope string
}

func key(userID, scopeID string) recordKey {
	return recordKey{user: userID, scope: scopeID}
}

// byUser returns the user's records sorted by scope id for a stable order.
func byUser[T any](m map[recordKey]T, userID string) []T {
	keys := make([]recordKey, 0)
	for k := range m {
		if k.user == userID {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b recordKey) int { return cmp.Compare(a.scope, b.scope) })

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
