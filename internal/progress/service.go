// Package progress runs the learner flows: completing lessons, submitting
// quizzes and reading progress. Each write goes gate check, grade, upsert,
// then badge recomputation against a fresh snapshot.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/p-n-ai/pai-academy/internal/achievement"
	"github.com/p-n-ai/pai-academy/internal/activity"
	"github.com/p-n-ai/pai-academy/internal/badge"
	"github.com/p-n-ai/pai-academy/internal/curriculum"
	"github.com/p-n-ai/pai-academy/internal/leaderboard"
	"github.com/p-n-ai/pai-academy/internal/progression"
	"github.com/p-n-ai/pai-academy/internal/quiz"
)

var (
	// ErrLocked is returned when the gate denies access to a lesson or quiz.
	ErrLocked = errors.New("locked")
	// ErrNotFound is returned for unknown lessons and disciplines.
	ErrNotFound = errors.New("not found")
	// ErrInvalidName is returned for display names that are empty or too long.
	ErrInvalidName = errors.New("invalid display name")
)

// MaxDisplayNameLength caps display names, in characters.
const MaxDisplayNameLength = 64

// Content is the read side of the curriculum. *curriculum.Loader implements
// it.
type Content interface {
	Disciplines() []curriculum.Discipline
	Discipline(id string) (curriculum.Discipline, bool)
	Lessons(disciplineID string) []curriculum.Lesson
	Lesson(id string) (curriculum.Lesson, bool)
	LessonQuestions(lessonID string) []quiz.Question
	FinalQuestions(disciplineID string) []quiz.Question
}

// Notifier receives badges as they are earned.
type Notifier interface {
	BadgesEarned(userID string, badges []badge.Badge)
}

// LeaderboardCache holds ranked standings per requested limit.
type LeaderboardCache interface {
	Get(ctx context.Context, limit int) ([]leaderboard.Standing, bool)
	Set(ctx context.Context, limit int, standings []leaderboard.Standing)
	Invalidate(ctx context.Context)
}

// SummaryCache holds one computed value per user, valid only for the
// fingerprint it was stored with.
type SummaryCache interface {
	Get(ctx context.Context, userID string, fingerprint, dst any) bool
	Set(ctx context.Context, userID string, fingerprint, v any)
}

// ServiceConfig holds dependencies for the progress service.
type ServiceConfig struct {
	Content     Content // required
	Store       activity.Store
	Events      EventLogger
	Notifier    Notifier
	Leaderboard LeaderboardCache
	Summaries   SummaryCache
	Now         func() time.Time
}

// Service is the progression and achievement core.
type Service struct {
	content     Content
	store       activity.Store
	events      EventLogger
	notifier    Notifier
	leaderboard LeaderboardCache
	summaries   SummaryCache
	now         func() time.Time
}

// NewService creates a progress service. Missing optional dependencies fall
// back to in-memory or no-op implementations.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Store
	if store == nil {
		store = activity.NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	lb := cfg.Leaderboard
	if lb == nil {
		lb = nopLeaderboardCache{}
	}
	summaries := cfg.Summaries
	if summaries == nil {
		summaries = nopSummaryCache{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		content:     cfg.Content,
		store:       store,
		events:      events,
		notifier:    notifier,
		leaderboard: lb,
		summaries:   summaries,
		now:         now,
	}
}

// Outcome is the result of a write: the badges it unlocked and the learner's
// totals afterwards.
type Outcome struct {
	NewBadges []badge.Badge             `json:"new_badges"`
	Summary   achievement.GlobalSummary `json:"summary"`
}

// QuizOutcome is an Outcome for a graded submission.
type QuizOutcome struct {
	Result quiz.Result `json:"result"`
	Outcome
}

// CompleteLesson records that userID finished lessonID. The lesson must be
// accessible.
func (s *Service) CompleteLesson(ctx context.Context, userID, lessonID string) (Outcome, error) {
	lesson, ok := s.content.Lesson(lessonID)
	if !ok {
		return Outcome{}, fmt.Errorf("lesson %q: %w", lessonID, ErrNotFound)
	}

	snap, err := activity.LoadSnapshot(ctx, s.store, userID)
	if err != nil {
		return Outcome{}, err
	}
	if !s.lessonAccessible(snap, lesson) {
		return Outcome{}, fmt.Errorf("lesson %q: %w", lessonID, ErrLocked)
	}
	before := s.summarize(snap)

	if err := s.store.CompleteLesson(ctx, activity.LessonCompletion{
		UserID:       userID,
		LessonID:     lesson.ID,
		DisciplineID: lesson.DisciplineID,
		CompletedAt:  s.now(),
	}); err != nil {
		return Outcome{}, fmt.Errorf("complete lesson: %w", err)
	}
	s.logEvent(userID, EventLessonCompleted, map[string]any{
		"lesson_id":     lesson.ID,
		"discipline_id": lesson.DisciplineID,
	})

	return s.settle(ctx, userID, before)
}

// SubmitLessonQuiz grades the quiz of lessonID. The latest attempt replaces
// earlier ones; a passing attempt also completes the lesson.
func (s *Service) SubmitLessonQuiz(ctx context.Context, userID, lessonID string, answers quiz.Answers) (QuizOutcome, error) {
	lesson, ok := s.content.Lesson(lessonID)
	if !ok {
		return QuizOutcome{}, fmt.Errorf("lesson %q: %w", lessonID, ErrNotFound)
	}

	snap, err := activity.LoadSnapshot(ctx, s.store, userID)
	if err != nil {
		return QuizOutcome{}, err
	}
	if !s.lessonAccessible(snap, lesson) {
		return QuizOutcome{}, fmt.Errorf("lesson %q: %w", lessonID, ErrLocked)
	}

	res, err := quiz.Evaluate(quiz.KindLesson, s.content.LessonQuestions(lesson.ID), answers)
	if err != nil {
		return QuizOutcome{}, err
	}
	before := s.summarize(snap)
	now := s.now()

	if err := s.store.UpsertLessonQuizResult(ctx, activity.LessonQuizResult{
		UserID:         userID,
		LessonID:       lesson.ID,
		DisciplineID:   lesson.DisciplineID,
		Score:          res.Percent,
		CorrectAnswers: res.Correct,
		TotalQuestions: res.Total,
		Passed:         res.Passed,
		CompletedAt:    now,
	}); err != nil {
		return QuizOutcome{}, fmt.Errorf("save lesson quiz result: %w", err)
	}
	s.logQuiz(userID, res, "lesson_id", lesson.ID)

	if res.Passed {
		if err := s.store.CompleteLesson(ctx, activity.LessonCompletion{
			UserID:       userID,
			LessonID:     lesson.ID,
			DisciplineID: lesson.DisciplineID,
			CompletedAt:  now,
		}); err != nil {
			return QuizOutcome{}, fmt.Errorf("complete lesson: %w", err)
		}
		s.logEvent(userID, EventLessonCompleted, map[string]any{
			"lesson_id":     lesson.ID,
			"discipline_id": lesson.DisciplineID,
		})
	}

	out, err := s.settle(ctx, userID, before)
	if err != nil {
		return QuizOutcome{}, err
	}
	return QuizOutcome{Result: res, Outcome: out}, nil
}

// SubmitFinalQuiz grades the final quiz of disciplineID. The quiz unlocks
// once every lesson of an accessible discipline is done. A passing attempt
// marks the discipline completed, which unlocks the next one.
func (s *Service) SubmitFinalQuiz(ctx context.Context, userID, disciplineID string, answers quiz.Answers) (QuizOutcome, error) {
	if _, ok := s.content.Discipline(disciplineID); !ok {
		return QuizOutcome{}, fmt.Errorf("discipline %q: %w", disciplineID, ErrNotFound)
	}

	snap, err := activity.LoadSnapshot(ctx, s.store, userID)
	if err != nil {
		return QuizOutcome{}, err
	}
	if !s.finalQuizUnlocked(snap, disciplineID) {
		return QuizOutcome{}, fmt.Errorf("final quiz of %q: %w", disciplineID, ErrLocked)
	}

	res, err := quiz.Evaluate(quiz.KindFinal, s.content.FinalQuestions(disciplineID), answers)
	if err != nil {
		return QuizOutcome{}, err
	}
	before := s.summarize(snap)
	now := s.now()

	if err := s.store.UpsertDisciplineQuizResult(ctx, activity.DisciplineQuizResult{
		UserID:         userID,
		DisciplineID:   disciplineID,
		Score:          res.Percent,
		CorrectAnswers: res.Correct,
		TotalQuestions: res.Total,
		Passed:         res.Passed,
		CompletedAt:    now,
	}); err != nil {
		return QuizOutcome{}, fmt.Errorf("save final quiz result: %w", err)
	}
	s.logQuiz(userID, res, "discipline_id", disciplineID)

	if res.Passed {
		if err := s.store.MarkDisciplineCompleted(ctx, activity.DisciplineCompletion{
			UserID:       userID,
			DisciplineID: disciplineID,
			Completed:    true,
			CompletedAt:  now,
		}); err != nil {
			return QuizOutcome{}, fmt.Errorf("mark discipline completed: %w", err)
		}
	}

	out, err := s.settle(ctx, userID, before)
	if err != nil {
		return QuizOutcome{}, err
	}
	return QuizOutcome{Result: res, Outcome: out}, nil
}

// Leaderboard returns the ranked standings, at most limit of them when limit
// is positive.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]leaderboard.Standing, error) {
	if cached, ok := s.leaderboard.Get(ctx, limit); ok {
		return cached, nil
	}

	totals, err := s.store.BadgeTotals(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load badge totals: %w", err)
	}
	entries := make([]leaderboard.Entry, len(totals))
	for i, t := range totals {
		entries[i] = leaderboard.Entry{
			UserID:      t.UserID,
			DisplayName: t.DisplayName,
			BadgeCount:  t.BadgeCount,
		}
	}
	standings := leaderboard.Top(leaderboard.Rank(entries), limit)

	s.leaderboard.Set(ctx, limit, standings)
	return standings, nil
}

// settle recomputes badges from a fresh snapshot, then publishes what
// changed relative to before.
func (s *Service) settle(ctx context.Context, userID string, before achievement.GlobalSummary) (Outcome, error) {
	snap, err := activity.LoadSnapshot(ctx, s.store, userID)
	if err != nil {
		return Outcome{}, err
	}
	after := s.summarize(snap)
	earned := badge.NewlyEarned(before.Badges, after.Badges)

	// Always rewritten: the stored count may predate a curriculum reload.
	if err := s.storeBadgeTotal(ctx, activity.BadgeTotal{
		UserID:     userID,
		BadgeCount: after.TotalBadges,
		UpdatedAt:  s.now(),
	}); err != nil {
		return Outcome{}, err
	}

	for _, b := range earned {
		s.logEvent(userID, EventBadgeEarned, map[string]any{
			"badge_id":      string(b.ID),
			"tier":          b.Tier.String(),
			"discipline_id": b.DisciplineID,
			"lesson_id":     b.LessonID,
		})
	}
	if len(earned) > 0 {
		s.notifier.BadgesEarned(userID, earned)
		slog.Info("badges earned", "user_id", userID, "count", len(earned), "total", after.TotalBadges)
	}

	if earned == nil {
		earned = []badge.Badge{}
	}
	return Outcome{NewBadges: earned, Summary: after}, nil
}

// SetDisplayName sets the name userID is shown with on the leaderboard.
func (s *Service) SetDisplayName(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("%w: must be 1 to %d characters", ErrInvalidName, MaxDisplayNameLength)
	}

	snap, err := activity.LoadSnapshot(ctx, s.store, userID)
	if err != nil {
		return err
	}
	return s.storeBadgeTotal(ctx, activity.BadgeTotal{
		UserID:      userID,
		DisplayName: name,
		BadgeCount:  s.summarize(snap).TotalBadges,
		UpdatedAt:   s.now(),
	})
}

// storeBadgeTotal writes the leaderboard projection and drops cached
// standings when it changed.
func (s *Service) storeBadgeTotal(ctx context.Context, t activity.BadgeTotal) error {
	changed, err := s.store.SetBadgeTotal(ctx, t)
	if err != nil {
		return fmt.Errorf("set badge total: %w", err)
	}
	if changed {
		s.leaderboard.Invalidate(ctx)
	}
	return nil
}

// summarize runs the badge engine over every discipline of the curriculum.
func (s *Service) summarize(snap activity.Snapshot) achievement.GlobalSummary {
	return achievement.AggregateGlobal(s.disciplineBadges(snap))
}

func (s *Service) disciplineBadges(snap activity.Snapshot) []achievement.DisciplineBadges {
	disciplines := s.content.Disciplines()
	results := make([]achievement.DisciplineBadges, len(disciplines))
	for i, d := range disciplines {
		results[i] = achievement.ComputeDisciplineBadges(snap.Input(d.ID, s.content.Lessons(d.ID)))
	}
	return results
}

func (s *Service) lessonAccessible(snap activity.Snapshot, lesson curriculum.Lesson) bool {
	disciplines := s.content.Disciplines()
	di := slices.IndexFunc(disciplines, func(d curriculum.Discipline) bool { return d.ID == lesson.DisciplineID })
	if !progression.IsDisciplineAccessible(disciplines, snap.CompletedDisciplines(), di) {
		return false
	}
	lessons := s.content.Lessons(lesson.DisciplineID)
	li := slices.IndexFunc(lessons, func(l curriculum.Lesson) bool { return l.ID == lesson.ID })
	return progression.IsLessonAccessible(lessons, snap.DoneLessons(), li)
}

func (s *Service) finalQuizUnlocked(snap activity.Snapshot, disciplineID string) bool {
	disciplines := s.content.Disciplines()
	di := slices.IndexFunc(disciplines, func(d curriculum.Discipline) bool { return d.ID == disciplineID })
	if !progression.IsDisciplineAccessible(disciplines, snap.CompletedDisciplines(), di) {
		return false
	}
	lessons := s.content.Lessons(disciplineID)
	return progression.IsQuizUnlocked(len(lessons), progression.CountCompleted(lessons, snap.DoneLessons()))
}

func (s *Service) logQuiz(userID string, res quiz.Result, scopeKey, scopeID string) {
	s.logEvent(userID, EventQuizSubmitted, map[string]any{
		"kind":    string(res.Kind),
		scopeKey:  scopeID,
		"score":   res.Percent,
		"correct": res.Correct,
		"total":   res.Total,
		"passed":  res.Passed,
	})
}

func (s *Service) logEvent(userID, eventType string, data map[string]any) {
	if err := s.events.LogEvent(Event{
		UserID:    userID,
		EventType: eventType,
		Data:      data,
		CreatedAt: s.now(),
	}); err != nil {
		slog.Warn("failed to log event", "type", eventType, "user_id", userID, "error", err)
	}
}

type nopNotifier struct{}

func (nopNotifier) BadgesEarned(string, []badge.Badge) {}

type nopLeaderboardCache struct{}

func (nopLeaderboardCache) Get(context.Context, int) ([]leaderboard.Standing, bool) { return nil, false }
func (nopLeaderboardCache) Set(context.Context, int, []leaderboard.Standing)         {}
func (nopLeaderboardCache) Invalidate(context.Context)                              {}

type nopSummaryCache struct{}

func (nopSummaryCache) Get(context.Context, string, any, any) bool { return false }
func (nopSummaryCache) Set(context.Context, string, any, any)      {}
