package activity

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema. Every statement is idempotent, so it
// is safe to run on each start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)

	for _, name := range names {
		sql, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		slog.Info("migration applied", "name", name)
	}
	return nil
}

// PostgresStore is a PostgreSQL-backed Store implementation. User ids are
// UUIDs; content ids are the slugs from the curriculum files.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CompleteLesson(ctx context.Context, c LessonCompletion) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	userID, err := parseUserID(c.UserID)
	if err != nil {
		return err
	}
	if c.LessonID == "" {
		return fmt.Errorf("lesson_id is required: %w", ErrInvalidID)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lesson_progress (user_id, lesson_id, discipline_id, completed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, lesson_id) DO NOTHING`,
		userID,
		c.LessonID,
		c.DisciplineID,
		orNow(c.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert lesson progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertLessonQuizResult(ctx context.Context, r LessonQuizResult) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	userID, err := parseUserID(r.UserID)
	if err != nil {
		return err
	}
	if r.LessonID == "" {
		return fmt.Errorf("lesson_id is required: %w", ErrInvalidID)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lesson_quiz_results
		   (user_id, lesson_id, discipline_id, score, correct_answers, total_questions, passed, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, lesson_id) DO UPDATE SET
		   discipline_id = EXCLUDED.discipline_id,
		   score = EXCLUDED.score,
		   correct_answers = EXCLUDED.correct_answers,
		   total_questions = EXCLUDED.total_questions,
		   passed = EXCLUDED.passed,
		   completed_at = EXCLUDED.completed_at`,
		userID,
		r.LessonID,
		r.DisciplineID,
		r.Score,
		r.CorrectAnswers,
		r.TotalQuestions,
		r.Passed,
		orNow(r.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert lesson quiz result: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertDisciplineQuizResult(ctx context.Context, r DisciplineQuizResult) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	userID, err := parseUserID(r.UserID)
	if err != nil {
		return err
	}
	if r.DisciplineID == "" {
		return fmt.Errorf("discipline_id is required: %w", ErrInvalidID)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_results
		   (user_id, discipline_id, score, correct_answers, total_questions, passed, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, discipline_id) DO UPDATE SET
		   score = EXCLUDED.score,
		   correct_answers = EXCLUDED.correct_answers,
		   total_questions = EXCLUDED.total_questions,
		   passed = EXCLUDED.passed,
		   completed_at = EXCLUDED.completed_at`,
		userID,
		r.DisciplineID,
		r.Score,
		r.CorrectAnswers,
		r.TotalQuestions,
		r.Passed,
		orNow(r.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert discipline quiz result: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkDisciplineCompleted(ctx context.Context, c DisciplineCompletion) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	userID, err := parseUserID(c.UserID)
	if err != nil {
		return err
	}
	if c.DisciplineID == "" {
		return fmt.Errorf("discipline_id is required: %w", ErrInvalidID)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_progress (user_id, discipline_id, completed, completed_at)
		 VALUES ($1, $2, TRUE, $3)
		 ON CONFLICT (user_id, discipline_id) DO UPDATE SET
		   completed = TRUE,
		   completed_at = COALESCE(user_progress.completed_at, EXCLUDED.completed_at)`,
		userID,
		c.DisciplineID,
		orNow(c.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("mark discipline completed: %w", err)
	}
	return nil
}

func (s *PostgresStore) LessonCompletions(ctx context.Context, userID string) ([]LessonCompletion, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id::text, lesson_id, discipline_id, completed_at
		 FROM lesson_progress
		 WHERE user_id = $1
		 ORDER BY lesson_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query lesson progress: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[LessonCompletion])
	if err != nil {
		return nil, fmt.Errorf("scan lesson progress: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) LessonQuizResults(ctx context.Context, userID string) ([]LessonQuizResult, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id::text, lesson_id, discipline_id, score, correct_answers, total_questions, passed, completed_at
		 FROM lesson_quiz_results
		 WHERE user_id = $1
		 ORDER BY lesson_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query lesson quiz results: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[LessonQuizResult])
	if err != nil {
		return nil, fmt.Errorf("scan lesson quiz results: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DisciplineQuizResults(ctx context.Context, userID string) ([]DisciplineQuizResult, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id::text, discipline_id, score, correct_answers, total_questions, passed, completed_at
		 FROM quiz_results
		 WHERE user_id = $1
		 ORDER BY discipline_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query quiz results: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[DisciplineQuizResult])
	if err != nil {
		return nil, fmt.Errorf("scan quiz results: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DisciplineCompletions(ctx context.Context, userID string) ([]DisciplineCompletion, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id::text, discipline_id, completed, completed_at
		 FROM user_progress
		 WHERE user_id = $1 AND completed
		 ORDER BY discipline_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query user progress: %w", err)
	}
	defer rows.Close()

	var out []DisciplineCompletion
	for rows.Next() {
		var c DisciplineCompletion
		var completedAt *time.Time
		if err := rows.Scan(&c.UserID, &c.DisciplineID, &c.Completed, &completedAt); err != nil {
			return nil, fmt.Errorf("scan user progress: %w", err)
		}
		if completedAt != nil {
			c.CompletedAt = *completedAt
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user progress: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SetBadgeTotal(ctx context.Context, t BadgeTotal) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	userID, err := parseUserID(t.UserID)
	if err != nil {
		return false, err
	}

	// The WHERE clause skips no-op updates so RowsAffected reports a change.
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO user_badge_totals (user_id, display_name, badge_count, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
		   display_name = COALESCE(EXCLUDED.display_name, user_badge_totals.display_name),
		   updated_at = CASE
		     WHEN user_badge_totals.badge_count <> EXCLUDED.badge_count THEN EXCLUDED.updated_at
		     ELSE user_badge_totals.updated_at
		   END,
		   badge_count = EXCLUDED.badge_count
		 WHERE user_badge_totals.badge_count <> EXCLUDED.badge_count
		    OR (EXCLUDED.display_name IS NOT NULL
		        AND user_badge_totals.display_name IS DISTINCT FROM EXCLUDED.display_name)`,
		userID,
		nullIfEmpty(t.DisplayName),
		t.BadgeCount,
		orNow(t.UpdatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("set badge total: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) BadgeTotals(ctx context.Context, limit int) ([]BadgeTotal, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id::text, COALESCE(display_name, ''), badge_count, updated_at
		 FROM user_badge_totals
		 ORDER BY badge_count DESC, updated_at ASC, user_id ASC
		 LIMIT $1`,
		lim,
	)
	if err != nil {
		return nil, fmt.Errorf("query badge totals: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[BadgeTotal])
	if err != nil {
		return nil, fmt.Errorf("scan badge totals: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DisciplineStats(ctx context.Context) ([]DisciplineStat, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT discipline_id,
		        COALESCE(SUM(completed), 0)::int,
		        COALESCE(SUM(attempts), 0)::int,
		        COALESCE(AVG(score), 0)::float8
		 FROM (
		   SELECT discipline_id, 0 AS completed, 1 AS attempts, score FROM quiz_results
		   UNION ALL
		   SELECT discipline_id, 1, 0, NULL FROM user_progress WHERE completed
		 ) s
		 GROUP BY discipline_id
		 ORDER BY discipline_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query discipline stats: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[DisciplineStat])
	if err != nil {
		return nil, fmt.Errorf("scan discipline stats: %w", err)
	}
	return out, nil
}

// Migrate applies the embedded schema through the store's pool.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.pool)
}

// Ping checks the pool, for readiness probes.
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

func parseUserID(v string) (uuid.UUID, error) {
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user_id %q: %w", v, ErrInvalidID)
	}
	return id, nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
