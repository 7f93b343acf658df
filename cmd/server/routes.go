package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/p-n-ai/pai-academy/internal/activity"
	"github.com/p-n-ai/pai-academy/internal/badge"
	"github.com/p-n-ai/pai-academy/internal/notify"
	"github.com/p-n-ai/pai-academy/internal/progress"
	"github.com/p-n-ai/pai-academy/internal/quiz"
	"github.com/p-n-ai/pai-academy/internal/report"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	readyTimeout            = 2 * time.Second
)

type server struct {
	svc    *progress.Service
	hub    *notify.Hub
	checks map[string]func(context.Context) error
}

type submission struct {
	Answers quiz.Answers `json:"answers"`
}

type profile struct {
	DisplayName string `json:"display_name"`
}

// newMux creates the HTTP router.
func newMux(s *server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/users/{user}/overview", s.handleOverview)
	mux.HandleFunc("PUT /api/users/{user}/display-name", s.handleDisplayName)
	mux.HandleFunc("POST /api/users/{user}/lessons/{lesson}/complete", s.handleCompleteLesson)
	mux.HandleFunc("POST /api/users/{user}/lessons/{lesson}/quiz", s.handleLessonQuiz)
	mux.HandleFunc("POST /api/users/{user}/disciplines/{discipline}/quiz", s.handleFinalQuiz)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/reports/admin.xlsx", s.handleAdminReport)
	mux.Handle("GET /ws/badges", notify.Handler(s.hub))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := map[string]string{}
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		slog.Warn("readiness check failed", "failed", failed)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (s *server) handleOverview(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Overview(r.Context(), r.PathValue("user"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Localized(r.Header.Get("Accept-Language")))
}

func (s *server) handleDisplayName(w http.ResponseWriter, r *http.Request) {
	var body profile
	if !decode(w, r, &body) {
		return
	}
	if err := s.svc.SetDisplayName(r.Context(), r.PathValue("user"), body.DisplayName); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.CompleteLesson(r.Context(), r.PathValue("user"), r.PathValue("lesson"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, localizeOutcome(out, r))
}

func (s *server) handleLessonQuiz(w http.ResponseWriter, r *http.Request) {
	var body submission
	if !decode(w, r, &body) {
		return
	}
	out, err := s.svc.SubmitLessonQuiz(r.Context(), r.PathValue("user"), r.PathValue("lesson"), body.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	out.Outcome = localizeOutcome(out.Outcome, r)
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleFinalQuiz(w http.ResponseWriter, r *http.Request) {
	var body submission
	if !decode(w, r, &body) {
		return
	}
	out, err := s.svc.SubmitFinalQuiz(r.Context(), r.PathValue("user"), r.PathValue("discipline"), body.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	out.Outcome = localizeOutcome(out.Outcome, r)
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be between 1 and " + strconv.Itoa(maxLeaderboardLimit),
			})
			return
		}
		limit = n
	}

	standings, err := s.svc.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"standings": standings})
}

func (s *server) handleAdminReport(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.AdminReport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteAdmin(&buf, data); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="admin-report.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func localizeOutcome(out progress.Outcome, r *http.Request) progress.Outcome {
	accept := r.Header.Get("Accept-Language")
	out.NewBadges = badge.LocalizeAll(out.NewBadges, accept)
	out.Summary.Badges = badge.LocalizeAll(out.Summary.Badges, accept)
	return out
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrIncompleteSubmission), errors.Is(err, activity.ErrInvalidID),
		errors.Is(err, progress.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, progress.ErrLocked):
		return http.StatusForbidden
	case errors.Is(err, progress.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := map[string]any{"error": err.Error()}

	var ve *quiz.ValidationError
	if errors.As(err, &ve) {
		body["missing"] = ve.Missing
	}
	if status == http.StatusInternalServerError {
		if errors.Is(err, quiz.ErrInvalidContent) {
			slog.Error("invalid quiz content", "error", err)
		} else {
			slog.Error("request failed", "error", err)
			body["error"] = "internal error"
		}
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}
