package progress

import (
	"context"

	"github.com/p-n-ai/pai-academy/internal/achievement"
	"github.com/p-n-ai/pai-academy/internal/activity"
	"github.com/p-n-ai/pai-academy/internal/badge"
	"github.com/p-n-ai/pai-academy/internal/curriculum"
	"github.com/p-n-ai/pai-academy/internal/progression"
)

// DisciplineOverview is one discipline as a learner sees it.
type DisciplineOverview struct {
	progression.DisciplineState
	Achievements achievement.DisciplineBadges `json:"achievements"`
}

// Overview is a learner's whole curriculum: what is open, what is done and
// what was earned.
type Overview struct {
	UserID      string                    `json:"user_id"`
	Disciplines []DisciplineOverview      `json:"disciplines"`
	Summary     achievement.GlobalSummary `json:"summary"`
}

// fingerprint identifies the inputs an Overview is computed from. The
// ordered curriculum is part of it so a reload that reorders, renames or
// replaces content invalidates cached overviews.
type fingerprint struct {
	Snapshot activity.Snapshot `json:"snapshot"`
	Content  []contentEntry    `json:"content"`
}

type contentEntry struct {
	Discipline curriculum.Discipline `json:"discipline"`
	Lessons    []curriculum.Lesson   `json:"lessons"`
}

// Overview computes the gate and badge view for userID. Results are cached
// per snapshot; any new record produces a fresh computation.
func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	snap, err := activity.LoadSnapshot(ctx, s.store, userID)
	if err != nil {
		return Overview{}, err
	}

	disciplines := s.content.Disciplines()
	fp := fingerprint{Snapshot: snap, Content: make([]contentEntry, len(disciplines))}
	lessons := make(map[string][]curriculum.Lesson, len(disciplines))
	for i, d := range disciplines {
		ls := s.content.Lessons(d.ID)
		lessons[d.ID] = ls
		fp.Content[i] = contentEntry{Discipline: d, Lessons: ls}
	}

	var cached Overview
	if s.summaries.Get(ctx, userID, fp, &cached) {
		return cached, nil
	}

	states := progression.Map(disciplines, lessons, snap.CompletedDisciplines(), snap.DoneLessons())
	results := s.disciplineBadges(snap)

	out := Overview{
		UserID:      userID,
		Disciplines: make([]DisciplineOverview, len(states)),
		Summary:     achievement.AggregateGlobal(results),
	}
	for i := range states {
		out.Disciplines[i] = DisciplineOverview{DisciplineState: states[i], Achievements: results[i]}
	}

	s.summaries.Set(ctx, userID, fp, out)
	return out, nil
}

// Localized returns a copy of o with badge names and descriptions translated
// for an Accept-Language preference list.
func (o Overview) Localized(accept string) Overview {
	out := o
	out.Summary.Badges = badge.LocalizeAll(o.Summary.Badges, accept)
	out.Disciplines = make([]DisciplineOverview, len(o.Disciplines))
	for i, d := range o.Disciplines {
		d.Achievements.Badges = badge.LocalizeAll(d.Achievements.Badges, accept)
		lessons := make([]achievement.LessonBadges, len(d.Achievements.Lessons))
		for j, l := range d.Achievements.Lessons {
			lessons[j] = achievement.LessonBadges{LessonID: l.LessonID, Badges: badge.LocalizeAll(l.Badges, accept)}
		}
		d.Achievements.Lessons = lessons
		out.Disciplines[i] = d
	}
	return out
}
