package progress

import (
	"context"
	"fmt"

	"github.com/p-n-ai/pai-academy/internal/activity"
	"github.com/p-n-ai/pai-academy/internal/curriculum"
	"github.com/p-n-ai/pai-academy/internal/leaderboard"
)

// DisciplineReport is the admin view of one discipline.
type DisciplineReport struct {
	Discipline curriculum.Discipline `json:"discipline"`
	activity.DisciplineStat
}

// AdminReport is the data behind the admin reports page.
type AdminReport struct {
	Standings   []leaderboard.Standing `json:"standings"`
	Disciplines []DisciplineReport     `json:"disciplines"`
}

// AdminReport collects the full leaderboard and per-discipline final quiz
// statistics in curriculum order. Disciplines nobody attempted are listed
// with zero values.
func (s *Service) AdminReport(ctx context.Context) (AdminReport, error) {
	standings, err := s.Leaderboard(ctx, 0)
	if err != nil {
		return AdminReport{}, err
	}
	stats, err := s.store.DisciplineStats(ctx)
	if err != nil {
		return AdminReport{}, fmt.Errorf("load discipline stats: %w", err)
	}
	byID := make(map[string]activity.DisciplineStat, len(stats))
	for _, st := range stats {
		byID[st.DisciplineID] = st
	}

	disciplines := s.content.Disciplines()
	rows := make([]DisciplineReport, len(disciplines))
	for i, d := range disciplines {
		st, ok := byID[d.ID]
		if !ok {
			st = activity.DisciplineStat{DisciplineID: d.ID}
		}
		rows[i] = DisciplineReport{Discipline: d, DisciplineStat: st}
	}
	return AdminReport{Standings: standings, Disciplines: rows}, nil
}
