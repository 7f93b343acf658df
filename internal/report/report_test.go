package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-academy/internal/activity"
	"github.com/p-n-ai/pai-academy/internal/curriculum"
	"github.com/p-n-ai/pai-academy/internal/leaderboard"
	"github.com/p-n-ai/pai-academy/internal/progress"
	"github.com/p-n-ai/pai-academy/internal/report"
)

func TestWriteAdmin(t *testing.T) {
	data := progress.AdminReport{
		Standings: leaderboard.Rank([]leaderboard.Entry{
			{UserID: "u2", DisplayName: "Bruno", BadgeCount: 3},
			{UserID: "u1", DisplayName: "Ana", BadgeCount: 9},
		}),
		Disciplines: []progress.DisciplineReport{
			{
				Discipline:     curriculum.Discipline{ID: "onboarding", Name: "Onboarding", OrderIndex: 1},
				DisciplineStat: activity.DisciplineStat{DisciplineID: "onboarding", Completed: 2, Attempts: 3, MeanFinalScore: 83.333},
			},
			{
				Discipline:     curriculum.Discipline{ID: "compliance", Name: "Compliance", OrderIndex: 2},
				DisciplineStat: activity.DisciplineStat{DisciplineID: "compliance"},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteAdmin(&buf, data))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.LeaderboardSheet, report.DisciplinesSheet}, f.GetSheetList())

	rows, err := f.GetRows(report.LeaderboardSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Position", "User", "Name", "Badges", "Medal"}, rows[0])
	assert.Equal(t, []string{"1", "u1", "Ana", "9", "gold"}, rows[1])
	assert.Equal(t, []string{"2", "u2", "Bruno", "3", "silver"}, rows[2])

	rows, err = f.GetRows(report.DisciplinesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Onboarding", rows[1][1])
	assert.Equal(t, "2", rows[1][2])
	assert.Equal(t, "83.3", rows[1][4])
	assert.Equal(t, []string{"2", "Compliance", "0", "0", "0"}, rows[2])
}

func TestWriteAdmin_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteAdmin(&buf, progress.AdminReport{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.LeaderboardSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
