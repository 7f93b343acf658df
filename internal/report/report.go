// Package report renders admin reports as Excel workbooks.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-academy/internal/progress"
)

// Sheet names of the admin workbook.
const (
	LeaderboardSheet = "Leaderboard"
	DisciplinesSheet = "Disciplines"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	leaderboardHeader = []any{"Position", "User", "Name", "Badges", "Medal"}
	disciplinesHeader = []any{"Order", "Discipline", "Learners completed", "Final quiz attempts", "Mean final score"}
)

// WriteAdmin renders r as a workbook with a leaderboard sheet and a
// disciplines sheet and writes it to w. Positions are shown 1-based.
func WriteAdmin(w io.Writer, r progress.AdminReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LeaderboardSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(DisciplinesSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	leaderboardRows := make([][]any, len(r.Standings))
	for i, s := range r.Standings {
		leaderboardRows[i] = []any{s.Position + 1, s.UserID, s.DisplayName, s.BadgeCount, string(s.Medal)}
	}
	if err := writeSheet(f, LeaderboardSheet, header, leaderboardHeader, leaderboardRows); err != nil {
		return err
	}

	disciplineRows := make([][]any, len(r.Disciplines))
	for i, d := range r.Disciplines {
		disciplineRows[i] = []any{
			d.Discipline.OrderIndex,
			d.Discipline.Name,
			d.Completed,
			d.Attempts,
			math.Round(d.MeanFinalScore*10) / 10,
		}
	}
	if err := writeSheet(f, DisciplinesSheet, header, disciplinesHeader, disciplineRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return fmt.Errorf("%s column width: %w", sheet, err)
	}
	return nil
}
