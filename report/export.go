package report

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"rollcall-scores-go/models"
)

const scoreSheet = "成績表"

// WriteXLSX exports a stored report as a single-sheet workbook laid out like
// the printed table, with the analysis rows below it.
func WriteXLSX(w io.Writer, r models.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), scoreSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []any{"姓名"}
	for _, s := range models.Subjects {
		header = append(header, string(s))
	}
	header = append(header, "平均")
	if err := f.SetSheetRow(scoreSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for _, rec := range r.Records {
		values := []any{rec.Name, rec.Chinese, rec.English, rec.Math, roundTo(rec.Average(), 2)}
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}

	row++ // blank line before the analysis
	analysis := [][]any{
		{"全班平均成績", roundTo(r.Summary.ClassAverage, 1)},
		{"最高分學生", r.Summary.Top.Name, roundTo(r.Summary.Top.Average, 1)},
		{"最低分學生", r.Summary.Bottom.Name, roundTo(r.Summary.Bottom.Average, 1)},
	}
	for _, values := range analysis {
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(scoreSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
