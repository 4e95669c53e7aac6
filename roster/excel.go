package roster

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"rollcall-scores-go/models"
)

// ParseStudentsExcel reads students from the first sheet of a workbook.
// Row 1 is a header; column A is the student ID and column B the name.
// Rows missing either value are skipped.
func ParseStudentsExcel(r io.Reader, classID string, logger *zap.Logger) ([]models.Student, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing excel file", zap.Error(err))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	students := make([]models.Student, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}

		var studentID, studentName string
		if len(row) > 0 {
			studentID = row[0]
		}
		if len(row) > 1 {
			studentName = row[1]
		}

		if studentID == "" || studentName == "" {
			logger.Debug("Skipping roster row with missing ID or Name",
				zap.Int("row", i+1), zap.String("id", studentID), zap.String("name", studentName))
			continue
		}

		students = append(students, models.Student{
			ID:      studentID,
			Name:    studentName,
			ClassID: classID,
		})
	}
	return students, nil
}
