// Package export renders pipeline data as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ApplicationSheet = "Applications"
)

var applicationHeaders = []string{"Candidate", "Email", "Phone", "Status", "Applied at", "Resume"}

// Applications writes the applications of a job as a single-sheet workbook.
// The first row names the job, the header follows after an empty row.
func Applications(w io.Writer, job *models.Job, apps []models.Application) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ApplicationSheet); err != nil {
		return err
	}
	if err := writeColumn(f, ApplicationSheet, 1, 1, fmt.Sprintf("%s (%s)", job.Title, job.Status)); err != nil {
		return err
	}

	row, err := writeHeader(f, ApplicationSheet, 2, applicationHeaders)
	if err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, app := range apps {
		row++
		values := []interface{}{
			app.CandidateName,
			app.CandidateEmail,
			app.CandidatePhone,
			string(app.Status),
			app.AppliedAt.UTC().Format(time.DateTime),
			app.ResumeRef,
		}
		for col, value := range values {
			if err := writeColumn(f, ApplicationSheet, col+1, row, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeColumn(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

// writeHeader writes bold headers on the row after the given one and
// returns the header row.
func writeHeader(f *excelize.File, sheet string, row int, headers []string) (int, error) {
	row++
	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Font:      &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return row, err
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return row, err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), row)
	if err != nil {
		return row, err
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return row, err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return row, err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 25); err != nil {
		return row, err
	}

	for idx, value := range headers {
		if err := writeColumn(f, sheet, idx+1, row, value); err != nil {
			return row, err
		}
	}
	return row, nil
}
