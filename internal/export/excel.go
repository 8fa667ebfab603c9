package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/blotterscan/blotterscan/internal/model"
)

// Excel sheet names.
const (
	resultsSheet = "Booking Results"
	summarySheet = "Summary"
)

// ExcelWriter outputs booking records as an Excel workbook with a results
// sheet and a summary sheet. The results sheet mirrors the CSV layout;
// the summary sheet carries run metadata and record statistics.
type ExcelWriter struct {
	baseWriter
}

// NewExcelWriter creates an ExcelWriter that outputs to the given writer.
func NewExcelWriter(output io.Writer) *ExcelWriter {
	return &ExcelWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run as an Excel workbook.
func (w *ExcelWriter) Write(run *model.Run) (int, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // In-memory workbook, nothing to flush

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return 0, err
	}
	if err := w.writeRecords(f, run.Records()); err != nil {
		return 0, err
	}
	if err := w.writeSummary(f, run); err != nil {
		return 0, err
	}

	n, err := f.WriteTo(w.output)
	return int(n), err
}

// writeRecords fills the results sheet with one row per booking record.
func (w *ExcelWriter) writeRecords(f *excelize.File, records []model.BookingRecord) error {
	header := model.FieldNames(records)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"003366"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	widths := make([]int, len(header))
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(resultsSheet, cell, name); err != nil {
			return err
		}
		widths[col] = len(name)
	}
	if len(header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(resultsSheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for row := range records {
		fields := records[row].Fields()
		for col, name := range header {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			value := fields[name]
			if err := f.SetCellValue(resultsSheet, cell, value); err != nil {
				return err
			}
			if len(value) > widths[col] {
				widths[col] = len(value)
			}
		}
	}

	// Size columns to their longest value, within sane bounds.
	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if width > 60 {
			width = 60
		}
		if err := f.SetColWidth(resultsSheet, name, name, float64(width)+4); err != nil {
			return err
		}
	}
	return nil
}

// writeSummary fills the summary sheet with run metadata and statistics.
func (w *ExcelWriter) writeSummary(f *excelize.File, run *model.Run) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	stats := model.Summarize(run.Records())
	rows := [][2]any{
		{"Run ID", run.ID},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", run.Elapsed.Round(time.Second).String()},
		{"Workers", run.Workers},
		{"Queries", len(run.Results)},
		{"Failed Queries", len(run.Failures())},
		{"Total Records", stats.Total},
		{"In Custody", stats.InCustody},
		{"Released", stats.Released},
		{"Unique Names", stats.UniqueNames},
		{"Average Days Served", stats.AvgDays},
		{"Longest Days Served", stats.MaxDays},
		{"Shortest Days Served", stats.MinDays},
	}

	for i, row := range rows {
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), row[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 40)
}
