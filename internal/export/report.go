// Package export writes batch import results to spreadsheets.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/resume-importer/internal/gate"
)

// Sheet names used in the import report.
const (
	SummarySheet = "Summary"
	ImportsSheet = "Imports"
)

// ReportRow is one imported file in a batch report.
type ReportRow struct {
	File           string
	Success        bool
	Classification string
	Name           string
	Email          string
	Skills         int
	Jobs           int
	Error          string
}

var importHeaders = []string{"File", "Success", "Classification", "Name", "Email", "Skills", "Jobs", "Error"}

// WriteImportReport writes rows to an .xlsx workbook at path. The extension is
// added when missing; the returned path is the file actually written.
func WriteImportReport(path string, rows []ReportRow) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return "", fmt.Errorf("failed to rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(ImportsSheet); err != nil {
		return "", fmt.Errorf("failed to create imports sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, rows, headerStyle); err != nil {
		return "", fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if err := writeImports(f, rows, headerStyle); err != nil {
		return "", fmt.Errorf("failed to write imports sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return path, nil
}

// Summarize counts rows by outcome.
func Summarize(rows []ReportRow) (total, succeeded, sparse, failed int) {
	for _, r := range rows {
		total++
		switch {
		case !r.Success:
			failed++
		case r.Classification == string(gate.SparseNeedsManualEntry):
			succeeded++
			sparse++
		default:
			succeeded++
		}
	}
	return total, succeeded, sparse, failed
}

func writeSummary(f *excelize.File, rows []ReportRow, headerStyle int) error {
	total, succeeded, sparse, failed := Summarize(rows)

	if err := f.SetColWidth(SummarySheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 12); err != nil {
		return err
	}

	cells := [][]interface{}{
		{"Metric", "Count"},
		{"Files", total},
		{"Parsed", succeeded},
		{"Needs manual entry", sparse},
		{"Failed", failed},
	}
	for i, row := range cells {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SummarySheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle)
}

func writeImports(f *excelize.File, rows []ReportRow, headerStyle int) error {
	widths := []float64{32, 10, 26, 24, 28, 8, 8, 48}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(ImportsSheet, col, col, w); err != nil {
			return err
		}
	}

	for i, h := range importHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ImportsSheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(importHeaders), 1)
	if err := f.SetCellStyle(ImportsSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		values := []interface{}{r.File, r.Success, r.Classification, r.Name, r.Email, r.Skills, r.Jobs, r.Error}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ImportsSheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
