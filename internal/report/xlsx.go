package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX workbook.
const (
	SheetGroups  = "Groups"
	SheetMembers = "Members"
	SheetSummary = "Summary"
)

// XLSXWriter outputs group reports as an Excel workbook.
type XLSXWriter struct {
	baseWriter
}

// NewXLSXWriter creates an XLSXWriter that outputs to the given writer.
func NewXLSXWriter(output io.Writer) *XLSXWriter {
	return &XLSXWriter{baseWriter: newBaseWriter(output)}
}

// Write builds the workbook in memory and writes it to the output.
func (w *XLSXWriter) Write(report *Report) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetGroups); err != nil {
		return 0, err
	}
	for _, name := range []string{SheetMembers, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return 0, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}

	groups := [][]any{{"group_id", "count", "websites"}}
	members := [][]any{{"group_id", "domain", "logo_url", "hash"}}
	for _, g := range report.Groups {
		groups = append(groups, []any{g.ID, g.Size(), g.Websites()})
		for _, m := range g.Members {
			members = append(members, []any{g.ID, m.Domain, m.LogoURL, m.Hash.String()})
		}
	}

	s := report.Summary
	summary := [][]any{
		{"metric", "value"},
		{"run_id", s.RunID},
		{"total", s.Total},
		{"extracted", s.Extracted},
		{"extraction_rate", fmt.Sprintf("%.1f%%", s.ExtractionRate())},
		{"hashed", s.Hashed},
		{"no_logo", s.NoLogo},
		{"unreadable", s.Unreadable},
		{"errors", s.Errors},
		{"similar_groups", s.SimilarGroups},
		{"unique_logos", s.UniqueLogos},
		{"comparisons", s.Comparisons},
		{"unions", s.Unions},
	}

	sheets := []struct {
		name  string
		rows  [][]any
		width []float64
	}{
		{SheetGroups, groups, []float64{10, 8, 80}},
		{SheetMembers, members, []float64{10, 30, 60, 20}},
		{SheetSummary, summary, []float64{18, 40}},
	}
	for _, sh := range sheets {
		if err := writeRows(f, sh.name, sh.rows, bold); err != nil {
			return 0, err
		}
		for i, width := range sh.width {
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return 0, err
			}
			if err := f.SetColWidth(sh.name, col, col, width); err != nil {
				return 0, err
			}
		}
	}

	n, err := f.WriteTo(w.output)
	return int(n), err
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}
