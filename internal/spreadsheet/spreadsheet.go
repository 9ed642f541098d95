// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spreadsheet writes correspondence rows to xlsx workbooks, either
// as a fresh export or appended to a clerk-supplied template.
package spreadsheet

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/citaciones/pkg/types"
)

const (
	// ExportSheet is the sheet name of a fresh export.
	ExportSheet = "Correspondencia"
	// DefaultExportName is the download name of a fresh export.
	DefaultExportName = "correspondencia_citaciones.xlsx"
	// DefaultAppendName is used when the template had no file name.
	DefaultAppendName = "correspondencia_actualizada.xlsx"
)

// ColumnWidths are the character widths of the nine correspondence columns.
var ColumnWidths = []float64{5, 15, 8, 8, 20, 12, 40, 40, 20}

// Workbook is an xlsx file with the name it was uploaded or will be
// downloaded under.
type Workbook struct {
	Name string
	file *excelize.File
}

// Sheets lists the workbook's sheet names in order.
func (wb *Workbook) Sheets() []string {
	return wb.file.GetSheetList()
}

// DefaultSheet is the first sheet, or "" for an empty workbook.
func (wb *Workbook) DefaultSheet() string {
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

// Rows returns the cell text of sheet.
func (wb *Workbook) Rows(sheet string) ([][]string, error) {
	return wb.file.GetRows(sheet)
}

// WriteTo writes the xlsx bytes.
func (wb *Workbook) WriteTo(w io.Writer) (int64, error) {
	return wb.file.WriteTo(w)
}

// Close releases the workbook.
func (wb *Workbook) Close() error {
	return wb.file.Close()
}

// ExportNew builds a workbook with a header row and one row per
// correspondence entry.
func ExportNew(rows []types.CorrespondenceRow) (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(types.CorrespondenceHeaders))
	for i, h := range types.CorrespondenceHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.ColumnNumberToName(len(header))
		_ = f.SetCellStyle(ExportSheet, "A1", last+"1", style)
	}

	for i, row := range rows {
		if err := writeRow(f, ExportSheet, i+2, row.Values()); err != nil {
			return nil, err
		}
	}
	if err := setWidths(f, ExportSheet); err != nil {
		return nil, err
	}

	slog.Debug("correspondence exported", "rows", len(rows))
	return &Workbook{Name: DefaultExportName, file: f}, nil
}

// Open reads an uploaded xlsx template. name is the uploaded file name.
func Open(name string, r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTemplateFileUnreadable, err)
	}
	if len(f.GetSheetList()) == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: no sheets", types.ErrTemplateFileUnreadable)
	}
	return &Workbook{Name: name, file: f}, nil
}

// AppendToTemplate appends rows to sheet of wb, continuing the N° counter
// found in the first cell of the sheet's last row. It returns the name the
// updated workbook should be downloaded under. A missing sheet leaves wb
// untouched.
func AppendToTemplate(wb *Workbook, sheet string, rows []types.CorrespondenceRow) (string, error) {
	if sheet == "" {
		sheet = wb.DefaultSheet()
	}
	if !hasSheet(wb, sheet) {
		return "", fmt.Errorf("%w: %q", types.ErrTemplateSheetNotFound, sheet)
	}

	existing, err := wb.file.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	last := lastEntryNumber(existing)
	next := len(existing) + 1

	for i, row := range rows {
		row.Seq = last + i + 1
		if err := writeRow(wb.file, sheet, next+i, row.Values()); err != nil {
			return "", err
		}
	}
	if err := setWidths(wb.file, sheet); err != nil {
		return "", err
	}

	slog.Info("appended correspondence", "sheet", sheet, "rows", len(rows), "from", last+1)

	name := wb.Name
	if name == "" {
		name = DefaultAppendName
	}
	return name, nil
}

// lastEntryNumber reads the counter from the last row. A sheet with only a
// header, or a last row whose first cell does not start with digits, yields 0.
func lastEntryNumber(rows [][]string) int {
	if len(rows) <= 1 {
		return 0
	}
	lastRow := rows[len(rows)-1]
	if len(lastRow) == 0 {
		return 0
	}
	return leadingInt(lastRow[0])
}

// leadingInt parses the optional sign and digits at the start of s.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
	}
	if digits == 0 {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

func hasSheet(wb *Workbook, sheet string) bool {
	for _, s := range wb.Sheets() {
		if s == sheet {
			return true
		}
	}
	return false
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}

func setWidths(f *excelize.File, sheet string) error {
	for i, w := range ColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("setting width of %s: %w", col, err)
		}
	}
	return nil
}
