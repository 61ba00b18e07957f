package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// leaderFill is the background of cells that reach their line maximum
const leaderFill = "#C6EFCE"

// numberFormat is excelize's built-in "0.00" format
const numberFormat = 2

// WriteWorkbook writes the report as an XLSX workbook with one sheet per view.
func WriteWorkbook(w io.Writer, r *Report) error {
	f, err := buildWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the report workbook to path.
func SaveWorkbook(path string, r *Report) error {
	f, err := buildWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

type workbookStyles struct {
	header int
	number int
	leader int
}

func buildWorkbook(r *Report) (*excelize.File, error) {
	f := excelize.NewFile()

	styles, err := newWorkbookStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, sheet := range r.Sheets() {
		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), sheet.Name)
		} else {
			_, err = f.NewSheet(sheet.Name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %q: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet, styles); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to fill sheet %q: %w", sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.number, err = f.NewStyle(&excelize.Style{NumFmt: numberFormat}); err != nil {
		return s, err
	}
	s.leader, err = f.NewStyle(&excelize.Style{
		NumFmt: numberFormat,
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{leaderFill}},
	})
	return s, err
}

func writeSheet(f *excelize.File, sheet Sheet, styles workbookStyles) error {
	header := make([]any, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return err
	}
	if len(sheet.Headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.Name, "A1", last, styles.header); err != nil {
			return err
		}
	}

	for i, row := range sheet.Rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := setCell(f, sheet, cell, i, j, value, styles); err != nil {
				return err
			}
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet Sheet, cell string, row, col int, value any, styles workbookStyles) error {
	switch v := value.(type) {
	case float64:
		if err := f.SetCellFloat(sheet.Name, cell, roundFloat(v), valuePlaces, 64); err != nil {
			return err
		}
		style := styles.number
		if sheet.Marked(row, col) {
			style = styles.leader
		}
		return f.SetCellStyle(sheet.Name, cell, cell, style)
	case int:
		return f.SetCellValue(sheet.Name, cell, v)
	default:
		return f.SetCellStr(sheet.Name, cell, formatCell(v))
	}
}
