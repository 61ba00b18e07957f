package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"kpianalyzer/pkg/contracts/domain"
)

// Table is a named block of rows, one sheet or one file.
type Table struct {
	Name string
	Rows []domain.RawRow
}

// AgencyNameFromFile derives an agency label from an uploaded file name: the
// base name up to its first dot. "KIA Iztapalapa.csv.gz" becomes "KIA Iztapalapa".
func AgencyNameFromFile(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSpace(base)
}

// IsSupported reports whether ParseFile can decode name. Compressed names
// are judged by their inner extension, except zip archives, whose entry is
// only known once opened.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".zip" {
		return true
	}
	if IsArchive(name) {
		return IsSupported(strings.TrimSuffix(name, filepath.Ext(name)))
	}
	switch ext {
	case ".csv", ".tsv", ".txt", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ParseFile decodes an uploaded file by extension. Compressed files are
// unwrapped first and the inner extension decides the format.
func ParseFile(name string, r io.Reader) ([]domain.RawRow, error) {
	ext := strings.ToLower(filepath.Ext(name))

	if IsArchive(name) {
		inner, innerName, err := Unpack(name, r)
		if err != nil {
			return nil, err
		}
		return ParseFile(innerName, inner)
	}

	switch ext {
	case ".csv":
		return ParseCSV(r)
	case ".tsv", ".txt":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return ParsePasted(string(data)), nil
	case ".xlsx", ".xlsm":
		table, err := ParseWorkbook(r)
		if err != nil {
			return nil, err
		}
		return table.Rows, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ParseCSV reads comma-separated text whose first record is the header row.
func ParseCSV(r io.Reader) ([]domain.RawRow, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return RowsFromRecords(records), nil
}

// ParsePasted reads clipboard text copied out of a spreadsheet: one row per
// line, cells separated by tabs, first line holding the headers.
func ParsePasted(text string) []domain.RawRow {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	records := make([][]string, 0, len(lines))
	for _, line := range lines {
		records = append(records, strings.Split(strings.TrimRight(line, "\r"), "\t"))
	}
	return RowsFromRecords(records)
}

// ParseWorkbook reads the first worksheet of an XLSX workbook that has a
// header row and at least one data row.
func ParseWorkbook(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		records, err := f.GetRows(sheet)
		if err != nil {
			return Table{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		if rows := RowsFromRecords(records); len(rows) > 0 {
			return Table{Name: sheet, Rows: rows}, nil
		}
	}
	return Table{}, &EmptyDatasetError{Label: "workbook"}
}

// RowsFromRecords turns a header record plus data records into rows. Headers
// are trimmed and made unique; blank records are skipped.
func RowsFromRecords(records [][]string) []domain.RawRow {
	start := -1
	for i, rec := range records {
		if !isBlankRecord(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	headers := UniqueHeaders(records[start])
	rows := make([]domain.RawRow, 0, len(records)-start-1)
	for _, rec := range records[start+1:] {
		if isBlankRecord(rec) {
			continue
		}
		rows = append(rows, domain.NewRawRow(headers, rec))
	}
	return rows
}

// UniqueHeaders trims every header and suffixes repeats with _1, _2 and so on
// so each column keeps its own key.
func UniqueHeaders(headers []string) []string {
	seen := make(map[string]bool, len(headers))
	out := make([]string, len(headers))

	for i, h := range headers {
		original := strings.TrimSpace(h)
		header := original
		for counter := 1; seen[header]; counter++ {
			header = fmt.Sprintf("%s_%d", original, counter)
		}
		seen[header] = true
		out[i] = header
	}
	return out
}

func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(r io.Reader) io.Reader {
	data, err := io.ReadAll(r)
	if err != nil {
		return &errReader{err: err}
	}
	return bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))
}

type errReader struct{ err error }

func (e *errReader) Read([]byte) (int, error) {
	return 0, e.err
}
