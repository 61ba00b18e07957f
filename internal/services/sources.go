package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"kpianalyzer/internal/ingest"
	"kpianalyzer/internal/remote"
	"kpianalyzer/pkg/contracts/domain"
)

// Source produces the raw rows of one agency table. Load returns the rows
// together with the label the resulting dataset is named after. Sources are
// loaded concurrently and must not share mutable state.
type Source interface {
	Name() string
	Kind() domain.SourceKind
	Load(ctx context.Context) ([]domain.RawRow, string, error)
}

// FileSource reads an uploaded or local CSV, TSV or XLSX file, optionally
// wrapped in .gz, .zip or .lz4. The agency is named after the file.
type FileSource struct {
	name string
	open func() (io.ReadCloser, error)
}

// NewFileSource wraps file contents already held in memory.
func NewFileSource(name string, data []byte) *FileSource {
	return &FileSource{
		name: name,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// NewPathSource reads the file at path when loaded.
func NewPathSource(path string) *FileSource {
	return &FileSource{
		name: filepath.Base(path),
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

func (s *FileSource) Name() string            { return s.name }
func (s *FileSource) Kind() domain.SourceKind { return domain.SourceKindFile }

func (s *FileSource) Load(ctx context.Context) ([]domain.RawRow, string, error) {
	label := ingest.AgencyNameFromFile(s.name)
	if label == "" {
		return nil, "", fmt.Errorf("%w: cannot derive a name from %q", ErrMissingAgency, s.name)
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	rc, err := s.open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", s.name, err)
	}
	defer rc.Close()

	rows, err := ingest.ParseFile(s.name, rc)
	if err != nil {
		return nil, "", err
	}
	return rows, label, nil
}

// PasteSource holds tab separated text copied from a spreadsheet.
type PasteSource struct {
	agency string
	text   string
}

// NewPasteSource creates a paste source for agency.
func NewPasteSource(agency, text string) *PasteSource {
	return &PasteSource{agency: strings.TrimSpace(agency), text: text}
}

func (s *PasteSource) Name() string            { return s.agency }
func (s *PasteSource) Kind() domain.SourceKind { return domain.SourceKindPaste }

func (s *PasteSource) Load(context.Context) ([]domain.RawRow, string, error) {
	if s.agency == "" {
		return nil, "", ErrMissingAgency
	}
	return ingest.ParsePasted(s.text), s.agency, nil
}

// SheetCSVSource downloads one sheet of a public spreadsheet as CSV. The
// agency is named after the sheet.
type SheetCSVSource struct {
	client        *remote.Client
	spreadsheetID string
	sheet         string
}

// NewSheetCSVSource creates a CSV export source.
func NewSheetCSVSource(client *remote.Client, spreadsheetID, sheet string) *SheetCSVSource {
	return &SheetCSVSource{client: client, spreadsheetID: spreadsheetID, sheet: sheet}
}

func (s *SheetCSVSource) Name() string            { return s.sheet }
func (s *SheetCSVSource) Kind() domain.SourceKind { return domain.SourceKindSheetCSV }

func (s *SheetCSVSource) Load(ctx context.Context) ([]domain.RawRow, string, error) {
	rows, err := s.client.FetchSheetCSV(ctx, s.spreadsheetID, s.sheet)
	if err != nil {
		return nil, "", err
	}
	return rows, s.sheet, nil
}

// SheetsAPISource reads one sheet through the Sheets API.
type SheetsAPISource struct {
	api           *remote.SheetsAPI
	spreadsheetID string
	sheet         string
}

// NewSheetsAPISource creates a Sheets API source.
func NewSheetsAPISource(api *remote.SheetsAPI, spreadsheetID, sheet string) *SheetsAPISource {
	return &SheetsAPISource{api: api, spreadsheetID: spreadsheetID, sheet: sheet}
}

func (s *SheetsAPISource) Name() string            { return s.sheet }
func (s *SheetsAPISource) Kind() domain.SourceKind { return domain.SourceKindSheetsAPI }

func (s *SheetsAPISource) Load(ctx context.Context) ([]domain.RawRow, string, error) {
	rows, err := s.api.FetchValues(ctx, s.spreadsheetID, s.sheet)
	if err != nil {
		return nil, "", err
	}
	return rows, s.sheet, nil
}

// TableSource serves a table that was already fetched, such as one sheet of
// an Apps Script workbook dump.
type TableSource struct {
	table ingest.Table
	kind  domain.SourceKind
}

// NewTableSource creates a source over an already decoded table.
func NewTableSource(table ingest.Table, kind domain.SourceKind) *TableSource {
	return &TableSource{table: table, kind: kind}
}

func (s *TableSource) Name() string            { return s.table.Name }
func (s *TableSource) Kind() domain.SourceKind { return s.kind }

func (s *TableSource) Load(context.Context) ([]domain.RawRow, string, error) {
	return s.table.Rows, strings.TrimSpace(s.table.Name), nil
}
