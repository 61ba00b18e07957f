package services

import (
	"context"
	"fmt"
	"log/slog"

	"kpianalyzer/internal/remote"
	"kpianalyzer/pkg/contracts/domain"
)

// ImportService pulls agency sheets from remote spreadsheets and hands them to
// the ingest service as one replace batch.
type ImportService struct {
	ingest    *IngestService
	client    *remote.Client
	sheetsAPI *remote.SheetsAPI
	expected  []string
	skip      remote.SkipPolicy
	logger    *slog.Logger
}

// NewImportService creates an import service. sheetsAPI may be nil when no
// API key is configured; expected lists the agency sheets fetched when a
// request does not name any.
func NewImportService(ingest *IngestService, client *remote.Client, sheetsAPI *remote.SheetsAPI, expected []string, skip remote.SkipPolicy, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		ingest:    ingest,
		client:    client,
		sheetsAPI: sheetsAPI,
		expected:  append([]string(nil), expected...),
		skip:      skip,
		logger:    logger.With(slog.String("component", "import_service")),
	}
}

// ImportSheetsCSV fetches each named sheet of a public spreadsheet through the
// CSV export endpoint.
func (s *ImportService) ImportSheetsCSV(ctx context.Context, spreadsheetURL string, sheets []string) (*domain.BatchReport, error) {
	id, err := remote.ExtractSpreadsheetID(spreadsheetURL)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		sheets = s.expected
	}

	s.logger.InfoContext(ctx, "importing spreadsheet via CSV export",
		slog.String("spreadsheet_id", id),
		slog.Int("sheets", len(sheets)))

	sources := make([]Source, len(sheets))
	for i, sheet := range sheets {
		sources[i] = NewSheetCSVSource(s.client, id, sheet)
	}
	return s.ingest.RunBatch(ctx, domain.BatchModeReplace, sources)
}

// ImportAppsScript calls an Apps Script web app that dumps every sheet of a
// workbook. Helper and empty sheets are reported as skipped.
func (s *ImportService) ImportAppsScript(ctx context.Context, endpoint string) (*domain.BatchReport, error) {
	result, err := s.client.FetchSheetMap(ctx, endpoint, s.skip)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "apps script workbook fetched",
		slog.Int("sheets", len(result.Tables)),
		slog.Any("skipped", result.Skipped))

	if len(result.Tables) == 0 {
		return nil, fmt.Errorf("%w: every sheet was empty or skipped", ErrNoSources)
	}

	sources := make([]Source, len(result.Tables))
	for i, t := range result.Tables {
		sources[i] = NewTableSource(t, domain.SourceKindAppsScript)
	}

	report, err := s.ingest.RunBatch(ctx, domain.BatchModeReplace, sources)
	if report != nil {
		report.Skipped = result.Skipped
	}
	return report, err
}

// ImportSheetsAPI reads sheets through the Sheets API. Without explicit sheet
// names every sheet of the spreadsheet is read, minus the skipped ones.
func (s *ImportService) ImportSheetsAPI(ctx context.Context, spreadsheetURL string, sheets []string) (*domain.BatchReport, error) {
	if s.sheetsAPI == nil {
		return nil, remote.ErrNoAPIKey
	}
	id, err := remote.ExtractSpreadsheetID(spreadsheetURL)
	if err != nil {
		return nil, err
	}

	var skipped []string
	if len(sheets) == 0 {
		titles, err := s.sheetsAPI.SheetTitles(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, title := range titles {
			if s.skip.Skip(title) {
				skipped = append(skipped, title)
				continue
			}
			sheets = append(sheets, title)
		}
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: every sheet was skipped", ErrNoSources)
	}

	sources := make([]Source, len(sheets))
	for i, sheet := range sheets {
		sources[i] = NewSheetsAPISource(s.sheetsAPI, id, sheet)
	}

	report, err := s.ingest.RunBatch(ctx, domain.BatchModeReplace, sources)
	if report != nil {
		report.Skipped = skipped
	}
	return report, err
}
