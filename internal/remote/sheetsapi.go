package remote

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"kpianalyzer/internal/ingest"
	"kpianalyzer/pkg/contracts/domain"
)

// SheetsAPI reads sheet values through the Sheets v4 API with an API key.
type SheetsAPI struct {
	service *sheets.Service
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewSheetsAPI creates a Sheets API reader. Extra options are appended after
// the API key, which lets tests point the service at a local endpoint.
func NewSheetsAPI(ctx context.Context, apiKey string, requestsPerSecond float64, logger *slog.Logger, opts ...option.ClientOption) (*SheetsAPI, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &SheetsAPI{
		service: service,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With(slog.String("component", "remote.sheets_api")),
	}, nil
}

// SheetTitles lists the sheet names of a spreadsheet in tab order.
func (s *SheetsAPI) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	doc, err := s.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", spreadsheetID, err)
	}

	titles := make([]string, 0, len(doc.Sheets))
	for _, sh := range doc.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

// FetchValues reads every populated cell of one sheet and returns its rows.
func (s *SheetsAPI) FetchValues(ctx context.Context, spreadsheetID, sheet string) ([]domain.RawRow, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.service.Spreadsheets.Values.Get(spreadsheetID, quoteSheetName(sheet)).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	records := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, ingest.CellText(cell))
		}
		records = append(records, cells)
	}

	rows := ingest.RowsFromRecords(records)
	if len(rows) == 0 {
		return nil, &ingest.EmptyDatasetError{Label: sheet}
	}

	s.logger.DebugContext(ctx, "sheet values fetched",
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))
	return rows, nil
}

// quoteSheetName turns a sheet name into an A1 range covering the whole sheet.
func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
