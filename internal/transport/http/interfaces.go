package http

import (
	"context"

	"kpianalyzer/internal/exporter"
	"kpianalyzer/internal/services"
	"kpianalyzer/pkg/contracts/domain"
)

// AnalyticsServiceInterface defines the catalog queries and selection
// operations the handlers need
type AnalyticsServiceInterface interface {
	Catalog() services.CatalogView
	Agency(name string) (domain.AgencyDataset, error)
	RemoveAgency(ctx context.Context, name string) error
	Selection() domain.Selection
	SetSelection(ctx context.Context, sel domain.Selection) (domain.Selection, error)

	CrossProduct() []domain.AggregationCell
	Comparison() []domain.ComparisonRow
	KPITotals(top int) ([]domain.KPITotals, error)
	PeriodTotals() []domain.PeriodTotals
	Ranking() []domain.AgencyRank
	Leaders(kpi, period string) domain.CellLeaders
	KPISummary() []domain.KPISummary
	Report(top int) (*exporter.Report, error)
}

// IngestServiceInterface defines the local ingestion operations
type IngestServiceInterface interface {
	IngestFiles(ctx context.Context, files []*services.FileSource) (*domain.BatchReport, error)
	Paste(ctx context.Context, agency, text string) (*domain.BatchReport, error)
}

// ImportServiceInterface defines the remote spreadsheet imports
type ImportServiceInterface interface {
	ImportSheetsCSV(ctx context.Context, spreadsheetURL string, sheets []string) (*domain.BatchReport, error)
	ImportAppsScript(ctx context.Context, endpoint string) (*domain.BatchReport, error)
	ImportSheetsAPI(ctx context.Context, spreadsheetURL string, sheets []string) (*domain.BatchReport, error)
}
