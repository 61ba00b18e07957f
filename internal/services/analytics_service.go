package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kpianalyzer/internal/aggregate"
	"kpianalyzer/internal/catalog"
	"kpianalyzer/internal/exporter"
	"kpianalyzer/internal/infrastructure"
	"kpianalyzer/pkg/contracts/domain"
)

// CatalogView is what clients see of the catalog: agency summaries, the
// global orderings and the current selection.
type CatalogView struct {
	Agencies  []domain.AgencySummary `json:"agencies"`
	KPIs      []string               `json:"all_kpis"`
	Periods   []string               `json:"all_periods"`
	Selection domain.Selection       `json:"selection"`
}

// AnalyticsService answers read queries over the catalog and manages the
// selection. Every view is computed from one consistent snapshot.
type AnalyticsService struct {
	store   *catalog.Store
	metrics *infrastructure.IngestMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewAnalyticsService creates an analytics service over store. metrics may
// be nil.
func NewAnalyticsService(store *catalog.Store, metrics *infrastructure.IngestMetrics, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		store:   store,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "analytics_service")),
		now:     time.Now,
	}
}

// Catalog describes the loaded agencies.
func (s *AnalyticsService) Catalog() CatalogView {
	c, sel := s.store.View()
	return CatalogView{
		Agencies:  c.Summaries(),
		KPIs:      c.AllKPIs,
		Periods:   c.AllPeriods,
		Selection: sel,
	}
}

// Agency returns the dataset called name.
func (s *AnalyticsService) Agency(name string) (domain.AgencyDataset, error) {
	d := s.store.Snapshot().Find(name)
	if d == nil {
		return domain.AgencyDataset{}, fmt.Errorf("%w: %q", ErrAgencyNotFound, name)
	}
	return *d, nil
}

// RemoveAgency drops an agency from the catalog and the selection.
func (s *AnalyticsService) RemoveAgency(ctx context.Context, name string) error {
	if !s.store.Remove(name) {
		return fmt.Errorf("%w: %q", ErrAgencyNotFound, name)
	}
	s.logger.InfoContext(ctx, "agency removed", slog.String("agency", name))
	return nil
}

// Selection returns the current selection.
func (s *AnalyticsService) Selection() domain.Selection {
	return s.store.Selection()
}

// SetSelection validates and stores a new selection, returning its
// normalized form.
func (s *AnalyticsService) SetSelection(ctx context.Context, sel domain.Selection) (domain.Selection, error) {
	out, err := s.store.SetSelection(sel)
	if err != nil {
		s.logger.WarnContext(ctx, "selection rejected", slog.String("error", err.Error()))
		return domain.Selection{}, err
	}
	s.metrics.RecordSelection(ctx)
	s.logger.InfoContext(ctx, "selection updated",
		slog.Any("agencies", out.Agencies),
		slog.Int("periods", len(out.Periods)))
	return out, nil
}

// CrossProduct returns every agency × period × KPI cell of the selection.
func (s *AnalyticsService) CrossProduct() []domain.AggregationCell {
	return aggregate.CrossProduct(s.store.View())
}

// Comparison returns the comparison table with leaders per cell.
func (s *AnalyticsService) Comparison() []domain.ComparisonRow {
	return aggregate.Comparison(s.store.View())
}

// KPITotals sums the first top KPIs per selected agency over the selected
// periods.
func (s *AnalyticsService) KPITotals(top int) ([]domain.KPITotals, error) {
	if top < 1 {
		return nil, ErrInvalidTopN
	}
	c, sel := s.store.View()
	return aggregate.TotalsByKPIAcrossAgencies(c, sel, aggregate.TopKPIs(c, top)), nil
}

// PeriodTotals sums every KPI per selected period and agency.
func (s *AnalyticsService) PeriodTotals() []domain.PeriodTotals {
	return aggregate.TotalsByPeriodAcrossKPIs(s.store.View())
}

// Ranking orders the selected agencies by grand total.
func (s *AnalyticsService) Ranking() []domain.AgencyRank {
	return aggregate.RankAgencies(s.store.View())
}

// Leaders returns the maximum at (kpi, period) and the agencies reaching it.
func (s *AnalyticsService) Leaders(kpi, period string) domain.CellLeaders {
	c, sel := s.store.View()
	return aggregate.LeadersAt(c, sel, kpi, period)
}

// KPISummary describes each KPI's spread across the selected agencies.
func (s *AnalyticsService) KPISummary() []domain.KPISummary {
	return aggregate.SummarizeKPIs(s.store.View())
}

// Report gathers every view for export.
func (s *AnalyticsService) Report(top int) (*exporter.Report, error) {
	if top < 1 {
		return nil, ErrInvalidTopN
	}
	c, sel := s.store.View()
	return exporter.BuildReport(c, sel, top, s.now()), nil
}
