package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpianalyzer/internal/catalog"
	"kpianalyzer/internal/shared/testutil"
	"kpianalyzer/pkg/contracts/domain"
)

func newTestAnalytics(t *testing.T) (*AnalyticsService, *catalog.Store) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	store := catalog.NewStore(logger, 9, 0)
	periods := []string{"Enero", "Febrero"}
	store.Replace([]domain.AgencyDataset{
		testutil.Dataset("KIA", periods, map[string][]float64{
			"Ventas": {10, 20},
			"Leads":  {5, 5},
		}, "Ventas", "Leads"),
		testutil.Dataset("Mazda", periods, map[string][]float64{
			"Ventas": {10, 30},
			"Leads":  {1, 1},
		}, "Ventas", "Leads"),
	})
	svc := NewAnalyticsService(store, nil, logger)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestAnalyticsCatalog(t *testing.T) {
	svc, _ := newTestAnalytics(t)

	view := svc.Catalog()
	require.Len(t, view.Agencies, 2)
	assert.Equal(t, domain.AgencySummary{Name: "KIA", KPICount: 2, PeriodCount: 2}, view.Agencies[0])
	assert.Equal(t, []string{"Ventas", "Leads"}, view.KPIs)
	assert.Equal(t, []string{"Enero", "Febrero"}, view.Periods)
	assert.Equal(t, []string{"KIA", "Mazda"}, view.Selection.Agencies)
}

func TestAnalyticsAgency(t *testing.T) {
	svc, _ := newTestAnalytics(t)

	d, err := svc.Agency("Mazda")
	require.NoError(t, err)
	assert.Equal(t, 30.0, d.Value("Ventas", "Febrero"))

	_, err = svc.Agency("Nissan")
	assert.ErrorIs(t, err, ErrAgencyNotFound)
}

func TestAnalyticsRemoveAgency(t *testing.T) {
	svc, store := newTestAnalytics(t)

	require.NoError(t, svc.RemoveAgency(context.Background(), "KIA"))
	assert.Equal(t, []string{"Mazda"}, store.Snapshot().AgencyNames())
	assert.Equal(t, []string{"Mazda"}, svc.Selection().Agencies)

	assert.ErrorIs(t, svc.RemoveAgency(context.Background(), "KIA"), ErrAgencyNotFound)
}

func TestAnalyticsSetSelection(t *testing.T) {
	tests := []struct {
		name    string
		sel     domain.Selection
		wantErr error
		want    domain.Selection
	}{
		{
			name: "subset",
			sel:  domain.Selection{Agencies: []string{"Mazda"}, Periods: []string{"Febrero"}},
			want: domain.Selection{Agencies: []string{"Mazda"}, Periods: []string{"Febrero"}},
		},
		{
			name:    "unknown agency",
			sel:     domain.Selection{Agencies: []string{"Nissan"}, Periods: []string{"Enero"}},
			wantErr: catalog.ErrUnknownAgency,
		},
		{
			name:    "unknown period",
			sel:     domain.Selection{Agencies: []string{"KIA"}, Periods: []string{"Diciembre"}},
			wantErr: catalog.ErrUnknownPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAnalytics(t)
			got, err := svc.SetSelection(context.Background(), tt.sel)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, []string{"KIA", "Mazda"}, svc.Selection().Agencies)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, svc.Selection())
		})
	}
}

func TestAnalyticsViews(t *testing.T) {
	svc, _ := newTestAnalytics(t)

	assert.Len(t, svc.CrossProduct(), 2*2*2)
	assert.Len(t, svc.Comparison(), 4)

	totals, err := svc.KPITotals(1)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "Ventas", totals[0].KPI)
	assert.Equal(t, []domain.AgencyValue{{Agency: "KIA", Value: 30}, {Agency: "Mazda", Value: 40}}, totals[0].Totals)

	_, err = svc.KPITotals(0)
	assert.ErrorIs(t, err, ErrInvalidTopN)

	periods := svc.PeriodTotals()
	require.Len(t, periods, 2)
	assert.Equal(t, []domain.AgencyValue{{Agency: "KIA", Value: 15}, {Agency: "Mazda", Value: 11}}, periods[0].Totals)

	ranking := svc.Ranking()
	require.Len(t, ranking, 2)
	assert.Equal(t, domain.AgencyRank{Agency: "Mazda", Total: 42, Rank: 1}, ranking[0])

	leaders := svc.Leaders("Ventas", "Enero")
	assert.Equal(t, 10.0, leaders.Max)
	assert.Equal(t, []string{"KIA", "Mazda"}, leaders.Agencies)

	summary := svc.KPISummary()
	require.Len(t, summary, 2)
	assert.Equal(t, 35.0, summary[0].Mean)
}

func TestAnalyticsReport(t *testing.T) {
	svc, _ := newTestAnalytics(t)

	report, err := svc.Report(6)
	require.NoError(t, err)
	assert.Equal(t, 2026, report.GeneratedAt.Year())
	assert.Len(t, report.KPITotals, 2)
	assert.Len(t, report.Comparison, 4)

	_, err = svc.Report(-1)
	assert.ErrorIs(t, err, ErrInvalidTopN)
}
