package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "kpianalyzer/internal/errors"
	"kpianalyzer/pkg/contracts/domain"
)

func TestSelection(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       domain.Selection
	}{
		{
			name:       "narrow",
			body:       `{"agencies":["Mazda"],"periods":["Febrero"]}`,
			wantStatus: http.StatusOK,
			want:       domain.Selection{Agencies: []string{"Mazda"}, Periods: []string{"Febrero"}},
		},
		{
			name:       "unknown agency",
			body:       `{"agencies":["Nissan"],"periods":[]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too many agencies",
			body:       `{"agencies":["a","b","c","d","e","f","g","h","i","j"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blank name",
			body:       `{"agencies":[""]}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			before := api.store.Selection()

			rec := api.doJSON(t, http.MethodPut, "/api/selection", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, before, api.store.Selection())
				return
			}
			assert.Equal(t, tt.want, decodeBody[domain.Selection](t, rec))

			rec = api.doJSON(t, http.MethodGet, "/api/selection", "")
			assert.Equal(t, tt.want, decodeBody[domain.Selection](t, rec))
		})
	}
}

func TestSelectionUnknownAgencyProblem(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.doJSON(t, http.MethodPut, "/api/selection", `{"agencies":["Nissan"]}`)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, apierrors.TypeSelection, body["type"])
	assert.Equal(t, apierrors.CodeInvalidSelection, body["error_code"])
}

func TestViews(t *testing.T) {
	api := newTestAPI(t, nil)

	t.Run("cross product", func(t *testing.T) {
		rec := api.doJSON(t, http.MethodGet, "/api/views/cross-product", "")
		require.Equal(t, http.StatusOK, rec.Code)
		cells := decodeBody[[]domain.AggregationCell](t, rec)
		// 2 agencies x 2 periods x 2 kpis
		assert.Len(t, cells, 8)
	})

	t.Run("ranking", func(t *testing.T) {
		rec := api.doJSON(t, http.MethodGet, "/api/views/ranking", "")
		require.Equal(t, http.StatusOK, rec.Code)
		ranking := decodeBody[[]domain.AgencyRank](t, rec)
		require.Len(t, ranking, 2)
		assert.Equal(t, domain.AgencyRank{Agency: "Mazda", Total: 42, Rank: 1}, ranking[0])
		assert.Equal(t, domain.AgencyRank{Agency: "KIA", Total: 40, Rank: 2}, ranking[1])
	})

	t.Run("comparison", func(t *testing.T) {
		rec := api.doJSON(t, http.MethodGet, "/api/views/comparison", "")
		require.Equal(t, http.StatusOK, rec.Code)
		rows := decodeBody[[]domain.ComparisonRow](t, rec)
		require.Len(t, rows, 4)
		assert.Equal(t, "Ventas", rows[0].KPI)
		assert.Equal(t, "Enero", rows[0].Period)
		assert.Equal(t, []string{"KIA", "Mazda"}, rows[0].Leaders)
	})

	t.Run("period totals", func(t *testing.T) {
		rec := api.doJSON(t, http.MethodGet, "/api/views/period-totals", "")
		require.Equal(t, http.StatusOK, rec.Code)
		totals := decodeBody[[]domain.PeriodTotals](t, rec)
		require.Len(t, totals, 2)
		assert.Equal(t, "Enero", totals[0].Period)
	})

	t.Run("kpi summary", func(t *testing.T) {
		rec := api.doJSON(t, http.MethodGet, "/api/views/kpi-summary", "")
		require.Equal(t, http.StatusOK, rec.Code)
		summary := decodeBody[[]domain.KPISummary](t, rec)
		require.NotEmpty(t, summary)
		assert.Equal(t, "Ventas", summary[0].KPI)
	})
}

func TestKPITotalsView(t *testing.T) {
	tests := []struct {
		query      string
		wantStatus int
		wantLen    int
	}{
		{query: "", wantStatus: http.StatusOK, wantLen: 2},
		{query: "?top=1", wantStatus: http.StatusOK, wantLen: 1},
		{query: "?top=0", wantStatus: http.StatusBadRequest},
		{query: "?top=many", wantStatus: http.StatusBadRequest},
	}

	api := newTestAPI(t, nil)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := api.doJSON(t, http.MethodGet, "/api/views/kpi-totals"+tt.query, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			totals := decodeBody[[]domain.KPITotals](t, rec)
			require.Len(t, totals, tt.wantLen)
			assert.Equal(t, "Ventas", totals[0].KPI)
		})
	}
}

func TestLeadersView(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		want       []string
	}{
		{name: "single leader", query: "?kpi=Ventas&period=Febrero", wantStatus: http.StatusOK, want: []string{"Mazda"}},
		{name: "tie", query: "?kpi=Ventas&period=Enero", wantStatus: http.StatusOK, want: []string{"KIA", "Mazda"}},
		{name: "missing period", query: "?kpi=Ventas", wantStatus: http.StatusBadRequest},
		{name: "missing both", query: "", wantStatus: http.StatusBadRequest},
	}

	api := newTestAPI(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.doJSON(t, http.MethodGet, "/api/views/leaders"+tt.query, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			leaders := decodeBody[domain.CellLeaders](t, rec)
			assert.Equal(t, tt.want, leaders.Agencies)
		})
	}
}
