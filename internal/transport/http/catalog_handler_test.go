package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "kpianalyzer/internal/errors"
	"kpianalyzer/internal/services"
	"kpianalyzer/internal/shared/testutil"
	"kpianalyzer/pkg/contracts/domain"
)

func TestGetCatalog(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.doJSON(t, http.MethodGet, "/api/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[services.CatalogView](t, rec)
	require.Len(t, view.Agencies, 2)
	assert.Equal(t, "KIA", view.Agencies[0].Name)
	assert.Equal(t, []string{"Ventas", "Leads"}, view.KPIs)
	assert.Equal(t, []string{"Enero", "Febrero"}, view.Periods)
}

func TestGetAgency(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.doJSON(t, http.MethodGet, "/api/agencies/Mazda", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dataset := decodeBody[domain.AgencyDataset](t, rec)
	assert.Equal(t, "Mazda", dataset.Name)
	assert.Equal(t, 30.0, dataset.Value("Ventas", "Febrero"))

	rec = api.doJSON(t, http.MethodGet, "/api/agencies/Nissan", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeAgencyNotFound, decodeBody[map[string]any](t, rec)["type"])
}

func TestDeleteAgency(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.doJSON(t, http.MethodDelete, "/api/agencies/KIA", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, api.store.Snapshot().Agencies, 1)

	rec = api.doJSON(t, http.MethodDelete, "/api/agencies/KIA", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpload(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		wantStatus int
		wantNames  []string
	}{
		{
			name: "replaces catalog",
			files: map[string]string{
				"Nissan.csv": testutil.CSV(
					[]string{"KPI", "Enero", "Marzo"},
					[]string{"Ventas", "1,200", "800"},
				),
				"broken.csv": testutil.CSV(
					[]string{"Nombre", "Enero"},
					[]string{"Ventas", "1"},
				),
			},
			wantStatus: http.StatusOK,
			wantNames:  []string{"Nissan"},
		},
		{
			name: "every file fails",
			files: map[string]string{
				"empty.csv": "",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantNames:  []string{"KIA", "Mazda"},
		},
		{
			name: "unsupported only",
			files: map[string]string{
				"report.pdf": "%PDF",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantNames:  []string{"KIA", "Mazda"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			body, contentType := multipartBody(t, uploadField, tt.files)

			rec := api.do(t, http.MethodPost, "/api/agencies/upload", body, contentType)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantNames, api.store.Snapshot().AgencyNames())

			if tt.wantStatus == http.StatusOK {
				report := decodeBody[domain.BatchReport](t, rec)
				assert.Equal(t, domain.BatchModeReplace, report.Mode)
				assert.Len(t, report.Succeeded, 1)
				assert.Len(t, report.Failed, 1)
				assert.Equal(t, 1200.0, api.store.Snapshot().Find("Nissan").Value("Ventas", "Enero"))
				assert.Equal(t, 800.0, api.store.Snapshot().Find("Nissan").Value("Ventas", "Marzo"))
			}
		})
	}
}

func TestUploadWithoutFiles(t *testing.T) {
	api := newTestAPI(t, nil)
	body, contentType := multipartBody(t, "other", map[string]string{"KIA.csv": "x"})

	rec := api.do(t, http.MethodPost, "/api/agencies/upload", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	api := newTestAPI(t, nil)
	body, contentType := multipartBody(t, uploadField, map[string]string{
		"KIA.csv": strings.Repeat("x", 1<<17),
	})

	rec := api.do(t, http.MethodPost, "/api/agencies/upload", body, contentType)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, apierrors.TypePayloadTooLarge, decodeBody[map[string]any](t, rec)["type"])
	assert.Len(t, api.store.Snapshot().Agencies, 2)
}

func TestPaste(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCount  int
	}{
		{
			name:       "adds agency",
			body:       `{"agency":"Nissan","data":"KPI\tEnero\nVentas\t7"}`,
			wantStatus: http.StatusOK,
			wantCount:  3,
		},
		{
			name:       "replaces same name",
			body:       `{"agency":"KIA","data":"KPI\tEnero\nVentas\t7"}`,
			wantStatus: http.StatusOK,
			wantCount:  2,
		},
		{
			name:       "missing agency",
			body:       `{"data":"KPI\tEnero\nVentas\t7"}`,
			wantStatus: http.StatusBadRequest,
			wantCount:  2,
		},
		{
			name:       "no kpi column",
			body:       `{"agency":"Nissan","data":"Nombre\tEnero\nVentas\t7"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCount:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)

			rec := api.doJSON(t, http.MethodPost, "/api/agencies/paste", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Len(t, api.store.Snapshot().Agencies, tt.wantCount)

			if tt.wantStatus == http.StatusOK {
				report := decodeBody[domain.BatchReport](t, rec)
				assert.Equal(t, domain.BatchModeMerge, report.Mode)
			}
		})
	}
}
