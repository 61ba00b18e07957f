package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kpianalyzer/internal/remote"
	"kpianalyzer/internal/services"
	"kpianalyzer/pkg/contracts/domain"
)

// MockImportService is a mock implementation of ImportServiceInterface
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) ImportSheetsCSV(ctx context.Context, spreadsheetURL string, sheets []string) (*domain.BatchReport, error) {
	args := m.Called(ctx, spreadsheetURL, sheets)
	report, _ := args.Get(0).(*domain.BatchReport)
	return report, args.Error(1)
}

func (m *MockImportService) ImportAppsScript(ctx context.Context, endpoint string) (*domain.BatchReport, error) {
	args := m.Called(ctx, endpoint)
	report, _ := args.Get(0).(*domain.BatchReport)
	return report, args.Error(1)
}

func (m *MockImportService) ImportSheetsAPI(ctx context.Context, spreadsheetURL string, sheets []string) (*domain.BatchReport, error) {
	args := m.Called(ctx, spreadsheetURL, sheets)
	report, _ := args.Get(0).(*domain.BatchReport)
	return report, args.Error(1)
}

const sheetURL = "https://docs.google.com/spreadsheets/d/abc123/edit"

func importReport(agencies ...string) *domain.BatchReport {
	report := &domain.BatchReport{ID: "batch-1", Mode: domain.BatchModeReplace}
	for _, a := range agencies {
		report.Succeeded = append(report.Succeeded, domain.SourceResult{Source: a, Kind: domain.SourceKindSheetCSV, Agency: a})
	}
	return report
}

func TestImportSheets(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(m *MockImportService)
		wantStatus int
	}{
		{
			name: "named sheets",
			body: `{"url":"` + sheetURL + `","sheets":["KIA","Mazda"]}`,
			setup: func(m *MockImportService) {
				m.On("ImportSheetsCSV", mock.Anything, sheetURL, []string{"KIA", "Mazda"}).
					Return(importReport("KIA", "Mazda"), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "default sheets",
			body: `{"url":"` + sheetURL + `"}`,
			setup: func(m *MockImportService) {
				m.On("ImportSheetsCSV", mock.Anything, sheetURL, []string(nil)).
					Return(importReport("KIA"), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not a spreadsheet url",
			body: `{"url":"https://example.com/sheet"}`,
			setup: func(m *MockImportService) {
				m.On("ImportSheetsCSV", mock.Anything, "https://example.com/sheet", []string(nil)).
					Return(nil, remote.ErrInvalidURL)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not http",
			body:       `{"url":"ftp://docs.google.com/spreadsheets/d/abc123"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing url",
			body:       `{"sheets":["KIA"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "every sheet private",
			body: `{"url":"` + sheetURL + `","sheets":["KIA"]}`,
			setup: func(m *MockImportService) {
				m.On("ImportSheetsCSV", mock.Anything, sheetURL, []string{"KIA"}).
					Return(importReport(), &services.BatchFailedError{Report: importReport()})
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "upstream failure",
			body: `{"url":"` + sheetURL + `","sheets":["KIA"]}`,
			setup: func(m *MockImportService) {
				m.On("ImportSheetsCSV", mock.Anything, sheetURL, []string{"KIA"}).
					Return(nil, &remote.HTTPStatusError{StatusCode: 500, Status: "500 Internal Server Error"})
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockImportService)
			if tt.setup != nil {
				tt.setup(m)
			}
			api := newTestAPI(t, m)

			rec := api.doJSON(t, http.MethodPost, "/api/imports/sheets", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			m.AssertExpectations(t)
		})
	}
}

func TestImportAppsScript(t *testing.T) {
	const endpoint = "https://script.google.com/macros/s/xyz/exec"

	m := new(MockImportService)
	report := importReport("KIA")
	report.Skipped = []string{"Template ventas"}
	m.On("ImportAppsScript", mock.Anything, endpoint).Return(report, nil)

	api := newTestAPI(t, m)
	rec := api.doJSON(t, http.MethodPost, "/api/imports/apps-script", `{"url":"`+endpoint+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody[domain.BatchReport](t, rec)
	assert.Equal(t, []string{"Template ventas"}, got.Skipped)
	m.AssertExpectations(t)

	rec = api.doJSON(t, http.MethodPost, "/api/imports/apps-script", `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportSheetsAPI(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "imported", wantStatus: http.StatusOK},
		{name: "no api key", err: remote.ErrNoAPIKey, wantStatus: http.StatusServiceUnavailable},
		{name: "all skipped", err: services.ErrNoSources, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockImportService)
			var report *domain.BatchReport
			if tt.err == nil {
				report = importReport("KIA")
			}
			m.On("ImportSheetsAPI", mock.Anything, sheetURL, []string(nil)).Return(report, tt.err)

			api := newTestAPI(t, m)
			rec := api.doJSON(t, http.MethodPost, "/api/imports/sheets-api", `{"url":"`+sheetURL+`"}`)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			m.AssertExpectations(t)
		})
	}
}
