package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"kpianalyzer/internal/catalog"
	apierrors "kpianalyzer/internal/errors"
	"kpianalyzer/internal/middleware"
	"kpianalyzer/internal/services"
	"kpianalyzer/internal/shared/testutil"
	"kpianalyzer/pkg/contracts/domain"
)

// testAPI mounts the handlers the way the application router does, over a
// store seeded with two agencies.
type testAPI struct {
	router http.Handler
	store  *catalog.Store
}

func newTestAPI(t *testing.T, imports ImportServiceInterface) *testAPI {
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

	analytics := services.NewAnalyticsService(store, nil, logger)
	ingest := services.NewIngestService(store, services.IngestOptions{Workers: 2}, logger)
	validator := middleware.NewValidator(1 << 20)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	catalogHandler := NewCatalogHandler(analytics, ingest, validator, 1<<16, errorHandler, logger)
	analyticsHandler := NewAnalyticsHandler(analytics, validator, errorHandler, logger)

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", catalogHandler.GetCatalog)
		r.Mount("/agencies", catalogHandler.AgencyRoutes())
		r.Get("/selection", analyticsHandler.GetSelection)
		r.Put("/selection", analyticsHandler.PutSelection)
		r.Mount("/views", analyticsHandler.ViewRoutes())
		r.Mount("/exports", NewExportHandler(analytics, errorHandler, logger).Routes())
		if imports != nil {
			r.Mount("/imports", NewImportHandler(imports, validator, errorHandler, logger).Routes())
		}
	})
	return &testAPI{router: r, store: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) doJSON(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return a.do(t, method, path, r, "application/json")
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// multipartBody builds an upload form with one part per file
func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
