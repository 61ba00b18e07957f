package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kpianalyzer/internal/config"
	apierrors "kpianalyzer/internal/errors"
	"kpianalyzer/internal/exporter"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	exportTitle = "KPI comparison"
)

// ExportHandler streams report downloads
type ExportHandler struct {
	service      AnalyticsServiceInterface
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
	now          func() time.Time
}

// NewExportHandler creates an export handler
func NewExportHandler(service AnalyticsServiceInterface, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "export")),
		now:          time.Now,
	}
}

// Routes returns the routes mounted under /api/exports
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/comparison.csv", h.ComparisonCSV)
	r.Get("/comparison.xlsx", h.ComparisonWorkbook)
	return r
}

// ComparisonCSV handles GET /api/exports/comparison.csv
func (h *ExportHandler) ComparisonCSV(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(config.GroupedChartKPIs)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.attachment(w, contentTypeCSV, "csv")
	if err := exporter.WriteSheet(w, report.ComparisonSheet()); err != nil {
		// Headers are gone; all that is left is to record the failure.
		h.logger.ErrorContext(r.Context(), "csv export failed", slog.String("error", err.Error()))
	}
}

// ComparisonWorkbook handles GET /api/exports/comparison.xlsx
func (h *ExportHandler) ComparisonWorkbook(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(config.GroupedChartKPIs)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.attachment(w, contentTypeXLSX, "xlsx")
	if err := exporter.WriteWorkbook(w, report); err != nil {
		h.logger.ErrorContext(r.Context(), "workbook export failed", slog.String("error", err.Error()))
	}
}

func (h *ExportHandler) attachment(w http.ResponseWriter, contentType, ext string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exporter.FileName(exportTitle, ext, h.now())))
	w.Header().Set("Cache-Control", "no-store")
}
