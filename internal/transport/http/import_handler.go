package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "kpianalyzer/internal/errors"
	"kpianalyzer/internal/middleware"
	api "kpianalyzer/pkg/contracts/api/v1"
)

// ImportHandler serves the remote spreadsheet imports. Every import replaces
// the catalog.
type ImportHandler struct {
	service      ImportServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewImportHandler creates an import handler
func NewImportHandler(service ImportServiceInterface, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "import")),
	}
}

// Routes returns the routes mounted under /api/imports
func (h *ImportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sheets", h.ImportSheets)
	r.Post("/apps-script", h.ImportAppsScript)
	r.Post("/sheets-api", h.ImportSheetsAPI)
	return r
}

// ImportSheets handles POST /api/imports/sheets
func (h *ImportHandler) ImportSheets(w http.ResponseWriter, r *http.Request) {
	var req api.SheetImportRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.ImportSheetsCSV(r.Context(), req.URL, req.Sheets)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// ImportAppsScript handles POST /api/imports/apps-script
func (h *ImportHandler) ImportAppsScript(w http.ResponseWriter, r *http.Request) {
	var req api.AppsScriptRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.ImportAppsScript(r.Context(), req.URL)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// ImportSheetsAPI handles POST /api/imports/sheets-api
func (h *ImportHandler) ImportSheetsAPI(w http.ResponseWriter, r *http.Request) {
	var req api.SheetImportRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.ImportSheetsAPI(r.Context(), req.URL, req.Sheets)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}
