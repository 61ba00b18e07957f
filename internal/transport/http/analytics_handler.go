package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"kpianalyzer/internal/config"
	apierrors "kpianalyzer/internal/errors"
	"kpianalyzer/internal/middleware"
	api "kpianalyzer/pkg/contracts/api/v1"
)

// maxTopKPIs bounds the top query parameter
const maxTopKPIs = 1000

// AnalyticsHandler serves the selection and the comparison views
type AnalyticsHandler struct {
	service      AnalyticsServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewAnalyticsHandler creates an analytics handler
func NewAnalyticsHandler(service AnalyticsServiceInterface, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "analytics")),
	}
}

// ViewRoutes returns the routes mounted under /api/views
func (h *AnalyticsHandler) ViewRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/cross-product", h.CrossProduct)
	r.Get("/comparison", h.Comparison)
	r.Get("/kpi-totals", h.KPITotals)
	r.Get("/period-totals", h.PeriodTotals)
	r.Get("/ranking", h.Ranking)
	r.Get("/leaders", h.Leaders)
	r.Get("/kpi-summary", h.KPISummary)
	return r
}

// GetSelection handles GET /api/selection
func (h *AnalyticsHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Selection())
}

// PutSelection handles PUT /api/selection
func (h *AnalyticsHandler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req api.SelectionRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sel, err := h.service.SetSelection(r.Context(), req.Selection())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, sel)
}

// CrossProduct handles GET /api/views/cross-product
func (h *AnalyticsHandler) CrossProduct(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.CrossProduct())
}

// Comparison handles GET /api/views/comparison
func (h *AnalyticsHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Comparison())
}

// KPITotals handles GET /api/views/kpi-totals?top=N
func (h *AnalyticsHandler) KPITotals(w http.ResponseWriter, r *http.Request) {
	top, err := middleware.QueryInt(r, "top", 1, maxTopKPIs, config.GroupedChartKPIs)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	totals, err := h.service.KPITotals(top)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, totals)
}

// PeriodTotals handles GET /api/views/period-totals
func (h *AnalyticsHandler) PeriodTotals(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.PeriodTotals())
}

// Ranking handles GET /api/views/ranking
func (h *AnalyticsHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Ranking())
}

// Leaders handles GET /api/views/leaders?kpi=&period=
func (h *AnalyticsHandler) Leaders(w http.ResponseWriter, r *http.Request) {
	kpi := r.URL.Query().Get("kpi")
	period := r.URL.Query().Get("period")

	var fields []apierrors.ValidationError
	if kpi == "" {
		fields = append(fields, apierrors.ValidationError{Field: "kpi", Message: "kpi is required"})
	}
	if period == "" {
		fields = append(fields, apierrors.ValidationError{Field: "period", Message: "period is required"})
	}
	if len(fields) > 0 {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fields))
		return
	}

	render.JSON(w, r, h.service.Leaders(kpi, period))
}

// KPISummary handles GET /api/views/kpi-summary
func (h *AnalyticsHandler) KPISummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.KPISummary())
}
