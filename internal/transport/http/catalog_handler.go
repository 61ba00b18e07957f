package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "kpianalyzer/internal/errors"
	"kpianalyzer/internal/middleware"
	"kpianalyzer/internal/services"
	api "kpianalyzer/pkg/contracts/api/v1"
)

// uploadField is the multipart field carrying agency files
const uploadField = "files"

// multipartMemory is how much of an upload is held in memory before spilling
// to temporary files
const multipartMemory = 8 << 20

// CatalogHandler serves the catalog and agency endpoints
type CatalogHandler struct {
	analytics    AnalyticsServiceInterface
	ingest       IngestServiceInterface
	validator    *middleware.Validator
	maxUpload    int64
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewCatalogHandler creates a catalog handler. maxUpload bounds the whole
// multipart body of an upload.
func NewCatalogHandler(analytics AnalyticsServiceInterface, ingest IngestServiceInterface, validator *middleware.Validator, maxUpload int64, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		analytics:    analytics,
		ingest:       ingest,
		validator:    validator,
		maxUpload:    maxUpload,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "catalog")),
	}
}

// AgencyRoutes returns the routes mounted under /api/agencies
func (h *CatalogHandler) AgencyRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/upload", h.Upload)
	r.Post("/paste", h.Paste)
	r.Route("/{name}", func(r chi.Router) {
		r.Get("/", h.GetAgency)
		r.Delete("/", h.DeleteAgency)
	})
	return r
}

// GetCatalog handles GET /api/catalog
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.analytics.Catalog())
}

// GetAgency handles GET /api/agencies/{name}
func (h *CatalogHandler) GetAgency(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.analytics.Agency(chi.URLParam(r, "name"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, dataset)
}

// DeleteAgency handles DELETE /api/agencies/{name}
func (h *CatalogHandler) DeleteAgency(w http.ResponseWriter, r *http.Request) {
	if err := h.analytics.RemoveAgency(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload handles POST /api/agencies/upload. Every file becomes one agency and
// the batch replaces the catalog.
func (h *CatalogHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.errorHandler.HandleError(w, r, uploadError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadField, "at least one file is required"))
		return
	}

	files := make([]*services.FileSource, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		files = append(files, services.NewFileSource(fh.Filename, data))
	}

	h.logger.InfoContext(r.Context(), "upload received", slog.Int("files", len(files)))

	report, err := h.ingest.IngestFiles(r.Context(), files)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Paste handles POST /api/agencies/paste
func (h *CatalogHandler) Paste(w http.ResponseWriter, r *http.Request) {
	var req api.PasteRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.ingest.Paste(r.Context(), req.Agency, req.Data)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// uploadError keeps size violations recognisable and turns any other
// multipart failure into a bad request
func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: %w", services.ErrUploadTooLarge, err)
	}
	return apierrors.InvalidRequestWithError(err)
}
