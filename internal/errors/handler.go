package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"kpianalyzer/internal/catalog"
	"kpianalyzer/internal/ingest"
	"kpianalyzer/internal/remote"
	"kpianalyzer/internal/services"
)

// ErrorHandler converts errors into RFC 7807 responses
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and responds with the matching problem details
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	render.Render(w, r, problem)
}

// ErrorToProblem maps an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErrorToProblem(apiErr, path)
	}

	var batchErr *services.BatchFailedError
	if errors.As(err, &batchErr) {
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeBatchFailed,
			"Batch Failed", services.ErrBatchFailed.Error(), path).
			WithExtension("error_code", CodeBatchFailed).
			WithExtension("details", batchErr.Report)
	}

	var missingKPI *ingest.MissingKPIColumnError
	if errors.As(err, &missingKPI) {
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeClassification,
			"Unrecognized Headers", err.Error(), path).
			WithExtension("error_code", CodeClassification).
			WithExtension("available_columns", missingKPI.Available)
	}

	var noPeriods *ingest.NoPeriodColumnsError
	if errors.As(err, &noPeriods) {
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeClassification,
			"Unrecognized Headers", err.Error(), path).
			WithExtension("error_code", CodeClassification).
			WithExtension("available_columns", noPeriods.Available)
	}

	var remoteStatus *remote.HTTPStatusError
	if errors.As(err, &remoteStatus) {
		return NewProblemDetails(http.StatusBadGateway, TypeRemote,
			"Remote Source Failed", err.Error(), path).
			WithExtension("error_code", CodeRemoteUnavailable).
			WithExtension("upstream_status", remoteStatus.StatusCode)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, services.ErrUploadTooLarge) {
		return NewProblemDetails(http.StatusRequestEntityTooLarge, TypePayloadTooLarge,
			"Payload Too Large", "The request body exceeds the maximum allowed size", path).
			WithExtension("error_code", CodePayloadTooLarge)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout,
			"Request Timeout", "The request took too long to process and was cancelled", path)

	case errors.Is(err, ingest.ErrEmptyDataset):
		return problemWithCode(http.StatusUnprocessableEntity, TypeEmptyDataset, "Empty Dataset", CodeEmptyDataset, err, path)

	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return problemWithCode(http.StatusUnsupportedMediaType, TypeUnsupportedFormat, "Unsupported Format", CodeUnsupportedFormat, err, path)

	case catalog.IsSelectionError(err):
		return problemWithCode(http.StatusBadRequest, TypeSelection, "Invalid Selection", CodeInvalidSelection, err, path)

	case errors.Is(err, services.ErrAgencyNotFound):
		return problemWithCode(http.StatusNotFound, TypeAgencyNotFound, "Agency Not Found", CodeAgencyNotFound, err, path)

	case errors.Is(err, services.ErrNoSources),
		errors.Is(err, services.ErrInvalidMode),
		errors.Is(err, services.ErrMissingAgency),
		errors.Is(err, services.ErrInvalidTopN),
		errors.Is(err, remote.ErrInvalidURL):
		return problemWithCode(http.StatusBadRequest, TypeValidation, "Invalid Request", CodeInvalidRequest, err, path)

	case errors.Is(err, remote.ErrSheetUnavailable):
		return problemWithCode(http.StatusUnprocessableEntity, TypeRemote, "Sheet Unavailable", CodeRemoteUnavailable, err, path)

	case errors.Is(err, remote.ErrNoAPIKey):
		return problemWithCode(http.StatusServiceUnavailable, TypeServiceDown, "Service Unavailable", CodeServiceDown, err, path)

	default:
		return NewProblemDetails(http.StatusInternalServerError, TypeInternal,
			"Internal Server Error", "An unexpected error occurred while processing your request", path).
			WithExtension("error_code", CodeInternal)
	}
}

func problemWithCode(status int, problemType, title, code string, err error, path string) *ProblemDetails {
	return NewProblemDetails(status, problemType, title, err.Error(), path).
		WithExtension("error_code", code)
}

func apiErrorToProblem(apiErr *APIError, path string) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case CodeValidationFailed, CodeInvalidRequest:
		problemType = TypeValidation
	case CodeNotFound:
		problemType = TypeNotFound
	case CodeAgencyNotFound:
		problemType = TypeAgencyNotFound
	case CodeRateLimited:
		problemType = TypeRateLimit
	case CodeServiceDown:
		problemType = TypeServiceDown
	case CodePayloadTooLarge:
		problemType = TypePayloadTooLarge
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic answers a recovered panic with a 500 problem
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
	}

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethodNotAllowed,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// RecoveryMiddleware turns panics into problem responses
func (h *ErrorHandler) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
