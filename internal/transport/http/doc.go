// Package http implements the HTTP handlers of the KPI analyzer API.
//
// Handlers stay thin: they decode and validate the request, call one service
// method and render the result as JSON. Every failure goes through
// errors.ErrorHandler, which turns service errors into RFC 7807 problem
// responses. Each handler exposes its routes as a chi.Router for the
// application router to mount.
package http
