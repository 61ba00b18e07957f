// Package services implements the business logic between the HTTP handlers
// and the catalog.
//
// IngestService runs batches of sources concurrently and commits the
// successful datasets in one step. ImportService feeds it from remote
// spreadsheets. AnalyticsService answers view queries and manages the
// selection. HealthService reports on the wired components.
//
// Services return sentinel or typed errors from this package, the catalog,
// ingest and remote packages. The HTTP layer maps them to problem responses.
package services
