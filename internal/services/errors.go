package services

import (
	"errors"
	"fmt"
	"strings"

	"kpianalyzer/pkg/contracts/domain"
)

// Service errors
var (
	// Ingestion errors
	ErrNoSources      = errors.New("no sources to ingest")
	ErrBatchFailed    = errors.New("no source in the batch could be ingested")
	ErrInvalidMode    = errors.New("invalid batch mode")
	ErrMissingAgency  = errors.New("agency name is required")
	ErrUploadTooLarge = errors.New("upload exceeds the maximum allowed size")

	// Lookup errors
	ErrAgencyNotFound = errors.New("agency not found")
	ErrInvalidTopN    = errors.New("top must be a positive number")
)

// BatchFailedError is returned when every source of a batch failed. The
// catalog is left untouched.
type BatchFailedError struct {
	Report *domain.BatchReport
}

func (e *BatchFailedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrBatchFailed, strings.Join(e.Report.Messages(), "; "))
}

func (e *BatchFailedError) Unwrap() error {
	return ErrBatchFailed
}
