package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClassification is matched by every header classification failure.
	ErrClassification = errors.New("header classification failed")

	// ErrEmptyDataset is matched when a source yields no rows.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrUnsupportedFormat is returned for files that are not CSV, TSV or XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// MissingKPIColumnError is returned when no header names a KPI column.
type MissingKPIColumnError struct {
	Available []string
}

func (e *MissingKPIColumnError) Error() string {
	return fmt.Sprintf("no KPI column found; available columns: %s", strings.Join(e.Available, ", "))
}

func (e *MissingKPIColumnError) Unwrap() error {
	return ErrClassification
}

// NoPeriodColumnsError is returned when no header looks like a month or quarter.
type NoPeriodColumnsError struct {
	Available []string
}

func (e *NoPeriodColumnsError) Error() string {
	return fmt.Sprintf("no period columns found; headers must contain month names, MM/YYYY, YYYY-MM or quarter tokens; available columns: %s",
		strings.Join(e.Available, ", "))
}

func (e *NoPeriodColumnsError) Unwrap() error {
	return ErrClassification
}

// EmptyDatasetError is returned when a source produced no rows.
type EmptyDatasetError struct {
	Label string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("sheet %q is empty", e.Label)
}

func (e *EmptyDatasetError) Unwrap() error {
	return ErrEmptyDataset
}

// SourceError labels a failure with the source it came from.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsClassificationError reports whether err is a header classification failure.
func IsClassificationError(err error) bool {
	return errors.Is(err, ErrClassification)
}

// IsValidationError reports whether err rejects the content of a source
// rather than the act of reading it.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrClassification) || errors.Is(err, ErrEmptyDataset)
}
