package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when a URL does not identify a spreadsheet.
	ErrInvalidURL = errors.New("invalid spreadsheet URL")

	// ErrSheetUnavailable is returned when the export answers with an HTML
	// page, which happens for missing or private sheets.
	ErrSheetUnavailable = errors.New("sheet does not exist or is not public")

	// ErrNoAPIKey is returned when the Sheets API is used without a key.
	ErrNoAPIKey = errors.New("sheets API key is not configured")
)

// HTTPStatusError reports a non-200 answer from a remote host.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}
