package remote

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"kpianalyzer/internal/ingest"
	"kpianalyzer/pkg/contracts/domain"
)

// DefaultExportBaseURL is the host serving public spreadsheet exports.
const DefaultExportBaseURL = "https://docs.google.com"

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// ExtractSpreadsheetID returns the document ID embedded in a spreadsheet URL.
func ExtractSpreadsheetID(rawURL string) (string, error) {
	m := spreadsheetIDPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return m[1], nil
}

// ExportURL builds the CSV export address of one named sheet.
func ExportURL(baseURL, spreadsheetID, sheet string) string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?format=csv&sheet=%s",
		strings.TrimRight(baseURL, "/"), spreadsheetID, url.QueryEscape(sheet))
}

// FetchSheetCSV downloads one sheet as CSV and parses it into rows.
func (c *Client) FetchSheetCSV(ctx context.Context, spreadsheetID, sheet string) ([]domain.RawRow, error) {
	resp, err := c.get(ctx, ExportURL(c.exportBaseURL, spreadsheetID, sheet))
	if err != nil {
		return nil, err
	}
	if looksLikeHTML(resp) {
		return nil, ErrSheetUnavailable
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return nil, &ingest.EmptyDatasetError{Label: sheet}
	}

	rows, err := ingest.ParseCSV(bytes.NewReader(resp.body))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ingest.EmptyDatasetError{Label: sheet}
	}
	return rows, nil
}

func looksLikeHTML(resp *response) bool {
	if strings.HasPrefix(strings.ToLower(resp.contentType), "text/html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(resp.body))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}
