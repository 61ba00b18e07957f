package remote

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"kpianalyzer/internal/ingest"
)

// SkipPolicy decides which sheets of a workbook dump are helper sheets.
type SkipPolicy struct {
	// Contains lists lower-case fragments that mark a helper sheet.
	Contains []string
	// Exact lists sheet names skipped verbatim.
	Exact []string
}

// DefaultSkipPolicy skips templates, instructions, examples and untouched
// default sheets.
var DefaultSkipPolicy = SkipPolicy{
	Contains: []string{"template", "instruction", "ejemplo"},
	Exact:    []string{"Sheet1", "Hoja1"},
}

// Skip reports whether sheet name should be ignored.
func (p SkipPolicy) Skip(name string) bool {
	lower := strings.ToLower(name)
	for _, frag := range p.Contains {
		if frag != "" && strings.Contains(lower, strings.ToLower(frag)) {
			return true
		}
	}
	for _, exact := range p.Exact {
		if name == exact {
			return true
		}
	}
	return false
}

// SheetMapResult splits a workbook dump into the sheets worth ingesting and
// the names that were skipped.
type SheetMapResult struct {
	Tables  []ingest.Table
	Skipped []string
}

// FetchSheetMap calls an Apps Script web app returning every sheet of a
// workbook as {sheetName: [ {header: value}, ... ]}. Empty sheets and sheets
// matched by policy are reported as skipped, not as failures.
func (c *Client) FetchSheetMap(ctx context.Context, endpoint string, policy SkipPolicy) (*SheetMapResult, error) {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, endpoint)
	}

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if looksLikeHTML(resp) {
		return nil, ErrSheetUnavailable
	}

	tables, err := ingest.DecodeSheetMap(bytes.NewReader(resp.body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode sheet map: %w", err)
	}

	result := &SheetMapResult{}
	for _, t := range tables {
		if len(t.Rows) == 0 || policy.Skip(t.Name) {
			result.Skipped = append(result.Skipped, t.Name)
			continue
		}
		result.Tables = append(result.Tables, t)
	}
	return result, nil
}
