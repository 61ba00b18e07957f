// Package api contains the request bodies accepted by the v1 HTTP API.
// Validation tags are checked by the server before a request reaches a
// service; agencyname and sheeturl are custom rules registered by the
// server's validator.
package api

import (
	"kpianalyzer/pkg/contracts/domain"
)

// PasteRequest carries spreadsheet cells copied as tab separated text
type PasteRequest struct {
	Agency string `json:"agency" validate:"required,agencyname"`
	Data   string `json:"data" validate:"required"`
}

// SheetImportRequest names a spreadsheet and, optionally, the sheets to read
type SheetImportRequest struct {
	URL    string   `json:"url" validate:"required,sheeturl"`
	Sheets []string `json:"sheets,omitempty" validate:"omitempty,max=50,dive,required,agencyname"`
}

// AppsScriptRequest points at a deployed Apps Script web app
type AppsScriptRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// SelectionRequest replaces the current selection
type SelectionRequest struct {
	Agencies []string `json:"agencies" validate:"max=9,dive,required"`
	Periods  []string `json:"periods" validate:"dive,required"`
}

// Selection converts the request into a domain selection.
func (r SelectionRequest) Selection() domain.Selection {
	return domain.Selection{Agencies: r.Agencies, Periods: r.Periods}
}
