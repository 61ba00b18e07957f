package domain

import (
	"time"
)

// BatchMode defines how a batch's successful datasets are committed.
type BatchMode string

const (
	BatchModeReplace BatchMode = "replace" // discard previously loaded agencies
	BatchModeMerge   BatchMode = "merge"   // upsert into the loaded agencies
)

// SourceKind identifies where a source's rows came from.
type SourceKind string

const (
	SourceKindFile       SourceKind = "file"
	SourceKindPaste      SourceKind = "paste"
	SourceKindSheetCSV   SourceKind = "sheet_csv"
	SourceKindAppsScript SourceKind = "apps_script"
	SourceKindSheetsAPI  SourceKind = "sheets_api"
)

// SourceResult is the outcome of ingesting one source.
type SourceResult struct {
	Source      string     `json:"source"`
	Kind        SourceKind `json:"kind"`
	Agency      string     `json:"agency,omitempty"`
	KPICount    int        `json:"kpi_count,omitempty"`
	PeriodCount int        `json:"period_count,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Failed reports whether the source could not be ingested.
func (r SourceResult) Failed() bool {
	return r.Error != ""
}

// BatchReport collects the per-source outcomes of one ingestion batch.
type BatchReport struct {
	ID           string         `json:"id"`
	Mode         BatchMode      `json:"mode"`
	Succeeded    []SourceResult `json:"succeeded"`
	Failed       []SourceResult `json:"failed"`
	Skipped      []string       `json:"skipped,omitempty"`
	TotalKPIs    int            `json:"total_kpis"`
	TotalPeriods int            `json:"total_periods"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
}

// Messages renders the failures as "source: reason" lines.
func (b *BatchReport) Messages() []string {
	out := make([]string, 0, len(b.Failed))
	for _, f := range b.Failed {
		out = append(out, f.Source+": "+f.Error)
	}
	return out
}
