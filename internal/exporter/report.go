package exporter

import (
	"time"

	"kpianalyzer/internal/aggregate"
	"kpianalyzer/pkg/contracts/domain"
)

// Report bundles every derived view of one catalog and selection, ready to
// be written as CSV or as a workbook.
type Report struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	Selection    domain.Selection       `json:"selection"`
	Comparison   []domain.ComparisonRow `json:"comparison"`
	KPITotals    []domain.KPITotals     `json:"kpi_totals"`
	PeriodTotals []domain.PeriodTotals  `json:"period_totals"`
	Ranking      []domain.AgencyRank    `json:"ranking"`
	Summary      []domain.KPISummary    `json:"summary"`
}

// BuildReport computes the report for c and s. KPI totals cover the first
// topKPIs KPIs of the catalog.
func BuildReport(c domain.Catalog, s domain.Selection, topKPIs int, now time.Time) *Report {
	return &Report{
		GeneratedAt:  now,
		Selection:    s.Clone(),
		Comparison:   aggregate.Comparison(c, s),
		KPITotals:    aggregate.TotalsByKPIAcrossAgencies(c, s, aggregate.TopKPIs(c, topKPIs)),
		PeriodTotals: aggregate.TotalsByPeriodAcrossKPIs(c, s),
		Ranking:      aggregate.RankAgencies(c, s),
		Summary:      aggregate.SummarizeKPIs(c, s),
	}
}

// Sheet is one tabular view of a report. Cells hold strings, ints or
// float64 values.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any

	// marked flags cells (row, column) that reach the maximum of their line
	marked map[[2]int]bool
}

// Marked reports whether the cell at row, col is a leader cell.
func (s Sheet) Marked(row, col int) bool {
	return s.marked[[2]int{row, col}]
}

// Records renders the rows as CSV records.
func (s Sheet) Records() [][]string {
	out := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = formatCell(cell)
		}
		out[i] = rec
	}
	return out
}

func formatCell(v any) string {
	switch x := v.(type) {
	case float64:
		return formatFloat(x)
	case int:
		return formatInt(x)
	case string:
		return x
	case []string:
		return formatLeaders(x)
	default:
		return ""
	}
}

// Sheets returns the views of the report in workbook order.
func (r *Report) Sheets() []Sheet {
	return []Sheet{
		r.ComparisonSheet(),
		r.KPITotalsSheet(),
		r.PeriodTotalsSheet(),
		r.RankingSheet(),
		r.SummarySheet(),
	}
}

// ComparisonSheet lays out one line per KPI and period with a column per
// selected agency and the leaders.
func (r *Report) ComparisonSheet() Sheet {
	headers := append([]string{"KPI", "Period"}, r.Selection.Agencies...)
	headers = append(headers, "Leaders")

	sheet := Sheet{Name: "Comparison", Headers: headers, marked: map[[2]int]bool{}}
	for i, row := range r.Comparison {
		leaders := make(map[string]bool, len(row.Leaders))
		for _, name := range row.Leaders {
			leaders[name] = true
		}

		cells := make([]any, 0, len(headers))
		cells = append(cells, row.KPI, row.Period)
		for _, v := range row.Values {
			if leaders[v.Agency] {
				sheet.marked[[2]int{i, len(cells)}] = true
			}
			cells = append(cells, v.Value)
		}
		cells = append(cells, append([]string(nil), row.Leaders...))
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet
}

// KPITotalsSheet has one line per KPI with each agency's total.
func (r *Report) KPITotalsSheet() Sheet {
	sheet := Sheet{Name: "KPI Totals", Headers: append([]string{"KPI"}, r.Selection.Agencies...)}
	for _, t := range r.KPITotals {
		sheet.Rows = append(sheet.Rows, totalsRow(t.KPI, t.Totals))
	}
	return sheet
}

// PeriodTotalsSheet has one line per period with each agency's total.
func (r *Report) PeriodTotalsSheet() Sheet {
	sheet := Sheet{Name: "Period Totals", Headers: append([]string{"Period"}, r.Selection.Agencies...)}
	for _, t := range r.PeriodTotals {
		sheet.Rows = append(sheet.Rows, totalsRow(t.Period, t.Totals))
	}
	return sheet
}

// RankingSheet lists agencies by grand total.
func (r *Report) RankingSheet() Sheet {
	sheet := Sheet{Name: "Ranking", Headers: []string{"Rank", "Agency", "Total"}}
	for _, rank := range r.Ranking {
		sheet.Rows = append(sheet.Rows, []any{rank.Rank, rank.Agency, rank.Total})
	}
	return sheet
}

// SummarySheet holds the per KPI statistics.
func (r *Report) SummarySheet() Sheet {
	sheet := Sheet{
		Name:    "Summary",
		Headers: []string{"KPI", "Count", "Sum", "Mean", "Median", "Min", "Max", "StdDev"},
	}
	for _, s := range r.Summary {
		sheet.Rows = append(sheet.Rows, []any{s.KPI, s.Count, s.Sum, s.Mean, s.Median, s.Min, s.Max, s.StdDev})
	}
	return sheet
}

func totalsRow(label string, totals []domain.AgencyValue) []any {
	row := make([]any, 0, len(totals)+1)
	row = append(row, label)
	for _, t := range totals {
		row = append(row, t.Value)
	}
	return row
}
