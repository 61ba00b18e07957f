package aggregate

import (
	"github.com/montanaflynn/stats"

	"kpianalyzer/pkg/contracts/domain"
)

// SummarizeKPIs describes, for every KPI of the catalog, the distribution of
// the selected agencies' totals over the selected periods. KPIs with no
// selected agency get a zero summary.
func SummarizeKPIs(c domain.Catalog, s domain.Selection) []domain.KPISummary {
	totals := TotalsByKPIAcrossAgencies(c, s, c.AllKPIs)
	out := make([]domain.KPISummary, 0, len(totals))

	for _, t := range totals {
		summary := domain.KPISummary{KPI: t.KPI, Count: len(t.Totals)}
		if len(t.Totals) == 0 {
			out = append(out, summary)
			continue
		}

		data := make([]float64, 0, len(t.Totals))
		for _, v := range t.Totals {
			data = append(data, v.Value)
		}

		// Errors only occur on empty input, excluded above.
		summary.Sum, _ = stats.Sum(data)
		summary.Mean, _ = stats.Mean(data)
		summary.Median, _ = stats.Median(data)
		summary.Min, _ = stats.Min(data)
		summary.Max, _ = stats.Max(data)
		summary.StdDev, _ = stats.StandardDeviation(data)

		out = append(out, summary)
	}
	return out
}
