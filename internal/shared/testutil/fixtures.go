package testutil

import (
	"encoding/csv"
	"sort"
	"strings"

	"kpianalyzer/pkg/contracts/domain"
)

// Dataset builds an agency dataset from a compact value table. Each row is a
// KPI name mapped to one value per period. KPIs keep the given order, or
// sorted order when none is given.
func Dataset(name string, periods []string, rows map[string][]float64, order ...string) domain.AgencyDataset {
	d := domain.AgencyDataset{
		Name:    name,
		Periods: append([]string{}, periods...),
		Values:  make(map[string]map[string]float64, len(rows)),
	}
	if len(order) == 0 {
		for kpi := range rows {
			order = append(order, kpi)
		}
		sort.Strings(order)
	}
	for _, kpi := range order {
		d.KPIs = append(d.KPIs, kpi)
		d.Values[kpi] = make(map[string]float64, len(periods))
		for i, v := range rows[kpi] {
			if i < len(periods) {
				d.Values[kpi][periods[i]] = v
			}
		}
	}
	return d
}

// CSV encodes records as comma separated text with a trailing newline.
// Cells holding commas or quotes are quoted, so "1,200" stays one cell.
func CSV(records ...[]string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.WriteAll(records); err != nil {
		panic(err)
	}
	return b.String()
}

// TSV joins records into tab separated text, the shape of a clipboard paste.
func TSV(records ...[]string) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = strings.Join(r, "\t")
	}
	return strings.Join(lines, "\n")
}
