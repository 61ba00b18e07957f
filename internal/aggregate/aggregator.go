// Package aggregate derives comparison views from a catalog and a selection.
// Every function is pure and recomputes from scratch; results never share
// maps or slices with the catalog.
package aggregate

import (
	"sort"

	"kpianalyzer/pkg/contracts/domain"
)

// CrossProduct returns one cell per selected agency × selected period × KPI of
// the catalog, agency-major. Missing combinations read as 0.
func CrossProduct(c domain.Catalog, s domain.Selection) []domain.AggregationCell {
	cells := make([]domain.AggregationCell, 0, len(s.Agencies)*len(s.Periods)*len(c.AllKPIs))
	for _, name := range s.Agencies {
		agency := c.Find(name)
		for _, period := range s.Periods {
			for _, kpi := range c.AllKPIs {
				cells = append(cells, domain.AggregationCell{
					Agency: name,
					Period: period,
					KPI:    kpi,
					Value:  agency.Value(kpi, period),
				})
			}
		}
	}
	return cells
}

// TotalsByKPIAcrossAgencies sums each requested KPI over the selected periods
// for every selected agency.
func TotalsByKPIAcrossAgencies(c domain.Catalog, s domain.Selection, kpis []string) []domain.KPITotals {
	out := make([]domain.KPITotals, 0, len(kpis))
	for _, kpi := range kpis {
		totals := make([]domain.AgencyValue, 0, len(s.Agencies))
		for _, name := range s.Agencies {
			agency := c.Find(name)
			sum := 0.0
			for _, period := range s.Periods {
				sum += agency.Value(kpi, period)
			}
			totals = append(totals, domain.AgencyValue{Agency: name, Value: sum})
		}
		out = append(out, domain.KPITotals{KPI: kpi, Totals: totals})
	}
	return out
}

// TotalsByPeriodAcrossKPIs sums every KPI of the catalog for each selected
// period and agency.
func TotalsByPeriodAcrossKPIs(c domain.Catalog, s domain.Selection) []domain.PeriodTotals {
	out := make([]domain.PeriodTotals, 0, len(s.Periods))
	for _, period := range s.Periods {
		totals := make([]domain.AgencyValue, 0, len(s.Agencies))
		for _, name := range s.Agencies {
			agency := c.Find(name)
			sum := 0.0
			for _, kpi := range c.AllKPIs {
				sum += agency.Value(kpi, period)
			}
			totals = append(totals, domain.AgencyValue{Agency: name, Value: sum})
		}
		out = append(out, domain.PeriodTotals{Period: period, Totals: totals})
	}
	return out
}

// RankAgencies orders the selected agencies by their grand total over every
// KPI and the selected periods, highest first. Ties keep selection order and
// still receive successive ranks.
func RankAgencies(c domain.Catalog, s domain.Selection) []domain.AgencyRank {
	ranks := make([]domain.AgencyRank, 0, len(s.Agencies))
	for _, name := range s.Agencies {
		ranks = append(ranks, domain.AgencyRank{Agency: name, Total: grandTotal(c, name, s.Periods)})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Total > ranks[j].Total
	})
	for i := range ranks {
		ranks[i].Rank = i + 1
	}
	return ranks
}

// MaxAtCoordinate returns the largest value among the selected agencies at
// (kpi, period), or 0 when nothing is selected.
func MaxAtCoordinate(c domain.Catalog, s domain.Selection, kpi, period string) float64 {
	return LeadersAt(c, s, kpi, period).Max
}

// LeadersAt returns the maximum at (kpi, period) together with every selected
// agency that reaches it.
func LeadersAt(c domain.Catalog, s domain.Selection, kpi, period string) domain.CellLeaders {
	leaders := domain.CellLeaders{KPI: kpi, Period: period, Agencies: []string{}}
	for i, name := range s.Agencies {
		v := c.Find(name).Value(kpi, period)
		switch {
		case i == 0 || v > leaders.Max:
			leaders.Max = v
			leaders.Agencies = append(leaders.Agencies[:0], name)
		case v == leaders.Max:
			leaders.Agencies = append(leaders.Agencies, name)
		}
	}
	return leaders
}

// Comparison builds the full comparison table: one row per catalog KPI and
// selected period with each selected agency's value and the leaders.
func Comparison(c domain.Catalog, s domain.Selection) []domain.ComparisonRow {
	rows := make([]domain.ComparisonRow, 0, len(c.AllKPIs)*len(s.Periods))
	for _, kpi := range c.AllKPIs {
		for _, period := range s.Periods {
			values := make([]domain.AgencyValue, 0, len(s.Agencies))
			for _, name := range s.Agencies {
				values = append(values, domain.AgencyValue{Agency: name, Value: c.Find(name).Value(kpi, period)})
			}
			rows = append(rows, domain.ComparisonRow{
				KPI:     kpi,
				Period:  period,
				Values:  values,
				Leaders: LeadersAt(c, s, kpi, period).Agencies,
			})
		}
	}
	return rows
}

// TopKPIs returns the first n KPIs of the catalog. n <= 0 returns all.
func TopKPIs(c domain.Catalog, n int) []string {
	if n <= 0 || n > len(c.AllKPIs) {
		n = len(c.AllKPIs)
	}
	return append([]string{}, c.AllKPIs[:n]...)
}

func grandTotal(c domain.Catalog, name string, periods []string) float64 {
	agency := c.Find(name)
	sum := 0.0
	for _, kpi := range c.AllKPIs {
		for _, period := range periods {
			sum += agency.Value(kpi, period)
		}
	}
	return sum
}
