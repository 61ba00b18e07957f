package domain

// MaxSelectedAgencies is the comparison capacity of a selection.
const MaxSelectedAgencies = 9

// Selection is the subset of agencies and periods currently in scope.
// Both lists are ordered and free of duplicates.
type Selection struct {
	Agencies []string `json:"agencies" validate:"max=9,dive,required"`
	Periods  []string `json:"periods" validate:"dive,required"`
}

// Clone returns a copy that does not share backing arrays.
func (s Selection) Clone() Selection {
	return Selection{
		Agencies: append([]string{}, s.Agencies...),
		Periods:  append([]string{}, s.Periods...),
	}
}

// AggregationCell is one value of the agency × period × KPI cross product.
type AggregationCell struct {
	Agency string  `json:"agency"`
	Period string  `json:"period"`
	KPI    string  `json:"kpi"`
	Value  float64 `json:"value"`
}

// AgencyValue pairs an agency with a derived value.
type AgencyValue struct {
	Agency string  `json:"agency"`
	Value  float64 `json:"value"`
}

// KPITotals holds, for one KPI, the per-agency sum over the selected periods.
type KPITotals struct {
	KPI    string        `json:"kpi"`
	Totals []AgencyValue `json:"totals"`
}

// PeriodTotals holds, for one period, the per-agency sum over all KPIs.
type PeriodTotals struct {
	Period string        `json:"period"`
	Totals []AgencyValue `json:"totals"`
}

// AgencyRank is an agency grand total with its 1-based rank.
type AgencyRank struct {
	Agency string  `json:"agency"`
	Total  float64 `json:"total"`
	Rank   int     `json:"rank"`
}

// CellLeaders lists every selected agency reaching the maximum at a
// (kpi, period) coordinate.
type CellLeaders struct {
	KPI      string   `json:"kpi"`
	Period   string   `json:"period"`
	Max      float64  `json:"max"`
	Agencies []string `json:"agencies"`
}

// ComparisonRow is one KPI × period line of the comparison table.
type ComparisonRow struct {
	KPI     string        `json:"kpi"`
	Period  string        `json:"period"`
	Values  []AgencyValue `json:"values"`
	Leaders []string      `json:"leaders"`
}

// KPISummary holds descriptive statistics of one KPI across the selected
// agencies' totals.
type KPISummary struct {
	KPI    string  `json:"kpi"`
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}
