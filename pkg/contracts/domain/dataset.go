package domain

// RawRow is one row of a source table. Fields carries the header order of the
// table the row came from; every row of one table shares the same Fields.
type RawRow struct {
	Fields []string       `json:"fields"`
	Values map[string]any `json:"values"`
}

// NewRawRow builds a row from parallel header and cell slices. Missing trailing
// cells are stored as empty strings so every field is present.
func NewRawRow(fields []string, cells []string) RawRow {
	values := make(map[string]any, len(fields))
	for i, field := range fields {
		if i < len(cells) {
			values[field] = cells[i]
		} else {
			values[field] = ""
		}
	}
	return RawRow{Fields: fields, Values: values}
}

// Get returns the raw value stored under field, or nil.
func (r RawRow) Get(field string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[field]
}

// AgencyDataset is the normalized table of one agency: the KPI × Period
// value matrix plus the ordered KPI and period lists it was built from.
type AgencyDataset struct {
	Name    string                        `json:"name" validate:"required"`
	KPIs    []string                      `json:"kpis"`
	Periods []string                      `json:"periods"`
	Values  map[string]map[string]float64 `json:"values"`
}

// Value returns the value at (kpi, period). Missing pairs read as 0.
func (d *AgencyDataset) Value(kpi, period string) float64 {
	if d == nil {
		return 0
	}
	byPeriod, ok := d.Values[kpi]
	if !ok {
		return 0
	}
	return byPeriod[period]
}

// Has reports whether a value was stored for (kpi, period).
func (d *AgencyDataset) Has(kpi, period string) bool {
	if d == nil {
		return false
	}
	_, ok := d.Values[kpi][period]
	return ok
}

// Clone returns a deep copy of the dataset.
func (d AgencyDataset) Clone() AgencyDataset {
	out := AgencyDataset{
		Name:    d.Name,
		KPIs:    append([]string(nil), d.KPIs...),
		Periods: append([]string(nil), d.Periods...),
		Values:  make(map[string]map[string]float64, len(d.Values)),
	}
	for kpi, byPeriod := range d.Values {
		row := make(map[string]float64, len(byPeriod))
		for period, v := range byPeriod {
			row[period] = v
		}
		out.Values[kpi] = row
	}
	return out
}

// Catalog is the in-memory collection of loaded agency datasets together with
// the global KPI and period orderings derived from them.
type Catalog struct {
	Agencies   []AgencyDataset `json:"agencies"`
	AllKPIs    []string        `json:"all_kpis"`
	AllPeriods []string        `json:"all_periods"`
}

// Find returns the dataset named name, or nil.
func (c Catalog) Find(name string) *AgencyDataset {
	for i := range c.Agencies {
		if c.Agencies[i].Name == name {
			return &c.Agencies[i]
		}
	}
	return nil
}

// AgencyNames returns the agency names in catalog order.
func (c Catalog) AgencyNames() []string {
	names := make([]string, 0, len(c.Agencies))
	for _, a := range c.Agencies {
		names = append(names, a.Name)
	}
	return names
}

// AgencySummary is the lightweight description of a loaded agency.
type AgencySummary struct {
	Name        string `json:"name"`
	KPICount    int    `json:"kpi_count"`
	PeriodCount int    `json:"period_count"`
}

// Summaries describes every loaded agency in catalog order.
func (c Catalog) Summaries() []AgencySummary {
	out := make([]AgencySummary, 0, len(c.Agencies))
	for _, a := range c.Agencies {
		out = append(out, AgencySummary{
			Name:        a.Name,
			KPICount:    len(a.KPIs),
			PeriodCount: len(a.Periods),
		})
	}
	return out
}
