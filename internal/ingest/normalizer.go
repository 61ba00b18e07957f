package ingest

import (
	"strings"

	"kpianalyzer/pkg/contracts/domain"
)

// undefinedPlaceholder is what broken spreadsheet exports write into blank
// label cells.
const undefinedPlaceholder = "undefined"

// Normalize converts the rows of one source table into an AgencyDataset named
// label. Headers are taken from the first row. Rows whose KPI label is blank or
// "undefined" are skipped; a KPI label repeated further down overwrites the
// earlier row's values but keeps its original position.
func Normalize(rows []domain.RawRow, label string) (*domain.AgencyDataset, error) {
	if len(rows) == 0 {
		return nil, &EmptyDatasetError{Label: label}
	}

	class, err := Classify(rows[0].Fields)
	if err != nil {
		return nil, &SourceError{Source: label, Err: err}
	}

	dataset := &domain.AgencyDataset{
		Name:    label,
		KPIs:    make([]string, 0, len(rows)),
		Periods: append([]string(nil), class.PeriodColumns...),
		Values:  make(map[string]map[string]float64, len(rows)),
	}

	for _, row := range rows {
		kpi := strings.TrimSpace(CellText(row.Get(class.KPIColumn)))
		if kpi == "" || kpi == undefinedPlaceholder {
			continue
		}

		if _, seen := dataset.Values[kpi]; !seen {
			dataset.KPIs = append(dataset.KPIs, kpi)
		}

		values := make(map[string]float64, len(class.PeriodColumns))
		for _, period := range class.PeriodColumns {
			values[period] = Coerce(row.Get(period))
		}
		dataset.Values[kpi] = values
	}

	return dataset, nil
}
