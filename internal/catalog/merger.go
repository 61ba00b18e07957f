package catalog

import (
	"kpianalyzer/pkg/contracts/domain"
)

// Upsert returns a catalog with d added. A dataset with the same name is
// replaced in place; otherwise d is appended. The input catalog is not
// modified.
func Upsert(c domain.Catalog, d domain.AgencyDataset) domain.Catalog {
	agencies := make([]domain.AgencyDataset, 0, len(c.Agencies)+1)
	replaced := false
	for _, existing := range c.Agencies {
		if existing.Name == d.Name {
			agencies = append(agencies, d.Clone())
			replaced = true
			continue
		}
		agencies = append(agencies, existing)
	}
	if !replaced {
		agencies = append(agencies, d.Clone())
	}
	return build(agencies)
}

// Remove returns a catalog without the agency called name. Removing an
// unknown name returns an equal catalog.
func Remove(c domain.Catalog, name string) domain.Catalog {
	agencies := make([]domain.AgencyDataset, 0, len(c.Agencies))
	for _, existing := range c.Agencies {
		if existing.Name != name {
			agencies = append(agencies, existing)
		}
	}
	return build(agencies)
}

// ReplaceAll returns a catalog holding exactly ds. When ds names an agency
// twice, the later dataset wins and keeps the position of the first.
func ReplaceAll(_ domain.Catalog, ds []domain.AgencyDataset) domain.Catalog {
	agencies := make([]domain.AgencyDataset, 0, len(ds))
	index := make(map[string]int, len(ds))
	for _, d := range ds {
		if i, ok := index[d.Name]; ok {
			agencies[i] = d.Clone()
			continue
		}
		index[d.Name] = len(agencies)
		agencies = append(agencies, d.Clone())
	}
	return build(agencies)
}

// RecomputeUnions returns every KPI and period of agencies in first-seen
// order, walking agencies in catalog order and each agency's own lists in
// order.
func RecomputeUnions(agencies []domain.AgencyDataset) (kpis, periods []string) {
	kpis = make([]string, 0)
	periods = make([]string, 0)
	seenKPI := make(map[string]bool)
	seenPeriod := make(map[string]bool)

	for _, a := range agencies {
		for _, k := range a.KPIs {
			if !seenKPI[k] {
				seenKPI[k] = true
				kpis = append(kpis, k)
			}
		}
		for _, p := range a.Periods {
			if !seenPeriod[p] {
				seenPeriod[p] = true
				periods = append(periods, p)
			}
		}
	}
	return kpis, periods
}

func build(agencies []domain.AgencyDataset) domain.Catalog {
	kpis, periods := RecomputeUnions(agencies)
	return domain.Catalog{
		Agencies:   agencies,
		AllKPIs:    kpis,
		AllPeriods: periods,
	}
}
