package catalog

import (
	"errors"
	"fmt"

	"kpianalyzer/pkg/contracts/domain"
)

// ErrTooManyAgencies is returned when a selection names more agencies than
// domain.MaxSelectedAgencies.
var ErrTooManyAgencies = fmt.Errorf("at most %d agencies can be selected", domain.MaxSelectedAgencies)

// ErrUnknownAgency is matched by UnknownAgencyError.
var ErrUnknownAgency = errors.New("unknown agency")

// ErrUnknownPeriod is matched by UnknownPeriodError.
var ErrUnknownPeriod = errors.New("unknown period")

// UnknownAgencyError names an agency that is not loaded.
type UnknownAgencyError struct {
	Name string
}

func (e *UnknownAgencyError) Error() string {
	return fmt.Sprintf("agency %q is not loaded", e.Name)
}

func (e *UnknownAgencyError) Unwrap() error { return ErrUnknownAgency }

// UnknownPeriodError names a period no loaded agency carries.
type UnknownPeriodError struct {
	Period string
}

func (e *UnknownPeriodError) Error() string {
	return fmt.Sprintf("period %q is not present in any agency", e.Period)
}

func (e *UnknownPeriodError) Unwrap() error { return ErrUnknownPeriod }

// IsSelectionError reports whether err rejects a requested selection.
func IsSelectionError(err error) bool {
	return errors.Is(err, ErrTooManyAgencies) ||
		errors.Is(err, ErrUnknownAgency) ||
		errors.Is(err, ErrUnknownPeriod)
}

// NormalizeSelection drops duplicates, agencies that are not loaded and
// periods absent from the catalog, keeping the requested order. The agency
// list is capped at domain.MaxSelectedAgencies.
func NormalizeSelection(c domain.Catalog, s domain.Selection) domain.Selection {
	loaded := make(map[string]bool, len(c.Agencies))
	for _, a := range c.Agencies {
		loaded[a.Name] = true
	}
	known := make(map[string]bool, len(c.AllPeriods))
	for _, p := range c.AllPeriods {
		known[p] = true
	}

	out := domain.Selection{
		Agencies: make([]string, 0, len(s.Agencies)),
		Periods:  make([]string, 0, len(s.Periods)),
	}
	seen := make(map[string]bool)
	for _, name := range s.Agencies {
		if !loaded[name] || seen[name] || len(out.Agencies) == domain.MaxSelectedAgencies {
			continue
		}
		seen[name] = true
		out.Agencies = append(out.Agencies, name)
	}

	seen = make(map[string]bool)
	for _, p := range s.Periods {
		if !known[p] || seen[p] {
			continue
		}
		seen[p] = true
		out.Periods = append(out.Periods, p)
	}
	return out
}

// ValidateSelection checks a requested selection against the catalog without
// altering it. Duplicates are tolerated; NormalizeSelection removes them.
func ValidateSelection(c domain.Catalog, s domain.Selection) error {
	unique := make(map[string]bool, len(s.Agencies))
	for _, name := range s.Agencies {
		unique[name] = true
	}
	if len(unique) > domain.MaxSelectedAgencies {
		return ErrTooManyAgencies
	}

	for _, name := range s.Agencies {
		if c.Find(name) == nil {
			return &UnknownAgencyError{Name: name}
		}
	}

	known := make(map[string]bool, len(c.AllPeriods))
	for _, p := range c.AllPeriods {
		known[p] = true
	}
	for _, p := range s.Periods {
		if !known[p] {
			return &UnknownPeriodError{Period: p}
		}
	}
	return nil
}

// DefaultSelection picks the first maxAgencies agencies and the first
// maxPeriods periods of the catalog. Non-positive limits fall back to
// domain.MaxSelectedAgencies and all periods respectively.
func DefaultSelection(c domain.Catalog, maxAgencies, maxPeriods int) domain.Selection {
	if maxAgencies <= 0 || maxAgencies > domain.MaxSelectedAgencies {
		maxAgencies = domain.MaxSelectedAgencies
	}
	if maxPeriods <= 0 || maxPeriods > len(c.AllPeriods) {
		maxPeriods = len(c.AllPeriods)
	}

	names := c.AgencyNames()
	if len(names) > maxAgencies {
		names = names[:maxAgencies]
	}
	return domain.Selection{
		Agencies: names,
		Periods:  append([]string{}, c.AllPeriods[:maxPeriods]...),
	}
}
