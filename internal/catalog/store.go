package catalog

import (
	"log/slog"
	"sync"

	"kpianalyzer/pkg/contracts/domain"
)

// ChangeKind identifies what a Change touched.
type ChangeKind string

const (
	ChangeCatalog   ChangeKind = "catalog"
	ChangeSelection ChangeKind = "selection"
)

// Change is delivered to listeners after every successful mutation.
type Change struct {
	Kind      ChangeKind             `json:"kind"`
	Agencies  []domain.AgencySummary `json:"agencies"`
	KPIs      int                    `json:"kpi_count"`
	Periods   int                    `json:"period_count"`
	Selection domain.Selection       `json:"selection"`
}

// Listener receives store changes. Listeners run synchronously after the
// store lock is released and must not block.
type Listener func(Change)

// Store is the single writer of the session catalog and selection. Datasets
// inside a committed catalog are never mutated, so snapshots share them.
type Store struct {
	mu        sync.RWMutex
	catalog   domain.Catalog
	selection domain.Selection

	defaultAgencies int
	defaultPeriods  int

	listenersMu sync.RWMutex
	listeners   []Listener

	logger *slog.Logger
}

// NewStore creates an empty store. After a replace commit the selection is
// reset to the first defaultAgencies agencies and defaultPeriods periods.
func NewStore(logger *slog.Logger, defaultAgencies, defaultPeriods int) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		catalog:         domain.Catalog{AllKPIs: []string{}, AllPeriods: []string{}},
		selection:       domain.Selection{Agencies: []string{}, Periods: []string{}},
		defaultAgencies: defaultAgencies,
		defaultPeriods:  defaultPeriods,
		logger:          logger.With(slog.String("component", "catalog.store")),
	}
}

// Subscribe registers l for future changes.
func (s *Store) Subscribe(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns the current catalog.
func (s *Store) Snapshot() domain.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCatalog(s.catalog)
}

// Selection returns the current selection.
func (s *Store) Selection() domain.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.Clone()
}

// View returns the catalog and selection as one consistent pair.
func (s *Store) View() (domain.Catalog, domain.Selection) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCatalog(s.catalog), s.selection.Clone()
}

// Apply replaces the catalog with fn's result and prunes the selection to
// what the new catalog still holds.
func (s *Store) Apply(fn func(domain.Catalog) domain.Catalog) domain.Catalog {
	s.mu.Lock()
	s.catalog = fn(s.catalog)
	s.selection = NormalizeSelection(s.catalog, s.selection)
	change := s.changeLocked(ChangeCatalog)
	out := copyCatalog(s.catalog)
	s.mu.Unlock()

	s.notify(change)
	return out
}

// Replace discards every loaded agency, stores ds and resets the selection
// to the defaults.
func (s *Store) Replace(ds []domain.AgencyDataset) domain.Catalog {
	s.mu.Lock()
	s.catalog = ReplaceAll(s.catalog, ds)
	s.selection = DefaultSelection(s.catalog, s.defaultAgencies, s.defaultPeriods)
	change := s.changeLocked(ChangeCatalog)
	out := copyCatalog(s.catalog)
	s.mu.Unlock()

	s.logger.Info("catalog replaced",
		slog.Int("agencies", len(out.Agencies)),
		slog.Int("kpis", len(out.AllKPIs)),
		slog.Int("periods", len(out.AllPeriods)))
	s.notify(change)
	return out
}

// Upsert adds or replaces each dataset in order.
func (s *Store) Upsert(ds ...domain.AgencyDataset) domain.Catalog {
	out := s.Apply(func(c domain.Catalog) domain.Catalog {
		for _, d := range ds {
			c = Upsert(c, d)
		}
		return c
	})
	s.logger.Info("catalog merged",
		slog.Int("datasets", len(ds)),
		slog.Int("agencies", len(out.Agencies)))
	return out
}

// Remove drops the agency called name. It reports whether the agency existed;
// removing an unknown agency changes nothing and notifies nobody.
func (s *Store) Remove(name string) bool {
	s.mu.Lock()
	if s.catalog.Find(name) == nil {
		s.mu.Unlock()
		return false
	}
	s.catalog = Remove(s.catalog, name)
	s.selection = NormalizeSelection(s.catalog, s.selection)
	change := s.changeLocked(ChangeCatalog)
	s.mu.Unlock()

	s.logger.Info("agency removed", slog.String("agency", name))
	s.notify(change)
	return true
}

// SetSelection validates sel against the catalog and stores its normalized
// form.
func (s *Store) SetSelection(sel domain.Selection) (domain.Selection, error) {
	s.mu.Lock()
	if err := ValidateSelection(s.catalog, sel); err != nil {
		s.mu.Unlock()
		return domain.Selection{}, err
	}
	s.selection = NormalizeSelection(s.catalog, sel)
	change := s.changeLocked(ChangeSelection)
	out := s.selection.Clone()
	s.mu.Unlock()

	s.notify(change)
	return out, nil
}

func (s *Store) changeLocked(kind ChangeKind) Change {
	return Change{
		Kind:      kind,
		Agencies:  s.catalog.Summaries(),
		KPIs:      len(s.catalog.AllKPIs),
		Periods:   len(s.catalog.AllPeriods),
		Selection: s.selection.Clone(),
	}
}

func (s *Store) notify(change Change) {
	s.listenersMu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		l(change)
	}
}

func copyCatalog(c domain.Catalog) domain.Catalog {
	return domain.Catalog{
		Agencies:   append([]domain.AgencyDataset{}, c.Agencies...),
		AllKPIs:    append([]string{}, c.AllKPIs...),
		AllPeriods: append([]string{}, c.AllPeriods...),
	}
}
