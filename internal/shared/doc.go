// Package shared holds helpers used by more than one package. The testutil
// subpackage provides a capturing slog handler and KPI dataset fixtures for
// tests; it must not be imported by production code.
package shared
