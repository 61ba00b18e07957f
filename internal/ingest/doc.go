// Package ingest turns per-agency spreadsheet tables into normalized
// AgencyDataset values.
//
// # Pipeline
//
//	CSV / TSV / XLSX / JSON sheet map → []domain.RawRow → Classify → Normalize → AgencyDataset
//
// Classify finds the KPI label column (first header mentioning kpi, indicador,
// metrica or metric) and every period column (Spanish or English month names,
// MM/YYYY, YYYY-MM, or a Q1..Q4 / T1..T4 prefix). Normalize then walks the
// rows, skipping blank labels, and coerces each period cell with Coerce.
//
// # Usage
//
//	rows, err := ingest.ParseFile("KIA Iztapalapa.csv", file)
//	if err != nil {
//	    return err
//	}
//	dataset, err := ingest.Normalize(rows, ingest.AgencyNameFromFile("KIA Iztapalapa.csv"))
//
// # Errors
//
// Header problems match ErrClassification and empty sources match
// ErrEmptyDataset, so callers can tell content rejections apart from read
// failures with IsValidationError.
package ingest
