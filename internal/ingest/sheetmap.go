package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"kpianalyzer/pkg/contracts/domain"
)

// DecodeSheetMap reads a workbook dump shaped as
//
//	{"Sheet A": [{"KPI": "Ventas", "Enero": 1200}, ...], "Sheet B": [...]}
//
// keeping sheet order and each sheet's header order as they appear in the
// document. The headers of a sheet are the keys of its first row; keys that
// only appear in later rows are dropped. Values keep their JSON type, numbers
// as json.Number.
func DecodeSheetMap(r io.Reader) ([]Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var tables []Table
	for dec.More() {
		name, err := decodeKey(dec)
		if err != nil {
			return nil, err
		}
		rows, err := decodeSheetRows(dec)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		tables = append(tables, Table{Name: name, Rows: rows})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return tables, nil
}

// decodeSheetRows reads one sheet's value. Anything but an array of objects
// yields no rows.
func decodeSheetRows(dec *json.Decoder) ([]domain.RawRow, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		if ok {
			// Consume the rest of an object value so decoding can continue.
			if err := skipComposite(dec); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	var (
		fields  []string
		known   = make(map[string]bool)
		records []map[string]any
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		delim, ok := tok.(json.Delim)
		if !ok {
			continue
		}
		if delim != '{' {
			if err := skipComposite(dec); err != nil {
				return nil, err
			}
			continue
		}

		record := make(map[string]any)
		for dec.More() {
			key, err := decodeKey(dec)
			if err != nil {
				return nil, err
			}
			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, err
			}
			if len(records) == 0 && !known[key] {
				known[key] = true
				fields = append(fields, key)
			}
			record[key] = value
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}

	headers := UniqueHeaders(fields)
	rows := make([]domain.RawRow, 0, len(records))
	for _, rec := range records {
		values := make(map[string]any, len(fields))
		for i, f := range fields {
			values[headers[i]] = rec[f]
		}
		rows = append(rows, domain.RawRow{Fields: headers, Values: values})
	}
	return rows, nil
}

func decodeKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// skipComposite consumes tokens until the composite value just opened closes.
func skipComposite(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
