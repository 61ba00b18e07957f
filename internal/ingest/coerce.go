package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// floatPrefix matches the longest numeric prefix a spreadsheet parseFloat
// would accept.
var floatPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// stripper removes thousands separators, percent signs and currency symbols.
var stripper = strings.NewReplacer(",", "", "%", "", "$", "")

// Coerce converts a raw cell into a number. It never fails: empty cells,
// text without a leading number, NaN and infinities all become 0.
//
//	"1,200" -> 1200   "50%" -> 50   "$3.5" -> 3.5   "12abc" -> 12   "n/a" -> 0
func Coerce(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case json.Number:
		return CoerceString(v.String())
	case string:
		return CoerceString(v)
	case bool:
		return 0
	default:
		return CoerceString(fmt.Sprint(v))
	}
}

// CoerceString applies the cell coercion rules to text.
func CoerceString(s string) float64 {
	s = strings.TrimLeftFunc(stripper.Replace(s), unicode.IsSpace)
	if s == "" {
		return 0
	}
	prefix := floatPrefix.FindString(s)
	if prefix == "" {
		return 0
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		// Out-of-range exponents parse to ±Inf with ErrRange.
		return 0
	}
	return finite(f)
}

// CellText renders a raw cell as the text a spreadsheet would show.
func CellText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
