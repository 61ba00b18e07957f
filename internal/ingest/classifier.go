package ingest

import (
	"regexp"
	"strings"
)

// kpiMarkers are matched as lower-case substrings of a header.
var kpiMarkers = []string{"kpi", "indicador", "metrica", "metric"}

var (
	periodPattern  = regexp.MustCompile(`(?i)(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre|jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec|\d{1,2}/\d{4}|\d{4}-\d{2})`)
	quarterPattern = regexp.MustCompile(`(?i)^(Q[1-4]|T[1-4])`)
)

// Classification locates the KPI label column and the period columns of a table.
type Classification struct {
	KPIColumn     string   `json:"kpi_column"`
	PeriodColumns []string `json:"period_columns"`
}

// Classify inspects a table's headers and returns the KPI column (the first
// header naming a KPI/metric) and every header that looks like a period, in
// header order.
func Classify(headers []string) (Classification, error) {
	kpiColumn, ok := findKPIColumn(headers)
	if !ok {
		return Classification{}, &MissingKPIColumnError{Available: append([]string(nil), headers...)}
	}

	periods := make([]string, 0, len(headers))
	for _, h := range headers {
		if IsPeriodHeader(h) {
			periods = append(periods, h)
		}
	}
	if len(periods) == 0 {
		return Classification{}, &NoPeriodColumnsError{Available: append([]string(nil), headers...)}
	}

	return Classification{KPIColumn: kpiColumn, PeriodColumns: periods}, nil
}

// IsKPIHeader reports whether a header names the KPI label column.
func IsKPIHeader(header string) bool {
	lower := strings.ToLower(header)
	for _, marker := range kpiMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsPeriodHeader reports whether a header names a month, a dated bucket or a
// quarter.
func IsPeriodHeader(header string) bool {
	return periodPattern.MatchString(header) || quarterPattern.MatchString(header)
}

func findKPIColumn(headers []string) (string, bool) {
	for _, h := range headers {
		if IsKPIHeader(h) {
			return h, true
		}
	}
	return "", false
}
