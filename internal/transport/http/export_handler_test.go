package http

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestComparisonCSVExport(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.doJSON(t, http.MethodGet, "/api/exports/comparison.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="kpi-comparison-\d{8}-\d{6}\.csv"$`, rec.Header().Get("Content-Disposition"))

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "\ufeff"), "missing BOM")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(body, "\ufeff")), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "KPI,Period,KIA,Mazda,Leaders", strings.TrimSpace(lines[0]))
	assert.Equal(t, "Ventas,Enero,10.00,10.00,KIA; Mazda", strings.TrimSpace(lines[1]))
	assert.Equal(t, "Ventas,Febrero,20.00,30.00,Mazda", strings.TrimSpace(lines[2]))
}

func TestComparisonWorkbookExport(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.doJSON(t, http.MethodGet, "/api/exports/comparison.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Comparison", "KPI Totals", "Period Totals", "Ranking", "Summary"}, f.GetSheetList())
	v, err := f.GetCellValue("Ranking", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Mazda", v)
}
