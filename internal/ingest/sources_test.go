package ingest

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pierrec/lz4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "\ufeff KPI ,Enero,Febrero\nVentas,\"1,200\",800\n\n,,\nLeads,,50%\n"

func TestAgencyNameFromFile(t *testing.T) {
	tests := map[string]string{
		"KIA Iztapalapa.csv":              "KIA Iztapalapa",
		"MG Interlomas.v2.xlsx":           "MG Interlomas",
		"uploads/Honda Cuajimalpa.csv.gz": "Honda Cuajimalpa",
		`C:\tmp\GWM Morelos.csv`:          "GWM Morelos",
		"noext":                           "noext",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, AgencyNameFromFile(in))
		})
	}
}

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"KPI", "Enero", "Febrero"}, rows[0].Fields)
	assert.Equal(t, "1,200", rows[0].Get("Enero"))
	assert.Equal(t, "Leads", rows[1].Get("KPI"))
	assert.Equal(t, "50%", rows[1].Get("Febrero"))

	dataset, err := Normalize(rows, "A")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, dataset.Value("Ventas", "Enero"))
	assert.Equal(t, 50.0, dataset.Value("Leads", "Febrero"))
}

func TestParseCSVShortRecords(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("KPI,Enero,Febrero\nVentas,5\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Get("Febrero"))
}

func TestUniqueHeaders(t *testing.T) {
	got := UniqueHeaders([]string{" KPI", "Enero", "Enero ", "Enero", "Enero_1"})
	assert.Equal(t, []string{"KPI", "Enero", "Enero_1", "Enero_2", "Enero_1_1"}, got)
}

func TestParsePasted(t *testing.T) {
	text := "KPI\tEnero\tFebrero\r\nVentas\t1,200\t800\r\n\t\t\r\nLeads\t\t50\r\n"

	rows := ParsePasted(text)
	require.Len(t, rows, 2)
	assert.Equal(t, "1,200", rows[0].Get("Enero"))
	assert.Equal(t, "50", rows[1].Get("Febrero"))

	assert.Nil(t, ParsePasted("   \n  "))
}

func TestParseWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	// Leave the default sheet empty and put the data on a second one.
	_, err := f.NewSheet("Datos")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Datos", "A1", &[]any{"KPI", "Enero", "Febrero"}))
	require.NoError(t, f.SetSheetRow("Datos", "A2", &[]any{"Ventas", 1200, 800}))
	require.NoError(t, f.SetSheetRow("Datos", "A3", &[]any{"Leads", 0, 50}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := ParseWorkbook(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "Datos", table.Name)
	require.Len(t, table.Rows, 2)

	dataset, err := Normalize(table.Rows, "A")
	require.NoError(t, err)
	assert.Equal(t, 800.0, dataset.Value("Ventas", "Febrero"))
	assert.Equal(t, 50.0, dataset.Value("Leads", "Febrero"))
}

func TestParseWorkbookEmpty(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = ParseWorkbook(bytes.NewReader(buf.Bytes()))
	assert.True(t, errors.Is(err, ErrEmptyDataset))
}

func TestParseFileArchives(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var lz bytes.Buffer
	lw := lz4.NewWriter(&lz)
	_, err = lw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, lw.Close())

	var zb bytes.Buffer
	zw := zip.NewWriter(&zb)
	small, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = small.Write([]byte("x"))
	require.NoError(t, err)
	big, err := zw.Create("data/KIA.csv")
	require.NoError(t, err)
	_, err = big.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"plain", "A.csv", []byte(sampleCSV)},
		{"gzip", "A.csv.gz", gz.Bytes()},
		{"lz4", "A.csv.lz4", lz.Bytes()},
		{"zip picks largest entry", "A.zip", zb.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseFile(tt.file, bytes.NewReader(tt.data))
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "Ventas", rows[0].Get("KPI"))
		})
	}
}

func TestParseFileUnsupported(t *testing.T) {
	_, err := ParseFile("report.pdf", strings.NewReader("%PDF"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"KIA.csv", true},
		{"KIA.TSV", true},
		{"KIA.xlsx", true},
		{"KIA.csv.gz", true},
		{"KIA.xlsx.lz4", true},
		{"KIA.zip", true},
		{"KIA.pdf", false},
		{"KIA.pdf.gz", false},
		{"KIA", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupported(tt.name))
		})
	}
}

func TestDecodeSheetMap(t *testing.T) {
	doc := `{
		"KIA Iztapalapa": [
			{"KPI": "Ventas", "Enero": 1200, "Febrero": "800"},
			{"KPI": "Leads", "Enero": 0, "Febrero": 50, "Marzo": 7}
		],
		"Template": [],
		"Notas": {"a": [1, 2]},
		"MG Morelos": [{"Indicador": "Citas", "Q1": 3}]
	}`

	tables, err := DecodeSheetMap(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, tables, 4)

	names := make([]string, 0, len(tables))
	for _, tbl := range tables {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"KIA Iztapalapa", "Template", "Notas", "MG Morelos"}, names)

	kia := tables[0]
	require.Len(t, kia.Rows, 2)
	assert.Equal(t, []string{"KPI", "Enero", "Febrero"}, kia.Rows[0].Fields)
	assert.Equal(t, json.Number("1200"), kia.Rows[0].Get("Enero"))
	assert.Nil(t, kia.Rows[1].Get("Marzo"), "keys missing from the first row are dropped")

	dataset, err := Normalize(kia.Rows, kia.Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"Enero", "Febrero"}, dataset.Periods)
	assert.Equal(t, 800.0, dataset.Value("Ventas", "Febrero"))
	assert.Equal(t, 50.0, dataset.Value("Leads", "Febrero"))

	assert.Empty(t, tables[1].Rows)
	assert.Empty(t, tables[2].Rows)
}

func TestDecodeSheetMapHeadersFromFirstRow(t *testing.T) {
	tables, err := DecodeSheetMap(strings.NewReader(`{"KIA": [{"KPI": "x", "Enero": 1}, {"KPI": "y", "Febrero": 2}]}`))
	require.NoError(t, err)
	require.Len(t, tables, 1)

	dataset, err := Normalize(tables[0].Rows, tables[0].Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"Enero"}, dataset.Periods)
	assert.Equal(t, []string{"x", "y"}, dataset.KPIs)
	assert.Equal(t, 1.0, dataset.Value("x", "Enero"))
	assert.Equal(t, 0.0, dataset.Value("y", "Enero"))
}

func TestDecodeSheetMapRejectsNonObject(t *testing.T) {
	_, err := DecodeSheetMap(strings.NewReader(`[1,2]`))
	assert.Error(t, err)
}
