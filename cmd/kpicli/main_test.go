package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kpianalyzer/internal/config"
	"kpianalyzer/internal/files"
	"kpianalyzer/internal/services"
	"kpianalyzer/internal/shared/testutil"
)

func writeFixtures(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	fixtures := map[string]string{
		"KIA.csv": testutil.CSV(
			[]string{"KPI", "Enero", "Febrero"},
			[]string{"Ventas", "10", "20"},
			[]string{"Leads", "5", "5"},
		),
		"Mazda.csv": testutil.CSV(
			[]string{"Indicador", "Enero", "Febrero"},
			[]string{"Ventas", "10", "30"},
			[]string{"Leads", "1", "1"},
		),
	}
	var paths []string
	for _, name := range []string{"KIA.csv", "Mazda.csv"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(fixtures[name]), 0644))
		paths = append(paths, path)
	}
	return dir, paths
}

func TestRunPrintsViews(t *testing.T) {
	_, paths := writeFixtures(t)
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(context.Background(), paths, &stdout, &stderr))

	out := stdout.String()
	assert.Contains(t, out, "loaded 2 of 2 files: 2 KPIs, 2 periods")
	assert.Contains(t, strings.ToLower(out), "ranking")
	assert.Contains(t, strings.ToLower(out), "comparison")
	assert.Contains(t, out, "42.00")
	assert.Contains(t, out, "KIA; Mazda")
	assert.Less(t, strings.Index(out, "Mazda"), strings.Index(out, "KIA"), "ranking lists the leader first")
}

func TestRunLoadsDirectory(t *testing.T) {
	dir, _ := writeFixtures(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.pdf"), []byte("%PDF"), 0644))
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(context.Background(), []string{dir}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "loaded 2 of 2 files: 2 KPIs, 2 periods")
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), config.AppName+" v"+config.AppVersion)
}

func TestRunSelectionAndViews(t *testing.T) {
	_, paths := writeFixtures(t)
	var stdout, stderr bytes.Buffer

	args := append([]string{"-agencies", "KIA", "-periods", "Febrero", "-views", "kpi-totals,summary"}, paths...)
	require.NoError(t, run(context.Background(), args, &stdout, &stderr))

	out := stdout.String()
	lower := strings.ToLower(out)
	assert.Contains(t, lower, "kpi totals")
	assert.Contains(t, lower, "summary")
	assert.NotContains(t, lower, "ranking")
	assert.Contains(t, out, "20.00")
	assert.NotContains(t, out, "30.00")
}

func TestRunWritesExports(t *testing.T) {
	_, paths := writeFixtures(t)
	out := t.TempDir()
	var stdout, stderr bytes.Buffer

	args := append([]string{"-csv", "-xlsx", "-views", "ranking", "-out", out}, paths...)
	require.NoError(t, run(context.Background(), args, &stdout, &stderr))

	csvs, err := filepath.Glob(filepath.Join(out, "kpi-comparison-*.csv"))
	require.NoError(t, err)
	require.Len(t, csvs, 1)
	data, err := os.ReadFile(csvs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "KPI,Period,KIA,Mazda,Leaders")

	books, err := filepath.Glob(filepath.Join(out, "kpi-comparison-*.xlsx"))
	require.NoError(t, err)
	require.Len(t, books, 1)
	f, err := excelize.OpenFile(books[0])
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Ranking")

	assert.Contains(t, stdout.String(), "wrote "+csvs[0])
}

func TestRunErrors(t *testing.T) {
	dir, paths := writeFixtures(t)
	broken := filepath.Join(dir, "broken.csv")
	require.NoError(t, os.WriteFile(broken, []byte("Nombre,Enero\nVentas,1\n"), 0644))

	tests := []struct {
		name    string
		args    []string
		wantErr string
		wantOut string
	}{
		{name: "no files", args: nil, wantErr: errUsage.Error()},
		{name: "unknown view", args: append([]string{"-views", "pie"}, paths...), wantErr: `unknown view "pie"`},
		{name: "bad top", args: append([]string{"-top", "0"}, paths...), wantErr: "-top must be positive"},
		{name: "unknown agency", args: append([]string{"-agencies", "Nissan"}, paths...), wantErr: "Nissan"},
		{name: "missing path", args: []string{filepath.Join(dir, "Nissan.csv")}, wantErr: "does not exist"},
		{name: "empty directory", args: []string{t.TempDir()}, wantErr: files.ErrNoFiles.Error()},
		{name: "every file fails", args: []string{broken}, wantErr: services.ErrBatchFailed.Error(), wantOut: "Failed files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.wantOut != "" {
				assert.Contains(t, strings.ToLower(stdout.String()), strings.ToLower(tt.wantOut))
				assert.Contains(t, stdout.String(), "broken.csv")
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"KIA", "Mazda"}, splitList(" KIA, ,Mazda "))
	assert.Nil(t, splitList(""))
}
