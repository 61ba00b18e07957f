// Command kpicli loads agency KPI files, prints the comparison views as
// tables and optionally writes CSV and XLSX exports.
//
//	kpicli [-agencies A,B] [-periods Jan,Feb] [-views ranking,comparison] [-csv] [-xlsx] [-out dir] path...
//
// Each path is an agency file or a directory of agency files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"kpianalyzer/internal/catalog"
	"kpianalyzer/internal/config"
	"kpianalyzer/internal/exporter"
	"kpianalyzer/internal/files"
	"kpianalyzer/internal/infrastructure"
	"kpianalyzer/internal/services"
	"kpianalyzer/pkg/contracts"
	"kpianalyzer/pkg/contracts/domain"
)

const exportTitle = "KPI comparison"

var errUsage = errors.New("usage: kpicli [flags] path...")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// options are the parsed command line flags
type options struct {
	agencies  []string
	periods   []string
	views     []string
	top       int
	workers   int
	writeCSV  bool
	writeXLSX bool
	outDir    string
	logLevel  string
	version   bool
	paths     []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("kpicli", flag.ContinueOnError)
	fs.SetOutput(stderr)

	agencies := fs.String("agencies", "", "comma separated agencies to compare (defaults to the first loaded)")
	periods := fs.String("periods", "", "comma separated periods to compare (defaults to the first loaded)")
	views := fs.String("views", "ranking,comparison", "views to print: ranking, comparison, kpi-totals, period-totals, summary or all")
	top := fs.Int("top", config.GroupedChartKPIs, "number of KPIs in the KPI totals view")
	workers := fs.Int("workers", config.DefaultIngestWorkers, "files loaded in parallel")
	writeCSV := fs.Bool("csv", false, "write the comparison table as CSV")
	writeXLSX := fs.Bool("xlsx", false, "write every view to an XLSX workbook")
	outDir := fs.String("out", "", "export directory (defaults to data/exports relative to the executable)")
	logLevel := fs.String("log-level", "warn", "log level for diagnostics on stderr")
	version := fs.Bool("version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *version {
		return &options{version: true}, nil
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, errUsage
	}
	if *top < 1 {
		return nil, fmt.Errorf("-top must be positive: %d", *top)
	}

	return &options{
		agencies:  splitList(*agencies),
		periods:   splitList(*periods),
		views:     splitList(*views),
		top:       *top,
		workers:   *workers,
		writeCSV:  *writeCSV,
		writeXLSX: *writeXLSX,
		outDir:    *outDir,
		logLevel:  *logLevel,
		paths:     fs.Args(),
	}, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, config.AppName, contracts.GetVersionInfo(config.AppVersion))
		return nil
	}

	logger := infrastructure.NewLogger(stderr, opts.logLevel)
	found, err := files.NewDiscovery(logger).Expand(opts.paths)
	if err != nil {
		return err
	}

	store := catalog.NewStore(logger, config.MaxSelectedAgencies, config.DefaultSelectedPeriods)
	ingest := services.NewIngestService(store, services.IngestOptions{Workers: opts.workers}, logger)
	analytics := services.NewAnalyticsService(store, nil, logger)

	sources := make([]*services.FileSource, len(found))
	for i, f := range found {
		sources[i] = services.NewPathSource(f.Path)
	}

	batch, err := ingest.IngestFiles(ctx, sources)
	if batch != nil {
		printBatch(stdout, batch)
	}
	if err != nil {
		return err
	}

	if len(opts.agencies) > 0 || len(opts.periods) > 0 {
		sel := store.Selection()
		if len(opts.agencies) > 0 {
			sel.Agencies = opts.agencies
		}
		if len(opts.periods) > 0 {
			sel.Periods = opts.periods
		}
		if _, err := analytics.SetSelection(ctx, sel); err != nil {
			return err
		}
	}

	report, err := analytics.Report(opts.top)
	if err != nil {
		return err
	}

	sheets, err := selectSheets(report, opts.views)
	if err != nil {
		return err
	}
	for _, sheet := range sheets {
		renderSheet(stdout, sheet)
	}

	if !opts.writeCSV && !opts.writeXLSX {
		return nil
	}
	return writeExports(stdout, report, opts, logger)
}

func writeExports(stdout io.Writer, report *exporter.Report, opts *options, logger *slog.Logger) error {
	pathsCfg := config.PathsConfig{ExportsDir: config.DefaultExportsDir}
	if opts.outDir != "" {
		pathsCfg.ExportsDir = opts.outDir
	}
	paths, err := config.ResolvePaths(pathsCfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(paths.ExportsDir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	now := time.Now()
	if opts.writeCSV {
		path, err := exporter.NewCSVWriter(paths, logger).
			WriteSheetFile(exporter.FileName(exportTitle, "csv", now), report.ComparisonSheet())
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "wrote", path)
	}
	if opts.writeXLSX {
		path := paths.ExportPath(exporter.FileName(exportTitle, "xlsx", now))
		if err := exporter.SaveWorkbook(path, report); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "wrote", path)
	}
	return nil
}

// selectSheets maps view names to report sheets in the requested order
func selectSheets(report *exporter.Report, views []string) ([]exporter.Sheet, error) {
	byName := map[string]func() exporter.Sheet{
		"ranking":       report.RankingSheet,
		"comparison":    report.ComparisonSheet,
		"kpi-totals":    report.KPITotalsSheet,
		"period-totals": report.PeriodTotalsSheet,
		"summary":       report.SummarySheet,
	}

	var sheets []exporter.Sheet
	for _, view := range views {
		if view == "all" {
			return report.Sheets(), nil
		}
		build, ok := byName[view]
		if !ok {
			return nil, fmt.Errorf("unknown view %q", view)
		}
		sheets = append(sheets, build())
	}
	return sheets, nil
}

func printBatch(w io.Writer, batch *domain.BatchReport) {
	fmt.Fprintf(w, "loaded %d of %d files: %d KPIs, %d periods\n",
		len(batch.Succeeded), len(batch.Succeeded)+len(batch.Failed), batch.TotalKPIs, batch.TotalPeriods)
	if len(batch.Failed) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Failed files")
	t.AppendHeader(table.Row{"File", "Error"})
	for _, f := range batch.Failed {
		t.AppendRow(table.Row{f.Source, f.Error})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func renderSheet(w io.Writer, sheet exporter.Sheet) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(sheet.Name)

	header := make(table.Row, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, rec := range sheet.Records() {
		row := make(table.Row, len(rec))
		for i, cell := range rec {
			row[i] = cell
		}
		t.AppendRow(row)
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
