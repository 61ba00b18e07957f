package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"kpianalyzer/internal/catalog"
	"kpianalyzer/internal/infrastructure"
	"kpianalyzer/internal/ingest"
	"kpianalyzer/pkg/contracts/domain"
)

// IngestService loads batches of sources and commits the successful ones to
// the catalog store.
type IngestService struct {
	store   *catalog.Store
	workers int
	tracer  trace.Tracer
	metrics *infrastructure.IngestMetrics
	logger  *slog.Logger
}

// IngestOptions configures an IngestService. Zero values select defaults.
type IngestOptions struct {
	Workers int
	Tracer  trace.Tracer
	Metrics *infrastructure.IngestMetrics
}

// NewIngestService creates an ingestion service writing to store.
func NewIngestService(store *catalog.Store, opts IngestOptions, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(infrastructure.InstrumentationName)
	}
	return &IngestService{
		store:   store,
		workers: opts.Workers,
		tracer:  opts.Tracer,
		metrics: opts.Metrics,
		logger:  logger.With(slog.String("component", "ingest_service")),
	}
}

// sourceOutcome is what one worker produced for one source
type sourceOutcome struct {
	result  domain.SourceResult
	dataset *domain.AgencyDataset
}

// RunBatch loads and normalizes every source in isolation, then commits the
// successful datasets in source order. A failing source never stops the
// others. When no source succeeds the store is left untouched and a
// *BatchFailedError carrying the report is returned. A cancelled context
// aborts the batch without committing.
func (s *IngestService) RunBatch(ctx context.Context, mode domain.BatchMode, sources []Source) (*domain.BatchReport, error) {
	if mode != domain.BatchModeReplace && mode != domain.BatchModeMerge {
		return nil, ErrInvalidMode
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	report := &domain.BatchReport{
		ID:        uuid.New().String(),
		Mode:      mode,
		Succeeded: []domain.SourceResult{},
		Failed:    []domain.SourceResult{},
		StartedAt: time.Now(),
	}
	logger := s.logger.With(slog.String("mode", string(mode)))
	ctx = infrastructure.WithBatchID(ctx, report.ID)

	ctx, span := s.tracer.Start(ctx, "ingest.batch", trace.WithAttributes(
		attribute.String("batch.id", report.ID),
		attribute.String("batch.mode", string(mode)),
		attribute.Int("batch.sources", len(sources)),
	))
	defer span.End()

	logger.InfoContext(ctx, "batch started", slog.Int("sources", len(sources)))

	outcomes := make([]sourceOutcome, len(sources))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, src := range sources {
		g.Go(func() error {
			outcomes[i] = s.loadSource(ctx, src)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		logger.WarnContext(ctx, "batch cancelled", slog.String("error", err.Error()))
		span.SetStatus(codes.Error, "cancelled")
		return nil, err
	}

	datasets := make([]domain.AgencyDataset, 0, len(sources))
	for _, o := range outcomes {
		if o.dataset == nil {
			report.Failed = append(report.Failed, o.result)
			continue
		}
		report.Succeeded = append(report.Succeeded, o.result)
		datasets = append(datasets, *o.dataset)
	}

	if len(datasets) == 0 {
		report.FinishedAt = time.Now()
		current := s.store.Snapshot()
		report.TotalKPIs = len(current.AllKPIs)
		report.TotalPeriods = len(current.AllPeriods)

		s.metrics.RecordBatch(ctx, string(mode), report.FinishedAt.Sub(report.StartedAt), false, len(current.Agencies))
		span.SetStatus(codes.Error, ErrBatchFailed.Error())
		logger.WarnContext(ctx, "batch failed", slog.Int("failed", len(report.Failed)))
		return report, &BatchFailedError{Report: report}
	}

	var committed domain.Catalog
	if mode == domain.BatchModeReplace {
		committed = s.store.Replace(datasets)
	} else {
		committed = s.store.Upsert(datasets...)
	}

	report.TotalKPIs = len(committed.AllKPIs)
	report.TotalPeriods = len(committed.AllPeriods)
	report.FinishedAt = time.Now()

	s.metrics.RecordBatch(ctx, string(mode), report.FinishedAt.Sub(report.StartedAt), true, len(committed.Agencies))
	span.SetAttributes(
		attribute.Int("batch.succeeded", len(report.Succeeded)),
		attribute.Int("batch.failed", len(report.Failed)),
	)
	logger.InfoContext(ctx, "batch committed",
		slog.Int("succeeded", len(report.Succeeded)),
		slog.Int("failed", len(report.Failed)),
		slog.Int("agencies", len(committed.Agencies)),
		slog.Int("kpis", report.TotalKPIs),
		slog.Int("periods", report.TotalPeriods),
		slog.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))

	return report, nil
}

// loadSource runs one source end to end. It only touches its own values.
func (s *IngestService) loadSource(ctx context.Context, src Source) sourceOutcome {
	ctx, span := s.tracer.Start(ctx, "ingest.source", trace.WithAttributes(
		attribute.String("source.name", src.Name()),
		attribute.String("source.kind", string(src.Kind())),
	))
	defer span.End()

	result := domain.SourceResult{Source: src.Name(), Kind: src.Kind()}

	dataset, err := s.normalize(ctx, src)
	s.metrics.RecordSource(ctx, string(src.Kind()), err)
	if err != nil {
		result.Error = failureReason(err)
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "source failed",
			slog.String("source", src.Name()),
			slog.String("kind", string(src.Kind())),
			slog.String("error", err.Error()))
		return sourceOutcome{result: result}
	}

	result.Agency = dataset.Name
	result.KPICount = len(dataset.KPIs)
	result.PeriodCount = len(dataset.Periods)
	s.logger.DebugContext(ctx, "source loaded",
		slog.String("source", src.Name()),
		slog.String("agency", dataset.Name),
		slog.Int("kpis", result.KPICount),
		slog.Int("periods", result.PeriodCount))
	return sourceOutcome{result: result, dataset: dataset}
}

func (s *IngestService) normalize(ctx context.Context, src Source) (*domain.AgencyDataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, label, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ingest.Normalize(rows, label)
}

// failureReason strips the source label, which the result already carries
func failureReason(err error) string {
	var srcErr *ingest.SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Err.Error()
	}
	return err.Error()
}

// IngestFiles replaces the catalog with the given files.
func (s *IngestService) IngestFiles(ctx context.Context, files []*FileSource) (*domain.BatchReport, error) {
	sources := make([]Source, len(files))
	for i, f := range files {
		sources[i] = f
	}
	return s.RunBatch(ctx, domain.BatchModeReplace, sources)
}

// Paste upserts one agency from clipboard text.
func (s *IngestService) Paste(ctx context.Context, agency, text string) (*domain.BatchReport, error) {
	src := NewPasteSource(agency, text)
	if src.Name() == "" {
		return nil, ErrMissingAgency
	}
	return s.RunBatch(ctx, domain.BatchModeMerge, []Source{src})
}
