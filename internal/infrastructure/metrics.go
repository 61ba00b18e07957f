package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Source outcome labels
const (
	SourceStatusOK     = "ok"
	SourceStatusFailed = "failed"
)

// IngestMetrics holds the instruments recorded by batch ingestion
type IngestMetrics struct {
	SourcesIngested metric.Int64Counter
	BatchDuration   metric.Float64Histogram
	AgenciesLoaded  metric.Int64Gauge
	SelectionChange metric.Int64Counter
}

// NewIngestMetrics registers the ingestion instruments on meter
func NewIngestMetrics(meter metric.Meter) (*IngestMetrics, error) {
	m := &IngestMetrics{}
	var err error

	m.SourcesIngested, err = meter.Int64Counter(
		"kpi_sources_ingested_total",
		metric.WithDescription("Number of ingestion sources processed, by outcome"),
		metric.WithUnit("{source}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sources counter: %w", err)
	}

	m.BatchDuration, err = meter.Float64Histogram(
		"kpi_batch_duration_seconds",
		metric.WithDescription("Duration of ingestion batches"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch histogram: %w", err)
	}

	m.AgenciesLoaded, err = meter.Int64Gauge(
		"kpi_agencies_loaded",
		metric.WithDescription("Number of agencies currently in the catalog"),
		metric.WithUnit("{agency}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agencies gauge: %w", err)
	}

	m.SelectionChange, err = meter.Int64Counter(
		"kpi_selection_changes_total",
		metric.WithDescription("Number of accepted selection updates"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create selection counter: %w", err)
	}

	return m, nil
}

// RecordSource counts one processed source
func (m *IngestMetrics) RecordSource(ctx context.Context, kind string, err error) {
	if m == nil {
		return
	}
	status := SourceStatusOK
	if err != nil {
		status = SourceStatusFailed
	}
	m.SourcesIngested.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// RecordBatch records the batch duration and the resulting catalog size
func (m *IngestMetrics) RecordBatch(ctx context.Context, mode string, elapsed time.Duration, committed bool, agencies int) {
	if m == nil {
		return
	}
	m.BatchDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("committed", committed),
	))
	m.AgenciesLoaded.Record(ctx, int64(agencies))
}

// RecordSelection counts an accepted selection update
func (m *IngestMetrics) RecordSelection(ctx context.Context) {
	if m == nil {
		return
	}
	m.SelectionChange.Add(ctx, 1)
}
