package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal   = "displayname.files.total"
	metricClassesTotal = "displayname.classes.total"
	metricFileDuration = "displayname.file.duration.seconds"
	metricCacheLookups = "displayname.cache.lookups.total"

	attrOutcome = "outcome"
	attrResult  = "result"
)

// fileBuckets covers 100µs to 5s per file.
var fileBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// TransformMetrics holds the per-file and per-class instruments of a run.
type TransformMetrics struct {
	filesTotal   metric.Int64Counter
	classesTotal metric.Int64Counter
	fileDuration metric.Float64Histogram
	cacheLookups metric.Int64Counter
}

// NewTransformMetrics creates transform instruments from the given meter.
func NewTransformMetrics(mt metric.Meter) (*TransformMetrics, error) {
	files, err := mt.Int64Counter(metricFilesTotal,
		metric.WithDescription("Files processed by status"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesTotal, err)
	}

	classes, err := mt.Int64Counter(metricClassesTotal,
		metric.WithDescription("Classes visited by outcome"),
		metric.WithUnit("{class}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricClassesTotal, err)
	}

	duration, err := mt.Float64Histogram(metricFileDuration,
		metric.WithDescription("Parse, transform and print time per file in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(fileBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFileDuration, err)
	}

	lookups, err := mt.Int64Counter(metricCacheLookups,
		metric.WithDescription("Clean-file cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheLookups, err)
	}

	return &TransformMetrics{
		filesTotal:   files,
		classesTotal: classes,
		fileDuration: duration,
		cacheLookups: lookups,
	}, nil
}

// RecordFile records one processed file. Safe on a nil receiver.
func (tm *TransformMetrics) RecordFile(ctx context.Context, status string, duration time.Duration) {
	if tm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	tm.filesTotal.Add(ctx, 1, attrs)
	tm.fileDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordClasses adds per-outcome class counts. Safe on a nil receiver.
func (tm *TransformMetrics) RecordClasses(ctx context.Context, counts map[string]int) {
	if tm == nil {
		return
	}

	for outcome, n := range counts {
		tm.classesTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrOutcome, outcome)))
	}
}

// RecordCacheLookup counts a cache hit or miss. Safe on a nil receiver.
func (tm *TransformMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if tm == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	tm.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
