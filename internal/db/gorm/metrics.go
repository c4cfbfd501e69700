package gorm

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/thebtf/archivable/internal/db/gorm"

// queryMetrics exports archive query counts and durations through the global
// OpenTelemetry meter provider.
type queryMetrics struct {
	queries  metric.Int64Counter
	duration metric.Float64Histogram
}

func newQueryMetrics() *queryMetrics {
	meter := otel.Meter(meterName)

	queries, err := meter.Int64Counter("archive.queries",
		metric.WithDescription("Archive queries executed"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create archive query counter")
		queries, _ = noop.Meter{}.Int64Counter("archive.queries")
	}

	duration, err := meter.Float64Histogram("archive.query.duration",
		metric.WithDescription("Archive query duration"),
		metric.WithUnit("ms"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create archive query histogram")
		duration, _ = noop.Meter{}.Float64Histogram("archive.query.duration")
	}

	return &queryMetrics{queries: queries, duration: duration}
}

func (m *queryMetrics) record(ctx context.Context, table, op string, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("table", table),
		attribute.String("op", op),
		attribute.Bool("error", err != nil),
	)
	m.queries.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// observe records a finished query in the latency window and the exported
// metrics, and logs failed queries.
func (s *Store) observe(ctx context.Context, table, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	s.latency.Record(elapsed)
	if s.metrics != nil {
		s.metrics.record(ctx, table, op, elapsed, err)
	}

	if err != nil {
		log.Error().Err(err).Str("table", table).Str("op", op).Msg("Archive query failed")
	}
}

// LatencyWindow keeps the last N query latencies in a ring buffer.
type LatencyWindow struct {
	samples []time.Duration
	idx     int
	count   int
	total   int64
	mu      sync.RWMutex
}

// NewLatencyWindow creates a window holding size samples.
func NewLatencyWindow(size int) *LatencyWindow {
	if size <= 0 {
		size = 100
	}
	return &LatencyWindow{samples: make([]time.Duration, size)}
}

// Record adds a latency sample.
func (w *LatencyWindow) Record(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[w.idx] = d
	w.idx = (w.idx + 1) % len(w.samples)
	if w.count < len(w.samples) {
		w.count++
	}
	w.total++
}

// Summary returns aggregate statistics over the current window.
func (w *LatencyWindow) Summary() LatencySummary {
	w.mu.RLock()
	defer w.mu.RUnlock()

	summary := LatencySummary{Total: w.total, Samples: w.count}
	if w.count == 0 {
		return summary
	}

	sorted := slices.Clone(w.samples[:w.count])
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	summary.Avg = sum / time.Duration(w.count)
	summary.Min = sorted[0]
	summary.Max = sorted[len(sorted)-1]
	if w.count >= 20 {
		summary.P95 = sorted[int(float64(len(sorted))*0.95)]
	}
	return summary
}

// LatencySummary contains aggregated query latencies.
type LatencySummary struct {
	Total   int64         `json:"total"`
	Samples int           `json:"samples"`
	Avg     time.Duration `json:"avg_ns"`
	Min     time.Duration `json:"min_ns"`
	Max     time.Duration `json:"max_ns"`
	P95     time.Duration `json:"p95_ns,omitempty"`
}
