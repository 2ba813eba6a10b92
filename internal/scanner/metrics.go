package scanner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/yairfalse/memwatch/internal/scanner"

// scanMetrics holds the OTEL instruments for a scanner.
// Instruments that fail to register are left nil and skipped.
type scanMetrics struct {
	inspected    metric.Int64Counter
	skipped      metric.Int64Counter
	alerts       metric.Int64Counter
	scanDuration metric.Float64Histogram
}

func newScanMetrics(meter metric.Meter, logger *zap.Logger) *scanMetrics {
	m := &scanMetrics{}
	var err error

	m.inspected, err = meter.Int64Counter(
		"memwatch_processes_inspected_total",
		metric.WithDescription("Processes whose memory was read successfully"),
		metric.WithUnit("1"),
	)
	if err != nil {
		logger.Debug("Failed to create inspected counter", zap.Error(err))
		m.inspected = nil
	}

	m.skipped, err = meter.Int64Counter(
		"memwatch_processes_skipped_total",
		metric.WithDescription("Processes skipped because they exited or could not be read"),
		metric.WithUnit("1"),
	)
	if err != nil {
		logger.Debug("Failed to create skipped counter", zap.Error(err))
		m.skipped = nil
	}

	m.alerts, err = meter.Int64Counter(
		"memwatch_alerts_total",
		metric.WithDescription("High memory alerts emitted"),
		metric.WithUnit("1"),
	)
	if err != nil {
		logger.Debug("Failed to create alerts counter", zap.Error(err))
		m.alerts = nil
	}

	m.scanDuration, err = meter.Float64Histogram(
		"memwatch_scan_duration_ms",
		metric.WithDescription("Duration of a full process scan"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		logger.Debug("Failed to create scan duration histogram", zap.Error(err))
		m.scanDuration = nil
	}

	return m
}

func (m *scanMetrics) recordInspected(ctx context.Context) {
	if m.inspected != nil {
		m.inspected.Add(ctx, 1)
	}
}

func (m *scanMetrics) recordSkipped(ctx context.Context, outcome Outcome) {
	if m.skipped != nil {
		m.skipped.Add(ctx, 1, metric.WithAttributes(
			attribute.String("reason", outcome.String()),
		))
	}
}

func (m *scanMetrics) recordAlert(ctx context.Context) {
	if m.alerts != nil {
		m.alerts.Add(ctx, 1)
	}
}

func (m *scanMetrics) recordDuration(ctx context.Context, d time.Duration, failed bool) {
	if m.scanDuration != nil {
		m.scanDuration.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(
			attribute.Bool("failed", failed),
		))
	}
}
