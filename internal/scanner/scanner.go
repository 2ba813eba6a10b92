// Package scanner performs a single pass over the process table and reports
// every process whose resident memory exceeds the configured threshold.
package scanner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yairfalse/memwatch/internal/config"
)

// Scanner runs one scan per call to Scan. It keeps no state between scans.
type Scanner struct {
	config  config.Config
	source  Source
	console io.Writer
	logger  *zap.Logger
	now     func() time.Time

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	tracer  trace.Tracer
	metrics *scanMetrics
}

// Option customizes a Scanner
type Option func(*Scanner)

// WithLogger sets the diagnostic logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConsole replaces stdout as the console mirror
func WithConsole(w io.Writer) Option {
	return func(s *Scanner) {
		if w != nil {
			s.console = w
		}
	}
}

// WithClock overrides the clock used for the scan timestamp
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMeterProvider overrides the global OTEL meter provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Scanner) {
		if mp != nil {
			s.meterProvider = mp
		}
	}
}

// WithTracerProvider overrides the global OTEL tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scanner) {
		if tp != nil {
			s.tracerProvider = tp
		}
	}
}

// New creates a scanner. The config is copied and validated.
func New(cfg *config.Config, source Source, opts ...Option) (*Scanner, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("process source is required")
	}

	s := &Scanner{
		config:         *cfg,
		source:         source,
		console:        os.Stdout,
		logger:         zap.NewNop(),
		now:            time.Now,
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	s.metrics = newScanMetrics(s.meterProvider.Meter(instrumentationName), s.logger)

	return s, nil
}

// Scan enumerates processes once and emits an alert for each one above the
// threshold. Processes that exit mid-scan or deny access are skipped. Any
// other failure stops the scan; alerts already written stay written.
func (s *Scanner) Scan(ctx context.Context) (summary *Summary, err error) {
	startedAt := s.now()
	thresholdBytes := s.config.ThresholdBytes()

	ctx, span := s.tracer.Start(ctx, "memwatch.scan", trace.WithAttributes(
		attribute.Float64("threshold_gb", s.config.ThresholdGB),
		attribute.String("log_file", s.config.LogFile),
	))
	defer func() {
		s.metrics.recordDuration(ctx, time.Since(startedAt), err != nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Int("inspected", summary.Inspected),
				attribute.Int("skipped", summary.Skipped),
				attribute.Int("alerts", summary.Alerts),
			)
		}
		span.End()
	}()

	sink, err := openSink(s.console, s.config.LogFile)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			summary, err = nil, cerr
		}
	}()

	pids, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	s.logger.Debug("Scanning processes",
		zap.Int("count", len(pids)),
		zap.Float64("threshold_bytes", thresholdBytes))

	result := &Summary{StartedAt: startedAt}
	for _, pid := range pids {
		inspection, err := s.source.Inspect(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect process %d: %w", pid, err)
		}

		if inspection.Outcome != OutcomeSuccess {
			result.Skipped++
			s.metrics.recordSkipped(ctx, inspection.Outcome)
			s.logger.Debug("Skipping process",
				zap.Int32("pid", pid),
				zap.Stringer("reason", inspection.Outcome))
			continue
		}

		result.Inspected++
		s.metrics.recordInspected(ctx)

		if float64(inspection.Sample.ResidentBytes) <= thresholdBytes {
			continue
		}

		alert := Alert{Timestamp: startedAt, Sample: inspection.Sample}
		if err := sink.Emit(alert.String()); err != nil {
			return nil, err
		}
		result.Alerts++
		s.metrics.recordAlert(ctx)
	}

	s.logger.Info("Scan complete",
		zap.Int("inspected", result.Inspected),
		zap.Int("skipped", result.Skipped),
		zap.Int("alerts", result.Alerts))

	return result, nil
}
