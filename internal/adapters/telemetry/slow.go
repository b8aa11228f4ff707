package telemetry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/tgraph/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*SlowSpanLogger)(nil)

// SlowSpanLogger reports spans that ran longer than a threshold to the logger.
// The daemon installs it so that pathological build files show up in its log.
type SlowSpanLogger struct {
	logger    ports.Logger
	threshold time.Duration
}

// NewSlowSpanLogger returns a processor logging spans slower than threshold.
func NewSlowSpanLogger(logger ports.Logger, threshold time.Duration) *SlowSpanLogger {
	return &SlowSpanLogger{logger: logger, threshold: threshold}
}

// OnStart does nothing.
func (p *SlowSpanLogger) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd logs the span when it exceeded the threshold.
func (p *SlowSpanLogger) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() {
		return
	}
	elapsed := s.EndTime().Sub(s.StartTime())
	if elapsed < p.threshold {
		return
	}

	attrs := make([]string, 0, len(s.Attributes()))
	for _, kv := range s.Attributes() {
		attrs = append(attrs, fmt.Sprintf("%s=%s", kv.Key, kv.Value.Emit()))
	}
	slices.Sort(attrs)

	msg := fmt.Sprintf("slow %s took %s", s.Name(), elapsed.Round(time.Millisecond))
	if len(attrs) > 0 {
		msg += " (" + strings.Join(attrs, " ") + ")"
	}
	p.logger.Warn(msg)
}

// ForceFlush does nothing.
func (p *SlowSpanLogger) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (p *SlowSpanLogger) Shutdown(context.Context) error {
	return nil
}

// InstallProvider registers a global tracer provider feeding the given
// processors and returns its shutdown function.
func InstallProvider(processors ...sdktrace.SpanProcessor) func(context.Context) error {
	opts := make([]sdktrace.TracerProviderOption, 0, len(processors))
	for _, sp := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(sp))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
