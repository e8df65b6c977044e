package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/MMucahit/borsa/internal/infrastructure"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of engine spans
const TracerName = "github.com/MMucahit/borsa/operations"

// OperationTracer provides OpenTelemetry instrumentation for engine runs
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.Metrics
}

// NewOperationTracer creates a tracer. Nil metrics are created on the global meter.
func NewOperationTracer(tracer trace.Tracer, metrics *infrastructure.Metrics) (*OperationTracer, error) {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	if metrics == nil {
		m, err := infrastructure.NewMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create engine metrics: %w", err)
		}
		metrics = m
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}, nil
}

// TraceRun creates a span for the entire run
func (pt *OperationTracer) TraceRun(ctx context.Context, runID string, opts domain.RunOptions) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "reconcile.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.source_mode", string(opts.SourceMode)),
			attribute.String("run.alignment", string(opts.Alignment)),
			attribute.Bool("run.require_volume", opts.RequireVolume),
		),
	)
}

// TraceStep creates a span for one step
func (pt *OperationTracer) TraceStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "reconcile.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStepCompletion records the step duration and closes its span status
func (pt *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, status StepStatus, duration time.Duration, err error) {
	span.SetAttributes(
		attribute.String("step.status", string(status)),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
	)

	pt.metrics.StepDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("step", stepID),
			attribute.String("status", string(status)),
		),
	)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		return
	}
	span.SetStatus(codes.Ok, "")
}

// RecordRunCompletion records run level counters from the finished result
func (pt *OperationTracer) RecordRunCompletion(ctx context.Context, span trace.Span, result *domain.Result, duration time.Duration, err error) {
	status := "success"
	switch {
	case IsCancellation(err):
		status = "cancelled"
	case err != nil:
		status = "failure"
		if rErr, ok := domain.AsReconcileError(err); ok {
			span.SetAttributes(attribute.String("run.error_kind", string(rErr.Kind)))
		}
	}

	attrs := metric.WithAttributes(attribute.String("status", status))
	pt.metrics.RunsTotal.Add(ctx, 1, attrs)
	pt.metrics.RunDuration.Record(ctx, duration.Seconds(), attrs)

	if result != nil {
		pt.metrics.RowsReconciled.Add(ctx, int64(len(result.Rows)))
		pt.metrics.SkippedItems.Add(ctx, int64(len(result.Skipped)))
		pt.metrics.Unbalanced.Add(ctx, int64(len(result.Unbalanced())))

		infrastructure.AddSpanEvent(ctx, "run.completed", map[string]any{
			"rows":           len(result.Rows),
			"institutions":   len(result.Summaries),
			"unmatched":      len(result.Unmatched),
			"total_residual": result.TotalResidual.String(),
		})
	}

	span.SetAttributes(
		attribute.String("run.status", status),
		attribute.Float64("run.duration_seconds", duration.Seconds()),
	)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return
	}
	span.SetStatus(codes.Ok, "")
}
