package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartStoreSpan starts a span for order-store operations
func StartStoreSpan(ctx context.Context, operation, propertyKey string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("store.%s", operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("store.operation", operation),
			attribute.String("store.property_key", propertyKey),
		),
	)
}

// StartServiceSpan starts a span for service operations
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", service),
			attribute.String("service.operation", operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// OrderMetrics holds counters for the save protocol
type OrderMetrics struct {
	saveCount     metric.Int64Counter
	conflictCount metric.Int64Counter
	broadcastSize metric.Int64Histogram
}

// NewOrderMetrics creates order-save metrics instruments
func NewOrderMetrics() (*OrderMetrics, error) {
	meter := otel.Meter(instrumentationName)

	saveCount, err := meter.Int64Counter(
		"order.save_count",
		metric.WithDescription("Accepted order saves"),
		metric.WithUnit("{saves}"),
	)
	if err != nil {
		return nil, err
	}

	conflictCount, err := meter.Int64Counter(
		"order.conflict_count",
		metric.WithDescription("Saves rejected by the version check"),
		metric.WithUnit("{conflicts}"),
	)
	if err != nil {
		return nil, err
	}

	broadcastSize, err := meter.Int64Histogram(
		"order.broadcast_size",
		metric.WithDescription("Size of broadcast order payloads"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &OrderMetrics{
		saveCount:     saveCount,
		conflictCount: conflictCount,
		broadcastSize: broadcastSize,
	}, nil
}

// RecordSave records an accepted save for a property key
func (m *OrderMetrics) RecordSave(ctx context.Context, propertyKey string) {
	if m == nil {
		return
	}
	m.saveCount.Add(ctx, 1, metric.WithAttributes(attribute.String("property_key", propertyKey)))
}

// RecordConflict records a rejected save for a property key
func (m *OrderMetrics) RecordConflict(ctx context.Context, propertyKey string) {
	if m == nil {
		return
	}
	m.conflictCount.Add(ctx, 1, metric.WithAttributes(attribute.String("property_key", propertyKey)))
}

// RecordBroadcast records the payload size of a hub broadcast
func (m *OrderMetrics) RecordBroadcast(ctx context.Context, bytes int) {
	if m == nil {
		return
	}
	m.broadcastSize.Record(ctx, int64(bytes))
}
