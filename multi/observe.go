package multi

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/observability"
)

// Observe records the given stream metrics for each subscription of m:
// active subscriptions, items emitted, and how every subscription ends.
func Observe[T any](m *Multi[T], metrics *observability.StreamMetrics, name string) *Multi[T] {
	if metrics == nil {
		panic("metrics must not be nil")
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		ctx := context.Background()
		OnSignal(m,
			WithOnSubscribe[T](func(flow.Subscription) error {
				metrics.RecordSubscribe(ctx, name)
				return nil
			}),
			WithOnItem[T](func(T) error {
				metrics.RecordItem(ctx, name)
				return nil
			}),
			WithOnTermination[T](func(failure error, cancelled bool) {
				metrics.RecordTermination(ctx, name, failure, cancelled)
			}),
		).Subscribe(sub)
	})
}

// TraceSpans opens one span per subscription of m, ended when the
// subscription terminates. Items are recorded as span events.
func TraceSpans[T any](m *Multi[T], tracer trace.Tracer, name string) *Multi[T] {
	if tracer == nil {
		panic("tracer must not be nil")
	}
	return newMulti(func(sub flow.Subscriber[T]) {
		_, span := tracer.Start(context.Background(), name)
		OnSignal(m,
			WithOnItem[T](func(T) error {
				span.AddEvent("item")
				return nil
			}),
			WithOnTermination[T](func(failure error, cancelled bool) {
				if failure != nil {
					span.RecordError(failure)
					span.SetStatus(codes.Error, failure.Error())
				}
				if cancelled {
					span.SetAttributes(attribute.Bool("stream.cancelled", true))
				}
				span.End()
			}),
		).Subscribe(sub)
	})
}
