package multi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/streamkit/flow"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/streamtest"
)

func TestObserve_RecordsAndPassesThrough(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := observability.NewStreamMetrics(provider.Meter("test"))
	require.NoError(t, err)

	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	Observe(Items(1, 2, 3), metrics, "numbers").Subscribe(sub)

	require.True(t, sub.IsCompleted())
	assert.Equal(t, []int{1, 2, 3}, sub.Items())

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &data))
	require.NotEmpty(t, data.ScopeMetrics)

	names := map[string]bool{}
	for _, sm := range data.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["stream.items.total"])
	assert.True(t, names["stream.completions.total"])
}

func TestTraceSpans_PassesThrough(t *testing.T) {
	sub := streamtest.NewAssertSubscriber[int](flow.Unbounded)
	TraceSpans(Items(1, 2), observability.Tracer("test"), "numbers").Subscribe(sub)

	require.True(t, sub.IsCompleted())
	assert.Equal(t, []int{1, 2}, sub.Items())
}
