package observability

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	tel := New(nil, nil, nil)

	assert.NotPanics(t, func() {
		tel.Logger().Info("noop")
		tel.Metrics().Counter(observability.MUsecaseRequests).Add(1)
		tel.Metrics().Histogram(observability.MUsecaseDuration).Bind().Observe(1)
		_, span := tel.Tracer().Start(context.Background(), "noop")
		span.End()
	})
}

func TestNewMetrics_RoutesByKey(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Instruments(prometrics.New(reg, "t", ""), observability.StandardMetrics())
	metrics := NewMetrics(counters, histograms)

	metrics.Counter(observability.MOutboxEvents).Add(1, observability.L("event", "x"), observability.L("outcome", "delivered"))
	metrics.Counter("missing_total").Add(1)

	count, err := testutil.GatherAndCount(reg, "t_outbox_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
