package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "inventory_bridge", "")

	c := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	c.Add(1, observability.L("use_case", "inventory.consume_item"), observability.L("outcome", "success"))
	c.Bind(observability.L("use_case", "inventory.consume_item"), observability.L("outcome", "success")).Add(2)

	again := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	again.Add(1, observability.L("use_case", "inventory.consume_item"), observability.L("outcome", "error"))

	cv := again.(*counter).v
	assert.Equal(t, 3.0, testutil.ToFloat64(cv.WithLabelValues("inventory.consume_item", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cv.WithLabelValues("inventory.consume_item", "error")))
}

func TestRegistry_ReusesExistingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := New(reg, "ns", "").Counter("events_total", "help", "event")
	second := New(reg, "ns", "").Counter("events_total", "help", "event")

	first.Add(1, observability.L("event", "a"))
	second.Add(1, observability.L("event", "a"))

	assert.Equal(t, 2.0, testutil.ToFloat64(second.(*counter).v.WithLabelValues("a")))
}

func TestInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Instruments(New(reg, "inventory_bridge", ""), observability.StandardMetrics())

	require.Contains(t, counters, observability.MUsecaseRequests)
	require.Contains(t, counters, observability.MOutboxEvents)
	require.Contains(t, histograms, observability.MUsecaseDuration)
	require.NotContains(t, counters, observability.MUsecaseDuration)

	histograms[observability.MUsecaseDuration].Observe(0.2, observability.L("use_case", "inventory.list_items"))
	count, err := testutil.GatherAndCount(reg, "inventory_bridge_usecase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
