package inventory_test

import (
	"context"
	"testing"
	"time"

	appinv "github.com/Zhima-Mochi/inventory-bridge/internal/application/inventory"
	"github.com/Zhima-Mochi/inventory-bridge/internal/codec"
	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/id"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newFacade(t *testing.T, client dominv.Client) *appinv.Facade {
	t.Helper()
	return appinv.NewFacade(client, nil, id.NewUUIDGenerator(), nil)
}

func TestFacade_GetAllItems(t *testing.T) {
	client := memory.NewInventoryClient(memory.WithItems(
		dominv.ItemDetails{ItemID: 100, Definition: 7, Quantity: 3},
	))

	items, err := newFacade(t, client).GetAllItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, "100", got.ItemID.String())
	assert.Equal(t, int32(7), got.Definition)
	assert.Equal(t, uint16(3), got.Quantity)
	assert.Equal(t, uint16(0), got.Flags)
}

func TestFacade_GetAllItemsEmpty(t *testing.T) {
	items, err := newFacade(t, memory.NewInventoryClient()).GetAllItems(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFacade_ConsumeItem(t *testing.T) {
	t.Run("exact quantity", func(t *testing.T) {
		client := memory.NewInventoryClient(memory.WithItems(dominv.ItemDetails{ItemID: 100, Definition: 7, Quantity: 3}))
		require.NoError(t, newFacade(t, client).ConsumeItem(context.Background(), codec.Encode(100), 3))
	})

	t.Run("more than the stack holds", func(t *testing.T) {
		client := memory.NewInventoryClient(memory.WithItems(dominv.ItemDetails{ItemID: 100, Definition: 7, Quantity: 3}))
		err := newFacade(t, client).ConsumeItem(context.Background(), codec.Encode(100), 4)
		require.Error(t, err)
		assert.ErrorIs(t, err, dominv.ErrOperationFailed)

		items, err := newFacade(t, client).GetAllItems(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, uint16(3), items[0].Quantity)
	})

	t.Run("id above the safe integer range", func(t *testing.T) {
		const bigID = uint64(1) << 62
		client := memory.NewInventoryClient(memory.WithItems(dominv.ItemDetails{ItemID: dominv.ItemID(bigID), Definition: 1, Quantity: 5}))
		itemID, err := codec.Parse("4611686018427387904")
		require.NoError(t, err)
		require.NoError(t, newFacade(t, client).ConsumeItem(context.Background(), itemID, 2))

		items, err := newFacade(t, client).GetAllItems(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, uint16(3), items[0].Quantity)
	})
}

func TestFacade_StartPurchase(t *testing.T) {
	client := memory.NewInventoryClient(
		memory.WithCatalog(7),
		memory.WithPurchaseDelay(10*time.Millisecond),
	)
	t.Cleanup(client.Close)
	facade := newFacade(t, client)

	outcomes := make(chan appinv.PurchaseOutcome, 1)
	h, err := facade.StartPurchase(context.Background(), []dominv.PurchaseLineItem{{DefinitionID: 7, Quantity: 2}}, func(o appinv.PurchaseOutcome) {
		outcomes <- o
	})
	require.NoError(t, err)

	var outcome appinv.PurchaseOutcome
	select {
	case outcome = <-outcomes:
	case <-time.After(2 * time.Second):
		t.Fatal("purchase did not complete")
	}
	require.NoError(t, outcome.Err)
	assert.Equal(t, h.ID(), outcome.PurchaseID)

	orderID, err := codec.Decode(outcome.Result.OrderID)
	require.NoError(t, err)
	assert.NotZero(t, orderID)
	assert.Equal(t, outcome.Result.OrderID.String(), codec.Encode(orderID).String())

	items, err := facade.GetAllItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int32(7), items[0].Definition)
	assert.Equal(t, uint16(2), items[0].Quantity)
}

func TestFacade_StartPurchaseEmpty(t *testing.T) {
	client := memory.NewInventoryClient()
	h, err := newFacade(t, client).StartPurchase(context.Background(), nil, func(appinv.PurchaseOutcome) {
		t.Error("completion must not fire for rejected input")
	})
	require.Error(t, err)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, dominv.ErrInvalidInput)
}

func TestFacade_Telemetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Instruments(prometrics.New(reg, "inv", ""), observability.StandardMetrics())

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	core, logs := observer.New(zap.InfoLevel)
	tel := infraobs.New(
		oteltrace.NewWithProvider(tp, "test"),
		zaplogger.New(zap.New(core)),
		infraobs.NewMetrics(counters, histograms),
	)

	client := memory.NewInventoryClient(memory.WithItems(dominv.ItemDetails{ItemID: 1, Definition: 2, Quantity: 3}))
	facade := appinv.NewFacade(client, nil, id.NewUUIDGenerator(), tel)

	_, err := facade.GetAllItems(context.Background())
	require.NoError(t, err)
	_ = facade.ConsumeItem(context.Background(), codec.Encode(1), 9)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "UC.ListItems", spans[0].Name())
	assert.Equal(t, "UC.ConsumeItem", spans[1].Name())

	done := logs.FilterMessage("use_case_done").All()
	require.Len(t, done, 2)
	assert.Equal(t, "inventory.list_items", done[0].ContextMap()["use_case"])
	assert.Equal(t, "OperationFailed", done[1].ContextMap()["status"])

	count, err := testutil.GatherAndCount(reg, "inv_usecase_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	count, err = testutil.GatherAndCount(reg, "inv_external_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
