package inventory

import (
	"context"
	"strconv"
	"time"

	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/inventory-bridge/internal/domain/outbox"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	workerService            = "inventory_worker"
	useCasePurchaseCompleted = "inventory.worker.purchase_completed"
)

// PurchaseWorker writes a reconciliation record for every completed purchase.
type PurchaseWorker struct {
	subscriber domoutbox.Subscriber
	instruments
}

func NewPurchaseWorker(subscriber domoutbox.Subscriber, tel observability.Observability, logger observability.Logger) *PurchaseWorker {
	in := newInstruments(tel)
	if logger != nil {
		in.log = logger
	}
	in.log = in.log.With(observability.F("service", workerService))
	return &PurchaseWorker{subscriber: subscriber, instruments: in}
}

func (w *PurchaseWorker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(dominv.PurchaseCompletedEvent{}.EventName(), w.handlePurchaseCompleted)
}

func (w *PurchaseWorker) handlePurchaseCompleted(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(dominv.PurchaseCompletedEvent)
	if !ok {
		w.reqCounter.Add(1,
			observability.L("use_case", useCasePurchaseCompleted),
			observability.L("outcome", "ignored"),
		)
		return nil
	}

	ctx, span := w.tracer.Start(ctx, spanPrefix+"PurchaseCompleted",
		attribute.String("use_case", useCasePurchaseCompleted),
		attribute.String("event", e.EventName()),
		attribute.String("purchase.id", evt.PurchaseID),
	)
	start := time.Now()

	_, logger := withEventContext(ctx, w.log, map[string]string{
		"use_case":    useCasePurchaseCompleted,
		"event":       e.EventName(),
		"purchase_id": evt.PurchaseID,
	})

	outcome, status := "success", "OK"
	if evt.Outcome == dominv.OutcomeFailed {
		outcome, status = "purchase_failed", evt.ErrorKind
	}

	fields := []observability.Field{
		observability.F("outcome", evt.Outcome),
		observability.F("line_items", evt.LineItems),
		observability.F("purchase_latency_seconds", evt.Latency.Seconds()),
	}
	if evt.Outcome == dominv.OutcomeSucceeded {
		fields = append(fields,
			observability.F("order_id", strconv.FormatUint(evt.OrderID, 10)),
			observability.F("transaction_id", strconv.FormatUint(evt.TransactionID, 10)),
		)
	} else {
		fields = append(fields,
			observability.F("error_kind", evt.ErrorKind),
			observability.F("error_detail", evt.ErrorDetail),
		)
	}
	logger.Info("purchase_reconciliation", fields...)

	lat := time.Since(start).Seconds()
	w.observeUseCase(useCasePurchaseCompleted, outcome, lat)
	logger.Info("use_case_done",
		observability.F("outcome", outcome),
		observability.F("status", status),
		observability.F("latency_seconds", lat),
	)
	finishSpan(span, nil, status)
	return nil
}

// withEventContext binds an event-scoped logger to ctx. The event id is
// taken from attrs or generated, and trace ids are added when valid.
func withEventContext(ctx context.Context, base observability.Logger, attrs map[string]string) (context.Context, observability.Logger) {
	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields := []observability.Field{observability.F("event_id", evtID)}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}
	return logctx.Enrich(ctx, base, fields...)
}
