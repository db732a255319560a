package inventory

import (
	"context"
	"sync"
	"time"

	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/inventory-bridge/internal/domain/outbox"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	useCaseStartPurchase     = "inventory.start_purchase"
	useCaseCompletePurchase  = "inventory.complete_purchase"
	endpointStartPurchase    = "start_purchase"
	endpointPurchaseComplete = "inventory.purchase_completed"
)

// IDGenerator issues correlation ids for purchase attempts.
type IDGenerator interface {
	NewID() string
}

type StartPurchaseInput struct {
	Items []dominv.PurchaseLineItem
	// OnComplete, when set, runs exactly once on the goroutine that delivers
	// the store's result.
	OnComplete func(PurchaseOutcome)
}

// PurchaseOutcome is the terminal state of one purchase attempt. Err is a
// *dominv.Error when the purchase failed, and Result is zero in that case.
type PurchaseOutcome struct {
	PurchaseID string
	Result     PurchaseResult
	Err        error
}

// PurchaseHandle is a one-shot future for a started purchase.
type PurchaseHandle struct {
	id      string
	done    chan struct{}
	outcome PurchaseOutcome
}

func newPurchaseHandle(id string) *PurchaseHandle {
	return &PurchaseHandle{id: id, done: make(chan struct{})}
}

func (h *PurchaseHandle) ID() string { return h.id }

// Done is closed once the purchase has completed.
func (h *PurchaseHandle) Done() <-chan struct{} { return h.done }

// Wait blocks until the purchase completes or ctx ends. Giving up on the wait
// does not cancel the purchase.
func (h *PurchaseHandle) Wait(ctx context.Context) (PurchaseResult, error) {
	select {
	case <-h.done:
		return h.outcome.Result, h.outcome.Err
	case <-ctx.Done():
		return PurchaseResult{}, ctx.Err()
	}
}

// Outcome returns the terminal state without blocking. ok is false while the
// purchase is still in flight.
func (h *PurchaseHandle) Outcome() (_ PurchaseOutcome, ok bool) {
	select {
	case <-h.done:
		return h.outcome, true
	default:
		return PurchaseOutcome{}, false
	}
}

func (h *PurchaseHandle) resolve(o PurchaseOutcome) {
	h.outcome = o
	close(h.done)
}

type StartPurchaseUseCase struct {
	client    dominv.Client
	publisher domoutbox.Publisher
	ids       IDGenerator
	instruments
}

func NewStartPurchaseUseCase(client dominv.Client, publisher domoutbox.Publisher, ids IDGenerator, tel observability.Observability) *StartPurchaseUseCase {
	return &StartPurchaseUseCase{
		client:      client,
		publisher:   publisher,
		ids:         ids,
		instruments: newInstruments(tel),
	}
}

// Execute submits the purchase to the store and returns immediately. The
// returned handle resolves once, when the store delivers its result; any
// later delivery for the same attempt is logged and dropped. Invalid input is
// rejected before the store is contacted.
func (uc *StartPurchaseUseCase) Execute(ctx context.Context, in StartPurchaseInput) (_ *PurchaseHandle, err error) {
	purchaseID := uc.ids.NewID()
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseStartPurchase),
		observability.F("purchase_id", purchaseID),
		observability.F("line_items", len(in.Items)),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"StartPurchase",
		attribute.String("use_case", useCaseStartPurchase),
		attribute.String("purchase.id", purchaseID),
		attribute.Int("purchase.line_items", len(in.Items)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		finishSpan(span, err, statusText)

		latency := time.Since(start).Seconds()
		uc.observeUseCase(useCaseStartPurchase, outcome, latency)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
		}
		fields = append(fields, traceFields(ctx)...)
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	purchase, perr := dominv.NewPurchase(purchaseID, in.Items)
	if perr != nil {
		outcome, statusText = "error", dominv.KindInvalidInput.String()
		return nil, perr
	}

	handle := newPurchaseHandle(purchaseID)
	// Completion outlives the caller's request; keep its values, drop its deadline.
	completionCtx := logctx.With(context.WithoutCancel(ctx), logger)

	var once sync.Once
	deliver := func(res dominv.PurchaseResult, nativeErr error) {
		fired := false
		once.Do(func() {
			fired = true
			uc.complete(completionCtx, purchase, handle, in.OnComplete, res, nativeErr)
		})
		if !fired {
			logger.Warn("purchase_completion_duplicate",
				observability.F("native_error", errString(nativeErr)),
			)
		}
	}

	items := append([]dominv.PurchaseLineItem(nil), purchase.Items...)
	_ = uc.callNative(endpointStartPurchase, func() error {
		uc.client.StartPurchase(completionCtx, items, deliver)
		return nil
	})

	span.AddEvent("inventory.purchase_submitted",
		trace.WithAttributes(attribute.String("purchase.id", purchaseID)),
	)
	return handle, nil
}

// complete runs once per attempt: it settles the domain state, resolves the
// handle, notifies the caller and publishes the completion event.
func (uc *StartPurchaseUseCase) complete(
	ctx context.Context,
	p *dominv.Purchase,
	h *PurchaseHandle,
	onComplete func(PurchaseOutcome),
	res dominv.PurchaseResult,
	nativeErr error,
) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseCompletePurchase),
	)
	ctx, span := uc.tracer.Start(ctx, spanPrefix+"CompletePurchase",
		attribute.String("use_case", useCaseCompletePurchase),
		attribute.String("purchase.id", p.ID),
	)
	outcome, statusText := "success", "OK"

	_ = p.Complete(res, nativeErr)

	result := PurchaseOutcome{PurchaseID: p.ID}
	var spanErr error
	if p.Err != nil {
		outcome, statusText = "error", p.Err.Kind.String()
		result.Err = p.Err
		spanErr = p.Err
	} else {
		result.Result = purchaseResultFromNative(p.Result)
		span.SetAttributes(
			attribute.String("purchase.order_id", result.Result.OrderID.String()),
			attribute.String("purchase.transaction_id", result.Result.TransactionID.String()),
		)
	}

	h.resolve(result)
	uc.notify(logger, onComplete, result)
	publishErr := uc.publish(ctx, dominv.NewPurchaseCompletedEvent(p))

	finishSpan(span, spanErr, statusText)

	latency := p.Latency().Seconds()
	uc.observeUseCase(useCaseCompletePurchase, outcome, latency)

	fields := []observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", statusText),
		observability.F("latency_seconds", latency),
	}
	fields = append(fields, traceFields(ctx)...)
	if p.Err != nil {
		fields = append(fields, observability.F("error", p.Err.Error()))
	} else {
		fields = append(fields,
			observability.F("order_id", result.Result.OrderID.String()),
			observability.F("transaction_id", result.Result.TransactionID.String()),
		)
	}
	if publishErr != nil {
		fields = append(fields, observability.F("completion_event_error", publishErr.Error()))
	}
	logger.Info("use_case_done", fields...)
}

func (uc *StartPurchaseUseCase) notify(logger observability.Logger, onComplete func(PurchaseOutcome), o PurchaseOutcome) {
	if onComplete == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("purchase_callback_panic", observability.F("panic", r))
		}
	}()
	onComplete(o)
}

func (uc *StartPurchaseUseCase) publish(ctx context.Context, event domoutbox.Event) error {
	if uc.publisher == nil || event == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	start := time.Now()
	err := uc.publisher.Publish(pubCtx, event)
	if err == nil && pubCtx.Err() != nil {
		err = pubCtx.Err()
	}
	uc.observeExternal(publishPeer, endpointPurchaseComplete, start, err)
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
