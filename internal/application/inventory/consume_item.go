package inventory

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/inventory-bridge/internal/codec"
	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseConsumeItem  = "inventory.consume_item"
	endpointConsumeItem = "consume_item"
)

type ConsumeItemInput struct {
	ItemID   codec.BoundaryInt
	Quantity uint32
}

type ConsumeItemUseCase struct {
	client dominv.Client
	instruments
}

func NewConsumeItemUseCase(client dominv.Client, tel observability.Observability) *ConsumeItemUseCase {
	return &ConsumeItemUseCase{client: client, instruments: newInstruments(tel)}
}

// Execute decodes the boundary item id and consumes quantity units from the
// stack. Input that cannot be decoded never reaches the native client.
func (uc *ConsumeItemUseCase) Execute(ctx context.Context, in ConsumeItemInput) (_ struct{}, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseConsumeItem),
		observability.F("item_id", in.ItemID.String()),
		observability.F("quantity", in.Quantity),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"ConsumeItem",
		attribute.String("use_case", useCaseConsumeItem),
		attribute.String("item.id", in.ItemID.String()),
		attribute.Int64("item.quantity", int64(in.Quantity)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		finishSpan(span, err, statusText)

		latency := time.Since(start).Seconds()
		uc.observeUseCase(useCaseConsumeItem, outcome, latency)

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

	itemID, decErr := codec.Decode(in.ItemID)
	if decErr != nil {
		outcome, statusText = "error", dominv.KindInvalidInput.String()
		return struct{}{}, dominv.InvalidInput(decErr, "item_id: %v", decErr)
	}
	if in.Quantity == 0 {
		outcome, statusText = "error", dominv.KindInvalidInput.String()
		return struct{}{}, dominv.NewError(dominv.KindInvalidInput, "quantity must be positive")
	}

	callErr := uc.callNative(endpointConsumeItem, func() error {
		return uc.client.ConsumeItem(ctx, dominv.ItemID(itemID), in.Quantity)
	})
	if callErr != nil {
		mapped := dominv.FromNative(callErr)
		outcome, statusText = "error", mapped.Kind.String()
		return struct{}{}, mapped
	}
	return struct{}{}, nil
}
