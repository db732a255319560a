package inventory

import (
	"context"
	"time"

	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseListItems    = "inventory.list_items"
	endpointGetAllItems = "get_all_items"
)

type ListItemsInput struct{}

// ListItemsResult is a snapshot of every stack the store reports. Items is
// never nil.
type ListItemsResult struct {
	Items []ItemDetails
}

type ListItemsUseCase struct {
	client dominv.Client
	instruments
}

func NewListItemsUseCase(client dominv.Client, tel observability.Observability) *ListItemsUseCase {
	return &ListItemsUseCase{client: client, instruments: newInstruments(tel)}
}

// Execute fetches the full inventory. A native failure yields no partial list.
func (uc *ListItemsUseCase) Execute(ctx context.Context, _ ListItemsInput) (_ *ListItemsResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseListItems),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"ListItems",
		attribute.String("use_case", useCaseListItems),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	itemCount := 0

	defer func() {
		span.SetAttributes(attribute.Int("inventory.item_count", itemCount))
		finishSpan(span, err, statusText)

		latency := time.Since(start).Seconds()
		uc.observeUseCase(useCaseListItems, outcome, latency)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
			observability.F("item_count", itemCount),
		}
		fields = append(fields, traceFields(ctx)...)
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	var native []dominv.ItemDetails
	callErr := uc.callNative(endpointGetAllItems, func() error {
		var e error
		native, e = uc.client.GetAllItems(ctx)
		return e
	})
	if callErr != nil {
		mapped := dominv.FromNative(callErr)
		outcome, statusText = "error", mapped.Kind.String()
		return nil, mapped
	}

	items := make([]ItemDetails, 0, len(native))
	for _, d := range native {
		items = append(items, itemFromNative(d))
	}
	itemCount = len(items)
	return &ListItemsResult{Items: items}, nil
}
