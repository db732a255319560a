package inventory

import (
	"context"

	"github.com/Zhima-Mochi/inventory-bridge/internal/application"
	"github.com/Zhima-Mochi/inventory-bridge/internal/codec"
	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/inventory-bridge/internal/domain/outbox"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
)

// Facade is the host-facing inventory surface over one native client.
type Facade struct {
	listItems     application.UseCase[ListItemsInput, *ListItemsResult]
	consumeItem   application.UseCase[ConsumeItemInput, struct{}]
	startPurchase application.UseCase[StartPurchaseInput, *PurchaseHandle]
}

func NewFacade(client dominv.Client, publisher domoutbox.Publisher, ids IDGenerator, tel observability.Observability) *Facade {
	return &Facade{
		listItems:     NewListItemsUseCase(client, tel),
		consumeItem:   NewConsumeItemUseCase(client, tel),
		startPurchase: NewStartPurchaseUseCase(client, publisher, ids, tel),
	}
}

// GetAllItems returns every stack the store reports, possibly none.
func (f *Facade) GetAllItems(ctx context.Context) ([]ItemDetails, error) {
	res, err := f.listItems.Execute(ctx, ListItemsInput{})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (f *Facade) ConsumeItem(ctx context.Context, itemID codec.BoundaryInt, quantity uint32) error {
	_, err := f.consumeItem.Execute(ctx, ConsumeItemInput{ItemID: itemID, Quantity: quantity})
	return err
}

// StartPurchase initiates a purchase and returns without waiting for the store.
func (f *Facade) StartPurchase(ctx context.Context, items []dominv.PurchaseLineItem, onComplete func(PurchaseOutcome)) (*PurchaseHandle, error) {
	return f.startPurchase.Execute(ctx, StartPurchaseInput{Items: items, OnComplete: onComplete})
}
