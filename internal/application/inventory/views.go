package inventory

import (
	"github.com/Zhima-Mochi/inventory-bridge/internal/codec"
	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
)

// ItemDetails is one inventory stack as seen by host callers. ItemID is a
// boundary integer so values above 2^53-1 survive hosts with float64 numbers.
type ItemDetails struct {
	ItemID     codec.BoundaryInt
	Definition int32
	Quantity   uint16
	Flags      uint16
}

// PurchaseResult carries the store identifiers used for reconciliation.
type PurchaseResult struct {
	OrderID       codec.BoundaryInt
	TransactionID codec.BoundaryInt
}

func itemFromNative(d dominv.ItemDetails) ItemDetails {
	return ItemDetails{
		ItemID:     codec.Encode(uint64(d.ItemID)),
		Definition: int32(d.Definition),
		Quantity:   d.Quantity,
		Flags:      d.Flags,
	}
}

func purchaseResultFromNative(r dominv.PurchaseResult) PurchaseResult {
	return PurchaseResult{
		OrderID:       codec.Encode(r.OrderID),
		TransactionID: codec.Encode(r.TransactionID),
	}
}
