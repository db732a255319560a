package inventory

import (
	"context"
	"fmt"
)

// NativeError is the closed failure set reported by the platform inventory client.
type NativeError uint8

const (
	NativeOperationFailed NativeError = iota + 1
	NativeGetResultItemsFailed
	NativeInvalidInput
	NativeTimeout
)

func (e NativeError) Error() string {
	switch e {
	case NativeOperationFailed:
		return "native inventory: operation failed"
	case NativeGetResultItemsFailed:
		return "native inventory: get result items failed"
	case NativeInvalidInput:
		return "native inventory: invalid input"
	case NativeTimeout:
		return "native inventory: timeout"
	default:
		return fmt.Sprintf("native inventory: error code %d", uint8(e))
	}
}

// PurchaseCallback receives the completion of a purchase started on the client.
// It may run on any goroutine.
type PurchaseCallback func(PurchaseResult, error)

// Client is the already-authenticated platform inventory client. Errors returned
// or delivered by a Client are expected to wrap a NativeError.
//
// The context carries request-scoped values only; clients are not required to
// honour cancellation.
type Client interface {
	// GetAllItems blocks until the platform returns the full current inventory.
	GetAllItems(ctx context.Context) ([]ItemDetails, error)
	// ConsumeItem removes quantity units from the stack identified by id.
	ConsumeItem(ctx context.Context, id ItemID, quantity uint32) error
	// StartPurchase submits the line items to the store and returns without
	// waiting. done is invoked once the store resolves the purchase.
	StartPurchase(ctx context.Context, items []PurchaseLineItem, done PurchaseCallback)
}
