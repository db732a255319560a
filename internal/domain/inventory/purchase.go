package inventory

import (
	"errors"
	"strconv"
	"time"
)

// PurchaseStatus is the lifecycle position of one purchase attempt.
type PurchaseStatus string

const (
	PurchaseInitiated PurchaseStatus = "initiated"
	PurchaseSucceeded PurchaseStatus = "succeeded"
	PurchaseFailed    PurchaseStatus = "failed"
)

var ErrPurchaseCompleted = errors.New("inventory: purchase already completed")

// Purchase tracks a single attempt from initiation to its one completion.
// It is not safe for concurrent use; the orchestrator serialises Complete.
type Purchase struct {
	ID          string
	Items       []PurchaseLineItem
	Status      PurchaseStatus
	Result      PurchaseResult
	Err         *Error
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewPurchase validates the line items and returns an attempt in the initiated
// state. The items are copied so later caller mutations cannot leak in.
func NewPurchase(id string, items []PurchaseLineItem) (*Purchase, error) {
	if len(items) == 0 {
		return nil, NewError(KindInvalidInput, "purchase requires at least one line item")
	}
	for i, it := range items {
		if it.Quantity == 0 {
			return nil, NewError(KindInvalidInput, "line item "+strconv.Itoa(i)+" has zero quantity")
		}
	}
	return &Purchase{
		ID:        id,
		Items:     append([]PurchaseLineItem(nil), items...),
		Status:    PurchaseInitiated,
		StartedAt: time.Now().UTC(),
	}, nil
}

// Complete moves the attempt to its terminal state. A non-nil err is mapped
// through FromNative.
func (p *Purchase) Complete(res PurchaseResult, err error) error {
	if p.Status != PurchaseInitiated {
		return ErrPurchaseCompleted
	}
	p.CompletedAt = time.Now().UTC()
	if mapped := FromNative(err); mapped != nil {
		p.Status = PurchaseFailed
		p.Err = mapped
		return nil
	}
	p.Status = PurchaseSucceeded
	p.Result = res
	return nil
}

// Completed reports whether the attempt reached a terminal state.
func (p *Purchase) Completed() bool {
	return p.Status == PurchaseSucceeded || p.Status == PurchaseFailed
}

// Latency is the time between initiation and completion.
func (p *Purchase) Latency() time.Duration {
	if !p.Completed() {
		return 0
	}
	return p.CompletedAt.Sub(p.StartedAt)
}
