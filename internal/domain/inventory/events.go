package inventory

import "time"

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// PurchaseCompletedEvent is emitted once per purchase attempt when the store
// resolves it. Identifiers are native; hosts receive them through the codec.
type PurchaseCompletedEvent struct {
	PurchaseID    string
	Outcome       string
	OrderID       uint64
	TransactionID uint64
	ErrorKind     string
	ErrorDetail   string
	LineItems     int
	Latency       time.Duration
	OccurredAt    time.Time
}

func (PurchaseCompletedEvent) EventName() string { return "inventory.purchase_completed" }

// NewPurchaseCompletedEvent snapshots a completed purchase.
func NewPurchaseCompletedEvent(p *Purchase) PurchaseCompletedEvent {
	e := PurchaseCompletedEvent{
		PurchaseID: p.ID,
		Outcome:    OutcomeSucceeded,
		LineItems:  len(p.Items),
		Latency:    p.Latency(),
		OccurredAt: time.Now().UTC(),
	}
	if p.Err != nil {
		e.Outcome = OutcomeFailed
		e.ErrorKind = p.Err.Kind.String()
		e.ErrorDetail = p.Err.Detail
		return e
	}
	e.OrderID = p.Result.OrderID
	e.TransactionID = p.Result.TransactionID
	return e
}
