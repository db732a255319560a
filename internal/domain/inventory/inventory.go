package inventory

// ItemID names one specific inventory stack owned by the player.
type ItemID uint64

// DefinitionID names a catalog item type, independent of any owned instance.
type DefinitionID int32

// MaxStackQuantity is the largest quantity a single stack can report.
const MaxStackQuantity = 1<<16 - 1

// ItemDetails is an immutable snapshot of one inventory stack as reported by the
// platform. Quantity is 16-bit while purchase quantities are 32-bit; the native
// interface is shaped that way.
type ItemDetails struct {
	ItemID     ItemID
	Definition DefinitionID
	Quantity   uint16
	Flags      uint16
}

// PurchaseLineItem is a requested quantity of a catalog item that is not yet owned.
type PurchaseLineItem struct {
	DefinitionID DefinitionID
	Quantity     uint32
}

// PurchaseResult is issued by the store backend when a purchase succeeds.
type PurchaseResult struct {
	OrderID       uint64
	TransactionID uint64
}
