package memory

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
	"github.com/google/uuid"
)

// grantedItemIDBase keeps granted stack ids above the float64-safe range.
const grantedItemIDBase = 1 << 60

// InventoryClient is an in-memory stand-in for the platform inventory client.
// Stacks are reported in insertion order and purchases resolve on their own
// goroutine after the configured delay.
type InventoryClient struct {
	mu         sync.Mutex
	order      []domain.ItemID
	items      map[domain.ItemID]domain.ItemDetails
	nextItemID domain.ItemID
	catalog    map[domain.DefinitionID]struct{}
	delay      time.Duration
	pending    sync.WaitGroup
}

type Option func(*InventoryClient)

// WithItems seeds the inventory. Later duplicates of an id replace earlier ones.
func WithItems(items ...domain.ItemDetails) Option {
	return func(c *InventoryClient) {
		for _, it := range items {
			c.put(it)
		}
	}
}

// WithCatalog restricts purchases to the given definitions. Without it every
// definition is purchasable.
func WithCatalog(defs ...domain.DefinitionID) Option {
	return func(c *InventoryClient) {
		c.catalog = make(map[domain.DefinitionID]struct{}, len(defs))
		for _, d := range defs {
			c.catalog[d] = struct{}{}
		}
	}
}

// WithPurchaseDelay sets how long the store takes to resolve a purchase.
func WithPurchaseDelay(d time.Duration) Option {
	return func(c *InventoryClient) { c.delay = d }
}

func NewInventoryClient(opts ...Option) *InventoryClient {
	c := &InventoryClient{
		items:      make(map[domain.ItemID]domain.ItemDetails),
		nextItemID: grantedItemIDBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *InventoryClient) GetAllItems(ctx context.Context) ([]domain.ItemDetails, error) {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.ItemDetails, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out, nil
}

func (c *InventoryClient) ConsumeItem(ctx context.Context, id domain.ItemID, quantity uint32) error {
	_ = ctx
	if quantity == 0 {
		return fmt.Errorf("consume %d: zero quantity: %w", id, domain.NativeInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok {
		return fmt.Errorf("consume %d: no such stack: %w", id, domain.NativeOperationFailed)
	}
	if uint32(item.Quantity) < quantity {
		return fmt.Errorf("consume %d: have %d, want %d: %w", id, item.Quantity, quantity, domain.NativeOperationFailed)
	}

	item.Quantity -= uint16(quantity)
	if item.Quantity == 0 {
		c.remove(id)
		return nil
	}
	c.items[id] = item
	return nil
}

func (c *InventoryClient) StartPurchase(ctx context.Context, items []domain.PurchaseLineItem, done domain.PurchaseCallback) {
	_ = ctx
	lines := append([]domain.PurchaseLineItem(nil), items...)

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if c.delay > 0 {
			time.Sleep(c.delay)
		}
		res, err := c.resolvePurchase(lines)
		done(res, err)
	}()
}

// Close waits for purchases still being resolved.
func (c *InventoryClient) Close() {
	c.pending.Wait()
}

func (c *InventoryClient) resolvePurchase(lines []domain.PurchaseLineItem) (domain.PurchaseResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(lines) == 0 {
		return domain.PurchaseResult{}, fmt.Errorf("purchase: no line items: %w", domain.NativeInvalidInput)
	}
	if c.catalog != nil {
		for _, l := range lines {
			if _, ok := c.catalog[l.DefinitionID]; !ok {
				return domain.PurchaseResult{}, fmt.Errorf("purchase: definition %d not in store: %w", l.DefinitionID, domain.NativeOperationFailed)
			}
		}
	}

	for _, l := range lines {
		remaining := l.Quantity
		for remaining > 0 {
			q := min(remaining, domain.MaxStackQuantity)
			c.put(domain.ItemDetails{ItemID: c.nextItemID, Definition: l.DefinitionID, Quantity: uint16(q)})
			remaining -= q
		}
	}

	u := uuid.New()
	return domain.PurchaseResult{
		OrderID:       binary.BigEndian.Uint64(u[:8]),
		TransactionID: binary.BigEndian.Uint64(u[8:]),
	}, nil
}

// put must be called with mu held or before the client is shared.
func (c *InventoryClient) put(it domain.ItemDetails) {
	if _, exists := c.items[it.ItemID]; !exists {
		c.order = append(c.order, it.ItemID)
	}
	c.items[it.ItemID] = it
	if it.ItemID >= c.nextItemID && it.ItemID < math.MaxUint64 {
		c.nextItemID = it.ItemID + 1
	}
}

func (c *InventoryClient) remove(id domain.ItemID) {
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
