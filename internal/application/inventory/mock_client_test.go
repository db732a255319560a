package inventory

import (
	"context"
	"sync"

	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/inventory-bridge/internal/domain/outbox"
	"github.com/stretchr/testify/mock"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetAllItems(ctx context.Context) ([]dominv.ItemDetails, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]dominv.ItemDetails)
	return items, args.Error(1)
}

func (m *mockClient) ConsumeItem(ctx context.Context, id dominv.ItemID, quantity uint32) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *mockClient) StartPurchase(ctx context.Context, items []dominv.PurchaseLineItem, done dominv.PurchaseCallback) {
	m.Called(ctx, items, done)
}

// callbackOf extracts the completion callback from recorded StartPurchase arguments.
func callbackOf(args mock.Arguments) dominv.PurchaseCallback {
	return args.Get(2).(dominv.PurchaseCallback)
}

type sequenceIDs struct {
	mu  sync.Mutex
	ids []string
	n   int
}

func newSequenceIDs(ids ...string) *sequenceIDs { return &sequenceIDs{ids: ids} }

func (s *sequenceIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.ids[s.n%len(s.ids)]
	s.n++
	return id
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Events() []domoutbox.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domoutbox.Event(nil), p.events...)
}
