package outbox

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/inventory-bridge/internal/domain/outbox"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability/logctx"
)

const componentOutbox = "outbox"

// BusConfig sizes the queue and the per-event handler fan-out.
type BusConfig struct {
	QueueSize      int
	Concurrency    int
	HandlerTimeout time.Duration
}

// DefaultBusConfig returns the sizing used when no configuration is supplied.
func DefaultBusConfig() BusConfig {
	return BusConfig{QueueSize: 1024, Concurrency: 8, HandlerTimeout: 30 * time.Second}
}

// Bus is an in-memory event bus for fan-out of completion events.
// It is not durable: queued events are lost if the process exits before Stop drains them.
type Bus struct {
	subsMu sync.RWMutex
	subs   map[string][]domoutbox.Handler

	// stateMu guards queue closing against concurrent sends.
	stateMu   sync.RWMutex
	queue     chan domoutbox.Event
	started   bool
	stopped   bool
	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	cfg       BusConfig
	log       observability.Logger
	events    observability.Counter
}

// NewBus creates a bus; zero fields in cfg take their defaults.
func NewBus(logger observability.Logger, tel observability.Observability, cfg BusConfig) *Bus {
	def := DefaultBusConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = def.HandlerTimeout
	}
	if logger == nil {
		logger = observability.NopLogger()
		if tel != nil {
			logger = tel.Logger()
		}
	}
	events := observability.NopCounter()
	if tel != nil {
		events = tel.Metrics().Counter(observability.MOutboxEvents)
	}
	return &Bus{
		subs:   make(map[string][]domoutbox.Handler),
		queue:  make(chan domoutbox.Event, cfg.QueueSize),
		done:   make(chan struct{}),
		cfg:    cfg,
		log:    logger.With(observability.F("component", componentOutbox)),
		events: events,
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

// Start launches the dispatch loop. Handler contexts inherit values from ctx
// but not its cancellation.
func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		b.stateMu.Lock()
		b.started = true
		b.stateMu.Unlock()

		go b.dispatchLoop(context.WithoutCancel(ctx))
		logctx.FromOr(ctx, b.log).Info("event_bus_started",
			observability.F("queue_size", b.cfg.QueueSize),
			observability.F("concurrency", b.cfg.Concurrency),
		)
	})
}

// Stop rejects further publishes and waits, bounded by ctx, for queued events
// to be dispatched.
func (b *Bus) Stop(ctx context.Context) error {
	var err error
	b.stopOnce.Do(func() {
		b.stateMu.Lock()
		b.stopped = true
		started := b.started
		close(b.queue)
		b.stateMu.Unlock()

		logger := logctx.FromOr(ctx, b.log)
		if !started {
			logger.Info("event_bus_stopped")
			return
		}
		select {
		case <-b.done:
			logger.Info("event_bus_stopped")
		case <-ctx.Done():
			err = ctx.Err()
			logger.Warn("event_bus_stop_timeout", observability.F("error", err))
		}
	})
	return err
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}

	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	if b.stopped {
		b.count(e.EventName(), "rejected")
		return domoutbox.ErrBusStopped
	}

	select {
	case b.queue <- e:
		logctx.FromOr(ctx, b.log).Debug("event_enqueued", observability.F("event", e.EventName()))
		return nil
	case <-ctx.Done():
		b.count(e.EventName(), "aborted")
		logctx.FromOr(ctx, b.log).Warn("event_enqueue_aborted",
			observability.F("event", e.EventName()),
			observability.F("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for e := range b.queue {
		b.fanout(ctx, e)
	}
}

func (b *Bus) fanout(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()

	b.subsMu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.subsMu.RUnlock()

	logger := b.log.With(observability.F("event", name))
	if len(handlers) == 0 {
		b.count(name, "dropped")
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	sem := make(chan struct{}, b.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					b.count(name, "panic")
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, b.cfg.HandlerTimeout)
			defer cancel()
			hctx = logctx.With(hctx, logger)
			if err := h(hctx, e); err != nil {
				b.count(name, "error")
				logger.Warn("event_handler_error", observability.F("error", err))
				return
			}
			b.count(name, "delivered")
		}()
	}

	wg.Wait()

	logger.Debug("event_fanned_out", observability.F("handlers", len(handlers)))
}

func (b *Bus) count(event, outcome string) {
	b.events.Add(1,
		observability.L("event", event),
		observability.L("outcome", outcome),
	)
}
