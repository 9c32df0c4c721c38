package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/eventbus"
)

// MemoryEventBus dispatches synchronously and records what was published.
// Tests use it to assert on emitted events.
type MemoryEventBus struct {
	handlers  *handlerSet
	mu        sync.Mutex
	logger    *slog.Logger
	published []events.Event
}

// NewWithMemory creates a synchronous in-memory bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryEventBus{
		handlers: newHandlerSet(),
		logger:   logger.With("bus", "memory"),
	}
}

func (b *MemoryEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlers.add(eventType, handler)
}

func (b *MemoryEventBus) Emit(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	b.mu.Unlock()
	dispatch(ctx, b.logger, event, b.handlers.get(events.EventType(event.Type())))
	return nil
}

// Published returns a copy of every event emitted so far.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.published...)
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)

type queued struct {
	ctx   context.Context
	event events.Event
}

// MemoryAsyncEventBus hands events to handlers on a background goroutine so
// that a slow handler never holds up the emitting request.
type MemoryAsyncEventBus struct {
	handlers *handlerSet
	eventCh  chan queued
	wg       sync.WaitGroup
	log      *slog.Logger
}

// NewWithMemoryAsync creates the default in-process bus.
func NewWithMemoryAsync(logger *slog.Logger) *MemoryAsyncEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &MemoryAsyncEventBus{
		handlers: newHandlerSet(),
		eventCh:  make(chan queued, 100),
		log:      logger.With("bus", "memory-async"),
	}
	go b.process()
	return b
}

func (b *MemoryAsyncEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlers.add(eventType, handler)
}

// Emit detaches the event from the caller's cancellation; the request that
// produced it usually ends before the handlers run.
func (b *MemoryAsyncEventBus) Emit(ctx context.Context, event events.Event) error {
	b.wg.Add(1)
	b.eventCh <- queued{ctx: context.WithoutCancel(ctx), event: event}
	return nil
}

func (b *MemoryAsyncEventBus) process() {
	for q := range b.eventCh {
		go func(q queued) {
			defer b.wg.Done()
			dispatch(q.ctx, b.log, q.event, b.handlers.get(events.EventType(q.event.Type())))
		}(q)
	}
}

// Wait blocks until every emitted event has been handled.
func (b *MemoryAsyncEventBus) Wait() {
	b.wg.Wait()
}

var _ eventbus.Bus = (*MemoryAsyncEventBus)(nil)
