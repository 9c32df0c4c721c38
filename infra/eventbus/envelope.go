package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/eventbus"
)

// envelope is the wire form shared by the redis and kafka transports.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return json.Marshal(envelope{Type: event.Type(), Payload: data})
}

func decode(raw []byte) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return events.Decode(env.Type, env.Payload)
}

// handlerSet is a concurrency-safe registry of handlers by event type.
type handlerSet struct {
	mu sync.RWMutex
	m  map[events.EventType][]eventbus.HandlerFunc
}

func newHandlerSet() *handlerSet {
	return &handlerSet{m: make(map[events.EventType][]eventbus.HandlerFunc)}
}

func (s *handlerSet) add(t events.EventType, h eventbus.HandlerFunc) {
	s.mu.Lock()
	s.m[t] = append(s.m[t], h)
	s.mu.Unlock()
}

func (s *handlerSet) get(t events.EventType) []eventbus.HandlerFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]eventbus.HandlerFunc(nil), s.m[t]...)
}

// dispatch runs every handler, recovering panics. It reports whether all of
// them succeeded.
func dispatch(ctx context.Context, logger *slog.Logger, evt events.Event, handlers []eventbus.HandlerFunc) bool {
	ok := true
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					ok = false
					logger.Error("💥 [PANIC] Event handler panicked", "type", evt.Type(), "panic", r)
				}
			}()
			if err := h(ctx, evt); err != nil {
				ok = false
				logger.Error("❌ [ERROR] Event handler failed", "type", evt.Type(), "error", err)
			}
		}()
	}
	return ok
}
