// Package common holds middleware shared by event handlers.
package common

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/eventbus"
	"golang.org/x/sync/singleflight"
)

// KeyFunc derives a de-duplication key from an event. An empty key
// disables the check for that event.
type KeyFunc func(events.Event) string

// EventKey keys order events by order id and wallet events by transaction
// id, both scoped to the event type.
func EventKey(e events.Event) string {
	switch ev := e.(type) {
	case events.OrderEvent:
		if ev.OrderID != "" {
			return ev.Type() + ":" + ev.OrderID
		}
	case events.WalletEvent:
		if ev.TransactionID != "" {
			return ev.Type() + ":" + ev.TransactionID
		}
	}
	return ""
}

// Tracker remembers handled keys for a limited time. Redis streams and
// Kafka both redeliver on consumer restarts, so a window of a few hours
// is enough to keep customers from getting the same email twice.
type Tracker struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time

	inflight singleflight.Group
}

// NewTracker creates a tracker. A non-positive ttl keeps keys forever.
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

// Seen reports whether key was handled within the window.
func (t *Tracker) Seen(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.seen[key]
	if !ok {
		return false
	}
	if t.ttl > 0 && t.now().Sub(at) > t.ttl {
		delete(t.seen, key)
		return false
	}
	return true
}

func (t *Tracker) mark(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.seen[key] = now
	if t.ttl <= 0 {
		return
	}
	for k, at := range t.seen {
		if now.Sub(at) > t.ttl {
			delete(t.seen, k)
		}
	}
}

// Len returns the number of remembered keys.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

// WithIdempotency runs handler at most once per key. Keys are scoped by
// name so one tracker can serve several handlers of the same event.
// Concurrent deliveries of the same key share one execution. A failed
// execution is not remembered, so the transport's retry can try again.
func WithIdempotency(
	handler eventbus.HandlerFunc,
	tracker *Tracker,
	key KeyFunc,
	name string,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, e events.Event) error {
		k := key(e)
		if k == "" {
			return handler(ctx, e)
		}
		k = name + "|" + k
		if tracker.Seen(k) {
			logger.Info("🔁 [SKIP] Event already handled",
				"handler", name, "event_type", e.Type(), "key", k)
			return nil
		}
		_, err, _ := tracker.inflight.Do(k, func() (any, error) {
			if tracker.Seen(k) {
				return nil, nil
			}
			if err := handler(ctx, e); err != nil {
				return nil, err
			}
			tracker.mark(k)
			return nil, nil
		})
		return err
	}
}
