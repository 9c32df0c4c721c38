package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func orderEvent(t events.EventType, id string) events.OrderEvent {
	return events.OrderEvent{EventType: t, OrderID: id, Status: "completed"}
}

func TestMemoryEventBus_DispatchesByType(t *testing.T) {
	bus := NewWithMemory(discard)
	var completed, failed []string
	bus.Register(events.EventTypeOrderCompleted, func(_ context.Context, e events.Event) error {
		completed = append(completed, e.(events.OrderEvent).OrderID)
		return nil
	})
	bus.Register(events.EventTypeOrderFailed, func(_ context.Context, e events.Event) error {
		failed = append(failed, e.(events.OrderEvent).OrderID)
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), orderEvent(events.EventTypeOrderCompleted, "ORD-1")))
	require.NoError(t, bus.Emit(context.Background(), orderEvent(events.EventTypeOrderFailed, "ORD-2")))

	assert.Equal(t, []string{"ORD-1"}, completed)
	assert.Equal(t, []string{"ORD-2"}, failed)
	assert.Len(t, bus.Published(), 2)
}

func TestMemoryEventBus_HandlerFailureDoesNotStopOthers(t *testing.T) {
	bus := NewWithMemory(discard)
	var calls int
	bus.Register(events.EventTypeOrderRefunded, func(context.Context, events.Event) error {
		calls++
		return errors.New("smtp down")
	})
	bus.Register(events.EventTypeOrderRefunded, func(context.Context, events.Event) error {
		calls++
		panic("boom")
	})
	bus.Register(events.EventTypeOrderRefunded, func(context.Context, events.Event) error {
		calls++
		return nil
	})

	assert.NoError(t, bus.Emit(context.Background(), orderEvent(events.EventTypeOrderRefunded, "ORD-3")))
	assert.Equal(t, 3, calls)
}

func TestMemoryAsyncEventBus_SurvivesCancelledContext(t *testing.T) {
	bus := NewWithMemoryAsync(discard)
	var seen atomic.Int32
	var ctxErr atomic.Value
	bus.Register(events.EventTypeDepositCompleted, func(ctx context.Context, _ events.Event) error {
		seen.Add(1)
		ctxErr.Store(ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Emit(ctx, events.WalletEvent{EventType: events.EventTypeDepositCompleted, TransactionID: "TXN_1"}))
	cancel()
	bus.Wait()

	assert.Equal(t, int32(1), seen.Load())
	assert.Equal(t, true, ctxErr.Load())
}
