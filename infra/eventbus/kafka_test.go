package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "topup.events.order.completed", topicNameFor("", events.EventTypeOrderCompleted))
	assert.Equal(t, "shop.wallet.depositcompleted", topicNameFor("shop", events.EventTypeDepositCompleted))
	assert.Equal(t, "topup.events.dlq.order.failed", dlqTopicNameFor(" ", events.EventTypeOrderFailed))
}

func TestKafkaEventBus_Emit(t *testing.T) {
	w := &fakeWriter{}
	bus := newKafkaBus(w, "topup.events", "topup-api", discard)

	require.NoError(t, bus.Emit(context.Background(), events.OrderEvent{EventType: events.EventTypeOrderRefunded, OrderID: "ORD-1"}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "topup.events.order.refunded", w.msgs[0].Topic)
	assert.Equal(t, "Order.Refunded", string(w.msgs[0].Key))

	evt, err := decode(w.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", evt.(events.OrderEvent).OrderID)
}

func TestKafkaEventBus_ProcessMessage(t *testing.T) {
	data, err := encode(events.OrderEvent{EventType: events.EventTypeOrderCompleted, OrderID: "ORD-2"})
	require.NoError(t, err)

	t.Run("handled", func(t *testing.T) {
		w := &fakeWriter{}
		bus := newKafkaBus(w, "", "g", discard)
		var got string
		bus.handlers.add(events.EventTypeOrderCompleted, func(_ context.Context, e events.Event) error {
			got = e.(events.OrderEvent).OrderID
			return nil
		})
		commit, err := bus.processMessage(context.Background(), kafka.Message{Value: data})
		require.NoError(t, err)
		assert.True(t, commit)
		assert.Equal(t, "ORD-2", got)
		assert.Empty(t, w.msgs)
	})

	t.Run("handler fails and message moves to dlq", func(t *testing.T) {
		w := &fakeWriter{}
		bus := newKafkaBus(w, "", "g", discard)
		bus.handlers.add(events.EventTypeOrderCompleted, func(context.Context, events.Event) error {
			return errors.New("boom")
		})
		commit, err := bus.processMessage(context.Background(), kafka.Message{Value: data})
		require.NoError(t, err)
		assert.True(t, commit)
		require.Len(t, w.msgs, 1)
		assert.Equal(t, "topup.events.dlq.order.completed", w.msgs[0].Topic)
	})

	t.Run("dlq unavailable keeps the message", func(t *testing.T) {
		w := &fakeWriter{err: errors.New("broker down")}
		bus := newKafkaBus(w, "", "g", discard)
		bus.handlers.add(events.EventTypeOrderCompleted, func(context.Context, events.Event) error {
			return errors.New("boom")
		})
		commit, err := bus.processMessage(context.Background(), kafka.Message{Value: data})
		assert.Error(t, err)
		assert.False(t, commit)
	})

	t.Run("poison message is committed", func(t *testing.T) {
		bus := newKafkaBus(&fakeWriter{}, "", "g", discard)
		commit, err := bus.processMessage(context.Background(), kafka.Message{Value: []byte("{")})
		assert.NoError(t, err)
		assert.True(t, commit)
	})
}
