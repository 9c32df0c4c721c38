package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/eventbus"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisEventBus publishes to one Redis stream and consumes it through a
// consumer group, so each event is handled by one replica of the service.
type RedisEventBus struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	handlers *handlerSet
	logger   *slog.Logger

	start  sync.Once
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis creates the stream and group when missing.
func NewWithRedis(client *redis.Client, stream, group string, logger *slog.Logger) (*RedisEventBus, error) {
	if client == nil || stream == "" || group == "" {
		return nil, fmt.Errorf("redis event bus: client, stream and group are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	err := client.XGroupCreateMkStream(context.Background(), stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("redis event bus: create group: %w", err)
	}
	return &RedisEventBus{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: "consumer-" + uuid.NewString(),
		handlers: newHandlerSet(),
		logger:   logger.With("bus", "redis", "stream", stream),
	}, nil
}

func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	data, err := encode(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(data)},
	}).Err(); err != nil {
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	return nil
}

// Register adds a handler. The first registration starts the consumer loop.
func (b *RedisEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlers.add(eventType, handler)
	b.start.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		b.cancel = cancel
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.consume(ctx)
		}()
		b.logger.Info("🟢 [START] Redis consumer started", "group", b.group, "consumer", b.consumer)
	})
}

func (b *RedisEventBus) consume(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{b.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				b.logger.Error("❌ [ERROR] Reading stream", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				b.handleMessage(ctx, msg)
			}
		}
	}
}

// handleMessage dispatches one stream entry and acks it. Entries that cannot
// be decoded, or whose handlers fail, are copied to the dead-letter stream
// first.
func (b *RedisEventBus) handleMessage(ctx context.Context, msg redis.XMessage) {
	raw, _ := msg.Values["event"].(string)
	evt, err := decode([]byte(raw))
	if err != nil {
		b.logger.Error("❌ [ERROR] Undecodable stream entry", "id", msg.ID, "error", err)
		b.pushToDLQ(ctx, msg.Values)
	} else if handlers := b.handlers.get(events.EventType(evt.Type())); len(handlers) > 0 {
		if !dispatch(ctx, b.logger, evt, handlers) {
			b.pushToDLQ(ctx, msg.Values)
		}
	}
	if err := b.client.XAck(ctx, b.stream, b.group, msg.ID).Err(); err != nil {
		b.logger.Error("❌ [ERROR] Ack failed", "id", msg.ID, "error", err)
	}
}

func (b *RedisEventBus) pushToDLQ(ctx context.Context, values map[string]any) {
	dlq := dlqStreamName(b.stream)
	if err := b.client.XAdd(ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		b.logger.Error("❌ [ERROR] Push to DLQ failed", "stream", dlq, "error", err)
		return
	}
	b.logger.Warn("⚠️ [DLQ] Event moved to dead-letter stream", "stream", dlq)
}

// Close stops the consumer loop.
func (b *RedisEventBus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return nil
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
