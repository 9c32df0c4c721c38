package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the bus uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventBus publishes each event type to its own topic and runs one
// group reader per registered type.
type KafkaEventBus struct {
	brokers     []string
	topicPrefix string
	groupID     string
	writer      messageWriter
	handlers    *handlerSet
	logger      *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	readersMtx sync.Mutex
	readers    map[events.EventType]*kafka.Reader
	wg         sync.WaitGroup
}

// NewWithKafka connects to the first broker to fail fast on bad config.
func NewWithKafka(brokers []string, topicPrefix, groupID string, logger *slog.Logger) (*KafkaEventBus, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	conn, err := (&kafka.Dialer{Timeout: 5 * time.Second}).DialContext(context.Background(), "tcp", brokers[0])
	if err != nil {
		return nil, fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}
	b := newKafkaBus(writer, topicPrefix, groupID, logger)
	b.brokers = brokers
	b.logger.Info("🚀 Kafka event bus initialized", "group_id", groupID, "brokers", brokers)
	return b, nil
}

func newKafkaBus(w messageWriter, topicPrefix, groupID string, logger *slog.Logger) *KafkaEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &KafkaEventBus{
		topicPrefix: prefixOrDefault(topicPrefix),
		groupID:     groupID,
		writer:      w,
		handlers:    newHandlerSet(),
		logger:      logger.With("bus", "kafka"),
		ctx:         ctx,
		cancel:      cancel,
		readers:     make(map[events.EventType]*kafka.Reader),
	}
}

// Emit keys messages by the event's type so one type stays ordered.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	data, err := encode(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	msg := kafka.Message{
		Topic: topicNameFor(b.topicPrefix, events.EventType(event.Type())),
		Key:   []byte(event.Type()),
		Value: data,
		Time:  time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

func (b *KafkaEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlers.add(eventType, handler)

	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()
	if _, ok := b.readers[eventType]; ok || len(b.brokers) == 0 {
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.groupID,
		Topic:       topicNameFor(b.topicPrefix, eventType),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
	})
	b.readers[eventType] = reader
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(eventType, reader)
	}()
}

func (b *KafkaEventBus) consumeLoop(eventType events.EventType, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(b.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || b.ctx.Err() != nil {
				return
			}
			b.logger.Error("❌ [ERROR] Kafka fetch failed", "error", err, "event_type", eventType)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		commit, perr := b.processMessage(b.ctx, msg)
		if !commit {
			b.logger.Error("❌ [ERROR] Kafka message not processed, will retry", "error", perr, "offset", msg.Offset)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err := reader.CommitMessages(b.ctx, msg); err != nil {
			b.logger.Error("❌ [ERROR] Kafka commit failed", "error", err, "offset", msg.Offset)
		}
	}
}

// processMessage reports whether the message may be committed. Poison
// messages are committed; handler failures are committed only once the
// message is safely on the dead-letter topic.
func (b *KafkaEventBus) processMessage(ctx context.Context, msg kafka.Message) (bool, error) {
	evt, err := decode(msg.Value)
	if err != nil {
		b.logger.Error("❌ [ERROR] Undecodable kafka message", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return true, nil
	}
	eventType := events.EventType(evt.Type())
	handlers := b.handlers.get(eventType)
	if len(handlers) == 0 || dispatch(ctx, b.logger, evt, handlers) {
		return true, nil
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: dlqTopicNameFor(b.topicPrefix, eventType),
		Key:   []byte(eventType.String()),
		Value: msg.Value,
		Time:  time.Now(),
	}); err != nil {
		return false, fmt.Errorf("kafka event bus: dlq publish failed: %w", err)
	}
	b.logger.Warn("⚠️ [DLQ] Event moved to dead-letter topic", "event_type", eventType)
	return true, nil
}

// Close stops readers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
