// Command kafka_smoketest publishes one event of each notified type through
// the Kafka event bus and waits for the bus to hand it back. It is meant
// for a local broker started from docker compose.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/topup/infra/eventbus"
	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// ensureTopics creates the topics up front so the group readers do not
// start on a missing partition.
func ensureTopics(ctx context.Context, broker, prefix string, types []events.EventType) error {
	conn, err := (&kafka.Dialer{Timeout: 5 * time.Second}).DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("dial %s: %w", broker, err)
	}
	defer func() { _ = conn.Close() }()
	for _, t := range types {
		err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             eventbus.TopicName(prefix, t),
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return fmt.Errorf("create topic for %s: %w", t, err)
		}
	}
	return nil
}

func run(logger *slog.Logger) error {
	brokers := strings.Split(env("BROKERS", "localhost:9092"), ",")
	prefix := env("TOPIC_PREFIX", "topup.smoke")
	groupID := env("GROUP_ID", "topup-smoke-"+uuid.NewString()[:8])

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	nonce := uuid.NewString()
	sent := []events.Event{
		events.OrderEvent{
			EventType: events.EventTypeOrderCompleted,
			OrderID:   "ORD-SMOKE-" + nonce,
			UserID:    uuid.New(),
			Status:    "completed",
			Timestamp: time.Now().UTC(),
		},
		events.WalletEvent{
			EventType:     events.EventTypeDepositCompleted,
			TransactionID: "TXN_SMOKE_" + nonce,
			UserID:        uuid.New(),
			Amount:        10000,
			Timestamp:     time.Now().UTC(),
		},
	}
	types := make([]events.EventType, 0, len(sent))
	for _, e := range sent {
		types = append(types, events.EventType(e.Type()))
	}
	if err := ensureTopics(ctx, brokers[0], prefix, types); err != nil {
		return err
	}

	bus, err := eventbus.NewWithKafka(brokers, prefix, groupID, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	var wg sync.WaitGroup
	for _, t := range types {
		wg.Add(1)
		var once sync.Once
		bus.Register(t, func(_ context.Context, e events.Event) error {
			if !strings.Contains(fmt.Sprintf("%v", e), nonce) {
				return nil
			}
			logger.Info("✅ [SUCCESS] Event consumed", "event_type", e.Type())
			once.Do(wg.Done)
			return nil
		})
	}

	for _, e := range sent {
		if err := bus.Emit(ctx, e); err != nil {
			return err
		}
		logger.Info("📤 Event produced", "event_type", e.Type())
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for events: %w", ctx.Err())
	}
}

func main() {
	logger := slog.New(log.NewWithOptions(os.Stdout, log.Options{
		ReportTimestamp: true,
		Prefix:          "[kafka-smoke]",
	}))
	if err := run(logger); err != nil {
		logger.Error("❌ [ERROR] Kafka smoke test failed", "error", err)
		os.Exit(1)
	}
	logger.Info("✅ [SUCCESS] Kafka smoke test passed")
}
