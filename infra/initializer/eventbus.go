package initializer

import (
	"fmt"
	"log/slog"
	"strings"

	infra_eventbus "github.com/amirasaad/topup/infra/eventbus"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// initEventBus picks the transport named by EVENT_BUS_DRIVER. A broker that
// is configured but unreachable degrades to the in-process async bus.
func initEventBus(cfg *config.App, rdb *redis.Client, logger *slog.Logger) (eventbus.Bus, error) {
	ebCfg := cfg.EventBus
	if ebCfg == nil {
		ebCfg = &config.EventBus{}
	}
	driver := strings.ToLower(strings.TrimSpace(ebCfg.Driver))

	switch driver {
	case "", "memory":
		logger.Info("Using in-memory async event bus")
		return infra_eventbus.NewWithMemoryAsync(logger), nil

	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("%w: EVENT_BUS_DRIVER=redis requires REDIS_URL", errDriverNeedsConfig)
		}
		bus, err := infra_eventbus.NewWithRedis(rdb, ebCfg.Stream, ebCfg.Group, logger)
		if err != nil {
			logger.Warn("⚠️ [WARN] Redis event bus unavailable, falling back to in-memory async bus", "error", err)
			return infra_eventbus.NewWithMemoryAsync(logger), nil
		}
		logger.Info("Using Redis Streams event bus", "stream", ebCfg.Stream, "group", ebCfg.Group)
		return bus, nil

	case "kafka":
		brokers := nonEmpty(ebCfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, fmt.Errorf("%w: EVENT_BUS_DRIVER=kafka requires EVENT_BUS_KAFKA_BROKERS", errDriverNeedsConfig)
		}
		bus, err := infra_eventbus.NewWithKafka(brokers, ebCfg.Stream, ebCfg.Group, logger)
		if err != nil {
			logger.Warn("⚠️ [WARN] Kafka event bus unavailable, falling back to in-memory async bus", "error", err)
			return infra_eventbus.NewWithMemoryAsync(logger), nil
		}
		logger.Info("Using Kafka event bus", "brokers", brokers, "topic_prefix", ebCfg.Stream)
		return bus, nil
	}
	return nil, fmt.Errorf("unsupported event bus driver %q", ebCfg.Driver)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
