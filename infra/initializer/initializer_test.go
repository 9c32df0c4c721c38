package initializer

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	infra_cache "github.com/amirasaad/topup/infra/cache"
	infra_eventbus "github.com/amirasaad/topup/infra/eventbus"
	"github.com/amirasaad/topup/infra/provider/phonepe"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/testutils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb, err := newRedisClient(&config.Redis{URL: "redis://127.0.0.1:1/0", DialTimeout: 100 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestInitEventBus_DefaultsToMemoryAsync(t *testing.T) {
	for _, driver := range []string{"", "memory", " Memory "} {
		bus, err := initEventBus(&config.App{EventBus: &config.EventBus{Driver: driver}}, nil, testutils.Discard)
		require.NoError(t, err)
		assert.IsType(t, &infra_eventbus.MemoryAsyncEventBus{}, bus)
	}
}

func TestInitEventBus_RedisRequiresClient(t *testing.T) {
	_, err := initEventBus(&config.App{EventBus: &config.EventBus{Driver: "redis"}}, nil, testutils.Discard)
	require.ErrorIs(t, err, errDriverNeedsConfig)
}

func TestInitEventBus_UnreachableRedisFallsBack(t *testing.T) {
	cfg := &config.App{EventBus: &config.EventBus{Driver: "redis", Stream: "topup.events", Group: "api"}}
	bus, err := initEventBus(cfg, unreachableRedis(t), testutils.Discard)
	require.NoError(t, err)
	assert.IsType(t, &infra_eventbus.MemoryAsyncEventBus{}, bus)
}

func TestInitEventBus_KafkaRequiresBrokers(t *testing.T) {
	cfg := &config.App{EventBus: &config.EventBus{Driver: "kafka", KafkaBrokers: []string{" ", ""}}}
	_, err := initEventBus(cfg, nil, testutils.Discard)
	require.ErrorIs(t, err, errDriverNeedsConfig)
}

func TestInitEventBus_UnreachableKafkaFallsBack(t *testing.T) {
	cfg := &config.App{EventBus: &config.EventBus{Driver: "kafka", KafkaBrokers: []string{"127.0.0.1:1"}}}
	bus, err := initEventBus(cfg, nil, testutils.Discard)
	require.NoError(t, err)
	assert.IsType(t, &infra_eventbus.MemoryAsyncEventBus{}, bus)
}

func TestInitEventBus_UnsupportedDriver(t *testing.T) {
	_, err := initEventBus(&config.App{EventBus: &config.EventBus{Driver: "nats"}}, nil, testutils.Discard)
	require.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	rdb, err := newRedisClient(nil)
	require.NoError(t, err)
	assert.Nil(t, rdb)

	_, err = newRedisClient(&config.Redis{URL: "not-a-url"})
	require.Error(t, err)

	rdb, err = newRedisClient(&config.Redis{URL: "redis://localhost:6379/2", PoolSize: 7, ReadTimeout: time.Second})
	require.NoError(t, err)
	defer rdb.Close()
	assert.Equal(t, 7, rdb.Options().PoolSize)
	assert.Equal(t, 2, rdb.Options().DB)
	assert.Equal(t, time.Second, rdb.Options().ReadTimeout)
}

func TestInitCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := &config.App{Redis: &config.Redis{KeyPrefix: "topup:"}}

	assert.IsType(t, &infra_cache.MemoryCache{}, initCache(ctx, cfg, nil, testutils.Discard))
	assert.IsType(t, &infra_cache.MemoryCache{}, initCache(ctx, cfg, unreachableRedis(t), testutils.Discard))
}

func TestInitGateway(t *testing.T) {
	assert.Nil(t, initGateway(nil, testutils.Discard))
	assert.Nil(t, initGateway(&config.PhonePe{}, testutils.Discard))

	gw := initGateway(&config.PhonePe{ClientID: "id", ClientSecret: "secret", CallbackUsername: "u"}, testutils.Discard)
	require.NotNil(t, gw)
	assert.Equal(t, phonepe.Name, gw.Name())
}

func TestInitProviders(t *testing.T) {
	reg := initProviders(&config.Providers{
		SmileOne: &config.ProviderAPI{BaseURL: "https://smile.example"},
		Yokcash:  &config.ProviderAPI{},
	}, testutils.Discard)

	_, err := reg.Get("smileone")
	require.NoError(t, err)
	_, err = reg.Get("yokcash")
	require.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestNewLogger_JSON(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", Prefix: "[topup]"})

	logger.Info("✅ [SUCCESS] Order completed", "order_id", "ORD-1-ABCDEF")

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "ORD-1-ABCDEF", line["order_id"])
	assert.Contains(t, line["msg"], "Order completed")
}
