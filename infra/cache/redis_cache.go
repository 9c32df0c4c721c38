package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/topup/pkg/cache"
	"github.com/amirasaad/topup/pkg/domain/leaderboard"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements cache.LeaderboardCache using Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

var _ cache.LeaderboardCache = (*RedisCache)(nil)

// NewRedisCache wraps an existing client; keys are namespaced by prefix.
func NewRedisCache(client *redis.Client, prefix string, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, prefix: prefix, logger: logger.With("cache", "redis")}
}

func (r *RedisCache) key(key string) string {
	return r.prefix + key
}

func (r *RedisCache) Get(ctx context.Context, key string) (*leaderboard.Board, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "key", key, "error", err)
		return nil, err
	}
	var board leaderboard.Board
	if err := json.Unmarshal([]byte(val), &board); err != nil {
		r.logger.Error("Redis cache unmarshal error", "key", key, "error", err)
		return nil, err
	}
	r.logger.Debug("Redis cache hit", "key", key, "entries", len(board.Entries))
	return &board, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, board *leaderboard.Board, ttl time.Duration) error {
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		r.logger.Error("Redis cache set error", "key", key, "error", err)
		return err
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
