package cache

import (
	"context"
	"time"

	"github.com/amirasaad/topup/pkg/domain/leaderboard"
)

// LeaderboardCache stores computed leaderboard snapshots. Get returns
// (nil, nil) on a miss.
type LeaderboardCache interface {
	Get(ctx context.Context, key string) (*leaderboard.Board, error)
	Set(ctx context.Context, key string, board *leaderboard.Board, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
