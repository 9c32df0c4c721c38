// Package leaderboard serves the weekly spend ranking.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/topup/pkg/cache"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain/leaderboard"
	"github.com/amirasaad/topup/pkg/repository"
)

const keyPrefix = "leaderboard:weekly:"

// Service computes weekly boards and caches them per week.
type Service struct {
	uow    repository.UnitOfWork
	cache  cache.LeaderboardCache
	size   int
	ttl    time.Duration
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

// New creates the service. cache may be nil.
func New(
	uow repository.UnitOfWork,
	c cache.LeaderboardCache,
	cfg *config.Leaderboard,
	logger *slog.Logger,
) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = &config.Leaderboard{Size: 50, CacheTTL: 5 * time.Minute, Timezone: "UTC"}
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("leaderboard timezone %q: %w", cfg.Timezone, err)
	}
	size := cfg.Size
	if size <= 0 {
		size = 50
	}
	return &Service{
		uow:    uow,
		cache:  c,
		size:   size,
		ttl:    cfg.CacheTTL,
		loc:    loc,
		logger: logger.With("service", "leaderboard"),
		now:    time.Now,
	}, nil
}

// Weekly returns the board of the current week.
func (s *Service) Weekly(ctx context.Context) (*leaderboard.Board, error) {
	start, end := leaderboard.WeekRange(s.now().In(s.loc))
	key := keyPrefix + start.Format("2006-01-02")

	if s.cache != nil {
		board, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("⚠️ [CACHE] Read failed, computing board", "key", key, "error", err)
		} else if board != nil {
			return board, nil
		}
	}

	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	entries, err := orders.Leaderboard(ctx, start.UTC(), end.UTC(), s.size)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	board := &leaderboard.Board{Entries: entries, WeekStart: start, WeekEnd: end}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, key, board, s.ttl); err != nil {
			s.logger.Warn("⚠️ [CACHE] Write failed", "key", key, "error", err)
		}
	}
	return board, nil
}

// Invalidate drops the cached board of the current week.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	start, _ := leaderboard.WeekRange(s.now().In(s.loc))
	return s.cache.Delete(ctx, keyPrefix+start.Format("2006-01-02"))
}

// Reset describes when the current board closes.
type Reset struct {
	NextReset        time.Time `json:"nextReset"`
	SecondsRemaining int64     `json:"secondsRemaining"`
	Countdown        string    `json:"countdown"`
}

// ResetTime returns the next Monday 00:00 in the board's timezone.
func (s *Service) ResetTime() *Reset {
	now := s.now().In(s.loc)
	next := leaderboard.NextReset(now)
	left := next.Sub(now)
	return &Reset{
		NextReset:        next,
		SecondsRemaining: int64(left / time.Second),
		Countdown:        countdown(left),
	}
}

// countdown renders d as "2d 3h 4m 5s".
func countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	secs %= 86400
	return fmt.Sprintf("%dd %dh %dm %ds", days, secs/3600, secs%3600/60, secs%60)
}
