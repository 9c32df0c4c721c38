// Package leaderboard keeps the cached weekly board in step with completed
// orders.
package leaderboard

import (
	"context"
	"log/slog"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/eventbus"
)

// Invalidator drops the cached snapshot for the current week.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// HandleOrderCompleted invalidates the board so the next read recomputes it.
func HandleOrderCompleted(board Invalidator, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "leaderboard.HandleOrderCompleted", "event_type", e.Type())
		if err := board.Invalidate(ctx); err != nil {
			log.Warn("⚠️ [WARN] Leaderboard cache not invalidated", "error", err)
			return nil
		}
		log.Debug("🔁 [INVALIDATE] Leaderboard cache dropped")
		return nil
	}
}
