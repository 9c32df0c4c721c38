// Package app wires services together and registers the event handlers.
package app

import (
	"time"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/handler/common"
	"github.com/amirasaad/topup/pkg/handler/leaderboard"
	"github.com/amirasaad/topup/pkg/handler/notification"
)

// redeliveryWindow bounds how long handled event keys are remembered.
const redeliveryWindow = 6 * time.Hour

// setupEventBus registers all event handlers with the event bus.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	logger := a.Deps.Logger
	tracker := common.NewTracker(redeliveryWindow)

	if a.Deps.Notifier != nil {
		orderEmail := common.WithIdempotency(
			notification.HandleOrderEvent(a.Deps.Uow, a.Deps.Notifier, logger),
			tracker, common.EventKey, "order_email", logger,
		)
		for _, t := range []events.EventType{
			events.EventTypeOrderCompleted,
			events.EventTypeOrderFailed,
			events.EventTypeOrderRefunded,
			events.EventTypeOrderReconciliationRequired,
		} {
			bus.Register(t, orderEmail)
		}
		bus.Register(
			events.EventTypeDepositCompleted,
			common.WithIdempotency(
				notification.HandleDepositCompleted(a.Deps.Uow, a.Deps.Notifier, logger),
				tracker, common.EventKey, "deposit_email", logger,
			),
		)
	}

	// Cache invalidation is harmless to repeat.
	bus.Register(
		events.EventTypeOrderCompleted,
		leaderboard.HandleOrderCompleted(a.LeaderboardService, logger),
	)
}
