// Package notification turns order and wallet events into customer emails.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/amirasaad/topup/pkg/eventbus"
	"github.com/amirasaad/topup/pkg/provider/notify"
	"github.com/amirasaad/topup/pkg/repository"
	"github.com/google/uuid"
)

// HandleOrderEvent emails the order owner about a completed, failed,
// refunded or stuck order. Delivery is best effort: errors are logged and
// the handler always returns nil.
func HandleOrderEvent(
	uow repository.UnitOfWork,
	notifier notify.Notifier,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "notification.HandleOrderEvent", "event_type", e.Type())
		oe, ok := asOrderEvent(e)
		if !ok {
			log.Error("❌ [ERROR] Skipping unexpected event type", "event", e)
			return nil
		}
		log = log.With("order_id", oe.OrderID, "user_id", oe.UserID)

		u, err := recipient(ctx, uow, oe.UserID)
		if err != nil {
			log.Warn("⚠️ [WARN] No recipient for order email", "error", err)
			return nil
		}
		msg := orderMessage(oe)
		msg.ToEmail, msg.ToName = u.Email, u.Name
		if err := notifier.Send(ctx, msg); err != nil {
			log.Warn("⚠️ [WARN] Order email not sent", "error", err)
			return nil
		}
		log.Info("✅ [SUCCESS] Order email sent")
		return nil
	}
}

// HandleDepositCompleted emails the wallet owner when a gateway deposit
// lands.
func HandleDepositCompleted(
	uow repository.UnitOfWork,
	notifier notify.Notifier,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "notification.HandleDepositCompleted", "event_type", e.Type())
		we, ok := asWalletEvent(e)
		if !ok {
			log.Error("❌ [ERROR] Skipping unexpected event type", "event", e)
			return nil
		}
		log = log.With("transaction_id", we.TransactionID, "user_id", we.UserID)

		u, err := recipient(ctx, uow, we.UserID)
		if err != nil {
			log.Warn("⚠️ [WARN] No recipient for deposit email", "error", err)
			return nil
		}
		err = notifier.Send(ctx, notify.Message{
			ToEmail: u.Email,
			ToName:  u.Name,
			Subject: "Wallet top-up received",
			Text: fmt.Sprintf("%s was added to your wallet (ref %s). New balance: %s.",
				we.Amount, we.TransactionID, we.Balance),
		})
		if err != nil {
			log.Warn("⚠️ [WARN] Deposit email not sent", "error", err)
			return nil
		}
		log.Info("✅ [SUCCESS] Deposit email sent")
		return nil
	}
}

func recipient(ctx context.Context, uow repository.UnitOfWork, id uuid.UUID) (*user.User, error) {
	users, err := uow.UserRepository()
	if err != nil {
		return nil, err
	}
	return users.Get(ctx, id)
}

func orderMessage(e events.OrderEvent) notify.Message {
	switch e.EventType {
	case events.EventTypeOrderCompleted:
		return notify.Message{
			Subject: "Order " + e.OrderID + " delivered",
			Text:    fmt.Sprintf("%s has been delivered. Amount paid: %s.", e.PackName, e.Amount),
		}
	case events.EventTypeOrderFailed:
		return notify.Message{
			Subject: "Order " + e.OrderID + " failed",
			Text:    fmt.Sprintf("We could not deliver %s: %s.", e.PackName, e.FailureReason),
		}
	case events.EventTypeOrderRefunded:
		return notify.Message{
			Subject: "Order " + e.OrderID + " refunded",
			Text:    fmt.Sprintf("%s for %s has been refunded.", e.Amount, e.PackName),
		}
	case events.EventTypeOrderReconciliationRequired:
		return notify.Message{
			Subject: "Order " + e.OrderID + " is under review",
			Text: fmt.Sprintf("Delivery of %s failed and the automatic refund of %s did not go through. "+
				"Our team will refund you manually.", e.PackName, e.Amount),
		}
	}
	return notify.Message{
		Subject: "Order " + e.OrderID + " update",
		Text:    "Your order is now " + e.Status + ".",
	}
}

func asOrderEvent(e events.Event) (events.OrderEvent, bool) {
	switch v := e.(type) {
	case events.OrderEvent:
		return v, true
	case *events.OrderEvent:
		if v != nil {
			return *v, true
		}
	}
	return events.OrderEvent{}, false
}

func asWalletEvent(e events.Event) (events.WalletEvent, bool) {
	switch v := e.(type) {
	case events.WalletEvent:
		return v, true
	case *events.WalletEvent:
		if v != nil {
			return *v, true
		}
	}
	return events.WalletEvent{}, false
}
