package order

import (
	"context"
	"fmt"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/google/uuid"
)

// RefundOrder is the admin refund of a completed or failed order. Wallet
// orders get the charged amount back in the wallet. Gateway orders only
// record who refunded them and why; the money goes back outside this
// system.
func (s *Service) RefundOrder(ctx context.Context, orderID, reason string, adminID uuid.UUID) (*order.Order, error) {
	log := s.logger.With("handler", "RefundOrder", "order_id", orderID, "admin_id", adminID)
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	o, err := orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := order.Next(o.Status, order.EventRefunded); err != nil {
		log.Warn("❌ [ERROR] Refund rejected", "status", o.Status, "error", err)
		return nil, err
	}
	if !o.Payment.Charged {
		return nil, fmt.Errorf("%w: %s", domain.ErrNothingToRefund, o.ID)
	}
	if reason == "" {
		reason = "Refunded by admin"
	}

	if o.IsWalletFunded() {
		refunded, err := s.refundToWallet(ctx, o, reason, adminID.String(), false)
		if err != nil {
			log.Error("❌ [ERROR] Wallet refund failed", "error", err)
			return nil, err
		}
		log.Info("✅ [SUCCESS] Order refunded to wallet", "transaction_id", refunded.Refund.TransactionID)
		s.emit(ctx, events.EventTypeOrderRefunded, refunded)
		return refunded, nil
	}

	from, err := o.Fire(order.EventRefunded)
	if err != nil {
		return nil, err
	}
	o.NeedsReconciliation = false
	o.Refund = &order.RefundInfo{
		RefundedBy: adminID.String(),
		RefundedAt: s.now(),
		Reason:     reason,
		Manual:     true,
	}
	if err := s.save(ctx, orders, o, from); err != nil {
		return nil, err
	}
	log.Info("✅ [SUCCESS] Gateway order marked refunded, settle the payment manually")
	s.emit(ctx, events.EventTypeOrderRefunded, o)
	return o, nil
}
