package order

import (
	"context"
	"fmt"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/amirasaad/topup/pkg/metrics"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/amirasaad/topup/pkg/repository"
)

// ConfirmPayment applies a gateway success verdict to the deposit that
// funds an order. In one unit of work the deposit settles, the order
// amount is debited back out and the order moves to paid; then the order
// is submitted to its provider.
//
// Repeated confirmations are no-ops: changed is false and the order is
// returned as stored.
//
// A confirmation for a payment that already failed means the gateway
// captured the money late. The deposit is credited to the wallet, the
// failed order is flagged for manual reconciliation and nothing is
// submitted.
func (s *Service) ConfirmPayment(
	ctx context.Context,
	depositID string,
	raw map[string]any,
) (o *order.Order, changed bool, err error) {
	var late bool
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		deposit, settled, err := s.ledger.SettleDepositIn(ctx, uow, depositID, payment.StateSuccess, raw)
		if err != nil {
			return err
		}
		o, err = s.paidOrder(ctx, uow, deposit)
		if err != nil || !settled {
			return err
		}
		if deposit.IsLateCapture() {
			o.NeedsReconciliation = true
			orders, err := uow.OrderRepository()
			if err != nil {
				return err
			}
			if err := orders.Update(ctx, o, o.Status); err != nil {
				return err
			}
			late, changed = true, true
			return nil
		}
		if _, err := s.ledger.SpendIn(ctx, uow, o.UserID, deposit.Amount, o.ID, o.Pack.Name); err != nil {
			return err
		}
		from, err := o.Fire(order.EventPaymentConfirmed)
		if err != nil {
			return err
		}
		o.Payment.Charged = true
		orders, err := uow.OrderRepository()
		if err != nil {
			return err
		}
		if err := s.save(ctx, orders, o, from); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if isStale(err) {
			o, err = s.reloadByDeposit(ctx, depositID)
			return o, false, err
		}
		return nil, false, err
	}
	if !changed {
		return o, false, nil
	}
	if late {
		s.logger.Error("🚨 [MANUAL RECONCILIATION] Gateway captured payment for a failed order, amount credited to wallet",
			"order_id", o.ID, "user_id", o.UserID, "deposit_id", depositID, "amount", o.Payment.Amount, "status", o.Status)
		metrics.RecordManualReconciliation()
		s.emit(ctx, events.EventTypeOrderReconciliationRequired, o)
		return o, true, nil
	}
	s.logger.Info("✅ [SUCCESS] Gateway payment confirmed", "order_id", o.ID, "deposit_id", depositID)
	return s.submit(ctx, o), true, nil
}

// FailPayment applies a gateway failure verdict: the deposit and the order
// both fail. Nothing was charged, so nothing is refunded. A success that
// arrives afterwards is handled by ConfirmPayment as a late capture.
func (s *Service) FailPayment(
	ctx context.Context,
	depositID string,
	raw map[string]any,
) (o *order.Order, changed bool, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		deposit, settled, err := s.ledger.SettleDepositIn(ctx, uow, depositID, payment.StateFailed, raw)
		if err != nil {
			return err
		}
		o, err = s.paidOrder(ctx, uow, deposit)
		if err != nil || !settled {
			return err
		}
		from, err := o.Fail(order.EventPaymentFailed, "Payment failed at gateway")
		if err != nil {
			return err
		}
		orders, err := uow.OrderRepository()
		if err != nil {
			return err
		}
		if err := s.save(ctx, orders, o, from); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if isStale(err) {
			o, err = s.reloadByDeposit(ctx, depositID)
			return o, false, err
		}
		return nil, false, err
	}
	if changed {
		s.logger.Info("❌ [FAILED] Gateway payment failed", "order_id", o.ID, "deposit_id", depositID)
		s.emit(ctx, events.EventTypeOrderFailed, o)
	}
	return o, changed, nil
}

func (s *Service) paidOrder(ctx context.Context, uow repository.UnitOfWork, deposit *wallet.Transaction) (*order.Order, error) {
	if deposit == nil {
		return nil, fmt.Errorf("%w: deposit has no verdict to apply", domain.ErrInvalidState)
	}
	if deposit.RelatedOrderID == "" {
		return nil, fmt.Errorf("%w: deposit %s does not fund an order", domain.ErrValidation, deposit.ID)
	}
	orders, err := uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	return orders.Get(ctx, deposit.RelatedOrderID)
}

func (s *Service) reloadByDeposit(ctx context.Context, depositID string) (*order.Order, error) {
	ledger, err := s.uow.WalletRepository()
	if err != nil {
		return nil, err
	}
	deposit, err := ledger.Get(ctx, depositID)
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, deposit.RelatedOrderID)
}
