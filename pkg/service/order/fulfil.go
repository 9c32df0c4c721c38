package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/amirasaad/topup/pkg/metrics"
	"github.com/amirasaad/topup/pkg/provider/topup"
	"github.com/amirasaad/topup/pkg/repository"
	walletsvc "github.com/amirasaad/topup/pkg/service/wallet"
	"github.com/google/uuid"
)

// submit forwards a paid order to its provider and records the verdict.
// It never returns an error: whatever happens, the order comes back in its
// best-known state.
func (s *Service) submit(ctx context.Context, o *order.Order) *order.Order {
	log := s.logger.With("handler", "submit", "order_id", o.ID, "provider", o.Provider.Provider)
	res := s.callProvider(ctx, o)

	if !res.Success {
		return s.failCharged(ctx, o, order.StatusPaid, res.Reason, res.Audit())
	}

	from, err := o.Fire(order.EventProviderAccepted)
	if err != nil {
		log.Error("❌ [ERROR] Unexpected order state", "status", o.Status, "error", err)
		return o
	}
	o.Provider.ExternalOrderID = res.ExternalOrderID
	o.Provider.LastResponse = res.Raw
	orders, err := s.uow.OrderRepository()
	if err == nil {
		err = s.save(ctx, orders, o, from)
	}
	if err != nil {
		log.Error("🚨 [MANUAL RECONCILIATION] Provider accepted order but it could not be recorded",
			"external_order_id", res.ExternalOrderID, "error", err)
		metrics.RecordManualReconciliation()
		if cur, rerr := s.reload(ctx, o.ID); rerr == nil {
			return cur
		}
		return o
	}
	log.Info("✅ [SUCCESS] Order processing", "external_order_id", res.ExternalOrderID)
	return o
}

func (s *Service) callProvider(ctx context.Context, o *order.Order) *topup.Result {
	catalogs, err := s.uow.CatalogRepository()
	if err != nil {
		return topup.TransportFailure(err)
	}
	game, err := catalogs.GetGame(ctx, o.GameID)
	if err != nil {
		return topup.TransportFailure(fmt.Errorf("load game: %w", err))
	}
	res, err := s.providers.SubmitOrder(ctx, o.Provider.Provider, topup.SubmitRequest{
		OrderID:   o.ID,
		GameCode:  game.APIGameID,
		ProductID: o.Pack.PackID,
		UserID:    o.Destination.UserID,
		ServerID:  o.Destination.ServerID,
		Contact:   o.Contact,
	})
	if err != nil {
		return topup.TransportFailure(err)
	}
	return res
}

// failCharged fails an order whose payment leg succeeded. A charged order
// is then refunded to the wallet, which supersedes the failure. Gateway
// orders qualify too: their payment settled as a deposit followed by a
// debit. If that refund cannot be written the order stays failed and is
// flagged for manual reconciliation.
func (s *Service) failCharged(
	ctx context.Context,
	o *order.Order,
	expected order.Status,
	reason string,
	raw map[string]any,
) *order.Order {
	log := s.logger.With("order_id", o.ID)
	if reason == "" {
		reason = "Provider rejected the order"
	}
	if _, err := o.Fail(order.EventProviderRejected, reason); err != nil {
		log.Error("❌ [ERROR] Unexpected order state", "status", o.Status, "error", err)
		return o
	}
	if raw != nil {
		o.Provider.LastResponse = raw
	}
	orders, err := s.uow.OrderRepository()
	if err == nil {
		err = s.save(ctx, orders, o, expected)
	}
	if err != nil {
		if errors.Is(err, domain.ErrStaleState) {
			log.Info("🔁 [SKIP] Order already moved on", "error", err)
		} else {
			log.Error("❌ [ERROR] Could not record order failure", "error", err)
		}
		if cur, rerr := s.reload(ctx, o.ID); rerr == nil {
			return cur
		}
		return o
	}
	log.Warn("❌ [FAILED] Order failed", "reason", reason)

	if !o.Payment.Charged {
		s.emit(ctx, events.EventTypeOrderFailed, o)
		return o
	}

	refunded, err := s.refundToWallet(ctx, o, "Automatic refund: "+reason, "system", false)
	if err != nil {
		return s.flagForReconciliation(ctx, o, err)
	}
	log.Info("✅ [SUCCESS] Order refunded to wallet", "transaction_id", refunded.Refund.TransactionID)
	s.emit(ctx, events.EventTypeOrderRefunded, refunded)
	return refunded
}

// refundToWallet credits the order amount back and moves the order to
// refunded in one unit of work. o is only modified on success.
func (s *Service) refundToWallet(
	ctx context.Context,
	o *order.Order,
	reason, refundedBy string,
	manual bool,
) (*order.Order, error) {
	next := *o
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txn, err := s.ledger.RefundIn(ctx, uow, o.UserID, o.Payment.Amount, o.ID, "Refund for order "+o.ID)
		if err != nil {
			return err
		}
		from, err := next.Fire(order.EventRefunded)
		if err != nil {
			return err
		}
		next.NeedsReconciliation = false
		next.Refund = &order.RefundInfo{
			RefundedBy:    refundedBy,
			RefundedAt:    s.now(),
			Reason:        reason,
			TransactionID: txn.ID,
			Manual:        manual,
		}
		orders, err := uow.OrderRepository()
		if err != nil {
			return err
		}
		return s.save(ctx, orders, &next, from)
	})
	if err != nil {
		return nil, err
	}
	*o = next
	return o, nil
}

func (s *Service) flagForReconciliation(ctx context.Context, o *order.Order, cause error) *order.Order {
	s.logger.Error("🚨 [MANUAL RECONCILIATION] Compensating refund failed, wallet owes the user",
		"order_id", o.ID, "user_id", o.UserID, "amount", o.Payment.Amount, "error", cause)
	metrics.RecordManualReconciliation()

	o.NeedsReconciliation = true
	orders, err := s.uow.OrderRepository()
	if err == nil {
		err = orders.Update(ctx, o, order.StatusFailed)
	}
	if err != nil {
		s.logger.Error("❌ [ERROR] Could not flag order for reconciliation", "order_id", o.ID, "error", err)
	}
	s.emit(ctx, events.EventTypeOrderReconciliationRequired, o)
	return o
}

// StatusResult is an order together with what its provider reported, if
// it was asked.
type StatusResult struct {
	Order          *order.Order  `json:"order"`
	ProviderStatus *topup.Status `json:"providerStatus,omitempty"`
}

// GetOrderStatus returns the order, asking the provider first when the
// order is processing. Only the owner, or an admin, may look.
func (s *Service) GetOrderStatus(
	ctx context.Context,
	orderID string,
	requester uuid.UUID,
	asAdmin bool,
) (*StatusResult, error) {
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, err
	}
	o, err := orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !asAdmin && o.UserID != requester {
		return nil, domain.ErrNotOrderOwner
	}
	if o.Status != order.StatusProcessing {
		return &StatusResult{Order: o}, nil
	}
	o, st := s.Poll(ctx, o)
	return &StatusResult{Order: o, ProviderStatus: st}, nil
}

// Poll asks the provider about a processing order and applies a final
// verdict. Pending and unknown answers leave the order untouched.
func (s *Service) Poll(ctx context.Context, o *order.Order) (*order.Order, *topup.Status) {
	log := s.logger.With("handler", "Poll", "order_id", o.ID)
	st, err := s.providers.GetOrderStatus(ctx, o.Provider.Provider, o.Provider.ExternalOrderID, o.Provider.LastResponse)
	if err != nil {
		log.Warn("⚠️ [WARN] Provider status unavailable", "error", err)
		return o, nil
	}

	switch st.State {
	case topup.StateSuccess:
		if o.Provider.ExternalOrderID == "" {
			log.Warn("⚠️ [WARN] Provider reported success for an order without external id")
			return o, st
		}
		from, err := o.Fire(order.EventProviderSettled)
		if err != nil {
			return o, st
		}
		orders, err := s.uow.OrderRepository()
		if err == nil {
			err = s.save(ctx, orders, o, from)
		}
		if err != nil {
			log.Info("🔁 [SKIP] Completion not recorded", "error", err)
			if cur, rerr := s.reload(ctx, o.ID); rerr == nil {
				return cur, st
			}
			return o, st
		}
		log.Info("✅ [SUCCESS] Order completed")
		s.emit(ctx, events.EventTypeOrderCompleted, o)
		return o, st
	case topup.StateFailed:
		return s.failCharged(ctx, o, order.StatusProcessing, st.Reason, st.Raw), st
	}
	return o, st
}

// ListUserOrders returns a page of the user's orders, newest first.
func (s *Service) ListUserOrders(
	ctx context.Context,
	userID uuid.UUID,
	page, limit int,
) ([]*order.Order, int64, error) {
	page, limit = walletsvc.Page(page, limit)
	orders, err := s.uow.OrderRepository()
	if err != nil {
		return nil, 0, err
	}
	return orders.ListByUser(ctx, userID, (page-1)*limit, limit)
}

// ValidateAccount looks up the in-game account an order would deliver to.
func (s *Service) ValidateAccount(
	ctx context.Context,
	gameID uuid.UUID,
	packID string,
	dest order.Destination,
) (*topup.Validation, error) {
	if dest.UserID == "" {
		return nil, fmt.Errorf("%w: userId", domain.ErrMissingField)
	}
	catalogs, err := s.uow.CatalogRepository()
	if err != nil {
		return nil, err
	}
	game, err := catalogs.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if packID != "" && game.FindPack(packID) == nil {
		return nil, domain.ErrPackNotFound
	}
	return s.providers.ValidateDestinationAccount(ctx, game.APIProvider, topup.ValidateRequest{
		GameCode:  game.APIGameID,
		ProductID: packID,
		UserID:    dest.UserID,
		ServerID:  dest.ServerID,
	})
}
