// Package payment routes gateway verdicts, whether pushed by webhook or
// pulled by polling, to the ledger entry or order they settle. Both paths
// end in the same compare-and-set transitions, so whichever observes the
// pending entry first wins and the other is a no-op.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/amirasaad/topup/pkg/metrics"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/amirasaad/topup/pkg/repository"
	ordersvc "github.com/amirasaad/topup/pkg/service/order"
	walletsvc "github.com/amirasaad/topup/pkg/service/wallet"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Outcome of applying one gateway verdict.
const (
	ResultApplied   = "applied"
	ResultDuplicate = "duplicate"
	ResultIgnored   = "ignored"
	ResultUnknown   = "unknown_reference"
	ResultRejected  = "rejected"
	ResultError     = "error"
)

// Service applies gateway verdicts.
type Service struct {
	uow     repository.UnitOfWork
	gateway payment.Gateway
	ledger  *walletsvc.Service
	orders  *ordersvc.Service
	logger  *slog.Logger
	sf      singleflight.Group
}

// New creates the payment router.
func New(
	uow repository.UnitOfWork,
	gateway payment.Gateway,
	ledger *walletsvc.Service,
	orders *ordersvc.Service,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		uow:     uow,
		gateway: gateway,
		ledger:  ledger,
		orders:  orders,
		logger:  logger.With("service", "payment"),
	}
}

// HandleWebhook authenticates and applies a gateway callback. It returns
// domain.ErrInvalidSignature for unauthenticated calls and a validation
// error for undecodable ones; everything else, including callbacks for
// unknown or already settled references, is acknowledged with a nil error.
func (s *Service) HandleWebhook(ctx context.Context, authHeader string, body []byte) error {
	log := s.logger.With("handler", "HandleWebhook")
	if s.gateway == nil {
		return fmt.Errorf("%w: no payment gateway configured", domain.ErrGateway)
	}
	ev, err := s.gateway.ParseWebhook(ctx, authHeader, body)
	if err != nil {
		log.Warn("❌ [ERROR] Webhook rejected", "error", err)
		metrics.RecordGatewayWebhook(ResultRejected)
		return err
	}
	log = log.With("event", ev.Event, "ref", ev.Ref, "state", ev.State)

	key := fmt.Sprintf("%s:%s:%s", ev.Kind, ev.Ref, ev.State)
	leader := false
	v, err, _ := s.sf.Do(key, func() (any, error) {
		leader = true
		return s.apply(ctx, ev.Kind, ev.Ref, ev.State, ev.Raw)
	})
	if err != nil {
		log.Error("❌ [ERROR] Webhook could not be applied", "error", err)
		metrics.RecordGatewayWebhook(ResultError)
		return err
	}
	result := v.(string)
	if !leader {
		// collapsed into an identical delivery in flight
		result = ResultDuplicate
	}
	metrics.RecordGatewayWebhook(result)
	switch result {
	case ResultApplied:
		log.Info("✅ [SUCCESS] Webhook applied")
	case ResultUnknown:
		log.Warn("⚠️ [WARN] Webhook for unknown reference acknowledged")
	default:
		log.Info("🔁 [SKIP] Webhook acknowledged without change", "result", result)
	}
	return nil
}

func (s *Service) apply(
	ctx context.Context,
	kind payment.WebhookKind,
	ref string,
	state payment.State,
	raw map[string]any,
) (string, error) {
	if state != payment.StateSuccess && state != payment.StateFailed {
		return ResultIgnored, nil
	}
	ledger, err := s.uow.WalletRepository()
	if err != nil {
		return "", err
	}
	txn, err := ledger.GetByExternalRef(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return ResultUnknown, nil
	}
	if err != nil {
		return "", err
	}

	var changed bool
	switch {
	case kind == payment.WebhookRefund:
		if !txn.IsReversal() {
			return "", fmt.Errorf("%w: refund callback for non-reversal %s", domain.ErrInvalidState, txn.ID)
		}
		_, changed, err = s.ledger.SettleReversal(ctx, txn.ID, state, raw)
	case txn.Kind != wallet.KindDeposit || txn.IsReversal():
		return "", fmt.Errorf("%w: payment callback for %s entry %s", domain.ErrInvalidState, txn.Kind, txn.ID)
	case txn.RelatedOrderID != "" && state == payment.StateSuccess:
		_, changed, err = s.orders.ConfirmPayment(ctx, txn.ID, raw)
	case txn.RelatedOrderID != "":
		_, changed, err = s.orders.FailPayment(ctx, txn.ID, raw)
	default:
		_, changed, err = s.ledger.SettleDeposit(ctx, txn.ID, state, raw)
	}
	if err != nil {
		return "", err
	}
	if !changed {
		return ResultDuplicate, nil
	}
	return ResultApplied, nil
}

// CheckDepositStatus polls the gateway for a pending deposit and applies
// a final answer. Users may only check their own deposits.
func (s *Service) CheckDepositStatus(
	ctx context.Context,
	txnID string,
	userID uuid.UUID,
	asAdmin bool,
) (*wallet.Transaction, error) {
	txn, err := s.ledger.GetTransaction(ctx, txnID, userID, asAdmin)
	if err != nil {
		return nil, err
	}
	if txn.Kind != wallet.KindDeposit || txn.IsReversal() {
		return nil, fmt.Errorf("%w: %s is not a deposit", domain.ErrValidation, txnID)
	}
	if txn.Status != wallet.StatusPending || txn.ExternalRef == "" {
		return txn, nil
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: no payment gateway configured", domain.ErrGateway)
	}
	st, err := s.gateway.CheckStatus(ctx, txn.ExternalRef)
	if err != nil {
		return nil, err
	}
	result, err := s.apply(ctx, payment.WebhookPayment, txn.ExternalRef, st.State, st.Raw)
	if err != nil {
		return nil, err
	}
	s.logger.Info("🔁 [POLL] Deposit status checked", "transaction_id", txn.ID, "state", st.State, "result", result)
	return s.ledger.GetTransaction(ctx, txnID, userID, true)
}

// CheckRefundStatus polls the gateway for a pending reversal.
func (s *Service) CheckRefundStatus(ctx context.Context, reversalID string) (*wallet.Transaction, error) {
	txn, err := s.ledger.GetTransaction(ctx, reversalID, uuid.Nil, true)
	if err != nil {
		return nil, err
	}
	if !txn.IsReversal() {
		return nil, fmt.Errorf("%w: %s is not a reversal", domain.ErrValidation, reversalID)
	}
	if txn.Status != wallet.StatusPending || txn.ExternalRef == "" {
		return txn, nil
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: no payment gateway configured", domain.ErrGateway)
	}
	st, err := s.gateway.CheckRefundStatus(ctx, txn.ExternalRef)
	if err != nil {
		return nil, err
	}
	result, err := s.apply(ctx, payment.WebhookRefund, txn.ExternalRef, st.State, st.Raw)
	if err != nil {
		return nil, err
	}
	s.logger.Info("🔁 [POLL] Refund status checked", "transaction_id", txn.ID, "state", st.State, "result", result)
	return s.ledger.GetTransaction(ctx, reversalID, uuid.Nil, true)
}

// CheckOrderPayment polls the gateway for an order awaiting payment.
func (s *Service) CheckOrderPayment(ctx context.Context, o *order.Order) error {
	if o.Status != order.StatusAwaitingPayment || o.Payment.TransactionRef == "" {
		return nil
	}
	ledger, err := s.uow.WalletRepository()
	if err != nil {
		return err
	}
	deposit, err := ledger.GetByExternalRef(ctx, o.Payment.TransactionRef)
	if err != nil {
		return err
	}
	_, err = s.CheckDepositStatus(ctx, deposit.ID, o.UserID, true)
	return err
}
