package wallet

import (
	"context"
	"fmt"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/amirasaad/topup/pkg/metrics"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/amirasaad/topup/pkg/repository"
	"github.com/google/uuid"
)

// DepositResult is either an immediately applied deposit or a pending one
// waiting on a hosted checkout.
type DepositResult struct {
	Transaction *wallet.Transaction `json:"transaction"`
	CheckoutURL string              `json:"checkoutUrl,omitempty"`
	Immediate   bool                `json:"immediate"`
}

// InitiateDeposit starts a wallet top-up. With stub set, and stub deposits
// enabled, the amount is credited at once; otherwise a PENDING deposit is
// recorded and a gateway checkout issued.
func (s *Service) InitiateDeposit(
	ctx context.Context,
	userID uuid.UUID,
	amount domain.Paise,
	stub bool,
) (*DepositResult, error) {
	log := s.logger.With("handler", "InitiateDeposit", "user_id", userID, "amount", amount)
	if amount < domain.Paise(s.cfg.MinDepositPaise) {
		return nil, fmt.Errorf("%w: minimum is %s", domain.ErrDepositTooSmall, domain.Paise(s.cfg.MinDepositPaise))
	}

	if stub {
		if !s.cfg.AllowStubDeposits {
			return nil, fmt.Errorf("%w: stub deposits are disabled", domain.ErrValidation)
		}
		var txn *wallet.Transaction
		err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			var err error
			txn, err = s.PostIn(ctx, uow, Posting{
				UserID:      userID,
				Kind:        wallet.KindDeposit,
				Amount:      amount,
				Description: "Wallet deposit",
				Metadata:    map[string]any{wallet.MetaIsStub: true},
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		log.Info("✅ [SUCCESS] Stub deposit applied", "transaction_id", txn.ID)
		s.emit(ctx, s.walletEvent(events.EventTypeDepositCompleted, txn))
		return &DepositResult{Transaction: txn, Immediate: true}, nil
	}

	txn, checkout, err := s.OpenCheckout(ctx, userID, amount, "", "Wallet deposit")
	if err != nil {
		return nil, err
	}
	log.Info("🟢 [START] Deposit checkout issued", "transaction_id", txn.ID, "merchant_order_id", checkout.MerchantOrderID)
	return &DepositResult{Transaction: txn, CheckoutURL: checkout.CheckoutURL}, nil
}

// OpenCheckout records a PENDING deposit and issues a gateway checkout for
// it. orderRef links the deposit to an order paid through the gateway.
// When the gateway call fails the deposit is marked FAILED and an
// ErrGateway is returned together with the failed entry.
func (s *Service) OpenCheckout(
	ctx context.Context,
	userID uuid.UUID,
	amount domain.Paise,
	orderRef, description string,
) (*wallet.Transaction, *payment.Checkout, error) {
	if s.gateway == nil {
		return nil, nil, fmt.Errorf("%w: no payment gateway configured", domain.ErrGateway)
	}
	txn, err := wallet.New(userID, wallet.KindDeposit, wallet.StatusPending, amount, description)
	if err != nil {
		return nil, nil, err
	}
	txn.RelatedOrderID = orderRef
	txn.Annotate(map[string]any{wallet.MetaInitiatedAt: s.now()})

	ledger, err := s.uow.WalletRepository()
	if err != nil {
		return nil, nil, err
	}
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, nil, err
	}
	if _, err := users.Get(ctx, userID); err != nil {
		return nil, nil, err
	}
	if err := ledger.Create(ctx, txn); err != nil {
		return nil, nil, err
	}

	checkout, gwErr := s.gateway.InitiateCheckout(ctx, amount, txn.ID)
	if gwErr != nil {
		txn.Status = wallet.StatusFailed
		txn.Annotate(map[string]any{wallet.MetaError: gwErr.Error(), wallet.MetaFailedAt: s.now()})
		txn.UpdatedAt = s.now()
		if err := ledger.Update(ctx, txn, wallet.StatusPending); err != nil {
			s.logger.Error("❌ [ERROR] Could not mark deposit failed", "transaction_id", txn.ID, "error", err)
		}
		metrics.RecordWalletPosting(string(txn.Kind), string(txn.Status))
		return txn, nil, fmt.Errorf("checkout for %s: %w", txn.ID, gwErr)
	}

	txn.ExternalRef = checkout.MerchantOrderID
	txn.Annotate(map[string]any{
		wallet.MetaMerchantOrderID: checkout.MerchantOrderID,
		wallet.MetaGatewayResponse: checkout.Raw,
	})
	txn.UpdatedAt = s.now()
	if err := ledger.Update(ctx, txn, wallet.StatusPending); err != nil {
		return nil, nil, err
	}
	metrics.RecordWalletPosting(string(txn.Kind), string(txn.Status))
	return txn, checkout, nil
}

// SettleDeposit applies a gateway verdict to a PENDING deposit. It is
// idempotent: an entry that already left PENDING, or a lost race against a
// concurrent settlement, reports changed=false and no error. The one
// exception is a success for a FAILED deposit: the gateway captured the
// money after all, so the deposit is credited and marked as a late capture.
func (s *Service) SettleDeposit(
	ctx context.Context,
	txnID string,
	state payment.State,
	raw map[string]any,
) (txn *wallet.Transaction, changed bool, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txn, changed, err = s.SettleDepositIn(ctx, uow, txnID, state, raw)
		return err
	})
	if isStale(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if changed && txn.RelatedOrderID == "" {
		switch txn.Status {
		case wallet.StatusSuccess:
			if txn.IsLateCapture() {
				s.logger.Warn("⚠️ [WARN] Gateway captured a deposit after it failed, crediting it",
					"transaction_id", txn.ID, "user_id", txn.UserID, "amount", txn.Amount)
			}
			s.logger.Info("✅ [SUCCESS] Deposit completed", "transaction_id", txn.ID, "balance", txn.BalanceAfterTransaction)
			s.emit(ctx, s.walletEvent(events.EventTypeDepositCompleted, txn))
		case wallet.StatusFailed:
			s.logger.Info("❌ [FAILED] Deposit failed", "transaction_id", txn.ID)
			s.emit(ctx, s.walletEvent(events.EventTypeDepositFailed, txn))
		}
	}
	return txn, changed, nil
}

// SettleDepositIn is SettleDeposit inside the caller's unit of work. A lost
// race surfaces as domain.ErrStaleState so the caller rolls back.
func (s *Service) SettleDepositIn(
	ctx context.Context,
	uow repository.UnitOfWork,
	txnID string,
	state payment.State,
	raw map[string]any,
) (*wallet.Transaction, bool, error) {
	if state != payment.StateSuccess && state != payment.StateFailed {
		return nil, false, nil
	}
	txn, err := s.lockedEntry(ctx, uow, txnID)
	if err != nil {
		return nil, false, err
	}
	if txn.Kind != wallet.KindDeposit || txn.IsReversal() {
		return nil, false, fmt.Errorf("%w: %s is not a deposit", domain.ErrInvalidState, txnID)
	}
	expected := txn.Status
	late := expected == wallet.StatusFailed && state == payment.StateSuccess
	if expected != wallet.StatusPending && !late {
		return txn, false, nil
	}

	now := s.now()
	if late {
		txn.Annotate(map[string]any{wallet.MetaLateCapture: true})
	}
	if state == payment.StateSuccess {
		users, err := uow.UserRepository()
		if err != nil {
			return nil, false, err
		}
		balance, err := users.AdjustBalance(ctx, txn.UserID, txn.Amount)
		if err != nil {
			return nil, false, err
		}
		txn.Status = wallet.StatusSuccess
		txn.BalanceAfterTransaction = balance
		txn.Annotate(map[string]any{wallet.MetaCompletedAt: now})
	} else {
		txn.Status = wallet.StatusFailed
		txn.Annotate(map[string]any{wallet.MetaFailedAt: now})
	}
	if raw != nil {
		txn.Annotate(map[string]any{wallet.MetaGatewayResponse: raw})
	}
	txn.UpdatedAt = now
	ledger, err := uow.WalletRepository()
	if err != nil {
		return nil, false, err
	}
	if err := ledger.Update(ctx, txn, expected); err != nil {
		return nil, false, err
	}
	metrics.RecordWalletPosting(string(txn.Kind), string(txn.Status))
	return txn, true, nil
}

// lockedEntry reads an entry after locking its owner's row, so concurrent
// settlements of the same entry observe each other's commits.
func (s *Service) lockedEntry(ctx context.Context, uow repository.UnitOfWork, txnID string) (*wallet.Transaction, error) {
	ledger, err := uow.WalletRepository()
	if err != nil {
		return nil, err
	}
	users, err := uow.UserRepository()
	if err != nil {
		return nil, err
	}
	txn, err := ledger.Get(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if _, err := users.GetForUpdate(ctx, txn.UserID); err != nil {
		return nil, err
	}
	return ledger.Get(ctx, txnID)
}
