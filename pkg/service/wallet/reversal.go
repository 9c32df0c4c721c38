package wallet

import (
	"context"
	"fmt"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/amirasaad/topup/pkg/metrics"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/amirasaad/topup/pkg/repository"
	"github.com/google/uuid"
)

// RefundDeposit sends part or all of a gateway-funded deposit back to the
// payer. The reversal is a PENDING DEBIT that holds the amount until the
// gateway reports the refund settled; only then does the balance drop.
func (s *Service) RefundDeposit(
	ctx context.Context,
	depositID string,
	amount domain.Paise,
	reason string,
	adminID uuid.UUID,
) (*wallet.Transaction, error) {
	log := s.logger.With("handler", "RefundDeposit", "deposit_id", depositID, "amount", amount)
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: no payment gateway configured", domain.ErrGateway)
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var deposit, reversal *wallet.Transaction
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		var err error
		deposit, err = s.lockedEntry(ctx, uow, depositID)
		if err != nil {
			return err
		}
		if err := refundable(deposit); err != nil {
			return err
		}
		ledger, err := uow.WalletRepository()
		if err != nil {
			return err
		}
		already, err := ledger.SumReversals(ctx, deposit.ID)
		if err != nil {
			return err
		}
		if already+amount > deposit.Amount {
			return fmt.Errorf("%w: %s already reversed of %s", domain.ErrRefundExceedsPaid, already, deposit.Amount)
		}
		bal, err := s.availableIn(ctx, uow, deposit.UserID)
		if err != nil {
			return err
		}
		if bal.Available < amount {
			return fmt.Errorf("%w: available %s, required %s", domain.ErrInsufficientBalance, bal.Available, amount)
		}

		if reason == "" {
			reason = "Gateway refund"
		}
		reversal, err = wallet.New(deposit.UserID, wallet.KindDebit, wallet.StatusPending, amount, reason)
		if err != nil {
			return err
		}
		reversal.ReversalOf = deposit.ID
		reversal.BalanceAfterTransaction = bal.Balance
		reversal.Annotate(map[string]any{
			wallet.MetaOriginalTxnID: deposit.ID,
			wallet.MetaReason:        reason,
			wallet.MetaInitiatedBy:   adminID.String(),
			wallet.MetaInitiatedAt:   s.now(),
		})
		return ledger.Create(ctx, reversal)
	})
	if err != nil {
		return nil, err
	}

	refund, gwErr := s.gateway.InitiateRefund(ctx, deposit.ExternalRef, amount)
	if gwErr != nil {
		log.Error("❌ [ERROR] Gateway refund initiation failed, retry manually", "reversal_id", reversal.ID, "error", gwErr)
		if _, _, err := s.SettleReversal(ctx, reversal.ID, payment.StateFailed, map[string]any{wallet.MetaError: gwErr.Error()}); err != nil {
			log.Error("❌ [ERROR] Could not mark reversal failed", "reversal_id", reversal.ID, "error", err)
		}
		return nil, fmt.Errorf("refund of %s: %w", deposit.ID, gwErr)
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		ledger, err := uow.WalletRepository()
		if err != nil {
			return err
		}
		reversal.ExternalRef = refund.RefundID
		reversal.Annotate(map[string]any{
			wallet.MetaRefundID:        refund.RefundID,
			wallet.MetaGatewayResponse: refund.Raw,
		})
		reversal.UpdatedAt = s.now()
		return ledger.Update(ctx, reversal, wallet.StatusPending)
	})
	if err != nil {
		return nil, err
	}
	log.Info("🟢 [START] Gateway refund initiated", "reversal_id", reversal.ID, "refund_id", refund.RefundID)

	if refund.State == payment.StateSuccess || refund.State == payment.StateFailed {
		settled, _, err := s.SettleReversal(ctx, reversal.ID, refund.State, refund.Raw)
		if err != nil {
			return nil, err
		}
		if settled != nil {
			reversal = settled
		}
	}
	return reversal, nil
}

func refundable(deposit *wallet.Transaction) error {
	switch {
	case deposit.Kind != wallet.KindDeposit || deposit.IsReversal():
		return fmt.Errorf("%w: %s is not a deposit", domain.ErrValidation, deposit.ID)
	case deposit.Status != wallet.StatusSuccess:
		return fmt.Errorf("%w: deposit %s is %s", domain.ErrInvalidState, deposit.ID, deposit.Status)
	case deposit.ExternalRef == "":
		return fmt.Errorf("%w: deposit %s was not paid through the gateway", domain.ErrValidation, deposit.ID)
	case deposit.RelatedOrderID != "":
		return fmt.Errorf("%w: deposit %s paid order %s, refund the order instead", domain.ErrValidation, deposit.ID, deposit.RelatedOrderID)
	}
	return nil
}

func (s *Service) availableIn(ctx context.Context, uow repository.UnitOfWork, userID uuid.UUID) (*Balance, error) {
	users, err := uow.UserRepository()
	if err != nil {
		return nil, err
	}
	ledger, err := uow.WalletRepository()
	if err != nil {
		return nil, err
	}
	u, err := users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	held, err := ledger.SumHeld(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Balance{Balance: u.WalletBalance, Held: held, Available: u.WalletBalance - held}, nil
}

// SettleReversal applies a refund verdict to a PENDING reversal with the
// same idempotency rules as SettleDeposit.
func (s *Service) SettleReversal(
	ctx context.Context,
	reversalID string,
	state payment.State,
	raw map[string]any,
) (txn *wallet.Transaction, changed bool, err error) {
	if state != payment.StateSuccess && state != payment.StateFailed {
		return nil, false, nil
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txn, err = s.lockedEntry(ctx, uow, reversalID)
		if err != nil {
			return err
		}
		if !txn.IsReversal() {
			return fmt.Errorf("%w: %s is not a reversal", domain.ErrInvalidState, reversalID)
		}
		if txn.Status != wallet.StatusPending {
			return nil
		}
		now := s.now()
		if state == payment.StateSuccess {
			users, err := uow.UserRepository()
			if err != nil {
				return err
			}
			balance, err := users.AdjustBalance(ctx, txn.UserID, -txn.Amount)
			if err != nil {
				return err
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
			return err
		}
		if err := ledger.Update(ctx, txn, wallet.StatusPending); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if isStale(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if changed {
		metrics.RecordWalletPosting(string(txn.Kind), string(txn.Status))
		s.logger.Info("✅ [SUCCESS] Reversal settled", "reversal_id", txn.ID, "status", txn.Status)
	}
	return txn, changed, nil
}
