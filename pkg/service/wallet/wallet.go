// Package wallet implements the wallet ledger. Every balance change is a
// ledger entry and a balance update committed in one transaction, with the
// user row locked so concurrent postings for the same user serialize.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/amirasaad/topup/pkg/eventbus"
	"github.com/amirasaad/topup/pkg/metrics"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/amirasaad/topup/pkg/repository"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service is the wallet ledger.
type Service struct {
	uow     repository.UnitOfWork
	gateway payment.Gateway
	bus     eventbus.Bus
	cfg     *config.Wallet
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a ledger. gateway may be nil when only wallet-internal
// postings are needed.
func New(
	uow repository.UnitOfWork,
	gateway payment.Gateway,
	bus eventbus.Bus,
	cfg *config.Wallet,
	logger *slog.Logger,
) *Service {
	if cfg == nil {
		cfg = &config.Wallet{MinDepositPaise: 100}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		uow:     uow,
		gateway: gateway,
		bus:     bus,
		cfg:     cfg,
		logger:  logger.With("service", "wallet"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Balance is the wallet view returned to users. Held is the total of
// pending gateway reversals, which cannot be spent.
type Balance struct {
	Balance   domain.Paise `json:"balance"`
	Held      domain.Paise `json:"held"`
	Available domain.Paise `json:"available"`
}

// Posting describes one synchronous ledger movement.
type Posting struct {
	UserID      uuid.UUID
	Kind        wallet.Kind
	Amount      domain.Paise
	OrderRef    string
	Description string
	Metadata    map[string]any
}

// Spend debits amount for an order. It fails with
// domain.ErrInsufficientBalance when the available balance is short.
func (s *Service) Spend(
	ctx context.Context,
	userID uuid.UUID,
	amount domain.Paise,
	orderRef, description string,
) (txn *wallet.Transaction, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txn, err = s.SpendIn(ctx, uow, userID, amount, orderRef, description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// SpendIn is Spend inside the caller's unit of work.
func (s *Service) SpendIn(
	ctx context.Context,
	uow repository.UnitOfWork,
	userID uuid.UUID,
	amount domain.Paise,
	orderRef, description string,
) (*wallet.Transaction, error) {
	return s.PostIn(ctx, uow, Posting{
		UserID:      userID,
		Kind:        wallet.KindDebit,
		Amount:      amount,
		OrderRef:    orderRef,
		Description: description,
	})
}

// Refund credits amount back for an order. Refunds never check balance.
func (s *Service) Refund(
	ctx context.Context,
	userID uuid.UUID,
	amount domain.Paise,
	orderRef, description string,
) (txn *wallet.Transaction, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txn, err = s.RefundIn(ctx, uow, userID, amount, orderRef, description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// RefundIn is Refund inside the caller's unit of work.
func (s *Service) RefundIn(
	ctx context.Context,
	uow repository.UnitOfWork,
	userID uuid.UUID,
	amount domain.Paise,
	orderRef, description string,
) (*wallet.Transaction, error) {
	return s.PostIn(ctx, uow, Posting{
		UserID:      userID,
		Kind:        wallet.KindRefund,
		Amount:      amount,
		OrderRef:    orderRef,
		Description: description,
	})
}

// Credit is an admin top-up of a user's wallet.
func (s *Service) Credit(
	ctx context.Context,
	userID uuid.UUID,
	amount domain.Paise,
	reason string,
	adminID uuid.UUID,
) (txn *wallet.Transaction, err error) {
	if reason == "" {
		reason = "Admin credit"
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txn, err = s.PostIn(ctx, uow, Posting{
			UserID:      userID,
			Kind:        wallet.KindCredit,
			Amount:      amount,
			Description: reason,
			Metadata:    map[string]any{wallet.MetaCreditedBy: adminID.String()},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("✅ [SUCCESS] Wallet credited", "user_id", userID, "amount", amount, "admin_id", adminID)
	return txn, nil
}

// PostIn applies a SUCCESS posting: it locks the user, moves the balance
// and appends the entry with the resulting balance snapshot.
func (s *Service) PostIn(ctx context.Context, uow repository.UnitOfWork, p Posting) (*wallet.Transaction, error) {
	users, err := uow.UserRepository()
	if err != nil {
		return nil, err
	}
	ledger, err := uow.WalletRepository()
	if err != nil {
		return nil, err
	}
	txn, err := wallet.New(p.UserID, p.Kind, wallet.StatusSuccess, p.Amount, p.Description)
	if err != nil {
		return nil, err
	}
	txn.RelatedOrderID = p.OrderRef
	txn.Annotate(p.Metadata)

	u, err := users.GetForUpdate(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !p.Kind.Increases() {
		held, err := ledger.SumHeld(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		if available := u.WalletBalance - held; available < p.Amount {
			return nil, fmt.Errorf("%w: available %s, required %s", domain.ErrInsufficientBalance, available, p.Amount)
		}
	}
	balance, err := users.AdjustBalance(ctx, p.UserID, txn.Signed())
	if err != nil {
		return nil, err
	}
	txn.BalanceAfterTransaction = balance
	if err := ledger.Create(ctx, txn); err != nil {
		return nil, err
	}
	metrics.RecordWalletPosting(string(txn.Kind), string(txn.Status))
	return txn, nil
}

// GetBalance returns the stored balance and what is spendable.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*Balance, error) {
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	ledger, err := s.uow.WalletRepository()
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

// ListTransactions returns a page of the user's ledger, newest first.
// page starts at 1; limit is clamped to 1..100.
func (s *Service) ListTransactions(
	ctx context.Context,
	userID uuid.UUID,
	page, limit int,
) ([]*wallet.Transaction, int64, error) {
	page, limit = Page(page, limit)
	ledger, err := s.uow.WalletRepository()
	if err != nil {
		return nil, 0, err
	}
	return ledger.ListByUser(ctx, userID, (page-1)*limit, limit)
}

// GetTransaction returns an entry, enforcing ownership unless asAdmin.
func (s *Service) GetTransaction(
	ctx context.Context,
	txnID string,
	userID uuid.UUID,
	asAdmin bool,
) (*wallet.Transaction, error) {
	ledger, err := s.uow.WalletRepository()
	if err != nil {
		return nil, err
	}
	txn, err := ledger.Get(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if !asAdmin && txn.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return txn, nil
}

// Page normalises pagination input.
func Page(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	return page, limit
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, e); err != nil {
		s.logger.Warn("⚠️ [EVENT] Emit failed", "type", e.Type(), "error", err)
	}
}

func (s *Service) walletEvent(t events.EventType, txn *wallet.Transaction) events.WalletEvent {
	return events.WalletEvent{
		EventType:     t,
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		Amount:        txn.Amount,
		Balance:       txn.BalanceAfterTransaction,
		Timestamp:     s.now(),
	}
}

// isStale reports a lost compare-and-set race.
func isStale(err error) bool {
	return errors.Is(err, domain.ErrStaleState)
}
