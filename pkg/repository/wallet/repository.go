package wallet

import (
	"context"
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/google/uuid"
)

// Repository defines wallet ledger persistence.
type Repository interface {
	// Create appends a ledger entry.
	Create(ctx context.Context, txn *wallet.Transaction) error

	// Get retrieves an entry by transaction ID.
	Get(ctx context.Context, id string) (*wallet.Transaction, error)

	// GetByExternalRef retrieves the entry carrying a gateway reference
	// (merchant order id or refund id).
	GetByExternalRef(ctx context.Context, ref string) (*wallet.Transaction, error)

	// Update persists status, balance snapshot, external reference and
	// metadata, but only while the stored status still equals expected.
	// A miss returns domain.ErrStaleState.
	Update(ctx context.Context, txn *wallet.Transaction, expected wallet.Status) error

	// ListByUser returns a page of entries, newest first, and the total.
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*wallet.Transaction, int64, error)

	// ListByOrder returns all entries that reference orderID, oldest first.
	ListByOrder(ctx context.Context, orderID string) ([]*wallet.Transaction, error)

	// ListPending returns PENDING entries with a gateway reference created
	// before olderThan.
	ListPending(ctx context.Context, olderThan time.Time, limit int) ([]*wallet.Transaction, error)

	// SumHeld returns the total of PENDING reversals for a user. Those funds
	// are promised back to the gateway and cannot be spent.
	SumHeld(ctx context.Context, userID uuid.UUID) (domain.Paise, error)

	// SumReversals returns the total of PENDING and SUCCESS reversals of
	// the given deposit.
	SumReversals(ctx context.Context, depositID string) (domain.Paise, error)
}
