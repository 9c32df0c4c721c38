package order

import (
	"context"
	"time"

	"github.com/amirasaad/topup/pkg/domain/leaderboard"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/google/uuid"
)

// Repository defines order persistence. Orders are never deleted.
type Repository interface {
	// Create inserts a new order.
	Create(ctx context.Context, o *order.Order) error

	// Get retrieves an order by its order ID.
	Get(ctx context.Context, id string) (*order.Order, error)

	// GetByPaymentRef retrieves the order paid through the given gateway
	// merchant order id.
	GetByPaymentRef(ctx context.Context, ref string) (*order.Order, error)

	// Update persists the order only while its stored status still equals
	// expected. A miss returns domain.ErrStaleState.
	Update(ctx context.Context, o *order.Order, expected order.Status) error

	// ListByUser returns a page of a user's orders, newest first, and the total.
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*order.Order, int64, error)

	// ListByStatus returns orders in status last updated before olderThan.
	ListByStatus(ctx context.Context, status order.Status, olderThan time.Time, limit int) ([]*order.Order, error)

	// Leaderboard aggregates completed orders created in [from, to] by user,
	// highest charged total first.
	Leaderboard(ctx context.Context, from, to time.Time, limit int) ([]leaderboard.Entry, error)
}
