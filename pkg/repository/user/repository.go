package user

import (
	"context"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/google/uuid"
)

// Repository defines user persistence. Balance changes go through
// AdjustBalance only.
type Repository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *user.User) error

	// Get retrieves a user by ID.
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*user.User, error)

	// GetForUpdate retrieves a user and locks the row until the surrounding
	// transaction ends. Outside a transaction it behaves like Get.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error)

	// AdjustBalance adds delta to the wallet balance and returns the new
	// balance. It fails with domain.ErrInsufficientBalance when the result
	// would be negative.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta domain.Paise) (domain.Paise, error)
}
