package user

import (
	"errors"
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/utils"
	"github.com/google/uuid"
)

// Role decides which price tier a user pays and which routes they may call.
type Role string

const (
	RoleUser     Role = "user"
	RoleReseller Role = "reseller"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleReseller, RoleAdmin:
		return true
	}
	return false
}

// User is the account that owns a wallet and places orders.
// WalletBalance is only ever changed through wallet ledger postings.
type User struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone,omitempty"`
	Password      string       `json:"-"`
	Role          Role         `json:"role"`
	WalletBalance domain.Paise `json:"walletBalance"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// New creates a user with a hashed password and a zero balance.
func New(name, email, password string, role Role) (*User, error) {
	if name == "" {
		return nil, errors.New("name cannot be empty")
	}
	if !utils.IsEmail(email) {
		return nil, errors.New("email is invalid")
	}
	if role == "" {
		role = RoleUser
	}
	if !role.Valid() {
		return nil, errors.New("role is invalid")
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Password:  hashed,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsAdmin reports whether the user may call admin operations.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
