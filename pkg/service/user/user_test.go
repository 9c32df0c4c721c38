package user_test

import (
	"context"
	"testing"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/user"
	usersvc "github.com/amirasaad/topup/pkg/service/user"
	"github.com/amirasaad/topup/pkg/testutils"
	"github.com/amirasaad/topup/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	uow, _ := testutils.NewTestUoW(t)
	svc := usersvc.New(uow, testutils.Discard)

	u, err := svc.CreateUser(ctx, " Rina ", "Rina@Example.com", "hunter2hunter2", user.RoleReseller)
	require.NoError(t, err)
	assert.Equal(t, "Rina", u.Name)
	assert.Equal(t, "rina@example.com", u.Email)
	assert.Equal(t, user.RoleReseller, u.Role)
	assert.Equal(t, domain.Paise(0), u.WalletBalance)
	assert.True(t, utils.CheckPasswordHash("hunter2hunter2", u.Password))

	got, err := svc.GetByEmail(ctx, "RINA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
}

func TestCreateUser_DefaultsToUserRole(t *testing.T) {
	uow, _ := testutils.NewTestUoW(t)
	svc := usersvc.New(uow, testutils.Discard)

	u, err := svc.CreateUser(context.Background(), "Dev", "dev@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, u.Role)
}

func TestCreateUser_Rejects(t *testing.T) {
	ctx := context.Background()
	uow, _ := testutils.NewTestUoW(t)
	svc := usersvc.New(uow, testutils.Discard)
	_, err := svc.CreateUser(ctx, "Taken", "taken@example.com", "password123", user.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		role     user.Role
		want     error
	}{
		{"short password", "A", "a@example.com", "short", user.RoleUser, domain.ErrValidation},
		{"bad email", "A", "not-an-email", "password123", user.RoleUser, domain.ErrValidation},
		{"empty name", "  ", "b@example.com", "password123", user.RoleUser, domain.ErrValidation},
		{"unknown role", "A", "c@example.com", "password123", user.Role("owner"), domain.ErrValidation},
		{"duplicate email", "B", "TAKEN@example.com", "password123", user.RoleUser, domain.ErrAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tt.userName, tt.email, tt.password, tt.role)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetUser_NotFound(t *testing.T) {
	uow, _ := testutils.NewTestUoW(t)
	svc := usersvc.New(uow, testutils.Discard)

	_, err := svc.GetUser(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
