// Package testutils holds fixtures shared by service and handler tests.
package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	infrarepo "github.com/amirasaad/topup/infra/repository"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/catalog"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPassword is the plain password of every seeded user.
const DefaultPassword = "password123"

// Discard is a logger that writes nowhere.
var Discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// NewTestDB opens a private in-memory sqlite database with the schema
// migrated. A single connection keeps every statement on the same database.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(infrarepo.Models()...))
	return db
}

// NewTestUoW returns a unit of work over a fresh test database.
func NewTestUoW(t testing.TB) (*infrarepo.UoW, *gorm.DB) {
	t.Helper()
	db := NewTestDB(t)
	return infrarepo.NewUoW(db), db
}

// SeedUser inserts a user with the given role and wallet balance. A
// non-zero balance is backed by a SUCCESS CREDIT so the ledger sums match.
func SeedUser(t testing.TB, db *gorm.DB, role user.Role, balance domain.Paise) *user.User {
	t.Helper()
	ctx := context.Background()
	u, err := user.New("Player "+uuid.NewString()[:4], uuid.NewString()[:8]+"@example.com", DefaultPassword, role)
	require.NoError(t, err)
	u.WalletBalance = balance
	require.NoError(t, infrarepo.NewUserRepository(db).Create(ctx, u))
	if balance > 0 {
		txn, err := wallet.New(u.ID, wallet.KindCredit, wallet.StatusSuccess, balance, "opening balance")
		require.NoError(t, err)
		txn.BalanceAfterTransaction = balance
		require.NoError(t, infrarepo.NewWalletRepository(db).Create(ctx, txn))
	}
	return u
}

// SeedGame inserts an active game fulfilled by provider with three packs:
//   - "86": active, retail 30000, reseller 28000, cost 25000
//   - "100": active, retail 100, cost 80
//   - "172": inactive
func SeedGame(t testing.TB, db *gorm.DB, provider string) *catalog.Game {
	t.Helper()
	now := time.Now().UTC()
	g := &catalog.Game{
		ID:          uuid.New(),
		Name:        "Mobile Legends",
		APIProvider: provider,
		APIGameID:   "mobilelegends",
		Region:      "IN",
		IsActive:    true,
		Packs: []catalog.Pack{
			{PackID: "86", Name: "86 Diamonds", Amount: 86, RetailPrice: 30000, ResellerPrice: 28000, CostPrice: 25000, IsActive: true},
			{PackID: "100", Name: "100 Diamonds", Amount: 100, RetailPrice: 100, CostPrice: 80, IsActive: true},
			{PackID: "172", Name: "172 Diamonds", Amount: 172, RetailPrice: 60000, CostPrice: 50000, IsActive: false},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, infrarepo.NewCatalogRepository(db).CreateGame(context.Background(), g))
	return g
}

// LedgerBalance recomputes a user's balance from the ledger table.
func LedgerBalance(t testing.TB, db *gorm.DB, userID uuid.UUID) domain.Paise {
	t.Helper()
	var entries []*wallet.Transaction
	var models []infrarepo.WalletTransaction
	require.NoError(t, db.Where("user_id = ?", userID).Find(&models).Error)
	for i := range models {
		m := models[i]
		entries = append(entries, &wallet.Transaction{
			Kind:   wallet.Kind(m.Kind),
			Status: wallet.Status(m.Status),
			Amount: domain.Paise(m.Amount),
		})
	}
	return wallet.Balance(entries)
}

// StoredBalance reads the denormalised balance from the users table.
func StoredBalance(t testing.TB, db *gorm.DB, userID uuid.UUID) domain.Paise {
	t.Helper()
	u, err := infrarepo.NewUserRepository(db).Get(context.Background(), userID)
	require.NoError(t, err)
	return u.WalletBalance
}
