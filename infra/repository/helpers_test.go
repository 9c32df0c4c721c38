package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/catalog"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testContext stands in for testing.T.Context (Go 1.24): the context is
// canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func newTestDB(t *testing.T) *gorm.DB {
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
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, balance domain.Paise) *user.User {
	t.Helper()
	u, err := user.New("Test User", uuid.NewString()[:8]+"@example.com", "secret", user.RoleUser)
	require.NoError(t, err)
	u.WalletBalance = balance
	require.NoError(t, db.Create(userToModel(u)).Error)
	return u
}

func seedGame(t *testing.T, db *gorm.DB) *catalog.Game {
	t.Helper()
	now := time.Now().UTC()
	g := &catalog.Game{
		ID:          uuid.New(),
		Name:        "Mobile Legends",
		APIProvider: "smileone",
		APIGameID:   "mobilelegends",
		Region:      "IN",
		IsActive:    true,
		Packs: []catalog.Pack{
			{PackID: "86", Name: "86 Diamonds", Amount: 86, RetailPrice: 12000, ResellerPrice: 11000, CostPrice: 10000, IsActive: true},
			{PackID: "172", Name: "172 Diamonds", Amount: 172, RetailPrice: 24000, CostPrice: 20000, IsActive: false},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, NewCatalogRepository(db).CreateGame(testContext(t), g))
	return g
}

func newTestOrder(userID, gameID uuid.UUID, price domain.Paise) *order.Order {
	return order.New(
		userID, gameID,
		order.PackSnapshot{PackID: "86", Name: "86 Diamonds", Amount: 86, Price: price, CostPrice: price - 1000},
		order.Destination{UserID: "12345", ServerID: "678"},
		order.PaymentInfo{Method: order.PaymentWallet, Amount: price},
		"smileone",
	)
}
