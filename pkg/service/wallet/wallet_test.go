package wallet_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/amirasaad/topup/infra/eventbus"
	"github.com/amirasaad/topup/internal/fixtures/mocks"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/events"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/amirasaad/topup/pkg/provider/payment"
	walletsvc "github.com/amirasaad/topup/pkg/service/wallet"
	"github.com/amirasaad/topup/pkg/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc     *walletsvc.Service
	db      *gorm.DB
	gateway *mocks.MockGateway
	bus     *eventbus.MemoryEventBus
}

func setup(t *testing.T, cfg *config.Wallet) *fixture {
	t.Helper()
	uow, db := testutils.NewTestUoW(t)
	gw := mocks.NewMockGateway(t)
	bus := eventbus.NewWithMemory(testutils.Discard)
	if cfg == nil {
		cfg = &config.Wallet{MinDepositPaise: 100, AllowStubDeposits: true}
	}
	return &fixture{
		svc:     walletsvc.New(uow, gw, bus, cfg, testutils.Discard),
		db:      db,
		gateway: gw,
		bus:     bus,
	}
}

func (f *fixture) assertBalanced(t *testing.T, userID uuid.UUID) {
	t.Helper()
	assert.Equal(t, testutils.StoredBalance(t, f.db, userID), testutils.LedgerBalance(t, f.db, userID),
		"stored balance must equal the sum of SUCCESS ledger entries")
}

func TestSpend(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := testutils.SeedUser(t, f.db, user.RoleUser, 50000)

	txn, err := f.svc.Spend(ctx, u.ID, 30000, "ORD-1", "86 Diamonds")
	require.NoError(t, err)
	assert.Equal(t, wallet.KindDebit, txn.Kind)
	assert.Equal(t, wallet.StatusSuccess, txn.Status)
	assert.Equal(t, domain.Paise(20000), txn.BalanceAfterTransaction)
	assert.Equal(t, "ORD-1", txn.RelatedOrderID)

	_, err = f.svc.Spend(ctx, u.ID, 30000, "ORD-2", "86 Diamonds")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.Equal(t, domain.Paise(20000), testutils.StoredBalance(t, f.db, u.ID))
	f.assertBalanced(t, u.ID)
}

func TestSpend_ConcurrentRequestsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := testutils.SeedUser(t, f.db, user.RoleUser, 50000)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		short     int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Spend(ctx, u.ID, 30000, uuid.NewString(), "86 Diamonds")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientBalance):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, short)
	assert.Equal(t, domain.Paise(20000), testutils.StoredBalance(t, f.db, u.ID))
	f.assertBalanced(t, u.ID)
}

func TestRefundAndCredit(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := testutils.SeedUser(t, f.db, user.RoleUser, 0)
	admin := testutils.SeedUser(t, f.db, user.RoleAdmin, 0)

	_, err := f.svc.Credit(ctx, u.ID, 1000, "", admin.ID)
	require.NoError(t, err)
	refund, err := f.svc.Refund(ctx, u.ID, 500, "ORD-9", "Refund for order ORD-9")
	require.NoError(t, err)
	assert.Equal(t, wallet.KindRefund, refund.Kind)
	assert.Equal(t, domain.Paise(1500), refund.BalanceAfterTransaction)

	bal, err := f.svc.GetBalance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, &walletsvc.Balance{Balance: 1500, Held: 0, Available: 1500}, bal)
	f.assertBalanced(t, u.ID)
}

func TestListAndGetTransaction(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := testutils.SeedUser(t, f.db, user.RoleUser, 10000)
	other := testutils.SeedUser(t, f.db, user.RoleUser, 0)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Spend(ctx, u.ID, 100, "", "spend")
		require.NoError(t, err)
	}

	page, total, err := f.svc.ListTransactions(ctx, u.ID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, page, 2)

	_, err = f.svc.GetTransaction(ctx, page[0].ID, other.ID, false)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	got, err := f.svc.GetTransaction(ctx, page[0].ID, other.ID, true)
	require.NoError(t, err)
	assert.Equal(t, page[0].ID, got.ID)
}

func TestPage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 20},
		{-3, 5, 1, 5},
		{2, 500, 2, 100},
	}
	for _, tt := range tests {
		p, l := walletsvc.Page(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantLimit, l)
	}
}

func TestInitiateDeposit_Stub(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := testutils.SeedUser(t, f.db, user.RoleUser, 0)

	_, err := f.svc.InitiateDeposit(ctx, u.ID, 99, true)
	require.ErrorIs(t, err, domain.ErrDepositTooSmall)

	res, err := f.svc.InitiateDeposit(ctx, u.ID, 5000, true)
	require.NoError(t, err)
	assert.True(t, res.Immediate)
	assert.Equal(t, wallet.StatusSuccess, res.Transaction.Status)
	assert.Equal(t, true, res.Transaction.Metadata[wallet.MetaIsStub])
	assert.Equal(t, domain.Paise(5000), testutils.StoredBalance(t, f.db, u.ID))

	published := f.bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventTypeDepositCompleted.String(), published[0].Type())
	f.assertBalanced(t, u.ID)
}

func TestInitiateDeposit_StubDisabled(t *testing.T) {
	f := setup(t, &config.Wallet{MinDepositPaise: 100})
	u := testutils.SeedUser(t, f.db, user.RoleUser, 0)

	_, err := f.svc.InitiateDeposit(context.Background(), u.ID, 5000, true)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "stub deposits are disabled")
}

func TestInitiateDeposit_GatewayThenSettle(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := testutils.SeedUser(t, f.db, user.RoleUser, 0)

	f.gateway.On("InitiateCheckout", mock.Anything, domain.Paise(50000), mock.AnythingOfType("string")).
		Return(&payment.Checkout{MerchantOrderID: "TXN_1_MERCHANT", CheckoutURL: "https://pay.example/c/1"}, nil).Once()

	res, err := f.svc.InitiateDeposit(ctx, u.ID, 50000, false)
	require.NoError(t, err)
	assert.False(t, res.Immediate)
	assert.Equal(t, "https://pay.example/c/1", res.CheckoutURL)
	assert.Equal(t, wallet.StatusPending, res.Transaction.Status)
	assert.Equal(t, "TXN_1_MERCHANT", res.Transaction.ExternalRef)
	assert.Equal(t, domain.Paise(0), testutils.StoredBalance(t, f.db, u.ID), "pending deposits do not move the balance")

	txn, changed, err := f.svc.SettleDeposit(ctx, res.Transaction.ID, payment.StateSuccess, map[string]any{"state": "COMPLETED"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, wallet.StatusSuccess, txn.Status)
	assert.Equal(t, domain.Paise(50000), txn.BalanceAfterTransaction)

	// a duplicate webhook, and a late failure verdict, change nothing
	_, changed, err = f.svc.SettleDeposit(ctx, res.Transaction.ID, payment.StateSuccess, nil)
	require.NoError(t, err)
	assert.False(t, changed)
	_, changed, err = f.svc.SettleDeposit(ctx, res.Transaction.ID, payment.StateFailed, nil)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, domain.Paise(50000), testutils.StoredBalance(t, f.db, u.ID))
	assert.Len(t, f.bus.Published(), 1)
	f.assertBalanced(t, u.ID)
}

func TestSettleDeposit_ConcurrentVerdictsApplyOnce(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := testutils.SeedUser(t, f.db, user.RoleUser, 0)
	f.gateway.On("InitiateCheckout", mock.Anything, domain.Paise(1000), mock.Anything).
		Return(&payment.Checkout{MerchantOrderID: "TXN_2_MERCHANT", CheckoutURL: "https://pay.example"}, nil).Once()
	res, err := f.svc.InitiateDeposit(ctx, u.ID, 1000, false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, changed, err := f.svc.SettleDeposit(ctx, res.Transaction.ID, payment.StateSuccess, nil)
			assert.NoError(t, err)
			if changed {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, applied)
	assert.Equal(t, domain.Paise(1000), testutils.StoredBalance(t, f.db, u.ID))
	f.assertBalanced(t, u.ID)
}

func TestInitiateDeposit_GatewayFailure(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := testutils.SeedUser(t, f.db, user.RoleUser, 0)
	f.gateway.On("InitiateCheckout", mock.Anything, domain.Paise(1000), mock.Anything).
		Return(nil, domain.ErrGateway).Once()

	_, err := f.svc.InitiateDeposit(ctx, u.ID, 1000, false)
	require.ErrorIs(t, err, domain.ErrGateway)

	list, _, err := f.svc.ListTransactions(ctx, u.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, wallet.StatusFailed, list[0].Status)
	assert.NotEmpty(t, list[0].Metadata[wallet.MetaError])
}

func TestSettleDeposit_Failed(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := testutils.SeedUser(t, f.db, user.RoleUser, 0)
	f.gateway.On("InitiateCheckout", mock.Anything, domain.Paise(1000), mock.Anything).
		Return(&payment.Checkout{MerchantOrderID: "TXN_3_MERCHANT", CheckoutURL: "https://pay.example"}, nil).Once()
	res, err := f.svc.InitiateDeposit(ctx, u.ID, 1000, false)
	require.NoError(t, err)

	txn, changed, err := f.svc.SettleDeposit(ctx, res.Transaction.ID, payment.StateFailed, nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, wallet.StatusFailed, txn.Status)
	assert.Equal(t, domain.Paise(0), testutils.StoredBalance(t, f.db, u.ID))
	require.Len(t, f.bus.Published(), 1)
	assert.Equal(t, events.EventTypeDepositFailed.String(), f.bus.Published()[0].Type())

	// pending and unknown verdicts leave the entry alone
	_, changed, err = f.svc.SettleDeposit(ctx, res.Transaction.ID, payment.StatePending, nil)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSettleDeposit_LateCaptureIsCredited(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := testutils.SeedUser(t, f.db, user.RoleUser, 0)
	f.gateway.On("InitiateCheckout", mock.Anything, domain.Paise(1500), mock.Anything).
		Return(&payment.Checkout{MerchantOrderID: "TXN_5_MERCHANT", CheckoutURL: "https://pay.example"}, nil).Once()
	res, err := f.svc.InitiateDeposit(ctx, u.ID, 1500, false)
	require.NoError(t, err)

	_, changed, err := f.svc.SettleDeposit(ctx, res.Transaction.ID, payment.StateFailed, nil)
	require.NoError(t, err)
	require.True(t, changed)

	txn, changed, err := f.svc.SettleDeposit(ctx, res.Transaction.ID, payment.StateSuccess, map[string]any{"state": "COMPLETED"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, wallet.StatusSuccess, txn.Status)
	assert.True(t, txn.IsLateCapture())
	assert.Equal(t, domain.Paise(1500), txn.BalanceAfterTransaction)
	assert.Equal(t, domain.Paise(1500), testutils.StoredBalance(t, f.db, u.ID))
	f.assertBalanced(t, u.ID)

	// a second success is a duplicate
	_, changed, err = f.svc.SettleDeposit(ctx, res.Transaction.ID, payment.StateSuccess, nil)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.Paise(1500), testutils.StoredBalance(t, f.db, u.ID))

	published := f.bus.Published()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventTypeDepositCompleted.String(), published[1].Type())
}
