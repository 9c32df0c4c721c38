package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/topup/infra/eventbus"
	"github.com/amirasaad/topup/internal/fixtures/mocks"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/order"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/amirasaad/topup/pkg/provider/topup"
	ordersvc "github.com/amirasaad/topup/pkg/service/order"
	paymentsvc "github.com/amirasaad/topup/pkg/service/payment"
	walletsvc "github.com/amirasaad/topup/pkg/service/wallet"
	"github.com/amirasaad/topup/pkg/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *config.Reconcile {
	return &config.Reconcile{Enabled: true, Spec: "@every 1m", PendingAge: 2 * time.Minute, BatchSize: 50}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	uow, db := testutils.NewTestUoW(t)
	bus := eventbus.NewWithMemory(testutils.Discard)
	gateway := mocks.NewMockGateway(t)
	provider := mocks.NewMockTopupClient(t, "smileone", false)
	ledger := walletsvc.New(uow, gateway, bus, &config.Wallet{MinDepositPaise: 100}, testutils.Discard)
	orders := ordersvc.New(uow, ledger, topup.NewRegistry(testutils.Discard, provider), bus, nil, testutils.Discard)
	payments := paymentsvc.New(uow, gateway, ledger, orders, testutils.Discard)
	game := testutils.SeedGame(t, db, "smileone")
	u := testutils.SeedUser(t, db, user.RoleUser, 0)

	// a gateway order whose webhook never arrived
	gateway.On("InitiateCheckout", mock.Anything, domain.Paise(30000), mock.Anything).
		Return(&payment.Checkout{MerchantOrderID: "TXN_R1", CheckoutURL: "https://pay.example/1"}, nil).Once()
	res, err := orders.CreateOrder(ctx, ordersvc.CreateRequest{
		UserID:      u.ID,
		Role:        u.Role,
		GameID:      game.ID,
		PackID:      "86",
		Destination: order.Destination{UserID: "12345678", ServerID: "2001"},
		Method:      order.PaymentGateway,
		Amount:      30000,
		Provider:    "smileone",
	})
	require.NoError(t, err)

	// a wallet deposit
	gateway.On("InitiateCheckout", mock.Anything, domain.Paise(5000), mock.Anything).
		Return(&payment.Checkout{MerchantOrderID: "TXN_R2", CheckoutURL: "https://pay.example/2"}, nil).Once()
	dep, err := ledger.InitiateDeposit(ctx, u.ID, 5000, false)
	require.NoError(t, err)

	// a settled deposit with a pending reversal
	gateway.On("InitiateCheckout", mock.Anything, domain.Paise(8000), mock.Anything).
		Return(&payment.Checkout{MerchantOrderID: "TXN_R3", CheckoutURL: "https://pay.example/3"}, nil).Once()
	paid, err := ledger.InitiateDeposit(ctx, u.ID, 8000, false)
	require.NoError(t, err)
	_, _, err = ledger.SettleDeposit(ctx, paid.Transaction.ID, payment.StateSuccess, nil)
	require.NoError(t, err)
	gateway.On("InitiateRefund", mock.Anything, "TXN_R3", domain.Paise(8000)).
		Return(&payment.Refund{RefundID: "REF_R3", State: payment.StatePending}, nil).Once()
	rev, err := ledger.RefundDeposit(ctx, paid.Transaction.ID, 8000, "duplicate payment", uuid.New())
	require.NoError(t, err)

	gateway.On("CheckStatus", mock.Anything, "TXN_R1").
		Return(&payment.StatusResult{State: payment.StateSuccess}, nil).Once()
	gateway.On("CheckStatus", mock.Anything, "TXN_R2").
		Return(&payment.StatusResult{State: payment.StateSuccess}, nil).Once()
	gateway.On("CheckRefundStatus", mock.Anything, "REF_R3").
		Return(&payment.StatusResult{State: payment.StateSuccess}, nil).Once()
	provider.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(&topup.Result{Success: true, ExternalOrderID: "EXT_R1"}, nil).Once()
	provider.On("GetOrderStatus", mock.Anything, "EXT_R1", mock.Anything).
		Return(&topup.Status{State: topup.StateSuccess}, nil).Once()

	svc := New(uow, orders, payments, defaultConfig(), testutils.Discard)
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	report := svc.Sweep(ctx)
	assert.Equal(t, Report{AwaitingPayment: 1, Deposits: 1, Refunds: 1, Processing: 1}, report)

	st, err := orders.GetOrderStatus(ctx, res.Order.ID, uuid.Nil, true)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, st.Order.Status)

	got, err := ledger.GetTransaction(ctx, dep.Transaction.ID, u.ID, false)
	require.NoError(t, err)
	assert.Equal(t, wallet.StatusSuccess, got.Status)

	got, err = ledger.GetTransaction(ctx, rev.ID, u.ID, false)
	require.NoError(t, err)
	assert.Equal(t, wallet.StatusSuccess, got.Status)

	assert.Equal(t, domain.Paise(5000), testutils.StoredBalance(t, db, u.ID))
	assert.Equal(t, testutils.StoredBalance(t, db, u.ID), testutils.LedgerBalance(t, db, u.ID))

	// nothing is left to reconcile
	assert.Equal(t, Report{}, svc.Sweep(ctx))
}

func TestSweep_RecentWorkIsLeftAlone(t *testing.T) {
	ctx := context.Background()
	uow, db := testutils.NewTestUoW(t)
	bus := eventbus.NewWithMemory(testutils.Discard)
	gateway := mocks.NewMockGateway(t)
	ledger := walletsvc.New(uow, gateway, bus, &config.Wallet{MinDepositPaise: 100}, testutils.Discard)
	orders := ordersvc.New(uow, ledger, topup.NewRegistry(testutils.Discard), bus, nil, testutils.Discard)
	payments := paymentsvc.New(uow, gateway, ledger, orders, testutils.Discard)
	u := testutils.SeedUser(t, db, user.RoleUser, 0)

	gateway.On("InitiateCheckout", mock.Anything, domain.Paise(5000), mock.Anything).
		Return(&payment.Checkout{MerchantOrderID: "TXN_NEW", CheckoutURL: "https://pay.example"}, nil).Once()
	_, err := ledger.InitiateDeposit(ctx, u.ID, 5000, false)
	require.NoError(t, err)

	svc := New(uow, orders, payments, defaultConfig(), testutils.Discard)
	assert.Equal(t, Report{}, svc.Sweep(ctx))
	gateway.AssertNotCalled(t, "CheckStatus", mock.Anything, mock.Anything)
}

func TestSweep_GatewayErrorsAreCounted(t *testing.T) {
	ctx := context.Background()
	uow, db := testutils.NewTestUoW(t)
	bus := eventbus.NewWithMemory(testutils.Discard)
	gateway := mocks.NewMockGateway(t)
	ledger := walletsvc.New(uow, gateway, bus, &config.Wallet{MinDepositPaise: 100}, testutils.Discard)
	orders := ordersvc.New(uow, ledger, topup.NewRegistry(testutils.Discard), bus, nil, testutils.Discard)
	payments := paymentsvc.New(uow, gateway, ledger, orders, testutils.Discard)
	u := testutils.SeedUser(t, db, user.RoleUser, 0)

	gateway.On("InitiateCheckout", mock.Anything, domain.Paise(5000), mock.Anything).
		Return(&payment.Checkout{MerchantOrderID: "TXN_DOWN", CheckoutURL: "https://pay.example"}, nil).Once()
	dep, err := ledger.InitiateDeposit(ctx, u.ID, 5000, false)
	require.NoError(t, err)
	gateway.On("CheckStatus", mock.Anything, "TXN_DOWN").Return(nil, domain.ErrGateway).Once()

	svc := New(uow, orders, payments, defaultConfig(), testutils.Discard)
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	assert.Equal(t, Report{Deposits: 1, Errors: 1}, svc.Sweep(ctx))
	got, err := ledger.GetTransaction(ctx, dep.Transaction.ID, u.ID, false)
	require.NoError(t, err)
	assert.Equal(t, wallet.StatusPending, got.Status)
}

func TestSweep_ReportsStrandedPaidOrders(t *testing.T) {
	ctx := context.Background()
	uow, db := testutils.NewTestUoW(t)
	game := testutils.SeedGame(t, db, "smileone")
	u := testutils.SeedUser(t, db, user.RoleUser, 0)

	o := order.New(u.ID, game.ID,
		order.PackSnapshot{PackID: "86", Price: 30000, CostPrice: 25000},
		order.Destination{UserID: "12345678", ServerID: "2001"},
		order.PaymentInfo{Method: order.PaymentWallet, Amount: 30000, Charged: true},
		"smileone",
	)
	o.Status = order.StatusPaid
	repo, err := uow.OrderRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, o))

	svc := New(uow, nil, nil, defaultConfig(), testutils.Discard)
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	assert.Equal(t, Report{Stranded: 1}, svc.Sweep(ctx))

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, got.Status)
}

func TestStart(t *testing.T) {
	uow, _ := testutils.NewTestUoW(t)

	cfg := defaultConfig()
	cfg.Spec = "not a schedule"
	svc := New(uow, nil, nil, cfg, testutils.Discard)
	require.Error(t, svc.Start(context.Background()))

	cfg = defaultConfig()
	cfg.Enabled = false
	svc = New(uow, nil, nil, cfg, testutils.Discard)
	require.NoError(t, svc.Start(context.Background()))
	assert.Empty(t, svc.cron.Entries())
	svc.Stop()

	svc = New(uow, nil, nil, defaultConfig(), testutils.Discard)
	require.NoError(t, svc.Start(context.Background()))
	assert.Len(t, svc.cron.Entries(), 1)
	svc.Stop()
}
