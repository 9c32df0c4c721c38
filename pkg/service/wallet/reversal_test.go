package wallet_test

import (
	"context"
	"testing"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/user"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	"github.com/amirasaad/topup/pkg/provider/payment"
	walletsvc "github.com/amirasaad/topup/pkg/service/wallet"
	"github.com/amirasaad/topup/pkg/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// paidDeposit runs a gateway deposit of amount through to SUCCESS.
func paidDeposit(t *testing.T, f *fixture, userID uuid.UUID, amount domain.Paise, ref string) *wallet.Transaction {
	t.Helper()
	ctx := context.Background()
	f.gateway.On("InitiateCheckout", mock.Anything, amount, mock.Anything).
		Return(&payment.Checkout{MerchantOrderID: ref, CheckoutURL: "https://pay.example"}, nil).Once()
	res, err := f.svc.InitiateDeposit(ctx, userID, amount, false)
	require.NoError(t, err)
	txn, changed, err := f.svc.SettleDeposit(ctx, res.Transaction.ID, payment.StateSuccess, nil)
	require.NoError(t, err)
	require.True(t, changed)
	return txn
}

func TestRefundDeposit_PendingThenSettled(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := seedPlayer(t, f)
	admin := uuid.New()
	deposit := paidDeposit(t, f, u, 10000, "TXN_10_MERCHANT")

	f.gateway.On("InitiateRefund", mock.Anything, "TXN_10_MERCHANT", domain.Paise(4000)).
		Return(&payment.Refund{RefundID: "REF_10_A", State: payment.StatePending}, nil).Once()

	rev, err := f.svc.RefundDeposit(ctx, deposit.ID, 4000, "customer request", admin)
	require.NoError(t, err)
	assert.Equal(t, wallet.KindDebit, rev.Kind)
	assert.Equal(t, wallet.StatusPending, rev.Status)
	assert.Equal(t, deposit.ID, rev.ReversalOf)
	assert.Equal(t, "REF_10_A", rev.ExternalRef)
	assert.Equal(t, deposit.ID, rev.Metadata[wallet.MetaOriginalTxnID])

	bal, err := f.svc.GetBalance(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, domain.Paise(10000), bal.Balance)
	assert.Equal(t, domain.Paise(4000), bal.Held)
	assert.Equal(t, domain.Paise(6000), bal.Available)

	// held funds cannot be spent
	_, err = f.svc.Spend(ctx, u, 7000, "ORD-X", "pack")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	settled, changed, err := f.svc.SettleReversal(ctx, rev.ID, payment.StateSuccess, nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, wallet.StatusSuccess, settled.Status)
	assert.Equal(t, domain.Paise(6000), settled.BalanceAfterTransaction)

	_, changed, err = f.svc.SettleReversal(ctx, rev.ID, payment.StateSuccess, nil)
	require.NoError(t, err)
	assert.False(t, changed)

	bal, err = f.svc.GetBalance(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, &walletsvc.Balance{Balance: 6000, Held: 0, Available: 6000}, bal)
	f.assertBalanced(t, u)
}

func TestRefundDeposit_CappedAtDepositAmount(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := seedPlayer(t, f)
	deposit := paidDeposit(t, f, u, 10000, "TXN_11_MERCHANT")

	f.gateway.On("InitiateRefund", mock.Anything, "TXN_11_MERCHANT", domain.Paise(6000)).
		Return(&payment.Refund{RefundID: "REF_11_A", State: payment.StateSuccess}, nil).Once()
	rev, err := f.svc.RefundDeposit(ctx, deposit.ID, 6000, "", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, wallet.StatusSuccess, rev.Status, "an immediately completed refund settles at once")

	_, err = f.svc.RefundDeposit(ctx, deposit.ID, 4001, "", uuid.New())
	require.ErrorIs(t, err, domain.ErrRefundExceedsPaid)

	_, err = f.svc.RefundDeposit(ctx, deposit.ID, 0, "", uuid.New())
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	f.assertBalanced(t, u)
}

func TestRefundDeposit_NeedsAvailableFunds(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := seedPlayer(t, f)
	deposit := paidDeposit(t, f, u, 10000, "TXN_12_MERCHANT")
	_, err := f.svc.Spend(ctx, u, 8000, "ORD-1", "pack")
	require.NoError(t, err)

	_, err = f.svc.RefundDeposit(ctx, deposit.ID, 5000, "", uuid.New())
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestRefundDeposit_GatewayFailureFailsReversal(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := seedPlayer(t, f)
	deposit := paidDeposit(t, f, u, 10000, "TXN_13_MERCHANT")
	f.gateway.On("InitiateRefund", mock.Anything, "TXN_13_MERCHANT", domain.Paise(1000)).
		Return(nil, domain.ErrGateway).Once()

	_, err := f.svc.RefundDeposit(ctx, deposit.ID, 1000, "", uuid.New())
	require.ErrorIs(t, err, domain.ErrGateway)

	bal, err := f.svc.GetBalance(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, domain.Paise(0), bal.Held, "a failed reversal releases its hold")
	assert.Equal(t, domain.Paise(10000), bal.Available)
}

func TestRefundDeposit_RejectsNonGatewayEntries(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	u := seedPlayer(t, f)

	stub, err := f.svc.InitiateDeposit(ctx, u, 1000, true)
	require.NoError(t, err)
	_, err = f.svc.RefundDeposit(ctx, stub.Transaction.ID, 500, "", uuid.New())
	require.ErrorIs(t, err, domain.ErrValidation)

	debit, err := f.svc.Spend(ctx, u, 100, "", "pack")
	require.NoError(t, err)
	_, err = f.svc.RefundDeposit(ctx, debit.ID, 100, "", uuid.New())
	require.ErrorIs(t, err, domain.ErrValidation)

	f.gateway.On("InitiateCheckout", mock.Anything, domain.Paise(2000), mock.Anything).
		Return(&payment.Checkout{MerchantOrderID: "TXN_14_MERCHANT", CheckoutURL: "https://pay.example"}, nil).Once()
	pending, err := f.svc.InitiateDeposit(ctx, u, 2000, false)
	require.NoError(t, err)
	_, err = f.svc.RefundDeposit(ctx, pending.Transaction.ID, 100, "", uuid.New())
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func seedPlayer(t *testing.T, f *fixture) uuid.UUID {
	t.Helper()
	return testutils.SeedUser(t, f.db, user.RoleUser, 0).ID
}
