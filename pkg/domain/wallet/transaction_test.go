package wallet

import (
	"regexp"
	"testing"
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionID(t *testing.T) {
	id := NewTransactionID(time.UnixMilli(1700000000123))
	assert.Regexp(t, regexp.MustCompile(`^TXN_1700000000123_[A-Z0-9]{9}$`), id)
}

func TestNew(t *testing.T) {
	_, err := New(uuid.New(), KindDebit, StatusSuccess, 0, "zero")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	require.ErrorIs(t, err, domain.ErrValidation)

	txn, err := New(uuid.New(), KindDeposit, StatusPending, 500, "deposit")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, txn.Status)
	assert.NotNil(t, txn.Metadata)
}

func TestBalance(t *testing.T) {
	uid := uuid.New()
	mk := func(k Kind, s Status, amt domain.Paise) *Transaction {
		return &Transaction{UserID: uid, Kind: k, Status: s, Amount: amt}
	}
	entries := []*Transaction{
		mk(KindDeposit, StatusSuccess, 50000),
		mk(KindDebit, StatusSuccess, 30000),
		mk(KindRefund, StatusSuccess, 30000),
		mk(KindCredit, StatusSuccess, 1000),
		mk(KindDeposit, StatusPending, 99999),
		mk(KindDebit, StatusFailed, 77777),
	}
	assert.Equal(t, domain.Paise(51000), Balance(entries))
}

func TestTransaction_Annotate(t *testing.T) {
	txn := &Transaction{}
	assert.False(t, txn.IsReversal())
	txn.Annotate(map[string]any{MetaError: "boom"})
	txn.Annotate(map[string]any{MetaFailedAt: "now"})
	assert.Equal(t, "boom", txn.Metadata[MetaError])
	assert.Len(t, txn.Metadata, 2)

	txn.ReversalOf = "TXN_1_ABCDEFGHI"
	assert.True(t, txn.IsReversal())
}

func TestTransaction_IsLateCapture(t *testing.T) {
	txn := &Transaction{}
	assert.False(t, txn.IsLateCapture())
	txn.Annotate(map[string]any{MetaLateCapture: "yes"})
	assert.False(t, txn.IsLateCapture())
	txn.Annotate(map[string]any{MetaLateCapture: true})
	assert.True(t, txn.IsLateCapture())
}
