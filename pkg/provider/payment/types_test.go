package payment

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMapPaymentState(t *testing.T) {
	assert.Equal(t, StateSuccess, MapPaymentState("COMPLETED"))
	assert.Equal(t, StateSuccess, MapPaymentState("checkout.order.completed"))
	assert.Equal(t, StateFailed, MapPaymentState("FAILED"))
	assert.Equal(t, StateFailed, MapPaymentState("checkout.order.failed"))
	assert.Equal(t, StatePending, MapPaymentState("PENDING"))
	assert.Equal(t, StateUnknown, MapPaymentState("EXPIRED?"))
}

func TestMapRefundState(t *testing.T) {
	assert.Equal(t, StateSuccess, MapRefundState("refund.completed"))
	assert.Equal(t, StateSuccess, MapRefundState("COMPLETED"))
	assert.Equal(t, StateFailed, MapRefundState("refund.failed"))
	assert.Equal(t, StatePending, MapRefundState("CONFIRMED"))
	assert.Equal(t, StateUnknown, MapRefundState(""))
}

func TestIsRefundEvent(t *testing.T) {
	assert.True(t, IsRefundEvent("pg.refund.completed"))
	assert.True(t, IsRefundEvent("REFUND.FAILED"))
	assert.False(t, IsRefundEvent("checkout.order.completed"))
}

func TestIDs(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	assert.Regexp(t, regexp.MustCompile(`^TXN_1700000000000_[A-Z0-9]{9}$`), NewMerchantOrderID(now))
	assert.Regexp(t, regexp.MustCompile(`^REF_1700000000000_[A-Z0-9]{9}$`), NewRefundID(now))
}
