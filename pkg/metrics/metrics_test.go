package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOrderTransition(t *testing.T) {
	OrderTransitionsTotal.Reset()

	RecordOrderTransition("pending", "paid")
	RecordOrderTransition("pending", "paid")
	RecordOrderTransition("paid", "processing")

	assert.Equal(t, float64(2), testutil.ToFloat64(OrderTransitionsTotal.WithLabelValues("pending", "paid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(OrderTransitionsTotal.WithLabelValues("paid", "processing")))
}

func TestRecordWalletPosting(t *testing.T) {
	WalletPostingsTotal.Reset()

	RecordWalletPosting("DEBIT", "SUCCESS")

	assert.Equal(t, float64(1), testutil.ToFloat64(WalletPostingsTotal.WithLabelValues("DEBIT", "SUCCESS")))
}

func TestRecordGatewayWebhookAndProviderCall(t *testing.T) {
	GatewayWebhooksTotal.Reset()
	ProviderCallsTotal.Reset()

	RecordGatewayWebhook("unauthorized")
	RecordProviderCall("smileone", "success")
	RecordProviderCall("smileone", "transport_error")

	assert.Equal(t, float64(1), testutil.ToFloat64(GatewayWebhooksTotal.WithLabelValues("unauthorized")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ProviderCallsTotal.WithLabelValues("smileone", "transport_error")))
}

func TestRecordManualReconciliation(t *testing.T) {
	before := testutil.ToFloat64(ManualReconciliationsTotal)
	RecordManualReconciliation()
	assert.Equal(t, before+1, testutil.ToFloat64(ManualReconciliationsTotal))
}

func TestRecordReconcileSweep(t *testing.T) {
	ReconcileSweepsTotal.Reset()

	RecordReconcileSweep(0)
	RecordReconcileSweep(3)
	RecordReconcileSweep(0)

	assert.Equal(t, float64(2), testutil.ToFloat64(ReconcileSweepsTotal.WithLabelValues("clean")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ReconcileSweepsTotal.WithLabelValues("with_errors")))
}
