package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_CoversEveryType(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      any
	}{
		{EventTypeOrderCompleted, OrderEvent{}},
		{EventTypeOrderFailed, OrderEvent{}},
		{EventTypeOrderRefunded, OrderEvent{}},
		{EventTypeOrderReconciliationRequired, OrderEvent{}},
		{EventTypeDepositCompleted, WalletEvent{}},
		{EventTypeDepositFailed, WalletEvent{}},
	}
	for _, tt := range tests {
		t.Run(tt.eventType.String(), func(t *testing.T) {
			e, err := Decode(tt.eventType.String(), []byte(`{}`))
			require.NoError(t, err)
			assert.IsType(t, tt.want, e)
		})
	}
}

func TestDecode_RoundTripsOrderEvent(t *testing.T) {
	in := OrderEvent{EventType: EventTypeOrderFailed, OrderID: "ORD-1-ABCDEF", FailureReason: "timeout"}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := Decode(in.Type(), raw)
	require.NoError(t, err)
	decoded, ok := out.(OrderEvent)
	require.True(t, ok)
	assert.Equal(t, "ORD-1-ABCDEF", decoded.OrderID)
	assert.Equal(t, in.Type(), decoded.Type())
}

func TestDecode_Unknown(t *testing.T) {
	_, err := Decode("Account.Created", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEventType)

	_, err = Decode(EventTypeOrderFailed.String(), []byte(`{`))
	assert.Error(t, err)
}
