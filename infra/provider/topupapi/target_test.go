package topupapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/provider/topup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTarget(t *testing.T, ctor func(*config.ProviderAPI, *slog.Logger) *TargetClient, handler http.HandlerFunc) *TargetClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return ctor(&config.ProviderAPI{BaseURL: srv.URL + "/", Key: "k-123", Timeout: 2 * time.Second}, discard)
}

func TestYokcash_SubmitOrder(t *testing.T) {
	c := newTarget(t, NewYokcash, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order", r.URL.Path)
		assert.Equal(t, "k-123", r.Header.Get("X-API-KEY"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "12345|678", body["target"])
		assert.Equal(t, "6281234", body["contact"])
		assert.Equal(t, "ORD-9", body["idtrx"])
		assert.Equal(t, "ML86", body["service_id"])
		_, _ = w.Write([]byte(`{"status":true,"msg":"Pesanan diproses","data":{"id":"YK-1"}}`))
	})
	assert.Equal(t, Yokcash, c.Name())
	assert.True(t, c.RequiresContact())

	res, err := c.SubmitOrder(context.Background(), topup.SubmitRequest{
		OrderID: "ORD-9", ProductID: "ML86", UserID: "12345", ServerID: "678", Contact: "6281234",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "YK-1", res.ExternalOrderID)
}

func TestHopestore_UsesApikeyHeader(t *testing.T) {
	c := newTarget(t, NewHopestore, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k-123", r.Header.Get("apikey"))
		assert.Empty(t, r.Header.Get("X-API-KEY"))
		_, _ = w.Write([]byte(`{"status":false,"msg":"Service not found"}`))
	})

	res, err := c.SubmitOrder(context.Background(), topup.SubmitRequest{OrderID: "ORD-10", UserID: "1"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Service not found", res.Reason)
}

func TestTarget_GetOrderStatus(t *testing.T) {
	tests := []struct {
		body string
		want topup.State
	}{
		{`{"status":true,"data":{"status":"Success"}}`, topup.StateSuccess},
		{`{"status":true,"data":{"status":"pending"}}`, topup.StatePending},
		{`{"status":true,"msg":"gagal","data":{"status":"error"}}`, topup.StateFailed},
		{`{"status":true,"data":{"status":"partial"}}`, topup.StateUnknown},
		{`{"status":false,"msg":"order not found"}`, topup.StateUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			c := newTarget(t, NewYokcash, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/status", r.URL.Path)
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "YK-1", body["id"])
				_, _ = w.Write([]byte(tt.body))
			})
			st, err := c.GetOrderStatus(context.Background(), "YK-1", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.State)
		})
	}
}

func TestTarget_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	c := NewYokcash(&config.ProviderAPI{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, discard)

	_, err := c.SubmitOrder(context.Background(), topup.SubmitRequest{OrderID: "ORD-11"})
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestTarget_ValidateAccount(t *testing.T) {
	c := newTarget(t, NewHopestore, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/validate", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"data":{"username":"Nick"}}`))
	})

	v, err := c.ValidateAccount(context.Background(), topup.ValidateRequest{GameCode: "ml", UserID: "1"})
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, "Nick", v.DisplayName)
}
