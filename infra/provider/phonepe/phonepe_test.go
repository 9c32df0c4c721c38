package phonepe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePhonePe struct {
	tokenCalls atomic.Int32
	expiresIn  int64
	mux        *http.ServeMux
}

func newFakePhonePe(t *testing.T) (*fakePhonePe, *httptest.Server) {
	t.Helper()
	f := &fakePhonePe{expiresIn: 3600, mux: http.NewServeMux()}
	f.mux.HandleFunc("/v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"expires_in":   f.expiresIn,
		})
	})
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func newGateway(srvURL string) *Gateway {
	return New(&config.PhonePe{
		BaseURL:          srvURL,
		AuthURL:          srvURL,
		ClientID:         "cid",
		ClientSecret:     "csecret",
		ClientVersion:    "1",
		CallbackUsername: "hook",
		CallbackPassword: "s3cret",
		RedirectURL:      "https://shop.example/return",
		ExpireAfter:      1200,
		HTTPTimeout:      2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestInitiateCheckout(t *testing.T) {
	f, srv := newFakePhonePe(t)
	f.mux.HandleFunc("/checkout/v2/pay", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "O-Bearer tok-1", r.Header.Get("Authorization"))
		var body checkoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(10000), body.Amount)
		assert.Equal(t, 1200, body.ExpireAfter)
		assert.Equal(t, "PG_CHECKOUT", body.PaymentFlow.Type)
		assert.True(t, strings.HasPrefix(body.MerchantOrderID, "TXN_"))
		assert.Contains(t, body.PaymentFlow.MerchantURLs.RedirectURL, "transactionId=ORD-1")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"orderId":     "OMO123",
			"state":       "PENDING",
			"redirectUrl": "https://pay.example/checkout/OMO123",
		})
	})
	g := newGateway(srv.URL)

	co, err := g.InitiateCheckout(context.Background(), 10000, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout/OMO123", co.CheckoutURL)
	assert.True(t, strings.HasPrefix(co.MerchantOrderID, "TXN_"))
}

func TestTokenIsCachedAndRefreshedNearExpiry(t *testing.T) {
	f, srv := newFakePhonePe(t)
	f.mux.HandleFunc("/checkout/v2/order/", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"state": "COMPLETED"})
	})
	g := newGateway(srv.URL)
	now := time.Unix(1700000000, 0)
	g.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		st, err := g.CheckStatus(context.Background(), "TXN_1")
		require.NoError(t, err)
		assert.Equal(t, payment.StateSuccess, st.State)
	}
	assert.Equal(t, int32(1), f.tokenCalls.Load())

	// Inside the five minute skew the token counts as expired.
	now = now.Add(3600*time.Second - tokenSkew)
	_, err := g.CheckStatus(context.Background(), "TXN_1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.tokenCalls.Load())
}

func TestTokenRefreshIsCollapsed(t *testing.T) {
	f, srv := newFakePhonePe(t)
	f.mux.HandleFunc("/checkout/v2/order/", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"state": "PENDING"})
	})
	g := newGateway(srv.URL)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.CheckStatus(context.Background(), "TXN_2")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, f.tokenCalls.Load(), int32(2))
}

func TestCheckStatus_HTTPError(t *testing.T) {
	f, srv := newFakePhonePe(t)
	f.mux.HandleFunc("/checkout/v2/order/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	g := newGateway(srv.URL)

	_, err := g.CheckStatus(context.Background(), "TXN_3")
	assert.ErrorIs(t, err, domain.ErrGateway)
}

func TestFetchToken_DecodesAnyContentType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(`{"access_token":"tok-plain","expires_at":1700003600}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	g := newGateway(srv.URL)
	g.now = func() time.Time { return time.Unix(1700000000, 0) }

	tok, err := g.accessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-plain", tok)
	assert.Equal(t, time.Unix(1700003600, 0), g.expiresAt)
}

func TestFetchToken_Rejected(t *testing.T) {
	for name, body := range map[string]string{
		"empty token": `{"access_token":""}`,
		"not json":    `<html>gateway down</html>`,
	} {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/v1/oauth/token", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			srv := httptest.NewServer(mux)
			t.Cleanup(srv.Close)

			_, err := newGateway(srv.URL).accessToken(context.Background())
			assert.ErrorIs(t, err, domain.ErrGateway)
		})
	}
}

func TestRefund(t *testing.T) {
	f, srv := newFakePhonePe(t)
	f.mux.HandleFunc("/payments/v2/refund", func(w http.ResponseWriter, r *http.Request) {
		var body refundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TXN_DEP", body.OriginalMerchantOrderID)
		assert.Equal(t, int64(2500), body.Amount)
		assert.True(t, strings.HasPrefix(body.MerchantRefundID, "REF_"))
		_ = json.NewEncoder(w).Encode(map[string]any{"refundId": "R1", "state": "PENDING"})
	})
	f.mux.HandleFunc("/payments/v2/refund/", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/status"))
		_ = json.NewEncoder(w).Encode(map[string]any{"state": "COMPLETED"})
	})
	g := newGateway(srv.URL)

	ref, err := g.InitiateRefund(context.Background(), "TXN_DEP", 2500)
	require.NoError(t, err)
	assert.Equal(t, payment.StatePending, ref.State)

	st, err := g.CheckRefundStatus(context.Background(), ref.RefundID)
	require.NoError(t, err)
	assert.Equal(t, payment.StateSuccess, st.State)
}

func TestParseWebhook(t *testing.T) {
	g := newGateway("http://unused")

	tests := []struct {
		name      string
		auth      string
		body      string
		wantErr   error
		wantKind  payment.WebhookKind
		wantRef   string
		wantState payment.State
	}{
		{
			name:    "wrong password",
			auth:    basic("hook", "nope"),
			body:    `{}`,
			wantErr: domain.ErrInvalidSignature,
		},
		{
			name:    "missing header",
			auth:    "",
			body:    `{}`,
			wantErr: domain.ErrInvalidSignature,
		},
		{
			name:    "bearer instead of basic",
			auth:    "Bearer abc",
			body:    `{}`,
			wantErr: domain.ErrInvalidSignature,
		},
		{
			name:    "malformed body",
			auth:    basic("hook", "s3cret"),
			body:    `{`,
			wantErr: domain.ErrValidation,
		},
		{
			name:      "payment completed",
			auth:      basic("hook", "s3cret"),
			body:      `{"event":"checkout.order.completed","payload":{"merchantOrderId":"TXN_1","state":"COMPLETED"}}`,
			wantKind:  payment.WebhookPayment,
			wantRef:   "TXN_1",
			wantState: payment.StateSuccess,
		},
		{
			name:      "payment failed by event only",
			auth:      basic("hook", "s3cret"),
			body:      `{"event":"checkout.order.failed","payload":{"merchantOrderId":"TXN_2"}}`,
			wantKind:  payment.WebhookPayment,
			wantRef:   "TXN_2",
			wantState: payment.StateFailed,
		},
		{
			name:      "refund completed",
			auth:      basic("hook", "s3cret"),
			body:      `{"event":"pg.refund.completed","payload":{"merchantRefundId":"REF_1","originalMerchantOrderId":"TXN_1","state":"COMPLETED"}}`,
			wantKind:  payment.WebhookRefund,
			wantRef:   "REF_1",
			wantState: payment.StateSuccess,
		},
		{
			name:    "no reference",
			auth:    basic("hook", "s3cret"),
			body:    `{"event":"checkout.order.completed","payload":{}}`,
			wantErr: domain.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := g.ParseWebhook(context.Background(), tt.auth, []byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, ev.Kind)
			assert.Equal(t, tt.wantRef, ev.Ref)
			assert.Equal(t, tt.wantState, ev.State)
		})
	}
}
