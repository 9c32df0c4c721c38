// Package phonepe implements the payment gateway over PhonePe's standard
// checkout v2 API.
package phonepe

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
)

// Name identifies the gateway in logs and metadata.
const Name = "phonepe"

// tokenSkew is how long before its real expiry a token is treated as stale.
const tokenSkew = 300 * time.Second

// Gateway is a PhonePe client. The OAuth token is process-local state:
// fetched on first use, reused until near expiry, refreshed lazily.
type Gateway struct {
	cfg    *config.PhonePe
	api    *resty.Client
	auth   *resty.Client
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	sf        singleflight.Group
}

var _ payment.Gateway = (*Gateway)(nil)

// New creates a gateway client.
func New(cfg *config.PhonePe, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		cfg: cfg,
		api: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.HTTPTimeout).
			SetHeader("Content-Type", "application/json"),
		auth: resty.New().
			SetBaseURL(strings.TrimRight(cfg.AuthURL, "/")).
			SetTimeout(cfg.HTTPTimeout),
		logger: logger.With("gateway", Name),
		now:    time.Now,
	}
}

func (g *Gateway) Name() string { return Name }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	ExpiresAt   int64  `json:"expires_at"`
}

// accessToken returns a cached token or fetches one. Concurrent callers
// that find the cache stale share a single fetch.
func (g *Gateway) accessToken(ctx context.Context) (string, error) {
	if tok, ok := g.cachedToken(); ok {
		return tok, nil
	}
	v, err, _ := g.sf.Do("token", func() (any, error) {
		if tok, ok := g.cachedToken(); ok {
			return tok, nil
		}
		return g.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (g *Gateway) cachedToken() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.token == "" || !g.now().Before(g.expiresAt.Add(-tokenSkew)) {
		return "", false
	}
	return g.token, true
}

func (g *Gateway) fetchToken(ctx context.Context) (string, error) {
	var out tokenResponse
	resp, err := g.auth.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":      g.cfg.ClientID,
			"client_version": g.cfg.ClientVersion,
			"client_secret":  g.cfg.ClientSecret,
			"grant_type":     "client_credentials",
		}).
		Post("/v1/oauth/token")
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", domain.ErrGateway, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: token request: http %d", domain.ErrGateway, resp.StatusCode())
	}
	// The token endpoint's Content-Type varies, so decode the body directly.
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("%w: decode token: %v", domain.ErrGateway, err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: token request: empty access token", domain.ErrGateway)
	}

	now := g.now()
	expiresAt := now.Add(time.Duration(out.ExpiresIn) * time.Second)
	if out.ExpiresAt > 0 {
		expiresAt = time.Unix(out.ExpiresAt, 0)
	}
	g.mu.Lock()
	g.token = out.AccessToken
	g.expiresAt = expiresAt
	g.mu.Unlock()
	g.logger.Info("🔑 [TOKEN] Access token refreshed", "expires_at", expiresAt)
	return out.AccessToken, nil
}

// call performs an authorized request and decodes a JSON object answer.
func (g *Gateway) call(ctx context.Context, method, path string, body any) (map[string]any, error) {
	tok, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	req := g.api.R().
		SetContext(ctx).
		SetHeader("Authorization", "O-Bearer "+tok)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrGateway, method, path, err)
	}
	var raw map[string]any
	if len(resp.Body()) > 0 {
		if jerr := json.Unmarshal(resp.Body(), &raw); jerr != nil && !resp.IsError() {
			return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrGateway, path, jerr)
		}
	}
	if resp.IsError() {
		return raw, fmt.Errorf("%w: %s %s: http %d", domain.ErrGateway, method, path, resp.StatusCode())
	}
	return raw, nil
}

type checkoutRequest struct {
	MerchantOrderID string      `json:"merchantOrderId"`
	Amount          int64       `json:"amount"`
	ExpireAfter     int         `json:"expireAfter"`
	PaymentFlow     paymentFlow `json:"paymentFlow"`
}

type paymentFlow struct {
	Type         string       `json:"type"`
	Message      string       `json:"message"`
	MerchantURLs merchantURLs `json:"merchantUrls"`
}

type merchantURLs struct {
	RedirectURL string `json:"redirectUrl"`
}

func (g *Gateway) InitiateCheckout(ctx context.Context, amount domain.Paise, internalRef string) (*payment.Checkout, error) {
	now := g.now()
	merchantOrderID := payment.NewMerchantOrderID(now)
	raw, err := g.call(ctx, resty.MethodPost, "/checkout/v2/pay", checkoutRequest{
		MerchantOrderID: merchantOrderID,
		Amount:          int64(amount),
		ExpireAfter:     g.cfg.ExpireAfter,
		PaymentFlow: paymentFlow{
			Type:    "PG_CHECKOUT",
			Message: "Payment for " + internalRef,
			MerchantURLs: merchantURLs{
				RedirectURL: g.redirectURL(internalRef, merchantOrderID),
			},
		},
	})
	if err != nil {
		return nil, err
	}
	checkoutURL, _ := raw["redirectUrl"].(string)
	if checkoutURL == "" {
		checkoutURL, _ = raw["url"].(string)
	}
	if checkoutURL == "" {
		return nil, fmt.Errorf("%w: checkout response has no redirect url", domain.ErrGateway)
	}
	out := &payment.Checkout{
		MerchantOrderID: merchantOrderID,
		CheckoutURL:     checkoutURL,
		ExpiresAt:       now.Add(time.Duration(g.cfg.ExpireAfter) * time.Second),
		Raw:             raw,
	}
	if ms, ok := raw["expireAt"].(float64); ok && ms > 0 {
		out.ExpiresAt = time.UnixMilli(int64(ms))
	}
	return out, nil
}

func (g *Gateway) redirectURL(internalRef, merchantOrderID string) string {
	q := url.Values{}
	q.Set("transactionId", internalRef)
	q.Set("merchantOrderId", merchantOrderID)
	sep := "?"
	if strings.Contains(g.cfg.RedirectURL, "?") {
		sep = "&"
	}
	return g.cfg.RedirectURL + sep + q.Encode()
}

func (g *Gateway) CheckStatus(ctx context.Context, merchantOrderID string) (*payment.StatusResult, error) {
	raw, err := g.call(ctx, resty.MethodGet, "/checkout/v2/order/"+url.PathEscape(merchantOrderID)+"/status", nil)
	if err != nil {
		return nil, err
	}
	state, _ := raw["state"].(string)
	return &payment.StatusResult{State: payment.MapPaymentState(state), Raw: raw}, nil
}

type refundRequest struct {
	MerchantRefundID        string `json:"merchantRefundId"`
	OriginalMerchantOrderID string `json:"originalMerchantOrderId"`
	Amount                  int64  `json:"amount"`
}

func (g *Gateway) InitiateRefund(
	ctx context.Context,
	originalMerchantOrderID string,
	amount domain.Paise,
) (*payment.Refund, error) {
	refundID := payment.NewRefundID(g.now())
	raw, err := g.call(ctx, resty.MethodPost, "/payments/v2/refund", refundRequest{
		MerchantRefundID:        refundID,
		OriginalMerchantOrderID: originalMerchantOrderID,
		Amount:                  int64(amount),
	})
	if err != nil {
		return nil, err
	}
	state, _ := raw["state"].(string)
	st := payment.MapRefundState(state)
	if st == payment.StateUnknown {
		st = payment.StatePending
	}
	return &payment.Refund{RefundID: refundID, State: st, Raw: raw}, nil
}

func (g *Gateway) CheckRefundStatus(ctx context.Context, refundID string) (*payment.StatusResult, error) {
	raw, err := g.call(ctx, resty.MethodGet, "/payments/v2/refund/"+url.PathEscape(refundID)+"/status", nil)
	if err != nil {
		return nil, err
	}
	state, _ := raw["state"].(string)
	return &payment.StatusResult{State: payment.MapRefundState(state), Raw: raw}, nil
}

type webhookBody struct {
	Event   string         `json:"event"`
	Type    string         `json:"type"`
	Payload webhookPayload `json:"payload"`
}

type webhookPayload struct {
	MerchantOrderID         string `json:"merchantOrderId"`
	MerchantRefundID        string `json:"merchantRefundId"`
	OriginalMerchantOrderID string `json:"originalMerchantOrderId"`
	State                   string `json:"state"`
}

// ParseWebhook checks the Basic credential in constant time before
// decoding anything.
func (g *Gateway) ParseWebhook(_ context.Context, authHeader string, body []byte) (*payment.WebhookEvent, error) {
	if !g.authorized(authHeader) {
		return nil, domain.ErrInvalidSignature
	}
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, fmt.Errorf("%w: webhook body: %v", domain.ErrValidation, err)
	}
	event := wb.Event
	if event == "" {
		event = wb.Type
	}
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	ev := &payment.WebhookEvent{Event: event, Raw: raw}
	if payment.IsRefundEvent(event) {
		ev.Kind = payment.WebhookRefund
		ev.Ref = wb.Payload.MerchantRefundID
		ev.State = payment.MapRefundState(wb.Payload.State)
		if ev.State == payment.StateUnknown {
			ev.State = payment.MapRefundState(event)
		}
	} else {
		ev.Kind = payment.WebhookPayment
		ev.Ref = wb.Payload.MerchantOrderID
		ev.State = payment.MapPaymentState(wb.Payload.State)
		if ev.State == payment.StateUnknown {
			ev.State = payment.MapPaymentState(event)
		}
	}
	if ev.Ref == "" {
		return nil, errors.Join(domain.ErrMissingField, fmt.Errorf("webhook %q carries no reference", event))
	}
	return ev, nil
}

func (g *Gateway) authorized(header string) bool {
	const prefix = "Basic "
	if g.cfg.CallbackUsername == "" || !strings.HasPrefix(header, prefix) {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return false
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(g.cfg.CallbackUsername))
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(g.cfg.CallbackPassword))
	return userOK&passOK == 1
}
