// Package payment defines the payment gateway contract and its normalized
// vocabulary.
package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/topup/pkg/utils"
)

// State is a gateway-side state in the core vocabulary.
type State string

const (
	StateSuccess State = "success"
	StatePending State = "pending"
	StateFailed  State = "failed"
	StateUnknown State = "unknown"
)

// WebhookKind tells payment callbacks from refund callbacks.
type WebhookKind string

const (
	WebhookPayment WebhookKind = "payment"
	WebhookRefund  WebhookKind = "refund"
)

// Checkout is a hosted checkout session.
type Checkout struct {
	MerchantOrderID string
	CheckoutURL     string
	ExpiresAt       time.Time
	Raw             map[string]any
}

// StatusResult is a normalized poll answer.
type StatusResult struct {
	State State
	Raw   map[string]any
}

// Refund is an accepted refund request.
type Refund struct {
	RefundID string
	State    State
	Raw      map[string]any
}

// WebhookEvent is an authenticated gateway callback.
type WebhookEvent struct {
	Kind  WebhookKind
	Event string
	// Ref is the merchant order id for payments and the merchant refund id
	// for refunds.
	Ref   string
	State State
	Raw   map[string]any
}

// NewMerchantOrderID returns TXN_<unix ms>_<rand>.
func NewMerchantOrderID(now time.Time) string {
	return fmt.Sprintf("TXN_%d_%s", now.UnixMilli(), utils.RandomCode(9))
}

// NewRefundID returns REF_<unix ms>_<rand>.
func NewRefundID(now time.Time) string {
	return fmt.Sprintf("REF_%d_%s", now.UnixMilli(), utils.RandomCode(9))
}

// MapPaymentState maps a checkout state or event name.
func MapPaymentState(s string) State {
	switch strings.TrimSpace(s) {
	case "COMPLETED", "checkout.order.completed":
		return StateSuccess
	case "FAILED", "checkout.order.failed":
		return StateFailed
	case "PENDING":
		return StatePending
	}
	return StateUnknown
}

// MapRefundState maps a refund state or event name.
func MapRefundState(s string) State {
	switch strings.TrimSpace(s) {
	case "COMPLETED", "refund.completed", "pg.refund.completed":
		return StateSuccess
	case "FAILED", "refund.failed", "pg.refund.failed":
		return StateFailed
	case "PENDING", "CONFIRMED", "refund.accepted", "pg.refund.accepted":
		return StatePending
	}
	return StateUnknown
}

// IsRefundEvent reports whether a webhook event name is a refund callback.
func IsRefundEvent(event string) bool {
	return strings.Contains(strings.ToLower(event), "refund")
}
