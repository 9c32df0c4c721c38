package payment

import (
	"context"

	"github.com/amirasaad/topup/pkg/domain"
)

// Gateway is a redirect-based payment gateway.
type Gateway interface {
	Name() string

	// InitiateCheckout opens a hosted checkout for amount. internalRef is
	// our wallet transaction or order id, echoed into the checkout message.
	InitiateCheckout(
		ctx context.Context,
		amount domain.Paise,
		internalRef string,
	) (*Checkout, error)

	// CheckStatus polls a checkout by merchant order id.
	CheckStatus(ctx context.Context, merchantOrderID string) (*StatusResult, error)

	// InitiateRefund refunds part or all of a completed checkout.
	InitiateRefund(
		ctx context.Context,
		originalMerchantOrderID string,
		amount domain.Paise,
	) (*Refund, error)

	// CheckRefundStatus polls a refund by merchant refund id.
	CheckRefundStatus(ctx context.Context, refundID string) (*StatusResult, error)

	// ParseWebhook authenticates a callback and decodes it. It returns
	// domain.ErrInvalidSignature before looking at the body when the
	// credential does not match.
	ParseWebhook(ctx context.Context, authHeader string, body []byte) (*WebhookEvent, error)
}
