package mocks

import (
	"context"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/provider/payment"
	"github.com/stretchr/testify/mock"
)

// MockGateway is a testify mock of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

var _ payment.Gateway = (*MockGateway)(nil)

// NewMockGateway creates a gateway mock asserted at test cleanup.
func NewMockGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGateway {
	m := &MockGateway{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) InitiateCheckout(ctx context.Context, amount domain.Paise, internalRef string) (*payment.Checkout, error) {
	args := m.Called(ctx, amount, internalRef)
	var c *payment.Checkout
	if v := args.Get(0); v != nil {
		c = v.(*payment.Checkout)
	}
	return c, args.Error(1)
}

func (m *MockGateway) CheckStatus(ctx context.Context, merchantOrderID string) (*payment.StatusResult, error) {
	args := m.Called(ctx, merchantOrderID)
	return statusResult(args.Get(0)), args.Error(1)
}

func (m *MockGateway) InitiateRefund(ctx context.Context, originalMerchantOrderID string, amount domain.Paise) (*payment.Refund, error) {
	args := m.Called(ctx, originalMerchantOrderID, amount)
	var r *payment.Refund
	if v := args.Get(0); v != nil {
		r = v.(*payment.Refund)
	}
	return r, args.Error(1)
}

func (m *MockGateway) CheckRefundStatus(ctx context.Context, refundID string) (*payment.StatusResult, error) {
	args := m.Called(ctx, refundID)
	return statusResult(args.Get(0)), args.Error(1)
}

func (m *MockGateway) ParseWebhook(ctx context.Context, authHeader string, body []byte) (*payment.WebhookEvent, error) {
	args := m.Called(ctx, authHeader, body)
	var ev *payment.WebhookEvent
	if v := args.Get(0); v != nil {
		ev = v.(*payment.WebhookEvent)
	}
	return ev, args.Error(1)
}

func statusResult(v any) *payment.StatusResult {
	if v == nil {
		return nil
	}
	return v.(*payment.StatusResult)
}
