package mocks

import (
	"context"

	"github.com/amirasaad/topup/pkg/provider/topup"
	"github.com/stretchr/testify/mock"
)

// MockTopupClient is a testify mock of topup.Client.
type MockTopupClient struct {
	mock.Mock
	name           string
	requireContact bool
}

var _ topup.Client = (*MockTopupClient)(nil)

// NewMockTopupClient creates a mock provider registered under name. Its
// expectations are asserted when the test ends.
func NewMockTopupClient(t interface {
	mock.TestingT
	Cleanup(func())
}, name string, requiresContact bool) *MockTopupClient {
	m := &MockTopupClient{name: name, requireContact: requiresContact}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTopupClient) Name() string { return m.name }

func (m *MockTopupClient) RequiresContact() bool { return m.requireContact }

func (m *MockTopupClient) SubmitOrder(ctx context.Context, req topup.SubmitRequest) (*topup.Result, error) {
	args := m.Called(ctx, req)
	var res *topup.Result
	if v := args.Get(0); v != nil {
		res = v.(*topup.Result)
	}
	return res, args.Error(1)
}

func (m *MockTopupClient) GetOrderStatus(ctx context.Context, externalOrderID string, last map[string]any) (*topup.Status, error) {
	args := m.Called(ctx, externalOrderID, last)
	var st *topup.Status
	if v := args.Get(0); v != nil {
		st = v.(*topup.Status)
	}
	return st, args.Error(1)
}

func (m *MockTopupClient) ValidateAccount(ctx context.Context, req topup.ValidateRequest) (*topup.Validation, error) {
	args := m.Called(ctx, req)
	var v *topup.Validation
	if r := args.Get(0); r != nil {
		v = r.(*topup.Validation)
	}
	return v, args.Error(1)
}
