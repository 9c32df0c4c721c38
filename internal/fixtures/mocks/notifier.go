package mocks

import (
	"context"

	"github.com/amirasaad/topup/pkg/provider/notify"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a testify mock of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

var _ notify.Notifier = (*MockNotifier)(nil)

func NewMockNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNotifier {
	m := &MockNotifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNotifier) Send(ctx context.Context, msg notify.Message) error {
	return m.Called(ctx, msg).Error(0)
}
