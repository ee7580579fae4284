package mocks

import (
	"context"
	"net/http"

	"github.com/minhlq-dev/cinebook/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
	GatewayName string
}

func (m *MockGateway) Name() string {
	if m.GatewayName != "" {
		return m.GatewayName
	}
	return "mock"
}

func (m *MockGateway) Initiate(ctx context.Context, req payment.InitiateRequest) (*payment.InitiateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.InitiateResult), args.Error(1)
}

func (m *MockGateway) VerifyCallback(r *http.Request) (*payment.CallbackResult, error) {
	args := m.Called(r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CallbackResult), args.Error(1)
}

func (m *MockGateway) QueryStatus(ctx context.Context, reference string) (*payment.StatusResult, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.StatusResult), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	args := m.Called(ctx, reference, amount)
	return args.Error(0)
}
