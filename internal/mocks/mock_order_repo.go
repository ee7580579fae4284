package mocks

import (
	"context"

	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepo struct {
	mock.Mock
	domain.OrderRepository
}

func (m *MockOrderRepo) Create(
	ctx context.Context,
	order *domain.Order,
	tickets []domain.Ticket,
	seatStatus domain.SeatStatus) error {

	args := m.Called(ctx, order, tickets, seatStatus)
	return args.Error(0)
}

func (m *MockOrderRepo) GetByCode(ctx context.Context, publicCode string) (*domain.Order, error) {
	args := m.Called(ctx, publicCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepo) GetByTransactionCode(ctx context.Context, code string) (*domain.Order, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepo) ListByUser(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.OrderSummary, *domain.Metadata, error) {

	args := m.Called(ctx, userID, pagination)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.OrderSummary), args.Get(1).(*domain.Metadata), args.Error(2)
}

func (m *MockOrderRepo) SettleSuccess(ctx context.Context, reference, admissionToken string) (*domain.SettledOrder, error) {
	args := m.Called(ctx, reference, admissionToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SettledOrder), args.Error(1)
}

func (m *MockOrderRepo) SettleFailure(ctx context.Context, reference string) (*domain.SettledOrder, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SettledOrder), args.Error(1)
}

func (m *MockOrderRepo) Repay(ctx context.Context, orderID int64, method, reference string) error {
	args := m.Called(ctx, orderID, method, reference)
	return args.Error(0)
}

func (m *MockOrderRepo) Update(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepo) Cancel(ctx context.Context, orderID int64) (*domain.SettledOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SettledOrder), args.Error(1)
}

func (m *MockOrderRepo) Refund(ctx context.Context, orderID int64) (*domain.SettledOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SettledOrder), args.Error(1)
}

func (m *MockOrderRepo) MarkTicketsUsed(ctx context.Context, orderID int64) (int, error) {
	args := m.Called(ctx, orderID)
	return args.Int(0), args.Error(1)
}
