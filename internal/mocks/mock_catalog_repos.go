package mocks

import (
	"context"

	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockUserRepo struct {
	mock.Mock
	domain.UserRepository
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockShowtimeRepo struct {
	mock.Mock
	domain.ShowtimeRepository
}

func (m *MockShowtimeRepo) GetByID(ctx context.Context, id int) (*domain.Showtime, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Showtime), args.Error(1)
}

type MockScheduleSeatRepo struct {
	mock.Mock
	domain.ScheduleSeatRepository
}

func (m *MockScheduleSeatRepo) GetByShowtimeAndIDs(ctx context.Context, showtimeID int, ids []int) ([]domain.ScheduleSeat, error) {
	args := m.Called(ctx, showtimeID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduleSeat), args.Error(1)
}

type MockTicketTypeRepo struct {
	mock.Mock
	domain.TicketTypeRepository
}

func (m *MockTicketTypeRepo) GetByIDs(ctx context.Context, ids []int) ([]domain.TicketType, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketType), args.Error(1)
}

type MockProductRepo struct {
	mock.Mock
	domain.ProductRepository
}

func (m *MockProductRepo) GetByIDs(ctx context.Context, ids []int) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

type MockPromotionRepo struct {
	mock.Mock
	domain.PromotionRepository
}

func (m *MockPromotionRepo) GetByID(ctx context.Context, id int) (*domain.Promotion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Promotion), args.Error(1)
}
