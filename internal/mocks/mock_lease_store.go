package mocks

import (
	"context"
	"time"

	"github.com/minhlq-dev/cinebook/internal/seathold"
	"github.com/stretchr/testify/mock"
)

type MockLeaseStore struct {
	mock.Mock
	seathold.LeaseStore
}

func (m *MockLeaseStore) Get(ctx context.Context, showtimeID int, holderID string) (*seathold.Lease, error) {
	args := m.Called(ctx, showtimeID, holderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seathold.Lease), args.Error(1)
}

func (m *MockLeaseStore) Put(ctx context.Context, lease seathold.Lease, ttl time.Duration) error {
	args := m.Called(ctx, lease, ttl)
	return args.Error(0)
}

func (m *MockLeaseStore) Delete(ctx context.Context, showtimeID int, holderID string) error {
	args := m.Called(ctx, showtimeID, holderID)
	return args.Error(0)
}

func (m *MockLeaseStore) Scan(ctx context.Context, showtimeID int) ([]seathold.Lease, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]seathold.Lease), args.Error(1)
}
