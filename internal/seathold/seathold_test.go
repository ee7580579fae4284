package seathold

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLeaseStore is an in-memory LeaseStore; TTLs are ignored because the
// coordinator never relies on expiry for correctness, only the cache does.
type fakeLeaseStore struct {
	leases map[string]Lease
}

func newFakeLeaseStore() *fakeLeaseStore {
	return &fakeLeaseStore{leases: make(map[string]Lease)}
}

func (f *fakeLeaseStore) Get(_ context.Context, showtimeID int, holderID string) (*Lease, error) {
	lease, ok := f.leases[leaseKey(showtimeID, holderID)]
	if !ok {
		return nil, ErrLeaseNotFound
	}
	return &lease, nil
}

func (f *fakeLeaseStore) Put(_ context.Context, lease Lease, _ time.Duration) error {
	f.leases[leaseKey(lease.ShowtimeID, lease.HolderID)] = lease
	return nil
}

func (f *fakeLeaseStore) Delete(_ context.Context, showtimeID int, holderID string) error {
	delete(f.leases, leaseKey(showtimeID, holderID))
	return nil
}

func (f *fakeLeaseStore) Scan(_ context.Context, showtimeID int) ([]Lease, error) {
	var leases []Lease
	for _, lease := range f.leases {
		if lease.ShowtimeID == showtimeID {
			leases = append(leases, lease)
		}
	}
	return leases, nil
}

func TestValidateHoldConsumesLease(t *testing.T) {
	ctx := context.Background()
	store := newFakeLeaseStore()
	coordinator := NewCoordinator(store, DefaultTTL)

	require.NoError(t, coordinator.Acquire(ctx, 10, "holder-x", []int{1, 2}))

	err := coordinator.ValidateHold(ctx, 10, "holder-x", []int{1, 2})
	require.NoError(t, err)

	// The lease was consumed, so a second validation reports expiry.
	err = coordinator.ValidateHold(ctx, 10, "holder-x", []int{1, 2})
	assert.ErrorIs(t, err, domain.ErrLeaseExpired)
}

func TestValidateHoldContention(t *testing.T) {
	ctx := context.Background()
	store := newFakeLeaseStore()
	coordinator := NewCoordinator(store, DefaultTTL)

	require.NoError(t, coordinator.Acquire(ctx, 10, "holder-x", []int{1}))

	// Y's acquire already fails because seat 1 belongs to X.
	err := coordinator.Acquire(ctx, 10, "holder-y", []int{1, 2})
	assert.ErrorIs(t, err, domain.ErrSeatConflict)

	// Simulate Y having obtained a stale overlapping lease anyway.
	require.NoError(t, store.Put(ctx, Lease{ShowtimeID: 10, HolderID: "holder-y", SeatIDs: []int{1, 2}}, 0))

	err = coordinator.ValidateHold(ctx, 10, "holder-y", []int{1, 2})
	assert.ErrorIs(t, err, domain.ErrSeatConflict)

	// X's lease must not have been touched.
	lease, err := store.Get(ctx, 10, "holder-x")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, lease.SeatIDs)
}

func TestValidateHoldDisjointHoldersProceed(t *testing.T) {
	ctx := context.Background()
	store := newFakeLeaseStore()
	coordinator := NewCoordinator(store, DefaultTTL)

	require.NoError(t, coordinator.Acquire(ctx, 10, "holder-x", []int{1, 2}))
	require.NoError(t, coordinator.Acquire(ctx, 10, "holder-y", []int{3, 4}))

	assert.NoError(t, coordinator.ValidateHold(ctx, 10, "holder-x", []int{1, 2}))
	assert.NoError(t, coordinator.ValidateHold(ctx, 10, "holder-y", []int{3, 4}))
}

func TestValidateHoldRejectsSeatsOutsideLease(t *testing.T) {
	ctx := context.Background()
	store := newFakeLeaseStore()
	coordinator := NewCoordinator(store, DefaultTTL)

	require.NoError(t, coordinator.Acquire(ctx, 10, "holder-x", []int{1, 2}))

	err := coordinator.ValidateHold(ctx, 10, "holder-x", []int{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrSeatConflict)
}

func TestRedisLeaseStoreRoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisLeaseStore(client)
	ctx := context.Background()

	lease := Lease{ShowtimeID: 10, HolderID: "holder-x", SeatIDs: []int{1, 2}}
	data, err := json.Marshal(lease)
	require.NoError(t, err)

	mock.ExpectSet(leaseKey(10, "holder-x"), data, DefaultTTL).SetVal("OK")
	require.NoError(t, store.Put(ctx, lease, DefaultTTL))

	mock.ExpectGet(leaseKey(10, "holder-x")).SetVal(string(data))
	got, err := store.Get(ctx, 10, "holder-x")
	require.NoError(t, err)
	assert.Equal(t, lease, *got)

	mock.ExpectDel(leaseKey(10, "holder-x")).SetVal(1)
	require.NoError(t, store.Delete(ctx, 10, "holder-x"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLeaseStoreGetMissing(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisLeaseStore(client)

	mock.ExpectGet(leaseKey(10, "holder-x")).RedisNil()

	_, err := store.Get(context.Background(), 10, "holder-x")
	assert.ErrorIs(t, err, ErrLeaseNotFound)
}

func TestRedisLeaseStoreScan(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisLeaseStore(client)

	leaseX := Lease{ShowtimeID: 10, HolderID: "holder-x", SeatIDs: []int{1}}
	leaseY := Lease{ShowtimeID: 10, HolderID: "holder-y", SeatIDs: []int{2, 3}}

	dataX, err := json.Marshal(leaseX)
	require.NoError(t, err)
	dataY, err := json.Marshal(leaseY)
	require.NoError(t, err)

	keys := []string{leaseKey(10, "holder-x"), leaseKey(10, "holder-y")}

	mock.ExpectScan(0, leasePattern(10), 100).SetVal(keys, 0)
	mock.ExpectMGet(keys...).SetVal([]interface{}{string(dataX), string(dataY)})

	leases, err := store.Scan(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, leases, 2)
	assert.Equal(t, leaseX, leases[0])
	assert.Equal(t, leaseY, leases[1])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaseKeys(t *testing.T) {
	assert.Equal(t, "seat_hold:10:holder-x", leaseKey(10, "holder-x"))
	assert.Equal(t, fmt.Sprintf("seat_hold:%d:*", 10), leasePattern(10))
}
