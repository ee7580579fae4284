// Package seathold arbitrates which holder currently has first claim on
// which seats for a showtime. Leases are short-lived claims in a shared
// cache; the coordinator implements an optimistic scan-then-consume
// protocol, not a mutex. Two orders racing on disjoint seats of the same
// showtime both proceed; a true same-seat race is closed by the conditional
// seat-status writes in the order repository.
package seathold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/minhlq-dev/cinebook/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 10 * time.Minute

var ErrLeaseNotFound = errors.New("lease not found")

type Lease struct {
	ShowtimeID int    `json:"showtime_id"`
	HolderID   string `json:"holder_id"`
	SeatIDs    []int  `json:"seat_ids"`
}

// LeaseStore is the external cache behind the coordinator. It is an
// injected dependency so tests can fake it.
type LeaseStore interface {
	Get(ctx context.Context, showtimeID int, holderID string) (*Lease, error)
	Put(ctx context.Context, lease Lease, ttl time.Duration) error
	Delete(ctx context.Context, showtimeID int, holderID string) error
	// Scan returns every active lease for the showtime, the caller's own
	// included.
	Scan(ctx context.Context, showtimeID int) ([]Lease, error)
}

type Coordinator struct {
	store LeaseStore
	ttl   time.Duration
}

func NewCoordinator(store LeaseStore, ttl time.Duration) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Coordinator{store: store, ttl: ttl}
}

// TTL reports how long an acquired lease lives.
func (c *Coordinator) TTL() time.Duration {
	return c.ttl
}

// Acquire claims the seats for the holder. Any requested seat present in
// another holder's active lease rejects the claim without mutating state.
func (c *Coordinator) Acquire(ctx context.Context, showtimeID int, holderID string, seatIDs []int) error {
	leases, err := c.store.Scan(ctx, showtimeID)
	if err != nil {
		return fmt.Errorf("scanning leases: %w", err)
	}

	for _, lease := range leases {
		if lease.HolderID == holderID {
			continue
		}
		if intersects(lease.SeatIDs, seatIDs) {
			return domain.ErrSeatConflict
		}
	}

	lease := Lease{ShowtimeID: showtimeID, HolderID: holderID, SeatIDs: seatIDs}

	return c.store.Put(ctx, lease, c.ttl)
}

// Release drops the holder's lease, freeing the seats before the TTL runs
// out.
func (c *Coordinator) Release(ctx context.Context, showtimeID int, holderID string) error {
	return c.store.Delete(ctx, showtimeID, holderID)
}

// ValidateHold checks that the holder still owns a lease covering the
// requested seats and that no other holder contests any of them. On success
// the holder's lease is consumed: a second call for the same holder reports
// the lease as expired.
func (c *Coordinator) ValidateHold(ctx context.Context, showtimeID int, holderID string, seatIDs []int) error {
	lease, err := c.store.Get(ctx, showtimeID, holderID)
	if err != nil {
		if errors.Is(err, ErrLeaseNotFound) {
			return domain.ErrLeaseExpired
		}
		return fmt.Errorf("reading lease: %w", err)
	}

	if !contains(lease.SeatIDs, seatIDs) {
		return domain.ErrSeatConflict
	}

	leases, err := c.store.Scan(ctx, showtimeID)
	if err != nil {
		return fmt.Errorf("scanning leases: %w", err)
	}

	for _, other := range leases {
		if other.HolderID == holderID {
			continue
		}
		if intersects(other.SeatIDs, seatIDs) {
			return domain.ErrSeatConflict
		}
	}

	if err := c.store.Delete(ctx, showtimeID, holderID); err != nil {
		return fmt.Errorf("consuming lease: %w", err)
	}

	return nil
}

func intersects(a, b []int) bool {
	set := make(map[int]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if set[v] {
			return true
		}
	}
	return false
}

func contains(haystack, needles []int) bool {
	set := make(map[int]bool, len(haystack))
	for _, v := range haystack {
		set[v] = true
	}
	for _, v := range needles {
		if !set[v] {
			return false
		}
	}
	return true
}

// RedisLeaseStore keeps each lease as a JSON value under
// seat_hold:{showtime}:{holder} with the TTL enforced by Redis itself;
// natural expiry is the automatic seat-release mechanism.
type RedisLeaseStore struct {
	client redis.UniversalClient
}

func NewRedisLeaseStore(client redis.UniversalClient) *RedisLeaseStore {
	return &RedisLeaseStore{client: client}
}

func leaseKey(showtimeID int, holderID string) string {
	return fmt.Sprintf("seat_hold:%d:%s", showtimeID, holderID)
}

func leasePattern(showtimeID int) string {
	return fmt.Sprintf("seat_hold:%d:*", showtimeID)
}

func (s *RedisLeaseStore) Get(ctx context.Context, showtimeID int, holderID string) (*Lease, error) {
	data, err := s.client.Get(ctx, leaseKey(showtimeID, holderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrLeaseNotFound
		}
		return nil, err
	}

	var lease Lease
	if err := json.Unmarshal(data, &lease); err != nil {
		return nil, fmt.Errorf("unmarshal lease: %w", err)
	}

	return &lease, nil
}

func (s *RedisLeaseStore) Put(ctx context.Context, lease Lease, ttl time.Duration) error {
	data, err := json.Marshal(lease)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, leaseKey(lease.ShowtimeID, lease.HolderID), data, ttl).Err()
}

func (s *RedisLeaseStore) Delete(ctx context.Context, showtimeID int, holderID string) error {
	return s.client.Del(ctx, leaseKey(showtimeID, holderID)).Err()
}

func (s *RedisLeaseStore) Scan(ctx context.Context, showtimeID int) ([]Lease, error) {
	var (
		keys   []string
		cursor uint64
	)

	for {
		batch, next, err := s.client.Scan(ctx, cursor, leasePattern(showtimeID), 100).Result()
		if err != nil {
			return nil, err
		}

		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	leases := make([]Lease, 0, len(values))

	for _, v := range values {
		if v == nil {
			// Key expired between SCAN and MGET.
			continue
		}

		raw, ok := v.(string)
		if !ok {
			continue
		}

		var lease Lease
		if err := json.Unmarshal([]byte(raw), &lease); err != nil {
			return nil, fmt.Errorf("unmarshal lease: %w", err)
		}

		leases = append(leases, lease)
	}

	return leases, nil
}
