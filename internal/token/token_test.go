package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	signer := NewSigner("admission-test-secret")

	raw, err := signer.Sign("ORD-2026-0001", time.Now().Add(3*time.Hour))
	require.NoError(t, err)

	code, err := signer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-0001", code)
}

func TestSignEnforcesMinimumTTL(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 20, 30, 0, 0, time.UTC)

	signer := NewSigner("admission-test-secret")
	signer.now = func() time.Time { return issuedAt }

	// Showtime already ended; the token must still be valid for an hour.
	raw, err := signer.Sign("ORD-2026-0002", time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// The parser clock is pinned to the signer clock so the fixture does
	// not rot as the wall clock moves past it.
	claims := &AdmissionClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte("admission-test-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return issuedAt }))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 1, 1, 21, 30, 0, 0, time.UTC), claims.ExpiresAt.Time.UTC())
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	signer := NewSigner("admission-test-secret")

	t.Run("expired", func(t *testing.T) {
		past := NewSigner("admission-test-secret")
		past.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

		raw, err := past.Sign("ORD-2026-0003", time.Now().Add(-47*time.Hour))
		require.NoError(t, err)

		_, err = signer.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewSigner("some-other-secret")

		raw, err := other.Sign("ORD-2026-0004", time.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = signer.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := signer.Verify("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
