// Package token issues and verifies the admission tokens embedded in the
// QR code of a paid order. Tokens are HS256 JWTs carrying the order's
// public code; they expire when the showtime ends so a screenshot cannot
// be replayed at a later screening.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "cinebook"

// minTTL keeps tokens for imminent showtimes usable at the door.
const minTTL = time.Hour

var ErrInvalidToken = errors.New("invalid admission token")

type AdmissionClaims struct {
	OrderCode string `json:"order_code"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Sign issues an admission token for an order. The token outlives the
// showtime end by nothing, but never expires sooner than minTTL from now.
func (s *Signer) Sign(orderCode string, showtimeEnd time.Time) (string, error) {
	now := s.now().UTC()

	expiry := showtimeEnd.UTC()
	if min := now.Add(minTTL); expiry.Before(min) {
		expiry = min
	}

	claims := AdmissionClaims{
		OrderCode: orderCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   orderCode,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing admission token: %w", err)
	}
	return signed, nil
}

// Verify parses a token presented at check-in and returns the order code
// it was issued for. Expired, malformed, or foreign tokens all map to
// ErrInvalidToken.
func (s *Signer) Verify(raw string) (string, error) {
	claims := &AdmissionClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return "", ErrInvalidToken
	}

	if claims.OrderCode == "" {
		return "", ErrInvalidToken
	}
	return claims.OrderCode, nil
}
