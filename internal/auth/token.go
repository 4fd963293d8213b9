package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NewSignedToken builds an HS256 token the way the identity provider does.
// Only for tests and dev tooling, this service never issues credentials itself.
func NewSignedToken(secret []byte, p Principal, tokenID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(p.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
