package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the only invalidation mechanism: tokens are stateless and cannot be
// revoked before expiry.
const TTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs claims binding the phone and role, expiring TTL from now.
func Issue(phone, role string, secret []byte) (string, error) {
	return IssueAt(phone, role, secret, time.Now())
}

func IssueAt(phone, role string, secret []byte, now time.Time) (string, error) {
	claims := AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   phone,
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ClaimsFromToken(tokenStr string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
