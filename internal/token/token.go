// internal/token/token.go
//
// Token service: issues an opaque bearer token bound to a user id and
// resolves it back on protected requests. The token is an HS256 JWT under
// the hood; callers treat it as an opaque string.

package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers absent, malformed, and forged tokens.
var ErrInvalidToken = errors.New("invalid token")

// Service signs and verifies tokens with a shared secret.
type Service struct {
	secret []byte
}

func NewService(secret []byte) *Service {
	return &Service{secret: secret}
}

// Issue produces a signed token carrying the user id. Tokens have no expiry;
// they stay valid until the secret rotates.
func (s *Service) Issue(userID int64) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"iat": time.Now().Unix(),
	})
	ss, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return ss, nil
}

// Resolve verifies the token and returns the user id it was issued for.
func (s *Service) Resolve(tokenStr string) (int64, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return 0, ErrInvalidToken
	}
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, ErrInvalidToken
	}
	return int64(id), nil
}
