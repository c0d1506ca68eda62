package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid covers every way a presented token can fail
// verification. Callers never surface the distinction to the client.
var ErrTokenInvalid = errors.New("invalid token")

type sessionClaims struct {
	jwt.RegisteredClaims
	Email     string   `json:"email"`
	DeviceIDs []string `json:"custom:deviceIds"`
}

// verifyToken validates signature, expiry, issuer and audience, in that
// order, and extracts the session claims. The declared algorithm is
// pinned to RS256 before any key material is touched. A key-resolution
// failure fails the verification (closed).
func (m *Middleware) verifyToken(ctx context.Context, raw string) (Session, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	)

	var claims sessionClaims
	tok, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: header missing kid", ErrTokenInvalid)
		}
		return m.resolveKey(ctx, kid)
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !tok.Valid {
		return Session{}, ErrTokenInvalid
	}

	if claims.Issuer != m.issuer {
		return Session{}, fmt.Errorf("%w: issuer mismatch", ErrTokenInvalid)
	}
	found := false
	for _, a := range claims.Audience {
		if a == m.audience {
			found = true
			break
		}
	}
	if !found {
		return Session{}, fmt.Errorf("%w: audience mismatch", ErrTokenInvalid)
	}

	return Session{Email: claims.Email, DeviceIDs: claims.DeviceIDs}, nil
}
