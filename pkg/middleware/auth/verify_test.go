package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyTokenValid(t *testing.T) {
	t.Parallel()
	p := newIDP(t)
	m := newTestMiddleware(t, p)

	s, err := m.verifyToken(t.Context(), p.validToken(t, "user@example.test"))
	require.NoError(t, err)
	assert.Equal(t, "user@example.test", s.Email)
	assert.Equal(t, []string{"device-a", "device-b"}, s.DeviceIDs)
}

func TestVerifyTokenIdempotentAndCacheHit(t *testing.T) {
	t.Parallel()
	p := newIDP(t)
	m := newTestMiddleware(t, p)
	raw := p.validToken(t, "user@example.test")

	first, err := m.verifyToken(t.Context(), raw)
	require.NoError(t, err)
	second, err := m.verifyToken(t.Context(), raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, p.fetches.Load())
}

func TestVerifyTokenExpired(t *testing.T) {
	t.Parallel()
	p := newIDP(t)
	m := newTestMiddleware(t, p)

	_, err := m.verifyToken(t.Context(), p.expiredToken(t, "user@example.test"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenIssuerMismatch(t *testing.T) {
	t.Parallel()
	p := newIDP(t)
	m := newTestMiddleware(t, p)

	c := p.claims("user@example.test", time.Now().Add(time.Hour))
	c.Issuer = "https://rogue.example.test"
	_, err := m.verifyToken(t.Context(), p.sign(t, c))
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenAudienceMismatch(t *testing.T) {
	t.Parallel()
	p := newIDP(t)
	m := newTestMiddleware(t, p)

	c := p.claims("user@example.test", time.Now().Add(time.Hour))
	c.Audience = jwt.ClaimStrings{"some-other-client"}
	_, err := m.verifyToken(t.Context(), p.sign(t, c))
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenRejectsForeignAlgorithmBeforeKeyFetch(t *testing.T) {
	t.Parallel()
	p := newIDP(t)
	m := newTestMiddleware(t, p)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, p.claims("user@example.test", time.Now().Add(time.Hour)))
	tok.Header["kid"] = p.kid
	raw, err := tok.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = m.verifyToken(t.Context(), raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
	// rejected on the declared algorithm alone; no key material touched
	assert.EqualValues(t, 0, p.fetches.Load())
}

func TestVerifyTokenTamperedPayload(t *testing.T) {
	t.Parallel()
	p := newIDP(t)
	m := newTestMiddleware(t, p)

	honest := p.validToken(t, "user@example.test")
	forged := p.validToken(t, "admin@example.test")

	hp := strings.Split(honest, ".")
	fp := strings.Split(forged, ".")
	require.Len(t, hp, 3)
	require.Len(t, fp, 3)

	// forged payload riding on the honest signature
	spliced := hp[0] + "." + fp[1] + "." + hp[2]
	_, err := m.verifyToken(t.Context(), spliced)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenMissingKid(t *testing.T) {
	t.Parallel()
	p := newIDP(t)
	m := newTestMiddleware(t, p)

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, p.claims("user@example.test", time.Now().Add(time.Hour)))
	raw, err := tok.SignedString(p.key)
	require.NoError(t, err)

	_, err = m.verifyToken(t.Context(), raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
