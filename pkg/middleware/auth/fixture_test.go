package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testIssuer   = "https://idp.example.test/pool"
	testAudience = "test-client-id"
)

// idp fakes the identity provider: one RSA signing key published over a
// counting JWKS endpoint.
type idp struct {
	key     *rsa.PrivateKey
	kid     string
	srv     *httptest.Server
	fetches atomic.Int32

	// delay slows the JWKS response down so concurrent misses overlap.
	delay time.Duration
	// status overrides the JWKS response code when non-zero.
	status int
	// body overrides the JWKS payload when non-empty.
	body string
}

func newIDP(t *testing.T) *idp {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &idp{key: key, kid: "test-key-1"}
	p.srv = httptest.NewServer(http.HandlerFunc(p.serveJWKS))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *idp) serveJWKS(w http.ResponseWriter, r *http.Request) {
	p.fetches.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.status != 0 {
		w.WriteHeader(p.status)
		return
	}
	if p.body != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(p.body))
		return
	}

	pub := &p.key.PublicKey
	doc := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"kid": p.kid,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

func (p *idp) claims(email string, exp time.Time) sessionClaims {
	return sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Email:     email,
		DeviceIDs: []string{"device-a", "device-b"},
	}
}

func (p *idp) sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = p.kid
	raw, err := tok.SignedString(p.key)
	require.NoError(t, err)
	return raw
}

func (p *idp) validToken(t *testing.T, email string) string {
	return p.sign(t, p.claims(email, time.Now().Add(time.Hour)))
}

func (p *idp) expiredToken(t *testing.T, email string) string {
	return p.sign(t, p.claims(email, time.Now().Add(-time.Hour)))
}

func newTestMiddleware(t *testing.T, p *idp) *Middleware {
	t.Helper()
	return &Middleware{
		httpClient:      http.DefaultClient,
		log:             zap.NewNop(),
		issuer:          testIssuer,
		audience:        testAudience,
		jwksURL:         p.srv.URL + "/.well-known/jwks.json",
		loginPath:       "/auth/login",
		bypass:          []string{"/auth/*", "/ping", "/metrics", "/assets/*"},
		jwksTimeout:     2 * time.Second,
		exchangeTimeout: 2 * time.Second,
		keys:            make(map[string]*rsa.PublicKey),
	}
}
