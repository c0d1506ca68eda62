package auth

import (
	"crypto/rsa"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Session is the authenticated principal derived from a verified identity
// token. It lives for one request and is handed downstream via context.
type Session struct {
	Email     string   `json:"email"`
	DeviceIDs []string `json:"deviceIds"`
}

type contextKey struct{ name string }

var sessionCtxKey = &contextKey{"session"}

type Middleware struct {
	httpClient HTTPDoer
	log        *zap.Logger

	issuer        string
	audience      string
	jwksURL       string
	tokenEndpoint string
	loginPath     string
	bypass        []string

	cookies CookieStore

	jwksTimeout     time.Duration
	exchangeTimeout time.Duration

	// guarded by mu
	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey

	flight singleflight.Group
}
