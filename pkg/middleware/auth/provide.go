package auth

import (
	"crypto/rsa"
	"net/http"
	"time"

	"github.com/joeydtaylor/authgate/pkg/manifest"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ProvideAuthentication wires the gate from the validated manifest.
// No key material is fetched up front; the cache fills on first use.
func ProvideAuthentication(cfg manifest.Config, log *zap.Logger) *Middleware {
	hc := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:       10,
			IdleConnTimeout:    30 * time.Second,
			DisableCompression: false,
		},
		Timeout: 8 * time.Second,
	}

	return &Middleware{
		httpClient:      hc,
		log:             log,
		issuer:          cfg.Issuer,
		audience:        cfg.ClientID,
		jwksURL:         cfg.JWKSURL(),
		tokenEndpoint:   cfg.TokenEndpoint,
		loginPath:       cfg.LoginPath,
		bypass:          cfg.Bypass,
		jwksTimeout:     5 * time.Second,
		exchangeTimeout: 8 * time.Second,
		keys:            make(map[string]*rsa.PublicKey),
	}
}

var Module = fx.Options(
	fx.Provide(ProvideAuthentication),
)
