// pkg/core/router.go
package core

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimd "github.com/go-chi/chi/v5/middleware"
	manifest "github.com/joeydtaylor/authgate/pkg/manifest"
	"github.com/joeydtaylor/authgate/pkg/middleware/auth"
	"github.com/joeydtaylor/authgate/pkg/middleware/logger"
	hmetrics "github.com/joeydtaylor/authgate/pkg/middleware/metrics"
	"github.com/joeydtaylor/authgate/pkg/proxy"
	httpx "github.com/joeydtaylor/authgate/pkg/transport/httpx"
	"go.uber.org/zap"
)

type BuildDeps struct {
	Auth    *auth.Middleware
	LogMW   *logger.Middleware
	Metrics http.Handler
	Router  httpx.Router
	Log     *zap.Logger
}

// BuildRouter assembles the gateway: base middleware, the gate, the
// login surface, and the catch-all forward to the protected upstream.
// Metrics wrap the gate so denials are counted; the access logger runs
// inside it so admitted requests log with their session identity.
func BuildRouter(cfg manifest.Config, d BuildDeps) (http.Handler, error) {
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, err
	}

	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))
	r.Use(hmetrics.Collect())
	if d.Auth != nil {
		r.Use(d.Auth.Middleware())
	}
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware(d.Auth))
	}

	r.Handle(http.MethodGet, "/metrics", d.Metrics)
	r.Mount("/auth", authSurface(cfg, d))
	r.HandleAll("/*", proxy.New(upstream, d.Log))
	return r.Mux(), nil
}

// authSurface hosts logout plus the externally served login/signup
// pages. The whole prefix sits on the bypass list, so nothing here is
// gated.
func authSurface(cfg manifest.Config, d BuildDeps) http.Handler {
	sub := chi.NewRouter()
	sub.Get("/logout", d.Auth.LogoutHandler().ServeHTTP)
	if cfg.FormServer != "" {
		form, err := url.Parse(cfg.FormServer)
		if err != nil {
			d.Log.Fatal("form_server parse failed", zap.Error(err), zap.String("url", cfg.FormServer))
		}
		sub.NotFound(proxy.New(form, d.Log).ServeHTTP)
	}
	return sub
}
