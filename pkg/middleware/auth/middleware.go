package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/joeydtaylor/authgate/pkg/middleware/metrics"
	"go.uber.org/zap"
)

// Middleware gates every inbound request: verify the presented identity
// token, fall back to a refresh-grant exchange, and on any terminal
// failure clear the session and redirect to the login surface. The only
// requests that skip the gate entirely are the bypass allow-list.
func (m *Middleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.isBypassed(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// A defect in the gate must never admit, and must never leak
			// diagnostics; it becomes a generic 500.
			defer func() {
				if rec := recover(); rec != nil {
					m.log.Error("gate panic",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
					)
					metrics.ObserveGateDecision("fault")
					writeInternalError(w)
				}
			}()

			creds := m.cookies.Read(r)

			if creds.IDToken != "" {
				if s, err := m.verifyToken(r.Context(), creds.IDToken); err == nil {
					metrics.ObserveGateDecision("admit")
					next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
					return
				} else {
					m.log.Debug("identity token failed verification", zap.Error(err))
				}
			}

			if creds.RefreshToken == "" {
				// Nothing to renew with; deny without touching cookies.
				metrics.ObserveGateDecision("deny")
				m.redirectLogin(w, r)
				return
			}

			pair, err := m.refreshExchange(r.Context(), creds.RefreshToken)
			if err != nil {
				m.log.Info("token refresh failed", zap.Error(err))
				metrics.ObserveGateDecision("deny")
				m.cookies.ClearAll(w)
				m.redirectLogin(w, r)
				return
			}

			m.cookies.Issue(w, r, pair.IDToken, pair.AccessToken)

			s, err := m.verifyToken(r.Context(), pair.IDToken)
			if err != nil {
				m.log.Warn("refreshed token failed verification", zap.Error(err))
				metrics.ObserveGateDecision("deny")
				// drop the just-issued pair; only the clearing set goes out
				w.Header().Del("Set-Cookie")
				m.cookies.ClearAll(w)
				m.redirectLogin(w, r)
				return
			}

			metrics.ObserveGateDecision("refresh_admit")
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// LogoutHandler clears the whole cookie set and sends the client to the
// login surface. Refresh-token revocation at the issuer is out of scope.
func (m *Middleware) LogoutHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if creds := m.cookies.Read(r); creds.IDToken != "" || creds.RefreshToken != "" {
			m.cookies.ClearAll(w)
		}
		m.redirectLogin(w, r)
	})
}

func (m *Middleware) redirectLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, m.loginPath, http.StatusSeeOther)
}

func (m *Middleware) isBypassed(path string) bool {
	for _, p := range m.bypass {
		if strings.HasSuffix(p, "/*") {
			if strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"internal_server_error"}`))
}

// WithSession attaches the principal for downstream handlers.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}
