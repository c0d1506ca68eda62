package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/joeydtaylor/authgate/pkg/middleware/auth"
	"go.uber.org/zap"
)

const (
	headerSessionEmail   = "X-Session-Email"
	headerSessionDevices = "X-Session-Device-Ids"
)

// New forwards requests to target. The gate's session context, when
// present, is exposed to the upstream as headers; inbound copies of
// those headers are always stripped so clients cannot forge them.
func New(target *url.URL, log *zap.Logger) http.Handler {
	p := httputil.NewSingleHostReverseProxy(target)

	base := p.Director
	p.Director = func(req *http.Request) {
		base(req)
		req.Header.Del(headerSessionEmail)
		req.Header.Del(headerSessionDevices)
		if s, ok := auth.SessionFromContext(req.Context()); ok {
			req.Header.Set(headerSessionEmail, s.Email)
			if len(s.DeviceIDs) > 0 {
				req.Header.Set(headerSessionDevices, strings.Join(s.DeviceIDs, ","))
			}
		}
	}

	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error("upstream unreachable",
			zap.String("target", target.String()),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
	}

	return p
}
