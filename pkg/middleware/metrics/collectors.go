package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	responseTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60},
		},
	)

	totalHttpRequestsToUri = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
		[]string{"code", "uri", "method"},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
		[]string{"code", "method"},
	)

	gateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gate_decisions_total", Help: "gating outcomes by decision"},
		[]string{"decision"},
	)

	jwksFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "jwks_fetches_total", Help: "key set fetches by outcome"},
		[]string{"outcome"},
	)

	tokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "token_refreshes_total", Help: "refresh-grant exchanges by outcome"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		responseTime,
		totalHttpRequestsToUri,
		totalHttpRequests,
		gateDecisions,
		jwksFetches,
		tokenRefreshes,
	)
}

// ObserveGateDecision records one gating outcome (admit, refresh_admit,
// deny, fault).
func ObserveGateDecision(decision string) { gateDecisions.WithLabelValues(decision).Inc() }

// ObserveJWKSFetch records one key-set resolution (ok, error).
func ObserveJWKSFetch(outcome string) { jwksFetches.WithLabelValues(outcome).Inc() }

// ObserveTokenRefresh records one refresh exchange (ok, rejected,
// transport_error).
func ObserveTokenRefresh(outcome string) { tokenRefreshes.WithLabelValues(outcome).Inc() }
