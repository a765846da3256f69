package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carelink", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carelink", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// BackendOps counts store operations by backend, operation and result
	// (ok, not_found, conflict, error).
	BackendOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carelink", Name: "store_operations_total", Help: "Store operations by backend, operation and result."},
		[]string{"backend", "op", "result"},
	)
	GatewayFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carelink", Name: "gateway_fallbacks_total", Help: "Operations served by the record store because the primary failed."},
		[]string{"collection", "op"},
	)
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carelink", Name: "logins_total", Help: "Login attempts by outcome."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(BackendOps)
	reg.MustRegister(GatewayFallbacks)
	reg.MustRegister(Logins)
}
