// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crm"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets: []float64{
				0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
			},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	authzDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authz_denied_total",
			Help:      "Authorization decisions that denied an action",
		},
		[]string{"action", "role"},
	)

	roleCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_cache_lookups_total",
			Help:      "Role cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
	)

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by provider and outcome",
		},
		[]string{"provider", "status"},
	)
)

func RecordHTTPRequest(
	method, route string,
	status int,
	duration time.Duration,
) {
	httpRequestsTotal.WithLabelValues(
		method,
		route,
		strconv.Itoa(status),
	).Inc()
	httpRequestDuration.WithLabelValues(method, route).
		Observe(duration.Seconds())
}

func IncInFlight() { httpRequestsInFlight.Inc() }

func DecInFlight() { httpRequestsInFlight.Dec() }

func RecordAuthzDenied(action, role string) {
	authzDeniedTotal.WithLabelValues(action, role).Inc()
}

func RecordRoleCacheHit() { roleCacheTotal.WithLabelValues("hit").Inc() }

func RecordRoleCacheMiss() { roleCacheTotal.WithLabelValues("miss").Inc() }

func RecordRoleCacheError() { roleCacheTotal.WithLabelValues("error").Inc() }

func RecordRateLimited() { rateLimitedTotal.Inc() }

func RecordLogin(provider, status string) {
	loginsTotal.WithLabelValues(provider, status).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
