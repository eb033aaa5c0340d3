package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "liquidgen_faucet_build_info",
			Help: "Build information of the LiquidGen faucet",
		},
		[]string{"version", "commit", "date"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liquidgen_faucet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liquidgen_faucet_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liquidgen_faucet_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	FaucetRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liquidgen_faucet_requests_total",
			Help: "Total number of faucet requests by outcome",
		},
		[]string{"outcome"}, // "minted", "rate_limited", "cooldown", "unauthorized", "bad_request", "verification_failed", "error"
	)

	MintDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "liquidgen_faucet_mint_duration_seconds",
			Help:    "Duration of mint transaction submission and confirmation",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
	)

	VerificationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liquidgen_faucet_verification_requests_total",
			Help: "Total number of human-verification requests",
		},
		[]string{"status"}, // "pass", "fail", "error"
	)
)

// Middleware returns a chi middleware that records HTTP metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Use the route pattern if available, otherwise use the path
		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}

		status := strconv.Itoa(ww.Status())
		duration := time.Since(start).Seconds()

		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// RecordFaucetRequest records the outcome of a faucet request.
func RecordFaucetRequest(outcome string) {
	FaucetRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordMint records the duration of a mint submission.
func RecordMint(duration time.Duration) {
	MintDuration.Observe(duration.Seconds())
}

// RecordVerification records the result of a verification call.
func RecordVerification(err error, ok bool) {
	switch {
	case err != nil:
		VerificationRequestsTotal.WithLabelValues("error").Inc()
	case ok:
		VerificationRequestsTotal.WithLabelValues("pass").Inc()
	default:
		VerificationRequestsTotal.WithLabelValues("fail").Inc()
	}
}
