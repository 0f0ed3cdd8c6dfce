// Package metrics exposes Prometheus collectors for HTTP traffic and
// property-room activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malkhana_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "malkhana_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "malkhana_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	casesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "malkhana_cases_created_total",
			Help: "Total number of cases registered",
		},
	)

	casesDisposed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malkhana_cases_disposed_total",
			Help: "Total number of cases disposed, by disposal type",
		},
		[]string{"disposal_type"},
	)

	custodyLogsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "malkhana_custody_logs_appended_total",
			Help: "Total number of custody transfers recorded",
		},
	)

	qrCodesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "malkhana_qr_codes_generated_total",
			Help: "Total number of property QR codes rendered",
		},
	)

	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malkhana_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	authorizationDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malkhana_authorization_denials_total",
			Help: "Total number of requests refused by the role policy",
		},
		[]string{"action"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one finished HTTP request
func ObserveRequest(method, route, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RequestStarted marks a request as in flight and returns the func that ends it
func RequestStarted() func() {
	httpRequestsInFlight.Inc()
	return httpRequestsInFlight.Dec
}

// --- Business metric helpers ---

// RecordCaseCreated records a case registration
func RecordCaseCreated() {
	casesCreated.Inc()
}

// RecordCaseDisposed records a PENDING to DISPOSED transition
func RecordCaseDisposed(disposalType string) {
	casesDisposed.WithLabelValues(disposalType).Inc()
}

// RecordCustodyLog records an appended custody transfer
func RecordCustodyLog() {
	custodyLogsAppended.Inc()
}

// RecordQRCodeGenerated records a freshly rendered QR code
func RecordQRCodeGenerated() {
	qrCodesGenerated.Inc()
}

// RecordLogin records a login attempt outcome, "success" or "failure"
func RecordLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// RecordDenied records a policy refusal for action
func RecordDenied(action string) {
	authorizationDenials.WithLabelValues(action).Inc()
}
