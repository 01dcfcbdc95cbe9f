package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Token validation outcomes recorded by ObserveValidation.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeRevoked = "revoked"
	OutcomeError   = "error"
)

// MetricsService encapsulates Prometheus instrumentation for the token lifecycle.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	tokensIssued    prometheus.Counter
	loginFailures   prometheus.Counter
	validations     *prometheus.CounterVec
	revocations     *prometheus.CounterVec
	pruned          prometheus.Counter
	storeDuration   *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	tokensIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Session tokens issued after a successful login",
	})

	loginFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_login_failures_total",
		Help: "Login attempts rejected by the authenticator",
	})

	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_validations_total",
		Help: "Token validations by outcome",
	}, []string{"outcome"})

	revocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_revocations_total",
		Help: "Logout attempts by result",
	}, []string{"result"})

	pruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_revocations_pruned_total",
		Help: "Expired revocation records deleted by the pruner",
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auth_revocation_store_duration_seconds",
		Help:    "Latency of revocation store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_revocation_cache_lookups_total",
		Help: "Revocation cache lookups by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, tokensIssued, loginFailures, validations, revocations, pruned, storeDuration, cacheLookups, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		tokensIssued:    tokensIssued,
		loginFailures:   loginFailures,
		validations:     validations,
		revocations:     revocations,
		pruned:          pruned,
		storeDuration:   storeDuration,
		cacheLookups:    cacheLookups,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveLogin counts issued tokens and rejected credentials.
func (m *MetricsService) ObserveLogin(success bool) {
	if m == nil {
		return
	}
	if success {
		m.tokensIssued.Inc()
		return
	}
	m.loginFailures.Inc()
}

// ObserveValidation counts a validate-token verdict.
func (m *MetricsService) ObserveValidation(outcome string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(outcome).Inc()
}

// ObserveRevocation counts a logout result.
func (m *MetricsService) ObserveRevocation(result string) {
	if m == nil {
		return
	}
	m.revocations.WithLabelValues(result).Inc()
}

// ObservePrune adds pruned record counts.
func (m *MetricsService) ObservePrune(deleted int64) {
	if m == nil || deleted <= 0 {
		return
	}
	m.pruned.Add(float64(deleted))
}

// ObserveStore records revocation store latency per operation.
func (m *MetricsService) ObserveStore(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveCacheLookup records a revocation cache hit, miss or error.
func (m *MetricsService) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
