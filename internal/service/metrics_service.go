package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/bureau-roster-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// the settings cache and the request workflow. A nil service is a no-op.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	cacheWrite        prometheus.Observer
	cacheLookups      *prometheus.CounterVec
	requestsSubmitted *prometheus.CounterVec
	decisions         *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	pushDeliveries    *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	requestsSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "governance_requests_submitted_total",
		Help: "Member requests accepted for review",
	}, []string{"kind"})

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "governance_decisions_total",
		Help: "Review decisions applied",
	}, []string{"kind", "outcome"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "governance_notifications_total",
		Help: "Notifications created",
	}, []string{"kind"})

	pushDeliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_push_total",
		Help: "Out-of-band notification deliveries by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		requestsSubmitted, decisions, notifications, pushDeliveries, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheLookups:      cacheLookups,
		requestsSubmitted: requestsSubmitted,
		decisions:         decisions,
		notifications:     notifications,
		pushDeliveries:    pushDeliveries,
	}
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordRequestSubmitted counts an accepted request.
func (m *MetricsService) RecordRequestSubmitted(kind models.RequestKind) {
	if m == nil {
		return
	}
	m.requestsSubmitted.WithLabelValues(string(kind)).Inc()
}

// RecordDecision counts an applied decision.
func (m *MetricsService) RecordDecision(kind models.RequestKind, outcome models.RequestStatus) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(kind), string(outcome)).Inc()
}

// RecordNotifications counts created notifications by kind.
func (m *MetricsService) RecordNotifications(notifications ...*models.Notification) {
	if m == nil {
		return
	}
	for _, n := range notifications {
		m.notifications.WithLabelValues(string(n.Kind)).Inc()
	}
}

// RecordPush counts a push delivery attempt outcome.
func (m *MetricsService) RecordPush(result string) {
	if m == nil {
		return
	}
	m.pushDeliveries.WithLabelValues(result).Inc()
}
