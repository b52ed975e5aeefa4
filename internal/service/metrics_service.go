package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

const metricsNamespace = "school_api"

// Report cache outcomes used as the result label.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
	CacheOK    = "ok"
)

// MetricsSnapshot is a point-in-time summary exposed by the health endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	StoreQueryCount          uint64    `json:"storeQueryCount"`
	AverageStoreQueryMs      float64   `json:"averageStoreQueryMs"`
	ReportCacheHitRatio      float64   `json:"reportCacheHitRatio"`
	PartialCascades          uint64    `json:"partialCascades"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService owns the Prometheus registry of the API and keeps running totals for
// the health snapshot.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requests    *prometheus.HistogramVec
	storeCalls  *prometheus.HistogramVec
	reportCache *prometheus.HistogramVec
	cascades    *prometheus.CounterVec

	requestCount   atomic.Uint64
	requestNanos   atomic.Uint64
	storeCount     atomic.Uint64
	storeNanos     atomic.Uint64
	cacheHits      atomic.Uint64
	cacheLookups   atomic.Uint64
	partialCascade atomic.Uint64
}

// NewMetricsService registers the API collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP requests by method, route template and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	m.storeCalls = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "store",
		Name:      "call_duration_seconds",
		Help:      "Entity store calls labelled collection.operation.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"call"})

	m.reportCache = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "report_cache",
		Name:      "operation_duration_seconds",
		Help:      "Report cache operations by kind and result.",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1},
	}, []string{"op", "result"})

	m.cascades = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cascade",
		Name:      "runs_total",
		Help:      "Cascades by operation and final journal status.",
	}, []string{"operation", "status"})

	m.registry.MustRegister(
		m.requests,
		m.storeCalls,
		m.reportCache,
		m.cascades,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus scrape handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	m.requestCount.Add(1)
	m.requestNanos.Add(uint64(duration))
}

// ObserveReportCache records a report cache get, set or invalidate with its result.
func (m *MetricsService) ObserveReportCache(op, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.reportCache.WithLabelValues(op, result).Observe(duration.Seconds())
	if op != "get" {
		return
	}
	m.cacheLookups.Add(1)
	if result == CacheHit {
		m.cacheHits.Add(1)
	}
}

// RecordCascade counts a cascade outcome.
func (m *MetricsService) RecordCascade(operation, status string) {
	if m == nil {
		return
	}
	m.cascades.WithLabelValues(operation, status).Inc()
	if status == models.CascadePartial {
		m.partialCascade.Add(1)
	}
}

// ObserveDBQuery records entity store call timing.
func (m *MetricsService) ObserveDBQuery(call string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeCalls.WithLabelValues(call).Observe(duration.Seconds())
	m.storeCount.Add(1)
	m.storeNanos.Add(uint64(duration))
}

// Snapshot summarises the running totals.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Goroutines: runtime.NumGoroutine(), GeneratedAt: time.Now().UTC()}
	if m == nil {
		return snap
	}
	snap.RequestsTotal = m.requestCount.Load()
	snap.AverageRequestDurationMs = averageMs(m.requestNanos.Load(), snap.RequestsTotal)
	snap.StoreQueryCount = m.storeCount.Load()
	snap.AverageStoreQueryMs = averageMs(m.storeNanos.Load(), snap.StoreQueryCount)
	if lookups := m.cacheLookups.Load(); lookups > 0 {
		snap.ReportCacheHitRatio = float64(m.cacheHits.Load()) / float64(lookups)
	}
	snap.PartialCascades = m.partialCascade.Load()
	return snap
}

func averageMs(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
