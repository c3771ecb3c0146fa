package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-finance-api/internal/dto"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	enrollmentsCreated    prometheus.Counter
	installmentsGenerated prometheus.Counter
	installmentsSwept     prometheus.Counter
	installmentsCanceled  prometheus.Counter
	lateFeesApplied       prometheus.Counter
	paymentsRecorded      *prometheus.CounterVec
	paymentsAmount        prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	paymentCount         uint64
	sweptCount           uint64
}

// NewMetricsService registers HTTP, cache and billing collectors.
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
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	enrollmentsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_enrollments_created_total",
		Help: "Enrollments created",
	})

	installmentsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_installments_generated_total",
		Help: "Installments generated from enrollments",
	})

	installmentsSwept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_installments_overdue_total",
		Help: "Installments moved to OVERDUE by the sweep or a late fee",
	})

	installmentsCanceled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_installments_canceled_total",
		Help: "Installments canceled together with their enrollment",
	})

	lateFeesApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_late_fees_applied_total",
		Help: "Late fee operations applied to installments",
	})

	paymentsRecorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_payments_recorded_total",
		Help: "Tuition payments recorded by method",
	}, []string{"method"})

	paymentsAmount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_payments_amount_total",
		Help: "Sum of recorded tuition payments",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		enrollmentsCreated, installmentsGenerated, installmentsSwept, installmentsCanceled, lateFeesApplied,
		paymentsRecorded, paymentsAmount, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:              registry,
		handler:               handler,
		requestDuration:       requestDuration,
		requestTotal:          requestTotal,
		cacheLatency:          cacheLatency,
		cacheWrite:            cacheWrite,
		cacheHitRatio:         cacheHitRatio,
		cacheHits:             cacheHits,
		cacheMisses:           cacheMisses,
		enrollmentsCreated:    enrollmentsCreated,
		installmentsGenerated: installmentsGenerated,
		installmentsSwept:     installmentsSwept,
		installmentsCanceled:  installmentsCanceled,
		lateFeesApplied:       lateFeesApplied,
		paymentsRecorded:      paymentsRecorded,
		paymentsAmount:        paymentsAmount,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// EnrollmentCreated counts a new enrollment and its generated installments.
func (m *MetricsService) EnrollmentCreated(installments int) {
	if m == nil {
		return
	}
	m.enrollmentsCreated.Inc()
	m.installmentsGenerated.Add(float64(installments))
}

// InstallmentsOverdue counts installments that became OVERDUE.
func (m *MetricsService) InstallmentsOverdue(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.installmentsSwept.Add(float64(n))
	atomic.AddUint64(&m.sweptCount, uint64(n))
}

// InstallmentsCanceled counts installments canceled with their enrollment.
func (m *MetricsService) InstallmentsCanceled(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.installmentsCanceled.Add(float64(n))
}

// LateFeeApplied counts a late fee operation.
func (m *MetricsService) LateFeeApplied() {
	if m == nil {
		return
	}
	m.lateFeesApplied.Inc()
}

// PaymentRecorded counts a settled installment and its paid amount.
func (m *MetricsService) PaymentRecorded(method string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(method).Inc()
	m.paymentsAmount.Add(amount.InexactFloat64())
	atomic.AddUint64(&m.paymentCount, 1)
}

// Snapshot returns aggregated process metrics for the admin metrics endpoint.
func (m *MetricsService) Snapshot() dto.SystemMetrics {
	if m == nil {
		return dto.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return dto.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		PaymentsRecorded:         atomic.LoadUint64(&m.paymentCount),
		InstallmentsOverdue:      atomic.LoadUint64(&m.sweptCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
