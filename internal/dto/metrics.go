package dto

import "time"

// SystemMetrics is a point-in-time view of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	PaymentsRecorded         uint64    `json:"paymentsRecorded"`
	InstallmentsOverdue      uint64    `json:"installmentsOverdue"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
