package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceBillingCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.EnrollmentCreated(11)
	metrics.PaymentRecorded("PIX", decimal.RequireFromString("405.00"))
	metrics.InstallmentsOverdue(3)
	metrics.InstallmentsOverdue(0)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.PaymentsRecorded)
	assert.Equal(t, uint64(3), snapshot.InstallmentsOverdue)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 0.0001)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `billing_payments_recorded_total{method="PIX"} 1`))
	assert.True(t, strings.Contains(body, "billing_installments_generated_total 11"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.EnrollmentCreated(1)
	metrics.PaymentRecorded("CASH", decimal.NewFromInt(1))
	assert.Equal(t, uint64(0), metrics.Snapshot().PaymentsRecorded)
}
