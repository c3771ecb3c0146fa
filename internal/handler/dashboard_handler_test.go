package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-finance-api/internal/dto"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

type fakeDashboardSrv struct {
	monthly   *dto.MonthlyDashboardResponse
	hit       bool
	err       error
	lastMonth int
	lastYear  int
}

func (f *fakeDashboardSrv) MonthlyDashboard(_ context.Context, month, year int) (*dto.MonthlyDashboardResponse, bool, error) {
	f.lastMonth, f.lastYear = month, year
	return f.monthly, f.hit, f.err
}

func (f *fakeDashboardSrv) AnnualHistory(_ context.Context, year int) (*dto.AnnualHistoryResponse, bool, error) {
	f.lastYear = year
	return &dto.AnnualHistoryResponse{Year: year}, f.hit, f.err
}

func (f *fakeDashboardSrv) YearSummary(context.Context) (*dto.YearSummaryResponse, bool, error) {
	return &dto.YearSummaryResponse{}, f.hit, f.err
}

func (f *fakeDashboardSrv) FrontendMetrics(context.Context) (*dto.FrontendMetricsResponse, bool, error) {
	return &dto.FrontendMetricsResponse{ActiveStudents: 12}, f.hit, f.err
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *appErrors.Error       `json:"error"`
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestDashboardHandlerMonthlyDefaultsToCurrentMonth(t *testing.T) {
	srv := &fakeDashboardSrv{monthly: &dto.MonthlyDashboardResponse{Month: 3, Year: 2024}, hit: true}
	handler := NewDashboardHandler(srv)
	handler.now = func() time.Time { return time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC) }
	c, rec := newTestContext(http.MethodGet, "/finance/dashboard")

	handler.Monthly(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, srv.lastMonth)
	assert.Equal(t, 2024, srv.lastYear)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, float64(3), envelope.Data["month"])
}

func TestDashboardHandlerMonthlyRejectsBadQuery(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{})
	c, rec := newTestContext(http.MethodGet, "/finance/dashboard?month=march")

	handler.Monthly(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandlerPropagatesServiceErrors(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")})
	c, rec := newTestContext(http.MethodGet, "/finance/dashboard?month=13&year=2024")

	handler.Monthly(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestDashboardHandlerHistoryUsesYearQuery(t *testing.T) {
	srv := &fakeDashboardSrv{}
	handler := NewDashboardHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/finance/history?year=2023")

	handler.History(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2023, srv.lastYear)
	assert.Equal(t, false, decodeEnvelope(t, rec).Meta["cache_hit"])
}

func TestDashboardHandlerOverview(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{})
	c, rec := newTestContext(http.MethodGet, "/finance/overview")

	handler.Overview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(12), decodeEnvelope(t, rec).Data["activeStudents"])
}

func TestDashboardHandlerWithoutService(t *testing.T) {
	handler := NewDashboardHandler(nil)
	c, rec := newTestContext(http.MethodGet, "/finance/summary")

	handler.Summary(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
