package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-finance-api/internal/dto"
	"github.com/noah-isme/sma-finance-api/internal/middleware"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
	"github.com/noah-isme/sma-finance-api/pkg/response"
)

type dashboardService interface {
	MonthlyDashboard(ctx context.Context, month, year int) (*dto.MonthlyDashboardResponse, bool, error)
	AnnualHistory(ctx context.Context, year int) (*dto.AnnualHistoryResponse, bool, error)
	YearSummary(ctx context.Context) (*dto.YearSummaryResponse, bool, error)
	FrontendMetrics(ctx context.Context) (*dto.FrontendMetricsResponse, bool, error)
}

// DashboardHandler wires the finance dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
	now     func() time.Time
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service, now: time.Now}
}

// Monthly godoc
// @Summary Monthly financial dashboard
// @Tags Dashboard
// @Produce json
// @Param month query int false "Month (1-12). Defaults to the current month"
// @Param year query int false "Year. Defaults to the current year"
// @Success 200 {object} response.Envelope
// @Router /finance/dashboard [get]
func (h *DashboardHandler) Monthly(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	month, year, err := monthAndYear(c, h.now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "period", fmt.Sprintf("%04d-%02d", year, month))
	start := time.Now()
	dashboard, cacheHit, err := h.service.MonthlyDashboard(c.Request.Context(), month, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, dashboard, cacheHit, start)
}

// History godoc
// @Summary Monthly dashboards of a year
// @Tags Dashboard
// @Produce json
// @Param year query int false "Year. Defaults to the current year"
// @Success 200 {object} response.Envelope
// @Router /finance/history [get]
func (h *DashboardHandler) History(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	year, err := queryInt(c, "year", h.now().UTC().Year())
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	history, cacheHit, err := h.service.AnnualHistory(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, history, cacheHit, start)
}

// Summary godoc
// @Summary Current month and year-to-date totals
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /finance/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.YearSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, summary, cacheHit, start)
}

// Overview godoc
// @Summary Finance home screen metrics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /finance/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	metrics, cacheHit, err := h.service.FrontendMetrics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, metrics, cacheHit, start)
}

func (h *DashboardHandler) respond(c *gin.Context, data interface{}, cacheHit bool, start time.Time) {
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "processing_time_ms", time.Since(start).Milliseconds())
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}
