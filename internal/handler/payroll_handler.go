package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-finance-api/internal/models"
	"github.com/noah-isme/sma-finance-api/internal/service"
	"github.com/noah-isme/sma-finance-api/pkg/response"
)

type payrollService interface {
	Create(ctx context.Context, req service.CreatePayrollRequest) (*models.PayrollPayment, error)
	GenerateForMonth(ctx context.Context, req service.GeneratePayrollRequest) (*service.GeneratePayrollResult, error)
	List(ctx context.Context, filter models.PayrollFilter) ([]models.PayrollDetail, error)
	Pay(ctx context.Context, id string, paymentDate *time.Time) (*models.PayrollPayment, error)
	Cancel(ctx context.Context, id string) (*models.PayrollPayment, error)
}

type payPayrollRequest struct {
	PaymentDate *time.Time `json:"payment_date"`
}

// PayrollHandler exposes the payroll ledger.
type PayrollHandler struct {
	payroll payrollService
}

// NewPayrollHandler constructs PayrollHandler.
func NewPayrollHandler(payroll payrollService) *PayrollHandler {
	return &PayrollHandler{payroll: payroll}
}

// List godoc
// @Summary List payroll payments
// @Tags Payroll
// @Produce json
// @Param staffId query string false "Filter by staff member"
// @Param month query int false "Reference month"
// @Param year query int false "Reference year"
// @Param status query string false "PENDING, PAID or CANCELED"
// @Success 200 {object} response.Envelope
// @Router /payroll [get]
func (h *PayrollHandler) List(c *gin.Context) {
	filter := models.PayrollFilter{
		StaffID: c.Query("staffId"),
		Status:  models.LedgerStatus(strings.ToUpper(c.Query("status"))),
	}
	var err error
	if filter.Month, err = queryInt(c, "month", 0); err != nil {
		response.Error(c, err)
		return
	}
	if filter.Year, err = queryInt(c, "year", 0); err != nil {
		response.Error(c, err)
		return
	}
	payments, err := h.payroll.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Create godoc
// @Summary Register payroll payment
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body service.CreatePayrollRequest true "Payroll payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payroll [post]
func (h *PayrollHandler) Create(c *gin.Context) {
	var req service.CreatePayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	payment, err := h.payroll.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Generate godoc
// @Summary Generate payroll for every active teacher
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body service.GeneratePayrollRequest true "Reference month"
// @Success 200 {object} response.Envelope
// @Router /payroll/generate [post]
func (h *PayrollHandler) Generate(c *gin.Context) {
	var req service.GeneratePayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.payroll.GenerateForMonth(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Pay godoc
// @Summary Pay payroll payment
// @Tags Payroll
// @Accept json
// @Produce json
// @Param id path string true "Payroll payment ID"
// @Success 200 {object} response.Envelope
// @Router /payroll/{id}/pay [post]
func (h *PayrollHandler) Pay(c *gin.Context) {
	var req payPayrollRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, invalidPayload(err))
			return
		}
	}
	payment, err := h.payroll.Pay(c.Request.Context(), c.Param("id"), req.PaymentDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Cancel godoc
// @Summary Cancel payroll payment
// @Tags Payroll
// @Produce json
// @Param id path string true "Payroll payment ID"
// @Success 200 {object} response.Envelope
// @Router /payroll/{id}/cancel [post]
func (h *PayrollHandler) Cancel(c *gin.Context) {
	payment, err := h.payroll.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}
