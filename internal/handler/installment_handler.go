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

type installmentService interface {
	Get(ctx context.Context, id string) (*models.Installment, error)
	List(ctx context.Context, filter models.InstallmentFilter) ([]models.InstallmentDetail, error)
	MarkOverdueSweep(ctx context.Context, asOf time.Time) (int64, error)
	ApplyLateFee(ctx context.Context, id string, req service.ApplyLateFeeRequest) (*models.Installment, error)
}

type paymentService interface {
	RegisterPayment(ctx context.Context, installmentID string, req service.RegisterPaymentRequest) (*models.Installment, error)
}

// InstallmentHandler exposes the tuition ledger.
type InstallmentHandler struct {
	installments installmentService
	payments     paymentService
	now          func() time.Time
}

// NewInstallmentHandler constructs InstallmentHandler.
func NewInstallmentHandler(installments installmentService, payments paymentService) *InstallmentHandler {
	return &InstallmentHandler{installments: installments, payments: payments, now: time.Now}
}

// List godoc
// @Summary List installments
// @Tags Installments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param enrollmentId query string false "Filter by enrollment"
// @Param month query int false "Reference month"
// @Param year query int false "Reference year"
// @Param status query string false "PENDING, OVERDUE, PAID or CANCELED"
// @Success 200 {object} response.Envelope
// @Router /installments [get]
func (h *InstallmentHandler) List(c *gin.Context) {
	filter := models.InstallmentFilter{
		StudentID:    c.Query("studentId"),
		EnrollmentID: c.Query("enrollmentId"),
		Status:       models.InstallmentStatus(strings.ToUpper(c.Query("status"))),
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
	items, err := h.installments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get installment
// @Tags Installments
// @Produce json
// @Param id path string true "Installment ID"
// @Success 200 {object} response.Envelope
// @Router /installments/{id} [get]
func (h *InstallmentHandler) Get(c *gin.Context) {
	installment, err := h.installments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, installment, nil)
}

// Pay godoc
// @Summary Register installment payment
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path string true "Installment ID"
// @Param payload body service.RegisterPaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /installments/{id}/payments [post]
func (h *InstallmentHandler) Pay(c *gin.Context) {
	var req service.RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	installment, err := h.payments.RegisterPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, installment, nil)
}

// ApplyLateFee godoc
// @Summary Apply late fee and interest
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path string true "Installment ID"
// @Param payload body service.ApplyLateFeeRequest true "Charges"
// @Success 200 {object} response.Envelope
// @Router /installments/{id}/late-fee [post]
func (h *InstallmentHandler) ApplyLateFee(c *gin.Context) {
	var req service.ApplyLateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	installment, err := h.installments.ApplyLateFee(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, installment, nil)
}

// Sweep godoc
// @Summary Mark past-due installments overdue
// @Tags Installments
// @Produce json
// @Param asOf query string false "Reference date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /installments/overdue-sweep [post]
func (h *InstallmentHandler) Sweep(c *gin.Context) {
	asOf, err := queryDate(c, "asOf", h.now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	changed, err := h.installments.MarkOverdueSweep(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"as_of": models.StartOfDay(asOf).Format(dateLayout), "changed": changed}, nil)
}
