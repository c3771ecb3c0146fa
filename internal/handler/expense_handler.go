package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-finance-api/internal/models"
	"github.com/noah-isme/sma-finance-api/internal/service"
	"github.com/noah-isme/sma-finance-api/pkg/response"
)

type expenseService interface {
	Create(ctx context.Context, req service.CreateExpenseRequest) (*models.Expense, error)
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error)
	Pay(ctx context.Context, id string, req service.PayExpenseRequest) (*models.Expense, error)
	Cancel(ctx context.Context, id string) (*models.Expense, error)
}

// ExpenseHandler exposes the expense ledger.
type ExpenseHandler struct {
	expenses expenseService
}

// NewExpenseHandler constructs ExpenseHandler.
func NewExpenseHandler(expenses expenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// List godoc
// @Summary List expenses
// @Tags Expenses
// @Produce json
// @Param month query int false "Due month"
// @Param year query int false "Due year"
// @Param status query string false "PENDING, PAID or CANCELED"
// @Param category query string false "Category"
// @Success 200 {object} response.Envelope
// @Router /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	filter := models.ExpenseFilter{
		Status:   models.LedgerStatus(strings.ToUpper(c.Query("status"))),
		Category: c.Query("category"),
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
	expenses, err := h.expenses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expenses, nil)
}

// Create godoc
// @Summary Register expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Param payload body service.CreateExpenseRequest true "Expense payload"
// @Success 201 {object} response.Envelope
// @Router /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	expense, err := h.expenses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, expense)
}

// Pay godoc
// @Summary Pay expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param payload body service.PayExpenseRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Router /expenses/{id}/pay [post]
func (h *ExpenseHandler) Pay(c *gin.Context) {
	var req service.PayExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	expense, err := h.expenses.Pay(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expense, nil)
}

// Cancel godoc
// @Summary Cancel expense
// @Tags Expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} response.Envelope
// @Router /expenses/{id}/cancel [post]
func (h *ExpenseHandler) Cancel(c *gin.Context) {
	expense, err := h.expenses.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expense, nil)
}
