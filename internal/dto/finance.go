package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-finance-api/internal/models"
)

// AmountBucket is a count of ledger rows and the sum of their values.
type AmountBucket struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// ReceivablesSection summarises tuition still owed for a month.
type ReceivablesSection struct {
	Count       int             `json:"count"`
	Amount      decimal.Decimal `json:"amount"`
	LateCharges decimal.Decimal `json:"lateCharges"`
}

// OutflowSection splits an outgoing ledger into paid and pending buckets.
type OutflowSection struct {
	Paid    AmountBucket `json:"paid"`
	Pending AmountBucket `json:"pending"`
}

// MonthlyDashboardResponse aggregates the finances of one calendar month.
type MonthlyDashboardResponse struct {
	Month           int                `json:"month"`
	Year            int                `json:"year"`
	Revenue         AmountBucket       `json:"revenue"`
	Receivables     ReceivablesSection `json:"receivables"`
	Expenses        OutflowSection     `json:"expenses"`
	Payroll         OutflowSection     `json:"payroll"`
	TotalSpent      decimal.Decimal    `json:"totalSpent"`
	PendingOutflows decimal.Decimal    `json:"pendingOutflows"`
	Profit          decimal.Decimal    `json:"profit"`
}

// AnnualHistoryResponse lists the twelve monthly dashboards of a year in month order.
type AnnualHistoryResponse struct {
	Year   int                        `json:"year"`
	Months []MonthlyDashboardResponse `json:"months"`
}

// YearSummaryResponse combines the current month with the current year's history.
type YearSummaryResponse struct {
	CurrentMonth MonthlyDashboardResponse `json:"currentMonth"`
	History      AnnualHistoryResponse    `json:"history"`
	TotalRevenue decimal.Decimal          `json:"totalRevenue"`
	TotalSpent   decimal.Decimal          `json:"totalSpent"`
	TotalProfit  decimal.Decimal          `json:"totalProfit"`
}

// StatusCount is the number of installments in one status.
type StatusCount struct {
	Status models.InstallmentStatus `json:"status"`
	Count  int                      `json:"count"`
}

// TrendPoint is one month of the trailing revenue versus expense series.
type TrendPoint struct {
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
}

// FrontendMetricsResponse is the denormalised overview consumed by the finance home screen.
type FrontendMetricsResponse struct {
	ActiveStudents      int                           `json:"activeStudents"`
	ActiveTeachers      int                           `json:"activeTeachers"`
	ActiveClasses       int                           `json:"activeClasses"`
	PendingInstallments int                           `json:"pendingInstallments"`
	MonthRevenue        decimal.Decimal               `json:"monthRevenue"`
	MonthExpenses       decimal.Decimal               `json:"monthExpenses"`
	StudentsByClass     []models.ClassEnrollmentCount `json:"studentsByClass"`
	StatusBreakdown     []StatusCount                 `json:"statusBreakdown"`
	Trend               []TrendPoint                  `json:"trend"`
}

// DelinquentStudent groups a student's overdue installments.
type DelinquentStudent struct {
	StudentID    string               `json:"studentId"`
	StudentName  string               `json:"studentName"`
	Installments []models.Installment `json:"installments"`
	TotalOwed    decimal.Decimal      `json:"totalOwed"`
	OverdueCount int                  `json:"overdueCount"`
}
