package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerStatus is the status vocabulary shared by expenses and payroll payments.
type LedgerStatus string

// Ledger states. PAID and CANCELED are terminal.
const (
	LedgerStatusPending  LedgerStatus = "PENDING"
	LedgerStatusPaid     LedgerStatus = "PAID"
	LedgerStatusCanceled LedgerStatus = "CANCELED"
)

// Expense is an outgoing payment owed by the school.
type Expense struct {
	ID            string          `db:"id" json:"id"`
	Description   string          `db:"description" json:"description"`
	Category      string          `db:"category" json:"category"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	DueDate       time.Time       `db:"due_date" json:"due_date"`
	PaymentDate   *time.Time      `db:"payment_date" json:"payment_date,omitempty"`
	PaymentMethod *PaymentMethod  `db:"payment_method" json:"payment_method,omitempty"`
	Status        LedgerStatus    `db:"status" json:"status"`
	Notes         string          `db:"notes" json:"notes"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ExpenseFilter narrows expense listings by due-date month.
type ExpenseFilter struct {
	Month    int
	Year     int
	Status   LedgerStatus
	Category string
}

// LedgerStatusSummary aggregates expense or payroll rows of one status.
type LedgerStatusSummary struct {
	Status LedgerStatus    `db:"status"`
	Count  int             `db:"count"`
	Total  decimal.Decimal `db:"total"`
}
