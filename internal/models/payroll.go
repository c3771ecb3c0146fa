package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayrollPayment is a monthly salary payment to a staff member.
type PayrollPayment struct {
	ID             string          `db:"id" json:"id"`
	StaffID        string          `db:"staff_id" json:"staff_id"`
	ReferenceMonth int             `db:"reference_month" json:"reference_month"`
	ReferenceYear  int             `db:"reference_year" json:"reference_year"`
	GrossAmount    decimal.Decimal `db:"gross_amount" json:"gross_amount"`
	Deductions     decimal.Decimal `db:"deductions" json:"deductions"`
	NetAmount      decimal.Decimal `db:"net_amount" json:"net_amount"`
	DueDate        time.Time       `db:"due_date" json:"due_date"`
	PaymentDate    *time.Time      `db:"payment_date" json:"payment_date,omitempty"`
	Status         LedgerStatus    `db:"status" json:"status"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// PayrollDetail adds the staff member's name for listings.
type PayrollDetail struct {
	PayrollPayment
	StaffName string `db:"staff_name" json:"staff_name"`
}

// PayrollFilter narrows payroll listings.
type PayrollFilter struct {
	StaffID string
	Month   int
	Year    int
	Status  LedgerStatus
}
