package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus is the state of a monthly tuition charge.
type InstallmentStatus string

// Installment states. PAID and CANCELED are terminal.
const (
	InstallmentStatusPending  InstallmentStatus = "PENDING"
	InstallmentStatusPaid     InstallmentStatus = "PAID"
	InstallmentStatusOverdue  InstallmentStatus = "OVERDUE"
	InstallmentStatusCanceled InstallmentStatus = "CANCELED"
)

// InstallmentStatuses lists every installment state in display order.
var InstallmentStatuses = []InstallmentStatus{
	InstallmentStatusPending,
	InstallmentStatusOverdue,
	InstallmentStatusPaid,
	InstallmentStatusCanceled,
}

var installmentTransitions = map[InstallmentStatus][]InstallmentStatus{
	InstallmentStatusPending: {InstallmentStatusPaid, InstallmentStatusOverdue, InstallmentStatusCanceled},
	InstallmentStatusOverdue: {InstallmentStatusPaid, InstallmentStatusCanceled},
}

// CanTransitionTo reports whether the ledger allows moving from s to next.
func (s InstallmentStatus) CanTransitionTo(next InstallmentStatus) bool {
	for _, allowed := range installmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s InstallmentStatus) Terminal() bool {
	return len(installmentTransitions[s]) == 0
}

// Valid reports whether s is a known state.
func (s InstallmentStatus) Valid() bool {
	for _, known := range InstallmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentMethod enumerates accepted tuition payment channels.
type PaymentMethod string

// Accepted payment methods.
const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodPix          PaymentMethod = "PIX"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodBankSlip     PaymentMethod = "BANK_SLIP"
)

// Installment is one month's tuition charge derived from an enrollment.
type Installment struct {
	ID              string              `db:"id" json:"id"`
	StudentID       string              `db:"student_id" json:"student_id"`
	EnrollmentID    string              `db:"enrollment_id" json:"enrollment_id"`
	ReferenceMonth  int                 `db:"reference_month" json:"reference_month"`
	ReferenceYear   int                 `db:"reference_year" json:"reference_year"`
	Amount          decimal.Decimal     `db:"amount" json:"amount"`
	PaidAmount      decimal.NullDecimal `db:"paid_amount" json:"paid_amount"`
	Discount        decimal.Decimal     `db:"discount" json:"discount"`
	LateFee         decimal.Decimal     `db:"late_fee" json:"late_fee"`
	Interest        decimal.Decimal     `db:"interest" json:"interest"`
	Surcharge       decimal.Decimal     `db:"surcharge" json:"surcharge"`
	DiscountReason  *string             `db:"discount_reason" json:"discount_reason,omitempty"`
	SurchargeReason *string             `db:"surcharge_reason" json:"surcharge_reason,omitempty"`
	DueDate         time.Time           `db:"due_date" json:"due_date"`
	PaymentDate     *time.Time          `db:"payment_date" json:"payment_date,omitempty"`
	PaymentMethod   *PaymentMethod      `db:"payment_method" json:"payment_method,omitempty"`
	Status          InstallmentStatus   `db:"status" json:"status"`
	Notes           string              `db:"notes" json:"notes"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updated_at"`
}

// TotalDue is amount - discount + late fee + interest + surcharge.
// Interest is only set by late fees and surcharge only at payment time.
func (i Installment) TotalDue() decimal.Decimal {
	return i.Amount.Sub(i.Discount).Add(i.LateFee).Add(i.Interest).Add(i.Surcharge)
}

// LateCharges is the late fee plus interest accrued on the installment.
func (i Installment) LateCharges() decimal.Decimal {
	return i.LateFee.Add(i.Interest)
}

// Settled returns the amount received, falling back to the total due for legacy rows
// marked PAID without a recorded value.
func (i Installment) Settled() decimal.Decimal {
	if i.PaidAmount.Valid {
		return i.PaidAmount.Decimal
	}
	return i.TotalDue()
}

// PastDue reports whether the due date is strictly before the calendar day of asOf.
func (i Installment) PastDue(asOf time.Time) bool {
	return i.DueDate.Before(StartOfDay(asOf))
}

// Delinquent reports whether the installment counts as overdue at asOf, either because the
// sweep already flagged it or because it is still pending past its due date.
func (i Installment) Delinquent(asOf time.Time) bool {
	switch i.Status {
	case InstallmentStatusOverdue:
		return true
	case InstallmentStatusPending:
		return i.PastDue(asOf)
	default:
		return false
	}
}

// InstallmentDetail adds the student's name for reporting.
type InstallmentDetail struct {
	Installment
	StudentName string `db:"student_name" json:"student_name"`
}

// InstallmentFilter narrows installment listings. Zero values are ignored.
type InstallmentFilter struct {
	StudentID    string
	EnrollmentID string
	Month        int
	Year         int
	Status       InstallmentStatus
}

// StartOfDay truncates t to midnight UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InstallmentStatusSummary aggregates the installments of one status for a reference month.
type InstallmentStatusSummary struct {
	Status      InstallmentStatus `db:"status"`
	Count       int               `db:"count"`
	TotalDue    decimal.Decimal   `db:"total_due"`
	Settled     decimal.Decimal   `db:"settled"`
	LateCharges decimal.Decimal   `db:"late_charges"`
}
