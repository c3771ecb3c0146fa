package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnrollmentStatus represents the lifecycle of a yearly tuition contract.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCanceled  EnrollmentStatus = "CANCELED"
	EnrollmentStatusSuspended EnrollmentStatus = "SUSPENDED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

// MinSchoolYear is the earliest school year accepted for an enrollment.
const MinSchoolYear = 2000

// Enrollment captures a student's tuition contract for one school year.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	PlanID           string           `db:"plan_id" json:"plan_id"`
	SchoolYear       int              `db:"school_year" json:"school_year"`
	BaseTuition      decimal.Decimal  `db:"base_tuition" json:"base_tuition"`
	Discount         decimal.Decimal  `db:"discount" json:"discount"`
	MatriculationFee decimal.Decimal  `db:"matriculation_fee" json:"matriculation_fee"`
	DueDay           int              `db:"due_day" json:"due_day"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	CanceledAt       *time.Time       `db:"canceled_at" json:"canceled_at,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// MonthlyAmount is the tuition charged per installment.
func (e Enrollment) MonthlyAmount() decimal.Decimal {
	return e.BaseTuition.Sub(e.Discount)
}

// EnrollmentDetail enriches Enrollment with the student's name.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	SchoolYear int
	Status     EnrollmentStatus
	Page       int
	PageSize   int
}
