package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-finance-api/internal/models"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

// Billing window of a school year. January is never billed; the matriculation fee covers it.
const (
	FirstBillableMonth = 2
	LastBillableMonth  = 12
)

// GenerateInstallments derives the monthly installments of an enrollment. It performs no I/O.
func GenerateInstallments(enrollment models.Enrollment) ([]models.Installment, error) {
	if enrollment.SchoolYear < models.MinSchoolYear {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school year must be 2000 or later")
	}
	if enrollment.DueDay < 1 || enrollment.DueDay > 31 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due day must be between 1 and 31")
	}
	if enrollment.BaseTuition.IsNegative() || enrollment.Discount.IsNegative() || enrollment.MatriculationFee.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amounts must not be negative")
	}
	amount := enrollment.MonthlyAmount()
	if amount.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "discount exceeds base tuition")
	}

	installments := make([]models.Installment, 0, LastBillableMonth-FirstBillableMonth+1)
	for month := FirstBillableMonth; month <= LastBillableMonth; month++ {
		installments = append(installments, models.Installment{
			StudentID:      enrollment.StudentID,
			EnrollmentID:   enrollment.ID,
			ReferenceMonth: month,
			ReferenceYear:  enrollment.SchoolYear,
			Amount:         amount,
			Discount:       decimal.Zero,
			LateFee:        decimal.Zero,
			Interest:       decimal.Zero,
			Surcharge:      decimal.Zero,
			DueDate:        dueDate(enrollment.SchoolYear, month, enrollment.DueDay),
			Status:         models.InstallmentStatusPending,
		})
	}
	return installments, nil
}

// dueDate clamps day to the last day of the month so a due day of 31 lands on Feb 28/29.
func dueDate(year, month, day int) time.Time {
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
