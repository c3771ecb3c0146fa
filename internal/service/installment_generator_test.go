package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-finance-api/internal/models"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

func sampleEnrollment() models.Enrollment {
	return models.Enrollment{
		ID:          "enr-1",
		StudentID:   "stu-1",
		SchoolYear:  2024,
		BaseTuition: decimal.RequireFromString("500.00"),
		Discount:    decimal.RequireFromString("50.00"),
		DueDay:      10,
		Status:      models.EnrollmentStatusActive,
	}
}

func TestGenerateInstallmentsFebruaryToDecember(t *testing.T) {
	installments, err := GenerateInstallments(sampleEnrollment())
	require.NoError(t, err)
	require.Len(t, installments, 11)

	for i, inst := range installments {
		month := i + 2
		assert.Equal(t, month, inst.ReferenceMonth)
		assert.Equal(t, 2024, inst.ReferenceYear)
		assert.Equal(t, time.Date(2024, time.Month(month), 10, 0, 0, 0, 0, time.UTC), inst.DueDate)
		assert.True(t, inst.Amount.Equal(decimal.RequireFromString("450.00")), "month %d amount %s", month, inst.Amount)
		assert.True(t, inst.TotalDue().Equal(decimal.RequireFromString("450.00")))
		assert.Equal(t, models.InstallmentStatusPending, inst.Status)
		assert.Equal(t, "enr-1", inst.EnrollmentID)
		assert.Equal(t, "stu-1", inst.StudentID)
	}
}

func TestGenerateInstallmentsEveryYearProducesElevenMonths(t *testing.T) {
	for _, year := range []int{2000, 2023, 2024, 2031} {
		enrollment := sampleEnrollment()
		enrollment.SchoolYear = year
		installments, err := GenerateInstallments(enrollment)
		require.NoError(t, err)
		require.Len(t, installments, 11)
		assert.Equal(t, FirstBillableMonth, installments[0].ReferenceMonth)
		assert.Equal(t, LastBillableMonth, installments[10].ReferenceMonth)
		for _, inst := range installments {
			assert.Equal(t, year, inst.ReferenceYear)
		}
	}
}

func TestGenerateInstallmentsClampsDueDay(t *testing.T) {
	enrollment := sampleEnrollment()
	enrollment.DueDay = 31

	installments, err := GenerateInstallments(enrollment)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), installments[0].DueDate)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), installments[2].DueDate)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), installments[10].DueDate)
}

func TestGenerateInstallmentsRejectsInvalidInput(t *testing.T) {
	cases := map[string]func(*models.Enrollment){
		"year before 2000":   func(e *models.Enrollment) { e.SchoolYear = 1999 },
		"negative tuition":   func(e *models.Enrollment) { e.BaseTuition = decimal.NewFromInt(-1) },
		"negative discount":  func(e *models.Enrollment) { e.Discount = decimal.NewFromInt(-1) },
		"negative fee":       func(e *models.Enrollment) { e.MatriculationFee = decimal.NewFromInt(-5) },
		"discount too large": func(e *models.Enrollment) { e.Discount = decimal.NewFromInt(600) },
		"due day zero":       func(e *models.Enrollment) { e.DueDay = 0 },
		"due day 32":         func(e *models.Enrollment) { e.DueDay = 32 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			enrollment := sampleEnrollment()
			mutate(&enrollment)
			_, err := GenerateInstallments(enrollment)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}
