package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-finance-api/internal/models"
)

func TestExpenseRepositoryCreateDefaultsPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExpenseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO expenses")).WillReturnResult(sqlmock.NewResult(0, 1))

	expense := &models.Expense{Description: "Electricity", Category: "utilities", Amount: decimal.NewFromInt(100), DueDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Create(context.Background(), expense))
	assert.Equal(t, models.LedgerStatusPending, expense.Status)
	assert.NotEmpty(t, expense.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepositoryListByMonth(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExpenseRepository(db)

	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "description", "category", "amount", "due_date", "payment_date", "payment_method", "status", "notes", "created_at", "updated_at"}).
		AddRow("exp-1", "Electricity", "utilities", "100.00", due, nil, nil, "PENDING", "", due, due)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE EXTRACT(MONTH FROM due_date) = $1 AND EXTRACT(YEAR FROM due_date) = $2 AND status = $3")).
		WithArgs(3, 2024, models.LedgerStatusPending).
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), models.ExpenseFilter{Month: 3, Year: 2024, Status: models.LedgerStatusPending})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].PaymentMethod)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepositoryMarkPaidOnlyPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExpenseRepository(db)

	paidAt := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE expenses SET status = $2")).
		WithArgs("exp-1", models.LedgerStatusPaid, paidAt, models.PaymentMethodPix, models.LedgerStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkPaid(context.Background(), "exp-1", paidAt, models.PaymentMethodPix)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepositoryCreateIfAbsent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPayrollRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (staff_id, reference_month, reference_year) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (staff_id, reference_month, reference_year) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first := &models.PayrollPayment{StaffID: "t-1", ReferenceMonth: 3, ReferenceYear: 2024, NetAmount: decimal.NewFromInt(3000)}
	inserted, err := repo.CreateIfAbsent(context.Background(), first)
	require.NoError(t, err)
	assert.True(t, inserted)

	again := &models.PayrollPayment{StaffID: "t-1", ReferenceMonth: 3, ReferenceYear: 2024, NetAmount: decimal.NewFromInt(3000)}
	inserted, err = repo.CreateIfAbsent(context.Background(), again)
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepositorySummarizeMonth(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPayrollRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count", "total"}).AddRow("PAID", 2, "6000.00")
	mock.ExpectQuery(regexp.QuoteMeta("FROM payroll_payments WHERE reference_month = $1 AND reference_year = $2 GROUP BY status")).
		WithArgs(3, 2024).
		WillReturnRows(rows)

	summaries, err := repo.SummarizeMonth(context.Background(), 3, 2024)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Total.Equal(decimal.NewFromInt(6000)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySetActiveEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET has_active_enrollment = $2")).
		WithArgs("stu-1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetActiveEnrollment(context.Background(), "stu-1", true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListActiveEmbedsProfile(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "active", "position", "hire_date", "base_salary", "created_at", "updated_at"}).
		AddRow("t-1", "rita@school.test", "Rita", true, "Math teacher", nil, "3200.00", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE active = TRUE")).WillReturnRows(rows)

	teachers, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Math teacher", teachers[0].Position)
	assert.True(t, teachers[0].BaseSalary.Equal(decimal.NewFromInt(3200)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryEnrollmentCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"class_id", "class_name", "students"}).AddRow("c-1", "1A", 24)
	mock.ExpectQuery(regexp.QuoteMeta("HAVING COUNT(s.id) > 0")).WillReturnRows(rows)

	counts, err := repo.EnrollmentCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 24, counts[0].Students)
	require.NoError(t, mock.ExpectationsWereMet())
}
