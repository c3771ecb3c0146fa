package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-finance-api/internal/models"
)

var installmentRowColumns = []string{"id", "student_id", "enrollment_id", "reference_month", "reference_year", "amount", "paid_amount",
	"discount", "late_fee", "interest", "surcharge", "discount_reason", "surcharge_reason", "due_date",
	"payment_date", "payment_method", "status", "notes", "created_at", "updated_at"}

func installmentRow(rows *sqlmock.Rows, id string, due time.Time, status models.InstallmentStatus, extra ...driver.Value) *sqlmock.Rows {
	values := []driver.Value{id, "stu-1", "enr-1", int(due.Month()), due.Year(), "450.00", nil,
		"0", "0", "0", "0", nil, nil, due, nil, nil, string(status), "", due, due}
	return rows.AddRow(append(values, extra...)...)
}

func TestInstallmentRepositoryCreateManyCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO installments")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO installments")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	items := []models.Installment{
		{StudentID: "stu-1", EnrollmentID: "enr-1", ReferenceMonth: 2, ReferenceYear: 2024, Amount: decimal.NewFromInt(450), Status: models.InstallmentStatusPending},
		{StudentID: "stu-1", EnrollmentID: "enr-1", ReferenceMonth: 3, ReferenceYear: 2024, Amount: decimal.NewFromInt(450), Status: models.InstallmentStatusPending},
	}
	require.NoError(t, repo.CreateMany(context.Background(), items))
	assert.NotEmpty(t, items[0].ID)
	assert.NotEqual(t, items[0].ID, items[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepositoryCreateManyRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO installments")).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := repo.CreateMany(context.Background(), []models.Installment{{ReferenceMonth: 2, ReferenceYear: 2024}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepositoryListDelinquent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	asOf := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(append(append([]string{}, installmentRowColumns...), "student_name"))
	installmentRow(rows, "inst-1", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), models.InstallmentStatusOverdue, "Ana")
	installmentRow(rows, "inst-2", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), models.InstallmentStatusPending, "Ana")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE i.status = $1 OR (i.status = $2 AND i.due_date < $3)")).
		WithArgs(models.InstallmentStatusOverdue, models.InstallmentStatusPending, asOf).
		WillReturnRows(rows)

	items, err := repo.ListDelinquent(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Ana", items[0].StudentName)
	assert.False(t, items[0].PaidAmount.Valid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepositoryMarkOverdue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	asOf := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE installments SET status = $1, updated_at = NOW() WHERE status = $2 AND due_date < $3")).
		WithArgs(models.InstallmentStatusOverdue, models.InstallmentStatusPending, asOf).
		WillReturnResult(sqlmock.NewResult(0, 3))

	changed, err := repo.MarkOverdue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepositoryRecordPaymentStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE installments SET paid_amount")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.RecordPayment(context.Background(), &models.Installment{ID: "inst-1", Status: models.InstallmentStatusPaid})
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepositoryCancelPendingByEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE enrollment_id = $2 AND status = $3")).
		WithArgs(models.InstallmentStatusCanceled, "enr-1", models.InstallmentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 3))

	changed, err := repo.CancelPendingByEnrollment(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallmentRepositorySummarizeMonth(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstallmentRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count", "total_due", "settled", "late_charges"}).
		AddRow("PAID", 1, "450.00", "450.00", "0").
		AddRow("OVERDUE", 2, "930.00", "930.00", "30.00")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE i.reference_month = $1 AND i.reference_year = $2 GROUP BY i.status")).
		WithArgs(3, 2024).
		WillReturnRows(rows)

	summaries, err := repo.SummarizeMonth(context.Background(), 3, 2024)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, models.InstallmentStatusOverdue, summaries[1].Status)
	assert.True(t, summaries[1].LateCharges.Equal(decimal.RequireFromString("30")))
	require.NoError(t, mock.ExpectationsWereMet())
}
