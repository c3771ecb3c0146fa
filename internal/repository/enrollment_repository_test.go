package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-finance-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var enrollmentRowColumns = []string{"id", "student_id", "plan_id", "school_year", "base_tuition", "discount", "matriculation_fee", "due_day", "status", "canceled_at", "created_at", "updated_at"}

func TestEnrollmentRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(enrollmentRowColumns).
		AddRow("enr-1", "stu-1", "plan-a", 2024, "500.00", "50.00", "120.00", 10, "ACTIVE", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE student_id = $1 AND school_year = $2 AND status = $3")).
		WithArgs("stu-1", 2024, models.EnrollmentStatusActive).
		WillReturnRows(rows)

	enrollment, err := repo.FindActive(context.Background(), "stu-1", 2024)
	require.NoError(t, err)
	assert.True(t, enrollment.BaseTuition.Equal(decimal.RequireFromString("500")))
	assert.True(t, enrollment.MonthlyAmount().Equal(decimal.RequireFromString("450")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.Enrollment{StudentID: "stu-1", SchoolYear: 2024, BaseTuition: decimal.NewFromInt(500), DueDay: 10}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.False(t, enrollment.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(append(append([]string{}, enrollmentRowColumns...), "student_name")).
		AddRow("enr-1", "stu-1", "plan-a", 2024, "500.00", "0", "0", 10, "ACTIVE", nil, now, now, "Ana")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.school_year = $1 AND e.status = $2 ORDER BY")).
		WithArgs(2024, models.EnrollmentStatusActive).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments e")).
		WithArgs(2024, models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.EnrollmentFilter{SchoolYear: 2024, Status: models.EnrollmentStatusActive})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ana", items[0].StudentName)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, canceled_at = $3")).
		WithArgs("enr-1", models.EnrollmentStatusCanceled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusCanceled, &at))
	require.NoError(t, mock.ExpectationsWereMet())
}
