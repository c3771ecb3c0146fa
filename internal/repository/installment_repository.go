package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-finance-api/internal/models"
)

const installmentColumns = `i.id, i.student_id, i.enrollment_id, i.reference_month, i.reference_year, i.amount, i.paid_amount,
        i.discount, i.late_fee, i.interest, i.surcharge, i.discount_reason, i.surcharge_reason, i.due_date,
        i.payment_date, i.payment_method, i.status, i.notes, i.created_at, i.updated_at`

// totalDueSQL mirrors models.Installment.TotalDue.
const totalDueSQL = `(i.amount - i.discount + i.late_fee + i.interest + i.surcharge)`

// InstallmentRepository persists monthly tuition installments.
type InstallmentRepository struct {
	db *sqlx.DB
}

// NewInstallmentRepository constructs the repository.
func NewInstallmentRepository(db *sqlx.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

// CreateMany inserts all installments of an enrollment atomically. A duplicate
// (enrollment_id, reference_month, reference_year) aborts the whole batch.
func (r *InstallmentRepository) CreateMany(ctx context.Context, installments []models.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin installments: %w", err)
	}
	now := time.Now().UTC()
	const query = `INSERT INTO installments (id, student_id, enrollment_id, reference_month, reference_year, amount, paid_amount,
        discount, late_fee, interest, surcharge, discount_reason, surcharge_reason, due_date, payment_date, payment_method,
        status, notes, created_at, updated_at)
        VALUES (:id, :student_id, :enrollment_id, :reference_month, :reference_year, :amount, :paid_amount,
        :discount, :late_fee, :interest, :surcharge, :discount_reason, :surcharge_reason, :due_date, :payment_date, :payment_method,
        :status, :notes, :created_at, :updated_at)`
	for i := range installments {
		if installments[i].ID == "" {
			installments[i].ID = uuid.NewString()
		}
		if installments[i].CreatedAt.IsZero() {
			installments[i].CreatedAt = now
		}
		installments[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, installments[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create installment %d/%d: %w", installments[i].ReferenceMonth, installments[i].ReferenceYear, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit installments: %w", err)
	}
	return nil
}

// FindByID returns an installment by id.
func (r *InstallmentRepository) FindByID(ctx context.Context, id string) (*models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments i WHERE i.id = $1`
	var installment models.Installment
	if err := r.db.GetContext(ctx, &installment, query, id); err != nil {
		return nil, err
	}
	return &installment, nil
}

// List returns installments matching the filter ordered by due date.
func (r *InstallmentRepository) List(ctx context.Context, filter models.InstallmentFilter) ([]models.InstallmentDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("i.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.EnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("i.enrollment_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentID)
	}
	if filter.Month > 0 {
		conditions = append(conditions, fmt.Sprintf("i.reference_month = $%d", len(args)+1))
		args = append(args, filter.Month)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("i.reference_year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	query := `SELECT ` + installmentColumns + `, COALESCE(s.full_name, '') AS student_name
        FROM installments i LEFT JOIN students s ON s.id = i.student_id` + clause + ` ORDER BY i.due_date ASC, i.id ASC`

	var installments []models.InstallmentDetail
	if err := r.db.SelectContext(ctx, &installments, query, args...); err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	return installments, nil
}

// ListDelinquent returns every installment that is OVERDUE, or still PENDING with a due date
// before asOf, whether or not the overdue sweep has run.
func (r *InstallmentRepository) ListDelinquent(ctx context.Context, asOf time.Time) ([]models.InstallmentDetail, error) {
	query := `SELECT ` + installmentColumns + `, COALESCE(s.full_name, '') AS student_name
        FROM installments i LEFT JOIN students s ON s.id = i.student_id
        WHERE i.status = $1 OR (i.status = $2 AND i.due_date < $3)
        ORDER BY i.student_id ASC, i.due_date ASC`
	var installments []models.InstallmentDetail
	if err := r.db.SelectContext(ctx, &installments, query, models.InstallmentStatusOverdue, models.InstallmentStatusPending, asOf); err != nil {
		return nil, fmt.Errorf("list delinquent installments: %w", err)
	}
	return installments, nil
}

// MarkOverdue flips PENDING installments due before asOf to OVERDUE and returns how many changed.
func (r *InstallmentRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	const query = `UPDATE installments SET status = $1, updated_at = NOW() WHERE status = $2 AND due_date < $3`
	res, err := r.db.ExecContext(ctx, query, models.InstallmentStatusOverdue, models.InstallmentStatusPending, asOf)
	if err != nil {
		return 0, fmt.Errorf("mark overdue installments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark overdue rows affected: %w", err)
	}
	return affected, nil
}

// UpdateCharges stores late fee, interest and status for an open installment.
// It reports false when the row is no longer PENDING or OVERDUE.
func (r *InstallmentRepository) UpdateCharges(ctx context.Context, installment *models.Installment) (bool, error) {
	installment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE installments SET late_fee = :late_fee, interest = :interest, status = :status, updated_at = :updated_at
        WHERE id = :id AND status IN ('PENDING', 'OVERDUE')`
	res, err := r.db.NamedExecContext(ctx, query, installment)
	if err != nil {
		return false, fmt.Errorf("update installment charges: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update installment charges rows affected: %w", err)
	}
	return affected > 0, nil
}

// RecordPayment settles an open installment. It reports false when another writer already
// moved the row to a terminal status.
func (r *InstallmentRepository) RecordPayment(ctx context.Context, installment *models.Installment) (bool, error) {
	installment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE installments SET paid_amount = :paid_amount, discount = :discount, surcharge = :surcharge,
        discount_reason = :discount_reason, surcharge_reason = :surcharge_reason, payment_date = :payment_date,
        payment_method = :payment_method, status = :status, notes = :notes, updated_at = :updated_at
        WHERE id = :id AND status IN ('PENDING', 'OVERDUE')`
	res, err := r.db.NamedExecContext(ctx, query, installment)
	if err != nil {
		return false, fmt.Errorf("record installment payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record payment rows affected: %w", err)
	}
	return affected > 0, nil
}

// CancelPendingByEnrollment cancels the PENDING installments of an enrollment.
func (r *InstallmentRepository) CancelPendingByEnrollment(ctx context.Context, enrollmentID string) (int64, error) {
	const query = `UPDATE installments SET status = $1, updated_at = NOW() WHERE enrollment_id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, models.InstallmentStatusCanceled, enrollmentID, models.InstallmentStatusPending)
	if err != nil {
		return 0, fmt.Errorf("cancel enrollment installments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel installments rows affected: %w", err)
	}
	return affected, nil
}

// SummarizeMonth aggregates the installments referencing month/year grouped by status.
func (r *InstallmentRepository) SummarizeMonth(ctx context.Context, month, year int) ([]models.InstallmentStatusSummary, error) {
	query := `SELECT i.status, COUNT(*) AS count,
        COALESCE(SUM(` + totalDueSQL + `), 0) AS total_due,
        COALESCE(SUM(COALESCE(i.paid_amount, ` + totalDueSQL + `)), 0) AS settled,
        COALESCE(SUM(i.late_fee + i.interest), 0) AS late_charges
        FROM installments i WHERE i.reference_month = $1 AND i.reference_year = $2 GROUP BY i.status`
	var summaries []models.InstallmentStatusSummary
	if err := r.db.SelectContext(ctx, &summaries, query, month, year); err != nil {
		return nil, fmt.Errorf("summarize installments: %w", err)
	}
	return summaries, nil
}
