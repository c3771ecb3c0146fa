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

const payrollColumns = `p.id, p.staff_id, p.reference_month, p.reference_year, p.gross_amount, p.deductions, p.net_amount,
        p.due_date, p.payment_date, p.status, p.notes, p.created_at, p.updated_at`

// PayrollRepository persists monthly staff payroll payments.
type PayrollRepository struct {
	db *sqlx.DB
}

// NewPayrollRepository constructs the repository.
func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

func preparePayroll(payment *models.PayrollPayment) {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = models.LedgerStatusPending
	}
}

// Create inserts a payroll payment. A second payment for the same staff and month violates
// the unique index.
func (r *PayrollRepository) Create(ctx context.Context, payment *models.PayrollPayment) error {
	preparePayroll(payment)
	const query = `INSERT INTO payroll_payments (id, staff_id, reference_month, reference_year, gross_amount, deductions, net_amount, due_date, payment_date, status, notes, created_at, updated_at)
        VALUES (:id, :staff_id, :reference_month, :reference_year, :gross_amount, :deductions, :net_amount, :due_date, :payment_date, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payroll payment: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts the payment unless one already exists for the staff member and month.
// It reports whether a row was inserted.
func (r *PayrollRepository) CreateIfAbsent(ctx context.Context, payment *models.PayrollPayment) (bool, error) {
	preparePayroll(payment)
	const query = `INSERT INTO payroll_payments (id, staff_id, reference_month, reference_year, gross_amount, deductions, net_amount, due_date, payment_date, status, notes, created_at, updated_at)
        VALUES (:id, :staff_id, :reference_month, :reference_year, :gross_amount, :deductions, :net_amount, :due_date, :payment_date, :status, :notes, :created_at, :updated_at)
        ON CONFLICT (staff_id, reference_month, reference_year) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, payment)
	if err != nil {
		return false, fmt.Errorf("generate payroll payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("generate payroll rows affected: %w", err)
	}
	return affected > 0, nil
}

// FindByID returns a payroll payment by id.
func (r *PayrollRepository) FindByID(ctx context.Context, id string) (*models.PayrollPayment, error) {
	query := `SELECT ` + payrollColumns + ` FROM payroll_payments p WHERE p.id = $1`
	var payment models.PayrollPayment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// List returns payroll payments with staff names.
func (r *PayrollRepository) List(ctx context.Context, filter models.PayrollFilter) ([]models.PayrollDetail, error) {
	var conditions []string
	var args []interface{}
	if filter.StaffID != "" {
		conditions = append(conditions, fmt.Sprintf("p.staff_id = $%d", len(args)+1))
		args = append(args, filter.StaffID)
	}
	if filter.Month > 0 {
		conditions = append(conditions, fmt.Sprintf("p.reference_month = $%d", len(args)+1))
		args = append(args, filter.Month)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("p.reference_year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	query := `SELECT ` + payrollColumns + `, COALESCE(t.full_name, '') AS staff_name
        FROM payroll_payments p LEFT JOIN teachers t ON t.id = p.staff_id` + clause + ` ORDER BY p.reference_year DESC, p.reference_month DESC, staff_name ASC`
	var payments []models.PayrollDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("list payroll payments: %w", err)
	}
	return payments, nil
}

// MarkPaid settles a pending payroll payment. It reports false when the payment is not pending.
func (r *PayrollRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	const query = `UPDATE payroll_payments SET status = $2, payment_date = $3, updated_at = NOW() WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.LedgerStatusPaid, paidAt, models.LedgerStatusPending)
	if err != nil {
		return false, fmt.Errorf("pay payroll: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pay payroll rows affected: %w", err)
	}
	return affected > 0, nil
}

// Cancel cancels a pending payroll payment.
func (r *PayrollRepository) Cancel(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE payroll_payments SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, id, models.LedgerStatusCanceled, models.LedgerStatusPending)
	if err != nil {
		return false, fmt.Errorf("cancel payroll: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel payroll rows affected: %w", err)
	}
	return affected > 0, nil
}

// SummarizeMonth groups payroll payments of month/year by status using net amounts.
func (r *PayrollRepository) SummarizeMonth(ctx context.Context, month, year int) ([]models.LedgerStatusSummary, error) {
	const query = `SELECT status, COUNT(*) AS count, COALESCE(SUM(net_amount), 0) AS total
        FROM payroll_payments WHERE reference_month = $1 AND reference_year = $2 GROUP BY status`
	var summaries []models.LedgerStatusSummary
	if err := r.db.SelectContext(ctx, &summaries, query, month, year); err != nil {
		return nil, fmt.Errorf("summarize payroll: %w", err)
	}
	return summaries, nil
}
