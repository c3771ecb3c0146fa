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

const expenseColumns = `id, description, category, amount, due_date, payment_date, payment_method, status, notes, created_at, updated_at`

// ExpenseRepository persists school expenses.
type ExpenseRepository struct {
	db *sqlx.DB
}

// NewExpenseRepository constructs the repository.
func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create inserts an expense.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	expense.CreatedAt = now
	expense.UpdatedAt = now
	if expense.Status == "" {
		expense.Status = models.LedgerStatusPending
	}
	const query = `INSERT INTO expenses (id, description, category, amount, due_date, payment_date, payment_method, status, notes, created_at, updated_at)
        VALUES (:id, :description, :category, :amount, :due_date, :payment_date, :payment_method, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, expense); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// FindByID returns an expense by id.
func (r *ExpenseRepository) FindByID(ctx context.Context, id string) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`
	var expense models.Expense
	if err := r.db.GetContext(ctx, &expense, query, id); err != nil {
		return nil, err
	}
	return &expense, nil
}

// List returns expenses filtered by due-date month, status and category.
func (r *ExpenseRepository) List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error) {
	var conditions []string
	var args []interface{}
	if filter.Month > 0 {
		conditions = append(conditions, fmt.Sprintf("EXTRACT(MONTH FROM due_date) = $%d", len(args)+1))
		args = append(args, filter.Month)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("EXTRACT(YEAR FROM due_date) = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	query := `SELECT ` + expenseColumns + ` FROM expenses` + clause + ` ORDER BY due_date ASC`
	var expenses []models.Expense
	if err := r.db.SelectContext(ctx, &expenses, query, args...); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// MarkPaid settles a pending expense. It reports false when the expense is not pending.
func (r *ExpenseRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time, method models.PaymentMethod) (bool, error) {
	const query = `UPDATE expenses SET status = $2, payment_date = $3, payment_method = $4, updated_at = NOW() WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, models.LedgerStatusPaid, paidAt, method, models.LedgerStatusPending)
	if err != nil {
		return false, fmt.Errorf("pay expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pay expense rows affected: %w", err)
	}
	return affected > 0, nil
}

// Cancel cancels a pending expense. It reports false when the expense is not pending.
func (r *ExpenseRepository) Cancel(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE expenses SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, id, models.LedgerStatusCanceled, models.LedgerStatusPending)
	if err != nil {
		return false, fmt.Errorf("cancel expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel expense rows affected: %w", err)
	}
	return affected > 0, nil
}

// SummarizeMonth groups expenses due in month/year by status.
func (r *ExpenseRepository) SummarizeMonth(ctx context.Context, month, year int) ([]models.LedgerStatusSummary, error) {
	const query = `SELECT status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total
        FROM expenses WHERE EXTRACT(MONTH FROM due_date) = $1 AND EXTRACT(YEAR FROM due_date) = $2 GROUP BY status`
	var summaries []models.LedgerStatusSummary
	if err := r.db.SelectContext(ctx, &summaries, query, month, year); err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	return summaries, nil
}
