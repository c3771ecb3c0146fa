package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-finance-api/internal/models"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

type expenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) error
	FindByID(ctx context.Context, id string) (*models.Expense, error)
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time, method models.PaymentMethod) (bool, error)
	Cancel(ctx context.Context, id string) (bool, error)
}

// CreateExpenseRequest registers an expense owed by the school.
type CreateExpenseRequest struct {
	Description string          `json:"description" validate:"required,max=255"`
	Category    string          `json:"category" validate:"required,max=64"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date" validate:"required"`
	Notes       string          `json:"notes" validate:"max=500"`
}

// PayExpenseRequest settles an expense.
type PayExpenseRequest struct {
	Method      models.PaymentMethod `json:"method" validate:"required,oneof=CASH PIX CREDIT_CARD DEBIT_CARD BANK_TRANSFER BANK_SLIP"`
	PaymentDate *time.Time           `json:"payment_date"`
}

// ExpenseService manages the expense ledger.
type ExpenseService struct {
	repo      expenseRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExpenseService constructs ExpenseService.
func NewExpenseService(repo expenseRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ExpenseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// Create registers a pending expense.
func (s *ExpenseService) Create(ctx context.Context, req CreateExpenseRequest) (*models.Expense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid expense payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	expense := &models.Expense{
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount.Round(2),
		DueDate:     models.StartOfDay(req.DueDate),
		Status:      models.LedgerStatusPending,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, appErrors.Internal(err, "failed to create expense")
	}
	invalidateFinanceCache(ctx, s.cache, s.logger)
	return expense, nil
}

// List returns expenses due in the filtered month.
func (s *ExpenseService) List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, error) {
	if filter.Month < 0 || filter.Month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	expenses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list expenses")
	}
	return expenses, nil
}

// Pay settles a pending expense.
func (s *ExpenseService) Pay(ctx context.Context, id string, req PayExpenseRequest) (*models.Expense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid expense payment payload")
	}
	paidAt := s.now().UTC()
	if req.PaymentDate != nil {
		paidAt = req.PaymentDate.UTC()
	}
	updated, err := s.repo.MarkPaid(ctx, id, paidAt, req.Method)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to pay expense")
	}
	if !updated {
		return nil, s.rejectTransition(ctx, id)
	}
	invalidateFinanceCache(ctx, s.cache, s.logger)
	return s.load(ctx, id)
}

// Cancel cancels a pending expense.
func (s *ExpenseService) Cancel(ctx context.Context, id string) (*models.Expense, error) {
	updated, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to cancel expense")
	}
	if !updated {
		return nil, s.rejectTransition(ctx, id)
	}
	invalidateFinanceCache(ctx, s.cache, s.logger)
	return s.load(ctx, id)
}

func (s *ExpenseService) load(ctx context.Context, id string) (*models.Expense, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "expense not found")
		}
		return nil, appErrors.Internal(err, "failed to load expense")
	}
	return expense, nil
}

func (s *ExpenseService) rejectTransition(ctx context.Context, id string) error {
	expense, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return ledgerStatusError(expense.Status, "expense")
}

// ledgerStatusError maps a terminal expense or payroll status to its error kind.
func ledgerStatusError(status models.LedgerStatus, label string) error {
	switch status {
	case models.LedgerStatusPaid:
		return appErrors.Clone(appErrors.ErrAlreadyPaid, label+" already paid")
	case models.LedgerStatusCanceled:
		return appErrors.Clone(appErrors.ErrAlreadyCanceled, label+" already canceled")
	}
	return appErrors.Clone(appErrors.ErrInternal, label+" changed concurrently")
}
