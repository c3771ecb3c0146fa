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
	"github.com/noah-isme/sma-finance-api/pkg/database"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

type payrollRepository interface {
	Create(ctx context.Context, payment *models.PayrollPayment) error
	CreateIfAbsent(ctx context.Context, payment *models.PayrollPayment) (bool, error)
	FindByID(ctx context.Context, id string) (*models.PayrollPayment, error)
	List(ctx context.Context, filter models.PayrollFilter) ([]models.PayrollDetail, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)
	Cancel(ctx context.Context, id string) (bool, error)
}

type activeStaffLister interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

// CreatePayrollRequest registers a salary payment for one staff member and month.
type CreatePayrollRequest struct {
	StaffID     string          `json:"staff_id" validate:"required"`
	Month       int             `json:"month" validate:"required,min=1,max=12"`
	Year        int             `json:"year" validate:"required,gte=2000"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	Deductions  decimal.Decimal `json:"deductions"`
	DueDay      int             `json:"due_day" validate:"omitempty,min=1,max=31"`
	Notes       string          `json:"notes" validate:"max=500"`
}

// GeneratePayrollRequest selects the month whose payroll is generated.
type GeneratePayrollRequest struct {
	Month  int `json:"month" validate:"required,min=1,max=12"`
	Year   int `json:"year" validate:"required,gte=2000"`
	DueDay int `json:"due_day" validate:"omitempty,min=1,max=31"`
}

// GeneratePayrollResult reports how many payments a generation run created.
type GeneratePayrollResult struct {
	Month   int `json:"month"`
	Year    int `json:"year"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// PayrollService manages the payroll ledger.
type PayrollService struct {
	repo      payrollRepository
	staff     activeStaffLister
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPayrollService constructs PayrollService.
func NewPayrollService(repo payrollRepository, staff activeStaffLister, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PayrollService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollService{repo: repo, staff: staff, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// Create registers a pending payroll payment. A second payment for the same staff member and
// month is a DuplicateError.
func (s *PayrollService) Create(ctx context.Context, req CreatePayrollRequest) (*models.PayrollPayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid payroll payload")
	}
	if req.GrossAmount.IsNegative() || req.Deductions.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amounts must not be negative")
	}
	if req.Deductions.GreaterThan(req.GrossAmount) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deductions exceed gross amount")
	}
	payment := newPayrollPayment(req.StaffID, req.Month, req.Year, req.DueDay, req.GrossAmount, req.Deductions)
	payment.Notes = req.Notes
	if err := s.repo.Create(ctx, payment); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "payroll already registered for staff member and month")
		}
		return nil, appErrors.Internal(err, "failed to create payroll payment")
	}
	invalidateFinanceCache(ctx, s.cache, s.logger)
	return payment, nil
}

// GenerateForMonth creates a pending payment for every active teacher from the base salary of
// their staff profile. Existing payments are kept, so re-running is safe.
func (s *PayrollService) GenerateForMonth(ctx context.Context, req GeneratePayrollRequest) (*GeneratePayrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid payroll generation payload")
	}
	teachers, err := s.staff.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list active staff")
	}
	result := &GeneratePayrollResult{Month: req.Month, Year: req.Year}
	for _, teacher := range teachers {
		if !teacher.BaseSalary.IsPositive() {
			result.Skipped++
			continue
		}
		payment := newPayrollPayment(teacher.ID, req.Month, req.Year, req.DueDay, teacher.BaseSalary, decimal.Zero)
		created, err := s.repo.CreateIfAbsent(ctx, payment)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to generate payroll")
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}
	s.logger.Info("payroll generated", zap.Int("month", req.Month), zap.Int("year", req.Year),
		zap.Int("created", result.Created), zap.Int("skipped", result.Skipped))
	if result.Created > 0 {
		invalidateFinanceCache(ctx, s.cache, s.logger)
	}
	return result, nil
}

// List returns payroll payments matching filter.
func (s *PayrollService) List(ctx context.Context, filter models.PayrollFilter) ([]models.PayrollDetail, error) {
	if filter.Month < 0 || filter.Month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	payments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list payroll")
	}
	return payments, nil
}

// Pay settles a pending payroll payment.
func (s *PayrollService) Pay(ctx context.Context, id string, paymentDate *time.Time) (*models.PayrollPayment, error) {
	paidAt := s.now().UTC()
	if paymentDate != nil {
		paidAt = paymentDate.UTC()
	}
	updated, err := s.repo.MarkPaid(ctx, id, paidAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to pay payroll")
	}
	if !updated {
		return nil, s.rejectTransition(ctx, id)
	}
	invalidateFinanceCache(ctx, s.cache, s.logger)
	return s.load(ctx, id)
}

// Cancel cancels a pending payroll payment.
func (s *PayrollService) Cancel(ctx context.Context, id string) (*models.PayrollPayment, error) {
	updated, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to cancel payroll")
	}
	if !updated {
		return nil, s.rejectTransition(ctx, id)
	}
	invalidateFinanceCache(ctx, s.cache, s.logger)
	return s.load(ctx, id)
}

func (s *PayrollService) load(ctx context.Context, id string) (*models.PayrollPayment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payroll payment not found")
		}
		return nil, appErrors.Internal(err, "failed to load payroll payment")
	}
	return payment, nil
}

func (s *PayrollService) rejectTransition(ctx context.Context, id string) error {
	payment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return ledgerStatusError(payment.Status, "payroll payment")
}

func newPayrollPayment(staffID string, month, year, dueDay int, gross, deductions decimal.Decimal) *models.PayrollPayment {
	if dueDay == 0 {
		dueDay = 5
	}
	gross = gross.Round(2)
	deductions = deductions.Round(2)
	return &models.PayrollPayment{
		StaffID:        staffID,
		ReferenceMonth: month,
		ReferenceYear:  year,
		GrossAmount:    gross,
		Deductions:     deductions,
		NetAmount:      gross.Sub(deductions),
		DueDate:        dueDate(year, month, dueDay),
		Status:         models.LedgerStatusPending,
	}
}
