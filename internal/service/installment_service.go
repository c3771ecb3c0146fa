package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-finance-api/internal/models"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

// financeCachePattern matches every cached finance dashboard payload.
const financeCachePattern = "dash:*"

type installmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Installment, error)
	List(ctx context.Context, filter models.InstallmentFilter) ([]models.InstallmentDetail, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	UpdateCharges(ctx context.Context, installment *models.Installment) (bool, error)
	CancelPendingByEnrollment(ctx context.Context, enrollmentID string) (int64, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// ApplyLateFeeRequest sets the late fee and interest charged on an installment.
type ApplyLateFeeRequest struct {
	LateFee  decimal.Decimal `json:"late_fee"`
	Interest decimal.Decimal `json:"interest"`
}

// InstallmentService owns the installment state machine.
type InstallmentService struct {
	repo    installmentStore
	cache   cacheInvalidator
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewInstallmentService constructs the ledger service. cache and metrics may be nil.
func NewInstallmentService(repo installmentStore, cache cacheInvalidator, metrics *MetricsService, logger *zap.Logger) *InstallmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstallmentService{repo: repo, cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// Get returns an installment by id.
func (s *InstallmentService) Get(ctx context.Context, id string) (*models.Installment, error) {
	return loadInstallment(ctx, s.repo, id)
}

// List returns installments by student, enrollment, reference month/year or status.
func (s *InstallmentService) List(ctx context.Context, filter models.InstallmentFilter) ([]models.InstallmentDetail, error) {
	if filter.Month < 0 || filter.Month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if filter.Year != 0 && filter.Year < models.MinSchoolYear {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year must be 2000 or later")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown installment status")
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list installments")
	}
	return items, nil
}

// MarkOverdueSweep moves every PENDING installment due before the calendar day of asOf to
// OVERDUE. Running it again for the same day changes nothing.
func (s *InstallmentService) MarkOverdueSweep(ctx context.Context, asOf time.Time) (int64, error) {
	cutoff := models.StartOfDay(asOf)
	changed, err := s.repo.MarkOverdue(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to run overdue sweep")
	}
	s.logger.Info("overdue sweep finished", zap.Time("as_of", cutoff), zap.Int64("changed", changed))
	if changed > 0 {
		s.metrics.InstallmentsOverdue(changed)
		s.invalidate(ctx)
	}
	return changed, nil
}

// ApplyLateFee sets late fee and interest on an open installment. A pending installment past its
// due date becomes OVERDUE.
func (s *InstallmentService) ApplyLateFee(ctx context.Context, id string, req ApplyLateFeeRequest) (*models.Installment, error) {
	if req.LateFee.IsNegative() || req.Interest.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "late fee and interest must not be negative")
	}
	installment, err := loadInstallment(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := ensureOpen(installment); err != nil {
		return nil, err
	}

	installment.LateFee = req.LateFee.Round(2)
	installment.Interest = req.Interest.Round(2)
	if installment.Status == models.InstallmentStatusPending && installment.PastDue(s.now()) {
		installment.Status = models.InstallmentStatusOverdue
	}
	updated, err := s.repo.UpdateCharges(ctx, installment)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to apply late fee")
	}
	if !updated {
		return nil, staleInstallmentError(ctx, s.repo, id)
	}
	s.metrics.LateFeeApplied()
	s.invalidate(ctx)
	return installment, nil
}

// CancelForEnrollment cancels the PENDING installments of an enrollment. PAID, CANCELED and
// OVERDUE rows are left untouched.
func (s *InstallmentService) CancelForEnrollment(ctx context.Context, enrollmentID string) (int64, error) {
	if enrollmentID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "enrollment id is required")
	}
	changed, err := s.repo.CancelPendingByEnrollment(ctx, enrollmentID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to cancel installments")
	}
	s.metrics.InstallmentsCanceled(changed)
	if changed > 0 {
		s.invalidate(ctx)
	}
	return changed, nil
}

func (s *InstallmentService) invalidate(ctx context.Context) {
	invalidateFinanceCache(ctx, s.cache, s.logger)
}

func invalidateFinanceCache(ctx context.Context, cache cacheInvalidator, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, financeCachePattern); err != nil {
		logger.Warn("finance cache invalidation failed", zap.Error(err))
	}
}

type installmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Installment, error)
}

func loadInstallment(ctx context.Context, repo installmentFinder, id string) (*models.Installment, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "installment id is required")
	}
	installment, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "installment not found")
		}
		return nil, appErrors.Internal(err, "failed to load installment")
	}
	return installment, nil
}

// ensureOpen rejects installments in a terminal status.
func ensureOpen(installment *models.Installment) error {
	switch installment.Status {
	case models.InstallmentStatusPaid:
		return appErrors.Clone(appErrors.ErrAlreadyPaid, "installment already paid")
	case models.InstallmentStatusCanceled:
		return appErrors.Clone(appErrors.ErrAlreadyCanceled, "installment already canceled")
	}
	return nil
}

// staleInstallmentError explains a guarded update that matched no row: a concurrent writer
// moved the installment to a terminal status.
func staleInstallmentError(ctx context.Context, repo installmentFinder, id string) error {
	current, err := loadInstallment(ctx, repo, id)
	if err != nil {
		return err
	}
	if err := ensureOpen(current); err != nil {
		return err
	}
	return appErrors.Clone(appErrors.ErrInternal, "installment changed concurrently")
}
