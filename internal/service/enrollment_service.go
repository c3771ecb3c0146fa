package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-finance-api/internal/models"
	"github.com/noah-isme/sma-finance-api/pkg/database"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, canceledAt *time.Time) error
}

type installmentBatchWriter interface {
	CreateMany(ctx context.Context, installments []models.Installment) error
}

type installmentCanceler interface {
	CancelForEnrollment(ctx context.Context, enrollmentID string) (int64, error)
}

type enrollmentStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	SetActiveEnrollment(ctx context.Context, id string, active bool) error
}

// CreateEnrollmentRequest describes a new tuition contract.
type CreateEnrollmentRequest struct {
	StudentID        string          `json:"student_id" validate:"required"`
	PlanID           string          `json:"plan_id" validate:"required"`
	SchoolYear       int             `json:"school_year" validate:"required,gte=2000"`
	BaseTuition      decimal.Decimal `json:"base_tuition"`
	Discount         decimal.Decimal `json:"discount"`
	MatriculationFee decimal.Decimal `json:"matriculation_fee"`
	DueDay           int             `json:"due_day" validate:"omitempty,min=1,max=31"`
}

// EnrollmentResult is an enrollment together with the installments generated for it.
type EnrollmentResult struct {
	Enrollment   *models.Enrollment   `json:"enrollment"`
	Installments []models.Installment `json:"installments"`
}

// EnrollmentService orchestrates enrollment workflows.
type EnrollmentService struct {
	repo          enrollmentRepository
	installments  installmentBatchWriter
	ledger        installmentCanceler
	students      enrollmentStudentStore
	cache         cacheInvalidator
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	defaultDueDay int
	now           func() time.Time
}

// EnrollmentServiceParams groups constructor dependencies.
type EnrollmentServiceParams struct {
	Repo          enrollmentRepository
	Installments  installmentBatchWriter
	Ledger        installmentCanceler
	Students      enrollmentStudentStore
	Cache         cacheInvalidator
	Metrics       *MetricsService
	Validator     *validator.Validate
	Logger        *zap.Logger
	DefaultDueDay int
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(params EnrollmentServiceParams) *EnrollmentService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dueDay := params.DefaultDueDay
	if dueDay < 1 || dueDay > 31 {
		dueDay = 10
	}
	return &EnrollmentService{
		repo:          params.Repo,
		installments:  params.Installments,
		ledger:        params.Ledger,
		students:      params.Students,
		cache:         params.Cache,
		metrics:       params.Metrics,
		validator:     validate,
		logger:        logger,
		defaultDueDay: dueDay,
		now:           time.Now,
	}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an enrollment by id.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	return enrollment, nil
}

// ListByStudent returns every enrollment of a student.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	if _, err := s.findStudent(ctx, studentID); err != nil {
		return nil, err
	}
	enrollments, err := s.repo.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list student enrollments")
	}
	return enrollments, nil
}

// Enroll creates an active enrollment and its February to December installments. A second
// active enrollment for the same student and school year is rejected by the database.
func (s *EnrollmentService) Enroll(ctx context.Context, req CreateEnrollmentRequest) (*EnrollmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid enrollment payload")
	}
	dueDay := req.DueDay
	if dueDay == 0 {
		dueDay = s.defaultDueDay
	}
	enrollment := &models.Enrollment{
		StudentID:        req.StudentID,
		PlanID:           req.PlanID,
		SchoolYear:       req.SchoolYear,
		BaseTuition:      req.BaseTuition.Round(2),
		Discount:         req.Discount.Round(2),
		MatriculationFee: req.MatriculationFee.Round(2),
		DueDay:           dueDay,
		Status:           models.EnrollmentStatusActive,
	}
	installments, err := GenerateInstallments(*enrollment)
	if err != nil {
		return nil, err
	}
	if _, err := s.findStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, enrollment); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, fmt.Sprintf("student already has an active enrollment for %d", req.SchoolYear))
		}
		return nil, appErrors.Internal(err, "failed to create enrollment")
	}
	for i := range installments {
		installments[i].EnrollmentID = enrollment.ID
	}
	if err := s.installments.CreateMany(ctx, installments); err != nil {
		s.abandon(ctx, enrollment)
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "installments already exist for enrollment")
		}
		return nil, appErrors.Internal(err, "failed to generate installments")
	}
	s.flagStudent(ctx, enrollment.StudentID, true)

	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", enrollment.StudentID),
		zap.Int("school_year", enrollment.SchoolYear),
		zap.Int("installments", len(installments)))
	s.metrics.EnrollmentCreated(len(installments))
	invalidateFinanceCache(ctx, s.cache, s.logger)
	return &EnrollmentResult{Enrollment: enrollment, Installments: installments}, nil
}

// Cancel marks an enrollment CANCELED and cancels its pending installments.
func (s *EnrollmentService) Cancel(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == models.EnrollmentStatusCanceled {
		return nil, appErrors.Clone(appErrors.ErrAlreadyCanceled, "enrollment already canceled")
	}
	canceledAt := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, models.EnrollmentStatusCanceled, &canceledAt); err != nil {
		return nil, appErrors.Internal(err, "failed to cancel enrollment")
	}
	enrollment.Status = models.EnrollmentStatusCanceled
	enrollment.CanceledAt = &canceledAt

	canceled, err := s.ledger.CancelForEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.flagStudent(ctx, enrollment.StudentID, false)
	s.logger.Info("enrollment canceled", zap.String("enrollment_id", id), zap.Int64("installments_canceled", canceled))
	invalidateFinanceCache(ctx, s.cache, s.logger)
	return enrollment, nil
}

// flagStudent mirrors the enrollment state onto the student row. The flag is derived from the
// enrollments table, so a failed write is logged and the committed enrollment stands.
func (s *EnrollmentService) flagStudent(ctx context.Context, studentID string, active bool) {
	if err := s.students.SetActiveEnrollment(ctx, studentID, active); err != nil {
		s.logger.Warn("failed to update student enrollment flag",
			zap.String("student_id", studentID), zap.Bool("active", active), zap.Error(err))
	}
}

func (s *EnrollmentService) findStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

// abandon cancels an enrollment whose installments could not be stored so it does not block a retry.
func (s *EnrollmentService) abandon(ctx context.Context, enrollment *models.Enrollment) {
	canceledAt := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, enrollment.ID, models.EnrollmentStatusCanceled, &canceledAt); err != nil {
		s.logger.Error("failed to cancel enrollment without installments", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
	}
}
