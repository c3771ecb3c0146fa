package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-finance-api/internal/dto"
	"github.com/noah-isme/sma-finance-api/internal/models"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

// trendMonths is the length of the trailing revenue versus expense series.
const trendMonths = 6

type installmentSummarizer interface {
	SummarizeMonth(ctx context.Context, month, year int) ([]models.InstallmentStatusSummary, error)
}

type ledgerSummarizer interface {
	SummarizeMonth(ctx context.Context, month, year int) ([]models.LedgerStatusSummary, error)
}

type enrolledStudentCounter interface {
	CountEnrolled(ctx context.Context) (int, error)
}

type activeTeacherCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type classStatsReader interface {
	CountActive(ctx context.Context) (int, error)
	EnrollmentCounts(ctx context.Context) ([]models.ClassEnrollmentCount, error)
}

// FinanceDashboardConfig tunes dashboard behaviour.
type FinanceDashboardConfig struct {
	CacheTTL    time.Duration
	Concurrency int
}

// FinanceDashboardParams groups constructor dependencies.
type FinanceDashboardParams struct {
	Installments installmentSummarizer
	Expenses     ledgerSummarizer
	Payroll      ledgerSummarizer
	Students     enrolledStudentCounter
	Teachers     activeTeacherCounter
	Classes      classStatsReader
	Cache        *CacheService
	Logger       *zap.Logger
	Config       FinanceDashboardConfig
}

// FinanceDashboardService aggregates read-only financial projections.
type FinanceDashboardService struct {
	installments installmentSummarizer
	expenses     ledgerSummarizer
	payroll      ledgerSummarizer
	students     enrolledStudentCounter
	teachers     activeTeacherCounter
	classes      classStatsReader
	cache        *CacheService
	logger       *zap.Logger
	now          func() time.Time
	cfg          FinanceDashboardConfig
}

// NewFinanceDashboardService constructs a FinanceDashboardService with sane defaults.
func NewFinanceDashboardService(params FinanceDashboardParams) *FinanceDashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceDashboardService{
		installments: params.Installments,
		expenses:     params.Expenses,
		payroll:      params.Payroll,
		students:     params.Students,
		teachers:     params.Teachers,
		classes:      params.Classes,
		cache:        params.Cache,
		logger:       logger,
		now:          time.Now,
		cfg:          cfg,
	}
}

// MonthlyDashboard returns the finances of one month and indicates cache utilisation.
func (s *FinanceDashboardService) MonthlyDashboard(ctx context.Context, month, year int) (*dto.MonthlyDashboardResponse, bool, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, false, err
	}
	key := fmt.Sprintf("dash:monthly:%04d-%02d", year, month)
	var cached dto.MonthlyDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}
	snapshot, err := s.monthSnapshot(ctx, month, year)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, key, snapshot.dashboard)
	return &snapshot.dashboard, false, nil
}

// AnnualHistory returns the twelve monthly dashboards of year in month order.
func (s *FinanceDashboardService) AnnualHistory(ctx context.Context, year int) (*dto.AnnualHistoryResponse, bool, error) {
	if err := validatePeriod(1, year); err != nil {
		return nil, false, err
	}
	key := fmt.Sprintf("dash:history:%04d", year)
	var cached dto.AnnualHistoryResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}
	history, err := s.annualHistory(ctx, year)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, key, history)
	return history, false, nil
}

// YearSummary combines the current month with a freshly computed history of the current year.
func (s *FinanceDashboardService) YearSummary(ctx context.Context) (*dto.YearSummaryResponse, bool, error) {
	now := s.now().UTC()
	month, year := int(now.Month()), now.Year()
	key := fmt.Sprintf("dash:summary:%04d-%02d", year, month)
	var cached dto.YearSummaryResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	history, err := s.annualHistory(ctx, year)
	if err != nil {
		return nil, false, err
	}
	summary := &dto.YearSummaryResponse{
		CurrentMonth: history.Months[month-1],
		History:      *history,
		TotalRevenue: decimal.Zero,
		TotalSpent:   decimal.Zero,
		TotalProfit:  decimal.Zero,
	}
	for _, m := range history.Months {
		summary.TotalRevenue = summary.TotalRevenue.Add(m.Revenue.Total)
		summary.TotalSpent = summary.TotalSpent.Add(m.TotalSpent)
		summary.TotalProfit = summary.TotalProfit.Add(m.Profit)
	}
	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// FrontendMetrics returns the denormalised overview for the finance home screen.
func (s *FinanceDashboardService) FrontendMetrics(ctx context.Context) (*dto.FrontendMetricsResponse, bool, error) {
	now := s.now().UTC()
	month, year := int(now.Month()), now.Year()
	key := fmt.Sprintf("dash:overview:%04d-%02d", year, month)
	var cached dto.FrontendMetricsResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	resp := &dto.FrontendMetricsResponse{}
	snapshots := make([]*monthSnapshot, trendMonths)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	g.Go(func() error {
		count, err := s.students.CountEnrolled(gctx)
		if err != nil {
			return appErrors.Internal(err, "failed to count students")
		}
		resp.ActiveStudents = count
		return nil
	})
	g.Go(func() error {
		count, err := s.teachers.CountActive(gctx)
		if err != nil {
			return appErrors.Internal(err, "failed to count teachers")
		}
		resp.ActiveTeachers = count
		return nil
	})
	g.Go(func() error {
		count, err := s.classes.CountActive(gctx)
		if err != nil {
			return appErrors.Internal(err, "failed to count classes")
		}
		resp.ActiveClasses = count
		return nil
	})
	g.Go(func() error {
		counts, err := s.classes.EnrollmentCounts(gctx)
		if err != nil {
			return appErrors.Internal(err, "failed to count class enrollments")
		}
		resp.StudentsByClass = counts
		return nil
	})
	// Index 0 is the oldest month, the last index the current one.
	for i := 0; i < trendMonths; i++ {
		i := i
		m, y := shiftMonth(month, year, i-(trendMonths-1))
		g.Go(func() error {
			snapshot, err := s.monthSnapshot(gctx, m, y)
			if err != nil {
				return err
			}
			snapshots[i] = snapshot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	if resp.StudentsByClass == nil {
		resp.StudentsByClass = []models.ClassEnrollmentCount{}
	}

	current := snapshots[trendMonths-1]
	resp.PendingInstallments = current.statusCounts[models.InstallmentStatusPending]
	resp.MonthRevenue = current.dashboard.Revenue.Total
	resp.MonthExpenses = current.dashboard.TotalSpent
	for _, status := range models.InstallmentStatuses {
		resp.StatusBreakdown = append(resp.StatusBreakdown, dto.StatusCount{Status: status, Count: current.statusCounts[status]})
	}
	for _, snapshot := range snapshots {
		resp.Trend = append(resp.Trend, dto.TrendPoint{
			Month:    snapshot.dashboard.Month,
			Year:     snapshot.dashboard.Year,
			Revenue:  snapshot.dashboard.Revenue.Total,
			Expenses: snapshot.dashboard.TotalSpent,
		})
	}
	s.persistCache(ctx, key, resp)
	return resp, false, nil
}

func (s *FinanceDashboardService) annualHistory(ctx context.Context, year int) (*dto.AnnualHistoryResponse, error) {
	months := make([]dto.MonthlyDashboardResponse, 12)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for month := 1; month <= 12; month++ {
		month := month
		g.Go(func() error {
			snapshot, err := s.monthSnapshot(gctx, month, year)
			if err != nil {
				return err
			}
			months[month-1] = snapshot.dashboard
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dto.AnnualHistoryResponse{Year: year, Months: months}, nil
}

type monthSnapshot struct {
	dashboard    dto.MonthlyDashboardResponse
	statusCounts map[models.InstallmentStatus]int
}

// monthSnapshot computes the dashboard of month/year strictly from rows referencing that month.
// Profit only counts paid outflows.
func (s *FinanceDashboardService) monthSnapshot(ctx context.Context, month, year int) (*monthSnapshot, error) {
	installments, err := s.installments.SummarizeMonth(ctx, month, year)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to summarize installments")
	}
	expenses, err := s.expenses.SummarizeMonth(ctx, month, year)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to summarize expenses")
	}
	payroll, err := s.payroll.SummarizeMonth(ctx, month, year)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to summarize payroll")
	}

	d := dto.MonthlyDashboardResponse{
		Month:       month,
		Year:        year,
		Revenue:     dto.AmountBucket{Total: decimal.Zero},
		Receivables: dto.ReceivablesSection{Amount: decimal.Zero, LateCharges: decimal.Zero},
		Expenses:    outflowSection(expenses),
		Payroll:     outflowSection(payroll),
	}
	counts := make(map[models.InstallmentStatus]int, len(models.InstallmentStatuses))
	for _, row := range installments {
		counts[row.Status] += row.Count
		switch row.Status {
		case models.InstallmentStatusPaid:
			d.Revenue.Count += row.Count
			d.Revenue.Total = d.Revenue.Total.Add(row.Settled)
		case models.InstallmentStatusPending, models.InstallmentStatusOverdue:
			d.Receivables.Count += row.Count
			d.Receivables.Amount = d.Receivables.Amount.Add(row.TotalDue)
			d.Receivables.LateCharges = d.Receivables.LateCharges.Add(row.LateCharges)
		}
	}
	d.TotalSpent = d.Expenses.Paid.Total.Add(d.Payroll.Paid.Total)
	d.PendingOutflows = d.Expenses.Pending.Total.Add(d.Payroll.Pending.Total)
	d.Profit = d.Revenue.Total.Sub(d.TotalSpent)
	return &monthSnapshot{dashboard: d, statusCounts: counts}, nil
}

func outflowSection(rows []models.LedgerStatusSummary) dto.OutflowSection {
	section := dto.OutflowSection{
		Paid:    dto.AmountBucket{Total: decimal.Zero},
		Pending: dto.AmountBucket{Total: decimal.Zero},
	}
	for _, row := range rows {
		var bucket *dto.AmountBucket
		switch row.Status {
		case models.LedgerStatusPaid:
			bucket = &section.Paid
		case models.LedgerStatusPending:
			bucket = &section.Pending
		default:
			continue
		}
		bucket.Count += row.Count
		bucket.Total = bucket.Total.Add(row.Total)
	}
	return section
}

func (s *FinanceDashboardService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("finance dashboard cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *FinanceDashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("finance dashboard served without caching", zap.String("key", key), zap.Error(err))
	}
}

func validatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < models.MinSchoolYear {
		return appErrors.Clone(appErrors.ErrValidation, "year must be 2000 or later")
	}
	return nil
}

// shiftMonth moves month/year by delta months, wrapping across year boundaries.
func shiftMonth(month, year, delta int) (int, int) {
	month += delta
	for month <= 0 {
		month += 12
		year--
	}
	for month > 12 {
		month -= 12
		year++
	}
	return month, year
}
