package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-finance-api/internal/dto"
	"github.com/noah-isme/sma-finance-api/internal/models"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
	"github.com/noah-isme/sma-finance-api/pkg/export"
)

type delinquencyStore interface {
	ListDelinquent(ctx context.Context, asOf time.Time) ([]models.InstallmentDetail, error)
}

// DelinquencyService groups overdue installments by student.
type DelinquencyService struct {
	repo     delinquencyStore
	exporter *export.CSVExporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewDelinquencyService constructs DelinquencyService.
func NewDelinquencyService(repo delinquencyStore, logger *zap.Logger) *DelinquencyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DelinquencyService{repo: repo, exporter: export.NewCSVExporter(0), logger: logger, now: time.Now}
}

// ListDelinquents returns every student with at least one overdue installment. An installment is
// overdue when flagged OVERDUE or when still PENDING past its due date, so the result does not
// depend on the sweep having run. Students owing the most come first; each student's
// installments are ordered by due date.
func (s *DelinquencyService) ListDelinquents(ctx context.Context) ([]dto.DelinquentStudent, error) {
	now := s.now()
	rows, err := s.repo.ListDelinquent(ctx, models.StartOfDay(now))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load delinquent installments")
	}

	byStudent := make(map[string]*dto.DelinquentStudent)
	for _, row := range rows {
		if !row.Delinquent(now) {
			continue
		}
		entry, ok := byStudent[row.StudentID]
		if !ok {
			entry = &dto.DelinquentStudent{StudentID: row.StudentID, StudentName: row.StudentName, TotalOwed: decimal.Zero}
			byStudent[row.StudentID] = entry
		}
		entry.Installments = append(entry.Installments, row.Installment)
		entry.TotalOwed = entry.TotalOwed.Add(row.TotalDue())
		entry.OverdueCount++
	}

	result := make([]dto.DelinquentStudent, 0, len(byStudent))
	for _, entry := range byStudent {
		sort.SliceStable(entry.Installments, func(i, j int) bool {
			return entry.Installments[i].DueDate.Before(entry.Installments[j].DueDate)
		})
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if cmp := result[i].TotalOwed.Cmp(result[j].TotalOwed); cmp != 0 {
			return cmp > 0
		}
		return result[i].StudentID < result[j].StudentID
	})
	return result, nil
}

// ExportDelinquentsCSV renders the delinquency list as CSV, one line per student.
func (s *DelinquencyService) ExportDelinquentsCSV(ctx context.Context) ([]byte, error) {
	students, err := s.ListDelinquents(ctx)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"student_id", "student_name", "overdue_count", "total_owed", "oldest_due_date"}}
	for _, student := range students {
		oldest := ""
		if len(student.Installments) > 0 {
			oldest = student.Installments[0].DueDate.Format("2006-01-02")
		}
		data.AddRow(student.StudentID, student.StudentName, strconv.Itoa(student.OverdueCount), student.TotalOwed.StringFixed(2), oldest)
	}
	body, err := s.exporter.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render delinquency export")
	}
	s.logger.Debug("delinquency export rendered", zap.Int("students", len(students)))
	return body, nil
}
