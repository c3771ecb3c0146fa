package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-finance-api/internal/models"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func uniqueViolation() error {
	return &pq.Error{Code: "23505"}
}

// memoryInstallments mimics the SQL semantics of InstallmentRepository.
type memoryInstallments struct {
	mu       sync.Mutex
	items    map[string]models.Installment
	names    map[string]string
	seq      int
	staleFor map[string]models.InstallmentStatus
}

func newMemoryInstallments() *memoryInstallments {
	return &memoryInstallments{items: map[string]models.Installment{}, names: map[string]string{}}
}

func (m *memoryInstallments) add(inst models.Installment) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst.ID == "" {
		m.seq++
		inst.ID = fmt.Sprintf("inst-%d", m.seq)
	}
	m.items[inst.ID] = inst
	return inst.ID
}

func (m *memoryInstallments) get(id string) models.Installment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

func (m *memoryInstallments) CreateMany(_ context.Context, installments []models.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range installments {
		for _, existing := range m.items {
			if existing.EnrollmentID == inst.EnrollmentID && existing.ReferenceMonth == inst.ReferenceMonth && existing.ReferenceYear == inst.ReferenceYear {
				return fmt.Errorf("create installment: %w", uniqueViolation())
			}
		}
	}
	for i := range installments {
		m.seq++
		installments[i].ID = fmt.Sprintf("inst-%d", m.seq)
		m.items[installments[i].ID] = installments[i]
	}
	return nil
}

func (m *memoryInstallments) FindByID(_ context.Context, id string) (*models.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &inst, nil
}

func (m *memoryInstallments) sorted(keep func(models.Installment) bool) []models.InstallmentDetail {
	var out []models.InstallmentDetail
	for _, inst := range m.items {
		if keep(inst) {
			out = append(out, models.InstallmentDetail{Installment: inst, StudentName: m.names[inst.StudentID]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memoryInstallments) List(_ context.Context, f models.InstallmentFilter) ([]models.InstallmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(i models.Installment) bool {
		return (f.StudentID == "" || i.StudentID == f.StudentID) &&
			(f.EnrollmentID == "" || i.EnrollmentID == f.EnrollmentID) &&
			(f.Month == 0 || i.ReferenceMonth == f.Month) &&
			(f.Year == 0 || i.ReferenceYear == f.Year) &&
			(f.Status == "" || i.Status == f.Status)
	}), nil
}

func (m *memoryInstallments) ListDelinquent(_ context.Context, asOf time.Time) ([]models.InstallmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(i models.Installment) bool {
		return i.Status == models.InstallmentStatusOverdue || (i.Status == models.InstallmentStatusPending && i.DueDate.Before(asOf))
	}), nil
}

func (m *memoryInstallments) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, inst := range m.items {
		if inst.Status == models.InstallmentStatusPending && inst.DueDate.Before(asOf) {
			inst.Status = models.InstallmentStatusOverdue
			m.items[id] = inst
			n++
		}
	}
	return n, nil
}

func (m *memoryInstallments) open(id string) bool {
	if status, ok := m.staleFor[id]; ok {
		stored := m.items[id]
		stored.Status = status
		m.items[id] = stored
		delete(m.staleFor, id)
	}
	status := m.items[id].Status
	return status == models.InstallmentStatusPending || status == models.InstallmentStatusOverdue
}

func (m *memoryInstallments) UpdateCharges(_ context.Context, inst *models.Installment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open(inst.ID) {
		return false, nil
	}
	stored := m.items[inst.ID]
	stored.LateFee, stored.Interest, stored.Status = inst.LateFee, inst.Interest, inst.Status
	m.items[inst.ID] = stored
	return true, nil
}

func (m *memoryInstallments) RecordPayment(_ context.Context, inst *models.Installment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open(inst.ID) {
		return false, nil
	}
	m.items[inst.ID] = *inst
	return true, nil
}

func (m *memoryInstallments) CancelPendingByEnrollment(_ context.Context, enrollmentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, inst := range m.items {
		if inst.EnrollmentID == enrollmentID && inst.Status == models.InstallmentStatusPending {
			inst.Status = models.InstallmentStatusCanceled
			m.items[id] = inst
			n++
		}
	}
	return n, nil
}

func (m *memoryInstallments) SummarizeMonth(_ context.Context, month, year int) ([]models.InstallmentStatusSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byStatus := map[models.InstallmentStatus]*models.InstallmentStatusSummary{}
	for _, inst := range m.items {
		if inst.ReferenceMonth != month || inst.ReferenceYear != year {
			continue
		}
		row, ok := byStatus[inst.Status]
		if !ok {
			row = &models.InstallmentStatusSummary{Status: inst.Status}
			byStatus[inst.Status] = row
		}
		row.Count++
		row.TotalDue = row.TotalDue.Add(inst.TotalDue())
		row.Settled = row.Settled.Add(inst.Settled())
		row.LateCharges = row.LateCharges.Add(inst.LateCharges())
	}
	out := make([]models.InstallmentStatusSummary, 0, len(byStatus))
	for _, row := range byStatus {
		out = append(out, *row)
	}
	return out, nil
}

// memoryLedger serves expense and payroll summaries keyed by "year-month".
type memoryLedger struct {
	rows map[string][]models.LedgerStatusSummary
	err  error
}

func (m *memoryLedger) SummarizeMonth(_ context.Context, month, year int) ([]models.LedgerStatusSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[fmt.Sprintf("%d-%d", year, month)], nil
}

func (m *memoryLedger) put(month, year int, status models.LedgerStatus, count int, total string) {
	if m.rows == nil {
		m.rows = map[string][]models.LedgerStatusSummary{}
	}
	key := fmt.Sprintf("%d-%d", year, month)
	m.rows[key] = append(m.rows[key], models.LedgerStatusSummary{Status: status, Count: count, Total: decimal.RequireFromString(total)})
}

type memoryStudents struct {
	mu       sync.Mutex
	students map[string]*models.Student
}

func newMemoryStudents(ids ...string) *memoryStudents {
	m := &memoryStudents{students: map[string]*models.Student{}}
	for _, id := range ids {
		m.students[id] = &models.Student{ID: id, FullName: "Student " + id, Active: true}
	}
	return m
}

func (m *memoryStudents) FindByID(_ context.Context, id string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (m *memoryStudents) SetActiveEnrollment(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.students[id]; ok {
		s.HasActiveEnrollment = active
	}
	return nil
}

func (m *memoryStudents) CountEnrolled(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.students {
		if s.Active && s.HasActiveEnrollment {
			n++
		}
	}
	return n, nil
}

// memoryEnrollments enforces the partial unique index on active enrollments.
type memoryEnrollments struct {
	mu    sync.Mutex
	items map[string]models.Enrollment
	seq   int
}

func newMemoryEnrollments() *memoryEnrollments {
	return &memoryEnrollments{items: map[string]models.Enrollment{}}
}

func (m *memoryEnrollments) List(_ context.Context, f models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EnrollmentDetail
	for _, e := range m.items {
		if f.StudentID != "" && e.StudentID != f.StudentID {
			continue
		}
		out = append(out, models.EnrollmentDetail{Enrollment: e})
	}
	return out, len(out), nil
}

func (m *memoryEnrollments) FindByID(_ context.Context, id string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (m *memoryEnrollments) FindByStudent(_ context.Context, studentID string) ([]models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Enrollment
	for _, e := range m.items {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryEnrollments) Create(_ context.Context, e *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.StudentID == e.StudentID && existing.SchoolYear == e.SchoolYear && existing.Status == models.EnrollmentStatusActive {
			return fmt.Errorf("create enrollment: %w", uniqueViolation())
		}
	}
	m.seq++
	e.ID = fmt.Sprintf("enr-%d", m.seq)
	m.items[e.ID] = *e
	return nil
}

func (m *memoryEnrollments) UpdateStatus(_ context.Context, id string, status models.EnrollmentStatus, canceledAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.items[id]; ok {
		e.Status = status
		e.CanceledAt = canceledAt
		m.items[id] = e
	}
	return nil
}

type spyCache struct {
	mu       sync.Mutex
	patterns []string
}

func (s *spyCache) Invalidate(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
	return nil
}

func (s *spyCache) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patterns)
}
