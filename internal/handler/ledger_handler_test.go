package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-finance-api/internal/models"
	"github.com/noah-isme/sma-finance-api/internal/service"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

type fakeEnrollmentSrv struct {
	req    service.CreateEnrollmentRequest
	filter models.EnrollmentFilter
	err    error
}

func (f *fakeEnrollmentSrv) List(_ context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	f.filter = filter
	return []models.EnrollmentDetail{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeEnrollmentSrv) Get(_ context.Context, id string) (*models.Enrollment, error) {
	return &models.Enrollment{ID: id}, nil
}

func (f *fakeEnrollmentSrv) ListByStudent(context.Context, string) ([]models.Enrollment, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func (f *fakeEnrollmentSrv) Enroll(_ context.Context, req service.CreateEnrollmentRequest) (*service.EnrollmentResult, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.EnrollmentResult{Enrollment: &models.Enrollment{ID: "enr-1"}}, nil
}

func (f *fakeEnrollmentSrv) Cancel(_ context.Context, id string) (*models.Enrollment, error) {
	return &models.Enrollment{ID: id, Status: models.EnrollmentStatusCanceled}, nil
}

type fakePayrollSrv struct {
	paidAt *time.Time
	gen    service.GeneratePayrollRequest
}

func (f *fakePayrollSrv) Create(context.Context, service.CreatePayrollRequest) (*models.PayrollPayment, error) {
	return nil, appErrors.Clone(appErrors.ErrDuplicate, "payroll already registered for staff member and month")
}

func (f *fakePayrollSrv) GenerateForMonth(_ context.Context, req service.GeneratePayrollRequest) (*service.GeneratePayrollResult, error) {
	f.gen = req
	return &service.GeneratePayrollResult{Month: req.Month, Year: req.Year, Created: 3}, nil
}

func (f *fakePayrollSrv) List(context.Context, models.PayrollFilter) ([]models.PayrollDetail, error) {
	return []models.PayrollDetail{}, nil
}

func (f *fakePayrollSrv) Pay(_ context.Context, id string, paymentDate *time.Time) (*models.PayrollPayment, error) {
	f.paidAt = paymentDate
	return &models.PayrollPayment{ID: id, Status: models.LedgerStatusPaid}, nil
}

func (f *fakePayrollSrv) Cancel(_ context.Context, id string) (*models.PayrollPayment, error) {
	return &models.PayrollPayment{ID: id, Status: models.LedgerStatusCanceled}, nil
}

type fakeExpenseSrv struct {
	req service.CreateExpenseRequest
}

func (f *fakeExpenseSrv) Create(_ context.Context, req service.CreateExpenseRequest) (*models.Expense, error) {
	f.req = req
	return &models.Expense{ID: "exp-1", Amount: req.Amount, Status: models.LedgerStatusPending}, nil
}

func (f *fakeExpenseSrv) List(context.Context, models.ExpenseFilter) ([]models.Expense, error) {
	return []models.Expense{}, nil
}

func (f *fakeExpenseSrv) Pay(_ context.Context, id string, _ service.PayExpenseRequest) (*models.Expense, error) {
	return nil, appErrors.Clone(appErrors.ErrAlreadyCanceled, "expense already canceled")
}

func (f *fakeExpenseSrv) Cancel(_ context.Context, id string) (*models.Expense, error) {
	return &models.Expense{ID: id, Status: models.LedgerStatusCanceled}, nil
}

func TestEnrollmentHandlerCreate(t *testing.T) {
	srv := &fakeEnrollmentSrv{}
	handler := NewEnrollmentHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/enrollments")
	c.Request.Body = ioBody(`{"student_id":"stu-1","plan_id":"plan-a","school_year":2024,"base_tuition":"500.00","discount":"50.00","matriculation_fee":"300.00","due_day":10}`)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "stu-1", srv.req.StudentID)
	assert.True(t, srv.req.BaseTuition.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 10, srv.req.DueDay)
}

func TestEnrollmentHandlerCreateDuplicate(t *testing.T) {
	handler := NewEnrollmentHandler(&fakeEnrollmentSrv{err: appErrors.Clone(appErrors.ErrDuplicate, "student already has an active enrollment for 2024")})
	c, rec := newTestContext(http.MethodPost, "/enrollments")
	c.Request.Body = ioBody(`{"student_id":"stu-1","plan_id":"plan-a","school_year":2024}`)

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEnrollmentHandlerListParsesPaging(t *testing.T) {
	srv := &fakeEnrollmentSrv{}
	handler := NewEnrollmentHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/enrollments?schoolYear=2024&status=active&page=2&limit=5")

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, srv.filter.SchoolYear)
	assert.Equal(t, models.EnrollmentStatusActive, srv.filter.Status)
	assert.Equal(t, 2, srv.filter.Page)
	assert.Equal(t, 5, srv.filter.PageSize)

	c, rec = newTestContext(http.MethodGet, "/enrollments?page=x")
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrollmentHandlerCancelAndStudentLookup(t *testing.T) {
	handler := NewEnrollmentHandler(&fakeEnrollmentSrv{})

	c, rec := newTestContext(http.MethodPost, "/enrollments/enr-1/cancel")
	c.Params = ginParams("id", "enr-1")
	handler.Cancel(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELED", decodeEnvelope(t, rec).Data["status"])

	c, rec = newTestContext(http.MethodGet, "/students/stu-404/enrollments")
	c.Params = ginParams("id", "stu-404")
	handler.ListByStudent(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseHandler(t *testing.T) {
	srv := &fakeExpenseSrv{}
	handler := NewExpenseHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/expenses")
	c.Request.Body = ioBody(`{"description":"Electricity","category":"utilities","amount":"100.00","due_date":"2024-03-20T00:00:00Z"}`)
	handler.Create(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "100.00", srv.req.Amount.StringFixed(2))
	assert.Equal(t, 20, srv.req.DueDate.Day())

	c, rec = newTestContext(http.MethodPost, "/expenses/exp-1/pay")
	c.Request.Body = ioBody(`{"method":"CASH"}`)
	c.Params = ginParams("id", "exp-1")
	handler.Pay(c)
	assert.Equal(t, http.StatusConflict, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/expenses?month=abc")
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayrollHandler(t *testing.T) {
	srv := &fakePayrollSrv{}
	handler := NewPayrollHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/payroll/generate")
	c.Request.Body = ioBody(`{"month":3,"year":2024}`)
	handler.Generate(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, srv.gen.Month)
	assert.Equal(t, float64(3), decodeEnvelope(t, rec).Data["created"])

	c, rec = newTestContext(http.MethodPost, "/payroll/pay-1/pay")
	c.Params = ginParams("id", "pay-1")
	handler.Pay(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, srv.paidAt)

	c, rec = newTestContext(http.MethodPost, "/payroll")
	c.Request.Body = ioBody(`{"staff_id":"tch-1","month":3,"year":2024,"gross_amount":"3000"}`)
	handler.Create(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "DUPLICATE", envelope.Error.Code)
}
