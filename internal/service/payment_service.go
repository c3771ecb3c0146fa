package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-finance-api/internal/models"
	appErrors "github.com/noah-isme/sma-finance-api/pkg/errors"
)

// AdjustmentType tells whether an adjustment value is a percentage or a flat amount.
type AdjustmentType string

// Supported adjustment types.
const (
	AdjustmentPercent AdjustmentType = "PERCENT"
	AdjustmentFlat    AdjustmentType = "FLAT"
)

var hundred = decimal.NewFromInt(100)

// Adjustment is a discount or surcharge granted at payment time.
type Adjustment struct {
	Type   AdjustmentType  `json:"type" validate:"required,oneof=PERCENT FLAT"`
	Value  decimal.Decimal `json:"value"`
	Reason string          `json:"reason" validate:"required"`
}

// amountOf resolves the adjustment against base, rounded to cents.
func (a Adjustment) amountOf(base decimal.Decimal) decimal.Decimal {
	if a.Type == AdjustmentPercent {
		return base.Mul(a.Value).Div(hundred).Round(2)
	}
	return a.Value.Round(2)
}

func (a Adjustment) validate(label string) error {
	if strings.TrimSpace(a.Reason) == "" {
		return appErrors.Clone(appErrors.ErrValidation, label+" reason is required")
	}
	if a.Value.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, label+" value must not be negative")
	}
	if a.Type == AdjustmentPercent && a.Value.GreaterThan(hundred) {
		return appErrors.Clone(appErrors.ErrValidation, label+" percentage must not exceed 100")
	}
	return nil
}

// RegisterPaymentRequest records the settlement of an installment.
type RegisterPaymentRequest struct {
	PaidAmount  *decimal.Decimal     `json:"paid_amount"`
	Method      models.PaymentMethod `json:"method" validate:"required,oneof=CASH PIX CREDIT_CARD DEBIT_CARD BANK_TRANSFER BANK_SLIP"`
	PaymentDate *time.Time           `json:"payment_date"`
	Discount    *Adjustment          `json:"discount"`
	Surcharge   *Adjustment          `json:"surcharge"`
	Notes       string               `json:"notes" validate:"max=500"`
}

// Settlement is the outcome of applying payment-time adjustments to an installment.
type Settlement struct {
	Discount  decimal.Decimal
	Surcharge decimal.Decimal
	Final     decimal.Decimal
}

// Settle applies an optional discount and surcharge to the base tuition of an installment. A
// percent discount is taken of base, a percent surcharge of the discounted base. Charges such as
// late fee and interest are added afterwards and are never discounted. The discount never exceeds
// base and the final value is floored at zero.
func Settle(base, charges decimal.Decimal, discount, surcharge *Adjustment) Settlement {
	result := Settlement{Discount: decimal.Zero, Surcharge: decimal.Zero}
	base = decimal.Max(base, decimal.Zero)
	value := base
	if discount != nil {
		result.Discount = decimal.Min(discount.amountOf(base), base)
		value = value.Sub(result.Discount)
	}
	if surcharge != nil {
		result.Surcharge = surcharge.amountOf(value)
		value = value.Add(result.Surcharge)
	}
	result.Final = decimal.Max(value.Add(charges), decimal.Zero)
	return result
}

type paymentStore interface {
	FindByID(ctx context.Context, id string) (*models.Installment, error)
	RecordPayment(ctx context.Context, installment *models.Installment) (bool, error)
}

// PaymentService records tuition payments.
type PaymentService struct {
	repo      paymentStore
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(repo paymentStore, cache cacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// RegisterPayment settles an open installment. Payments cannot be undone.
func (s *PaymentService) RegisterPayment(ctx context.Context, installmentID string, req RegisterPaymentRequest) (*models.Installment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid payment payload")
	}
	if req.Discount != nil {
		if err := req.Discount.validate("discount"); err != nil {
			return nil, err
		}
	}
	if req.Surcharge != nil {
		if err := req.Surcharge.validate("surcharge"); err != nil {
			return nil, err
		}
	}
	if req.PaidAmount != nil && req.PaidAmount.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "paid amount must not be negative")
	}

	installment, err := loadInstallment(ctx, s.repo, installmentID)
	if err != nil {
		return nil, err
	}
	if err := ensureOpen(installment); err != nil {
		return nil, err
	}

	base := installment.Amount.Sub(installment.Discount)
	settlement := Settle(base, installment.TotalDue().Sub(base), req.Discount, req.Surcharge)
	paid := settlement.Final
	if req.Discount == nil && req.Surcharge == nil && req.PaidAmount != nil {
		paid = req.PaidAmount.Round(2)
	}

	installment.Discount = installment.Discount.Add(settlement.Discount)
	installment.Surcharge = installment.Surcharge.Add(settlement.Surcharge)
	if req.Discount != nil {
		reason := strings.TrimSpace(req.Discount.Reason)
		installment.DiscountReason = &reason
	}
	if req.Surcharge != nil {
		reason := strings.TrimSpace(req.Surcharge.Reason)
		installment.SurchargeReason = &reason
	}
	installment.PaidAmount = decimal.NewNullDecimal(paid)
	paidAt := s.now().UTC()
	if req.PaymentDate != nil {
		paidAt = req.PaymentDate.UTC()
	}
	installment.PaymentDate = &paidAt
	method := req.Method
	installment.PaymentMethod = &method
	installment.Status = models.InstallmentStatusPaid
	if req.Notes != "" {
		installment.Notes = req.Notes
	}

	recorded, err := s.repo.RecordPayment(ctx, installment)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to record payment")
	}
	if !recorded {
		return nil, staleInstallmentError(ctx, s.repo, installmentID)
	}

	s.logger.Info("payment recorded",
		zap.String("installment_id", installment.ID),
		zap.String("method", string(method)),
		zap.String("paid_amount", paid.StringFixed(2)))
	s.metrics.PaymentRecorded(string(method), paid)
	invalidateFinanceCache(ctx, s.cache, s.logger)
	return installment, nil
}
