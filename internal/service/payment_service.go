package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/courseloop/marketplace-api/internal/models"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
	"github.com/courseloop/marketplace-api/pkg/export"
)

type paymentRepository interface {
	Checkout(ctx context.Context, payment *models.Payment) (*models.CheckoutResult, error)
	ListAll(ctx context.Context) ([]models.Payment, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListEnrollmentsByEmail(ctx context.Context, email string) ([]models.Enrollment, error)
}

// PaymentIntentClient is the slice of the Stripe API used by this service.
// *paymentintent.Client satisfies it.
type PaymentIntentClient interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// CreateIntentRequest asks the payment provider to authorize a charge.
type CreateIntentRequest struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

// CreateIntentResponse returns the client-usable secret.
type CreateIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CheckoutRequest is the payload submitted after a completed card payment.
type CheckoutRequest struct {
	Email         string  `json:"email" validate:"required,email"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	TransactionID string  `json:"transaction_id" validate:"required"`
	SelectionID   string  `json:"selection_id" validate:"required"`
	ClassID       string  `json:"class_id" validate:"required"`
}

// PaymentService creates payment authorizations and runs the enrollment
// transaction once the provider confirms the charge.
type PaymentService struct {
	repo      paymentRepository
	intents   PaymentIntentClient
	receipts  *ReceiptService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	currency  string
}

// NewPaymentService constructs the service.
func NewPaymentService(repo paymentRepository, intents PaymentIntentClient, receipts *ReceiptService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, currency string) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		repo:      repo,
		intents:   intents,
		receipts:  receipts,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		currency:  currency,
	}
}

// CreateIntent authorizes a card charge for the given price in major units.
// The amount is converted to minor units (cents) with truncation.
func (s *PaymentService) CreateIntent(ctx context.Context, req CreateIntentRequest) (*CreateIntentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment intent payload")
	}

	amount := int64(req.Price * 100)
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(s.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := s.intents.New(params)
	if err != nil {
		s.logger.Error("payment intent creation failed", zap.Int64("amount", amount), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentProvider.Code, appErrors.ErrPaymentProvider.Status, "payment provider request failed")
	}

	return &CreateIntentResponse{ClientSecret: intent.ClientSecret}, nil
}

// Checkout runs the enrollment transaction for a confirmed payment. The
// payer must match the authenticated identity.
func (s *PaymentService) Checkout(ctx context.Context, tokenEmail string, req CheckoutRequest) (*models.CheckoutResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if !strings.EqualFold(tokenEmail, req.Email) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "payment email does not match authenticated user")
	}

	payment := &models.Payment{
		Email:         strings.ToLower(req.Email),
		Amount:        req.Price,
		TransactionID: req.TransactionID,
		SelectionID:   req.SelectionID,
		ClassID:       req.ClassID,
	}

	result, err := s.repo.Checkout(ctx, payment)
	if err != nil {
		outcome := "error"
		if appErrors.FromError(err).Code == appErrors.ErrSoldOut.Code {
			outcome = "sold_out"
		}
		if s.metrics != nil {
			s.metrics.RecordCheckout(outcome)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCheckout("success")
	}
	s.logger.Info("checkout completed",
		zap.String("payment_id", result.PaymentID),
		zap.String("class_id", req.ClassID),
		zap.Int("seats_remaining", result.SeatsRemaining))

	if s.receipts != nil {
		s.receipts.EnqueueRender(result.PaymentID)
	}

	return result, nil
}

// EnrolledClasses returns a student's enrollments, newest first.
func (s *PaymentService) EnrolledClasses(ctx context.Context, email string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListEnrollmentsByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// ExportCSV renders all payment records as a CSV sales report.
func (s *PaymentService) ExportCSV(ctx context.Context) ([]byte, error) {
	payments, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	dataset := export.Dataset{
		Headers: []string{"payment_id", "email", "class", "amount", "transaction_id", "paid_at"},
	}
	for _, p := range payments {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"payment_id":     p.ID,
			"email":          p.Email,
			"class":          p.ClassName,
			"amount":         fmt.Sprintf("%.2f", p.Amount),
			"transaction_id": p.TransactionID,
			"paid_at":        p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	data, err := export.CSV(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render sales export")
	}
	return data, nil
}
