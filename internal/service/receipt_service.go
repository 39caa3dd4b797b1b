package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/courseloop/marketplace-api/internal/models"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
	"github.com/courseloop/marketplace-api/pkg/export"
	"github.com/courseloop/marketplace-api/pkg/jobs"
	"github.com/courseloop/marketplace-api/pkg/storage"
)

const receiptJobType = "render_receipt"

type receiptPaymentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	FindEnrollmentByPayment(ctx context.Context, paymentID string) (*models.Enrollment, error)
}

// ReceiptLink is the signed download reference returned to clients.
type ReceiptLink struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

// ReceiptService renders PDF receipts for completed payments in the
// background and serves them through signed download tokens.
type ReceiptService struct {
	repo     receiptPaymentRepository
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	queue    *jobs.Queue
	logger   *zap.Logger
	currency string
}

// ReceiptConfig tunes the rendering worker pool.
type ReceiptConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	Currency          string
}

// NewReceiptService constructs the service and its worker queue.
func NewReceiptService(repo receiptPaymentRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, cfg ReceiptConfig) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}

	s := &ReceiptService{
		repo:     repo,
		store:    store,
		signer:   signer,
		logger:   logger,
		currency: cfg.Currency,
	}
	s.queue = jobs.NewQueue("receipts", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the rendering workers.
func (s *ReceiptService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the rendering workers.
func (s *ReceiptService) Stop() {
	s.queue.Stop()
}

// EnqueueRender schedules receipt rendering for a payment. Failures are
// logged; checkout never fails because of the receipt pipeline.
func (s *ReceiptService) EnqueueRender(paymentID string) {
	job := jobs.Job{ID: paymentID, Type: receiptJobType, Payload: paymentID}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue receipt render", zap.String("payment_id", paymentID), zap.Error(err))
	}
}

// SignedLink returns a signed download URL for a payment's receipt. Only the
// payer or an admin may request it. The receipt is rendered on demand when
// the background job has not produced it yet.
func (s *ReceiptService) SignedLink(ctx context.Context, paymentID string, claims *models.JWTClaims) (*ReceiptLink, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	if claims == nil || (claims.Role != models.RoleAdmin && !strings.EqualFold(claims.Email, payment.Email)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "receipt belongs to another user")
	}

	relPath := receiptPath(paymentID)
	if !s.store.Exists(relPath) {
		if err := s.render(ctx, paymentID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
		}
	}

	token, expiresAt, err := s.signer.Generate(paymentID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign receipt link")
	}

	return &ReceiptLink{
		URL:       fmt.Sprintf("/receipts/download?token=%s", token),
		ExpiresAt: expiresAt.Unix(),
	}, nil
}

// Open validates a signed token and returns the receipt file handle.
func (s *ReceiptService) Open(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid receipt token")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "receipt not found")
	}
	return file, nil
}

func (s *ReceiptService) handleJob(ctx context.Context, job jobs.Job) error {
	paymentID, ok := job.Payload.(string)
	if !ok || paymentID == "" {
		s.logger.Error("receipt job carried no payment id", zap.String("job_id", job.ID))
		return nil
	}
	return s.render(ctx, paymentID)
}

func (s *ReceiptService) render(ctx context.Context, paymentID string) error {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("load payment %s: %w", paymentID, err)
	}
	enrollment, err := s.repo.FindEnrollmentByPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("load enrollment for payment %s: %w", paymentID, err)
	}

	data, err := export.ReceiptPDF(export.Receipt{
		PaymentID:       payment.ID,
		TransactionID:   payment.TransactionID,
		StudentEmail:    payment.Email,
		ClassName:       enrollment.ClassName,
		InstructorName:  enrollment.InstructorName,
		InstructorEmail: enrollment.InstructorEmail,
		Amount:          payment.Amount,
		Currency:        strings.ToUpper(s.currency),
		PaidAt:          payment.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("render receipt %s: %w", paymentID, err)
	}

	if _, err := s.store.Save(receiptPath(paymentID), data); err != nil {
		return fmt.Errorf("store receipt %s: %w", paymentID, err)
	}

	s.logger.Info("receipt rendered", zap.String("payment_id", paymentID))
	return nil
}

func receiptPath(paymentID string) string {
	return fmt.Sprintf("%s.pdf", paymentID)
}
