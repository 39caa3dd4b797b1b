package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseloop/marketplace-api/internal/models"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
	"github.com/courseloop/marketplace-api/pkg/storage"
)

type mockReceiptRepo struct {
	payment    *models.Payment
	enrollment *models.Enrollment
}

func (m *mockReceiptRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if m.payment == nil || m.payment.ID != id {
		return nil, sql.ErrNoRows
	}
	copy := *m.payment
	return &copy, nil
}

func (m *mockReceiptRepo) FindEnrollmentByPayment(ctx context.Context, paymentID string) (*models.Enrollment, error) {
	if m.enrollment == nil {
		return nil, sql.ErrNoRows
	}
	copy := *m.enrollment
	return &copy, nil
}

func newReceiptFixture(t *testing.T) (*ReceiptService, *mockReceiptRepo) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("receipt_secret", time.Hour)

	repo := &mockReceiptRepo{
		payment: &models.Payment{
			ID:            "p1",
			Email:         "kid@example.com",
			Amount:        49.99,
			TransactionID: "tx_123",
			ClassName:     "Guitar 101",
			CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		enrollment: &models.Enrollment{
			ID:              "e1",
			Email:           "kid@example.com",
			PaymentID:       "p1",
			ClassName:       "Guitar 101",
			InstructorName:  "Ada",
			InstructorEmail: "ada@example.com",
			Price:           49.99,
		},
	}
	svc := NewReceiptService(repo, store, signer, nil, ReceiptConfig{Currency: "usd"})
	return svc, repo
}

func TestSignedLinkRendersAndDownloads(t *testing.T) {
	svc, _ := newReceiptFixture(t)

	claims := &models.JWTClaims{Email: "kid@example.com", Role: models.RoleStudent}
	link, err := svc.SignedLink(context.Background(), "p1", claims)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.URL, "/receipts/download?token="))

	token := strings.TrimPrefix(link.URL, "/receipts/download?token=")
	file, err := svc.Open(token)
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestSignedLinkForbiddenForOtherStudent(t *testing.T) {
	svc, _ := newReceiptFixture(t)

	claims := &models.JWTClaims{Email: "other@example.com", Role: models.RoleStudent}
	_, err := svc.SignedLink(context.Background(), "p1", claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSignedLinkAdminOverride(t *testing.T) {
	svc, _ := newReceiptFixture(t)

	claims := &models.JWTClaims{Email: "boss@example.com", Role: models.RoleAdmin}
	_, err := svc.SignedLink(context.Background(), "p1", claims)
	assert.NoError(t, err)
}

func TestSignedLinkMissingPayment(t *testing.T) {
	svc, _ := newReceiptFixture(t)

	claims := &models.JWTClaims{Email: "kid@example.com", Role: models.RoleStudent}
	_, err := svc.SignedLink(context.Background(), "ghost", claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestOpenRejectsTamperedToken(t *testing.T) {
	svc, _ := newReceiptFixture(t)

	_, err := svc.Open("p1.123.forged.sig")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
