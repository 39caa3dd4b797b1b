package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courseloop/marketplace-api/internal/models"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
)

// PaymentRepository owns the payment log, enrollment records, and the
// checkout transaction that ties them to selections and seats.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Checkout records a completed payment atomically: it inserts the payment,
// removes the fulfilled selection, snapshots the class into an enrollment,
// and decrements the seat count. All writes share one transaction; the class
// row is locked first so concurrent checkouts cannot oversell, and a class
// with no remaining seats aborts with ErrSoldOut before anything is written.
func (r *PaymentRepository) Checkout(ctx context.Context, payment *models.Payment) (*models.CheckoutResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var snapshot models.ClassSnapshot
	const snapshotQuery = `SELECT name, image, instructor_name, instructor_email, price, seats FROM classes WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &snapshot, snapshotQuery, payment.ClassID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, err
	}

	if snapshot.Seats <= 0 {
		err = appErrors.ErrSoldOut
		return nil, err
	}

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	payment.ClassName = snapshot.Name

	const insertPayment = `INSERT INTO payments (id, email, amount, transaction_id, selection_id, class_id, class_name, created_at)
        VALUES (:id, :email, :amount, :transaction_id, :selection_id, :class_id, :class_name, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertPayment, payment); err != nil {
		err = fmt.Errorf("insert payment: %w", err)
		return nil, err
	}

	var deleteResult sql.Result
	deleteResult, err = tx.ExecContext(ctx, `DELETE FROM selections WHERE id = $1`, payment.SelectionID)
	if err != nil {
		err = fmt.Errorf("delete fulfilled selection: %w", err)
		return nil, err
	}
	removed, err := deleteResult.RowsAffected()
	if err != nil {
		err = fmt.Errorf("delete fulfilled selection affected: %w", err)
		return nil, err
	}

	enrollment := models.Enrollment{
		ID:              uuid.NewString(),
		Email:           payment.Email,
		PaymentID:       payment.ID,
		ClassName:       snapshot.Name,
		ClassImage:      snapshot.Image,
		InstructorName:  snapshot.InstructorName,
		InstructorEmail: snapshot.InstructorEmail,
		Price:           snapshot.Price,
		Seats:           snapshot.Seats,
		CreatedAt:       payment.CreatedAt,
	}
	const insertEnrollment = `INSERT INTO enrollments (id, email, payment_id, class_name, class_image, instructor_name, instructor_email, price, seats, created_at)
        VALUES (:id, :email, :payment_id, :class_name, :class_image, :instructor_name, :instructor_email, :price, :seats, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertEnrollment, &enrollment); err != nil {
		err = fmt.Errorf("insert enrollment: %w", err)
		return nil, err
	}

	var seatResult sql.Result
	seatResult, err = tx.ExecContext(ctx, `UPDATE classes SET seats = seats - 1, updated_at = $2 WHERE id = $1 AND seats > 0`, payment.ClassID, time.Now().UTC())
	if err != nil {
		err = fmt.Errorf("decrement seats: %w", err)
		return nil, err
	}
	decremented, err := seatResult.RowsAffected()
	if err != nil {
		err = fmt.Errorf("decrement seats affected: %w", err)
		return nil, err
	}
	if decremented == 0 {
		err = appErrors.ErrSoldOut
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit checkout: %w", err)
		return nil, err
	}

	return &models.CheckoutResult{
		PaymentID:        payment.ID,
		EnrollmentID:     enrollment.ID,
		SelectionRemoved: removed > 0,
		SeatsRemaining:   snapshot.Seats - 1,
	}, nil
}

// ListAll returns every payment record, newest first.
func (r *PaymentRepository) ListAll(ctx context.Context) ([]models.Payment, error) {
	const query = `SELECT id, email, amount, transaction_id, selection_id, class_id, class_name, created_at FROM payments ORDER BY created_at DESC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, fmt.Errorf("list all payments: %w", err)
	}
	return payments, nil
}

// FindByID returns a payment by identifier.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, email, amount, transaction_id, selection_id, class_id, class_name, created_at FROM payments WHERE id = $1 LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by id: %w", err)
	}
	return &payment, nil
}

// ListEnrollmentsByEmail returns a student's enrolled classes, newest first.
func (r *PaymentRepository) ListEnrollmentsByEmail(ctx context.Context, email string) ([]models.Enrollment, error) {
	const query = `SELECT id, email, payment_id, class_name, class_image, instructor_name, instructor_email, price, seats, created_at FROM enrollments WHERE email = $1 ORDER BY created_at DESC`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, email); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// FindEnrollmentByPayment returns the enrollment created for a payment.
func (r *PaymentRepository) FindEnrollmentByPayment(ctx context.Context, paymentID string) (*models.Enrollment, error) {
	const query = `SELECT id, email, payment_id, class_name, class_image, instructor_name, instructor_email, price, seats, created_at FROM enrollments WHERE payment_id = $1 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, paymentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment by payment: %w", err)
	}
	return &enrollment, nil
}
