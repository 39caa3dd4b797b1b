package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courseloop/marketplace-api/internal/models"
)

const classColumns = `id, name, image, instructor_name, instructor_email, price, seats, total_students, status, feedback, created_at, updated_at`

// ClassRepository handles persistence of class offerings, including the
// pending/approved/denied state machine.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create inserts a submitted class. Status always starts as pending.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	class.Status = models.ClassStatusPending

	const query = `INSERT INTO classes (id, name, image, instructor_name, instructor_email, price, seats, total_students, status, feedback, created_at, updated_at)
        VALUES (:id, :name, :image, :instructor_name, :instructor_email, :price, :seats, :total_students, :status, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// FindByID returns a class by identifier.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE id = $1 LIMIT 1`, classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class by id: %w", err)
	}
	return &class, nil
}

// ListAll returns every class regardless of status.
func (r *ClassRepository) ListAll(ctx context.Context) ([]models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes ORDER BY created_at DESC`, classColumns)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListByStatus returns classes in the given lifecycle state.
func (r *ClassRepository) ListByStatus(ctx context.Context, status models.ClassStatus) ([]models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE status = $1 ORDER BY created_at DESC`, classColumns)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, status); err != nil {
		return nil, fmt.Errorf("list classes by status: %w", err)
	}
	return classes, nil
}

// ListByInstructor returns all classes submitted by an instructor email.
func (r *ClassRepository) ListByInstructor(ctx context.Context, email string) ([]models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE instructor_email = $1 ORDER BY created_at DESC`, classColumns)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, email); err != nil {
		return nil, fmt.Errorf("list classes by instructor: %w", err)
	}
	return classes, nil
}

// Transition moves a pending class into the target status. The update is
// conditioned on the current status being pending; when zero rows change the
// result distinguishes an already-processed class from a missing one.
func (r *ClassRepository) Transition(ctx context.Context, id string, target models.ClassStatus, feedback *string) (models.TransitionResult, error) {
	const query = `UPDATE classes SET status = $2, feedback = $3, updated_at = $4 WHERE id = $1 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, id, target, feedback, time.Now().UTC(), models.ClassStatusPending)
	if err != nil {
		return "", fmt.Errorf("transition class status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("transition class affected: %w", err)
	}
	if affected > 0 {
		return models.TransitionApplied, nil
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TransitionNotFound, nil
		}
		return "", err
	}
	return models.TransitionAlreadyProcessed, nil
}

// IncrementTotalStudents bumps the running student counter by one.
func (r *ClassRepository) IncrementTotalStudents(ctx context.Context, id string) (int64, error) {
	const query = `UPDATE classes SET total_students = total_students + 1, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("increment total students: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("increment total students affected: %w", err)
	}
	return affected, nil
}
