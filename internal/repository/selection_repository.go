package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courseloop/marketplace-api/internal/models"
)

// SelectionRepository persists students' purchase intents.
type SelectionRepository struct {
	db *sqlx.DB
}

// NewSelectionRepository constructs the repository.
func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

// Create inserts a selection entry. No uniqueness constraint applies;
// repeated selections of the same class are stored as separate rows.
func (r *SelectionRepository) Create(ctx context.Context, selection *models.Selection) error {
	if selection.ID == "" {
		selection.ID = uuid.NewString()
	}
	if selection.CreatedAt.IsZero() {
		selection.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO selections (id, class_id, selected_by, created_at) VALUES (:id, :class_id, :selected_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, selection); err != nil {
		return fmt.Errorf("create selection: %w", err)
	}
	return nil
}

// ListByStudent returns the student's selections joined with class details.
func (r *SelectionRepository) ListByStudent(ctx context.Context, email string) ([]models.SelectionDetail, error) {
	const query = `SELECT s.id, s.class_id, s.selected_by, s.created_at,
        c.name AS class_name, c.image AS class_image, c.instructor_name, c.instructor_email, c.price, c.seats
        FROM selections s
        JOIN classes c ON c.id = s.class_id
        WHERE s.selected_by = $1
        ORDER BY s.created_at DESC`
	var selections []models.SelectionDetail
	if err := r.db.SelectContext(ctx, &selections, query, email); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return selections, nil
}

// Delete removes a selection by identifier. Deleting a missing entry is not
// an error; the boolean reports whether a row was removed.
func (r *SelectionRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM selections WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete selection: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete selection affected: %w", err)
	}
	return affected > 0, nil
}
