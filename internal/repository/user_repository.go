package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courseloop/marketplace-api/internal/models"
)

// UserRepository provides database access for user accounts and roles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, name, photo_url, role, created_at, updated_at FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, name, photo_url, role, created_at, updated_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// List returns all users ordered by registration time.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `SELECT id, email, name, photo_url, role, created_at, updated_at FROM users ORDER BY created_at DESC`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListByRole returns users holding the given role.
func (r *UserRepository) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	const query = `SELECT id, email, name, photo_url, role, created_at, updated_at FROM users WHERE role = $1 ORDER BY created_at DESC`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, role); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return users, nil
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if !user.Role.Valid() {
		user.Role = models.RoleStudent
	}

	const query = `INSERT INTO users (id, email, name, photo_url, role, created_at, updated_at) VALUES (:id, :email, :name, :photo_url, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateRole sets the role for a user. Returns the number of affected rows
// so callers can distinguish a promotion from a miss.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) (int64, error) {
	const query = `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, role, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("update user role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update user role affected: %w", err)
	}
	return affected, nil
}
