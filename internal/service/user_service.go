package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/courseloop/marketplace-api/internal/models"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id string, role models.UserRole) (int64, error)
}

// RegisterUserRequest is the payload for user registration.
type RegisterUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	PhotoURL string `json:"photo_url"`
}

// RegisterResult reports whether registration created a record.
type RegisterResult struct {
	User          *models.User `json:"user,omitempty"`
	AlreadyExists bool         `json:"already_exists"`
}

// RoleCheck answers the role verification endpoints.
type RoleCheck struct {
	Matches bool
}

// UserService manages accounts and role assignment.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// Register stores a new user. Registering an email that already exists is a
// no-op reported through AlreadyExists, never an error.
func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (*RegisterResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing user")
	}
	if existing != nil {
		return &RegisterResult{User: existing, AlreadyExists: true}, nil
	}

	user := &models.User{
		Email:    email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
		Role:     models.RoleStudent,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("email", user.Email))
	return &RegisterResult{User: user}, nil
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// ListInstructors returns users with the instructor role.
func (s *UserService) ListInstructors(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListByRole(ctx, models.RoleInstructor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return users, nil
}

// Promote assigns the given role to a user by id.
func (s *UserService) Promote(ctx context.Context, id string, role models.UserRole) error {
	if role != models.RoleAdmin && role != models.RoleInstructor {
		return appErrors.Clone(appErrors.ErrValidation, "role must be admin or instructor")
	}

	affected, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}

	s.logger.Info("user promoted", zap.String("user_id", id), zap.String("role", string(role)))
	return nil
}

// CheckRole reports whether the stored role for email matches the requested
// role. The check short-circuits to false when the authenticated identity
// differs from the requested email, regardless of the stored role.
func (s *UserService) CheckRole(ctx context.Context, tokenEmail, email string, role models.UserRole) (bool, error) {
	if !strings.EqualFold(tokenEmail, email) {
		return false, nil
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	return user.EffectiveRole() == role, nil
}
