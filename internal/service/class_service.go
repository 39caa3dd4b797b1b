package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/courseloop/marketplace-api/internal/models"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
)

const approvedClassesCacheKey = "catalog:approved_classes"

type classRepository interface {
	Create(ctx context.Context, class *models.Class) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListAll(ctx context.Context) ([]models.Class, error)
	ListByStatus(ctx context.Context, status models.ClassStatus) ([]models.Class, error)
	ListByInstructor(ctx context.Context, email string) ([]models.Class, error)
	Transition(ctx context.Context, id string, target models.ClassStatus, feedback *string) (models.TransitionResult, error)
	IncrementTotalStudents(ctx context.Context, id string) (int64, error)
}

// SubmitClassRequest is the payload for instructor class submission.
type SubmitClassRequest struct {
	Name            string  `json:"name" validate:"required"`
	Image           string  `json:"image"`
	InstructorName  string  `json:"instructor_name" validate:"required"`
	InstructorEmail string  `json:"instructor_email" validate:"required,email"`
	Price           float64 `json:"price" validate:"gte=0"`
	Seats           int     `json:"seats" validate:"gte=0"`
}

// TransitionOutcome is returned by approve and deny operations.
type TransitionOutcome struct {
	ClassID string                  `json:"class_id"`
	Status  models.ClassStatus      `json:"status"`
	Result  models.TransitionResult `json:"result"`
}

// ClassService manages class submission, approval workflow, and listings.
type ClassService struct {
	repo      classRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the service.
func NewClassService(repo classRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Submit stores a new class in the pending state.
func (s *ClassService) Submit(ctx context.Context, req SubmitClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class := &models.Class{
		Name:            req.Name,
		Image:           req.Image,
		InstructorName:  req.InstructorName,
		InstructorEmail: req.InstructorEmail,
		Price:           req.Price,
		Seats:           req.Seats,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.logger.Info("class submitted",
		zap.String("class_id", class.ID),
		zap.String("instructor", class.InstructorEmail))
	return class, nil
}

// Approve transitions a pending class to approved. A class that already left
// the pending state reports already_processed rather than erroring.
func (s *ClassService) Approve(ctx context.Context, id string) (*TransitionOutcome, error) {
	result, err := s.repo.Transition(ctx, id, models.ClassStatusApproved, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve class")
	}
	if result == models.TransitionNotFound {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	if result == models.TransitionApplied {
		s.cache.Invalidate(ctx, approvedClassesCacheKey)
		s.logger.Info("class approved", zap.String("class_id", id))
	}

	return &TransitionOutcome{ClassID: id, Status: models.ClassStatusApproved, Result: result}, nil
}

// Deny transitions a pending class to denied with reviewer feedback.
func (s *ClassService) Deny(ctx context.Context, id, feedback string) (*TransitionOutcome, error) {
	result, err := s.repo.Transition(ctx, id, models.ClassStatusDenied, &feedback)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deny class")
	}
	if result == models.TransitionNotFound {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	if result == models.TransitionApplied {
		s.cache.Invalidate(ctx, approvedClassesCacheKey)
		s.logger.Info("class denied", zap.String("class_id", id))
	}

	return &TransitionOutcome{ClassID: id, Status: models.ClassStatusDenied, Result: result}, nil
}

// ListApproved returns the public catalog, served from cache when possible.
func (s *ClassService) ListApproved(ctx context.Context) ([]models.Class, error) {
	var cached []models.Class
	if s.cache.Get(ctx, approvedClassesCacheKey, &cached) {
		return cached, nil
	}

	classes, err := s.repo.ListByStatus(ctx, models.ClassStatusApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approved classes")
	}

	s.cache.Set(ctx, approvedClassesCacheKey, classes)
	return classes, nil
}

// ListAll returns every class for administrative views.
func (s *ClassService) ListAll(ctx context.Context) ([]models.Class, error) {
	classes, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// ListByInstructor returns an instructor's submissions.
func (s *ClassService) ListByInstructor(ctx context.Context, email string) ([]models.Class, error) {
	classes, err := s.repo.ListByInstructor(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructor classes")
	}
	return classes, nil
}

// IncrementTotalStudents bumps the enrolled-student counter on a class.
func (s *ClassService) IncrementTotalStudents(ctx context.Context, id string) error {
	affected, err := s.repo.IncrementTotalStudents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to increment student count")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	s.cache.Invalidate(ctx, approvedClassesCacheKey)
	return nil
}
