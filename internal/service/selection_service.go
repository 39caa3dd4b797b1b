package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/courseloop/marketplace-api/internal/models"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
)

type selectionRepository interface {
	Create(ctx context.Context, selection *models.Selection) error
	ListByStudent(ctx context.Context, email string) ([]models.SelectionDetail, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// AddSelectionRequest is the payload for selecting a class.
type AddSelectionRequest struct {
	ClassID    string `json:"class_id" validate:"required"`
	SelectedBy string `json:"selected_by" validate:"required,email"`
}

// SelectionService manages the per-student selection queue.
type SelectionService struct {
	repo      selectionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSelectionService constructs the service.
func NewSelectionService(repo selectionRepository, validate *validator.Validate, logger *zap.Logger) *SelectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionService{repo: repo, validator: validate, logger: logger}
}

// Add stores a selection entry. Duplicates are permitted.
func (s *SelectionService) Add(ctx context.Context, req AddSelectionRequest) (*models.Selection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}

	selection := &models.Selection{
		ClassID:    req.ClassID,
		SelectedBy: req.SelectedBy,
	}
	if err := s.repo.Create(ctx, selection); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create selection")
	}
	return selection, nil
}

// ListForStudent returns a student's pending selections.
func (s *SelectionService) ListForStudent(ctx context.Context, email string) ([]models.SelectionDetail, error) {
	selections, err := s.repo.ListByStudent(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list selections")
	}
	return selections, nil
}

// Remove deletes a selection by id. Removing a missing entry succeeds.
func (s *SelectionService) Remove(ctx context.Context, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete selection")
	}
	if !removed {
		s.logger.Debug("selection already removed", zap.String("selection_id", id))
	}
	return nil
}
