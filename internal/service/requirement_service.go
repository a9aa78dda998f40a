package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mzaki-dev/jadwal-api/internal/dto"
	"github.com/mzaki-dev/jadwal-api/internal/models"
	appErrors "github.com/mzaki-dev/jadwal-api/pkg/errors"
)

type requirementRepository interface {
	ListAll(ctx context.Context) ([]models.LessonRequirement, error)
	Upsert(ctx context.Context, req *models.LessonRequirement) error
	Delete(ctx context.Context, id string) error
}

// RequirementService manages per-class weekly hour overrides.
type RequirementService struct {
	repo      requirementRepository
	classes   studentClassReader
	subjects  studentSubjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequirementService constructs RequirementService.
func NewRequirementService(repo requirementRepository, classes studentClassReader, subjects studentSubjectReader, validate *validator.Validate, logger *zap.Logger) *RequirementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequirementService{repo: repo, classes: classes, subjects: subjects, validator: validate, logger: logger}
}

// List returns every hour override.
func (s *RequirementService) List(ctx context.Context) ([]models.LessonRequirement, error) {
	requirements, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requirements")
	}
	return requirements, nil
}

// Upsert replaces the weekly hour demand for a class/subject pair.
func (s *RequirementService) Upsert(ctx context.Context, req dto.LessonRequirementRequest) (*models.LessonRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid requirement payload")
	}

	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.Elective {
		return nil, appErrors.Clone(appErrors.ErrValidation, "electives are scheduled per group, not per class")
	}

	requirement := &models.LessonRequirement{
		ClassID:     req.ClassID,
		SubjectID:   req.SubjectID,
		WeeklyHours: req.WeeklyHours,
	}
	if err := s.repo.Upsert(ctx, requirement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save requirement")
	}
	return requirement, nil
}

// Delete removes an hour override; the subject default applies again.
func (s *RequirementService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "requirement not found")
	}
	return nil
}
