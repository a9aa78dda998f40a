package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mzaki-dev/jadwal-api/internal/dto"
	"github.com/mzaki-dev/jadwal-api/internal/models"
	"github.com/mzaki-dev/jadwal-api/internal/timetable"
	appErrors "github.com/mzaki-dev/jadwal-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Deactivate(ctx context.Context, id string) error
}

type constraintRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherConstraint, error)
	Create(ctx context.Context, constraint *models.TeacherConstraint) error
	Delete(ctx context.Context, id string) error
}

type assignmentRepository interface {
	ListAll(ctx context.Context) ([]models.TeacherAssignment, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error)
	Create(ctx context.Context, assignment *models.TeacherAssignment) error
	Delete(ctx context.Context, id string) error
}

type assignmentSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type assignmentClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// TeacherService coordinates teacher records, availability constraints, and
// subject coverage assignments.
type TeacherService struct {
	repo        teacherRepository
	constraints constraintRepository
	assignments assignmentRepository
	subjects    assignmentSubjectReader
	classes     assignmentClassReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(
	repo teacherRepository,
	constraints constraintRepository,
	assignments assignmentRepository,
	subjects assignmentSubjectReader,
	classes assignmentClassReader,
	validate *validator.Validate,
	logger *zap.Logger,
) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{
		repo:        repo,
		constraints: constraints,
		assignments: assignments,
		subjects:    subjects,
		classes:     classes,
		validator:   validate,
		logger:      logger,
	}
}

// List returns teachers with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher.
func (s *TeacherService) Create(ctx context.Context, req dto.CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher email already exists")
	}

	teacher := &models.Teacher{
		Email:      req.Email,
		FullName:   req.FullName,
		Phone:      req.Phone,
		SubjectIDs: req.SubjectIDs,
		Active:     true,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies a teacher record.
func (s *TeacherService) Update(ctx context.Context, id string, req dto.UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher email already exists")
	}

	teacher.Email = req.Email
	teacher.FullName = req.FullName
	teacher.Phone = req.Phone
	teacher.SubjectIDs = req.SubjectIDs
	teacher.Active = req.Active

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// Deactivate retires a teacher without deleting history.
func (s *TeacherService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	return nil
}

// ListConstraints returns one teacher's unavailability windows.
func (s *TeacherService) ListConstraints(ctx context.Context, teacherID string) ([]models.TeacherConstraint, error) {
	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}
	constraints, err := s.constraints.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list constraints")
	}
	return constraints, nil
}

// AddConstraint records an unavailability window for a teacher.
func (s *TeacherService) AddConstraint(ctx context.Context, teacherID string, req dto.TeacherConstraintRequest) (*models.TeacherConstraint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid constraint payload")
	}
	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}

	startMin, err := timetable.ParseClock(req.Start)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q", req.Start))
	}
	endMin, err := timetable.ParseClock(req.End)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end time %q", req.End))
	}
	if startMin >= endMin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "constraint start must precede end")
	}

	constraint := &models.TeacherConstraint{
		TeacherID:   teacherID,
		Day:         req.Day,
		StartMin:    startMin,
		EndMin:      endMin,
		Description: req.Description,
	}
	if err := s.constraints.Create(ctx, constraint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create constraint")
	}
	return constraint, nil
}

// DeleteConstraint removes an unavailability window.
func (s *TeacherService) DeleteConstraint(ctx context.Context, id string) error {
	if err := s.constraints.Delete(ctx, id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "constraint not found")
	}
	return nil
}

// ListAssignments returns every subject coverage record, or one teacher's
// when teacherID is set.
func (s *TeacherService) ListAssignments(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	var (
		assignments []models.TeacherAssignment
		err         error
	)
	if teacherID == "" {
		assignments, err = s.assignments.ListAll(ctx)
	} else {
		assignments, err = s.assignments.ListByTeacher(ctx, teacherID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Assign binds a teacher to a subject for a set of classes. Elective
// subjects take no class list; main subjects require one.
func (s *TeacherService) Assign(ctx context.Context, req dto.AssignTeacherRequest) (*models.TeacherAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.Get(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.Elective && len(req.ClassIDs) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "elective assignments do not take a class list")
	}
	if !subject.Elective && len(req.ClassIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "main subject assignments require at least one class")
	}
	for _, classID := range req.ClassIDs {
		if _, err := s.classes.FindByID(ctx, classID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found", classID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
	}

	assignment := &models.TeacherAssignment{
		TeacherID: req.TeacherID,
		SubjectID: req.SubjectID,
		ClassIDs:  req.ClassIDs,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Unassign removes a subject coverage record.
func (s *TeacherService) Unassign(ctx context.Context, id string) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return nil
}
