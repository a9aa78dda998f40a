package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaki-dev/jadwal-api/internal/dto"
	"github.com/mzaki-dev/jadwal-api/internal/models"
	appErrors "github.com/mzaki-dev/jadwal-api/pkg/errors"
)

type stubTeacherRepo struct {
	teachers map[string]*models.Teacher
}

func newStubTeacherRepo(teachers ...*models.Teacher) *stubTeacherRepo {
	repo := &stubTeacherRepo{teachers: make(map[string]*models.Teacher)}
	for _, teacher := range teachers {
		repo.teachers[teacher.ID] = teacher
	}
	return repo
}

func (r *stubTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var out []models.Teacher
	for _, teacher := range r.teachers {
		out = append(out, *teacher)
	}
	return out, len(out), nil
}

func (r *stubTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := r.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *teacher
	return &copied, nil
}

func (r *stubTeacherRepo) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	for _, teacher := range r.teachers {
		if teacher.Email == email && teacher.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	teacher.ID = uuid.NewString()
	r.teachers[teacher.ID] = teacher
	return nil
}

func (r *stubTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	if _, ok := r.teachers[teacher.ID]; !ok {
		return sql.ErrNoRows
	}
	r.teachers[teacher.ID] = teacher
	return nil
}

func (r *stubTeacherRepo) Deactivate(ctx context.Context, id string) error {
	teacher, ok := r.teachers[id]
	if !ok {
		return sql.ErrNoRows
	}
	teacher.Active = false
	return nil
}

type stubConstraintRepo struct {
	constraints map[string]*models.TeacherConstraint
}

func newStubConstraintRepo() *stubConstraintRepo {
	return &stubConstraintRepo{constraints: make(map[string]*models.TeacherConstraint)}
}

func (r *stubConstraintRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherConstraint, error) {
	var out []models.TeacherConstraint
	for _, constraint := range r.constraints {
		if constraint.TeacherID == teacherID {
			out = append(out, *constraint)
		}
	}
	return out, nil
}

func (r *stubConstraintRepo) Create(ctx context.Context, constraint *models.TeacherConstraint) error {
	constraint.ID = uuid.NewString()
	r.constraints[constraint.ID] = constraint
	return nil
}

func (r *stubConstraintRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.constraints[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.constraints, id)
	return nil
}

type stubAssignmentRepo struct {
	assignments map[string]*models.TeacherAssignment
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{assignments: make(map[string]*models.TeacherAssignment)}
}

func (r *stubAssignmentRepo) ListAll(ctx context.Context) ([]models.TeacherAssignment, error) {
	var out []models.TeacherAssignment
	for _, assignment := range r.assignments {
		out = append(out, *assignment)
	}
	return out, nil
}

func (r *stubAssignmentRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	var out []models.TeacherAssignment
	for _, assignment := range r.assignments {
		if assignment.TeacherID == teacherID {
			out = append(out, *assignment)
		}
	}
	return out, nil
}

func (r *stubAssignmentRepo) Create(ctx context.Context, assignment *models.TeacherAssignment) error {
	assignment.ID = uuid.NewString()
	r.assignments[assignment.ID] = assignment
	return nil
}

func (r *stubAssignmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.assignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.assignments, id)
	return nil
}

type stubSubjectReader struct {
	subjects map[string]*models.Subject
}

func (r *stubSubjectReader) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	subject, ok := r.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return subject, nil
}

type stubClassReader struct {
	classes map[string]*models.Class
}

func (r *stubClassReader) FindByID(ctx context.Context, id string) (*models.Class, error) {
	class, ok := r.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

func newTestTeacherService(repo *stubTeacherRepo) (*TeacherService, *stubConstraintRepo, *stubAssignmentRepo) {
	constraints := newStubConstraintRepo()
	assignments := newStubAssignmentRepo()
	subjects := &stubSubjectReader{subjects: map[string]*models.Subject{
		"s-math": {ID: "s-math", Code: "MATH", Name: "Mathematics", WeeklyHours: 4},
		"s-art":  {ID: "s-art", Code: "ART", Name: "Art", WeeklyHours: 2, Elective: true},
	}}
	classes := &stubClassReader{classes: map[string]*models.Class{
		"c1": {ID: "c1", Name: "10A", Grade: "10", Capacity: 32},
	}}
	svc := NewTeacherService(repo, constraints, assignments, subjects, classes, nil, nil)
	return svc, constraints, assignments
}

func TestTeacherCreateRejectsDuplicateEmail(t *testing.T) {
	repo := newStubTeacherRepo(&models.Teacher{ID: "t1", Email: "one@school.test", FullName: "Teacher One", Active: true})
	svc, _, _ := newTestTeacherService(repo)

	_, err := svc.Create(context.Background(), dto.CreateTeacherRequest{Email: "one@school.test", FullName: "Other"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTeacherDeactivate(t *testing.T) {
	repo := newStubTeacherRepo(&models.Teacher{ID: "t1", Email: "one@school.test", FullName: "Teacher One", Active: true})
	svc, _, _ := newTestTeacherService(repo)

	require.NoError(t, svc.Deactivate(context.Background(), "t1"))
	assert.False(t, repo.teachers["t1"].Active)

	err := svc.Deactivate(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAddConstraintParsesClockWindow(t *testing.T) {
	repo := newStubTeacherRepo(&models.Teacher{ID: "t1", Email: "one@school.test", FullName: "Teacher One", Active: true})
	svc, constraints, _ := newTestTeacherService(repo)

	constraint, err := svc.AddConstraint(context.Background(), "t1", dto.TeacherConstraintRequest{
		Day:   1,
		Start: "08:00",
		End:   "10:30",
	})
	require.NoError(t, err)
	assert.Equal(t, 480, constraint.StartMin)
	assert.Equal(t, 630, constraint.EndMin)
	assert.Len(t, constraints.constraints, 1)
}

func TestAddConstraintRejectsInvertedWindow(t *testing.T) {
	repo := newStubTeacherRepo(&models.Teacher{ID: "t1", Email: "one@school.test", FullName: "Teacher One", Active: true})
	svc, _, _ := newTestTeacherService(repo)

	_, err := svc.AddConstraint(context.Background(), "t1", dto.TeacherConstraintRequest{
		Day:   1,
		Start: "10:00",
		End:   "09:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignMainSubjectRequiresClasses(t *testing.T) {
	repo := newStubTeacherRepo(&models.Teacher{ID: "t1", Email: "one@school.test", FullName: "Teacher One", Active: true})
	svc, _, _ := newTestTeacherService(repo)

	_, err := svc.Assign(context.Background(), dto.AssignTeacherRequest{TeacherID: "t1", SubjectID: "s-math"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignElectiveRejectsClassList(t *testing.T) {
	repo := newStubTeacherRepo(&models.Teacher{ID: "t1", Email: "one@school.test", FullName: "Teacher One", Active: true})
	svc, _, _ := newTestTeacherService(repo)

	_, err := svc.Assign(context.Background(), dto.AssignTeacherRequest{TeacherID: "t1", SubjectID: "s-art", ClassIDs: []string{"c1"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignMainSubject(t *testing.T) {
	repo := newStubTeacherRepo(&models.Teacher{ID: "t1", Email: "one@school.test", FullName: "Teacher One", Active: true})
	svc, _, assignments := newTestTeacherService(repo)

	assignment, err := svc.Assign(context.Background(), dto.AssignTeacherRequest{TeacherID: "t1", SubjectID: "s-math", ClassIDs: []string{"c1"}})
	require.NoError(t, err)
	assert.NotEmpty(t, assignment.ID)
	assert.Len(t, assignments.assignments, 1)

	_, err = svc.Assign(context.Background(), dto.AssignTeacherRequest{TeacherID: "t1", SubjectID: "s-math", ClassIDs: []string{"ghost"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
