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

type stubClassRepo struct {
	classes map[string]*models.Class
}

func newStubClassRepo(classes ...*models.Class) *stubClassRepo {
	repo := &stubClassRepo{classes: make(map[string]*models.Class)}
	for _, class := range classes {
		repo.classes[class.ID] = class
	}
	return repo
}

func (r *stubClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	var out []models.Class
	for _, class := range r.classes {
		out = append(out, *class)
	}
	return out, len(out), nil
}

func (r *stubClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	class, ok := r.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *class
	return &copied, nil
}

func (r *stubClassRepo) Create(ctx context.Context, class *models.Class) error {
	class.ID = uuid.NewString()
	r.classes[class.ID] = class
	return nil
}

func (r *stubClassRepo) Update(ctx context.Context, class *models.Class) error {
	if _, ok := r.classes[class.ID]; !ok {
		return sql.ErrNoRows
	}
	r.classes[class.ID] = class
	return nil
}

func (r *stubClassRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.classes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.classes, id)
	return nil
}

func TestClassServiceCreate(t *testing.T) {
	svc := NewClassService(newStubClassRepo(), &stubLessonRepo{}, nil, nil)

	class, err := svc.Create(context.Background(), dto.CreateClassRequest{Name: "10A", Grade: "10", Capacity: 32})
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)
	assert.Equal(t, "10A", class.Name)
}

func TestClassServiceCreateInvalid(t *testing.T) {
	svc := NewClassService(newStubClassRepo(), &stubLessonRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateClassRequest{Name: "", Grade: "10", Capacity: 32})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceUpdateMissing(t *testing.T) {
	svc := NewClassService(newStubClassRepo(), &stubLessonRepo{}, nil, nil)

	_, err := svc.Update(context.Background(), "ghost", dto.UpdateClassRequest{Name: "10A", Grade: "10", Capacity: 32})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceDeleteBlockedByLessons(t *testing.T) {
	classID := "c1"
	repo := newStubClassRepo(&models.Class{ID: "c1", Name: "10A", Grade: "10", Capacity: 32})
	lessons := &stubLessonRepo{lessons: []models.Lesson{
		{ID: 1, Day: 1, StartMin: 480, EndMin: 540, SubjectID: "s-math", TeacherID: "t1", ClassID: &classID},
	}}
	svc := NewClassService(repo, lessons, nil, nil)

	err := svc.Delete(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestClassServiceDelete(t *testing.T) {
	repo := newStubClassRepo(&models.Class{ID: "c1", Name: "10A", Grade: "10", Capacity: 32})
	svc := NewClassService(repo, &stubLessonRepo{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "c1"))
	_, err := svc.Get(context.Background(), "c1")
	require.Error(t, err)
}
