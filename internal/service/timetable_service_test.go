package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaki-dev/jadwal-api/internal/dto"
	"github.com/mzaki-dev/jadwal-api/internal/models"
	"github.com/mzaki-dev/jadwal-api/internal/timetable"
	"github.com/mzaki-dev/jadwal-api/pkg/config"
	appErrors "github.com/mzaki-dev/jadwal-api/pkg/errors"
)

type schedulingFixture struct {
	classes      []models.Class
	subjects     []models.Subject
	subjectReqs  []models.SubjectRequirement
	teachers     []models.Teacher
	rooms        []models.Room
	students     []models.Student
	constraints  []models.TeacherConstraint
	assignments  []models.TeacherAssignment
	requirements []models.LessonRequirement
}

func (f *schedulingFixture) ListAll(ctx context.Context) ([]models.Class, error) { return f.classes, nil }

type fixtureSubjects struct{ f *schedulingFixture }

func (s fixtureSubjects) ListAll(ctx context.Context) ([]models.Subject, error) {
	return s.f.subjects, nil
}

func (s fixtureSubjects) ListRequirements(ctx context.Context) ([]models.SubjectRequirement, error) {
	return s.f.subjectReqs, nil
}

type fixtureTeachers struct{ f *schedulingFixture }

func (s fixtureTeachers) ListAll(ctx context.Context) ([]models.Teacher, error) {
	return s.f.teachers, nil
}

type fixtureRooms struct{ f *schedulingFixture }

func (s fixtureRooms) ListAll(ctx context.Context) ([]models.Room, error) { return s.f.rooms, nil }

type fixtureStudents struct{ f *schedulingFixture }

func (s fixtureStudents) ListActive(ctx context.Context) ([]models.Student, error) {
	return s.f.students, nil
}

type fixtureConstraints struct{ f *schedulingFixture }

func (s fixtureConstraints) ListAll(ctx context.Context) ([]models.TeacherConstraint, error) {
	return s.f.constraints, nil
}

type fixtureAssignments struct{ f *schedulingFixture }

func (s fixtureAssignments) ListAll(ctx context.Context) ([]models.TeacherAssignment, error) {
	return s.f.assignments, nil
}

type fixtureRequirements struct{ f *schedulingFixture }

func (s fixtureRequirements) ListAll(ctx context.Context) ([]models.LessonRequirement, error) {
	return s.f.requirements, nil
}

type stubLessonRepo struct {
	lessons  []models.Lesson
	nextID   int64
	replaced []models.Lesson
	listErr  error
}

func (r *stubLessonRepo) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Lesson, len(r.lessons))
	copy(out, r.lessons)
	return out, nil
}

func (r *stubLessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	r.nextID++
	lesson.ID = r.nextID
	r.lessons = append(r.lessons, *lesson)
	return nil
}

func (r *stubLessonRepo) UpdateSlot(ctx context.Context, id int64, day, startMin, endMin int) error {
	for i := range r.lessons {
		if r.lessons[i].ID == id {
			r.lessons[i].Day = day
			r.lessons[i].StartMin = startMin
			r.lessons[i].EndMin = endMin
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *stubLessonRepo) Delete(ctx context.Context, id int64) error {
	for i := range r.lessons {
		if r.lessons[i].ID == id {
			r.lessons = append(r.lessons[:i], r.lessons[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *stubLessonRepo) ReplaceAllWithTx(ctx context.Context, tx *sqlx.Tx, lessons []models.Lesson) error {
	r.replaced = lessons
	return nil
}

type stubCache struct {
	values  map[string]string
	deleted []string
}

func newStubCache() *stubCache {
	return &stubCache{values: make(map[string]string)}
}

func (c *stubCache) Get(ctx context.Context, key string) (string, error) {
	return c.values[key], nil
}

func (c *stubCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.values[key] = value.(string)
	return nil
}

func (c *stubCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		c.deleted = append(c.deleted, key)
		delete(c.values, key)
	}
	return nil
}

func baseFixture() *schedulingFixture {
	return &schedulingFixture{
		classes: []models.Class{{ID: "c1", Name: "10A", Grade: "10", Capacity: 32}},
		subjects: []models.Subject{
			{ID: "s-math", Code: "MATH", Name: "Mathematics", WeeklyHours: 2},
		},
		teachers: []models.Teacher{{ID: "t1", Email: "t1@school.test", FullName: "Teacher One", Active: true}},
		rooms:    []models.Room{{ID: "r1", Name: "Room 101", Capacity: 32}},
		assignments: []models.TeacherAssignment{
			{ID: "a1", TeacherID: "t1", SubjectID: "s-math", ClassIDs: []string{"c1"}},
		},
	}
}

func newTestTimetableService(t *testing.T, f *schedulingFixture, repo *stubLessonRepo, tx txProvider, cache timetableCache, cacheCfg config.CacheConfig) *TimetableService {
	t.Helper()
	return NewTimetableService(
		f,
		fixtureSubjects{f},
		fixtureTeachers{f},
		fixtureRooms{f},
		fixtureStudents{f},
		fixtureConstraints{f},
		fixtureAssignments{f},
		fixtureRequirements{f},
		repo,
		tx,
		cache,
		nil,
		nil,
		config.SchoolConfig{DayStart: "08:00", DayEnd: "12:00", SessionMinutes: 60, Days: []int{1, 2, 3, 4, 5}},
		config.SchedulerConfig{ProposalTTL: time.Minute, ElectiveGroupSize: 30, ElectiveWeeklySessions: 2},
		cacheCfg,
	)
}

func TestGenerateCreatesProposal(t *testing.T) {
	svc := newTestTimetableService(t, baseFixture(), &stubLessonRepo{}, nil, nil, config.CacheConfig{})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Equal(t, 2, resp.Stats.RequiredUnits)
	assert.Equal(t, 2, resp.Stats.PlacedUnits)
	assert.Empty(t, resp.Unplaced)
	for _, lesson := range resp.Lessons {
		assert.Negative(t, lesson.ID)
	}
	assert.True(t, resp.ExpiresAt.After(time.Now()))
}

func TestGenerateSeedIsReproducible(t *testing.T) {
	seed := int64(99)
	svc := newTestTimetableService(t, baseFixture(), &stubLessonRepo{}, nil, nil, config.CacheConfig{})

	first, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Seed: &seed})
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{Seed: &seed})
	require.NoError(t, err)

	assert.Equal(t, first.Lessons, second.Lessons)
	assert.NotEqual(t, first.ProposalID, second.ProposalID)
}

func TestGenerateReportsMissingTeacher(t *testing.T) {
	f := baseFixture()
	f.assignments = nil
	svc := newTestTimetableService(t, f, &stubLessonRepo{}, nil, nil, config.CacheConfig{})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Lessons)
	require.Len(t, resp.Unplaced, 2)
	assert.Equal(t, timetable.ReasonNoTeacher, resp.Unplaced[0].Reason)
}

func TestSaveUnknownProposal(t *testing.T) {
	svc := newTestTimetableService(t, baseFixture(), &stubLessonRepo{}, nil, nil, config.CacheConfig{})

	_, err := svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSavePersistsProposal(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	repo := &stubLessonRepo{}
	svc := newTestTimetableService(t, baseFixture(), repo, sqlxDB, nil, config.CacheConfig{})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	saved, err := svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.Equal(t, len(resp.Lessons), saved.Saved)
	assert.Equal(t, resp.Lessons, repo.replaced)
	assert.NoError(t, mock.ExpectationsWereMet())

	// A proposal is single-use.
	_, err = svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: resp.ProposalID})
	require.Error(t, err)
}

func TestTimetableServesUnfilteredReadsFromCache(t *testing.T) {
	cached := []models.Lesson{{ID: 1, Day: 1, StartMin: 480, EndMin: 540, SubjectID: "s-math", TeacherID: "t1"}}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	cache := newStubCache()
	cache.values[timetableCacheKey] = string(payload)
	repo := &stubLessonRepo{listErr: sql.ErrConnDone}
	svc := newTestTimetableService(t, baseFixture(), repo, nil, cache, config.CacheConfig{Enabled: true, TTL: time.Minute})

	lessons, err := svc.Timetable(context.Background(), dto.TimetableQuery{})
	require.NoError(t, err)
	assert.Equal(t, cached, lessons)
}

func TestTimetableFilteredReadSkipsCache(t *testing.T) {
	cache := newStubCache()
	cache.values[timetableCacheKey] = `[{"id":999}]`
	repo := &stubLessonRepo{lessons: []models.Lesson{{ID: 1, Day: 1, StartMin: 480, EndMin: 540, SubjectID: "s-math", TeacherID: "t1"}}}
	svc := newTestTimetableService(t, baseFixture(), repo, nil, cache, config.CacheConfig{Enabled: true, TTL: time.Minute})

	lessons, err := svc.Timetable(context.Background(), dto.TimetableQuery{TeacherID: "t1"})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, int64(1), lessons[0].ID)
}

func TestPlaceLessonPersists(t *testing.T) {
	repo := &stubLessonRepo{nextID: 100}
	cache := newStubCache()
	svc := newTestTimetableService(t, baseFixture(), repo, nil, cache, config.CacheConfig{Enabled: true, TTL: time.Minute})

	resp, err := svc.PlaceLesson(context.Background(), dto.PlaceLessonRequest{
		SubjectID: "s-math",
		Day:       1,
		Start:     "08:00",
		ClassID:   "c1",
	})
	require.NoError(t, err)
	require.Nil(t, resp.Rejection)
	require.NotNil(t, resp.Lesson)
	assert.Equal(t, int64(101), resp.Lesson.ID)
	assert.Equal(t, "t1", resp.Lesson.TeacherID)
	assert.Contains(t, cache.deleted, timetableCacheKey)
}

func TestPlaceLessonReturnsRejection(t *testing.T) {
	classID := "c1"
	repo := &stubLessonRepo{
		nextID: 100,
		lessons: []models.Lesson{
			{ID: 1, Day: 1, StartMin: 480, EndMin: 540, SubjectID: "s-math", TeacherID: "t1", ClassID: &classID},
		},
	}
	svc := newTestTimetableService(t, baseFixture(), repo, nil, nil, config.CacheConfig{})

	resp, err := svc.PlaceLesson(context.Background(), dto.PlaceLessonRequest{
		SubjectID: "s-math",
		Day:       1,
		Start:     "08:00",
		ClassID:   "c1",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Rejection)
	assert.Equal(t, timetable.RejectClassBusy, resp.Rejection.Code)
	assert.Len(t, repo.lessons, 1)
}

func TestPlaceLessonRequiresExactlyOneView(t *testing.T) {
	svc := newTestTimetableService(t, baseFixture(), &stubLessonRepo{}, nil, nil, config.CacheConfig{})

	_, err := svc.PlaceLesson(context.Background(), dto.PlaceLessonRequest{
		SubjectID: "s-math",
		Day:       1,
		Start:     "08:00",
		ClassID:   "c1",
		TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPlaceLessonRejectsBadClock(t *testing.T) {
	svc := newTestTimetableService(t, baseFixture(), &stubLessonRepo{}, nil, nil, config.CacheConfig{})

	_, err := svc.PlaceLesson(context.Background(), dto.PlaceLessonRequest{
		SubjectID: "s-math",
		Day:       1,
		Start:     "eight",
		ClassID:   "c1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMoveLessonPersistsNewSlot(t *testing.T) {
	classID := "c1"
	repo := &stubLessonRepo{
		nextID: 100,
		lessons: []models.Lesson{
			{ID: 7, Day: 1, StartMin: 480, EndMin: 540, SubjectID: "s-math", TeacherID: "t1", ClassID: &classID},
		},
	}
	svc := newTestTimetableService(t, baseFixture(), repo, nil, nil, config.CacheConfig{})

	resp, err := svc.MoveLesson(context.Background(), 7, dto.MoveLessonRequest{Day: 2, Start: "09:00"})
	require.NoError(t, err)
	require.Nil(t, resp.Rejection)
	assert.Equal(t, 2, resp.Lesson.Day)
	assert.Equal(t, 540, resp.Lesson.StartMin)
	assert.Equal(t, 600, resp.Lesson.EndMin)
	assert.Equal(t, 2, repo.lessons[0].Day)
}

func TestMoveLessonUnknownID(t *testing.T) {
	svc := newTestTimetableService(t, baseFixture(), &stubLessonRepo{}, nil, nil, config.CacheConfig{})

	_, err := svc.MoveLesson(context.Background(), 404, dto.MoveLessonRequest{Day: 2, Start: "09:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteLesson(t *testing.T) {
	classID := "c1"
	repo := &stubLessonRepo{
		lessons: []models.Lesson{
			{ID: 7, Day: 1, StartMin: 480, EndMin: 540, SubjectID: "s-math", TeacherID: "t1", ClassID: &classID},
		},
	}
	svc := newTestTimetableService(t, baseFixture(), repo, nil, nil, config.CacheConfig{})

	require.NoError(t, svc.DeleteLesson(context.Background(), 7))
	assert.Empty(t, repo.lessons)

	err := svc.DeleteLesson(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
