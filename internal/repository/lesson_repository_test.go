package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

func newLessonRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func lessonRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "day_of_week", "start_min", "end_min", "subject_id", "teacher_id", "room_id", "class_id", "group_label", "student_ids", "created_at", "updated_at"})
}

func TestLessonRepositoryList(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	rows := lessonRows().
		AddRow(int64(1), 1, 480, 525, "s1", "t1", "r1", "c1", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day_of_week, start_min, end_min, subject_id, teacher_id, room_id, class_id, group_label, student_ids, created_at, updated_at FROM lessons WHERE 1=1 ORDER BY day_of_week, start_min, id")).
		WillReturnRows(rows)

	lessons, err := repo.List(context.Background(), models.LessonFilter{})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, int64(1), lessons[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListFiltered(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	day := 2
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND class_id = $1 AND day_of_week = $2 ORDER BY day_of_week, start_min, id")).
		WithArgs("c1", 2).
		WillReturnRows(lessonRows())

	lessons, err := repo.List(context.Background(), models.LessonFilter{ClassID: "c1", Day: &day})
	require.NoError(t, err)
	assert.Empty(t, lessons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery("INSERT INTO lessons").
		WithArgs(1, 480, 525, "s1", "t1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	classID := "c1"
	lesson := &models.Lesson{Day: 1, StartMin: 480, EndMin: 525, SubjectID: "s1", TeacherID: "t1", ClassID: &classID}
	require.NoError(t, repo.Create(context.Background(), lesson))
	assert.Equal(t, int64(42), lesson.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryUpdateSlot(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec("UPDATE lessons SET day_of_week").
		WithArgs(int64(7), 3, 600, 645, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateSlot(context.Background(), 7, 3, 600, 645))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryUpdateSlotMissing(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec("UPDATE lessons SET day_of_week").
		WithArgs(int64(7), 3, 600, 645, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Error(t, repo.UpdateSlot(context.Background(), 7, 3, 600, 645))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 7))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Error(t, repo.Delete(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryReplaceAllWithTx(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO lessons").
		WithArgs(1, 480, 525, "s1", "t1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	classID := "c1"
	lessons := []models.Lesson{{ID: -1, Day: 1, StartMin: 480, EndMin: 525, SubjectID: "s1", TeacherID: "t1", ClassID: &classID}}
	require.NoError(t, repo.ReplaceAllWithTx(context.Background(), tx, lessons))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
