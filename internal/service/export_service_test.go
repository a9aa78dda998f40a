package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaki-dev/jadwal-api/internal/dto"
	"github.com/mzaki-dev/jadwal-api/internal/models"
	"github.com/mzaki-dev/jadwal-api/pkg/config"
	appErrors "github.com/mzaki-dev/jadwal-api/pkg/errors"
	"github.com/mzaki-dev/jadwal-api/pkg/storage"
)

func newTestExportService(t *testing.T, repo *stubLessonRepo) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewDownloadSigner("export_secret", time.Hour)

	f := baseFixture()
	svc := NewExportService(
		repo,
		f,
		fixtureSubjects{f},
		fixtureTeachers{f},
		fixtureRooms{f},
		store,
		signer,
		config.SchoolConfig{DayStart: "08:00", DayEnd: "12:00", SessionMinutes: 60, Days: []int{1, 2, 3, 4, 5}},
		ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour},
		nil,
		nil,
		nil,
		nil,
	)
	return svc, store
}

func exportFixtureLessons() []models.Lesson {
	classID := "c1"
	roomID := "r1"
	return []models.Lesson{
		{ID: 1, Day: 1, StartMin: 480, EndMin: 540, SubjectID: "s-math", TeacherID: "t1", ClassID: &classID, RoomID: &roomID},
		{ID: 2, Day: 2, StartMin: 540, EndMin: 600, SubjectID: "s-math", TeacherID: "t1", ClassID: &classID},
	}
}

func TestExportCSV(t *testing.T) {
	repo := &stubLessonRepo{lessons: exportFixtureLessons()}
	svc, store := newTestExportService(t, repo)

	resp, err := svc.Export(context.Background(), dto.ExportTimetableRequest{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "csv", resp.Format)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, strings.HasPrefix(resp.URL, "/api/v1/timetable/export/"))
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	file, err := svc.Open(resp.Token)
	require.NoError(t, err)
	defer file.Close()

	buf := make([]byte, 4096)
	n, _ := file.Read(buf)
	content := string(buf[:n])
	assert.Contains(t, content, "Day,Start,End,Group,Subject,Teacher,Room")
	assert.Contains(t, content, "Monday,08:00,09:00,10A,Mathematics,Teacher One,Room 101")
	assert.Contains(t, content, "Tuesday,09:00,10:00,10A,Mathematics,Teacher One,")
	_ = store
}

func TestExportPDFWeekGridForClass(t *testing.T) {
	repo := &stubLessonRepo{lessons: exportFixtureLessons()}
	svc, _ := newTestExportService(t, repo)

	resp, err := svc.Export(context.Background(), dto.ExportTimetableRequest{Format: "pdf", ClassID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "pdf", resp.Format)

	file, err := svc.Open(resp.Token)
	require.NoError(t, err)
	defer file.Close()

	header := make([]byte, 5)
	_, err = file.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(header))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, _ := newTestExportService(t, &stubLessonRepo{})

	_, err := svc.Export(context.Background(), dto.ExportTimetableRequest{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOpenRejectsTamperedToken(t *testing.T) {
	repo := &stubLessonRepo{lessons: exportFixtureLessons()}
	svc, _ := newTestExportService(t, repo)

	resp, err := svc.Export(context.Background(), dto.ExportTimetableRequest{Format: "csv"})
	require.NoError(t, err)

	_, err = svc.Open(resp.Token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestCleanupKeepsFreshExports(t *testing.T) {
	repo := &stubLessonRepo{lessons: exportFixtureLessons()}
	svc, store := newTestExportService(t, repo)

	_, err := svc.Export(context.Background(), dto.ExportTimetableRequest{Format: "csv"})
	require.NoError(t, err)

	deleted, err := svc.Cleanup(0)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	// A negative ttl puts the cutoff in the future, so everything goes.
	deleted, err = store.CleanupOlderThan(-time.Hour)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
}
