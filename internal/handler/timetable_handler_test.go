package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mzaki-dev/jadwal-api/internal/dto"
	internalmiddleware "github.com/mzaki-dev/jadwal-api/internal/middleware"
	"github.com/mzaki-dev/jadwal-api/internal/models"
	"github.com/mzaki-dev/jadwal-api/internal/timetable"
)

type timetableServiceMock struct {
	captured  dto.PlaceLessonRequest
	rejection *timetable.Rejection
	deleted   []int64
}

func (m *timetableServiceMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	return &dto.GenerateTimetableResponse{ProposalID: "proposal-1"}, nil
}

func (m *timetableServiceMock) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	return &dto.SaveTimetableResponse{Saved: 0}, nil
}

func (m *timetableServiceMock) Timetable(ctx context.Context, query dto.TimetableQuery) ([]models.Lesson, error) {
	return nil, nil
}

func (m *timetableServiceMock) PlaceLesson(ctx context.Context, req dto.PlaceLessonRequest) (*dto.LessonMutationResponse, error) {
	m.captured = req
	if m.rejection != nil {
		return &dto.LessonMutationResponse{Rejection: m.rejection}, nil
	}
	classID := req.ClassID
	return &dto.LessonMutationResponse{Lesson: &models.Lesson{ID: 7, Day: req.Day, SubjectID: req.SubjectID, ClassID: &classID}}, nil
}

func (m *timetableServiceMock) MoveLesson(ctx context.Context, lessonID int64, req dto.MoveLessonRequest) (*dto.LessonMutationResponse, error) {
	if m.rejection != nil {
		return &dto.LessonMutationResponse{Rejection: m.rejection}, nil
	}
	return &dto.LessonMutationResponse{Lesson: &models.Lesson{ID: lessonID, Day: req.Day}}, nil
}

func (m *timetableServiceMock) DeleteLesson(ctx context.Context, lessonID int64) error {
	m.deleted = append(m.deleted, lessonID)
	return nil
}

func TestPlaceLessonCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	handler := &TimetableHandler{service: mockSvc}

	payload := []byte(`{"subjectId":"s-math","day":1,"start":"08:00","classId":"c1"}`)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/lessons", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Place(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "s-math", mockSvc.captured.SubjectID)
	require.Equal(t, "c1", mockSvc.captured.ClassID)
}

func TestPlaceLessonConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{rejection: &timetable.Rejection{Code: timetable.RejectClassBusy, Message: "class 10A already has a lesson"}}
	handler := &TimetableHandler{service: mockSvc}

	payload := []byte(`{"subjectId":"s-math","day":1,"start":"08:00","classId":"c1"}`)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/lessons", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Place(c)

	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Data dto.LessonMutationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.Rejection)
	require.Equal(t, timetable.RejectClassBusy, envelope.Data.Rejection.Code)
	require.Nil(t, envelope.Data.Lesson)
}

func TestPlaceLessonValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/timetable/lessons", bytes.NewReader([]byte(`{"subjectId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Place(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveLessonRejectsBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{}}
	router := gin.New()
	router.PUT("/timetable/lessons/:id", handler.Move)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/timetable/lessons/abc", bytes.NewReader([]byte(`{"day":1,"start":"08:00"}`)))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteLessonNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	handler := &TimetableHandler{service: mockSvc}
	router := gin.New()
	router.DELETE("/timetable/lessons/:id", handler.Delete)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/timetable/lessons/42", nil)

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, []int64{42}, mockSvc.deleted)
}

func TestGenerateUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{}}
	router := gin.New()
	router.POST("/timetable/generate", internalmiddleware.RequireRoles(models.RoleAdmin), handler.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timetable/generate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateForbiddenForTeacherRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{}}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher})
		c.Next()
	})
	router.POST("/timetable/generate", internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleStaff), handler.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timetable/generate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}
