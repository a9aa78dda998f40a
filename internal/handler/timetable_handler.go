package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mzaki-dev/jadwal-api/internal/dto"
	"github.com/mzaki-dev/jadwal-api/internal/models"
	"github.com/mzaki-dev/jadwal-api/internal/service"
	appErrors "github.com/mzaki-dev/jadwal-api/pkg/errors"
	"github.com/mzaki-dev/jadwal-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error)
	Timetable(ctx context.Context, query dto.TimetableQuery) ([]models.Lesson, error)
	PlaceLesson(ctx context.Context, req dto.PlaceLessonRequest) (*dto.LessonMutationResponse, error)
	MoveLesson(ctx context.Context, lessonID int64, req dto.MoveLessonRequest) (*dto.LessonMutationResponse, error)
	DeleteLesson(ctx context.Context, lessonID int64) error
}

type timetableExporter interface {
	Export(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportTimetableResponse, error)
	Open(token string) (*os.File, error)
}

// TimetableHandler exposes generation, editing and export endpoints.
type TimetableHandler struct {
	service  timetableService
	exporter timetableExporter
	metrics  *service.MetricsService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc *service.TimetableService, exporter *service.ExportService, metrics *service.MetricsService) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter, metrics: metrics}
}

// Generate godoc
// @Summary Generate a weekly timetable proposal
// @Description Runs the placement engine over the current master data. The result is a preview; nothing persists until saved.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation options"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}

	start := time.Now()
	res, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveGeneration(len(res.Lessons), len(res.Unplaced), time.Since(start))
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Save godoc
// @Summary Persist a generated proposal
// @Description Replaces the stored timetable with the proposal's lessons in one transaction
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetableRequest true "Save payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/save [post]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}

	res, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// List godoc
// @Summary List the persisted timetable
// @Tags Timetable
// @Produce json
// @Param classId query string false "Filter by class"
// @Param teacherId query string false "Filter by teacher"
// @Param subjectId query string false "Filter by subject"
// @Param roomId query string false "Filter by room"
// @Param day query int false "Filter by day (1=Monday)"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	lessons, err := h.service.Timetable(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Place godoc
// @Summary Place a single lesson
// @Description Validates the slot against the full conflict model. A refusal returns 409 with a rejection code instead of an error.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.PlaceLessonRequest true "Placement payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/lessons [post]
func (h *TimetableHandler) Place(c *gin.Context) {
	var req dto.PlaceLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid placement payload"))
		return
	}

	res, err := h.service.PlaceLesson(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if res.Rejection != nil {
		if h.metrics != nil {
			h.metrics.RecordEditRejection(string(res.Rejection.Code))
		}
		response.JSON(c, http.StatusConflict, res, nil)
		return
	}
	response.JSON(c, http.StatusCreated, res, nil)
}

// Move godoc
// @Summary Move a lesson to another slot
// @Description Re-validates occupancy at the target slot. A refusal returns 409 with a rejection code.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param payload body dto.MoveLessonRequest true "Move payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/lessons/{id} [put]
func (h *TimetableHandler) Move(c *gin.Context) {
	lessonID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid lesson id"))
		return
	}

	var req dto.MoveLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}

	res, err := h.service.MoveLesson(c.Request.Context(), lessonID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if res.Rejection != nil {
		if h.metrics != nil {
			h.metrics.RecordEditRejection(string(res.Rejection.Code))
		}
		response.JSON(c, http.StatusConflict, res, nil)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Delete godoc
// @Summary Delete a lesson
// @Description Deleting always succeeds for an existing lesson; removal cannot create conflicts
// @Tags Timetable
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /timetable/lessons/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	lessonID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid lesson id"))
		return
	}

	if err := h.service.DeleteLesson(c.Request.Context(), lessonID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the timetable as CSV or PDF
// @Description Renders the persisted timetable to a file and returns a signed download URL
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ExportTimetableRequest true "Export options"
// @Success 200 {object} response.Envelope
// @Router /timetable/export [post]
func (h *TimetableHandler) Export(c *gin.Context) {
	var req dto.ExportTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	res, err := h.exporter.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Download godoc
// @Summary Download an exported file
// @Description Streams the file referenced by a signed export token
// @Tags Timetable
// @Produce octet-stream
// @Param token path string true "Signed export token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/export/{token} [get]
func (h *TimetableHandler) Download(c *gin.Context) {
	file, err := h.exporter.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}

	name := filepath.Base(file.Name())
	contentType := "application/octet-stream"
	switch filepath.Ext(name) {
	case ".csv":
		contentType = "text/csv"
	case ".pdf":
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", "attachment; filename=\""+name+"\"")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
