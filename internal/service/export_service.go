package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mzaki-dev/jadwal-api/internal/dto"
	"github.com/mzaki-dev/jadwal-api/internal/models"
	"github.com/mzaki-dev/jadwal-api/internal/timetable"
	"github.com/mzaki-dev/jadwal-api/pkg/config"
	appErrors "github.com/mzaki-dev/jadwal-api/pkg/errors"
	"github.com/mzaki-dev/jadwal-api/pkg/export"
	"github.com/mzaki-dev/jadwal-api/pkg/storage"
)

type exportLessonReader interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(maxAge time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderWeekGrid(grid export.WeekGrid, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders the persisted timetable into CSV or PDF files and
// hands out signed download tokens.
type ExportService struct {
	lessons   exportLessonReader
	classes   classLister
	subjects  subjectLister
	teachers  teacherLister
	rooms     roomLister
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.DownloadSigner
	validator *validator.Validate
	logger    *zap.Logger
	school    config.SchoolConfig
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(
	lessons exportLessonReader,
	classes classLister,
	subjects subjectLister,
	teachers teacherLister,
	rooms roomLister,
	store fileStorage,
	signer *storage.DownloadSigner,
	school config.SchoolConfig,
	cfg ExportConfig,
	validate *validator.Validate,
	logger *zap.Logger,
	csv csvRenderer,
	pdf pdfRenderer,
) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		lessons:   lessons,
		classes:   classes,
		subjects:  subjects,
		teachers:  teachers,
		rooms:     rooms,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		validator: validate,
		logger:    logger,
		school:    school,
		cfg:       cfg,
	}
}

// Export renders the requested view of the timetable and stores the file.
func (s *ExportService) Export(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}

	lessons, err := s.lessons.List(ctx, models.LessonFilter{ClassID: req.ClassID, TeacherID: req.TeacherID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	names, err := s.loadNames(ctx)
	if err != nil {
		return nil, err
	}

	title := s.exportTitle(req, names)
	var payload []byte
	switch req.Format {
	case "csv":
		payload, err = s.csv.Render(s.buildDataset(lessons, names))
	case "pdf":
		if req.ClassID != "" || req.TeacherID != "" {
			payload, err = s.pdf.RenderWeekGrid(s.buildWeekGrid(lessons, names), title)
		} else {
			payload, err = s.pdf.Render(s.buildDataset(lessons, names), title)
		}
	default:
		err = fmt.Errorf("unsupported format %s", req.Format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	filename := s.buildFilename(req)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export file")
	}

	token, expiresAt, err := s.signer.Sign(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("timetable exported",
		zap.String("format", req.Format),
		zap.Int("lessons", len(lessons)),
		zap.String("file", relPath),
	)
	return &dto.ExportTimetableResponse{
		Token:     token,
		URL:       fmt.Sprintf("%s/timetable/export/%s", prefix, token),
		Format:    req.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Open resolves a download token and returns the stored file handle.
func (s *ExportService) Open(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return file, nil
}

// Cleanup removes stored export files older than ttl. A non-positive ttl
// falls back to the configured result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

type exportNames struct {
	classes  map[string]string
	subjects map[string]string
	teachers map[string]string
	rooms    map[string]string
}

func (s *ExportService) loadNames(ctx context.Context) (exportNames, error) {
	names := exportNames{
		classes:  make(map[string]string),
		subjects: make(map[string]string),
		teachers: make(map[string]string),
		rooms:    make(map[string]string),
	}
	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return names, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	for _, c := range classes {
		names.classes[c.ID] = c.Name
	}
	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return names, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	for _, sub := range subjects {
		names.subjects[sub.ID] = sub.Name
	}
	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return names, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	for _, t := range teachers {
		names.teachers[t.ID] = t.FullName
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return names, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	for _, r := range rooms {
		names.rooms[r.ID] = r.Name
	}
	return names, nil
}

func (s *ExportService) exportTitle(req dto.ExportTimetableRequest, names exportNames) string {
	switch {
	case req.ClassID != "":
		return fmt.Sprintf("Timetable %s", lookupName(names.classes, req.ClassID))
	case req.TeacherID != "":
		return fmt.Sprintf("Timetable %s", lookupName(names.teachers, req.TeacherID))
	default:
		return "Weekly Timetable"
	}
}

func (s *ExportService) buildFilename(req dto.ExportTimetableRequest) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := "all"
	if req.ClassID != "" {
		scope = sanitizeFilename(req.ClassID)
	} else if req.TeacherID != "" {
		scope = sanitizeFilename(req.TeacherID)
	}
	return fmt.Sprintf("timetable_%s_%s.%s", scope, timestamp, req.Format)
}

// buildDataset flattens the lesson list into a tabular export, ordered by
// day then start time.
func (s *ExportService) buildDataset(lessons []models.Lesson, names exportNames) export.Dataset {
	sorted := make([]models.Lesson, len(lessons))
	copy(sorted, lessons)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Day != sorted[j].Day {
			return sorted[i].Day < sorted[j].Day
		}
		if sorted[i].StartMin != sorted[j].StartMin {
			return sorted[i].StartMin < sorted[j].StartMin
		}
		return sorted[i].ID < sorted[j].ID
	})

	rows := make([]map[string]string, 0, len(sorted))
	for _, lesson := range sorted {
		rows = append(rows, map[string]string{
			"Day":     models.DayName(lesson.Day),
			"Start":   timetable.FormatClock(lesson.StartMin),
			"End":     timetable.FormatClock(lesson.EndMin),
			"Group":   lessonGroupLabel(lesson, names),
			"Subject": lookupName(names.subjects, lesson.SubjectID),
			"Teacher": lookupName(names.teachers, lesson.TeacherID),
			"Room":    lessonRoomName(lesson, names),
		})
	}
	return export.Dataset{
		Headers: []string{"Day", "Start", "End", "Group", "Subject", "Teacher", "Room"},
		Rows:    rows,
	}
}

// buildWeekGrid lays a single class's or teacher's week out as time rows by
// day columns.
func (s *ExportService) buildWeekGrid(lessons []models.Lesson, names exportNames) export.WeekGrid {
	cfg := s.gridConfig()
	days := canonicalDays(cfg.Days)
	slots := cfg.SlotStarts()

	grid := export.WeekGrid{
		DayNames:   make([]string, len(days)),
		TimeLabels: make([]string, len(slots)),
		Cells:      make([][]string, len(slots)),
	}
	for j, day := range days {
		grid.DayNames[j] = models.DayName(day)
	}
	dayIndex := make(map[int]int, len(days))
	for j, day := range days {
		dayIndex[day] = j
	}
	slotIndex := make(map[int]int, len(slots))
	for i, start := range slots {
		slotIndex[start] = i
		grid.TimeLabels[i] = fmt.Sprintf("%s-%s", timetable.FormatClock(start), timetable.FormatClock(start+cfg.SessionMinutes))
		grid.Cells[i] = make([]string, len(days))
	}

	for _, lesson := range lessons {
		i, okSlot := slotIndex[lesson.StartMin]
		j, okDay := dayIndex[lesson.Day]
		if !okSlot || !okDay {
			continue
		}
		cell := lookupName(names.subjects, lesson.SubjectID)
		if room := lessonRoomName(lesson, names); room != "" {
			cell = fmt.Sprintf("%s (%s)", cell, room)
		}
		grid.Cells[i][j] = cell
	}
	return grid
}

func (s *ExportService) gridConfig() timetable.Config {
	start, err := timetable.ParseClock(s.school.DayStart)
	if err != nil {
		start = 7 * 60
	}
	end, err := timetable.ParseClock(s.school.DayEnd)
	if err != nil {
		end = 15 * 60
	}
	return timetable.Config{
		DayStartMin:    start,
		DayEndMin:      end,
		SessionMinutes: s.school.SessionMinutes,
		Days:           s.school.Days,
	}
}

func canonicalDays(days []int) []int {
	sorted := make([]int, len(days))
	copy(sorted, days)
	sort.Ints(sorted)
	return sorted
}

func lessonGroupLabel(lesson models.Lesson, names exportNames) string {
	if lesson.IsGroup() {
		return *lesson.GroupLabel
	}
	if lesson.ClassID != nil {
		return lookupName(names.classes, *lesson.ClassID)
	}
	return ""
}

func lessonRoomName(lesson models.Lesson, names exportNames) string {
	if lesson.RoomID == nil {
		return ""
	}
	return lookupName(names.rooms, *lesson.RoomID)
}

func lookupName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
