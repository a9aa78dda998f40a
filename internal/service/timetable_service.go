package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mzaki-dev/jadwal-api/internal/dto"
	"github.com/mzaki-dev/jadwal-api/internal/models"
	"github.com/mzaki-dev/jadwal-api/internal/timetable"
	"github.com/mzaki-dev/jadwal-api/pkg/config"
	appErrors "github.com/mzaki-dev/jadwal-api/pkg/errors"
)

type classLister interface {
	ListAll(ctx context.Context) ([]models.Class, error)
}

type subjectLister interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
	ListRequirements(ctx context.Context) ([]models.SubjectRequirement, error)
}

type teacherLister interface {
	ListAll(ctx context.Context) ([]models.Teacher, error)
}

type roomLister interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type studentLister interface {
	ListActive(ctx context.Context) ([]models.Student, error)
}

type constraintLister interface {
	ListAll(ctx context.Context) ([]models.TeacherConstraint, error)
}

type assignmentLister interface {
	ListAll(ctx context.Context) ([]models.TeacherAssignment, error)
}

type requirementLister interface {
	ListAll(ctx context.Context) ([]models.LessonRequirement, error)
}

type lessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	UpdateSlot(ctx context.Context, id int64, day, startMin, endMin int) error
	Delete(ctx context.Context, id int64) error
	ReplaceAllWithTx(ctx context.Context, tx *sqlx.Tx, lessons []models.Lesson) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const timetableCacheKey = "timetable:all"

// TimetableService owns the generation pipeline and the interactive editor.
// Bulk generation previews live in an in-memory proposal store until saved;
// interactive edits go straight to the lessons table.
type TimetableService struct {
	classes      classLister
	subjects     subjectLister
	teachers     teacherLister
	rooms        roomLister
	students     studentLister
	constraints  constraintLister
	assignments  assignmentLister
	requirements requirementLister
	lessons      lessonRepository
	tx           txProvider
	cache        timetableCache
	validator    *validator.Validate
	logger       *zap.Logger
	school       config.SchoolConfig
	scheduler    config.SchedulerConfig
	cacheCfg     config.CacheConfig
	store        *proposalStore

	// editMu serializes interactive edits so two concurrent place calls
	// cannot both validate against the same board state.
	editMu sync.Mutex
}

// NewTimetableService wires the scheduling dependencies.
func NewTimetableService(
	classes classLister,
	subjects subjectLister,
	teachers teacherLister,
	rooms roomLister,
	students studentLister,
	constraints constraintLister,
	assignments assignmentLister,
	requirements requirementLister,
	lessons lessonRepository,
	tx txProvider,
	cache timetableCache,
	validate *validator.Validate,
	logger *zap.Logger,
	school config.SchoolConfig,
	scheduler config.SchedulerConfig,
	cacheCfg config.CacheConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if scheduler.ProposalTTL <= 0 {
		scheduler.ProposalTTL = 30 * time.Minute
	}
	return &TimetableService{
		classes:      classes,
		subjects:     subjects,
		teachers:     teachers,
		rooms:        rooms,
		students:     students,
		constraints:  constraints,
		assignments:  assignments,
		requirements: requirements,
		lessons:      lessons,
		tx:           tx,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		school:       school,
		scheduler:    scheduler,
		cacheCfg:     cacheCfg,
		store:        newProposalStore(scheduler.ProposalTTL),
	}
}

// Generate runs a full weekly generation pass and parks the outcome as a
// proposal. Nothing touches the lessons table until the proposal is saved.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	seed := s.scheduler.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	placer := timetable.NewGreedyPlacer(seed)
	gen := timetable.NewGenerator(snap, placer, s.logger, timetable.Options{
		ElectiveGroupSize:      s.scheduler.ElectiveGroupSize,
		ElectiveWeeklySessions: s.scheduler.ElectiveWeeklySessions,
	})
	result := gen.Generate()

	proposal := timetableProposal{
		ID:          uuid.NewString(),
		Lessons:     result.Lessons,
		Unplaced:    result.Unplaced,
		Stats:       result.Stats,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	return &dto.GenerateTimetableResponse{
		ProposalID: proposal.ID,
		Lessons:    proposal.Lessons,
		Unplaced:   proposal.Unplaced,
		Stats:      proposal.Stats,
		ExpiresAt:  proposal.RequestedAt.Add(s.scheduler.ProposalTTL),
	}, nil
}

// Save replaces the persisted timetable with a generated proposal in one
// transaction. Synthetic negative lesson IDs are discarded on insert.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.lessons.ReplaceAllWithTx(ctx, tx, proposal.Lessons); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable")
		return nil, err
	}

	s.store.Delete(req.ProposalID)
	s.invalidateCache(ctx)
	s.logger.Info("timetable saved",
		zap.String("proposal_id", req.ProposalID),
		zap.Int("lessons", len(proposal.Lessons)),
	)
	return &dto.SaveTimetableResponse{Saved: len(proposal.Lessons)}, nil
}

// Timetable lists persisted lessons. Unfiltered reads go through Redis when
// the cache is enabled; filtered reads always hit the database.
func (s *TimetableService) Timetable(ctx context.Context, query dto.TimetableQuery) ([]models.Lesson, error) {
	filter := models.LessonFilter{
		ClassID:   query.ClassID,
		TeacherID: query.TeacherID,
		SubjectID: query.SubjectID,
		RoomID:    query.RoomID,
		Day:       query.Day,
	}

	cacheable := s.cacheEnabled() && filter == (models.LessonFilter{})
	if cacheable {
		if raw, err := s.cache.Get(ctx, timetableCacheKey); err == nil && raw != "" {
			var lessons []models.Lesson
			if err := json.Unmarshal([]byte(raw), &lessons); err == nil {
				return lessons, nil
			}
		}
	}

	lessons, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}

	if cacheable {
		if payload, err := json.Marshal(lessons); err == nil {
			if err := s.cache.Set(ctx, timetableCacheKey, string(payload), s.cacheCfg.TTL); err != nil {
				s.logger.Warn("failed to cache timetable", zap.Error(err))
			}
		}
	}
	return lessons, nil
}

// PlaceLesson attempts one interactive placement at an exact slot. A
// scheduling conflict is a normal outcome carried in the response, not an
// error.
func (s *TimetableService) PlaceLesson(ctx context.Context, req dto.PlaceLessonRequest) (*dto.LessonMutationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid place lesson payload")
	}
	if (req.ClassID == "") == (req.TeacherID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of classId or teacherId is required")
	}
	startMin, err := timetable.ParseClock(req.Start)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q", req.Start))
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	editor, err := s.buildEditor(ctx)
	if err != nil {
		return nil, err
	}
	lesson, rejection, err := editor.TryPlace(ctx, timetable.PlaceRequest{
		SubjectID: req.SubjectID,
		Day:       req.Day,
		StartMin:  startMin,
		ClassID:   req.ClassID,
		TeacherID: req.TeacherID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to place lesson")
	}
	if rejection != nil {
		return &dto.LessonMutationResponse{Rejection: rejection}, nil
	}
	s.invalidateCache(ctx)
	return &dto.LessonMutationResponse{Lesson: lesson}, nil
}

// MoveLesson re-slots an existing lesson.
func (s *TimetableService) MoveLesson(ctx context.Context, lessonID int64, req dto.MoveLessonRequest) (*dto.LessonMutationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move lesson payload")
	}
	startMin, err := timetable.ParseClock(req.Start)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q", req.Start))
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	editor, err := s.buildEditor(ctx)
	if err != nil {
		return nil, err
	}
	lesson, rejection, err := editor.TryMove(ctx, lessonID, req.Day, startMin)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move lesson")
	}
	if rejection != nil {
		if rejection.Code == timetable.RejectNotFound {
			return nil, appErrors.Clone(appErrors.ErrNotFound, rejection.Message)
		}
		return &dto.LessonMutationResponse{Rejection: rejection}, nil
	}
	s.invalidateCache(ctx)
	return &dto.LessonMutationResponse{Lesson: lesson}, nil
}

// DeleteLesson removes one lesson from the persisted timetable.
func (s *TimetableService) DeleteLesson(ctx context.Context, lessonID int64) error {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	editor, err := s.buildEditor(ctx)
	if err != nil {
		return err
	}
	if err := editor.TryDelete(ctx, lessonID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lesson %d not found", lessonID))
	}
	s.invalidateCache(ctx)
	return nil
}

// buildEditor assembles a fresh snapshot and editor over the persisted
// lesson list. Each interactive edit re-reads state so it validates against
// the timetable as currently stored.
func (s *TimetableService) buildEditor(ctx context.Context) (*timetable.Editor, error) {
	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.List(ctx, models.LessonFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	return timetable.NewEditor(snap, lessons, s.lessons, s.logger), nil
}

// buildSnapshot loads the full reference data set and validates it into an
// engine snapshot.
func (s *TimetableService) buildSnapshot(ctx context.Context) (*timetable.Snapshot, error) {
	cfg, err := s.gridConfig()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("invalid school hours configuration: %v", err))
	}

	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	subjectReqs, err := s.subjects.ListRequirements(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject requirements")
	}
	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	students, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	constraints, err := s.constraints.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher constraints")
	}
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	requirements, err := s.requirements.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson requirements")
	}

	snap, err := timetable.NewSnapshot(timetable.Input{
		Config:              cfg,
		Classes:             classes,
		Subjects:            subjects,
		Teachers:            teachers,
		Rooms:               rooms,
		Students:            students,
		Requirements:        requirements,
		SubjectRequirements: subjectReqs,
		Assignments:         assignments,
		Constraints:         constraints,
	})
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidSnapshot, err.Error())
	}
	return snap, nil
}

func (s *TimetableService) gridConfig() (timetable.Config, error) {
	start, err := timetable.ParseClock(s.school.DayStart)
	if err != nil {
		return timetable.Config{}, fmt.Errorf("day start: %w", err)
	}
	end, err := timetable.ParseClock(s.school.DayEnd)
	if err != nil {
		return timetable.Config{}, fmt.Errorf("day end: %w", err)
	}
	cfg := timetable.Config{
		DayStartMin:    start,
		DayEndMin:      end,
		SessionMinutes: s.school.SessionMinutes,
		Days:           s.school.Days,
	}
	return cfg, cfg.Validate()
}

func (s *TimetableService) cacheEnabled() bool {
	return s.cache != nil && s.cacheCfg.Enabled
}

func (s *TimetableService) invalidateCache(ctx context.Context) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Delete(ctx, timetableCacheKey); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.Error(err))
	}
}

// --- Proposal cache ---

type timetableProposal struct {
	ID          string
	Lessons     []models.Lesson
	Unplaced    []timetable.Diagnostic
	Stats       timetable.GenerationStats
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]timetableProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]timetableProposal),
	}
}

func (s *proposalStore) Save(proposal timetableProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ID] = proposal
}

func (s *proposalStore) Get(id string) (timetableProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return timetableProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return timetableProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
