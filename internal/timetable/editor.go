package timetable

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

// RejectionCode identifies why a proposed edit was refused. Rejections are
// expected outcomes of user actions and are returned, never raised.
type RejectionCode string

const (
	RejectTeacherBusy     RejectionCode = "TEACHER_BUSY"
	RejectClassBusy       RejectionCode = "CLASS_BUSY"
	RejectUnavailable     RejectionCode = "TEACHER_UNAVAILABLE"
	RejectTimePreference  RejectionCode = "TIME_PREFERENCE"
	RejectRoomUnavailable RejectionCode = "ROOM_UNAVAILABLE"
	RejectNoTeacher       RejectionCode = "NO_TEACHER_ASSIGNED"
	RejectAmbiguousClass  RejectionCode = "AMBIGUOUS_CLASS"
	RejectInvalidSlot     RejectionCode = "INVALID_SLOT"
	RejectNotFound        RejectionCode = "LESSON_NOT_FOUND"
)

// Rejection is the typed refusal of a single place or move attempt.
type Rejection struct {
	Code    RejectionCode `json:"code"`
	Message string        `json:"message"`
}

func reject(code RejectionCode, format string, args ...interface{}) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// LessonStore is the external persistence collaborator. The editor calls it
// only after a proposal passed validation; it never reads through it.
type LessonStore interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	UpdateSlot(ctx context.Context, id int64, day, startMin, endMin int) error
	Delete(ctx context.Context, id int64) error
}

// PlaceRequest proposes a lesson at one exact slot. Exactly one of ClassID
// or TeacherID identifies the editing view: class-centric views name the
// class, teacher-centric views name the teacher and let the engine resolve
// the class from the assignment.
type PlaceRequest struct {
	SubjectID string
	Day       int
	StartMin  int
	ClassID   string
	TeacherID string
}

// Editor applies single interactive edits with exactly the checks the bulk
// placer uses, but for the one requested slot: it never searches
// alternatives. All three operations serialize on one mutex because they
// read and write the same lesson list.
type Editor struct {
	mu     sync.Mutex
	snap   *Snapshot
	board  *Board
	store  LessonStore
	logger *zap.Logger
}

// NewEditor builds an editor over the current placed-lesson list.
func NewEditor(snap *Snapshot, lessons []models.Lesson, store LessonStore, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{
		snap:   snap,
		board:  NewBoard(snap, lessons),
		store:  store,
		logger: logger,
	}
}

// Lessons returns a copy of the editor's current lesson list.
func (e *Editor) Lessons() []models.Lesson {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.Lessons()
}

// TryPlace validates the exact requested slot and, on success, persists and
// appends the lesson. The returned error is reserved for store failures and
// malformed requests; scheduling conflicts come back as a Rejection.
func (e *Editor) TryPlace(ctx context.Context, req PlaceRequest) (*models.Lesson, *Rejection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	classID, teacherID, rej, err := e.resolveView(req)
	if err != nil || rej != nil {
		return nil, rej, err
	}

	cfg := e.snap.Config()
	start := req.StartMin
	end := start + cfg.SessionMinutes
	if rej := e.validateSlot(req.Day, start, end); rej != nil {
		return nil, rej, nil
	}

	if e.board.ClassBusy(classID, req.Day, start, end, 0) {
		return nil, reject(RejectClassBusy, "class %s already has a lesson at %s", classID, FormatClock(start)), nil
	}
	if e.board.TeacherBusy(teacherID, req.Day, start, end, 0) {
		return nil, reject(RejectTeacherBusy, "teacher %s already has a lesson at %s", teacherID, FormatClock(start)), nil
	}
	if e.board.ConstraintConflict(teacherID, req.Day, start, end) {
		return nil, reject(RejectUnavailable, "teacher %s is unavailable at %s", teacherID, FormatClock(start)), nil
	}

	subjectReq, hasReq := e.snap.subjectRequirement(req.SubjectID)
	if hasReq && !meetsTimePreference(subjectReq.TimePreference, start) {
		return nil, reject(RejectTimePreference, "subject %s must start in the %s", req.SubjectID, string(subjectReq.TimePreference)), nil
	}

	var whitelist []string
	if hasReq {
		whitelist = subjectReq.AllowedRoomIDs
	}
	rooms := e.board.AvailableRooms(req.Day, start, end, whitelist, 0)
	if len(whitelist) > 0 && len(rooms) == 0 {
		return nil, reject(RejectRoomUnavailable, "no allowed room free for subject %s at %s", req.SubjectID, FormatClock(start)), nil
	}

	lesson := models.Lesson{
		Day:       req.Day,
		StartMin:  start,
		EndMin:    end,
		SubjectID: req.SubjectID,
		TeacherID: teacherID,
		ClassID:   &classID,
	}
	if len(rooms) > 0 {
		roomID := rooms[0].ID
		lesson.RoomID = &roomID
	}

	if err := e.store.Create(ctx, &lesson); err != nil {
		return nil, nil, fmt.Errorf("persist lesson: %w", err)
	}
	e.board.Add(lesson)
	e.logger.Debug("lesson placed",
		zap.Int64("lesson_id", lesson.ID),
		zap.String("class_id", classID),
		zap.Int("day", req.Day),
	)
	return &lesson, nil, nil
}

// TryMove re-slots an existing lesson, keeping its duration and room.
// Only teacher and class occupancy are re-validated: room, teacher
// constraints, and time preference are deliberately not re-checked on move,
// matching the editor's original contract. The moved lesson itself is
// excluded from the busy checks.
func (e *Editor) TryMove(ctx context.Context, lessonID int64, day, startMin int) (*models.Lesson, *Rejection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	lesson, ok := e.board.Find(lessonID)
	if !ok {
		return nil, reject(RejectNotFound, "lesson %d not found", lessonID), nil
	}

	duration := lesson.EndMin - lesson.StartMin
	end := startMin + duration
	if rej := e.validateSlot(day, startMin, end); rej != nil {
		return nil, rej, nil
	}

	if e.board.TeacherBusy(lesson.TeacherID, day, startMin, end, lessonID) {
		return nil, reject(RejectTeacherBusy, "teacher %s already has a lesson at %s", lesson.TeacherID, FormatClock(startMin)), nil
	}
	if lesson.IsGroup() {
		for _, studentID := range lesson.StudentIDs {
			home, ok := e.snap.HomeClassOf(studentID)
			if !ok {
				continue
			}
			if e.board.ClassBusy(home, day, startMin, end, lessonID) {
				return nil, reject(RejectClassBusy, "class %s already has a lesson at %s", home, FormatClock(startMin)), nil
			}
		}
	} else if lesson.ClassID != nil {
		if e.board.ClassBusy(*lesson.ClassID, day, startMin, end, lessonID) {
			return nil, reject(RejectClassBusy, "class %s already has a lesson at %s", *lesson.ClassID, FormatClock(startMin)), nil
		}
	}

	if err := e.store.UpdateSlot(ctx, lessonID, day, startMin, end); err != nil {
		return nil, nil, fmt.Errorf("persist lesson move: %w", err)
	}
	e.board.UpdateSlot(lessonID, day, startMin, end)
	moved, _ := e.board.Find(lessonID)
	return &moved, nil, nil
}

// TryDelete removes a lesson unconditionally: removing a lesson can never
// introduce a conflict, so there is nothing to validate.
func (e *Editor) TryDelete(ctx context.Context, lessonID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.board.Find(lessonID); !ok {
		return fmt.Errorf("lesson %d not found", lessonID)
	}
	if err := e.store.Delete(ctx, lessonID); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	e.board.Remove(lessonID)
	return nil
}

// resolveView derives the (class, teacher) pair from the editing view.
func (e *Editor) resolveView(req PlaceRequest) (string, string, *Rejection, error) {
	switch {
	case req.ClassID != "":
		teacherID, ok := e.snap.TeacherFor(req.SubjectID, req.ClassID)
		if !ok {
			return "", "", reject(RejectNoTeacher, "no teacher assigned to subject %s for class %s", req.SubjectID, req.ClassID), nil
		}
		return req.ClassID, teacherID, nil, nil
	case req.TeacherID != "":
		classIDs := e.snap.ClassesFor(req.TeacherID, req.SubjectID)
		switch len(classIDs) {
		case 0:
			return "", "", reject(RejectNoTeacher, "teacher %s is not assigned to subject %s", req.TeacherID, req.SubjectID), nil
		case 1:
			return classIDs[0], req.TeacherID, nil, nil
		default:
			return "", "", reject(RejectAmbiguousClass, "teacher %s covers %d classes for subject %s, pick a class view", req.TeacherID, len(classIDs), req.SubjectID), nil
		}
	default:
		return "", "", nil, fmt.Errorf("place request needs a class or teacher view context")
	}
}

// validateSlot checks the requested window lies on the configured grid.
func (e *Editor) validateSlot(day, startMin, endMin int) *Rejection {
	cfg := e.snap.Config()
	validDay := false
	for _, d := range cfg.Days {
		if d == day {
			validDay = true
			break
		}
	}
	if !validDay {
		return reject(RejectInvalidSlot, "day %d is not a school day", day)
	}
	if endMin > cfg.DayEndMin || startMin < cfg.DayStartMin {
		return reject(RejectInvalidSlot, "window %s-%s is outside school hours", FormatClock(startMin), FormatClock(endMin))
	}
	for _, slot := range cfg.SlotStarts() {
		if slot == startMin {
			return nil
		}
	}
	return reject(RejectInvalidSlot, "%s is not a slot boundary", FormatClock(startMin))
}
