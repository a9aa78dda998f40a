package timetable

import (
	"math/rand"
	"time"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

// Failure reasons carried in diagnostics.
const (
	ReasonNoSlot    = "no compatible slot found"
	ReasonNoTeacher = "no teacher assigned"
)

// Unit is one required hour of a subject for one class.
type Unit struct {
	ClassID     string
	SubjectID   string
	TeacherID   string
	DurationMin int
}

// GroupUnit is one weekly session of an elective group drawn from several
// home classes.
type GroupUnit struct {
	Label       string
	SubjectID   string
	TeacherID   string
	StudentIDs  []string
	DurationMin int
}

// Diagnostic explains why one required lesson unit could not be placed.
type Diagnostic struct {
	ClassID    string `json:"class_id,omitempty"`
	SubjectID  string `json:"subject_id"`
	TeacherID  string `json:"teacher_id,omitempty"`
	GroupLabel string `json:"group_label,omitempty"`
	Reason     string `json:"reason"`
}

// Placer searches for a valid slot for one lesson unit. Implementations may
// be swapped without touching the orchestrator; the shipped one is a
// randomized greedy first-fit without backtracking.
type Placer interface {
	Place(board *Board, unit Unit) (*models.Lesson, *Diagnostic)
	PlaceGroup(board *Board, unit GroupUnit) (*models.Lesson, *Diagnostic)
	// ShuffleUnits reorders a class's units before placement so subjects
	// interleave across the week instead of clustering by iteration order.
	ShuffleUnits(units []Unit)
}

// GreedyPlacer picks the first slot surviving all hard checks, walking days
// and time slots in independently shuffled order. A placement is never
// revisited, so a poor early choice can starve later units; that trade-off
// is accepted in exchange for speed.
type GreedyPlacer struct {
	rnd *rand.Rand
}

// NewGreedyPlacer seeds the search order. Seed 0 falls back to wall clock.
func NewGreedyPlacer(seed int64) *GreedyPlacer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &GreedyPlacer{rnd: rand.New(rand.NewSource(seed))}
}

func (p *GreedyPlacer) shuffledDays(cfg Config) []int {
	days := make([]int, len(cfg.Days))
	copy(days, cfg.Days)
	p.rnd.Shuffle(len(days), func(i, j int) { days[i], days[j] = days[j], days[i] })
	return days
}

func (p *GreedyPlacer) shuffledSlots(cfg Config) []int {
	slots := cfg.SlotStarts()
	p.rnd.Shuffle(len(slots), func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })
	return slots
}

// ShuffleUnits randomizes unit order with the placer's own seed.
func (p *GreedyPlacer) ShuffleUnits(units []Unit) {
	p.rnd.Shuffle(len(units), func(i, j int) { units[i], units[j] = units[j], units[i] })
}

// adjacentDayTaken reports whether a configured neighbour of day already
// holds the class/subject pair. Days are searched in shuffled order, so a
// later unit could otherwise land just before an earlier placement.
func adjacentDayTaken(board *Board, cfg Config, unit Unit, day int) bool {
	if prev, ok := cfg.PrecedingDay(day); ok && board.HasClassSubjectOn(unit.ClassID, unit.SubjectID, prev) {
		return true
	}
	if next, ok := cfg.FollowingDay(day); ok && board.HasClassSubjectOn(unit.ClassID, unit.SubjectID, next) {
		return true
	}
	return false
}

func meetsTimePreference(pref models.TimePreference, startMin int) bool {
	switch pref {
	case models.PreferenceMorning:
		return startMin < NoonMin
	case models.PreferenceAfternoon:
		return startMin >= NoonMin
	default:
		return true
	}
}

// Place searches day x slot combinations for one class lesson. A day is
// skipped entirely when either adjacent configured day already carries the
// same class/subject pair.
func (p *GreedyPlacer) Place(board *Board, unit Unit) (*models.Lesson, *Diagnostic) {
	cfg := board.snap.Config()
	subjectReq, hasReq := board.snap.subjectRequirement(unit.SubjectID)

	for _, day := range p.shuffledDays(cfg) {
		if adjacentDayTaken(board, cfg, unit, day) {
			continue
		}
		for _, start := range p.shuffledSlots(cfg) {
			end := start + unit.DurationMin
			if end > cfg.DayEndMin {
				continue
			}
			if hasReq && !meetsTimePreference(subjectReq.TimePreference, start) {
				continue
			}
			if board.ClassBusy(unit.ClassID, day, start, end, 0) {
				continue
			}
			if board.TeacherBusy(unit.TeacherID, day, start, end, 0) {
				continue
			}
			if board.ConstraintConflict(unit.TeacherID, day, start, end) {
				continue
			}

			var whitelist []string
			if hasReq {
				whitelist = subjectReq.AllowedRoomIDs
			}
			rooms := board.AvailableRooms(day, start, end, whitelist, 0)
			if len(whitelist) > 0 && len(rooms) == 0 {
				continue
			}

			classID := unit.ClassID
			lesson := &models.Lesson{
				Day:       day,
				StartMin:  start,
				EndMin:    end,
				SubjectID: unit.SubjectID,
				TeacherID: unit.TeacherID,
				ClassID:   &classID,
			}
			if len(rooms) > 0 {
				roomID := rooms[0].ID
				lesson.RoomID = &roomID
			}
			return lesson, nil
		}
	}

	return nil, &Diagnostic{
		ClassID:   unit.ClassID,
		SubjectID: unit.SubjectID,
		TeacherID: unit.TeacherID,
		Reason:    ReasonNoSlot,
	}
}

// PlaceGroup searches a slot for one elective group session. Instead of a
// single class, the home class of every member student must be free.
func (p *GreedyPlacer) PlaceGroup(board *Board, unit GroupUnit) (*models.Lesson, *Diagnostic) {
	cfg := board.snap.Config()
	subjectReq, hasReq := board.snap.subjectRequirement(unit.SubjectID)

	for _, day := range p.shuffledDays(cfg) {
		for _, start := range p.shuffledSlots(cfg) {
			end := start + unit.DurationMin
			if end > cfg.DayEndMin {
				continue
			}
			if hasReq && !meetsTimePreference(subjectReq.TimePreference, start) {
				continue
			}
			if p.anyMemberBusy(board, unit.StudentIDs, day, start, end) {
				continue
			}
			if board.TeacherBusy(unit.TeacherID, day, start, end, 0) {
				continue
			}
			if board.ConstraintConflict(unit.TeacherID, day, start, end) {
				continue
			}

			var whitelist []string
			if hasReq {
				whitelist = subjectReq.AllowedRoomIDs
			}
			rooms := board.AvailableRooms(day, start, end, whitelist, 0)
			if len(whitelist) > 0 && len(rooms) == 0 {
				continue
			}

			label := unit.Label
			lesson := &models.Lesson{
				Day:        day,
				StartMin:   start,
				EndMin:     end,
				SubjectID:  unit.SubjectID,
				TeacherID:  unit.TeacherID,
				GroupLabel: &label,
				StudentIDs: unit.StudentIDs,
			}
			if len(rooms) > 0 {
				roomID := rooms[0].ID
				lesson.RoomID = &roomID
			}
			return lesson, nil
		}
	}

	return nil, &Diagnostic{
		SubjectID:  unit.SubjectID,
		TeacherID:  unit.TeacherID,
		GroupLabel: unit.Label,
		Reason:     ReasonNoSlot,
	}
}

func (p *GreedyPlacer) anyMemberBusy(board *Board, studentIDs []string, day, start, end int) bool {
	for _, studentID := range studentIDs {
		home, ok := board.snap.HomeClassOf(studentID)
		if !ok {
			continue
		}
		if board.ClassBusy(home, day, start, end, 0) {
			return true
		}
	}
	return false
}
