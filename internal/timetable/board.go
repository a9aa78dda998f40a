package timetable

import (
	"github.com/mzaki-dev/jadwal-api/internal/models"
)

// Board is the accumulator of placed lessons during a generation pass or an
// editing session. It owns the only mutable state in the engine; all busy
// predicates use half-open interval overlap on the same day.
type Board struct {
	snap    *Snapshot
	lessons []models.Lesson
}

// NewBoard wraps an existing lesson list. The slice is copied so callers
// keep ownership of theirs.
func NewBoard(snap *Snapshot, lessons []models.Lesson) *Board {
	b := &Board{snap: snap}
	b.lessons = append(b.lessons, lessons...)
	return b
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// Lessons returns a copy of the current placed-lesson list.
func (b *Board) Lessons() []models.Lesson {
	out := make([]models.Lesson, len(b.lessons))
	copy(out, b.lessons)
	return out
}

// Add appends a placed lesson.
func (b *Board) Add(lesson models.Lesson) {
	b.lessons = append(b.lessons, lesson)
}

// Remove deletes a lesson by ID and reports whether it existed.
func (b *Board) Remove(id int64) bool {
	for i := range b.lessons {
		if b.lessons[i].ID == id {
			b.lessons = append(b.lessons[:i], b.lessons[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns a copy of the lesson with the given ID.
func (b *Board) Find(id int64) (models.Lesson, bool) {
	for i := range b.lessons {
		if b.lessons[i].ID == id {
			return b.lessons[i], true
		}
	}
	return models.Lesson{}, false
}

// UpdateSlot rewrites the day/time window of a lesson in place.
func (b *Board) UpdateSlot(id int64, day, startMin, endMin int) bool {
	for i := range b.lessons {
		if b.lessons[i].ID == id {
			b.lessons[i].Day = day
			b.lessons[i].StartMin = startMin
			b.lessons[i].EndMin = endMin
			return true
		}
	}
	return false
}

// TeacherBusy reports whether the teacher already has a lesson overlapping
// the window. excludeID skips one lesson (the one being moved); 0 skips none.
func (b *Board) TeacherBusy(teacherID string, day, startMin, endMin int, excludeID int64) bool {
	for i := range b.lessons {
		l := &b.lessons[i]
		if l.ID == excludeID && excludeID != 0 {
			continue
		}
		if l.Day != day || l.TeacherID != teacherID {
			continue
		}
		if overlaps(startMin, endMin, l.StartMin, l.EndMin) {
			return true
		}
	}
	return false
}

// ClassBusy reports whether a class has a conflicting lesson in the window.
// Elective group sessions occupy the home class of every member student, so
// a class is busy whenever one of its students sits in an overlapping group.
func (b *Board) ClassBusy(classID string, day, startMin, endMin int, excludeID int64) bool {
	for i := range b.lessons {
		l := &b.lessons[i]
		if l.ID == excludeID && excludeID != 0 {
			continue
		}
		if l.Day != day || !overlaps(startMin, endMin, l.StartMin, l.EndMin) {
			continue
		}
		if l.ClassID != nil && *l.ClassID == classID {
			return true
		}
		if l.IsGroup() {
			for _, studentID := range l.StudentIDs {
				if home, ok := b.snap.HomeClassOf(studentID); ok && home == classID {
					return true
				}
			}
		}
	}
	return false
}

// RoomBusy reports whether a room is occupied in the window. Lessons without
// a room occupy nothing.
func (b *Board) RoomBusy(roomID string, day, startMin, endMin int, excludeID int64) bool {
	for i := range b.lessons {
		l := &b.lessons[i]
		if l.ID == excludeID && excludeID != 0 {
			continue
		}
		if l.Day != day || l.RoomID == nil || *l.RoomID != roomID {
			continue
		}
		if overlaps(startMin, endMin, l.StartMin, l.EndMin) {
			return true
		}
	}
	return false
}

// ConstraintConflict reports whether any of the teacher's unavailability
// windows overlaps the candidate window on that day.
func (b *Board) ConstraintConflict(teacherID string, day, startMin, endMin int) bool {
	for _, c := range b.snap.constraintsByTeacher[teacherID] {
		if c.Day != day {
			continue
		}
		if overlaps(startMin, endMin, c.StartMin, c.EndMin) {
			return true
		}
	}
	return false
}

// AvailableRooms returns the rooms free in the window. A non-empty whitelist
// restricts candidates to its members; when the intersection is empty the
// caller must treat the slot as unusable rather than fall back to an
// unlisted room.
func (b *Board) AvailableRooms(day, startMin, endMin int, whitelist []string, excludeID int64) []models.Room {
	allowed := map[string]bool{}
	for _, roomID := range whitelist {
		allowed[roomID] = true
	}

	var free []models.Room
	for _, room := range b.snap.rooms {
		if len(allowed) > 0 && !allowed[room.ID] {
			continue
		}
		if b.RoomBusy(room.ID, day, startMin, endMin, excludeID) {
			continue
		}
		free = append(free, room)
	}
	return free
}

// HasClassSubjectOn reports whether the class already has a lesson for the
// subject on the given day. Drives the non-consecutive-day rule.
func (b *Board) HasClassSubjectOn(classID, subjectID string, day int) bool {
	for i := range b.lessons {
		l := &b.lessons[i]
		if l.Day == day && l.SubjectID == subjectID && l.ClassID != nil && *l.ClassID == classID {
			return true
		}
	}
	return false
}
