package models

import (
	"time"

	"github.com/lib/pq"
)

// Lesson is one scheduled occurrence of a subject. Main lessons carry a home
// class ID; elective group sessions carry a group label plus the member
// student IDs they represent. The room is nullable: a main lesson may be
// placed without a room when every room is taken.
type Lesson struct {
	ID         int64          `db:"id" json:"id"`
	Day        int            `db:"day_of_week" json:"day_of_week"`
	StartMin   int            `db:"start_min" json:"start_min"`
	EndMin     int            `db:"end_min" json:"end_min"`
	SubjectID  string         `db:"subject_id" json:"subject_id"`
	TeacherID  string         `db:"teacher_id" json:"teacher_id"`
	RoomID     *string        `db:"room_id" json:"room_id,omitempty"`
	ClassID    *string        `db:"class_id" json:"class_id,omitempty"`
	GroupLabel *string        `db:"group_label" json:"group_label,omitempty"`
	StudentIDs pq.StringArray `db:"student_ids" json:"student_ids,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// IsGroup reports whether the lesson is an elective group session.
func (l *Lesson) IsGroup() bool {
	return l.GroupLabel != nil && *l.GroupLabel != ""
}

// LessonFilter describes query params for listing lessons.
type LessonFilter struct {
	ClassID   string
	TeacherID string
	SubjectID string
	Day       *int
	RoomID    string
}

// DayNames maps canonical day indices (1=Monday) to display names.
var DayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
}

// DayName returns the display name for a canonical day index.
func DayName(day int) string {
	if name, ok := DayNames[day]; ok {
		return name
	}
	return "Unknown"
}
