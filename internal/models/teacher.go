package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher represents an instructor record with the subjects they teach.
type Teacher struct {
	ID         string         `db:"id" json:"id"`
	Email      string         `db:"email" json:"email"`
	FullName   string         `db:"full_name" json:"full_name"`
	Phone      *string        `db:"phone" json:"phone,omitempty"`
	SubjectIDs pq.StringArray `db:"subject_ids" json:"subject_ids"`
	Active     bool           `db:"active" json:"active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	SubjectID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeacherConstraint is a window in which a teacher must not be scheduled.
// Multiple constraints per teacher are allowed and may overlap each other.
type TeacherConstraint struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Day         int       `db:"day_of_week" json:"day_of_week"`
	StartMin    int       `db:"start_min" json:"start_min"`
	EndMin      int       `db:"end_min" json:"end_min"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TeacherAssignment maps a teacher to the classes they cover for one subject.
// For elective subjects the class list is empty: the assignment applies to
// every enrolled student regardless of home class.
type TeacherAssignment struct {
	ID        string         `db:"id" json:"id"`
	TeacherID string         `db:"teacher_id" json:"teacher_id"`
	SubjectID string         `db:"subject_id" json:"subject_id"`
	ClassIDs  pq.StringArray `db:"class_ids" json:"class_ids"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
