package models

import (
	"time"

	"github.com/lib/pq"
)

// Student represents a learner with a home class and elective enrollment.
type Student struct {
	ID                 string         `db:"id" json:"id"`
	FullName           string         `db:"full_name" json:"full_name"`
	ClassID            string         `db:"class_id" json:"class_id"`
	ElectiveSubjectIDs pq.StringArray `db:"elective_subject_ids" json:"elective_subject_ids"`
	Active             bool           `db:"active" json:"active"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassID   string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
