package models

import "time"

// LessonRequirement states how many weekly hours a class must receive for a
// subject. When absent the subject's default weekly hours apply.
type LessonRequirement struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	WeeklyHours int       `db:"weekly_hours" json:"weekly_hours"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
