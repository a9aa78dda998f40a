package models

import (
	"time"

	"github.com/lib/pq"
)

// TimePreference restricts when a subject's lessons may start.
type TimePreference string

const (
	PreferenceNone      TimePreference = ""
	PreferenceMorning   TimePreference = "AM"
	PreferenceAfternoon TimePreference = "PM"
)

// Subject represents an academic subject.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	WeeklyHours int       `db:"weekly_hours" json:"weekly_hours"`
	Coefficient int       `db:"coefficient" json:"coefficient"`
	Elective    bool      `db:"elective" json:"elective"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectRequirement constrains where and when a subject may be taught.
type SubjectRequirement struct {
	ID             string         `db:"id" json:"id"`
	SubjectID      string         `db:"subject_id" json:"subject_id"`
	AllowedRoomIDs pq.StringArray `db:"allowed_room_ids" json:"allowed_room_ids,omitempty"`
	TimePreference TimePreference `db:"time_preference" json:"time_preference,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Elective  *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
