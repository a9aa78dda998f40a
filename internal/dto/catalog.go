package dto

import "github.com/mzaki-dev/jadwal-api/internal/models"

// CreateClassRequest adds a home class.
type CreateClassRequest struct {
	Name       string  `json:"name" validate:"required"`
	Grade      string  `json:"grade" validate:"required"`
	Capacity   int     `json:"capacity" validate:"required,min=1"`
	HomeRoomID *string `json:"homeRoomId,omitempty"`
}

// UpdateClassRequest modifies a home class.
type UpdateClassRequest struct {
	Name       string  `json:"name" validate:"required"`
	Grade      string  `json:"grade" validate:"required"`
	Capacity   int     `json:"capacity" validate:"required,min=1"`
	HomeRoomID *string `json:"homeRoomId,omitempty"`
}

// CreateSubjectRequest adds a subject together with its scheduling
// requirements (room whitelist and time-of-day preference).
type CreateSubjectRequest struct {
	Code           string                `json:"code" validate:"required"`
	Name           string                `json:"name" validate:"required"`
	WeeklyHours    int                   `json:"weeklyHours" validate:"required,min=1,max=20"`
	Coefficient    int                   `json:"coefficient" validate:"min=0"`
	Elective       bool                  `json:"elective"`
	AllowedRoomIDs []string              `json:"allowedRoomIds,omitempty"`
	TimePreference models.TimePreference `json:"timePreference,omitempty" validate:"omitempty,oneof=AM PM"`
}

// UpdateSubjectRequest modifies a subject and its requirements.
type UpdateSubjectRequest struct {
	Code           string                `json:"code" validate:"required"`
	Name           string                `json:"name" validate:"required"`
	WeeklyHours    int                   `json:"weeklyHours" validate:"required,min=1,max=20"`
	Coefficient    int                   `json:"coefficient" validate:"min=0"`
	Elective       bool                  `json:"elective"`
	AllowedRoomIDs []string              `json:"allowedRoomIds,omitempty"`
	TimePreference models.TimePreference `json:"timePreference,omitempty" validate:"omitempty,oneof=AM PM"`
}

// CreateTeacherRequest registers a teacher.
type CreateTeacherRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	FullName   string   `json:"fullName" validate:"required"`
	Phone      *string  `json:"phone,omitempty"`
	SubjectIDs []string `json:"subjectIds,omitempty"`
}

// UpdateTeacherRequest modifies a teacher record.
type UpdateTeacherRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	FullName   string   `json:"fullName" validate:"required"`
	Phone      *string  `json:"phone,omitempty"`
	SubjectIDs []string `json:"subjectIds,omitempty"`
	Active     bool     `json:"active"`
}

// TeacherConstraintRequest declares a weekly unavailability window using
// "HH:MM" clock labels.
type TeacherConstraintRequest struct {
	Day         int     `json:"day" validate:"required,min=1,max=6"`
	Start       string  `json:"start" validate:"required"`
	End         string  `json:"end" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// AssignTeacherRequest binds a teacher to a subject for a set of classes.
// An empty class list marks an elective assignment covering all enrollees.
type AssignTeacherRequest struct {
	TeacherID string   `json:"teacherId" validate:"required"`
	SubjectID string   `json:"subjectId" validate:"required"`
	ClassIDs  []string `json:"classIds,omitempty"`
}

// CreateRoomRequest adds a room.
type CreateRoomRequest struct {
	Name     string `json:"name" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

// CreateStudentRequest registers a student in a home class, optionally with
// elective enrollments.
type CreateStudentRequest struct {
	FullName           string   `json:"fullName" validate:"required"`
	ClassID            string   `json:"classId" validate:"required"`
	ElectiveSubjectIDs []string `json:"electiveSubjectIds,omitempty"`
}

// LessonRequirementRequest overrides the weekly hours of a subject for one
// class.
type LessonRequirementRequest struct {
	ClassID     string `json:"classId" validate:"required"`
	SubjectID   string `json:"subjectId" validate:"required"`
	WeeklyHours int    `json:"weeklyHours" validate:"required,min=1,max=20"`
}
