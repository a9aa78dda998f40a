package dto

import (
	"time"

	"github.com/mzaki-dev/jadwal-api/internal/models"
	"github.com/mzaki-dev/jadwal-api/internal/timetable"
)

// GenerateTimetableRequest triggers a full weekly generation run. A non-zero
// seed makes the run reproducible; zero defers to the configured default.
type GenerateTimetableRequest struct {
	Seed *int64 `json:"seed,omitempty"`
}

// GenerateTimetableResponse returns the preview proposal. Nothing is
// persisted until the proposal is saved.
type GenerateTimetableResponse struct {
	ProposalID string                    `json:"proposalId"`
	Lessons    []models.Lesson           `json:"lessons"`
	Unplaced   []timetable.Diagnostic    `json:"unplaced"`
	Stats      timetable.GenerationStats `json:"stats"`
	ExpiresAt  time.Time                 `json:"expiresAt"`
}

// SaveTimetableRequest commits a previously generated proposal.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// SaveTimetableResponse reports the persisted lesson count.
type SaveTimetableResponse struct {
	Saved int `json:"saved"`
}

// PlaceLessonRequest proposes one lesson at an exact slot. Exactly one of
// classId or teacherId must be set, matching the editing view the request
// came from.
type PlaceLessonRequest struct {
	SubjectID string `json:"subjectId" validate:"required"`
	Day       int    `json:"day" validate:"required,min=1,max=6"`
	Start     string `json:"start" validate:"required"`
	ClassID   string `json:"classId,omitempty"`
	TeacherID string `json:"teacherId,omitempty"`
}

// MoveLessonRequest re-slots an existing lesson.
type MoveLessonRequest struct {
	Day   int    `json:"day" validate:"required,min=1,max=6"`
	Start string `json:"start" validate:"required"`
}

// LessonMutationResponse wraps the outcome of a place or move attempt. On
// refusal the lesson is nil and the rejection explains why.
type LessonMutationResponse struct {
	Lesson    *models.Lesson       `json:"lesson,omitempty"`
	Rejection *timetable.Rejection `json:"rejection,omitempty"`
}

// ExportTimetableRequest renders the persisted timetable into a downloadable
// file. A class scope narrows the export to one class's week.
type ExportTimetableRequest struct {
	Format    string `json:"format" form:"format" validate:"required,oneof=csv pdf"`
	ClassID   string `json:"classId,omitempty" form:"classId"`
	TeacherID string `json:"teacherId,omitempty" form:"teacherId"`
}

// ExportTimetableResponse carries the signed download location.
type ExportTimetableResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TimetableQuery filters the persisted timetable listing.
type TimetableQuery struct {
	ClassID   string `form:"classId"`
	TeacherID string `form:"teacherId"`
	SubjectID string `form:"subjectId"`
	RoomID    string `form:"roomId"`
	Day       *int   `form:"day"`
}
