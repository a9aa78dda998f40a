package timetable

import (
	"fmt"
	"sort"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

// Input bundles the reference data a generation or editing session reads.
// Everything here is read-only to the engine; only the lesson list mutates.
type Input struct {
	Config              Config
	Classes             []models.Class
	Subjects            []models.Subject
	Teachers            []models.Teacher
	Rooms               []models.Room
	Students            []models.Student
	Requirements        []models.LessonRequirement
	SubjectRequirements []models.SubjectRequirement
	Assignments         []models.TeacherAssignment
	Constraints         []models.TeacherConstraint
}

// Snapshot is the validated, indexed form of Input. It is immutable after
// construction and safe to share across placer calls.
type Snapshot struct {
	cfg Config

	classes  []models.Class
	subjects []models.Subject
	rooms    []models.Room

	classByID   map[string]models.Class
	subjectByID map[string]models.Subject
	teacherByID map[string]models.Teacher
	roomByID    map[string]models.Room

	constraintsByTeacher map[string][]models.TeacherConstraint
	subjectReqBySubject  map[string]models.SubjectRequirement
	requirementHours     map[string]map[string]int
	assignedTeacher      map[string]map[string]string
	electiveTeacher      map[string]string
	studentsByElective   map[string][]models.Student
	homeClass            map[string]string
}

// NewSnapshot validates referential integrity and builds lookup indexes.
// A dangling reference means the caller handed over an inconsistent data
// set, so construction fails instead of skipping records.
func NewSnapshot(in Input) (*Snapshot, error) {
	if err := in.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid school config: %w", err)
	}

	s := &Snapshot{
		cfg:                  in.Config,
		classes:              in.Classes,
		subjects:             in.Subjects,
		rooms:                in.Rooms,
		classByID:            make(map[string]models.Class, len(in.Classes)),
		subjectByID:          make(map[string]models.Subject, len(in.Subjects)),
		teacherByID:          make(map[string]models.Teacher, len(in.Teachers)),
		roomByID:             make(map[string]models.Room, len(in.Rooms)),
		constraintsByTeacher: make(map[string][]models.TeacherConstraint),
		subjectReqBySubject:  make(map[string]models.SubjectRequirement),
		requirementHours:     make(map[string]map[string]int),
		assignedTeacher:      make(map[string]map[string]string),
		electiveTeacher:      make(map[string]string),
		studentsByElective:   make(map[string][]models.Student),
		homeClass:            make(map[string]string, len(in.Students)),
	}

	for _, c := range in.Classes {
		s.classByID[c.ID] = c
	}
	for _, sub := range in.Subjects {
		s.subjectByID[sub.ID] = sub
	}
	for _, t := range in.Teachers {
		s.teacherByID[t.ID] = t
	}
	for _, r := range in.Rooms {
		s.roomByID[r.ID] = r
	}

	for _, st := range in.Students {
		if _, ok := s.classByID[st.ClassID]; !ok {
			return nil, fmt.Errorf("student %s references unknown class %s", st.ID, st.ClassID)
		}
		s.homeClass[st.ID] = st.ClassID
		for _, subjectID := range st.ElectiveSubjectIDs {
			if _, ok := s.subjectByID[subjectID]; !ok {
				return nil, fmt.Errorf("student %s enrolled in unknown subject %s", st.ID, subjectID)
			}
			s.studentsByElective[subjectID] = append(s.studentsByElective[subjectID], st)
		}
	}
	// Stable membership order keeps group partitioning reproducible.
	for subjectID := range s.studentsByElective {
		members := s.studentsByElective[subjectID]
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	}

	for _, req := range in.Requirements {
		if _, ok := s.classByID[req.ClassID]; !ok {
			return nil, fmt.Errorf("lesson requirement %s references unknown class %s", req.ID, req.ClassID)
		}
		if _, ok := s.subjectByID[req.SubjectID]; !ok {
			return nil, fmt.Errorf("lesson requirement %s references unknown subject %s", req.ID, req.SubjectID)
		}
		if s.requirementHours[req.ClassID] == nil {
			s.requirementHours[req.ClassID] = make(map[string]int)
		}
		s.requirementHours[req.ClassID][req.SubjectID] = req.WeeklyHours
	}

	for _, req := range in.SubjectRequirements {
		if _, ok := s.subjectByID[req.SubjectID]; !ok {
			return nil, fmt.Errorf("subject requirement %s references unknown subject %s", req.ID, req.SubjectID)
		}
		for _, roomID := range req.AllowedRoomIDs {
			if _, ok := s.roomByID[roomID]; !ok {
				return nil, fmt.Errorf("subject requirement %s references unknown room %s", req.ID, roomID)
			}
		}
		s.subjectReqBySubject[req.SubjectID] = req
	}

	for _, a := range in.Assignments {
		if _, ok := s.teacherByID[a.TeacherID]; !ok {
			return nil, fmt.Errorf("assignment %s references unknown teacher %s", a.ID, a.TeacherID)
		}
		subject, ok := s.subjectByID[a.SubjectID]
		if !ok {
			return nil, fmt.Errorf("assignment %s references unknown subject %s", a.ID, a.SubjectID)
		}
		if subject.Elective {
			s.electiveTeacher[a.SubjectID] = a.TeacherID
			continue
		}
		if s.assignedTeacher[a.SubjectID] == nil {
			s.assignedTeacher[a.SubjectID] = make(map[string]string)
		}
		for _, classID := range a.ClassIDs {
			if _, ok := s.classByID[classID]; !ok {
				return nil, fmt.Errorf("assignment %s references unknown class %s", a.ID, classID)
			}
			s.assignedTeacher[a.SubjectID][classID] = a.TeacherID
		}
	}

	for _, c := range in.Constraints {
		if _, ok := s.teacherByID[c.TeacherID]; !ok {
			return nil, fmt.Errorf("teacher constraint %s references unknown teacher %s", c.ID, c.TeacherID)
		}
		s.constraintsByTeacher[c.TeacherID] = append(s.constraintsByTeacher[c.TeacherID], c)
	}

	return s, nil
}

// Config returns the grid the snapshot was built with.
func (s *Snapshot) Config() Config {
	return s.cfg
}

// Classes returns the classes in input order.
func (s *Snapshot) Classes() []models.Class {
	return s.classes
}

// Subjects returns the subjects in input order.
func (s *Snapshot) Subjects() []models.Subject {
	return s.subjects
}

// RequiredHours resolves the weekly hour demand for a class/subject pair,
// falling back to the subject's default weekly hours.
func (s *Snapshot) RequiredHours(classID, subjectID string) int {
	if bySubject, ok := s.requirementHours[classID]; ok {
		if hours, ok := bySubject[subjectID]; ok {
			return hours
		}
	}
	return s.subjectByID[subjectID].WeeklyHours
}

// TeacherFor resolves the covering teacher for a subject in a class.
func (s *Snapshot) TeacherFor(subjectID, classID string) (string, bool) {
	byClass, ok := s.assignedTeacher[subjectID]
	if !ok {
		return "", false
	}
	teacherID, ok := byClass[classID]
	return teacherID, ok
}

// ElectiveTeacherFor resolves the teacher covering an elective subject.
func (s *Snapshot) ElectiveTeacherFor(subjectID string) (string, bool) {
	teacherID, ok := s.electiveTeacher[subjectID]
	return teacherID, ok
}

// ClassesFor lists the classes a teacher covers for a subject, sorted.
func (s *Snapshot) ClassesFor(teacherID, subjectID string) []string {
	var classIDs []string
	for classID, assigned := range s.assignedTeacher[subjectID] {
		if assigned == teacherID {
			classIDs = append(classIDs, classID)
		}
	}
	sort.Strings(classIDs)
	return classIDs
}

// ElectiveStudents lists students enrolled in an elective, ordered by ID.
func (s *Snapshot) ElectiveStudents(subjectID string) []models.Student {
	return s.studentsByElective[subjectID]
}

// HomeClassOf returns a student's home class.
func (s *Snapshot) HomeClassOf(studentID string) (string, bool) {
	classID, ok := s.homeClass[studentID]
	return classID, ok
}

func (s *Snapshot) subjectRequirement(subjectID string) (models.SubjectRequirement, bool) {
	req, ok := s.subjectReqBySubject[subjectID]
	return req, ok
}
