package timetable

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

const (
	defaultElectiveGroupSize      = 30
	defaultElectiveWeeklySessions = 2
)

// Options tunes a bulk generation run.
type Options struct {
	ElectiveGroupSize      int
	ElectiveWeeklySessions int
}

// Result carries the generated lesson list plus the diagnostics for every
// requirement unit that could not be placed. Unplaced lessons are a normal
// partial-success outcome, not an error.
type Result struct {
	Lessons  []models.Lesson `json:"lessons"`
	Unplaced []Diagnostic    `json:"unplaced"`
	Stats    GenerationStats `json:"stats"`
}

// GenerationStats summarises a run.
type GenerationStats struct {
	RequiredUnits int `json:"required_units"`
	PlacedUnits   int `json:"placed_units"`
}

// Generator orchestrates a full weekly generation pass over a snapshot.
type Generator struct {
	snap   *Snapshot
	placer Placer
	logger *zap.Logger
	opts   Options
}

// NewGenerator wires a generator. A nil placer gets a time-seeded greedy one.
func NewGenerator(snap *Snapshot, placer Placer, logger *zap.Logger, opts Options) *Generator {
	if placer == nil {
		placer = NewGreedyPlacer(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ElectiveGroupSize <= 0 {
		opts.ElectiveGroupSize = defaultElectiveGroupSize
	}
	if opts.ElectiveWeeklySessions <= 0 {
		opts.ElectiveWeeklySessions = defaultElectiveWeeklySessions
	}
	return &Generator{snap: snap, placer: placer, logger: logger, opts: opts}
}

// Generate places every required lesson unit it can: main subjects class by
// class (heaviest weekly load first), then elective groups. Successes join
// the board immediately so later placements see earlier ones. Generated
// lessons carry synthetic negative IDs until persisted.
func (g *Generator) Generate() *Result {
	board := NewBoard(g.snap, nil)
	result := &Result{}
	nextID := int64(-1)

	classes := g.classesByLoad()
	for _, class := range classes {
		units, diags := g.classUnits(class)
		result.Stats.RequiredUnits += len(units) + len(diags)
		result.Unplaced = append(result.Unplaced, diags...)

		g.placer.ShuffleUnits(units)
		for _, unit := range units {
			lesson, diag := g.placer.Place(board, unit)
			if diag != nil {
				result.Unplaced = append(result.Unplaced, *diag)
				continue
			}
			lesson.ID = nextID
			nextID--
			board.Add(*lesson)
		}
	}

	g.placeElectives(board, result, &nextID)

	result.Lessons = board.Lessons()
	result.Stats.PlacedUnits = len(result.Lessons)
	g.logger.Info("timetable generated",
		zap.Int("placed", result.Stats.PlacedUnits),
		zap.Int("unplaced", len(result.Unplaced)),
		zap.Int("required", result.Stats.RequiredUnits),
	)
	return result
}

// classesByLoad sorts classes by total required weekly hours, descending,
// so the most constrained timetables are filled while the grid is empty.
func (g *Generator) classesByLoad() []models.Class {
	classes := make([]models.Class, len(g.snap.Classes()))
	copy(classes, g.snap.Classes())
	load := make(map[string]int, len(classes))
	for _, class := range classes {
		total := 0
		for _, subject := range g.snap.Subjects() {
			if subject.Elective {
				continue
			}
			total += g.snap.RequiredHours(class.ID, subject.ID)
		}
		load[class.ID] = total
	}
	sort.SliceStable(classes, func(i, j int) bool {
		return load[classes[i].ID] > load[classes[j].ID]
	})
	return classes
}

// classUnits expands a class's requirements into one unit per weekly hour.
// Subjects without a covering teacher yield one diagnostic per hour instead
// of units; a teacher is never fabricated.
func (g *Generator) classUnits(class models.Class) ([]Unit, []Diagnostic) {
	var units []Unit
	var diags []Diagnostic
	session := g.snap.Config().SessionMinutes

	for _, subject := range g.snap.Subjects() {
		if subject.Elective {
			continue
		}
		hours := g.snap.RequiredHours(class.ID, subject.ID)
		if hours <= 0 {
			continue
		}
		teacherID, ok := g.snap.TeacherFor(subject.ID, class.ID)
		if !ok {
			for i := 0; i < hours; i++ {
				diags = append(diags, Diagnostic{
					ClassID:   class.ID,
					SubjectID: subject.ID,
					Reason:    ReasonNoTeacher,
				})
			}
			continue
		}
		for i := 0; i < hours; i++ {
			units = append(units, Unit{
				ClassID:     class.ID,
				SubjectID:   subject.ID,
				TeacherID:   teacherID,
				DurationMin: session,
			})
		}
	}
	return units, diags
}

// placeElectives partitions each elective's enrollment into capacity-bounded
// groups and schedules the weekly sessions of each group.
func (g *Generator) placeElectives(board *Board, result *Result, nextID *int64) {
	session := g.snap.Config().SessionMinutes

	for _, subject := range g.snap.Subjects() {
		if !subject.Elective {
			continue
		}
		students := g.snap.ElectiveStudents(subject.ID)
		if len(students) == 0 {
			continue
		}
		groups := partitionStudents(students, g.opts.ElectiveGroupSize)
		teacherID, hasTeacher := g.snap.ElectiveTeacherFor(subject.ID)

		for i, group := range groups {
			label := fmt.Sprintf("%s %d", subject.Name, i+1)
			result.Stats.RequiredUnits += g.opts.ElectiveWeeklySessions

			if !hasTeacher {
				for s := 0; s < g.opts.ElectiveWeeklySessions; s++ {
					result.Unplaced = append(result.Unplaced, Diagnostic{
						SubjectID:  subject.ID,
						GroupLabel: label,
						Reason:     ReasonNoTeacher,
					})
				}
				continue
			}

			memberIDs := make([]string, len(group))
			for j, st := range group {
				memberIDs[j] = st.ID
			}

			for s := 0; s < g.opts.ElectiveWeeklySessions; s++ {
				lesson, diag := g.placer.PlaceGroup(board, GroupUnit{
					Label:       label,
					SubjectID:   subject.ID,
					TeacherID:   teacherID,
					StudentIDs:  memberIDs,
					DurationMin: session,
				})
				if diag != nil {
					result.Unplaced = append(result.Unplaced, *diag)
					continue
				}
				lesson.ID = *nextID
				(*nextID)--
				board.Add(*lesson)
			}
		}
	}
}

// partitionStudents splits the enrollment into ceil(n/size) groups keeping
// input order, so the last group holds the remainder.
func partitionStudents(students []models.Student, size int) [][]models.Student {
	if size <= 0 {
		size = defaultElectiveGroupSize
	}
	var groups [][]models.Student
	for start := 0; start < len(students); start += size {
		end := start + size
		if end > len(students) {
			end = len(students)
		}
		groups = append(groups, students[start:end])
	}
	return groups
}
