package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

func TestGreedyPlacerPlaceBasic(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	board := NewBoard(snap, nil)
	placer := NewGreedyPlacer(42)

	lesson, diag := placer.Place(board, Unit{ClassID: "c1", SubjectID: "s-math", TeacherID: "t1", DurationMin: 60})
	require.Nil(t, diag)
	require.NotNil(t, lesson)

	assert.Equal(t, "s-math", lesson.SubjectID)
	assert.Equal(t, "t1", lesson.TeacherID)
	require.NotNil(t, lesson.ClassID)
	assert.Equal(t, "c1", *lesson.ClassID)
	assert.Equal(t, 60, lesson.EndMin-lesson.StartMin)
	assert.Contains(t, snap.Config().Days, lesson.Day)
	assert.Contains(t, snap.Config().SlotStarts(), lesson.StartMin)
	require.NotNil(t, lesson.RoomID, "free room available, so one is assigned")
}

func TestGreedyPlacerHonorsMorningPreference(t *testing.T) {
	in := baseInput()
	in.SubjectRequirements = []models.SubjectRequirement{
		{ID: "sr1", SubjectID: "s-math", TimePreference: models.PreferenceMorning},
	}
	snap := mustSnapshot(t, in)
	placer := NewGreedyPlacer(7)
	board := NewBoard(snap, nil)

	for i := 0; i < 10; i++ {
		lesson, diag := placer.Place(board, Unit{ClassID: "c1", SubjectID: "s-math", TeacherID: "t1", DurationMin: 60})
		require.Nil(t, diag)
		assert.Less(t, lesson.StartMin, NoonMin, "morning subject must start before noon")
		lesson.ID = int64(i + 1)
		board.Add(*lesson)
	}
}

func TestGreedyPlacerHonorsAfternoonPreference(t *testing.T) {
	in := baseInput()
	in.SubjectRequirements = []models.SubjectRequirement{
		{ID: "sr1", SubjectID: "s-bio", TimePreference: models.PreferenceAfternoon},
	}
	snap := mustSnapshot(t, in)
	placer := NewGreedyPlacer(7)
	board := NewBoard(snap, nil)

	lesson, diag := placer.Place(board, Unit{ClassID: "c1", SubjectID: "s-bio", TeacherID: "t2", DurationMin: 60})
	require.Nil(t, diag)
	assert.GreaterOrEqual(t, lesson.StartMin, NoonMin)
}

func TestGreedyPlacerAvoidsTeacherConstraints(t *testing.T) {
	in := baseInput()
	// t1 is unavailable the whole of Monday through Thursday.
	for day := 1; day <= 4; day++ {
		in.Constraints = append(in.Constraints, models.TeacherConstraint{
			ID: "tc", TeacherID: "t1", Day: day, StartMin: 480, EndMin: 900,
		})
	}
	snap := mustSnapshot(t, in)
	placer := NewGreedyPlacer(99)
	board := NewBoard(snap, nil)

	lesson, diag := placer.Place(board, Unit{ClassID: "c1", SubjectID: "s-math", TeacherID: "t1", DurationMin: 60})
	require.Nil(t, diag)
	assert.Equal(t, 5, lesson.Day, "only Friday survives the constraints")
}

func TestGreedyPlacerRoomWhitelistIsHard(t *testing.T) {
	in := baseInput()
	in.SubjectRequirements = []models.SubjectRequirement{
		{ID: "sr1", SubjectID: "s-math", AllowedRoomIDs: []string{"r1"}},
	}
	snap := mustSnapshot(t, in)
	placer := NewGreedyPlacer(3)

	// Occupy r1 in every slot of every day with lessons of another class.
	var occupied []models.Lesson
	id := int64(1)
	for _, day := range snap.Config().Days {
		for _, start := range snap.Config().SlotStarts() {
			occupied = append(occupied, mainLesson(id, "c2", "s-bio", "t2", day, start, start+60, "r1"))
			id++
		}
	}
	board := NewBoard(snap, occupied)

	lesson, diag := placer.Place(board, Unit{ClassID: "c1", SubjectID: "s-math", TeacherID: "t1", DurationMin: 60})
	assert.Nil(t, lesson, "r2 is free everywhere but not allowed")
	require.NotNil(t, diag)
	assert.Equal(t, ReasonNoSlot, diag.Reason)
	assert.Equal(t, "c1", diag.ClassID)
	assert.Equal(t, "s-math", diag.SubjectID)
}

func TestGreedyPlacerPlacesWithoutRoomWhenAllTaken(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	placer := NewGreedyPlacer(11)

	// Both rooms taken in every slot, but no whitelist: placement degrades
	// to a roomless lesson instead of failing.
	var occupied []models.Lesson
	id := int64(1)
	for _, day := range snap.Config().Days {
		for _, start := range snap.Config().SlotStarts() {
			occupied = append(occupied, mainLesson(id, "c2", "s-bio", "t2", day, start, start+60, "r1"))
			id++
			occupied = append(occupied, mainLesson(id, "c2", "s-bio", "t3", day, start, start+60, "r2"))
			id++
		}
	}
	board := NewBoard(snap, occupied)

	lesson, diag := placer.Place(board, Unit{ClassID: "c1", SubjectID: "s-math", TeacherID: "t1", DurationMin: 60})
	require.Nil(t, diag)
	require.NotNil(t, lesson)
	assert.Nil(t, lesson.RoomID)
}

func TestGreedyPlacerNonConsecutiveDays(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	placer := NewGreedyPlacer(21)
	board := NewBoard(snap, nil)

	unit := Unit{ClassID: "c1", SubjectID: "s-math", TeacherID: "t1", DurationMin: 60}
	for i := 0; i < 3; i++ {
		lesson, diag := placer.Place(board, unit)
		require.Nil(t, diag)
		// Neither configured neighbour of the chosen day may already carry
		// the same class/subject pair.
		if prev, ok := snap.Config().PrecedingDay(lesson.Day); ok {
			assert.False(t, board.HasClassSubjectOn("c1", "s-math", prev),
				"placed on day %d although day %d already has the subject", lesson.Day, prev)
		}
		if next, ok := snap.Config().FollowingDay(lesson.Day); ok {
			assert.False(t, board.HasClassSubjectOn("c1", "s-math", next),
				"placed on day %d although day %d already has the subject", lesson.Day, next)
		}
		lesson.ID = int64(i + 1)
		board.Add(*lesson)
	}
}

func TestGreedyPlacerSkipsDayBeforeExistingLesson(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	// Math already sits on Tuesday, so both Monday and Wednesday are out.
	board := NewBoard(snap, []models.Lesson{
		mainLesson(1, "c1", "s-math", "t1", 2, 480, 540, "r1"),
	})

	unit := Unit{ClassID: "c1", SubjectID: "s-math", TeacherID: "t1", DurationMin: 60}
	for seed := int64(1); seed <= 50; seed++ {
		lesson, diag := NewGreedyPlacer(seed).Place(board, unit)
		require.Nil(t, diag)
		assert.NotEqual(t, 1, lesson.Day, "seed %d landed just before the existing lesson", seed)
		assert.NotEqual(t, 2, lesson.Day)
		assert.NotEqual(t, 3, lesson.Day, "seed %d landed just after the existing lesson", seed)
	}
}

func TestGreedyPlacerNoSlotDiagnostic(t *testing.T) {
	in := baseInput()
	// One school day with two slots only.
	in.Config = Config{DayStartMin: 480, DayEndMin: 600, SessionMinutes: 60, Days: []int{1}}
	snap := mustSnapshot(t, in)
	placer := NewGreedyPlacer(5)
	board := NewBoard(snap, []models.Lesson{
		mainLesson(1, "c1", "s-bio", "t2", 1, 480, 540, "r1"),
		mainLesson(2, "c1", "s-bio", "t2", 1, 540, 600, "r2"),
	})

	lesson, diag := placer.Place(board, Unit{ClassID: "c1", SubjectID: "s-math", TeacherID: "t1", DurationMin: 60})
	assert.Nil(t, lesson)
	require.NotNil(t, diag)
	assert.Equal(t, ReasonNoSlot, diag.Reason)
	assert.Equal(t, "t1", diag.TeacherID)
}

func TestGreedyPlacerPlaceGroup(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	placer := NewGreedyPlacer(13)
	// c1 is occupied Monday first slot; st1 lives in c1.
	board := NewBoard(snap, []models.Lesson{
		mainLesson(1, "c1", "s-math", "t1", 1, 480, 540, "r1"),
	})

	unit := GroupUnit{
		Label:       "Art 1",
		SubjectID:   "s-art",
		TeacherID:   "t3",
		StudentIDs:  []string{"st1", "st2"},
		DurationMin: 60,
	}
	lesson, diag := placer.PlaceGroup(board, unit)
	require.Nil(t, diag)
	require.NotNil(t, lesson)

	require.NotNil(t, lesson.GroupLabel)
	assert.Equal(t, "Art 1", *lesson.GroupLabel)
	assert.Nil(t, lesson.ClassID)
	assert.Equal(t, []string{"st1", "st2"}, []string(lesson.StudentIDs))
	if lesson.Day == 1 {
		assert.NotEqual(t, 480, lesson.StartMin, "slot clashing with a member's home class is skipped")
	}
}

func TestGreedyPlacerDeterministicForSeed(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	unit := Unit{ClassID: "c1", SubjectID: "s-math", TeacherID: "t1", DurationMin: 60}

	first, diag := NewGreedyPlacer(1234).Place(NewBoard(snap, nil), unit)
	require.Nil(t, diag)
	second, diag := NewGreedyPlacer(1234).Place(NewBoard(snap, nil), unit)
	require.Nil(t, diag)

	assert.Equal(t, first.Day, second.Day)
	assert.Equal(t, first.StartMin, second.StartMin)
}
