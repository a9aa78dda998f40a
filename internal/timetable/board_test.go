package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

func strPtr(s string) *string { return &s }

func mainLesson(id int64, classID, subjectID, teacherID string, day, start, end int, roomID string) models.Lesson {
	l := models.Lesson{
		ID:        id,
		Day:       day,
		StartMin:  start,
		EndMin:    end,
		SubjectID: subjectID,
		TeacherID: teacherID,
		ClassID:   strPtr(classID),
	}
	if roomID != "" {
		l.RoomID = strPtr(roomID)
	}
	return l
}

func TestOverlapsHalfOpen(t *testing.T) {
	assert.True(t, overlaps(480, 540, 500, 560))
	assert.True(t, overlaps(500, 560, 480, 540))
	assert.True(t, overlaps(480, 540, 480, 540))

	// Back to back windows share a boundary but do not overlap.
	assert.False(t, overlaps(480, 540, 540, 600))
	assert.False(t, overlaps(540, 600, 480, 540))
	assert.False(t, overlaps(480, 540, 600, 660))
}

func TestBoardTeacherBusy(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	board := NewBoard(snap, []models.Lesson{
		mainLesson(1, "c1", "s-math", "t1", 1, 480, 540, "r1"),
	})

	assert.True(t, board.TeacherBusy("t1", 1, 480, 540, 0))
	assert.True(t, board.TeacherBusy("t1", 1, 530, 590, 0))
	assert.False(t, board.TeacherBusy("t1", 1, 540, 600, 0), "adjacent window is free")
	assert.False(t, board.TeacherBusy("t1", 2, 480, 540, 0), "other day is free")
	assert.False(t, board.TeacherBusy("t2", 1, 480, 540, 0))

	assert.False(t, board.TeacherBusy("t1", 1, 480, 540, 1), "excluded lesson does not block")
}

func TestBoardClassBusy(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	board := NewBoard(snap, []models.Lesson{
		mainLesson(1, "c1", "s-math", "t1", 1, 480, 540, "r1"),
	})

	assert.True(t, board.ClassBusy("c1", 1, 480, 540, 0))
	assert.True(t, board.ClassBusy("c1", 1, 500, 560, 0))
	assert.False(t, board.ClassBusy("c2", 1, 480, 540, 0))
	assert.False(t, board.ClassBusy("c1", 1, 540, 600, 0))
}

func TestBoardClassBusyThroughGroupMembership(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	group := models.Lesson{
		ID:         2,
		Day:        3,
		StartMin:   600,
		EndMin:     660,
		SubjectID:  "s-art",
		TeacherID:  "t3",
		GroupLabel: strPtr("Art 1"),
		StudentIDs: []string{"st1", "st2"},
	}
	board := NewBoard(snap, []models.Lesson{group})

	// st1 lives in c1 and st2 in c2, so both home classes are occupied.
	assert.True(t, board.ClassBusy("c1", 3, 600, 660, 0))
	assert.True(t, board.ClassBusy("c2", 3, 600, 660, 0))
	assert.False(t, board.ClassBusy("c1", 3, 660, 720, 0))
}

func TestBoardRoomBusy(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	board := NewBoard(snap, []models.Lesson{
		mainLesson(1, "c1", "s-math", "t1", 1, 480, 540, "r1"),
		mainLesson(2, "c2", "s-bio", "t2", 1, 480, 540, ""),
	})

	assert.True(t, board.RoomBusy("r1", 1, 480, 540, 0))
	assert.False(t, board.RoomBusy("r2", 1, 480, 540, 0), "roomless lesson occupies no room")
	assert.False(t, board.RoomBusy("r1", 1, 540, 600, 0))
}

func TestBoardConstraintConflict(t *testing.T) {
	in := baseInput()
	in.Constraints = []models.TeacherConstraint{
		{ID: "tc1", TeacherID: "t1", Day: 2, StartMin: 480, EndMin: 600},
	}
	board := NewBoard(mustSnapshot(t, in), nil)

	assert.True(t, board.ConstraintConflict("t1", 2, 540, 600))
	assert.False(t, board.ConstraintConflict("t1", 2, 600, 660))
	assert.False(t, board.ConstraintConflict("t1", 3, 540, 600))
	assert.False(t, board.ConstraintConflict("t2", 2, 540, 600))
}

func TestBoardAvailableRooms(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	board := NewBoard(snap, []models.Lesson{
		mainLesson(1, "c1", "s-math", "t1", 1, 480, 540, "r1"),
	})

	free := board.AvailableRooms(1, 480, 540, nil, 0)
	require.Len(t, free, 1)
	assert.Equal(t, "r2", free[0].ID)

	// A whitelist naming only the occupied room yields nothing.
	assert.Empty(t, board.AvailableRooms(1, 480, 540, []string{"r1"}, 0))

	free = board.AvailableRooms(1, 540, 600, []string{"r1"}, 0)
	require.Len(t, free, 1)
	assert.Equal(t, "r1", free[0].ID)
}

func TestBoardMutations(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	board := NewBoard(snap, nil)

	board.Add(mainLesson(5, "c1", "s-math", "t1", 1, 480, 540, "r1"))
	lesson, ok := board.Find(5)
	require.True(t, ok)
	assert.Equal(t, 480, lesson.StartMin)

	require.True(t, board.UpdateSlot(5, 2, 540, 600))
	lesson, _ = board.Find(5)
	assert.Equal(t, 2, lesson.Day)
	assert.Equal(t, 540, lesson.StartMin)
	assert.Equal(t, 600, lesson.EndMin)

	assert.True(t, board.Remove(5))
	assert.False(t, board.Remove(5))
	_, ok = board.Find(5)
	assert.False(t, ok)
}

func TestBoardHasClassSubjectOn(t *testing.T) {
	snap := mustSnapshot(t, baseInput())
	board := NewBoard(snap, []models.Lesson{
		mainLesson(1, "c1", "s-math", "t1", 1, 480, 540, "r1"),
	})

	assert.True(t, board.HasClassSubjectOn("c1", "s-math", 1))
	assert.False(t, board.HasClassSubjectOn("c1", "s-math", 2))
	assert.False(t, board.HasClassSubjectOn("c2", "s-math", 1))
	assert.False(t, board.HasClassSubjectOn("c1", "s-bio", 1))
}
