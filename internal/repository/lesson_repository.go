package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

const lessonColumns = "id, day_of_week, start_min, end_min, subject_id, teacher_id, room_id, class_id, group_label, student_ids, created_at, updated_at"

// LessonRepository manages persistence for scheduled lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// List returns lessons matching the filter, ordered by day and start time.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.Day != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.Day)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY day_of_week, start_min, id"

	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// FindByID fetches one lesson.
func (r *LessonRepository) FindByID(ctx context.Context, id int64) (*models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons WHERE id = $1"
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Create inserts a lesson and fills its generated ID.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now

	const query = `INSERT INTO lessons (day_of_week, start_min, end_min, subject_id, teacher_id, room_id, class_id, group_label, student_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	row := r.db.QueryRowxContext(ctx, query,
		lesson.Day, lesson.StartMin, lesson.EndMin,
		lesson.SubjectID, lesson.TeacherID, lesson.RoomID,
		lesson.ClassID, lesson.GroupLabel, lesson.StudentIDs,
		lesson.CreatedAt, lesson.UpdatedAt,
	)
	if err := row.Scan(&lesson.ID); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// ReplaceAllWithTx wipes the persisted timetable and bulk inserts the given
// lessons inside the caller's transaction. Synthetic IDs are discarded; the
// database assigns fresh ones.
func (r *LessonRepository) ReplaceAllWithTx(ctx context.Context, tx *sqlx.Tx, lessons []models.Lesson) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM lessons"); err != nil {
		return fmt.Errorf("clear lessons: %w", err)
	}

	const query = `INSERT INTO lessons (day_of_week, start_min, end_min, subject_id, teacher_id, room_id, class_id, group_label, student_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	now := time.Now().UTC()
	for i := range lessons {
		l := &lessons[i]
		if _, err := tx.ExecContext(ctx, query,
			l.Day, l.StartMin, l.EndMin,
			l.SubjectID, l.TeacherID, l.RoomID,
			l.ClassID, l.GroupLabel, l.StudentIDs,
			now, now,
		); err != nil {
			return fmt.Errorf("insert lesson: %w", err)
		}
	}
	return nil
}

// UpdateSlot rewrites the day and time window of one lesson.
func (r *LessonRepository) UpdateSlot(ctx context.Context, id int64, day, startMin, endMin int) error {
	const query = `UPDATE lessons SET day_of_week = $2, start_min = $3, end_min = $4, updated_at = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, day, startMin, endMin, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update lesson slot: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("lesson %d not found", id)
	}
	return nil
}

// Delete removes one lesson.
func (r *LessonRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM lessons WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("lesson %d not found", id)
	}
	return nil
}
