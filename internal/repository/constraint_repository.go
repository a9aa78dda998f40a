package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

const constraintColumns = "id, teacher_id, day_of_week, start_min, end_min, description, created_at"

// ConstraintRepository manages teacher unavailability windows.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository constructs a ConstraintRepository.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// ListAll returns every constraint ordered by teacher, day and start time.
func (r *ConstraintRepository) ListAll(ctx context.Context) ([]models.TeacherConstraint, error) {
	query := "SELECT " + constraintColumns + " FROM teacher_constraints ORDER BY teacher_id, day_of_week, start_min"
	var constraints []models.TeacherConstraint
	if err := r.db.SelectContext(ctx, &constraints, query); err != nil {
		return nil, fmt.Errorf("list constraints: %w", err)
	}
	return constraints, nil
}

// ListByTeacher returns one teacher's unavailability windows.
func (r *ConstraintRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherConstraint, error) {
	query := "SELECT " + constraintColumns + " FROM teacher_constraints WHERE teacher_id = $1 ORDER BY day_of_week, start_min"
	var constraints []models.TeacherConstraint
	if err := r.db.SelectContext(ctx, &constraints, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher constraints: %w", err)
	}
	return constraints, nil
}

// Create inserts a new unavailability window.
func (r *ConstraintRepository) Create(ctx context.Context, constraint *models.TeacherConstraint) error {
	if constraint.ID == "" {
		constraint.ID = uuid.NewString()
	}
	if constraint.CreatedAt.IsZero() {
		constraint.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO teacher_constraints (id, teacher_id, day_of_week, start_min, end_min, description, created_at)
		VALUES (:id, :teacher_id, :day_of_week, :start_min, :end_min, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, constraint); err != nil {
		return fmt.Errorf("create constraint: %w", err)
	}
	return nil
}

// Delete removes an unavailability window.
func (r *ConstraintRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM teacher_constraints WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete constraint: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("constraint %s not found", id)
	}
	return nil
}
