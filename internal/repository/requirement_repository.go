package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

// RequirementRepository manages per-class weekly hour overrides.
type RequirementRepository struct {
	db *sqlx.DB
}

// NewRequirementRepository constructs a RequirementRepository.
func NewRequirementRepository(db *sqlx.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

// ListAll returns every requirement.
func (r *RequirementRepository) ListAll(ctx context.Context) ([]models.LessonRequirement, error) {
	const query = `SELECT id, class_id, subject_id, weekly_hours, created_at FROM lesson_requirements ORDER BY class_id, subject_id`
	var requirements []models.LessonRequirement
	if err := r.db.SelectContext(ctx, &requirements, query); err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	return requirements, nil
}

// Upsert replaces the weekly hour demand for a class/subject pair.
func (r *RequirementRepository) Upsert(ctx context.Context, req *models.LessonRequirement) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO lesson_requirements (id, class_id, subject_id, weekly_hours, created_at)
		VALUES (:id, :class_id, :subject_id, :weekly_hours, :created_at)
		ON CONFLICT (class_id, subject_id) DO UPDATE SET weekly_hours = EXCLUDED.weekly_hours`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("upsert requirement: %w", err)
	}
	return nil
}

// Delete removes a requirement override.
func (r *RequirementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM lesson_requirements WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("requirement %s not found", id)
	}
	return nil
}
