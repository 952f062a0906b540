package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/studyplanhq/studyplan-api/internal/models"
)

// CatalogRepository resolves the discipline > front > module > lesson
// hierarchy used by study plan generation.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListDisciplines returns the disciplines of a course, or all disciplines
// when courseID is nil.
func (r *CatalogRepository) ListDisciplines(ctx context.Context, courseID *string) ([]models.Discipline, error) {
	query := `SELECT id, course_id, name, created_at FROM disciplines`
	var args []interface{}
	if courseID != nil {
		query += ` WHERE course_id = $1`
		args = append(args, *courseID)
	}
	query += ` ORDER BY name`
	var disciplines []models.Discipline
	if err := r.db.SelectContext(ctx, &disciplines, query, args...); err != nil {
		return nil, fmt.Errorf("list disciplines: %w", err)
	}
	return disciplines, nil
}

// ListFrontIDsByDisciplines returns the identifiers of all fronts belonging
// to the given disciplines, optionally restricted to a course.
func (r *CatalogRepository) ListFrontIDsByDisciplines(ctx context.Context, disciplineIDs []string, courseID *string) ([]string, error) {
	query := `SELECT id FROM fronts WHERE discipline_id = ANY($1)`
	args := []interface{}{pq.Array(disciplineIDs)}
	if courseID != nil {
		query += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, *courseID)
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list fronts by disciplines: %w", err)
	}
	return ids, nil
}

// ListModuleIDsByFronts returns the identifiers of the modules under the
// given fronts. A non-empty subset restricts the result to those module ids.
func (r *CatalogRepository) ListModuleIDsByFronts(ctx context.Context, frontIDs, subset []string) ([]string, error) {
	query := `SELECT id FROM modules WHERE front_id = ANY($1)`
	args := []interface{}{pq.Array(frontIDs)}
	if len(subset) > 0 {
		query += fmt.Sprintf(" AND id = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(subset))
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list modules by fronts: %w", err)
	}
	return ids, nil
}

// ListLessonsByModules returns schedulable lessons of the given modules with
// their full membership chain. Lessons below the priority threshold and
// lessons with priority zero are excluded.
func (r *CatalogRepository) ListLessonsByModules(ctx context.Context, moduleIDs []string, minPriority int) ([]models.LessonDetail, error) {
	const query = `SELECT
	l.id, l.name, l.number, l.estimated_minutes, l.priority,
	m.id AS module_id, m.name AS module_name, m.number AS module_number,
	f.id AS front_id, f.name AS front_name,
	d.id AS discipline_id, d.name AS discipline_name
FROM lessons l
JOIN modules m ON m.id = l.module_id
JOIN fronts f ON f.id = m.front_id
JOIN disciplines d ON d.id = f.discipline_id
WHERE l.module_id = ANY($1) AND l.priority >= $2 AND l.priority <> 0`
	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, pq.Array(moduleIDs), minPriority); err != nil {
		return nil, fmt.Errorf("list lessons by modules: %w", err)
	}
	return lessons, nil
}
