package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/studyplanhq/studyplan-api/internal/models"
)

// StudyPlanRepository persists study plan headers and their scheduled items.
type StudyPlanRepository struct {
	db *sqlx.DB
}

// NewStudyPlanRepository creates the repository.
func NewStudyPlanRepository(db *sqlx.DB) *StudyPlanRepository {
	return &StudyPlanRepository{db: db}
}

func (r *StudyPlanRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a plan header. The exec parameter allows enrolling the
// insert in a caller-managed transaction; pass nil to use the pool.
func (r *StudyPlanRepository) Create(ctx context.Context, exec sqlx.ExtContext, plan *models.StudyPlan) error {
	if plan == nil {
		return fmt.Errorf("plan payload is nil")
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	if len(plan.Vacations) == 0 {
		plan.Vacations = types.JSONText(`[]`)
	}
	if len(plan.SelectedDisciplines) == 0 {
		plan.SelectedDisciplines = types.JSONText(`[]`)
	}
	if len(plan.FrontOrder) == 0 {
		plan.FrontOrder = types.JSONText(`[]`)
	}
	if len(plan.Stats) == 0 {
		plan.Stats = types.JSONText(`{}`)
	}

	const query = `INSERT INTO study_plans (id, student_id, target_course_id, name, start_date, end_date, hours_per_day, days_per_week, min_priority, mode, playback_speed, exclude_completed, vacations, selected_disciplines, front_order, stats, created_at, updated_at)
VALUES (:id, :student_id, :target_course_id, :name, :start_date, :end_date, :hours_per_day, :days_per_week, :min_priority, :mode, :playback_speed, :exclude_completed, :vacations, :selected_disciplines, :front_order, :stats, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, plan); err != nil {
		return fmt.Errorf("create study plan: %w", err)
	}
	return nil
}

// BulkInsertItems inserts all scheduled items of a plan in one statement.
func (r *StudyPlanRepository) BulkInsertItems(ctx context.Context, exec sqlx.ExtContext, items []models.StudyPlanItem) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
	}

	const query = `INSERT INTO study_plan_items (id, plan_id, lesson_id, week_number, position, completed, created_at)
VALUES (:id, :plan_id, :lesson_id, :week_number, :position, :completed, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, items); err != nil {
		return fmt.Errorf("bulk insert study plan items: %w", err)
	}
	return nil
}

// ListByStudent returns a student's plans, newest first, with total count.
func (r *StudyPlanRepository) ListByStudent(ctx context.Context, studentID string, page, pageSize int) ([]models.StudyPlan, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, student_id, target_course_id, name, start_date, end_date, hours_per_day, days_per_week, min_priority, mode, playback_speed, exclude_completed, vacations, selected_disciplines, front_order, stats, created_at, updated_at
FROM study_plans WHERE student_id = $1
ORDER BY created_at DESC
LIMIT %d OFFSET %d`, pageSize, offset)
	var plans []models.StudyPlan
	if err := r.db.SelectContext(ctx, &plans, query, studentID); err != nil {
		return nil, 0, fmt.Errorf("list study plans: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM study_plans WHERE student_id = $1`, studentID); err != nil {
		return nil, 0, fmt.Errorf("count study plans: %w", err)
	}
	return plans, total, nil
}

// FindByID returns a plan header, or nil when it does not exist.
func (r *StudyPlanRepository) FindByID(ctx context.Context, id string) (*models.StudyPlan, error) {
	const query = `SELECT id, student_id, target_course_id, name, start_date, end_date, hours_per_day, days_per_week, min_priority, mode, playback_speed, exclude_completed, vacations, selected_disciplines, front_order, stats, created_at, updated_at
FROM study_plans WHERE id = $1 LIMIT 1`
	var plan models.StudyPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find study plan: %w", err)
	}
	return &plan, nil
}

// ListItemDetails returns a plan's items joined with lesson metadata, ordered
// by week then position.
func (r *StudyPlanRepository) ListItemDetails(ctx context.Context, planID string) ([]models.StudyPlanItemDetail, error) {
	const query = `SELECT
	i.id, i.lesson_id, i.week_number, i.position, i.completed,
	l.name AS lesson_name, l.number AS lesson_number, l.estimated_minutes,
	m.name AS module_name, f.name AS front_name, d.name AS discipline_name
FROM study_plan_items i
JOIN lessons l ON l.id = i.lesson_id
JOIN modules m ON m.id = l.module_id
JOIN fronts f ON f.id = m.front_id
JOIN disciplines d ON d.id = f.discipline_id
WHERE i.plan_id = $1
ORDER BY i.week_number, i.position`
	var items []models.StudyPlanItemDetail
	if err := r.db.SelectContext(ctx, &items, query, planID); err != nil {
		return nil, fmt.Errorf("list study plan items: %w", err)
	}
	return items, nil
}

// Delete removes a plan and, via the FK cascade, its items. Returns the
// number of deleted headers.
func (r *StudyPlanRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM study_plans WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete study plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete study plan rows affected: %w", err)
	}
	return affected, nil
}

// SetItemCompleted flips an item's completion flag and returns the lesson it
// refers to. The plan id guards against toggling items of another plan; an
// empty lesson id means no item matched.
func (r *StudyPlanRepository) SetItemCompleted(ctx context.Context, planID, itemID string, completed bool) (string, error) {
	const query = `UPDATE study_plan_items SET completed = $3 WHERE id = $2 AND plan_id = $1 RETURNING lesson_id`
	var lessonID string
	if err := r.db.QueryRowxContext(ctx, query, planID, itemID, completed).Scan(&lessonID); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("set item completed: %w", err)
	}
	return lessonID, nil
}
