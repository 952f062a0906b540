package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyplanhq/studyplan-api/internal/models"
)

func TestStudyPlanRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO study_plans`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	plan := &models.StudyPlan{
		StudentID:   "student-1",
		Name:        "Plano ENEM",
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		HoursPerDay: 2,
		DaysPerWeek: 5,
		Mode:        models.StudyModeParallel,
	}
	err := repo.Create(context.Background(), nil, plan)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
	assert.False(t, plan.CreatedAt.IsZero())
	assert.JSONEq(t, `[]`, string(plan.Vacations))
	assert.JSONEq(t, `{}`, string(plan.Stats))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryCreateNilPlan(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	err := repo.Create(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestStudyPlanRepositoryBulkInsertItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO study_plan_items`)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	items := []models.StudyPlanItem{
		{PlanID: "plan-1", LessonID: "lesson-1", WeekNumber: 1, Position: 1},
		{PlanID: "plan-1", LessonID: "lesson-2", WeekNumber: 1, Position: 2},
	}
	err := repo.BulkInsertItems(context.Background(), nil, items)
	require.NoError(t, err)
	assert.NotEmpty(t, items[0].ID)
	assert.NotEmpty(t, items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryBulkInsertNoItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	err := repo.BulkInsertItems(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM study_plans WHERE id = $1`)).
		WithArgs("plan-404").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	plan, err := repo.FindByID(context.Background(), "plan-404")
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestStudyPlanRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "name", "start_date", "end_date", "hours_per_day", "days_per_week", "min_priority", "mode", "playback_speed", "exclude_completed", "vacations", "selected_disciplines", "front_order", "stats", "created_at", "updated_at"}).
		AddRow("plan-1", "student-1", "Plano ENEM", now, now, 2.0, 5, 0, "parallel", 1.0, true, []byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`{}`), now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM study_plans WHERE student_id = $1`)).
		WithArgs("student-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM study_plans WHERE student_id = $1`)).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	plans, total, err := repo.ListByStudent(context.Background(), "student-1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, plans, 1)
	assert.Equal(t, "plan-1", plans[0].ID)
	assert.Equal(t, models.StudyModeParallel, plans[0].Mode)
}

func TestStudyPlanRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM study_plans WHERE id = $1`)).
		WithArgs("plan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
}

func TestStudyPlanRepositorySetItemCompletedScopedToPlan(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE study_plan_items SET completed = $3 WHERE id = $2 AND plan_id = $1 RETURNING lesson_id`)).
		WithArgs("plan-1", "item-9", true).
		WillReturnError(sql.ErrNoRows)

	lessonID, err := repo.SetItemCompleted(context.Background(), "plan-1", "item-9", true)
	require.NoError(t, err)
	assert.Empty(t, lessonID, "item from another plan is untouched")
}

func TestStudyPlanRepositorySetItemCompletedReturnsLesson(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE study_plan_items SET completed = $3 WHERE id = $2 AND plan_id = $1 RETURNING lesson_id`)).
		WithArgs("plan-1", "item-1", true).
		WillReturnRows(sqlmock.NewRows([]string{"lesson_id"}).AddRow("lesson-7"))

	lessonID, err := repo.SetItemCompleted(context.Background(), "plan-1", "item-1", true)
	require.NoError(t, err)
	assert.Equal(t, "lesson-7", lessonID)
}
