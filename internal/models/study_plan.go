package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// StudyMode selects how lessons are spread across fronts.
type StudyMode string

const (
	StudyModeParallel   StudyMode = "parallel"
	StudyModeSequential StudyMode = "sequential"
)

// VacationPeriod is a blackout interval during which no studying happens.
type VacationPeriod struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

// StudyPlan is the persisted header of a generated week-by-week study plan.
type StudyPlan struct {
	ID                  string         `db:"id" json:"id"`
	StudentID           string         `db:"student_id" json:"student_id"`
	TargetCourseID      *string        `db:"target_course_id" json:"target_course_id,omitempty"`
	Name                string         `db:"name" json:"name"`
	StartDate           time.Time      `db:"start_date" json:"start_date"`
	EndDate             time.Time      `db:"end_date" json:"end_date"`
	HoursPerDay         float64        `db:"hours_per_day" json:"hours_per_day"`
	DaysPerWeek         int            `db:"days_per_week" json:"days_per_week"`
	MinPriority         int            `db:"min_priority" json:"min_priority"`
	Mode                StudyMode      `db:"mode" json:"mode"`
	PlaybackSpeed       float64        `db:"playback_speed" json:"playback_speed"`
	ExcludeCompleted    bool           `db:"exclude_completed" json:"exclude_completed"`
	Vacations           types.JSONText `db:"vacations" json:"vacations"`
	SelectedDisciplines types.JSONText `db:"selected_disciplines" json:"selected_disciplines"`
	FrontOrder          types.JSONText `db:"front_order" json:"front_order,omitempty"`
	Stats               types.JSONText `db:"stats" json:"stats"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// StudyPlanItem places a single lesson in a week of the plan. Position is a
// 1-based ordinal restarting at 1 for every week.
type StudyPlanItem struct {
	ID         string    `db:"id" json:"id"`
	PlanID     string    `db:"plan_id" json:"plan_id"`
	LessonID   string    `db:"lesson_id" json:"lesson_id"`
	WeekNumber int       `db:"week_number" json:"week_number"`
	Position   int       `db:"position" json:"position"`
	Completed  bool      `db:"completed" json:"completed"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// StudyPlanItemDetail joins an item with its lesson metadata for detail views
// and exports.
type StudyPlanItemDetail struct {
	ID               string `db:"id" json:"id"`
	LessonID         string `db:"lesson_id" json:"lesson_id"`
	WeekNumber       int    `db:"week_number" json:"week_number"`
	Position         int    `db:"position" json:"position"`
	Completed        bool   `db:"completed" json:"completed"`
	LessonName       string `db:"lesson_name" json:"lesson_name"`
	LessonNumber     *int   `db:"lesson_number" json:"lesson_number,omitempty"`
	EstimatedMinutes *int   `db:"estimated_minutes" json:"estimated_minutes,omitempty"`
	ModuleName       string `db:"module_name" json:"module_name"`
	FrontName        string `db:"front_name" json:"front_name"`
	DisciplineName   string `db:"discipline_name" json:"discipline_name"`
}
