package dto

import (
	"github.com/studyplanhq/studyplan-api/internal/models"
	"github.com/studyplanhq/studyplan-api/internal/scheduler"
)

// GenerateStudyPlanRequest is the payload for POST /study-plans/generate.
// Dates are calendar days in YYYY-MM-DD form.
type GenerateStudyPlanRequest struct {
	StudentID        string                  `json:"student_id" validate:"required,uuid4"`
	TargetCourseID   *string                 `json:"target_course_id" validate:"omitempty,uuid4"`
	Name             string                  `json:"name" validate:"omitempty,max=120"`
	StartDate        string                  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate          string                  `json:"end_date" validate:"required,datetime=2006-01-02"`
	HoursPerDay      float64                 `json:"hours_per_day" validate:"required,gt=0,lte=24"`
	DaysPerWeek      int                     `json:"days_per_week" validate:"required,min=1,max=7"`
	DisciplineIDs    []string                `json:"discipline_ids" validate:"required,min=1,dive,uuid4"`
	ModuleIDs        []string                `json:"module_ids" validate:"omitempty,dive,uuid4"`
	MinPriority      int                     `json:"min_priority" validate:"omitempty,min=0,max=5"`
	Mode             string                  `json:"mode" validate:"required,oneof=parallel sequential"`
	FrontOrder       []string                `json:"front_order" validate:"omitempty,dive,min=1"`
	Vacations        []models.VacationPeriod `json:"vacations" validate:"omitempty,dive"`
	PlaybackSpeed    float64                 `json:"playback_speed" validate:"omitempty,gt=0,lte=3"`
	ExcludeCompleted *bool                   `json:"exclude_completed"`
}

// StudyPlanStats summarizes a generated plan. It is stored alongside the plan
// header and echoed in the generation response.
type StudyPlanStats struct {
	TotalLessons         int     `json:"total_lessons"`
	TotalWeeks           int     `json:"total_weeks"`
	UsableWeeks          int     `json:"usable_weeks"`
	TotalCapacityMinutes float64 `json:"total_capacity_minutes"`
	TotalCostMinutes     float64 `json:"total_cost_minutes"`
	FrontsDistributed    int     `json:"fronts_distributed"`
}

// GenerateStudyPlanResponse is returned by a successful generation.
type GenerateStudyPlanResponse struct {
	Plan        models.StudyPlan            `json:"plan"`
	Items       []models.StudyPlanItem      `json:"items"`
	Stats       StudyPlanStats              `json:"stats"`
	Feasibility scheduler.FeasibilityReport `json:"feasibility"`
}

// StudyPlanListItem is the compact representation for list views.
type StudyPlanListItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Mode      string `json:"mode"`
	CreatedAt string `json:"created_at"`
}

// StudyPlanDetailResponse is the full plan with its scheduled items.
type StudyPlanDetailResponse struct {
	Plan  models.StudyPlan             `json:"plan"`
	Items []models.StudyPlanItemDetail `json:"items"`
}

// CompleteItemRequest toggles an item's completion flag.
type CompleteItemRequest struct {
	Completed bool `json:"completed"`
}

// StudyPlanFilter captures query parameters for GET /study-plans.
type StudyPlanFilter struct {
	StudentID string
	Page      int
	PageSize  int
}
