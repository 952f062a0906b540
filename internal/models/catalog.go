package models

import "time"

// Discipline is a subject taught inside a course (e.g. Mathematics).
type Discipline struct {
	ID        string    `db:"id" json:"id"`
	CourseID  *string   `db:"course_id" json:"course_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Front is a subdivision of a discipline grouping related modules; it is the
// unit of proportional/sequential distribution in generated study plans.
type Front struct {
	ID           string    `db:"id" json:"id"`
	DisciplineID string    `db:"discipline_id" json:"discipline_id"`
	CourseID     *string   `db:"course_id" json:"course_id,omitempty"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Module groups lessons inside a front, carrying an ordering number.
type Module struct {
	ID        string    `db:"id" json:"id"`
	FrontID   string    `db:"front_id" json:"front_id"`
	CourseID  *string   `db:"course_id" json:"course_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	Number    *int      `db:"number" json:"number,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Lesson is the smallest schedulable unit.
type Lesson struct {
	ID              string    `db:"id" json:"id"`
	ModuleID        string    `db:"module_id" json:"module_id"`
	Name            string    `db:"name" json:"name"`
	Number          *int      `db:"number" json:"number,omitempty"`
	EstimatedMinutes *int     `db:"estimated_minutes" json:"estimated_minutes,omitempty"`
	Priority        int       `db:"priority" json:"priority"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// LessonDetail carries a lesson together with its full membership chain,
// as returned by the catalog hierarchy query.
type LessonDetail struct {
	ID               string  `db:"id" json:"id"`
	Name             string  `db:"name" json:"name"`
	Number           *int    `db:"number" json:"number,omitempty"`
	EstimatedMinutes *int    `db:"estimated_minutes" json:"estimated_minutes,omitempty"`
	Priority         int     `db:"priority" json:"priority"`
	ModuleID         string  `db:"module_id" json:"module_id"`
	ModuleName       string  `db:"module_name" json:"module_name"`
	ModuleNumber     *int    `db:"module_number" json:"module_number,omitempty"`
	FrontID          string  `db:"front_id" json:"front_id"`
	FrontName        string  `db:"front_name" json:"front_name"`
	DisciplineID     string  `db:"discipline_id" json:"discipline_id"`
	DisciplineName   string  `db:"discipline_name" json:"discipline_name"`
}
