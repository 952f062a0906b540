package scheduler

import "math"

// FeasibilityReport is the outcome of comparing total lesson cost against
// total usable capacity. It is a first-class result, not an error: callers
// use the remediation numbers to suggest parameter changes to the student.
type FeasibilityReport struct {
	Feasible             bool    `json:"feasible"`
	HoursNeeded          int     `json:"hours_needed"`
	HoursAvailable       int     `json:"hours_available"`
	RequiredDailyHours   float64 `json:"required_daily_hours"`
	ConfiguredDailyHours float64 `json:"configured_daily_hours"`
	UsableWeeks          int     `json:"usable_weeks"`
}

// CheckFeasibility decides whether the selected lessons fit the usable
// capacity. An exact fit is feasible; only a strict excess is rejected.
func CheckFeasibility(totalCost float64, weeks []Week, hoursPerDay float64, daysPerWeek int) FeasibilityReport {
	capacity := TotalCapacity(weeks)
	usable := len(Usable(weeks))

	report := FeasibilityReport{
		Feasible:             totalCost <= capacity,
		HoursNeeded:          int(math.Ceil(totalCost / 60)),
		HoursAvailable:       int(math.Ceil(capacity / 60)),
		ConfiguredDailyHours: hoursPerDay,
		UsableWeeks:          usable,
	}

	if usable > 0 && daysPerWeek > 0 {
		required := (totalCost / 60) / (float64(usable) * float64(daysPerWeek))
		report.RequiredDailyHours = math.Ceil(required*10) / 10
	}

	return report
}
