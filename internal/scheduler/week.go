// Package scheduler implements the week-by-week study plan generation
// pipeline: capacity calculation, lesson costing, feasibility checking and
// lesson distribution. It is a pure in-memory computation; all data access
// happens in the calling service.
package scheduler

import "time"

// Interval is a closed date range. Both boundaries are inclusive.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Week is a 7-day window of the requested period. Capacity is in minutes and
// is zero when the week overlaps a vacation interval.
type Week struct {
	Number   int       `json:"number"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Blackout bool      `json:"blackout"`
	Capacity float64   `json:"capacity_minutes"`
}

// BuildWeeks splits [start, end] into consecutive 7-day windows numbered from
// 1. The last window's end is clamped to the overall end date. A window
// overlapping any vacation interval is blacked out with zero capacity;
// otherwise its capacity is hoursPerDay * daysPerWeek * 60 minutes.
func BuildWeeks(start, end time.Time, vacations []Interval, hoursPerDay float64, daysPerWeek int) []Week {
	weeklyMinutes := hoursPerDay * float64(daysPerWeek) * 60

	var weeks []Week
	number := 1
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 7) {
		weekEnd := cursor.AddDate(0, 0, 6)

		blackout := false
		for _, vacation := range vacations {
			if touches(cursor, weekEnd, vacation) {
				blackout = true
				break
			}
		}

		clamped := weekEnd
		if clamped.After(end) {
			clamped = end
		}

		capacity := weeklyMinutes
		if blackout {
			capacity = 0
		}

		weeks = append(weeks, Week{
			Number:   number,
			Start:    cursor,
			End:      clamped,
			Blackout: blackout,
			Capacity: capacity,
		})
		number++
	}
	return weeks
}

// touches reports whether the week window [start, end] overlaps the vacation
// interval, with inclusive boundary semantics: either endpoint falling inside
// the vacation, or the window fully containing it.
func touches(start, end time.Time, vacation Interval) bool {
	if within(start, vacation) || within(end, vacation) {
		return true
	}
	return !start.After(vacation.Start) && !end.Before(vacation.End)
}

func within(t time.Time, interval Interval) bool {
	return !t.Before(interval.Start) && !t.After(interval.End)
}

// Usable returns the non-blacked-out weeks in week-number order.
func Usable(weeks []Week) []Week {
	usable := make([]Week, 0, len(weeks))
	for _, week := range weeks {
		if !week.Blackout {
			usable = append(usable, week)
		}
	}
	return usable
}

// TotalCapacity sums the capacity of the non-blacked-out weeks.
func TotalCapacity(weeks []Week) float64 {
	var total float64
	for _, week := range weeks {
		if !week.Blackout {
			total += week.Capacity
		}
	}
	return total
}
