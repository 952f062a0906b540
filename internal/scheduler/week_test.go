package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildWeeksNumbersAreContiguous(t *testing.T) {
	weeks := BuildWeeks(date(2024, time.March, 4), date(2024, time.April, 28), nil, 2, 5)

	require.NotEmpty(t, weeks)
	for i, week := range weeks {
		assert.Equal(t, i+1, week.Number)
	}
	assert.Equal(t, 8, len(weeks))
}

func TestBuildWeeksClampsFinalWindow(t *testing.T) {
	weeks := BuildWeeks(date(2024, time.January, 1), date(2024, time.January, 10), nil, 1, 5)

	require.Len(t, weeks, 2)
	assert.Equal(t, date(2024, time.January, 7), weeks[0].End)
	assert.Equal(t, date(2024, time.January, 10), weeks[1].End)
}

func TestBuildWeeksCapacity(t *testing.T) {
	weeks := BuildWeeks(date(2024, time.January, 1), date(2024, time.January, 14), nil, 2, 5)

	require.Len(t, weeks, 2)
	for _, week := range weeks {
		assert.False(t, week.Blackout)
		assert.Equal(t, 600.0, week.Capacity)
	}
	assert.Equal(t, 1200.0, TotalCapacity(weeks))
}

func TestBuildWeeksFractionalHours(t *testing.T) {
	weeks := BuildWeeks(date(2024, time.January, 1), date(2024, time.January, 7), nil, 1.5, 4)

	require.Len(t, weeks, 1)
	assert.Equal(t, 360.0, weeks[0].Capacity)
}

// Vacation-free capacity is exactly usableWeeks * hoursPerDay * daysPerWeek * 60.
func TestCapacityMonotonicity(t *testing.T) {
	weeks := BuildWeeks(date(2024, time.June, 3), date(2024, time.August, 25), nil, 3, 6)

	usable := Usable(weeks)
	assert.Equal(t, float64(len(usable))*3*6*60, TotalCapacity(weeks))
}

func TestBuildWeeksBlackoutZeroesCapacity(t *testing.T) {
	vacations := []Interval{{Start: date(2024, time.January, 8), End: date(2024, time.January, 14)}}
	weeks := BuildWeeks(date(2024, time.January, 1), date(2024, time.January, 21), vacations, 2, 5)

	require.Len(t, weeks, 3)
	assert.False(t, weeks[0].Blackout)
	assert.True(t, weeks[1].Blackout)
	assert.Zero(t, weeks[1].Capacity)
	assert.False(t, weeks[2].Blackout)
	assert.Equal(t, 1200.0, TotalCapacity(weeks))
	assert.Len(t, Usable(weeks), 2)
}

func TestBuildWeeksVacationBoundaryIsInclusive(t *testing.T) {
	// Vacation starting on the last day of the week still blacks it out.
	vacations := []Interval{{Start: date(2024, time.January, 7), End: date(2024, time.January, 9)}}
	weeks := BuildWeeks(date(2024, time.January, 1), date(2024, time.January, 14), vacations, 2, 5)

	require.Len(t, weeks, 2)
	assert.True(t, weeks[0].Blackout)
	assert.True(t, weeks[1].Blackout)
}

func TestBuildWeeksVacationContainedInWeek(t *testing.T) {
	vacations := []Interval{{Start: date(2024, time.January, 3), End: date(2024, time.January, 4)}}
	weeks := BuildWeeks(date(2024, time.January, 1), date(2024, time.January, 14), vacations, 2, 5)

	require.Len(t, weeks, 2)
	assert.True(t, weeks[0].Blackout)
	assert.False(t, weeks[1].Blackout)
}

func TestBuildWeeksMultipleVacationsAreAUnion(t *testing.T) {
	vacations := []Interval{
		{Start: date(2024, time.January, 1), End: date(2024, time.January, 2)},
		{Start: date(2024, time.January, 10), End: date(2024, time.January, 11)},
	}
	weeks := BuildWeeks(date(2024, time.January, 1), date(2024, time.January, 21), vacations, 2, 5)

	require.Len(t, weeks, 3)
	assert.True(t, weeks[0].Blackout)
	assert.True(t, weeks[1].Blackout)
	assert.False(t, weeks[2].Blackout)
}
