package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialExhaustsFrontsInOrder(t *testing.T) {
	fronts := []*Front{
		makeFront("A", 100, 100, 100),
		makeFront("B", 100, 100),
	}
	weeks := usableWeeks(2, 300)

	items := (&sequentialDistributor{}).Distribute(fronts, weeks)

	require.Len(t, items, 5)
	got := make([]string, len(items))
	for i, item := range items {
		got[i] = item.LessonID
	}
	assert.Equal(t, []string{"A-1", "A-2", "A-3", "B-1", "B-2"}, got)
	assert.Equal(t, 1, items[2].WeekNumber, "A finishes in week 1")
	assert.Equal(t, 2, items[3].WeekNumber, "B starts in week 2")
	assertWellFormed(t, items, fronts, weeks)
}

func TestSequentialHonorsPreferredOrder(t *testing.T) {
	fronts := []*Front{
		makeFront("A", 100),
		makeFront("B", 100),
		makeFront("C", 100),
	}
	weeks := usableWeeks(1, 300)

	items := (&sequentialDistributor{preferred: []string{"C", "A"}}).Distribute(fronts, weeks)

	require.Len(t, items, 3)
	assert.Equal(t, "C-1", items[0].LessonID)
	assert.Equal(t, "A-1", items[1].LessonID)
	assert.Equal(t, "B-1", items[2].LessonID, "unlisted fronts come last in encounter order")
}

func TestSequentialStopsWeekOnFirstMisfit(t *testing.T) {
	// The 200-minute lesson misses the remaining room, so the week ends even
	// though the 10-minute lesson behind it would fit.
	fronts := []*Front{makeFront("A", 100, 200, 10)}
	weeks := usableWeeks(2, 250)

	items := (&sequentialDistributor{}).Distribute(fronts, weeks)

	require.Len(t, items, 3)
	assert.Equal(t, 1, items[0].WeekNumber)
	assert.Equal(t, 2, items[1].WeekNumber)
	assert.Equal(t, 2, items[2].WeekNumber)
	assertWellFormed(t, items, fronts, weeks)
}

func TestSequentialDoesNotPeekAtLaterFronts(t *testing.T) {
	// B's small lesson cannot jump the queue while A's next lesson misfits.
	fronts := []*Front{
		makeFront("A", 200, 200),
		makeFront("B", 50),
	}
	weeks := usableWeeks(3, 250)

	items := (&sequentialDistributor{}).Distribute(fronts, weeks)

	require.Len(t, items, 3)
	assert.Equal(t, "A-1", items[0].LessonID)
	assert.Equal(t, 1, items[0].WeekNumber)
	assert.Equal(t, "A-2", items[1].LessonID)
	assert.Equal(t, 2, items[1].WeekNumber)
	assert.Equal(t, "B-1", items[2].LessonID)
	assert.Equal(t, 2, items[2].WeekNumber)
}

func TestSequentialPositionsRestartEachWeek(t *testing.T) {
	fronts := []*Front{makeFront("A", 100, 100, 100, 100)}
	weeks := usableWeeks(2, 200)

	items := (&sequentialDistributor{}).Distribute(fronts, weeks)

	require.Len(t, items, 4)
	assert.Equal(t, 1, items[0].Position)
	assert.Equal(t, 2, items[1].Position)
	assert.Equal(t, 1, items[2].Position)
	assert.Equal(t, 2, items[3].Position)
}

func TestOrderFrontsWithoutPreferenceIsStable(t *testing.T) {
	fronts := []*Front{makeFront("B"), makeFront("A"), makeFront("C")}

	ordered := orderFronts(fronts, nil)

	require.Len(t, ordered, 3)
	assert.Equal(t, "B", ordered[0].Name)
	assert.Equal(t, "A", ordered[1].Name)
	assert.Equal(t, "C", ordered[2].Name)
}
