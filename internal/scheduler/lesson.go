package scheduler

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// DefaultLessonMinutes is assumed when a lesson has no estimated duration.
	DefaultLessonMinutes = 10
	// CostMultiplier inflates raw watch-time to account for review and
	// exercises.
	CostMultiplier = 1.5
)

// Lesson is the scheduler's read-only view of a catalog lesson with its full
// membership chain resolved.
type Lesson struct {
	ID             string
	Name           string
	Number         int
	RawMinutes     *int
	Priority       int
	ModuleID       string
	ModuleNumber   int
	FrontID        string
	FrontName      string
	DisciplineID   string
	DisciplineName string
}

// CostedLesson is a lesson with its capacity-accounting cost in minutes.
type CostedLesson struct {
	Lesson
	Cost float64
}

// SortLessons orders candidates deterministically: discipline name, front
// name (both locale-aware), module number, lesson number. This ordering is
// the basis for all downstream grouping and placement.
func SortLessons(lessons []Lesson) {
	collator := collate.New(language.BrazilianPortuguese)
	sort.SliceStable(lessons, func(i, j int) bool {
		a, b := lessons[i], lessons[j]
		if c := collator.CompareString(a.DisciplineName, b.DisciplineName); c != 0 {
			return c < 0
		}
		if c := collator.CompareString(a.FrontName, b.FrontName); c != 0 {
			return c < 0
		}
		if a.ModuleNumber != b.ModuleNumber {
			return a.ModuleNumber < b.ModuleNumber
		}
		return a.Number < b.Number
	})
}

// ApplyCosts converts each lesson's raw estimated duration into its inflated
// cost: (raw or default) / playbackSpeed * multiplier. playbackSpeed values
// at or below zero fall back to 1.
func ApplyCosts(lessons []Lesson, playbackSpeed float64) []CostedLesson {
	if playbackSpeed <= 0 {
		playbackSpeed = 1
	}
	costed := make([]CostedLesson, 0, len(lessons))
	for _, lesson := range lessons {
		raw := float64(DefaultLessonMinutes)
		if lesson.RawMinutes != nil {
			raw = float64(*lesson.RawMinutes)
		}
		costed = append(costed, CostedLesson{
			Lesson: lesson,
			Cost:   raw / playbackSpeed * CostMultiplier,
		})
	}
	return costed
}

// TotalCost sums the cost of all lessons.
func TotalCost(lessons []CostedLesson) float64 {
	var total float64
	for _, lesson := range lessons {
		total += lesson.Cost
	}
	return total
}

// Front groups the lessons sharing a front identifier, preserving the
// candidate ordering within the group. Fronts are rebuilt on every
// invocation; the cursor tracks the next unplaced lesson and only ever
// advances, which is what guarantees a lesson is assigned at most once.
type Front struct {
	ID             string
	Name           string
	DisciplineID   string
	DisciplineName string
	Lessons        []CostedLesson
	TotalCost      float64
	Weight         float64

	cursor int
}

// Exhausted reports whether the front has no unplaced lessons left.
func (f *Front) Exhausted() bool {
	return f.cursor >= len(f.Lessons)
}

func (f *Front) next() (CostedLesson, bool) {
	if f.Exhausted() {
		return CostedLesson{}, false
	}
	return f.Lessons[f.cursor], true
}

func (f *Front) advance() {
	f.cursor++
}

// GroupFronts builds the front list in the order fronts are first encountered
// in the (already sorted) lesson list.
func GroupFronts(lessons []CostedLesson) []*Front {
	byID := make(map[string]*Front)
	var fronts []*Front
	for _, lesson := range lessons {
		front, ok := byID[lesson.FrontID]
		if !ok {
			front = &Front{
				ID:             lesson.FrontID,
				Name:           lesson.FrontName,
				DisciplineID:   lesson.DisciplineID,
				DisciplineName: lesson.DisciplineName,
			}
			byID[lesson.FrontID] = front
			fronts = append(fronts, front)
		}
		front.Lessons = append(front.Lessons, lesson)
		front.TotalCost += lesson.Cost
	}
	return fronts
}
