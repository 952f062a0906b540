package scheduler

import "fmt"

// Mode selects the distribution strategy.
type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"
)

// ParseMode validates a raw mode value.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeParallel, ModeSequential:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("unknown distribution mode %q", raw)
	}
}

// Assignment places one lesson into one week. Position is 1-based and
// restarts at 1 for every week.
type Assignment struct {
	LessonID   string
	WeekNumber int
	Position   int
}

// Distributor assigns lessons to weeks. Implementations consume the fronts'
// cursors, so a front slice must not be reused across invocations. The weeks
// passed in must be the usable (non-blacked-out) ones, in week-number order;
// implementations never place more cost into a week than its capacity.
type Distributor interface {
	Distribute(fronts []*Front, weeks []Week) []Assignment
}

// NewDistributor returns the strategy for the given mode. frontOrder is only
// honored in sequential mode, where it lists preferred front display names.
func NewDistributor(mode Mode, frontOrder []string) Distributor {
	if mode == ModeSequential {
		return &sequentialDistributor{preferred: frontOrder}
	}
	return &parallelDistributor{}
}
