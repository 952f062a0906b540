package scheduler

import "sort"

// sequentialDistributor completes one front entirely before starting the
// next. The front order follows the preference list when given; fronts not
// named there come last, keeping their encounter order.
type sequentialDistributor struct {
	preferred []string
}

func (d *sequentialDistributor) Distribute(fronts []*Front, weeks []Week) []Assignment {
	ordered := orderFronts(fronts, d.preferred)

	var items []Assignment
	current := 0
	for _, week := range weeks {
		used := 0.0
		position := 1
		for {
			for current < len(ordered) && ordered[current].Exhausted() {
				current++
			}
			if current >= len(ordered) {
				break
			}
			front := ordered[current]
			lesson, _ := front.next()
			// Strict rule: when the next lesson does not fit, the week is
			// done. No skipping ahead within the front, no peeking at later
			// fronts.
			if used+lesson.Cost > week.Capacity {
				break
			}
			items = append(items, Assignment{LessonID: lesson.ID, WeekNumber: week.Number, Position: position})
			position++
			used += lesson.Cost
			front.advance()
		}
	}
	return items
}

func orderFronts(fronts []*Front, preferred []string) []*Front {
	ordered := make([]*Front, len(fronts))
	copy(ordered, fronts)
	if len(preferred) == 0 {
		return ordered
	}

	rank := make(map[string]int, len(preferred))
	for i, name := range preferred {
		rank[name] = i
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, iNamed := rank[ordered[i].Name]
		rj, jNamed := rank[ordered[j].Name]
		if iNamed && jNamed {
			return ri < rj
		}
		if iNamed != jNamed {
			return iNamed
		}
		return false
	})
	return ordered
}
