package scheduler

// parallelDistributor advances all fronts roughly together, proportional to
// their share of the total workload, so a student does not finish one subject
// long before starting another.
type parallelDistributor struct{}

func (d *parallelDistributor) Distribute(fronts []*Front, weeks []Week) []Assignment {
	var grandTotal float64
	for _, front := range fronts {
		grandTotal += front.TotalCost
	}
	if grandTotal == 0 {
		return nil
	}
	for _, front := range fronts {
		front.Weight = front.TotalCost / grandTotal
	}

	var items []Assignment
	for _, week := range weeks {
		used := 0.0
		position := 1

		// Quota pass: each front fills up to its proportional share of the
		// week.
		for _, front := range fronts {
			quota := week.Capacity * front.Weight
			quotaUsed := 0.0
			for {
				lesson, ok := front.next()
				if !ok {
					break
				}
				if quotaUsed+lesson.Cost > quota {
					break
				}
				if used+lesson.Cost > week.Capacity {
					break
				}
				items = append(items, Assignment{LessonID: lesson.ID, WeekNumber: week.Number, Position: position})
				position++
				used += lesson.Cost
				quotaUsed += lesson.Cost
				front.advance()
			}
		}

		// Fallback pass: absorb capacity left idle because some fronts ran
		// out of lessons or hit their quota while the week still has room.
		for _, front := range fronts {
			for {
				lesson, ok := front.next()
				if !ok {
					break
				}
				if used+lesson.Cost > week.Capacity {
					break
				}
				items = append(items, Assignment{LessonID: lesson.ID, WeekNumber: week.Number, Position: position})
				position++
				used += lesson.Cost
				front.advance()
			}
		}
	}
	return items
}
