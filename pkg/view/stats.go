package view

import "github.com/harrisonrobin/tasksync/pkg/model"

// Stats are the dashboard counters.
type Stats struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
	Pending   int `json:"pending" yaml:"pending"`
	Overdue   int `json:"overdue" yaml:"overdue"`
}

func Summarize(tasks []model.Task, today model.Date) Stats {
	var s Stats
	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
			continue
		}
		s.Pending++
		if t.Overdue(today) {
			s.Overdue++
		}
	}
	return s
}

// Upcoming returns the pending tasks due between today and today+days, both
// ends included, ordered by due date.
func Upcoming(tasks []model.Task, today model.Date, days int) []model.Task {
	limit := today.AddDays(days)
	var out []model.Task
	for _, t := range tasks {
		if t.Completed || t.DueDate == nil {
			continue
		}
		if t.DueDate.Before(today) || t.DueDate.After(limit) {
			continue
		}
		out = append(out, t)
	}
	sortTasks(out, SortDueDate)
	return out
}
