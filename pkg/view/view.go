// Package view computes the read-only projections shown to the user: search,
// filter and sort over a task collection, plus dashboard counters. Every
// function here is pure and never mutates its input.
package view

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
	FilterOverdue   Filter = "overdue"
)

type SortKey string

const (
	SortDueDate  SortKey = "dueDate"
	SortPriority SortKey = "priority"
	SortCreated  SortKey = "created"
)

// Query describes one derived view. Today is only consulted by FilterOverdue.
type Query struct {
	Search string
	Filter Filter
	Sort   SortKey
	Today  model.Date
}

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPending, FilterCompleted, FilterOverdue:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q (want all, pending, completed or overdue)", s)
}

func ParseSort(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "created":
		return SortCreated, nil
	case "duedate", "due":
		return SortDueDate, nil
	case "priority":
		return SortPriority, nil
	}
	return "", fmt.Errorf("unknown sort key %q (want dueDate, priority or created)", s)
}

// FilterAndSort applies search, then filter, then a stable sort. The result is
// a new slice; tasks keep their input order wherever the sort key ties.
func FilterAndSort(tasks []model.Task, q Query) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	needle := fold(strings.TrimSpace(q.Search))
	for _, t := range tasks {
		if !matches(t, needle) || !keep(t, q.Filter, q.Today) {
			continue
		}
		out = append(out, t)
	}
	sortTasks(out, q.Sort)
	return out
}

// fold builds a fresh Caser per call; Casers are stateful.
func fold(s string) string {
	return cases.Fold().String(s)
}

func matches(t model.Task, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(fold(t.Title), needle) ||
		strings.Contains(fold(t.DescriptionText()), needle) ||
		strings.Contains(fold(t.ID.String()), needle)
}

func keep(t model.Task, f Filter, today model.Date) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterOverdue:
		return t.Overdue(today)
	default:
		return true
	}
}

func sortTasks(tasks []model.Task, key SortKey) {
	switch key {
	case SortDueDate:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].DueDate, tasks[j].DueDate
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return a.Before(*b)
		})
	case SortPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority.Weight() > tasks[j].Priority.Weight()
		})
	case SortCreated:
		byTime, byNumber := allHaveCreatedAt(tasks), allNumericIDs(tasks)
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i], tasks[j]
			if byTime && !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			if byNumber {
				an, _ := a.ID.Int()
				bn, _ := b.ID.Int()
				return an > bn
			}
			return a.ID > b.ID
		})
	}
}

// allHaveCreatedAt reports whether creation times can order the whole list.
// A mixed list falls back to id order for every pair, newest id first.
func allHaveCreatedAt(tasks []model.Task) bool {
	for _, t := range tasks {
		if t.CreatedAt.IsZero() {
			return false
		}
	}
	return true
}

// allNumericIDs reports whether every id is an integer. Otherwise ids
// compare as text.
func allNumericIDs(tasks []model.Task) bool {
	for _, t := range tasks {
		if _, ok := t.ID.Int(); !ok {
			return false
		}
	}
	return true
}
