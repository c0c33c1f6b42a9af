package model

import (
	"strings"
	"time"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Task is a single reminder as held by the store and returned by a backend.
// Completed is the canonical completion state; Status is derived from it.
type Task struct {
	ID          ID
	Title       string
	Description *string
	DueDate     *Date
	Priority    Priority
	Completed   bool
	// CreatedAt is zero when the backend does not report it.
	CreatedAt time.Time
}

// Status returns the textual status derived from Completed.
func (t Task) Status() string {
	if t.Completed {
		return StatusCompleted
	}
	return StatusPending
}

// Overdue reports whether the task has a due date strictly before today and is not completed.
func (t Task) Overdue(today Date) bool {
	return t.DueDate != nil && !t.Completed && t.DueDate.Before(today)
}

// DescriptionText returns the description or "" when unset.
func (t Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	c := t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return c
}

// Draft holds the user-entered fields of a task that does not exist yet.
type Draft struct {
	Title       string
	Description string
	DueDate     *Date
	Priority    string
}

// Normalize turns the draft into the payload sent to a backend: title trimmed,
// description trimmed or nil, priority lowercased with medium as default, pending.
func (d Draft) Normalize() Task {
	t := Task{
		Title:     strings.TrimSpace(d.Title),
		Priority:  ParsePriority(d.Priority),
		Completed: false,
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		t.Description = &desc
	}
	if d.DueDate != nil {
		due := *d.DueDate
		t.DueDate = &due
	}
	return t
}

// Patch is a partial edit of a task. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	DueDate     *Date
	Priority    *Priority
	Completed   *bool

	ClearDescription bool
	ClearDueDate     bool
}

// Apply returns a copy of t with the patch merged in.
func (p Patch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.ClearDescription {
		out.Description = nil
	} else if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if desc == "" {
			out.Description = nil
		} else {
			out.Description = &desc
		}
	}
	if p.ClearDueDate {
		out.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		out.DueDate = &due
	}
	if p.Priority != nil {
		out.Priority = p.Priority.Normalize()
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
	}
	return out
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Priority == nil && p.Completed == nil && !p.ClearDescription && !p.ClearDueDate
}
