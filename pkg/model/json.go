package model

import (
	"encoding/json"
	"time"
)

// wireTask is the JSON shape exchanged with the REST backend. Both completed
// and status are emitted; completed is the one that is stored.
type wireTask struct {
	ID          ID         `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *string    `json:"dueDate"`
	Priority    string     `json:"priority"`
	Completed   *bool      `json:"completed,omitempty"`
	Status      string     `json:"status,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	completed := t.Completed
	w := wireTask{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority.Normalize()),
		Completed:   &completed,
		Status:      t.Status(),
	}
	if t.DueDate != nil && !t.DueDate.IsZero() {
		s := t.DueDate.String()
		w.DueDate = &s
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		w.CreatedAt = &created
	}
	return json.Marshal(w)
}

func (t *Task) UnmarshalJSON(b []byte) error {
	var w wireTask
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Priority:    ParsePriority(w.Priority),
		Completed:   (w.Completed != nil && *w.Completed) || w.Status == StatusCompleted,
	}
	if out.Description != nil && *out.Description == "" {
		out.Description = nil
	}
	if w.DueDate != nil && *w.DueDate != "" {
		due, err := ParseDate(*w.DueDate)
		if err != nil {
			return err
		}
		out.DueDate = &due
	}
	if w.CreatedAt != nil {
		out.CreatedAt = *w.CreatedAt
	}
	*t = out
	return nil
}
