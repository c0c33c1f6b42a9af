// Package reminder reports tasks that became overdue since the last sweep.
package reminder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

const TableFile = "reminders.json"

// Entry records a task that was already reported overdue.
type Entry struct {
	Title    string     `json:"title"`
	Due      model.Date `json:"due"`
	Notified time.Time  `json:"notified"`
}

type Table struct {
	Entries map[model.ID]Entry `json:"entries"`
	Path    string             `json:"-"`
	dirty   bool
}

// NewTable opens the table at path; a missing file yields an empty table.
func NewTable(path string) (*Table, error) {
	t := &Table{
		Path:    path,
		Entries: make(map[model.ID]Entry),
	}

	if _, err := os.Stat(path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// OpenIn opens the reminder table inside dir.
func OpenIn(dir string) (*Table, error) {
	return NewTable(filepath.Join(dir, TableFile))
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(t); err != nil {
		return err
	}
	if t.Entries == nil {
		t.Entries = make(map[model.ID]Entry)
	}
	return nil
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	dir := filepath.Dir(t.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(t)
	if err == nil {
		t.dirty = false
	}
	return err
}

// Sweep returns the tasks that are overdue on today and were not reported
// before, ordered by due date. Entries for tasks that were completed, deleted
// or rescheduled are dropped so they can be reported again later.
func (t *Table) Sweep(tasks []model.Task, today model.Date, now time.Time) []model.Task {
	overdue := make(map[model.ID]model.Task)
	for _, task := range tasks {
		if task.Overdue(today) {
			overdue[task.ID] = task
		}
	}

	for id, entry := range t.Entries {
		task, ok := overdue[id]
		if !ok || !task.DueDate.Equal(entry.Due) {
			delete(t.Entries, id)
			t.dirty = true
		}
	}

	var fresh []model.Task
	for id, task := range overdue {
		if _, seen := t.Entries[id]; seen {
			continue
		}
		t.Entries[id] = Entry{Title: task.Title, Due: *task.DueDate, Notified: now}
		t.dirty = true
		fresh = append(fresh, task)
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		if !fresh[i].DueDate.Equal(*fresh[j].DueDate) {
			return fresh[i].DueDate.Before(*fresh[j].DueDate)
		}
		return fresh[i].ID < fresh[j].ID
	})
	return fresh
}
