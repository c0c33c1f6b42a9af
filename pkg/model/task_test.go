package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestOverdue(t *testing.T) {
	today := NewDate(2025, time.March, 10)
	yesterday := today.AddDays(-1)

	task := Task{ID: "1", Title: "Pay rent", DueDate: &yesterday}
	if !task.Overdue(today) {
		t.Errorf("Expected task due yesterday to be overdue")
	}

	task.Completed = true
	if task.Overdue(today) {
		t.Errorf("Expected completed task not to be overdue")
	}

	task.Completed = false
	task.DueDate = &today
	if task.Overdue(today) {
		t.Errorf("Expected task due today not to be overdue")
	}

	task.DueDate = nil
	if task.Overdue(today) {
		t.Errorf("Expected task without due date not to be overdue")
	}
}

func TestTodayIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2025, time.March, 10, 23, 30, 0, 0, loc)
	if got := Today(late).String(); got != "2025-03-10" {
		t.Errorf("Expected 2025-03-10, got %s", got)
	}
}

func TestDraftNormalize(t *testing.T) {
	draft := Draft{Title: "  Buy milk  ", Description: "   ", Priority: "HIGH"}
	task := draft.Normalize()

	if task.Title != "Buy milk" {
		t.Errorf("Expected trimmed title, got '%s'", task.Title)
	}
	if task.Description != nil {
		t.Errorf("Expected blank description to become nil, got '%s'", *task.Description)
	}
	if task.Priority != PriorityHigh {
		t.Errorf("Expected priority high, got %s", task.Priority)
	}
	if task.Completed || task.Status() != StatusPending {
		t.Errorf("Expected new task to be pending, got %s", task.Status())
	}

	if got := (Draft{Title: "abc"}).Normalize().Priority; got != PriorityMedium {
		t.Errorf("Expected default priority medium, got %s", got)
	}
}

func TestPatchApply(t *testing.T) {
	desc := "old"
	due := NewDate(2025, time.May, 1)
	orig := Task{ID: "7", Title: "Call mom", Description: &desc, DueDate: &due, Priority: PriorityLow}

	title := "Call mom and dad"
	high := PriorityHigh
	patched := Patch{Title: &title, Priority: &high, ClearDueDate: true}.Apply(orig)

	if patched.Title != title || patched.Priority != PriorityHigh || patched.DueDate != nil {
		t.Errorf("Unexpected patched task: %+v", patched)
	}
	if orig.DueDate == nil || orig.Title != "Call mom" {
		t.Errorf("Expected original task to be left untouched, got %+v", orig)
	}
	if patched.Description == orig.Description {
		t.Errorf("Expected patched task not to share the description pointer")
	}
}

func TestTaskUnmarshalAcceptsStatusOrCompleted(t *testing.T) {
	input := `[
		{"id": 12, "title": "Numeric id", "status": "completed", "dueDate": "2025-08-30", "priority": "High"},
		{"id": "a1b2", "title": "String id", "completed": false, "dueDate": null, "description": ""}
	]`

	var tasks []Task
	if err := json.Unmarshal([]byte(input), &tasks); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if tasks[0].ID != "12" {
		t.Errorf("Expected id 12, got %s", tasks[0].ID)
	}
	if !tasks[0].Completed {
		t.Errorf("Expected status completed to set Completed")
	}
	if tasks[0].Priority != PriorityHigh {
		t.Errorf("Expected priority high, got %s", tasks[0].Priority)
	}
	if tasks[0].DueDate == nil || tasks[0].DueDate.String() != "2025-08-30" {
		t.Errorf("Expected due date 2025-08-30, got %v", tasks[0].DueDate)
	}

	if tasks[1].ID != "a1b2" || tasks[1].Completed {
		t.Errorf("Unexpected second task: %+v", tasks[1])
	}
	if tasks[1].DueDate != nil || tasks[1].Description != nil {
		t.Errorf("Expected empty optional fields to be nil, got %+v", tasks[1])
	}
	if tasks[1].Priority != PriorityMedium {
		t.Errorf("Expected missing priority to default to medium, got %s", tasks[1].Priority)
	}
}

func TestTaskMarshalEmitsDerivedStatus(t *testing.T) {
	b, err := json.Marshal(Task{ID: "3", Title: "Done thing", Completed: true, Priority: PriorityLow})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out := string(b)
	for _, want := range []string{`"id":3`, `"status":"completed"`, `"completed":true`, `"dueDate":null`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in %s", want, out)
		}
	}
}

func TestIDRoundTripKeepsText(t *testing.T) {
	cases := map[ID]string{
		"12":   `12`,
		"-3":   `-3`,
		"007":  `"007"`,
		"+5":   `"+5"`,
		"a1b2": `"a1b2"`,
		"1e3":  `"1e3"`,
	}
	cases["999999999999999999999"] = `"999999999999999999999"`
	for id, wantJSON := range cases {
		b, err := json.Marshal(id)
		if err != nil {
			t.Fatalf("Marshal %q failed: %v", id, err)
		}
		if string(b) != wantJSON {
			t.Errorf("Expected %s for id %q, got %s", wantJSON, id, b)
		}
		var back ID
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("Unmarshal %s failed: %v", b, err)
		}
		if back != id {
			t.Errorf("Expected id %q after round trip, got %q", id, back)
		}
	}
}

func TestIDIntIsCanonical(t *testing.T) {
	if n, ok := ID("42").Int(); !ok || n != 42 {
		t.Errorf("Expected 42, got %d (%v)", n, ok)
	}
	for _, id := range []ID{"007", "+5", "", "abc"} {
		if _, ok := id.Int(); ok {
			t.Errorf("Expected %q not to count as an integer", id)
		}
	}
}
