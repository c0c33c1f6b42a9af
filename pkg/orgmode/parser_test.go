package orgmode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

const sample = `#+TITLE: Chores
* TODO [#A] Pay rent :home:money:
  DEADLINE: <2025-07-01 Tue 09:00>
  :PROPERTIES:
  :ID: 1234-abcd
  :END:
  Transfer before noon.
* Notes
  not a task
* DONE [#C] Return library books
  CLOSED: [2025-06-01 Sun 10:00]
** TODO Water plants
`

func TestParse(t *testing.T) {
	items, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}

	rent := items[0]
	if rent.Draft.Title != "Pay rent" {
		t.Errorf("Expected title 'Pay rent', got '%s'", rent.Draft.Title)
	}
	if rent.Draft.Priority != "high" {
		t.Errorf("Expected priority high, got '%s'", rent.Draft.Priority)
	}
	if rent.Draft.DueDate == nil || !rent.Draft.DueDate.Equal(model.NewDate(2025, 7, 1)) {
		t.Errorf("Expected due 2025-07-01, got %v", rent.Draft.DueDate)
	}
	if rent.Draft.Description != "Transfer before noon." {
		t.Errorf("Expected description from body, got '%s'", rent.Draft.Description)
	}
	if len(rent.Tags) != 2 || rent.Tags[0] != "home" || rent.Tags[1] != "money" {
		t.Errorf("Expected tags [home money], got %v", rent.Tags)
	}
	if rent.Completed {
		t.Error("Expected TODO item to be pending")
	}

	books := items[1]
	if !books.Completed {
		t.Error("Expected DONE item to be completed")
	}
	if books.Draft.Priority != "low" {
		t.Errorf("Expected priority low, got '%s'", books.Draft.Priority)
	}
	if books.Draft.Description != "" {
		t.Errorf("Expected CLOSED line to be skipped, got '%s'", books.Draft.Description)
	}

	plants := items[2]
	if plants.Draft.Priority != "medium" || plants.Draft.DueDate != nil {
		t.Errorf("Expected medium priority and no due date, got %+v", plants.Draft)
	}
}

func TestParseFilesAndFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chores.org")
	if err := os.WriteFile(path, []byte(sample), 0600); err != nil {
		t.Fatal(err)
	}
	items, err := ParseFiles([]string{path})
	if err != nil {
		t.Fatalf("ParseFiles failed: %v", err)
	}
	home := FilterByTag(items, "home")
	if len(home) != 1 || home[0].Draft.Title != "Pay rent" {
		t.Errorf("Expected only 'Pay rent' tagged home, got %v", home)
	}

	if _, err := ParseFiles([]string{filepath.Join(dir, "missing.org")}); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
