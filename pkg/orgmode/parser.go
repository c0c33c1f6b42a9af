// Package orgmode imports TODO headlines from Org-mode files as task drafts.
package orgmode

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

// Item is one imported headline.
type Item struct {
	Draft     model.Draft
	Completed bool
	Tags      []string
}

var (
	headlineRegex = regexp.MustCompile(`^\*+\s+(TODO|DONE)\s*(?:\[#([A-Za-z])\])?\s*(.*?)(?:\s+(:(?:[\w@]+:)+))?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})[^>]*>`)
	otherHeading  = regexp.MustCompile(`^\*+\s`)
)

func parseFile(filePath string) ([]Item, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// ParseFiles parses multiple Org-mode files and returns their items in order.
func ParseFiles(filePaths []string) ([]Item, error) {
	var all []Item
	for _, filePath := range filePaths {
		items, err := parseFile(filePath)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}

// Parse reads TODO and DONE headlines. Priority A maps to high, C to low and
// anything else to medium. A DEADLINE becomes the due date and plain body
// lines become the description.
func Parse(r io.Reader) ([]Item, error) {
	scanner := bufio.NewScanner(r)
	var items []Item
	var current *Item
	var body []string
	inDrawer := false

	flush := func() {
		if current == nil {
			return
		}
		current.Draft.Description = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Draft.Title != "" {
			items = append(items, *current)
		}
		current = nil
		body = nil
	}

	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if matches := headlineRegex.FindStringSubmatch(raw); matches != nil {
			flush()
			current = &Item{
				Completed: matches[1] == "DONE",
				Draft: model.Draft{
					Title:    strings.TrimSpace(matches[3]),
					Priority: string(priorityFromCookie(matches[2])),
				},
			}
			if matches[4] != "" {
				current.Tags = strings.Split(strings.Trim(matches[4], ":"), ":")
			}
			continue
		}
		if otherHeading.MatchString(raw) {
			flush()
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, ":PROPERTIES:"), strings.HasPrefix(line, ":LOGBOOK:"):
			inDrawer = true
		case line == ":END:":
			inDrawer = false
		case inDrawer:
		case deadlineRegex.MatchString(line):
			m := deadlineRegex.FindStringSubmatch(line)
			if due, err := model.ParseDate(m[1]); err == nil {
				current.Draft.DueDate = &due
			}
		case strings.HasPrefix(line, "SCHEDULED:"), strings.HasPrefix(line, "CLOSED:"):
		default:
			body = append(body, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func priorityFromCookie(cookie string) model.Priority {
	switch strings.ToUpper(cookie) {
	case "A":
		return model.PriorityHigh
	case "C":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

// FilterByTag keeps the items carrying tag.
func FilterByTag(items []Item, tag string) []Item {
	var filtered []Item
	for _, item := range items {
		for _, t := range item.Tags {
			if t == tag {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered
}
