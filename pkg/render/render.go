// Package render prints tasks for the command line as a styled table, JSON
// or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/view"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	cellStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Strikethrough(true)
	dueTodayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	noDueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	statsBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	priorityStyles = map[model.Priority]lipgloss.Style{
		model.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	}
)

// Row is the flat form of a task used for tables and YAML.
type Row struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	DueDate     string `yaml:"dueDate,omitempty"`
	Priority    string `yaml:"priority"`
	Status      string `yaml:"status"`
	Overdue     bool   `yaml:"overdue,omitempty"`
}

func NewRow(t model.Task, today model.Date) Row {
	r := Row{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.DescriptionText(),
		Priority:    string(t.Priority.Normalize()),
		Status:      t.Status(),
		Overdue:     t.Overdue(today),
	}
	if t.DueDate != nil {
		r.DueDate = t.DueDate.String()
	}
	return r
}

// Tasks writes tasks in the requested format.
func Tasks(w io.Writer, f Format, tasks []model.Task, today model.Date) error {
	switch f {
	case FormatJSON:
		if tasks == nil {
			tasks = []model.Task{}
		}
		return JSON(w, tasks)
	case FormatYAML:
		rows := make([]Row, 0, len(tasks))
		for _, t := range tasks {
			rows = append(rows, NewRow(t, today))
		}
		return YAML(w, rows)
	default:
		_, err := io.WriteString(w, Table(tasks, today))
		return err
	}
}

// Task writes a single task.
func Task(w io.Writer, f Format, t model.Task, today model.Date) error {
	switch f {
	case FormatJSON:
		return JSON(w, t)
	case FormatYAML:
		return YAML(w, NewRow(t, today))
	default:
		_, err := io.WriteString(w, Table([]model.Task{t}, today))
		return err
	}
}

func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Table renders tasks as aligned columns. An empty list renders a hint line.
func Table(tasks []model.Task, today model.Date) string {
	if len(tasks) == 0 {
		return noDueStyle.Render("No tasks.") + "\n"
	}

	headers := []string{"ID", "TITLE", "DUE", "PRIORITY", "STATUS"}
	cells := make([][]string, len(tasks))
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for i, t := range tasks {
		r := NewRow(t, today)
		due := r.DueDate
		if due == "" {
			due = "-"
		}
		cells[i] = []string{r.ID, r.Title, due, r.Priority, r.Status}
		for j, c := range cells[i] {
			if w := lipgloss.Width(c); w > widths[j] {
				widths[j] = w
			}
		}
	}

	var b strings.Builder
	line := make([]string, len(headers))
	for i, h := range headers {
		line[i] = headerStyle.Width(widths[i]).Render(h)
	}
	b.WriteString(strings.Join(line, "  ") + "\n")

	for i, t := range tasks {
		for j, c := range cells[i] {
			line[j] = cellFor(t, j, today).Width(widths[j]).Render(c)
		}
		b.WriteString(strings.TrimRight(strings.Join(line, "  "), " ") + "\n")
	}
	return b.String()
}

func cellFor(t model.Task, col int, today model.Date) lipgloss.Style {
	if t.Completed {
		return doneStyle
	}
	switch col {
	case 2:
		return dueStyle(t, today)
	case 3:
		if s, ok := priorityStyles[t.Priority.Normalize()]; ok {
			return s
		}
	}
	return cellStyle
}

func dueStyle(t model.Task, today model.Date) lipgloss.Style {
	switch {
	case t.DueDate == nil:
		return noDueStyle
	case t.Overdue(today):
		return overdueStyle
	case t.DueDate.Equal(today):
		return dueTodayStyle
	default:
		return cellStyle
	}
}

// Stats writes dashboard counters.
func Stats(w io.Writer, f Format, s view.Stats) error {
	switch f {
	case FormatJSON:
		return JSON(w, s)
	case FormatYAML:
		return YAML(w, s)
	}
	body := fmt.Sprintf("Total:     %d\nPending:   %d\nCompleted: %d\n%s",
		s.Total, s.Pending, s.Completed,
		overdueLine(s.Overdue))
	_, err := io.WriteString(w, statsBoxStyle.Render(body)+"\n")
	return err
}

func overdueLine(n int) string {
	line := fmt.Sprintf("Overdue:   %d", n)
	if n > 0 {
		return overdueStyle.Render(line)
	}
	return line
}

// Error formats a store error banner.
func Error(kind, message string) string {
	return errorStyle.Render(fmt.Sprintf("[%s] %s", kind, message))
}
