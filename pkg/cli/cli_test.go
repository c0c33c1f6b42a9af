package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/tasksync/pkg/config"
	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/server"
	"github.com/harrisonrobin/tasksync/pkg/validate"
	"github.com/harrisonrobin/tasksync/pkg/view"
)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	baseURL string
	out     bytes.Buffer
	err     bytes.Buffer
	in      string
}

func newHarness(t *testing.T, seed ...model.Task) *harness {
	t.Helper()
	t.Setenv("TASKSYNC_CONFIG_DIR", t.TempDir())
	srv := httptest.NewServer(server.New(server.WithClock(func() time.Time { return fixedNow }), server.WithTasks(seed...)).Handler())
	t.Cleanup(srv.Close)
	return &harness{baseURL: srv.URL}
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	h.err.Reset()
	app := NewApp()
	app.In = strings.NewReader(h.in)
	app.Out = &h.out
	app.Err = &h.err
	app.Now = func() time.Time { return fixedNow }
	app.LoadConfig = func() (*config.Config, error) {
		cfg := config.Default()
		cfg.BaseURL = h.baseURL
		cfg.Timeout.Duration = 5 * time.Second
		return cfg, nil
	}
	root := NewRootCommand(app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (h *harness) listJSON(t *testing.T, args ...string) []model.Task {
	t.Helper()
	require.NoError(t, h.run(append([]string{"list", "-o", "json"}, args...)...))
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &tasks))
	return tasks
}

func date(y int, m time.Month, d int) *model.Date {
	v := model.NewDate(y, m, d)
	return &v
}

func TestAddAndList(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("add", "Buy", "milk", "--due", "2025-06-12", "-p", "HIGH", "-d", "  two litres "))

	tasks := h.listJSON(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, "two litres", tasks[0].DescriptionText())
	assert.Equal(t, "2025-06-12", tasks[0].DueDate.String())
	assert.False(t, tasks[0].Completed)
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	h := newHarness(t)
	err := h.run("add", "ab", "--due", "2025-06-01")
	require.Error(t, err)

	var verrs validate.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "title")
	assert.Contains(t, verrs, "dueDate")
	assert.Empty(t, h.listJSON(t))
}

func TestListFiltersAndSorts(t *testing.T) {
	h := newHarness(t,
		model.Task{Title: "Pay rent", DueDate: date(2025, 6, 1), Priority: model.PriorityHigh},
		model.Task{Title: "Read book", Priority: model.PriorityLow},
		model.Task{Title: "Rent a car", DueDate: date(2025, 6, 20), Completed: true},
	)

	overdue := h.listJSON(t, "--filter", "overdue")
	require.Len(t, overdue, 1)
	assert.Equal(t, "Pay rent", overdue[0].Title)

	found := h.listJSON(t, "--search", "RENT", "--sort", "dueDate")
	require.Len(t, found, 2)
	assert.Equal(t, "Pay rent", found[0].Title)
	assert.Equal(t, "Rent a car", found[1].Title)

	err := h.run("list", "--filter", "someday")
	assert.Error(t, err)
}

func TestDoneTogglesTask(t *testing.T) {
	h := newHarness(t, model.Task{Title: "Water plants"})
	require.NoError(t, h.run("done", "1", "-o", "json"))

	var task model.Task
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &task))
	assert.True(t, task.Completed)
	assert.True(t, h.listJSON(t)[0].Completed)

	require.Error(t, h.run("done", "99"))
}

func TestEditTask(t *testing.T) {
	desc := "old notes"
	h := newHarness(t, model.Task{Title: "Draft memo", Description: &desc, DueDate: date(2025, 6, 30)})
	require.NoError(t, h.run("edit", "1", "--title", "Send memo", "--clear-description", "--priority", "low"))

	task := h.listJSON(t)[0]
	assert.Equal(t, "Send memo", task.Title)
	assert.Nil(t, task.Description)
	assert.Equal(t, model.PriorityLow, task.Priority)
	assert.Equal(t, "2025-06-30", task.DueDate.String())

	assert.Error(t, h.run("edit", "1"))
	assert.Error(t, h.run("edit", "1", "--priority", "urgent"))
}

func TestRmAsksForConfirmation(t *testing.T) {
	h := newHarness(t, model.Task{Title: "Old task"})

	h.in = "n\n"
	require.NoError(t, h.run("rm", "1"))
	assert.Contains(t, h.out.String(), "Aborted.")
	assert.Len(t, h.listJSON(t), 1)

	h.in = "y\n"
	require.NoError(t, h.run("rm", "1"))
	assert.Contains(t, h.out.String(), "Deleted task 1.")
	assert.Empty(t, h.listJSON(t))

	require.Error(t, h.run("rm", "1", "--yes"))
}

func TestStatsYAML(t *testing.T) {
	h := newHarness(t,
		model.Task{Title: "Late one", DueDate: date(2025, 6, 1)},
		model.Task{Title: "Finished", Completed: true},
		model.Task{Title: "Someday"},
	)
	require.NoError(t, h.run("stats", "-o", "yaml"))

	var s view.Stats
	require.NoError(t, yaml.Unmarshal(h.out.Bytes(), &s))
	assert.Equal(t, view.Stats{Total: 3, Completed: 1, Pending: 2, Overdue: 1}, s)
}

func TestUpcomingAndOverdueUseBackend(t *testing.T) {
	h := newHarness(t,
		model.Task{Title: "Late one", DueDate: date(2025, 6, 1)},
		model.Task{Title: "Soon", DueDate: date(2025, 6, 13)},
		model.Task{Title: "Much later", DueDate: date(2025, 8, 1)},
	)

	require.NoError(t, h.run("upcoming", "-o", "json"))
	var upcoming []model.Task
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &upcoming))
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Soon", upcoming[0].Title)

	require.NoError(t, h.run("overdue", "-o", "json"))
	var overdue []model.Task
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &overdue))
	require.Len(t, overdue, 1)
	assert.Equal(t, "Late one", overdue[0].Title)
}

func TestImportOrgFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "todo.org")
	org := `* TODO [#A] Renew passport :admin:
  DEADLINE: <2025-07-01 Tue>
* DONE Book flights :admin:
* TODO [#B] Pay old fine :admin:
  DEADLINE: <2025-01-01 Wed>
* TODO Plan picnic
`
	require.NoError(t, os.WriteFile(path, []byte(org), 0600))

	require.NoError(t, h.run("import", path, "--tag", "admin", "--dry-run"))
	assert.Contains(t, h.out.String(), "TODO Renew passport (high)")
	assert.NotContains(t, h.out.String(), "Plan picnic")

	require.NoError(t, h.run("import", path, "--tag", "admin"))
	assert.Contains(t, h.out.String(), "Imported 2 tasks, skipped 1.")
	assert.Contains(t, h.err.String(), "Pay old fine")

	tasks := h.listJSON(t, "--sort", "dueDate")
	require.Len(t, tasks, 2)
	assert.Equal(t, "Renew passport", tasks[0].Title)
	assert.Equal(t, "Book flights", tasks[1].Title)
	assert.True(t, tasks[1].Completed)
}

func TestWatchOnce(t *testing.T) {
	h := newHarness(t, model.Task{Title: "Late one", DueDate: date(2025, 6, 1)})
	require.NoError(t, h.run("watch", "--once"))
	assert.Contains(t, h.out.String(), "1 task(s) became overdue")
	assert.Contains(t, h.out.String(), "Late one")

	require.NoError(t, h.run("watch", "--once"))
	assert.Empty(t, h.out.String())
}

func TestConfigSetAndShow(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("config", "set", "tasklist", "Work"))
	assert.Contains(t, h.out.String(), "tasklist set to: Work")

	path, err := config.GetConfigPath()
	require.NoError(t, err)
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Work", cfg.TaskList)

	require.Error(t, h.run("config", "set", "backend", "carrier-pigeon"))

	require.NoError(t, h.run("config", "show"))
	assert.Contains(t, h.out.String(), "base_url: "+h.baseURL)
}

func TestUnreachableBackendReportsNetworkError(t *testing.T) {
	h := newHarness(t)
	h.baseURL = "http://127.0.0.1:1"
	err := h.run("list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[network]")
}
