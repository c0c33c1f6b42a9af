// Package google is the Google Tasks backend. Google Tasks has no priority
// field, so priorities live in a local index keyed by task id.
package google

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/tasks/v1"

	"github.com/harrisonrobin/tasksync/pkg/apierr"
	"github.com/harrisonrobin/tasksync/pkg/index"
	"github.com/harrisonrobin/tasksync/pkg/model"
)

const (
	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"
	dueLayout         = "2006-01-02T00:00:00.000Z"
)

var errStop = errors.New("stop paging")

// TasksClient implements store.Repository on one Google Tasks list.
type TasksClient struct {
	srv    *tasks.Service
	listID string
	index  *index.Index
}

// NewTasksClient wraps an existing service. idx may be nil, in which case
// every task reads back with medium priority.
func NewTasksClient(srv *tasks.Service, listID string, idx *index.Index) *TasksClient {
	return &TasksClient{srv: srv, listID: listID, index: idx}
}

func (c *TasksClient) List(ctx context.Context) ([]model.Task, error) {
	out := []model.Task{}
	err := c.srv.Tasks.List(c.listID).
		ShowCompleted(true).
		ShowHidden(true).
		MaxResults(100).
		Pages(ctx, func(page *tasks.Tasks) error {
			for _, rt := range page.Items {
				if rt.Deleted {
					continue
				}
				out = append(out, c.fromRemote(rt))
			}
			return nil
		})
	if err != nil {
		return nil, mapError("list", err)
	}
	return out, nil
}

func (c *TasksClient) Create(ctx context.Context, task model.Task) (model.Task, error) {
	created, err := c.srv.Tasks.Insert(c.listID, toRemote(task)).Context(ctx).Do()
	if err != nil {
		return model.Task{}, mapError("create", err)
	}
	c.setPriority(created.Id, task.Priority)
	return c.fromRemote(created), nil
}

// Update fetches the remote task and patches only the fields that differ.
// The priority is recorded only once the remote side has accepted the change.
func (c *TasksClient) Update(ctx context.Context, id model.ID, task model.Task) (model.Task, error) {
	existing, err := c.srv.Tasks.Get(c.listID, id.String()).Context(ctx).Do()
	if err != nil {
		return model.Task{}, mapError("update", err)
	}

	result := existing
	if patch := needsUpdate(existing, toRemote(task)); patch != nil {
		result, err = c.srv.Tasks.Patch(c.listID, existing.Id, patch).Context(ctx).Do()
		if err != nil {
			return model.Task{}, mapError("update", err)
		}
	}
	c.setPriority(result.Id, task.Priority)
	return c.fromRemote(result), nil
}

func (c *TasksClient) Delete(ctx context.Context, id model.ID) error {
	if err := c.srv.Tasks.Delete(c.listID, id.String()).Context(ctx).Do(); err != nil {
		return mapError("delete", err)
	}
	if c.index != nil {
		c.index.Remove(id.String())
		c.saveIndex()
	}
	return nil
}

// ToggleComplete moves the task away from previousCompleted.
func (c *TasksClient) ToggleComplete(ctx context.Context, id model.ID, previousCompleted bool) (model.Task, error) {
	patch := &tasks.Task{Status: statusCompleted}
	if previousCompleted {
		patch.Status = statusNeedsAction
		patch.NullFields = []string{"Completed"}
	}
	updated, err := c.srv.Tasks.Patch(c.listID, id.String(), patch).Context(ctx).Do()
	if err != nil {
		return model.Task{}, mapError("toggle", err)
	}
	return c.fromRemote(updated), nil
}

func (c *TasksClient) setPriority(id string, p model.Priority) {
	if c.index == nil {
		return
	}
	c.index.Set(id, string(p.Normalize()))
	c.saveIndex()
}

func (c *TasksClient) saveIndex() {
	if err := c.index.Save(); err != nil {
		log.Printf("could not save priority index: %v", err)
	}
}

func toRemote(t model.Task) *tasks.Task {
	rt := &tasks.Task{
		Title:  t.Title,
		Notes:  t.DescriptionText(),
		Status: statusNeedsAction,
	}
	if t.DueDate != nil {
		rt.Due = t.DueDate.Format(dueLayout)
	}
	if t.Completed {
		rt.Status = statusCompleted
	}
	return rt
}

func (c *TasksClient) fromRemote(rt *tasks.Task) model.Task {
	t := model.Task{
		ID:        model.ID(rt.Id),
		Title:     rt.Title,
		Completed: rt.Status == statusCompleted,
		Priority:  model.PriorityMedium,
	}
	if notes := strings.TrimSpace(rt.Notes); notes != "" {
		t.Description = &notes
	}
	if rt.Due != "" {
		if due, err := model.ParseDate(rt.Due); err == nil {
			t.DueDate = &due
		} else {
			log.Printf("ignoring unparsable due date %q on task %s", rt.Due, rt.Id)
		}
	}
	if c.index != nil {
		if p := c.index.Get(rt.Id); p != "" {
			t.Priority = model.ParsePriority(p)
		}
	}
	return t
}

// needsUpdate returns a patch holding the fields of want that differ from
// have, or nil when nothing changed.
func needsUpdate(have, want *tasks.Task) *tasks.Task {
	patch := &tasks.Task{}
	changed := false

	if have.Title != want.Title {
		patch.Title = want.Title
		changed = true
	}
	if have.Notes != want.Notes {
		if want.Notes == "" {
			patch.NullFields = append(patch.NullFields, "Notes")
		} else {
			patch.Notes = want.Notes
		}
		changed = true
	}
	if !sameDay(have.Due, want.Due) {
		if want.Due == "" {
			patch.NullFields = append(patch.NullFields, "Due")
		} else {
			patch.Due = want.Due
		}
		changed = true
	}
	if have.Status != want.Status {
		patch.Status = want.Status
		if want.Status == statusNeedsAction {
			patch.NullFields = append(patch.NullFields, "Completed")
		}
		changed = true
	}

	if !changed {
		return nil
	}
	return patch
}

func sameDay(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	da, errA := model.ParseDate(a)
	db, errB := model.ParseDate(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return da.Equal(db)
}

func mapError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusNotFound {
			return &apierr.Error{Kind: apierr.KindNotFound, Op: op, Status: gerr.Code, Message: "Task not found", Err: err}
		}
		return apierr.FromStatus(op, gerr.Code, gerr.Message, nil)
	}
	return apierr.Network(op, err)
}
