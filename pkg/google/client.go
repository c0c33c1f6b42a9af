package google

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"

	"github.com/harrisonrobin/tasksync/pkg/index"
)

// Scopes are the OAuth scopes the backend needs.
var Scopes = []string{tasks.TasksScope}

// NewClient connects to Google Tasks with an authorised HTTP client and
// resolves the task list by its title.
func NewClient(ctx context.Context, hc *http.Client, listTitle string, idx *index.Index, opts ...option.ClientOption) (*TasksClient, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(hc)}, opts...)
	srv, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Tasks client: %w", err)
	}

	listID, err := findList(ctx, srv, listTitle)
	if err != nil {
		return nil, err
	}
	return NewTasksClient(srv, listID, idx), nil
}

func findList(ctx context.Context, srv *tasks.Service, title string) (string, error) {
	var found string
	err := srv.Tasklists.List().MaxResults(100).Pages(ctx, func(page *tasks.TaskLists) error {
		for _, item := range page.Items {
			if item.Title == title {
				found = item.Id
				return errStop
			}
		}
		return nil
	})
	if err != nil && err != errStop {
		return "", fmt.Errorf("unable to retrieve task lists: %w", mapError("list", err))
	}
	if found == "" {
		return "", fmt.Errorf("task list '%s' not found", title)
	}
	return found, nil
}
