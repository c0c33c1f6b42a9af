package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/render"
	"github.com/harrisonrobin/tasksync/pkg/server"
	"github.com/harrisonrobin/tasksync/pkg/view"
)

// upcomingLister and overdueLister are backends that can answer the reports
// themselves.
type upcomingLister interface {
	Upcoming(ctx context.Context) ([]model.Task, error)
}

type overdueLister interface {
	Overdue(ctx context.Context) ([]model.Task, error)
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.format()
			if err != nil {
				return err
			}
			st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			return render.Stats(app.Out, out, st.Stats())
		},
	}
}

func newUpcomingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "List pending tasks due in the next week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.format()
			if err != nil {
				return err
			}
			st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if r, ok := app.repo.(upcomingLister); ok {
				tasks, err := r.Upcoming(cmd.Context())
				if err != nil {
					return err
				}
				return renderTasks(app, out, tasks)
			}
			return renderTasks(app, out, view.Upcoming(st.Snapshot().Tasks, app.today(), server.UpcomingDays))
		},
	}
}

func newOverdueCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List pending tasks past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.format()
			if err != nil {
				return err
			}
			st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if r, ok := app.repo.(overdueLister); ok {
				tasks, err := r.Overdue(cmd.Context())
				if err != nil {
					return err
				}
				return renderTasks(app, out, tasks)
			}
			return renderTasks(app, out, st.View(view.Query{Filter: view.FilterOverdue, Sort: view.SortDueDate}))
		},
	}
}

func renderTasks(app *App, f render.Format, tasks []model.Task) error {
	return render.Tasks(app.Out, f, tasks, app.today())
}

func renderTask(app *App, f render.Format, t model.Task) error {
	return render.Task(app.Out, f, t, app.today())
}
