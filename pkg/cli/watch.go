package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/config"
	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/reminder"
	"github.com/harrisonrobin/tasksync/pkg/render"
)

func newWatchCmd(app *App) *cobra.Command {
	var schedule string
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Report tasks as they become overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			table, err := reminder.OpenIn(dir)
			if err != nil {
				return fmt.Errorf("failed to open reminder table: %w", err)
			}
			st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			load := func(ctx context.Context) ([]model.Task, error) {
				if err := st.Refresh(ctx); err != nil {
					return nil, err
				}
				return st.Snapshot().Tasks, nil
			}
			notify := func(tasks []model.Task) {
				fmt.Fprintf(app.Out, "%d task(s) became overdue:\n", len(tasks))
				fmt.Fprint(app.Out, render.Table(tasks, app.today()))
			}
			w := reminder.NewWatcher(table, load, notify, reminder.WithClock(app.Now))

			if once {
				_, err := w.RunOnce(cmd.Context())
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if _, err := w.RunOnce(ctx); err != nil {
				fmt.Fprintln(app.Err, "Error:", err)
			}
			if err := w.Start(ctx, schedule); err != nil {
				return err
			}
			<-ctx.Done()
			w.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", reminder.DefaultSchedule, "Cron schedule for sweeps")
	cmd.Flags().BoolVar(&once, "once", false, "Sweep once and exit")
	return cmd
}
