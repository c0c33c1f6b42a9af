package cli

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/validate"
	"github.com/harrisonrobin/tasksync/pkg/view"
)

func newListCmd(app *App) *cobra.Command {
	var search, filter, sortKey string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := view.ParseFilter(filter)
			if err != nil {
				return err
			}
			key, err := view.ParseSort(sortKey)
			if err != nil {
				return err
			}
			out, err := app.format()
			if err != nil {
				return err
			}
			st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			tasks := st.View(view.Query{Search: search, Filter: f, Sort: key, Today: app.today()})
			return renderTasks(app, out, tasks)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive text to match in title, description or id")
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "Show all, pending, completed or overdue tasks")
	cmd.Flags().StringVar(&sortKey, "sort", "created", "Sort by dueDate, priority or created")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var d model.Draft
	var due string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Title = strings.Join(args, " ")
			if due != "" {
				date, err := model.ParseDate(due)
				if err != nil {
					return validate.Errors{"dueDate": "Due date must be a date (YYYY-MM-DD)"}
				}
				d.DueDate = &date
			}
			out, err := app.format()
			if err != nil {
				return err
			}
			st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			created, err := st.Create(cmd.Context(), d)
			if err != nil {
				return app.storeError(err)
			}
			return renderTask(app, out, created)
		},
	}
	cmd.Flags().StringVarP(&d.Description, "description", "d", "", "Longer description (up to 500 characters)")
	cmd.Flags().StringVar(&due, "due", "", "Due date as YYYY-MM-DD")
	cmd.Flags().StringVarP(&d.Priority, "priority", "p", "medium", "Priority: low, medium or high")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var title, description, due, priority string
	var clearDescription, clearDue bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var p model.Patch
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("description") {
				p.Description = &description
			}
			if flags.Changed("due") {
				date, err := model.ParseDate(due)
				if err != nil {
					return validate.Errors{"dueDate": "Due date must be a date (YYYY-MM-DD)"}
				}
				p.DueDate = &date
			}
			if flags.Changed("priority") {
				pr := model.Priority(strings.ToLower(strings.TrimSpace(priority)))
				if !pr.Valid() {
					return validate.Errors{"priority": "Priority must be low, medium or high"}
				}
				p.Priority = &pr
			}
			p.ClearDescription = clearDescription
			p.ClearDueDate = clearDue
			if p.IsEmpty() {
				return fmt.Errorf("nothing to change: pass at least one of --title, --description, --due, --priority")
			}

			out, err := app.format()
			if err != nil {
				return err
			}
			st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			updated, err := st.Update(cmd.Context(), model.ID(args[0]), p)
			if err != nil {
				return app.storeError(err)
			}
			return renderTask(app, out, updated)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "Remove the description")
	cmd.Flags().StringVar(&due, "due", "", "New due date as YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority: low, medium or high")
	return cmd
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.format()
			if err != nil {
				return err
			}
			st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			t, err := st.ToggleComplete(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return app.storeError(err)
			}
			return renderTask(app, out, t)
		},
	}
}

func newRmCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			id := model.ID(args[0])
			t, ok := st.Task(id)
			if !ok {
				return fmt.Errorf("task %s not found", id)
			}
			if !yes && !confirm(app, fmt.Sprintf("Delete task %s %q? [y/N] ", id, t.Title)) {
				fmt.Fprintln(app.Out, "Aborted.")
				return nil
			}
			if err := st.Delete(cmd.Context(), id); err != nil {
				return app.storeError(err)
			}
			fmt.Fprintf(app.Out, "Deleted task %s.\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}

func confirm(app *App, prompt string) bool {
	fmt.Fprint(app.Out, prompt)
	answer, _ := bufio.NewReader(app.In).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// printValidation lists field messages in a stable order.
func printValidation(app *App, errs validate.Errors) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(app.Err, "  %s: %s\n", f, errs[f])
	}
}
