package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/orgmode"
	"github.com/harrisonrobin/tasksync/pkg/validate"
)

func newImportCmd(app *App) *cobra.Command {
	var tag string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file.org>...",
		Short: "Create tasks from Org-mode TODO headlines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := orgmode.ParseFiles(args)
			if err != nil {
				return fmt.Errorf("failed to parse org files: %w", err)
			}
			if tag != "" {
				items = orgmode.FilterByTag(items, tag)
			}
			if dryRun {
				for _, item := range items {
					state := "TODO"
					if item.Completed {
						state = "DONE"
					}
					fmt.Fprintf(app.Out, "%s %s (%s)\n", state, item.Draft.Title, item.Draft.Priority)
				}
				return nil
			}

			st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			imported, skipped := 0, 0
			for _, item := range items {
				created, err := st.Create(cmd.Context(), item.Draft)
				if err != nil {
					var verrs validate.Errors
					if errors.As(err, &verrs) {
						fmt.Fprintf(app.Err, "Skipping %q:\n", item.Draft.Title)
						printValidation(app, verrs)
						skipped++
						continue
					}
					return app.storeError(err)
				}
				if item.Completed {
					if _, err := st.ToggleComplete(cmd.Context(), created.ID); err != nil {
						return app.storeError(err)
					}
				}
				imported++
			}
			fmt.Fprintf(app.Out, "Imported %d tasks, skipped %d.\n", imported, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Only import headlines carrying this tag")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print what would be imported")
	return cmd
}
