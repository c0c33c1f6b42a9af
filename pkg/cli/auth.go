package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/auth"
	"github.com/harrisonrobin/tasksync/pkg/config"
	"github.com/harrisonrobin/tasksync/pkg/google"
)

func newAuthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorise access to Google Tasks",
		Long: fmt.Sprintf(`Runs the Google OAuth web flow and stores the token in the config directory.
The OAuth client must be saved there as %s first.`, auth.ClientSecretsFile),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.Dir()
			if err != nil {
				return fmt.Errorf("could not find path to configuration file: %w", err)
			}
			if err := auth.RemoveToken(dir); err != nil {
				return fmt.Errorf("could not delete old token, please delete it manually: %w", err)
			}
			if _, err := auth.GoogleClient(cmd.Context(), dir, google.Scopes); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			log.Printf("Authentication successful! Token saved to %s", auth.TokenFile)
			fmt.Fprintln(app.Out, "Run `tasksync config set backend google` to use Google Tasks.")
			return nil
		},
	}
}
