package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/server"
)

func newServeCmd(app *App) *cobra.Command {
	var listen, secret string
	var accessLog, printToken bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an in-memory task backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.settings()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Listen
			}
			if secret == "" {
				secret = cfg.JWTSecret
			}

			opts := []server.Option{server.WithClock(app.Now), server.WithJWTSecret(secret)}
			if accessLog {
				opts = append(opts, server.WithAccessLog())
			}
			if printToken {
				if secret == "" {
					return fmt.Errorf("--print-token needs a JWT secret")
				}
				tok, err := server.IssueToken([]byte(secret), "tasksync", 24*time.Hour)
				if err != nil {
					return fmt.Errorf("failed to issue token: %w", err)
				}
				fmt.Fprintln(app.Out, tok)
			}

			fmt.Fprintf(app.Err, "Serving tasks on %s\n", listen)
			return server.New(opts...).Run(listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&secret, "jwt-secret", "", "Require HS256 bearer tokens signed with this secret")
	cmd.Flags().BoolVar(&accessLog, "access-log", false, "Log every request")
	cmd.Flags().BoolVar(&printToken, "print-token", false, "Print a 24h bearer token before serving")
	return cmd
}
