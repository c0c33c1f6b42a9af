package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/tasksync/pkg/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tasksync configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value (backend, base_url, token, tasklist, listen, jwt_secret, timeout)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			cfg, err := config.LoadFile(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.SaveFile(path, cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(app.Out, "%s set to: %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.settings()
			if err != nil {
				return err
			}
			shown := *cfg
			if shown.Token != "" {
				shown.Token = "********"
			}
			if shown.JWTSecret != "" {
				shown.JWTSecret = "********"
			}
			data, err := yaml.Marshal(configView(shown))
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprint(app.Out, string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, path)
			return nil
		},
	})
	return cmd
}

type configYAML struct {
	Backend   string `yaml:"backend"`
	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token,omitempty"`
	TaskList  string `yaml:"tasklist"`
	Listen    string `yaml:"listen"`
	JWTSecret string `yaml:"jwt_secret,omitempty"`
	Timeout   string `yaml:"timeout"`
}

func configView(c config.Config) configYAML {
	return configYAML{
		Backend:   c.Backend,
		BaseURL:   c.BaseURL,
		Token:     c.Token,
		TaskList:  c.TaskList,
		Listen:    c.Listen,
		JWTSecret: c.JWTSecret,
		Timeout:   c.Timeout.String(),
	}
}
