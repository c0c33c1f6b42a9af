// Package cli is the tasksync command tree. Commands dispatch intents into a
// store.Store and render its state.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/auth"
	"github.com/harrisonrobin/tasksync/pkg/client"
	"github.com/harrisonrobin/tasksync/pkg/config"
	"github.com/harrisonrobin/tasksync/pkg/google"
	"github.com/harrisonrobin/tasksync/pkg/index"
	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/render"
	"github.com/harrisonrobin/tasksync/pkg/store"
	"github.com/harrisonrobin/tasksync/pkg/validate"
)

// App carries what the commands share during one invocation.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	Now func() time.Time

	// LoadConfig and OpenRepo default to the config file and the configured
	// backend. Tests replace them.
	LoadConfig func() (*config.Config, error)
	OpenRepo   func(ctx context.Context, cfg *config.Config) (store.Repository, error)

	verbose bool
	output  string
	backend string
	baseURL string

	cfg   *config.Config
	repo  store.Repository
	store *store.Store
}

func NewApp() *App {
	return &App{
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		Now:        time.Now,
		LoadConfig: config.Load,
		OpenRepo:   OpenRepository,
	}
}

// Execute runs the command tree against the real terminal and backend.
func Execute(version string) error {
	root := NewRootCommand(NewApp())
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "tasksync",
		Short: "Manage tasks on a remote task service",
		Long: `tasksync keeps a local view of your tasks in sync with a REST task service
or a Google Tasks list. Changes are shown immediately and rolled back when the
backend rejects them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(app.In)
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	flags := root.PersistentFlags()
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "Log backend failures and rollbacks")
	flags.StringVarP(&app.output, "output", "o", "table", "Output format: table, json or yaml")
	flags.StringVar(&app.backend, "backend", "", "Backend to use: rest or google (overrides config)")
	flags.StringVar(&app.baseURL, "base-url", "", "REST backend URL (overrides config)")

	root.AddCommand(
		newListCmd(app),
		newAddCmd(app),
		newEditCmd(app),
		newDoneCmd(app),
		newRmCmd(app),
		newStatsCmd(app),
		newUpcomingCmd(app),
		newOverdueCmd(app),
		newImportCmd(app),
		newWatchCmd(app),
		newServeCmd(app),
		newAuthCmd(app),
		newConfigCmd(app),
	)
	return root
}

func (a *App) format() (render.Format, error) {
	return render.ParseFormat(a.output)
}

func (a *App) today() model.Date {
	return model.Today(a.Now())
}

func (a *App) settings() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := a.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// session opens the backend, builds the store and loads the task list.
func (a *App) session(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	cfg, err := a.settings()
	if err != nil {
		return nil, err
	}
	repo, err := a.OpenRepo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if a.verbose {
		logger = log.New(a.Err, "", log.LstdFlags)
	}
	a.repo = repo
	a.store = store.New(repo, store.WithClock(a.Now), store.WithLogger(logger))
	if err := a.store.Load(ctx); err != nil {
		return nil, a.storeError(err)
	}
	return a.store, nil
}

// storeError turns a failed store operation into the message shown to the user.
func (a *App) storeError(err error) error {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return err
	}
	if a.store != nil {
		if st := a.store.Snapshot(); st.Err != nil {
			return errors.New(render.Error(st.Err.Kind.String(), st.Err.Message))
		}
	}
	return err
}

// OpenRepository builds the backend named by cfg.
func OpenRepository(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	switch cfg.Backend {
	case config.BackendGoogle:
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		hc, err := auth.GoogleClient(ctx, dir, google.Scopes)
		if err != nil {
			return nil, err
		}
		idx, err := index.OpenIn(dir)
		if err != nil {
			log.Printf("Warning: failed to open priority index: %v", err)
		}
		return google.NewClient(ctx, hc, cfg.TaskList, idx)
	default:
		return client.New(cfg.BaseURL,
			client.WithToken(cfg.Token),
			client.WithTimeout(cfg.Timeout.Duration),
		)
	}
}
