package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskflow/internal/api"
	"taskflow/internal/config"
	"taskflow/internal/logging"
	"taskflow/internal/notify"
	"taskflow/internal/session"
	"taskflow/internal/state"
)

// skipSetup marks commands that run without a session or API client.
const skipSetup = "skip-setup"

// app is what every command works with once the root pre-run has finished.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	sessions *session.Store
	client   *api.Client
	store    *state.Store

	out        io.Writer
	format     string
	configFile string
	apiURL     string
	verbose    bool
}

// NewRootCmd builds the taskflow command tree writing to out.
func NewRootCmd(version string, out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "taskflow",
		Short:         "TaskFlow - projects, kanban boards and invitations from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return nil
			}
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.format, "output", "o", "table", "Output format (table, yaml, json)")
	flags.StringVar(&a.configFile, "config", "", "Config file (default ~/.taskflow/config.yaml and ./.taskflow.yaml)")
	flags.StringVar(&a.apiURL, "api-url", "", "API base URL, overrides api_url")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(a.loginCmd())
	rootCmd.AddCommand(a.registerCmd())
	rootCmd.AddCommand(a.logoutCmd())
	rootCmd.AddCommand(a.whoamiCmd())
	rootCmd.AddCommand(a.profileCmd())
	rootCmd.AddCommand(a.passwordCmd())
	rootCmd.AddCommand(a.projectsCmd())
	rootCmd.AddCommand(a.tasksCmd())
	rootCmd.AddCommand(a.commentsCmd())
	rootCmd.AddCommand(a.invitationsCmd())
	rootCmd.AddCommand(a.activityCmd())
	rootCmd.AddCommand(a.watchCmd())
	rootCmd.AddCommand(a.configCmd())
	rootCmd.AddCommand(a.mockServerCmd())
	return rootCmd
}

// Execute runs the CLI against os.Args. Interrupts cancel the command context.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd(version, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	var files []string
	if a.configFile != "" {
		files = append(files, a.configFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if a.apiURL != "" {
		cfg.APIURL = strings.TrimRight(a.apiURL, "/")
		if cfg.SocketURL, err = config.DeriveSocketURL(cfg.APIURL); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	if a.log, err = logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		return err
	}
	if a.sessions, err = session.Open(cfg.SessionDB); err != nil {
		return err
	}

	a.store = state.New(state.Options{
		Origin:         cfg.APIURL,
		Sessions:       a.sessions,
		Toasts:         notify.New(0, nil),
		Logger:         a.log,
		SearchDebounce: cfg.SearchDebounce,
	})
	a.client, err = api.New(api.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.RequestTimeout,
		Breaker: api.BreakerSettings{
			MaxFailures: cfg.Breaker.MaxFailures,
			OpenTimeout: cfg.Breaker.OpenTimeout,
		},
		Logger: a.log,
	}, a.store)
	if err != nil {
		return err
	}
	a.store.Bind(a.client)

	return a.store.RestoreSession(ctx)
}

func (a *app) close() error {
	if a.sessions == nil {
		return nil
	}
	err := a.sessions.Close()
	a.sessions = nil
	return err
}

// requireLogin fails commands that need a signed-in user
func (a *app) requireLogin() error {
	if !a.store.State().Auth.Authenticated() {
		return fmt.Errorf("%w: run `taskflow login` first", state.ErrNotAuthenticated)
	}
	return nil
}

// authed wraps a RunE so it only runs for a signed-in user.
func (a *app) authed(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		return run(cmd, args)
	}
}
