package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taskflow/internal/config"
	"taskflow/internal/logging"
	"taskflow/internal/routes"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the client configuration",
	}

	showCmd := &cobra.Command{
		Use:         "show",
		Short:       "Show merged configuration",
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			a.printf("# Merged configuration (defaults, .env, global, project, environment)\n%s", data)
			return nil
		},
	}

	pathCmd := &cobra.Command{
		Use:         "path",
		Short:       "Show configuration file paths",
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			a.printf("Global:  %s\n", config.GlobalConfigPath())
			a.printf("Project: %s\n", config.ProjectConfigPath())
		},
	}

	cmd.AddCommand(showCmd, pathCmd)
	return cmd
}

func (a *app) mockServerCmd() *cobra.Command {
	var addr, secret, level string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:         "mock-server",
		Short:       "Run an in-memory TaskFlow API for local development",
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(logging.Options{Level: level})
			if err != nil {
				return err
			}
			gin.SetMode(gin.ReleaseMode)
			engine, _ := routes.NewDevServer(routes.DevOptions{Secret: secret, TokenTTL: ttl, Log: log})

			srv := &http.Server{Addr: addr, Handler: engine}
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			log.Infof("mock API listening on %s (REST under /api, socket at /socket)", addr)

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5000", "Listen address")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret (defaults to JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "token-ttl", 15*time.Minute, "Access token lifetime")
	cmd.Flags().StringVar(&level, "log-level", "info", "Log level")
	return cmd
}
