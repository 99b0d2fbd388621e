package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	_ "github.com/jackzampolin/folio/docs"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/defra"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Folio server",
	Long: `Start the Folio HTTP server.

This starts both the HTTP API server and the DefraDB container.
When the server shuts down (via Ctrl+C or SIGTERM), running generation
jobs are cancelled at their last checkpoint and DefraDB is stopped.

The server provides:
  - /health     - Basic server health check
  - /ready      - Readiness check (includes DefraDB status)
  - /api/books  - Submit book specs for generation
  - /api/jobs   - Inspect, cancel, and delete generation jobs
  - /metrics    - Prometheus metrics

Examples:
  folio serve                    # Start on default port 8080
  folio serve --port 3000        # Start on custom port
  folio serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Single-instance guard: two servers would race over the same
		// DefraDB container and job state.
		pidPath := filepath.Join(h.Path(), "folio.pid")
		if pid, err := defra.ReadPidFile(pidPath); err == nil && defra.IsProcessAlive(pid) {
			return fmt.Errorf("another folio server is already running (pid %d)", pid)
		}
		if err := defra.WritePidFile(pidPath); err != nil {
			return err
		}
		defer defra.RemovePidFile(pidPath)

		// Ensure defradb data directory exists
		defraDataPath := filepath.Join(h.Path(), "defradb")
		if err := os.MkdirAll(defraDataPath, 0755); err != nil {
			return err
		}

		// Load configuration with hot reload
		configMgr, err := loadConfigManager(h)
		if err != nil {
			return err
		}
		configMgr.WatchConfig()

		// Create server
		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			DefraDataPath: defraDataPath,
			DefraConfig: defra.DockerConfig{
				ContainerName: configMgr.Get().Defra.ContainerName,
				Image:         configMgr.Get().Defra.Image,
				HostPort:      configMgr.Get().Defra.Port,
			},
			ConfigManager: configMgr,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

// loadConfigManager loads config from --config, the home dir, or defaults.
// A missing config file in the home dir is written out first so API keys
// have a place to live.
func loadConfigManager(h *home.Dir) (*config.Manager, error) {
	path := cfgFile
	if path == "" && !h.ConfigExists() {
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	mgr, err := config.NewManager(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return mgr, nil
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
