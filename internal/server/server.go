package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/artifacts"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/defra"
	"github.com/jackzampolin/folio/internal/generate"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/jobs"
	"github.com/jackzampolin/folio/internal/metrics"
	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/schema"
	"github.com/jackzampolin/folio/internal/server/endpoints"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// Server is the main Folio HTTP server.
// It manages the DefraDB container lifecycle - starting it on server start
// and stopping it on server shutdown - and owns the generation runner.
type Server struct {
	httpServer   *http.Server
	defraManager *defra.DockerManager
	defraClient  *defra.Client
	defraSink    *defra.Sink
	jobManager   *jobs.Manager
	runner       *jobs.Runner
	orchestrator *generate.Orchestrator
	artifacts    *artifacts.Store
	registry     *providers.Registry
	configMgr    *config.Manager
	metrics      *metrics.Recorder
	home         *home.Dir
	logger       *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// DefraDataPath is the path to persist DefraDB data
	DefraDataPath string
	// DefraConfig holds DefraDB container settings
	DefraConfig defra.DockerConfig
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Home is the folio home directory (artifact files live under it)
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.Home = h
	}

	// Set up DefraDB data path
	if cfg.DefraDataPath != "" {
		cfg.DefraConfig.DataPath = cfg.DefraDataPath
	}

	defraManager, err := defra.NewDockerManager(cfg.DefraConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create defra manager: %w", err)
	}

	// Create provider registry
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)

	// If config manager provided, set up providers and hot reload
	if cfg.ConfigManager != nil {
		registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())

		// Watch for config changes
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToProviderRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	s := &Server{
		defraManager: defraManager,
		registry:     registry,
		configMgr:    cfg.ConfigManager,
		metrics:      metrics.NewRecorder(nil),
		home:         cfg.Home,
		logger:       cfg.Logger,
	}
	s.artifacts = artifacts.NewStore(cfg.Home, cfg.Logger)

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{
		DefraManager:    defraManager,
		Metrics:         s.metrics,
		SwaggerSpecPath: endpoints.GetSwaggerSpecPath(),
	}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server and DefraDB.
// It blocks until the context is cancelled or an error occurs.
// If an existing DefraDB container exists, it validates the configuration matches.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	// Validate any existing container matches our config
	if err := s.defraManager.ValidateExisting(ctx); err != nil {
		s.setNotRunning()
		return fmt.Errorf("existing DefraDB container incompatible: %w", err)
	}

	// Start DefraDB
	s.logger.Info("starting DefraDB")
	if err := s.defraManager.Start(ctx); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to start DefraDB: %w", err)
	}

	// Create client after DefraDB is up
	s.defraClient = defra.NewClient(s.defraManager.URL())

	// Verify DefraDB is healthy
	if err := s.defraClient.HealthCheck(ctx); err != nil {
		_ = s.shutdown() // Clean up DefraDB on failure
		return fmt.Errorf("DefraDB health check failed: %w", err)
	}
	s.logger.Info("DefraDB is ready", "url", s.defraManager.URL())

	// Initialize schemas
	s.logger.Info("initializing schemas")
	if err := schema.Initialize(ctx, s.defraClient, s.logger); err != nil {
		_ = s.shutdown()
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	// Async write sink for job event records
	s.defraSink = defra.NewSink(defra.SinkConfig{
		Client: s.defraClient,
		Logger: s.logger,
	})
	s.defraSink.Start(ctx)

	// Generation services
	genCfg := config.DefaultConfig()
	if s.configMgr != nil {
		genCfg = s.configMgr.Get()
	}

	s.jobManager = jobs.NewManager(s.defraClient, s.defraSink, s.logger)
	s.runner = jobs.NewRunner(genCfg.Generation.MaxConcurrentJobs, s.logger)
	s.orchestrator = generate.New(
		s.jobManager,
		s.artifacts,
		s.registry,
		genCfg.Generation,
		generate.Options{
			Provider:     genCfg.Defaults.LLMProvider,
			OutlineModel: genCfg.OutlineModel(),
			ChapterModel: genCfg.ChapterModel(),
		},
		s.metrics,
		s.logger,
	)

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		DefraClient:  s.defraClient,
		DefraSink:    s.defraSink,
		JobManager:   s.jobManager,
		Runner:       s.runner,
		Registry:     s.registry,
		Orchestrator: s.orchestrator,
		Artifacts:    s.artifacts,
		ConfigMgr:    s.configMgr,
		Logger:       s.logger,
		Home:         s.home,
		Metrics:      s.metrics,
	}

	// Re-queue jobs interrupted by a previous process exit
	s.resumeInterruptedJobs(ctx)

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown() // Clean up DefraDB on HTTP error
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// resumeInterruptedJobs re-queues every non-terminal job on the runner.
// Such jobs were mid-flight when the previous process exited; their
// checkpoints let the orchestrator continue after the last committed
// step instead of restarting from scratch.
func (s *Server) resumeInterruptedJobs(ctx context.Context) {
	jobList, err := s.jobManager.List(ctx, jobs.ListFilter{})
	if err != nil {
		s.logger.Error("interrupted-job scan failed", "error", err)
		return
	}
	for _, job := range jobList {
		if job.Status.Terminal() {
			continue
		}
		job := job
		if err := s.runner.Start(job.ID, func(ctx context.Context) {
			_ = s.orchestrator.Run(ctx, job)
		}); err != nil {
			s.logger.Error("failed to resume job", "job_id", job.ID, "error", err)
			continue
		}
		s.logger.Info("resuming interrupted job",
			"job_id", job.ID, "status", job.Status, "progress", job.Progress)
	}
}

// shutdown performs graceful shutdown of the HTTP server, running jobs,
// the write sink, and DefraDB.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Cancel running generation jobs and wait for them to checkpoint
	if s.runner != nil {
		if err := s.runner.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("job runner shutdown error", "error", err)
		}
	}

	// Drain pending event writes
	if s.defraSink != nil {
		s.defraSink.Stop()
	}

	// Stop DefraDB
	s.logger.Info("stopping DefraDB")
	if err := s.defraManager.Stop(shutdownCtx); err != nil {
		s.logger.Error("DefraDB stop error", "error", err)
	}

	// Close Docker client
	if err := s.defraManager.Close(); err != nil {
		s.logger.Error("DefraDB manager close error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// DefraClient returns the DefraDB client.
// Returns nil if the server hasn't started yet.
func (s *Server) DefraClient() *defra.Client {
	return s.defraClient
}

// JobManager returns the job manager.
// Returns nil if the server hasn't started yet.
func (s *Server) JobManager() *jobs.Manager {
	return s.jobManager
}

// Runner returns the job runner.
// Returns nil if the server hasn't started yet.
func (s *Server) Runner() *jobs.Runner {
	return s.runner
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if DefraDB or the generation services
// aren't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.defraClient == nil || s.jobManager == nil || s.runner == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
