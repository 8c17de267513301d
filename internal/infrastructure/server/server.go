package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/ma4z/Hydrenix-Node/internal/api/http"
	"github.com/ma4z/Hydrenix-Node/internal/api/middleware"
	"github.com/ma4z/Hydrenix-Node/internal/domain/apikey"
	"github.com/ma4z/Hydrenix-Node/internal/domain/ledger"
	"github.com/ma4z/Hydrenix-Node/internal/domain/provision"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/config"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/logging"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/monitoring"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/tracing"
	"github.com/ma4z/Hydrenix-Node/internal/sandbox"
)

const shutdownGrace = 10 * time.Second

// Deps are the stateful collaborators the router serves.
type Deps struct {
	Keys        middleware.KeyMatcher
	Sessions    api.SessionLog
	Provisioner api.Provisioner
	Metrics     *monitoring.Metrics
	Tracer      *tracing.Tracer
	Logger      *zap.Logger
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Tracer != nil {
		router.Use(tracing.HTTPMiddleware(deps.Tracer))
	}
	if deps.Metrics != nil {
		router.Use(monitoring.Middleware(deps.Metrics))
	}
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(deps.Provisioner, deps.Sessions, cfg.Sandbox.Owner, logger.Named("api"))
	if deps.Metrics != nil {
		handlers.WithMetrics(deps.Metrics)
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	router.GET("/health", handlers.Health)

	onReject := func(c *gin.Context) {
		if deps.Metrics != nil {
			deps.Metrics.IncAuthFailures()
		}
		logger.Debug("rejected request", zap.String("path", c.Request.URL.Path), zap.String("ip", c.ClientIP()))
	}
	authed := router.Group("/", middleware.RequireAPIKey(deps.Keys, onReject))
	authed.GET("/status", handlers.Status)
	authed.GET("/vm/create", handlers.CreateVM)
	authed.GET("/vm/list", handlers.ListVMs)

	return router
}

// Server wraps the HTTP server and dependencies
type Server struct {
	httpServer   *http.Server
	orchestrator *provision.Orchestrator
	tracer       *tracing.Tracer
	logger       *logging.Logger
	config       *config.Config
}

// NewServer wires the node from cfg. keys must already be loaded; the caller
// owns the config file.
func NewServer(cfg *config.Config, keys *apikey.Store) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Info("Initializing Hydrenix node",
		zap.String("port", cfg.Server.Port),
		zap.String("runtime", cfg.Sandbox.Runtime),
		zap.String("image", cfg.Sandbox.Image),
		zap.String("config_path", keys.Path()),
		zap.String("ledger_path", cfg.Store.LedgerPath),
	)
	if keys.IsPlaceholder() {
		logger.Warn("API key is still the placeholder; set one with -key before exposing the node",
			zap.String("config_path", keys.Path()))
	}

	sessions, err := ledger.Open(cfg.Store.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session ledger: %w", err)
	}

	agentArgs, err := cfg.Sandbox.AgentArgs()
	if err != nil {
		return nil, err
	}

	runtime, err := sandbox.NewDockerRuntime(sandbox.Options{
		Command:      cfg.Sandbox.Runtime,
		Image:        cfg.Sandbox.Image,
		NamePrefix:   cfg.Sandbox.NamePrefix,
		Privileged:   cfg.Sandbox.Privileged,
		Capabilities: cfg.Sandbox.Capabilities,
		AgentCommand: agentArgs,
	}, logger.Component("sandbox"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sandbox runtime: %w", err)
	}

	extractor := &sandbox.Extractor{
		ConnectMarker:  cfg.Capture.ConnectMarker,
		ReadOnlyMarker: cfg.Capture.ReadOnlyMarker,
		MaxAttempts:    cfg.Capture.MaxAttempts,
		Interval:       cfg.Capture.Interval,
	}

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("hydrenix-node", logger.Component("trace"))

	orchestrator := provision.NewOrchestrator(runtime, runtime, extractor, logger.Component("provision")).
		WithMetrics(metrics).
		WithTeardownTimeout(cfg.Capture.TeardownTimeout)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := NewRouter(cfg, Deps{
		Keys:        keys,
		Sessions:    sessions,
		Provisioner: orchestrator,
		Metrics:     metrics,
		Tracer:      tracer,
		Logger:      logger.Logger,
	})

	logger.Info("Server initialized successfully")

	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		orchestrator: orchestrator,
		tracer:       tracer,
		logger:       logger,
		config:       cfg,
	}, nil
}

// Run serves HTTP until Close is called. It returns nil after a clean
// shutdown.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops accepting requests, waits for in-flight ones and for pending
// sandbox teardowns, then flushes logs.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	var shutdownErr error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown did not complete", zap.Error(err))
		shutdownErr = fmt.Errorf("failed to shut down http server: %w", err)
	}

	s.orchestrator.Wait()
	s.logger.Info("Pending teardowns finished")

	s.tracer.Close()
	_ = s.logger.Sync()
	return shutdownErr
}
