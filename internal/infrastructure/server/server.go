package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/yadavnikhil03/scrcpy-gui/internal/api/http"
	"github.com/yadavnikhil03/scrcpy-gui/internal/api/middleware"
	"github.com/yadavnikhil03/scrcpy-gui/internal/api/ws"
	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator/installer"
	"github.com/yadavnikhil03/scrcpy-gui/internal/discovery"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/control"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
	"github.com/yadavnikhil03/scrcpy-gui/internal/events"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/config"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/logging"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/monitoring"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/tracing"
	"github.com/yadavnikhil03/scrcpy-gui/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	http       *http.Server
	router     *gin.Engine
	controller *control.Controller
	cli        *collaborator.CLI
	bus        *events.Bus
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing scrcpy-gui daemon",
		zap.String("addr", cfg.Addr()),
		zap.String("state", cfg.State.Path),
		zap.String("bin_dir", cfg.Collaborator.BinDir),
	)

	kv, err := store.Open(cfg.State.Path)
	if err != nil {
		return nil, err
	}

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("scrcpy-gui", logger.Component("tracing"))
	bus := events.NewBus(logger.Component("events"))

	sessions := collaborator.NewSessions(bus, logger.Component("sessions"))
	cli := collaborator.NewCLI(
		collaborator.NewResolver(cfg.Collaborator.BinDir),
		collaborator.ExecRunner{},
		sessions,
		bus,
		logger.Component("collaborator"),
	).
		WithMetrics(metrics).
		WithConnectTimeout(cfg.Collaborator.ConnectTimeout).
		WithVideosDir(settings.VideosDir)

	deps := control.Deps{
		Collaborator: cli,
		Bus:          bus,
		Store:        kv,
		Metrics:      metrics,
		Installer: installer.New(bus, installer.Options{
			APIURL:    cfg.Installer.ReleaseAPI,
			LatestURL: cfg.Installer.ReleasePage,
			Dir:       cfg.Installer.InstallDir,
		}, logger.Component("installer")),
	}
	if cfg.Discovery.MDNSEnabled {
		deps.Scanner = discovery.New(cfg.Discovery.MDNSTimeout, logger.Component("discovery"))
		logger.Info("mDNS discovery enabled", zap.Duration("window", cfg.Discovery.MDNSTimeout))
	}

	ctl := control.New(deps, control.Options{
		RefreshInterval: cfg.Discovery.RefreshInterval,
	}, logger.Component("control"))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.Server.CORSOrigins
	router.Use(middleware.CORS(cors))
	router.Use(middleware.Guard(cfg.Server.CORSOrigins))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	apihttp.NewHandlers(ctl, logger.Component("api")).
		WithTimeout(cfg.Collaborator.CommandTimeout).
		Register(router)

	wsHandler := ws.NewHandler(ctl.Logs(), bus, logger.Component("ws")).
		WithMetrics(metrics).
		WithOrigins(cfg.Server.CORSOrigins)
	router.GET("/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(monitoring.Handler(metrics)))

	logger.Info("Server initialized successfully")

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router:     router,
		controller: ctl,
		cli:        cli,
		bus:        bus,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Controller returns the orchestrating controller.
func (s *Server) Controller() *control.Controller {
	return s.controller
}

// Run starts the controller and serves HTTP until Shutdown.
func (s *Server) Run(ctx context.Context) error {
	if err := s.controller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start controller: %w", err)
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, stops the controller and terminates
// running sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
	}

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		errs = append(errs, err)
	}

	s.controller.Close()
	if err := s.cli.Close(); err != nil {
		s.logger.Error("Failed to stop sessions", zap.Error(err))
		errs = append(errs, err)
	}
	s.tracer.Close()

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
