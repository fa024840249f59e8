package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lucidide/backend/internal/api/middleware"
	"github.com/lucidide/backend/internal/commands"
	"github.com/lucidide/backend/internal/domain/channel"
	apphttp "github.com/lucidide/backend/internal/http"
	"github.com/lucidide/backend/internal/infrastructure/config"
	"github.com/lucidide/backend/internal/infrastructure/monitoring"
	"github.com/lucidide/backend/internal/logging"
	"github.com/lucidide/backend/internal/providers/settings"
	"github.com/lucidide/backend/internal/providers/storage"
	"github.com/lucidide/backend/internal/ws"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	cfg      *config.Config
	log      *logging.Logger
	router   *gin.Engine
	manager  *channel.Manager
	registry *commands.Registry
	prefs    *settings.Provider
	metrics  *monitoring.Metrics
}

// New creates a fully wired server instance
func New(cfg *config.Config) (*Server, error) {
	logCfg := logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := storage.NewProvider(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}

	prefs := settings.NewProvider(cfg.Output.MaxChannelHistory)
	metrics := monitoring.NewMetrics()

	manager := channel.NewManager(prefs, store, log.Named("output"))
	manager.OnChannelAdded(func(*channel.Channel) {
		metrics.ChannelsCreated.Inc()
		metrics.ChannelsActive.Set(float64(len(manager.Channels())))
	})
	manager.OnChannelDeleted(func(string) {
		metrics.ChannelsActive.Set(float64(len(manager.Channels())))
	})

	registry := commands.NewRegistry()
	if err := commands.RegisterOutputCommands(registry, manager); err != nil {
		return nil, fmt.Errorf("failed to register output commands: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(monitoring.Middleware(metrics))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		router:   router,
		manager:  manager,
		registry: registry,
		prefs:    prefs,
		metrics:  metrics,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	handlers := apphttp.NewHandlers(s.manager, s.registry, s.prefs, s.metrics)
	wsHandler := ws.NewHandler(s.manager, s.metrics, s.log.Named("ws"))

	s.router.GET("/", handlers.Root)
	s.router.GET("/health", handlers.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Channel registry
	s.router.GET("/channels", handlers.ListChannels)
	s.router.POST("/channels", handlers.CreateChannel)
	s.router.GET("/channels/:name/lines", handlers.GetChannelLines)
	s.router.POST("/channels/:name/append", handlers.Append)
	s.router.POST("/channels/:name/clear", handlers.ClearChannel)
	s.router.POST("/channels/:name/select", handlers.SelectChannel)
	s.router.POST("/channels/:name/visibility", handlers.SetVisibility)
	s.router.POST("/channels/:name/lock", handlers.ToggleLock)
	s.router.DELETE("/channels/:name", handlers.DeleteChannel)

	// Commands
	s.router.GET("/commands", handlers.ListCommands)
	s.router.POST("/commands/execute", handlers.ExecuteCommand)

	// Settings
	s.router.GET("/settings/:key", handlers.GetSetting)
	s.router.PUT("/settings/:key", handlers.PutSetting)

	// Event stream
	s.router.GET("/stream", wsHandler.HandleConnection)
}

// Run restores persisted state and serves until the listener fails.
func (s *Server) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.manager.OnStart(ctx); err != nil {
		s.log.Warn("failed to restore output state", zap.Error(err))
	}

	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.log.Info("output channel service listening", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close persists state and releases manager resources.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.manager.OnStop(ctx)
	if err != nil {
		s.log.Error("failed to persist output state", zap.Error(err))
	}

	s.manager.Dispose()
	_ = s.log.Sync()
	return err
}

// Manager exposes the channel manager, mainly for tests and embedding.
func (s *Server) Manager() *channel.Manager {
	return s.manager
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
