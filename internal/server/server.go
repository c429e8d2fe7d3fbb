package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/inkwell-hq/inkwell/internal/config"
	"github.com/inkwell-hq/inkwell/internal/crawler"
	"github.com/inkwell-hq/inkwell/internal/generation"
	"github.com/inkwell-hq/inkwell/internal/platform"
	"github.com/inkwell-hq/inkwell/internal/queue"
	"github.com/inkwell-hq/inkwell/internal/service"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Pipeline
	Queue     queue.Queue
	Worker    *queue.Worker
	Scheduler *service.AutoPublishScheduler
	Crawls    *service.CrawlService
	Dashboard *service.DashboardService
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	pollInterval, err := time.ParseDuration(cfg.Worker.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid worker poll interval %q: %w", cfg.Worker.PollInterval, err)
	}
	crawlDelay, err := time.ParseDuration(cfg.Crawler.DefaultDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid crawler delay %q: %w", cfg.Crawler.DefaultDelay, err)
	}
	crawlTimeout, err := time.ParseDuration(cfg.Crawler.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid crawler timeout %q: %w", cfg.Crawler.Timeout, err)
	}

	// Capabilities
	genClient := generation.NewClient(&cfg.Generation, logger)

	registry := platform.NewRegistry(logger)
	if err := registry.Register(platform.NewWordPressAdapter(logger)); err != nil {
		return nil, err
	}
	if err := registry.Register(platform.NewShopifyAdapter(logger)); err != nil {
		return nil, err
	}

	// Pipeline
	store := queue.NewStore(db)
	worker := queue.NewWorker(store, logger, pollInterval, cfg.Worker.BatchSize)
	for _, handler := range []queue.Handler{
		service.NewScheduledPostHandler(db, store, logger),
		service.NewContentGenerationHandler(db, store, genClient, genClient, logger),
		service.NewPublishingHandler(db, registry, logger),
	} {
		if err := worker.Register(handler); err != nil {
			return nil, err
		}
	}

	scheduler := service.NewAutoPublishScheduler(&cfg.Scheduler, db, store, logger)
	crawls := service.NewCrawlService(db,
		crawler.New(logger, cfg.Crawler.UserAgent, crawlDelay, crawlTimeout), logger)
	dashboard := service.NewDashboardService(db, logger, time.Minute)

	// Create router
	router := gin.New()

	srv := &Server{
		Config:    cfg,
		DB:        db,
		Router:    router,
		Logger:    logger,
		Queue:     store,
		Worker:    worker,
		Scheduler: scheduler,
		Crawls:    crawls,
		Dashboard: dashboard,
	}

	srv.setupMiddleware()
	srv.setupRoutes(registry)

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) Start(ctx context.Context) error {
	if s.Config.Worker.Enabled {
		s.Worker.Start(ctx)
	} else {
		s.Logger.Info("Worker is disabled")
	}
	if err := s.Scheduler.Start(ctx); err != nil {
		return err
	}
	s.Dashboard.Start(ctx)

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.Config.Worker.Enabled {
		s.Worker.Stop()
	}
	s.Scheduler.Stop()
	s.Dashboard.Stop()

	if s.Server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return s.Server.Shutdown(shutdownCtx)
	}
	return nil
}
