// Package server wires the tracker's components together: storage,
// the recording and replay state machine, the pattern detector and its
// workers, and the HTTP/websocket surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/deskpilot/deskpilot/internal/api/http"
	"github.com/deskpilot/deskpilot/internal/api/middleware"
	"github.com/deskpilot/deskpilot/internal/api/ws"
	"github.com/deskpilot/deskpilot/internal/capture"
	"github.com/deskpilot/deskpilot/internal/domain/automation"
	"github.com/deskpilot/deskpilot/internal/domain/patterns"
	"github.com/deskpilot/deskpilot/internal/domain/suggestions"
	"github.com/deskpilot/deskpilot/internal/infrastructure/config"
	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/infrastructure/monitoring"
	"github.com/deskpilot/deskpilot/internal/infrastructure/scheduler"
	"github.com/deskpilot/deskpilot/internal/infrastructure/storage"
	"github.com/deskpilot/deskpilot/internal/shared/blackboard"
)

// Server wraps the HTTP server and dependencies.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	db       *storage.Database
	store    *automation.Store
	detector *patterns.Detector
	workers  []*scheduler.Worker
}

// Option overrides a default collaborator before wiring.
type Option func(*options)

type options struct {
	injector capture.Injector
	sampler  capture.ScreenSampler
	clock    scheduler.Clock
}

// WithInjector replaces the replay injection sink. The default logs
// steps without touching the desktop.
func WithInjector(i capture.Injector) Option {
	return func(o *options) { o.injector = i }
}

// WithSampler adds a polling screen sampler. Without one, activity
// samples arrive only through the ingest API.
func WithSampler(s capture.ScreenSampler) Option {
	return func(o *options) { o.sampler = s }
}

// WithClock replaces the wall clock, for tests.
func WithClock(c scheduler.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New creates a fully wired server instance.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing activity tracker",
		zap.String("port", cfg.Server.Port),
		zap.String("data_dir", cfg.Data.Dir),
	)

	o := options{injector: &capture.NopInjector{Logger: logger}, clock: scheduler.Real()}
	for _, opt := range opts {
		opt(&o)
	}

	for _, dir := range []string{cfg.Data.Dir, cfg.SuggestionDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	metrics := monitoring.NewMetrics()

	db, err := storage.New(cfg.Database(), logger)
	if err != nil {
		return nil, err
	}

	store, err := automation.NewStore(cfg.AutomationDir(), logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	board := blackboard.New()
	gate := &automation.Gate{}
	feed := capture.NewFeed()

	hub := ws.NewHub(logger).WithMetrics(metrics)

	sugg := suggestions.NewManager(cfg.SuggestionDir(), o.clock, logger).
		WithStore(db).
		WithMetrics(metrics)
	sugg.SetNotifier(hub.BroadcastSuggestions)

	detector := patterns.NewDetector(cfg.Detector, cfg.SuggestionDir(), board, sugg, o.clock, logger).
		WithMetrics(metrics)

	recorder := automation.NewRecorder(feed, store, board, gate, o.clock, logger).
		WithMetrics(metrics)
	player := automation.NewPlayer(store, o.injector, gate, o.clock, logger, cfg.Replay.DefaultStepDelay).
		WithMetrics(metrics).
		WithExecutionSink(db)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(recorder, player, store, sugg, detector, board, feed, db, logger).
		WithHub(hub)
	handlers.Register(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s := &Server{
		router:   router,
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		db:       db,
		store:    store,
		detector: detector,
	}
	s.workers = []*scheduler.Worker{
		{
			Name:     "analysis",
			Interval: cfg.Detector.AnalysisInterval,
			Clock:    o.clock,
			Logger:   logger,
			Fn: func(ctx context.Context) error {
				detector.Observe()
				return detector.AnalyzeCycle()
			},
		},
		{
			Name:     "time-check",
			Interval: cfg.Detector.TimeCheckInterval,
			Clock:    o.clock,
			Logger:   logger,
			Fn: func(ctx context.Context) error {
				detector.TimeCheck()
				return nil
			},
		},
		{
			Name:     "retention",
			Interval: cfg.Retention.CleanupInterval,
			Clock:    o.clock,
			Logger:   logger,
			Fn: func(ctx context.Context) error {
				maxAge := time.Duration(cfg.Retention.KeepHistoryDays) * 24 * time.Hour
				if _, err := db.CleanupOlderThan(o.clock.Now().Add(-maxAge)); err != nil {
					return err
				}
				if cfg.Retention.ArchiveSnapshots {
					if _, err := sugg.ArchiveOld(maxAge); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
	if o.sampler != nil {
		s.workers = append(s.workers, &scheduler.Worker{
			Name:     "sampler",
			Interval: cfg.Capture.SampleInterval,
			Clock:    o.clock,
			Logger:   logger,
			Fn: func(ctx context.Context) error {
				sample, err := o.sampler.Sample(ctx)
				if err != nil {
					return err
				}
				if sample.Timestamp.IsZero() {
					sample.Timestamp = o.clock.Now()
				}
				previous := board.ActiveWindow()
				board.UpdateActivity(sample)
				if previous != sample.Window {
					if _, err := db.LogActivity("window_change", sample.Window, "", sample.Timestamp); err != nil {
						return err
					}
				}
				return nil
			},
		})
	}

	logger.Info("Server initialized")
	return s, nil
}

// Run starts the workers and the HTTP server, blocking until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	for _, w := range s.workers {
		w.Start(workerCtx)
	}

	addr := s.config.Server.Host + ":" + s.config.Server.Port
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stopWorkers()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
	}

	stopWorkers()
	for _, w := range s.workers {
		w.Wait()
	}
	return s.Close()
}

// Close flushes pattern state and closes the database. Best effort;
// the first error is returned after everything has been attempted.
func (s *Server) Close() error {
	var firstErr error
	if err := s.detector.SaveState(); err != nil {
		s.logger.Error("Failed to save pattern state", zap.Error(err))
		firstErr = err
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	s.logger.Info("Server stopped")
	return firstErr
}
