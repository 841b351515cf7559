package bootstrap

import (
	"net/http"

	"github.com/go-authgate/dirgate/internal/config"
	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/directory"
	"github.com/go-authgate/dirgate/internal/metrics"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// backendFactory builds the directory backend for an application
type backendFactory func(*config.Config, *zap.Logger, core.Recorder) (core.Backend, error)

// Application holds all initialized components
type Application struct {
	Config *config.Config
	Logger *zap.Logger

	// Core infrastructure
	MetricsRecorder metrics.Recorder
	Directory       *Directory

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// New validates cfg and wires every component without starting anything
func New(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	return newApplication(cfg, logger, directory.Init)
}

func newApplication(
	cfg *config.Config,
	logger *zap.Logger,
	newBackend backendFactory,
) (*Application, error) {
	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return nil, err
	}

	// Phase 2: Initialize infrastructure
	app.MetricsRecorder = initializeMetrics(cfg)

	// Phase 3: Initialize business layer
	var err error
	app.Directory, err = initializeDirectory(cfg, logger, app.MetricsRecorder, newBackend)
	if err != nil {
		return nil, err
	}

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application and serves until a shutdown signal arrives
func Run(cfg *config.Config, logger *zap.Logger) error {
	app, err := New(cfg, logger)
	if err != nil {
		return err
	}

	app.startWithGracefulShutdown()
	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(app.Directory)

	router, err := setupRouter(
		app.Config,
		app.Logger,
		app.HandlerSet,
		app.Directory,
		app.MetricsRecorder,
	)
	if err != nil {
		return err
	}
	app.Router = router

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server, app.Logger)
	addServerShutdownJob(m, app.Server, app.Config, app.Logger)
	addLoggerSyncJob(m, app.Logger)

	<-m.Done()
}

// initializeMetrics returns the Prometheus recorder or a noop one
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	return metrics.Init(cfg.MetricsEnabled)
}
