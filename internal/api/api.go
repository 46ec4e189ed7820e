// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/speechlens/speechlens-go/internal/analysis"
	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/datastore"
	"github.com/speechlens/speechlens-go/internal/logging"
	"github.com/speechlens/speechlens-go/internal/observability"
	"github.com/speechlens/speechlens-go/internal/tts"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings
	Pipeline *analysis.Pipeline

	synthesizer    tts.Synthesizer
	analysisCache  *cache.Cache // read cache for analysis lookups
	logger         *slog.Logger
	apiLoggerClose func() error
	obs            *observability.Metrics
}

// New creates the controller, registers middleware and routes.
func New(settings *conf.Settings, ds datastore.Interface, pipeline *analysis.Pipeline,
	synthesizer tts.Synthesizer, obs *observability.Metrics) (*Controller, error) {
	logger := logging.ForService("api")
	if logger == nil {
		logger = slog.Default().With("service", "api")
	}

	fileLogger, closeFunc, err := logging.NewFileLogger("logs/api.log", "api", slog.LevelInfo)
	if err == nil {
		logger = fileLogger
	} else {
		closeFunc = func() error { return nil }
		logger.Warn("api file logger unavailable, using default", "error", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(bodyLimit(settings)))

	c := &Controller{
		Echo:           e,
		DS:             ds,
		Settings:       settings,
		Pipeline:       pipeline,
		synthesizer:    synthesizer,
		analysisCache:  cache.New(5*time.Minute, 10*time.Minute),
		logger:         logger,
		apiLoggerClose: closeFunc,
		obs:            obs,
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()

	return c, nil
}

func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.Group.POST("/analyses", c.UploadAndAnalyze)
	c.Group.GET("/analyses", c.ListAnalyses)
	c.Group.GET("/analyses/:id", c.GetAnalysis)
	c.Group.DELETE("/analyses/:id", c.DeleteAnalysis)

	c.Group.POST("/chat", c.Chat)
	c.Group.POST("/narrate", c.Narrate)

	if c.obs != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(c.obs.Registry(), promhttp.HandlerOpts{})))
	}
}

// Start runs the HTTP server until the context is canceled.
func (c *Controller) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         ":" + c.Settings.WebServer.Port,
		ReadTimeout:  c.Settings.WebServer.ReadTimeout,
		WriteTimeout: c.Settings.WebServer.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		c.logger.Info("http server starting", "port", c.Settings.WebServer.Port)
		errChan <- c.Echo.StartServer(server)
	}()

	select {
	case <-ctx.Done():
		return c.Shutdown()
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// Shutdown drains in-flight requests and closes the log writer.
func (c *Controller) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := c.Echo.Shutdown(shutdownCtx)
	if closeErr := c.apiLoggerClose(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func bodyLimit(settings *conf.Settings) string {
	limit := settings.WebServer.MaxUploadMB
	if limit <= 0 {
		limit = 256
	}
	return fmt.Sprintf("%dM", limit)
}
