// Package server assembles the BFF gin engine and runs it.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/erp/quotedesk/internal/application/smartquote"
	"github.com/erp/quotedesk/internal/infrastructure/config"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/erp/quotedesk/internal/infrastructure/telemetry"
	"github.com/erp/quotedesk/internal/interfaces/http/handler"
	"github.com/erp/quotedesk/internal/interfaces/http/middleware"
	"github.com/erp/quotedesk/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShutdownTimeout bounds the graceful shutdown of Run
const ShutdownTimeout = 30 * time.Second

// Deps are the components served by the engine
type Deps struct {
	Config       config.ServerConfig
	ServiceName  string
	Version      string
	Logger       *zap.Logger
	Metrics      *telemetry.Metrics
	Quotes       handler.QuoteService
	Documents    handler.DocumentRenderer // nil disables document endpoints
	Intelligence smartquote.Gateway
}

// NewEngine builds the gin engine with the middleware stack and all routes
func NewEngine(d Deps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if d.ServiceName == "" {
		d.ServiceName = "quotedesk"
	}

	engine := gin.New()

	// Order matters: the request ID must exist before logging and tracing,
	// and the token must be in the context before any handler calls out.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(d.ServiceName))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.Metrics(d.Metrics))

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = d.Config.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.TokenPassthrough())

	engine.GET("/health", handler.NewSystemHandler(d.ServiceName, d.Version).Health)
	if d.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	quotes := handler.NewQuoteHandler(d.Quotes, d.Documents)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.QuoteRoutes(quotes))
	r.Register(handler.LocalOrderRoutes(quotes))
	if d.Intelligence != nil {
		r.Register(handler.SmartQuoteRoutes(handler.NewSmartQuoteHandler(d.Intelligence, log)))
	}
	r.Setup()

	return engine
}

// Run serves handler on cfg.Port until ctx is cancelled, then shuts down
// gracefully
func Run(ctx context.Context, cfg config.ServerConfig, h http.Handler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exited")
	return nil
}
