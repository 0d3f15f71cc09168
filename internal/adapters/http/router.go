package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/classquotes/internal/adapters/http/dto"
	"github.com/jsamuelsen/classquotes/internal/adapters/http/handlers"
	"github.com/jsamuelsen/classquotes/internal/adapters/http/middleware"
	"github.com/jsamuelsen/classquotes/internal/platform/config"
	"github.com/jsamuelsen/classquotes/internal/platform/telemetry"
)

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	AppConfig *config.AppConfig

	// AuthConfig and Authorizer gate the write routes. Either may be nil,
	// which leaves the routes open.
	AuthConfig *config.AuthConfig
	Authorizer *middleware.Authorizer

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler

	// Timeout is the per-request deadline on /api routes. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - extract or generate, seed the context logger
//  3. OpenTelemetry - server span and HTTP metrics
//  4. Trace context - add trace_id to the context logger
//  5. Logging - one line per request (skips /-/ routes)
//
// Route groups:
//   - /-/ (operational): liveness, readiness, build info, metrics
//   - /api (public API): quote board, with request deadline and write guard
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	serviceName := "classquotes"
	if cfg.AppConfig != nil && cfg.AppConfig.Name != "" {
		serviceName = cfg.AppConfig.Name
	}

	engine.HandleMethodNotAllowed = true
	engine.Use(middleware.Recovery(), middleware.RequestID())
	engine.Use(telemetry.Middleware(serviceName)...)
	engine.Use(middleware.TraceContext(), middleware.Logging())

	engine.NoRoute(func(c *gin.Context) {
		dto.RespondWithErrorCode(c, dto.ErrorCodeNotFound, "route not found")
	})
	engine.NoMethod(func(c *gin.Context) {
		dto.RespondWithErrorCode(c, dto.ErrorCodeMethodDenied, "method not allowed")
	})

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutes(engine.Group("/-"))
	}

	api := engine.Group("/api")

	if cfg.Timeout > 0 {
		api.Use(middleware.Timeout(cfg.Timeout))
	}

	if cfg.QuoteHandler != nil {
		guard := middleware.Authorize(cfg.Authorizer, cfg.AuthConfig,
			middleware.ResourceQuotes, middleware.ActionWrite)
		cfg.QuoteHandler.RegisterQuoteRoutes(api, guard)
	}
}
