package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/classquotes/internal/platform/logging"
)

// TraceContext adds the active trace id to the context logger. It must run
// after the otelgin middleware.
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := trace.SpanFromContext(c.Request.Context()).SpanContext()
		if sc.HasTraceID() {
			ctx := logging.WithTraceID(c.Request.Context(), sc.TraceID().String())
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

// Logging writes one access log line per request. Operational routes
// under /-/ are skipped.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/-/") {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.String("path", c.Request.URL.Path),
			slog.String("query", c.Request.URL.RawQuery),
			slog.Int("status", status),
			slog.Int64("latency_ms", latency.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		}

		// Claims are only present on routes guarded by Authorize.
		if claims := GetClaims(c); claims != nil && claims.Subject != "" {
			attrs = append(attrs, slog.String("subject", claims.Subject))
		}

		logging.FromContext(c.Request.Context()).Log(c.Request.Context(), level, "request completed", attrs...)
	}
}
