package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jsamuelsen/classquotes/telemetry"

// HeaderTraceID exposes the trace id to callers for support requests.
const HeaderTraceID = "X-Trace-ID"

type serverMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	active   metric.Int64UpDownCounter
}

func newServerMetrics() (*serverMetrics, error) {
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &serverMetrics{duration: duration, total: total, active: active}, nil
}

// Middleware returns the otelgin tracing handler followed by a handler that
// records request metrics and sets the X-Trace-ID response header.
func Middleware(serviceName string) []gin.HandlerFunc {
	m, err := newServerMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		func(c *gin.Context) {
			start := time.Now()
			ctx := c.Request.Context()

			if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
				c.Header(HeaderTraceID, sc.TraceID().String())
			}

			if m == nil {
				c.Next()
				return
			}

			routeAttrs := metric.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", c.FullPath()),
			)

			m.active.Add(ctx, 1, routeAttrs)
			defer m.active.Add(ctx, -1, routeAttrs)

			c.Next()

			attrs := metric.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", c.FullPath()),
				attribute.Int("http.status_code", c.Writer.Status()),
			)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.total.Add(ctx, 1, attrs)
		},
	}
}
