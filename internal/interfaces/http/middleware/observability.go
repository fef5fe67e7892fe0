package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/rampartlabs/rampart/internal/infrastructure/monitoring"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// Observability returns a Gin middleware that ties each request into the
// Prometheus and OpenTelemetry pipelines. It opens a server span continuing
// any inbound trace context, tracks in-flight requests, and records latency
// and error counters per route template.
// Observability 返回一个将每个请求接入 Prometheus 与 OpenTelemetry 的 Gin
// 中间件。它延续入站跟踪上下文开启服务端 span，跟踪在途请求，并按路由模板
// 记录时延与错误计数。
func Observability(metrics *monitoring.Metrics, tracer trace.Tracer) gin.HandlerFunc {
	propagator := propagation.TraceContext{}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, method+" "+path,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		if metrics != nil {
			metrics.ActiveRequestsInc(path, method)
		}

		c.Next()

		status := c.Writer.Status()
		if metrics != nil {
			metrics.ActiveRequestsDec(path, method)
			metrics.ObserveRequestDuration(path, method, status, time.Since(start).Seconds())
			if status >= 400 {
				metrics.IncRequestErrors(path, method, status)
			}
		}

		span.SetAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
			attribute.Int("http.status_code", status),
			attribute.String("http.client_ip", c.ClientIP()),
		)
	}
}

// AccessLog returns a Gin middleware that writes one structured line per
// completed request. Credentials never appear: only method, route, status
// and latency are logged.
func AccessLog(log logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	log = log.WithComponent("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info(c.Request.Context(), "Request processed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Int64("latency_ms", time.Since(start).Milliseconds()),
			logger.String("client_ip", c.ClientIP()))
	}
}
