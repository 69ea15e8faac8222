package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ObservabilityMiddleware counts and times every request by route template and method.
// Routes listed in untraced (probes, the scrape path) are measured but get no span.
// ObservabilityMiddleware 按路由模板统计请求；探针与抓取路径不生成 span。
func ObservabilityMiddleware(
	tracer trace.Tracer,
	requests *prometheus.CounterVec,
	duration *prometheus.HistogramVec,
	untraced ...string,
) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(untraced))
	for _, p := range untraced {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = "not_found"
		}

		var span trace.Span
		if _, quiet := skip[route]; !quiet {
			var ctx = c.Request.Context()
			ctx, span = tracer.Start(ctx, c.Request.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()

		status := c.Writer.Status()
		requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())

		if span == nil {
			return
		}
		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		span.End()
	}
}

//Personal.AI order the ending
