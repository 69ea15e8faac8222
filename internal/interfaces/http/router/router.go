// Package router serves the operations endpoint of the engine: metrics, health and profiling.
package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/internal/infrastructure/monitoring"
	"github.com/turtacn/dataguard/internal/interfaces/http/handlers"
	"github.com/turtacn/dataguard/internal/interfaces/http/middleware"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/logger"
)

// Router HTTP 路由器
type Router struct {
	engine        *gin.Engine
	config        *config.MetricsConfig
	logger        logger.Logger
	metrics       *monitoring.Metrics
	healthHandler *handlers.HealthHandler
	server        *http.Server
}

// NewRouter 创建路由器并注册路由
func NewRouter(cfg *config.MetricsConfig, metrics *monitoring.Metrics, healthHandler *handlers.HealthHandler, log logger.Logger) *Router {
	// 设置 Gin 模式
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:        gin.New(),
		config:        cfg,
		logger:        log.WithComponent("Router"),
		metrics:       metrics,
		healthHandler: healthHandler,
	}
	r.setupRoutes()
	return r
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	path := r.config.Path
	if path == "" {
		path = "/metrics"
	}

	// 全局中间件；探针和抓取请求只计数不追踪
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.ObservabilityMiddleware(
		otel.Tracer(constants.ServiceName),
		r.metrics.HTTPRequestsTotal,
		r.metrics.HTTPRequestDuration,
		"/health/live", "/health/ready", path,
	))

	// 健康检查路由
	r.engine.GET("/health/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/health/ready", r.healthHandler.ReadinessCheck)

	// Prometheus metrics
	r.engine.GET(path, gin.WrapH(r.metrics.Handler()))

	// Pprof 性能分析（仅在显式开启时）
	if r.config.PprofEnabled {
		pprof.Register(r.engine)
	}

	// 404 处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// Run serves on the configured address until ctx is cancelled, then shuts down gracefully.
func (r *Router) Run(ctx context.Context) error {
	r.server = &http.Server{
		Addr:              r.config.Address,
		Handler:           r.engine,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info(ctx, "Starting operations server", logger.String("address", r.config.Address))
		if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	r.logger.Info(context.Background(), "Shutting down operations server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.server.Shutdown(shutdownCtx); err != nil {
		r.logger.Error(context.Background(), "Server forced to shutdown", err)
		return err
	}
	r.logger.Info(context.Background(), "Operations server stopped")
	return nil
}

// Engine exposes the gin engine, mainly for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

//Personal.AI order the ending
