// Package http assembles the Gin engine, routes and server lifecycle for the
// risk mitigation service.
package http

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rampartlabs/rampart/internal/application/dto"
	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/internal/interfaces/http/handlers"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// Router wires handlers and middleware into the HTTP engine and owns the
// server lifecycle.
type Router struct {
	engine *gin.Engine
	config *config.Config
	logger logger.Logger
	server *http.Server

	healthHandler  *handlers.HealthHandler
	analyzeHandler *handlers.AnalyzeHandler
	sessionHandler *handlers.SessionHandler
	usageHandler   *handlers.UsageHandler
	tenantHandler  *handlers.TenantHandler

	authMiddleware  gin.HandlerFunc
	adminMiddleware gin.HandlerFunc
	baseMiddleware  []gin.HandlerFunc
}

// NewRouter creates the router. baseMiddleware runs on every route in order,
// ahead of authentication.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	healthHandler *handlers.HealthHandler,
	analyzeHandler *handlers.AnalyzeHandler,
	sessionHandler *handlers.SessionHandler,
	usageHandler *handlers.UsageHandler,
	tenantHandler *handlers.TenantHandler,
	authMiddleware gin.HandlerFunc,
	adminMiddleware gin.HandlerFunc,
	baseMiddleware ...gin.HandlerFunc,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	return &Router{
		engine:          engine,
		config:          cfg,
		logger:          log.WithComponent("http_router"),
		healthHandler:   healthHandler,
		analyzeHandler:  analyzeHandler,
		sessionHandler:  sessionHandler,
		usageHandler:    usageHandler,
		tenantHandler:   tenantHandler,
		authMiddleware:  authMiddleware,
		adminMiddleware: adminMiddleware,
		baseMiddleware:  baseMiddleware,
	}
}

// SetupRoutes registers middleware and every route group.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	for _, mw := range r.baseMiddleware {
		r.engine.Use(mw)
	}

	if len(r.config.Server.AllowedOrigins) > 0 {
		corsConfig := cors.Config{
			AllowOrigins: r.config.Server.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{
				"Origin", "Content-Type",
				constants.HeaderAuthorization,
				constants.HeaderAPIKey,
				constants.HeaderAPISecret,
				constants.HeaderRequestID,
			},
			ExposeHeaders: []string{constants.HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}
		r.engine.Use(cors.New(corsConfig))
	}

	// Operational probes stay outside the authenticated planes.
	r.engine.GET(constants.DefaultLivenessCheckPath, r.healthHandler.LivenessCheck)
	r.engine.GET(constants.DefaultReadinessCheckPath, r.healthHandler.ReadinessCheck)

	if r.config.Monitoring.MetricsEnabled {
		r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	if r.config.Monitoring.PprofEnabled {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group(constants.APIVersionPrefix)
	{
		// Tenant data plane, authenticated by API key and secret.
		data := v1.Group("")
		data.Use(r.authMiddleware)
		{
			data.POST("/analyze", r.analyzeHandler.Analyze)
			data.GET("/usage", r.usageHandler.Usage)
			data.POST("/session/handshake", r.sessionHandler.Handshake)
			data.POST("/session/close", r.sessionHandler.Close)
			data.POST("/secure/analyze", r.sessionHandler.SecureAnalyze)
		}

		// Administrative plane, guarded by the admin bearer token.
		admin := v1.Group("/admin")
		admin.Use(r.adminMiddleware)
		{
			admin.POST("/tenants", r.tenantHandler.Create)
			admin.GET("/tenants", r.tenantHandler.List)
			admin.GET("/tenants/:tenant_id", r.tenantHandler.Get)
			admin.PUT("/tenants/:tenant_id", r.tenantHandler.Update)
			admin.DELETE("/tenants/:tenant_id", r.tenantHandler.Delete)
			admin.POST("/tenants/:tenant_id/quota/reset", r.tenantHandler.ResetQuota)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound,
			dto.ErrorResponse(errors.ErrNotFound.WithDescription("no such route"), ""))
	})
}

// Start sets up routes and serves until shutdown.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    r.config.Server.ReadTimeout,
		WriteTimeout:   r.config.Server.WriteTimeout,
		IdleTimeout:    r.config.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", addr))

	go r.gracefulShutdown()

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// gracefulShutdown drains in-flight requests on SIGINT or SIGTERM.
func (r *Router) gracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	r.logger.Info(context.Background(), "Shutting down HTTP server")

	timeout := r.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = constants.DefaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := r.server.Shutdown(ctx); err != nil {
		r.logger.Error(context.Background(), "Server forced to shutdown", err)
	}

	r.logger.Info(context.Background(), "HTTP server stopped")
}

// Stop shuts the server down without waiting for a signal.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}

	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}

// Engine exposes the underlying engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
