// Package serverlite runs the whole service in a single process with
// in-memory backends. E2E tests and demos get the real pipeline, handlers
// and middleware without postgres, redis, kafka or vault: quota counters
// live in process memory, the audit trail in an in-memory sqlite database
// and tenants come from a static seed list.
package serverlite

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appservice "github.com/rampartlabs/rampart/internal/application/service"
	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/repository"
	domainService "github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/internal/infrastructure/audit"
	"github.com/rampartlabs/rampart/internal/infrastructure/crypto"
	"github.com/rampartlabs/rampart/internal/infrastructure/quota"
	"github.com/rampartlabs/rampart/internal/infrastructure/session"
	"github.com/rampartlabs/rampart/internal/interfaces/http/handlers"
	"github.com/rampartlabs/rampart/internal/interfaces/http/middleware"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
	"github.com/rampartlabs/rampart/pkg/rules"
)

// Config seeds the lite server.
type Config struct {
	Addr string

	// AuditSigningKey signs trail records. Required.
	AuditSigningKey []byte

	// AdminJWTSecret enables the admin plane when non-empty.
	AdminJWTSecret string

	// SessionTTL overrides the default handshake lifetime.
	SessionTTL time.Duration

	// Tenants is the static tenant set available at startup. The admin
	// plane can provision more at runtime; they live until the process
	// exits.
	Tenants []SeedTenant

	// Log receives request and pipeline logs. Nil keeps the server silent.
	Log logger.Logger
}

// Server is the single-process edition of the service.
type Server struct {
	HTTPServer *http.Server

	engine     *gin.Engine
	auditTrail repository.AuditRepository
	sessions   *session.MemoryStore
	adminToken *crypto.AdminTokenManager
}

// NewServer assembles the full pipeline over in-memory backends.
func NewServer(cfg Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	log := cfg.Log
	if log == nil {
		log = logger.NewNoopLogger()
	}

	signer, appErr := audit.NewSigner(cfg.AuditSigningKey)
	if appErr != nil {
		return nil, appErr
	}

	// A named in-memory database keeps gorm's pooled connections on one
	// store while isolating concurrent server instances from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.ErrConfiguration.WithError(err).WithDescription("cannot open in-memory audit store")
	}
	if err := db.AutoMigrate(&models.AuditRecord{}); err != nil {
		return nil, errors.ErrConfiguration.WithError(err).WithDescription("cannot migrate audit store")
	}
	auditTrail := audit.NewGormStore(db, log)
	auditService := audit.NewService(signer, auditTrail, nil, nil, log)

	tenantRepo := newMemoryTenantRepo()
	for _, seed := range cfg.Tenants {
		if err := tenantRepo.seed(seed); err != nil {
			return nil, err
		}
	}

	detectors := domainService.NewDefaultDetectors(rules.DefaultSet())
	aggregator := domainService.NewRiskAggregator(domainService.DefaultScoringConfig(), log)
	scoringService := domainService.NewScoringService(detectors, aggregator, nil, log)
	policyEngine := domainService.NewPolicyEngine(log)
	quotaService := quota.NewService(quota.NewMemoryQuotaStore(), nil, log)

	sessions := session.NewMemoryStore()
	sealer := session.NewAESSealer()

	analysisService := appservice.NewAnalysisAppService(quotaService, scoringService, policyEngine, auditService, nil, log)
	sessionService := appservice.NewSessionAppService(sessions, sealer, analysisService, nil, cfg.SessionTTL, log)
	usageService := appservice.NewUsageAppService(quotaService, log)

	s := &Server{
		engine:     gin.New(),
		auditTrail: auditTrail,
		sessions:   sessions,
	}

	s.engine.Use(gin.Recovery(), middleware.RequestID())
	if cfg.Log != nil {
		s.engine.Use(middleware.AccessLog(log))
	}

	healthHandler := handlers.NewHealthHandler(log)
	s.engine.GET(constants.DefaultLivenessCheckPath, healthHandler.LivenessCheck)
	s.engine.GET(constants.DefaultReadinessCheckPath, healthHandler.ReadinessCheck)

	analyzeHandler := handlers.NewAnalyzeHandler(analysisService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	usageHandler := handlers.NewUsageHandler(usageService)

	v1 := s.engine.Group(constants.APIVersionPrefix)

	data := v1.Group("")
	data.Use(middleware.APIKeyAuth(tenantRepo, auditService, log))
	data.POST("/analyze", analyzeHandler.Analyze)
	data.GET("/usage", usageHandler.Usage)
	data.POST("/session/handshake", sessionHandler.Handshake)
	data.POST("/session/close", sessionHandler.Close)
	data.POST("/secure/analyze", sessionHandler.SecureAnalyze)

	if cfg.AdminJWTSecret != "" {
		manager, appErr := crypto.NewAdminTokenManager(cfg.AdminJWTSecret, 0, log)
		if appErr != nil {
			return nil, appErr
		}
		s.adminToken = manager

		tenantService := appservice.NewTenantAppService(tenantRepo, quotaService, log)
		tenantHandler := handlers.NewTenantHandler(tenantService)

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminJWTAuth(manager, log))
		admin.POST("/tenants", tenantHandler.Create)
		admin.GET("/tenants", tenantHandler.List)
		admin.GET("/tenants/:tenant_id", tenantHandler.Get)
		admin.PUT("/tenants/:tenant_id", tenantHandler.Update)
		admin.DELETE("/tenants/:tenant_id", tenantHandler.Delete)
		admin.POST("/tenants/:tenant_id/quota/reset", tenantHandler.ResetQuota)
	}

	s.HTTPServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.engine,
	}
	return s, nil
}

// Start runs the server in a goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.HTTPServer.Shutdown(ctx)
}

// Engine exposes the router so tests can serve requests without a listener.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// AuditTrail exposes the trail store so tests can verify written records.
func (s *Server) AuditTrail() repository.AuditRepository {
	return s.auditTrail
}

// ActiveSessions reports the live session count.
func (s *Server) ActiveSessions() int {
	return s.sessions.Count()
}

// AdminToken issues a bearer token for the admin plane. Returns an error
// when the server was built without an admin secret.
func (s *Server) AdminToken(ctx context.Context) (string, error) {
	if s.adminToken == nil {
		return "", errors.ErrConfiguration.WithDescription("admin plane is disabled")
	}
	token, _, appErr := s.adminToken.Issue(ctx)
	if appErr != nil {
		return "", appErr
	}
	return token, nil
}
