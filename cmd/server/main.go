package main

import (
	"context"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appservice "github.com/rampartlabs/rampart/internal/application/service"
	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/repository"
	domainservice "github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/internal/infrastructure/audit"
	"github.com/rampartlabs/rampart/internal/infrastructure/crypto"
	"github.com/rampartlabs/rampart/internal/infrastructure/monitoring"
	"github.com/rampartlabs/rampart/internal/infrastructure/persistence/postgres"
	"github.com/rampartlabs/rampart/internal/infrastructure/persistence/redis"
	"github.com/rampartlabs/rampart/internal/infrastructure/quota"
	"github.com/rampartlabs/rampart/internal/infrastructure/secrets"
	"github.com/rampartlabs/rampart/internal/infrastructure/session"
	"github.com/rampartlabs/rampart/internal/interfaces/http"
	"github.com/rampartlabs/rampart/internal/interfaces/http/handlers"
	"github.com/rampartlabs/rampart/internal/interfaces/http/middleware"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
	"github.com/rampartlabs/rampart/pkg/rules"
)

func main() {
	ctx := context.Background()

	// Load config; validation runs inside the loader.
	cfg, appErr := config.LoadConfig()
	if appErr != nil {
		log.Fatalf("Failed to load config: %v", appErr)
	}

	// Initialize logger
	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Initialize metrics and tracing
	metrics := monitoring.NewMetrics()
	metricsAdapter := monitoring.NewMetricsAdapter(metrics)

	tracing, err := monitoring.NewTracingManager(&cfg.Monitoring, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize tracing", err)
	}
	defer func() {
		if err := tracing.Shutdown(context.Background()); err != nil {
			appLogger.Error(context.Background(), "Tracing shutdown failed", err)
		}
	}()

	// Initialize database
	db, appErr := postgres.NewDBConnection(ctx, &cfg.Database, appLogger)
	if appErr != nil {
		appLogger.Fatal(ctx, "Failed to connect to database", appErr)
	}
	defer db.Close()
	if appErr := db.Migrate(ctx); appErr != nil {
		appLogger.Fatal(ctx, "Failed to migrate database schema", appErr)
	}

	// Tenant repository and quota store. Redis comes up only when the quota
	// driver asks for it; the tenant cache rides on the same connection.
	var tenantRepo repository.TenantRepository = postgres.NewTenantRepository(db.Gorm(), appLogger)
	var quotaStore domainservice.QuotaStore
	var redisConn *redis.RedisConnection
	if cfg.Quota.Driver == "redis" {
		redisConn = redis.NewRedisConnection(&cfg.Redis, appLogger)
		if appErr := redisConn.Connect(); appErr != nil {
			appLogger.Fatal(ctx, "Failed to connect to Redis", appErr)
		}
		defer redisConn.Close()

		quotaStore = quota.NewRedisQuotaStore(redisConn.GetClient(), appLogger)
		cache := redis.NewCacheManager(redisConn.GetClient(), appLogger)
		tenantRepo = redis.NewCachedTenantRepository(
			tenantRepo, cache, constants.TenantConfigCacheTTL, metricsAdapter, appLogger)
	} else {
		quotaStore = quota.NewMemoryQuotaStore()
	}

	// Detector rule source. The watcher swaps rule sets in place on file
	// change; detectors pick up the new set on their next call.
	var ruleSource rules.Source
	switch {
	case cfg.Detector.RulesPath != "" && cfg.Detector.WatchRules:
		watcher, appErr := config.NewRulesWatcher(cfg.Detector.RulesPath, nil, appLogger)
		if appErr != nil {
			appLogger.Fatal(ctx, "Failed to load rule file", appErr)
		}
		go func() {
			if err := watcher.Start(ctx); err != nil {
				appLogger.Error(ctx, "Rules watcher stopped", err)
			}
		}()
		defer watcher.Stop()
		ruleSource = watcher
	case cfg.Detector.RulesPath != "":
		set, err := rules.LoadFile(cfg.Detector.RulesPath)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to load rule file", err)
		}
		ruleSource = set
	default:
		ruleSource = rules.DefaultSet()
	}

	// Domain services
	detectors := []domainservice.Detector{
		domainservice.NewPIIDetector(ruleSource),
		domainservice.NewBiasDetectorWithDensity(ruleSource, cfg.Detector.BiasDensityFactor),
		domainservice.NewAdversarialDetector(ruleSource),
		domainservice.NewHallucinationDetector(ruleSource),
	}
	aggregator := domainservice.NewRiskAggregator(scoringConfig(&cfg.Risk), appLogger)
	scoringService := domainservice.NewScoringService(detectors, aggregator, metricsAdapter, appLogger)
	policyEngine := domainservice.NewPolicyEngine(appLogger)
	quotaService := quota.NewService(quotaStore, metricsAdapter, appLogger)

	// Resolve secrets; Vault when enabled, static config values otherwise.
	var provider domainservice.SecretsProvider
	if cfg.Vault.Enabled {
		vaultProvider, appErr := secrets.NewVaultProvider(cfg.Vault, metricsAdapter, appLogger)
		if appErr != nil {
			appLogger.Fatal(ctx, "Failed to create Vault client", appErr)
		}
		provider = secrets.NewCachedProvider(vaultProvider, cfg.Vault.CacheTTL)
	}
	signingKey, err := resolveSigningKey(ctx, cfg, provider)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to resolve audit signing key", err)
	}
	adminSecret, err := resolveAdminSecret(ctx, cfg, provider)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to resolve admin token secret", err)
	}

	// Audit trail
	signer, appErr := audit.NewSigner([]byte(signingKey))
	if appErr != nil {
		appLogger.Fatal(ctx, "Failed to create audit signer", appErr)
	}
	auditStore, err := openAuditStore(&cfg.Audit, db, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to open audit store", err)
	}
	var stream audit.Streamer
	if cfg.Kafka.Enabled {
		producer := audit.NewKafkaProducer(cfg.Kafka, appLogger)
		defer producer.Close()
		stream = producer
	}
	auditService := audit.NewService(signer, auditStore, stream, metricsAdapter, appLogger)

	// Secure sessions
	sessionStore := session.NewMemoryStore()
	sealer := session.NewAESSealer()
	sweeper := session.NewSweeper(sessionStore, cfg.Session.SweepInterval, metricsAdapter, appLogger)
	go sweeper.Start(ctx)
	defer sweeper.Stop()

	// Application services
	analysisService := appservice.NewAnalysisAppService(
		quotaService, scoringService, policyEngine, auditService, metricsAdapter, appLogger)
	sessionService := appservice.NewSessionAppService(
		sessionStore, sealer, analysisService, metricsAdapter, cfg.Session.Timeout, appLogger)
	usageService := appservice.NewUsageAppService(quotaService, appLogger)
	tenantService := appservice.NewTenantAppService(tenantRepo, quotaService, appLogger)

	// HTTP handlers
	healthHandler := handlers.NewHealthHandler(appLogger)
	healthHandler.AddProbe("database", func(ctx context.Context) error {
		if appErr := db.Ping(ctx); appErr != nil {
			return appErr
		}
		return nil
	})
	if redisConn != nil {
		healthHandler.AddProbe("redis", func(ctx context.Context) error {
			if appErr := redisConn.Ping(ctx); appErr != nil {
				return appErr
			}
			return nil
		})
	}
	analyzeHandler := handlers.NewAnalyzeHandler(analysisService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	usageHandler := handlers.NewUsageHandler(usageService)
	tenantHandler := handlers.NewTenantHandler(tenantService)

	tokenManager, appErr := crypto.NewAdminTokenManager(adminSecret, 0, appLogger)
	if appErr != nil {
		appLogger.Fatal(ctx, "Failed to create admin token manager", appErr)
	}

	router := http.NewRouter(cfg, appLogger,
		healthHandler, analyzeHandler, sessionHandler, usageHandler, tenantHandler,
		middleware.APIKeyAuth(tenantRepo, auditService, appLogger),
		middleware.AdminJWTAuth(tokenManager, appLogger),
		middleware.RequestID(),
		middleware.AccessLog(appLogger),
		middleware.Observability(metrics, tracing.Tracer()),
	)
	if err := router.Start(); err != nil {
		appLogger.Fatal(ctx, "HTTP server failed", err)
	}
}

// scoringConfig maps the risk section onto the domain aggregation config.
func scoringConfig(cfg *config.RiskConfig) domainservice.ScoringConfig {
	weights := make(map[models.Category]float64, len(cfg.Weights))
	for name, weight := range cfg.Weights {
		weights[models.Category(name)] = weight
	}
	return domainservice.ScoringConfig{
		Weights:         weights,
		MediumThreshold: cfg.MediumThreshold,
		HighThreshold:   cfg.HighThreshold,
		CriticalCutoff:  cfg.CriticalCutoff,
	}
}

// resolveSigningKey prefers the static dev key and falls back to the secrets
// provider under the configured key name.
func resolveSigningKey(ctx context.Context, cfg *config.Config, provider domainservice.SecretsProvider) (string, error) {
	if cfg.Audit.HMACKey != "" {
		return cfg.Audit.HMACKey, nil
	}
	if provider == nil {
		return "", errors.ErrConfiguration.WithDescription(
			"audit signing key needs audit.hmac_key or vault enabled")
	}
	path := cfg.Audit.HMACKeyName
	if path == "" {
		path = secrets.AuditKeyPath
	}
	return provider.GetSecret(ctx, path, secrets.AuditKeyField)
}

// resolveAdminSecret sources the shared secret guarding the admin plane.
func resolveAdminSecret(ctx context.Context, cfg *config.Config, provider domainservice.SecretsProvider) (string, error) {
	if cfg.Server.AdminJWTSecret != "" {
		return cfg.Server.AdminJWTSecret, nil
	}
	if provider == nil {
		return "", errors.ErrConfiguration.WithDescription(
			"admin surface needs server.admin_jwt_secret or vault enabled")
	}
	return provider.GetSecret(ctx, secrets.AdminKeyPath, secrets.AdminKeyField)
}

// openAuditStore selects the gorm backend for the audit trail. The postgres
// driver shares the main connection; sqlite opens its own file and migrates
// the schema itself.
func openAuditStore(cfg *config.AuditConfig, db *postgres.DBConnection, log logger.Logger) (repository.AuditRepository, error) {
	if cfg.Driver == "postgres" {
		return audit.NewGormStore(db.Gorm(), log), nil
	}
	gdb, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&models.AuditRecord{}); err != nil {
		return nil, err
	}
	return audit.NewGormStore(gdb, log), nil
}
