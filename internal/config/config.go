// Package config loads and validates the rampart-guard service configuration.
// Configuration is sourced from defaults, an optional YAML file, and RAMPART_*
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"time"

	"github.com/rampartlabs/rampart/pkg/errors"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Vault      VaultConfig      `mapstructure:"vault"`
	Detector   DetectorConfig   `mapstructure:"detector"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	Session    SessionConfig    `mapstructure:"session"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig controls the HTTP listener and the admin surface.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AllowedOrigins lists the origins accepted by the CORS layer. Empty
	// means same-origin callers only, which suits server-to-server use.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// AdminJWTSecret signs and verifies bearer tokens on the admin endpoints.
	// Resolved from the secrets provider in production; set directly only in dev.
	AdminJWTSecret string `mapstructure:"admin_jwt_secret"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnTimeout     time.Duration `mapstructure:"conn_timeout"`
}

// GetDSN builds the postgres connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	// Mode selects the client topology: standalone, sentinel, or cluster.
	Mode         string        `mapstructure:"mode"`
	Addresses    []string      `mapstructure:"addresses"`
	MasterName   string        `mapstructure:"master_name"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig controls the audit event fan-out producer.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	AuditTopic   string        `mapstructure:"audit_topic"`
	RequiredAcks int           `mapstructure:"required_acks"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
}

type VaultConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Address   string        `mapstructure:"address"`
	Token     string        `mapstructure:"token"`
	MountPath string        `mapstructure:"mount_path"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DetectorConfig controls rule loading for the risk detectors.
type DetectorConfig struct {
	// RulesPath points at the YAML rule file. Empty means the compiled-in
	// default rule set is used and hot reload is disabled.
	RulesPath string `mapstructure:"rules_path"`

	// WatchRules enables hot reload of the rule file on change.
	WatchRules bool `mapstructure:"watch_rules"`

	// BiasDensityFactor scales the bias cue density into a score.
	BiasDensityFactor float64 `mapstructure:"bias_density_factor"`
}

// RiskConfig carries the aggregation weights and level thresholds.
// Weights are keyed by category name: pii, bias, adversarial, hallucination.
type RiskConfig struct {
	Weights         map[string]float64 `mapstructure:"weights"`
	MediumThreshold float64            `mapstructure:"medium_threshold"`
	HighThreshold   float64            `mapstructure:"high_threshold"`
	CriticalCutoff  float64            `mapstructure:"critical_cutoff"`
}

type QuotaConfig struct {
	// Driver selects the counter store: redis or memory.
	Driver              string `mapstructure:"driver"`
	DefaultDailyLimit   int64  `mapstructure:"default_daily_limit"`
	DefaultMonthlyLimit int64  `mapstructure:"default_monthly_limit"`
}

type SessionConfig struct {
	// Timeout is the default session lifetime granted on handshake.
	Timeout time.Duration `mapstructure:"timeout"`

	// SweepInterval is how often the expired-session sweeper runs.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// AuditConfig controls the tamper-evident audit trail.
type AuditConfig struct {
	// Driver selects the trail store: postgres or sqlite.
	Driver string `mapstructure:"driver"`

	// SQLitePath is the database file backing the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`

	// HMACKeyName is the secrets-provider key holding the signing key.
	HMACKeyName string `mapstructure:"hmac_key_name"`

	// HMACKey is a static signing key for dev setups without a secrets provider.
	HMACKey string `mapstructure:"hmac_key"`
}

type MonitoringConfig struct {
	MetricsEnabled   bool    `mapstructure:"metrics_enabled"`
	PprofEnabled     bool    `mapstructure:"pprof_enabled"`
	TracingEnabled   bool    `mapstructure:"tracing_enabled"`
	JaegerEndpoint   string  `mapstructure:"jaeger_endpoint"`
	ServiceName      string  `mapstructure:"service_name"`
	TraceSampleRatio float64 `mapstructure:"trace_sample_ratio"`
}

var knownCategories = map[string]bool{
	"pii":           true,
	"bias":          true,
	"adversarial":   true,
	"hallucination": true,
}

// Validate rejects configurations the service cannot run on. It never
// coerces: an inconsistent value is an error, not a silent correction.
func (c *Config) Validate() *errors.AppError {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.ErrConfiguration.WithDescription("server.port %d out of range", c.Server.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.ErrConfiguration.WithDescription("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	if err := c.validateRisk(); err != nil {
		return err
	}
	if err := c.validateQuota(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateStores(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRisk() *errors.AppError {
	r := c.Risk
	if r.MediumThreshold <= 0 || r.MediumThreshold >= r.HighThreshold {
		return errors.ErrConfiguration.WithDescription(
			"risk thresholds must satisfy 0 < medium (%v) < high (%v)", r.MediumThreshold, r.HighThreshold)
	}
	if r.HighThreshold > 1 {
		return errors.ErrConfiguration.WithDescription("risk.high_threshold %v exceeds 1", r.HighThreshold)
	}
	if r.CriticalCutoff < r.HighThreshold || r.CriticalCutoff > 1 {
		return errors.ErrConfiguration.WithDescription(
			"risk.critical_cutoff %v must lie between high_threshold and 1", r.CriticalCutoff)
	}
	if len(r.Weights) == 0 {
		return errors.ErrConfiguration.WithDescription("risk.weights must not be empty")
	}
	for category, weight := range r.Weights {
		if !knownCategories[category] {
			return errors.ErrConfiguration.WithDescription("risk.weights names unknown category %q", category)
		}
		if weight <= 0 {
			return errors.ErrConfiguration.WithDescription("risk.weights[%s] must be positive, got %v", category, weight)
		}
	}
	if c.Detector.BiasDensityFactor <= 0 {
		return errors.ErrConfiguration.WithDescription(
			"detector.bias_density_factor must be positive, got %v", c.Detector.BiasDensityFactor)
	}
	return nil
}

func (c *Config) validateQuota() *errors.AppError {
	q := c.Quota
	if q.Driver != "redis" && q.Driver != "memory" {
		return errors.ErrConfiguration.WithDescription("quota.driver %q is not one of redis, memory", q.Driver)
	}
	if q.DefaultDailyLimit <= 0 || q.DefaultMonthlyLimit <= 0 {
		return errors.ErrConfiguration.WithDescription("quota default limits must be positive")
	}
	if q.Driver == "redis" && len(c.Redis.Addresses) == 0 {
		return errors.ErrConfiguration.WithDescription("quota.driver is redis but redis.addresses is empty")
	}
	return nil
}

func (c *Config) validateSession() *errors.AppError {
	if c.Session.Timeout <= 0 {
		return errors.ErrConfiguration.WithDescription("session.timeout must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return errors.ErrConfiguration.WithDescription("session.sweep_interval must be positive")
	}
	return nil
}

func (c *Config) validateStores() *errors.AppError {
	switch c.Audit.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.Database == "" {
			return errors.ErrConfiguration.WithDescription("audit.driver is postgres but database.host/database are unset")
		}
	case "sqlite":
		if c.Audit.SQLitePath == "" {
			return errors.ErrConfiguration.WithDescription("audit.driver is sqlite but audit.sqlite_path is unset")
		}
	default:
		return errors.ErrConfiguration.WithDescription("audit.driver %q is not one of postgres, sqlite", c.Audit.Driver)
	}
	if c.Audit.HMACKey == "" && (!c.Vault.Enabled || c.Audit.HMACKeyName == "") {
		return errors.ErrConfiguration.WithDescription(
			"audit signing key unavailable: set audit.hmac_key or enable vault with audit.hmac_key_name")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return errors.ErrConfiguration.WithDescription("kafka.enabled is set but kafka.brokers is empty")
		}
		if c.Kafka.AuditTopic == "" {
			return errors.ErrConfiguration.WithDescription("kafka.enabled is set but kafka.audit_topic is empty")
		}
	}
	if c.Vault.Enabled && c.Vault.Address == "" {
		return errors.ErrConfiguration.WithDescription("vault.enabled is set but vault.address is empty")
	}
	return nil
}
