package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// LoadConfig loads the configuration from defaults, an optional config file
// (./config.yaml or /etc/rampart/config.yaml), and RAMPART_* environment
// variables. Environment variables win: RAMPART_SERVER_PORT overrides
// server.port.
func LoadConfig() (*Config, *errors.AppError) {
	return load("")
}

// LoadConfigFile loads the configuration from an explicit file path plus
// environment overrides. Used by the admin CLI to validate candidate files.
func LoadConfigFile(path string) (*Config, *errors.AppError) {
	return load(path)
}

func load(path string) (*Config, *errors.AppError) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.ErrConfiguration.WithError(err).WithDescription("cannot read config file %s", path)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/rampart/")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// The file is optional; anything other than "not found" is fatal.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.ErrConfiguration.WithError(err).WithDescription("cannot read config file")
			}
		}
	}

	v.SetEnvPrefix("RAMPART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ErrConfiguration.WithError(err).WithDescription("cannot unmarshal config")
	}

	if appErr := cfg.Validate(); appErr != nil {
		return nil, appErr
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", constants.DefaultServicePort)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", constants.DefaultShutdownTimeout)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "rampart")
	v.SetDefault("database.database", "rampart")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("database.max_conn_idle_time", 10*time.Minute)
	v.SetDefault("database.conn_timeout", 10*time.Second)

	v.SetDefault("redis.mode", "standalone")
	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 50)
	v.SetDefault("redis.min_idle_conns", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.audit_topic", "rampart.audit.v1")
	v.SetDefault("kafka.required_acks", 1)
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", time.Second)
	v.SetDefault("kafka.write_timeout", 10*time.Second)
	v.SetDefault("kafka.read_timeout", 10*time.Second)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.cache_ttl", 5*time.Minute)
	v.SetDefault("vault.timeout", 5*time.Second)

	v.SetDefault("detector.rules_path", "")
	v.SetDefault("detector.watch_rules", false)
	v.SetDefault("detector.bias_density_factor", 5.0)

	v.SetDefault("risk.weights", map[string]float64{
		"pii":           0.30,
		"bias":          0.20,
		"adversarial":   0.35,
		"hallucination": 0.15,
	})
	v.SetDefault("risk.medium_threshold", 0.4)
	v.SetDefault("risk.high_threshold", 0.7)
	v.SetDefault("risk.critical_cutoff", 0.85)

	v.SetDefault("quota.driver", "memory")
	v.SetDefault("quota.default_daily_limit", constants.DefaultDailyLimit)
	v.SetDefault("quota.default_monthly_limit", constants.DefaultMonthlyLimit)

	v.SetDefault("session.timeout", constants.SessionDefaultTTL)
	v.SetDefault("session.sweep_interval", constants.SessionSweepInterval)

	v.SetDefault("audit.driver", "sqlite")
	v.SetDefault("audit.sqlite_path", "rampart_audit.db")
	// No default signing key: Validate fails until one is configured.
	v.SetDefault("audit.hmac_key", "")
	v.SetDefault("audit.hmac_key_name", "rampart/audit")

	v.SetDefault("monitoring.metrics_enabled", true)
	v.SetDefault("monitoring.pprof_enabled", false)
	v.SetDefault("monitoring.tracing_enabled", false)
	v.SetDefault("monitoring.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("monitoring.service_name", constants.ServiceName)
	v.SetDefault("monitoring.trace_sample_ratio", 1.0)
}
