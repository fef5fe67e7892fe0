package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/pkg/errors"
)

// withSigningKey satisfies the one setting that has no usable default.
func withSigningKey(t *testing.T) {
	t.Helper()
	t.Setenv("RAMPART_AUDIT_HMAC_KEY", "test-signing-key")
}

func TestLoadConfig_Defaults(t *testing.T) {
	withSigningKey(t)

	cfg, appErr := config.LoadConfig()
	require.Nil(t, appErr)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Quota.Driver)
	assert.Equal(t, int64(1_000), cfg.Quota.DefaultDailyLimit)
	assert.Equal(t, int64(10_000), cfg.Quota.DefaultMonthlyLimit)
	assert.Equal(t, 30*time.Minute, cfg.Session.Timeout)
	assert.Equal(t, "sqlite", cfg.Audit.Driver)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.Vault.Enabled)
	assert.InDelta(t, 0.35, cfg.Risk.Weights["adversarial"], 1e-9)
	assert.InDelta(t, 0.85, cfg.Risk.CriticalCutoff, 1e-9)
	assert.InDelta(t, 5.0, cfg.Detector.BiasDensityFactor, 1e-9)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	withSigningKey(t)
	t.Setenv("RAMPART_SERVER_PORT", "9090")
	t.Setenv("RAMPART_LOG_LEVEL", "debug")
	t.Setenv("RAMPART_SESSION_TIMEOUT", "45m")
	t.Setenv("RAMPART_QUOTA_DRIVER", "redis")

	cfg, appErr := config.LoadConfig()
	require.Nil(t, appErr)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 45*time.Minute, cfg.Session.Timeout)
	assert.Equal(t, "redis", cfg.Quota.Driver)
}

func TestLoadConfig_MissingSigningKeyRejected(t *testing.T) {
	_, appErr := config.LoadConfig()

	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeConfigurationError, appErr.Code)
	assert.Contains(t, appErr.Description, "signing key")
}

func TestLoadConfigFile(t *testing.T) {
	withSigningKey(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9001
log:
  level: warn
session:
  timeout: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, appErr := config.LoadConfigFile(path)
	require.Nil(t, appErr)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 10*time.Minute, cfg.Session.Timeout)
	// Untouched sections keep their defaults.
	assert.Equal(t, "memory", cfg.Quota.Driver)
}

func TestLoadConfigFile_MissingFile(t *testing.T) {
	_, appErr := config.LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeConfigurationError, appErr.Code)
}

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	withSigningKey(t)
	cfg, appErr := config.LoadConfig()
	require.Nil(t, appErr)
	return cfg
}

func TestConfigValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"port out of range", func(c *config.Config) { c.Server.Port = 0 }},
		{"unknown log level", func(c *config.Config) { c.Log.Level = "verbose" }},
		{"medium above high", func(c *config.Config) { c.Risk.MediumThreshold = 0.8 }},
		{"high above one", func(c *config.Config) { c.Risk.HighThreshold = 1.2; c.Risk.CriticalCutoff = 1.3 }},
		{"cutoff below high", func(c *config.Config) { c.Risk.CriticalCutoff = 0.5 }},
		{"empty weights", func(c *config.Config) { c.Risk.Weights = nil }},
		{"unknown weight category", func(c *config.Config) { c.Risk.Weights["sentiment"] = 0.2 }},
		{"non-positive weight", func(c *config.Config) { c.Risk.Weights["pii"] = 0 }},
		{"non-positive density factor", func(c *config.Config) { c.Detector.BiasDensityFactor = 0 }},
		{"unknown quota driver", func(c *config.Config) { c.Quota.Driver = "dynamo" }},
		{"non-positive daily limit", func(c *config.Config) { c.Quota.DefaultDailyLimit = 0 }},
		{"redis quota without addresses", func(c *config.Config) {
			c.Quota.Driver = "redis"
			c.Redis.Addresses = nil
		}},
		{"zero session timeout", func(c *config.Config) { c.Session.Timeout = 0 }},
		{"zero sweep interval", func(c *config.Config) { c.Session.SweepInterval = 0 }},
		{"unknown audit driver", func(c *config.Config) { c.Audit.Driver = "csv" }},
		{"sqlite audit without path", func(c *config.Config) { c.Audit.SQLitePath = "" }},
		{"postgres audit without database", func(c *config.Config) {
			c.Audit.Driver = "postgres"
			c.Database.Host = ""
		}},
		{"no signing key source", func(c *config.Config) {
			c.Audit.HMACKey = ""
			c.Vault.Enabled = false
		}},
		{"kafka without brokers", func(c *config.Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }},
		{"kafka without topic", func(c *config.Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = []string{"localhost:9092"}
			c.Kafka.AuditTopic = ""
		}},
		{"vault without address", func(c *config.Config) { c.Vault.Enabled = true; c.Vault.Address = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.mutate(cfg)

			appErr := cfg.Validate()

			require.NotNil(t, appErr)
			assert.Equal(t, errors.CodeConfigurationError, appErr.Code)
		})
	}
}
