package monitoring_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/internal/infrastructure/monitoring"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/logger"
)

func newFileLogger(t *testing.T, level string) (logger.Logger, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rampart.log")
	log, err := monitoring.NewZapLogger(&config.LogConfig{
		Level:      level,
		Format:     "json",
		OutputPath: path,
	})
	require.NoError(t, err)
	return log, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestZapLogger_WritesStructuredJSON(t *testing.T) {
	log, path := newFileLogger(t, "info")

	log.Info(context.Background(), "analysis complete",
		logger.String("tenant_id", "tenant-1"),
		logger.Float64("risk_score", 0.42),
	)

	out := readLog(t, path)
	assert.Contains(t, out, `"msg":"analysis complete"`)
	assert.Contains(t, out, `"tenant_id":"tenant-1"`)
	assert.Contains(t, out, `"risk_score":0.42`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestZapLogger_MasksCredentialFields(t *testing.T) {
	log, path := newFileLogger(t, "info")

	log.Info(context.Background(), "session established",
		logger.String("session_key", "0123456789abcdef0123456789abcdef"),
		logger.String("api_secret", "rs_supersecretvalue"),
	)

	out := readLog(t, path)
	assert.NotContains(t, out, "0123456789abcdef0123456789abcdef")
	assert.NotContains(t, out, "rs_supersecretvalue")
	assert.Contains(t, out, "0123***cdef")
}

func TestZapLogger_LevelGate(t *testing.T) {
	log, path := newFileLogger(t, "warn")

	log.Info(context.Background(), "should be filtered")
	log.Warn(context.Background(), "should appear")

	out := readLog(t, path)
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should appear")
}

func TestZapLogger_SetLevel(t *testing.T) {
	log, path := newFileLogger(t, "info")

	log.Debug(context.Background(), "before level change")
	log.SetLevel(constants.LogLevelDebug)
	log.Debug(context.Background(), "after level change")

	assert.Equal(t, constants.LogLevelDebug, log.GetLevel())

	out := readLog(t, path)
	assert.NotContains(t, out, "before level change")
	assert.Contains(t, out, "after level change")
}

func TestZapLogger_ContextValuesAttached(t *testing.T) {
	log, path := newFileLogger(t, "info")

	ctx := context.WithValue(context.Background(), constants.ContextKeyTenantID, "tenant-9")
	ctx = context.WithValue(ctx, constants.ContextKeyRequestID, "req-42")
	log.Info(ctx, "quota check")

	out := readLog(t, path)
	assert.Contains(t, out, `"tenant_id":"tenant-9"`)
	assert.Contains(t, out, `"request_id":"req-42"`)
}

func TestZapLogger_WithComponent(t *testing.T) {
	log, path := newFileLogger(t, "info")

	log.WithComponent("quota_service").Info(context.Background(), "window rolled over")

	out := readLog(t, path)
	assert.Contains(t, out, `"component":"quota_service"`)
}
