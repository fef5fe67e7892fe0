package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampartlabs/rampart/internal/interfaces/http/handlers"
)

func healthRouter(h *handlers.HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health/live", h.LivenessCheck)
	router.GET("/health/ready", h.ReadinessCheck)
	return router
}

func TestHealthHandler_LivenessAlwaysUp(t *testing.T) {
	router := healthRouter(handlers.NewHealthHandler(nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandler_ReadyWhenAllProbesPass(t *testing.T) {
	h := handlers.NewHealthHandler(nil)
	h.AddProbe("database", func(context.Context) error { return nil })
	h.AddProbe("redis", func(context.Context) error { return nil })
	router := healthRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	checks, ok := body["checks"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "ok", checks["redis"])
}

func TestHealthHandler_DegradedWhenAnyProbeFails(t *testing.T) {
	h := handlers.NewHealthHandler(nil)
	h.AddProbe("database", func(context.Context) error { return nil })
	h.AddProbe("redis", func(context.Context) error { return errors.New("connection refused") })
	router := healthRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	checks, ok := body["checks"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "error", checks["redis"])
}

func TestHealthHandler_ReadyWithNoProbes(t *testing.T) {
	router := healthRouter(handlers.NewHealthHandler(nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
