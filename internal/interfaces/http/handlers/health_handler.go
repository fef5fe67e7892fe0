package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/rampartlabs/rampart/pkg/logger"
)

// probeTimeout bounds every readiness probe so a hung dependency cannot hang
// the orchestrator's check.
const probeTimeout = 5 * time.Second

// Probe reports whether one dependency can serve traffic.
type Probe func(ctx context.Context) error

// HealthHandler provides the liveness and readiness endpoints. Liveness only
// proves the process runs; readiness runs every registered dependency probe.
type HealthHandler struct {
	log    logger.Logger
	mu     sync.RWMutex
	probes map[string]Probe
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(log logger.Logger) *HealthHandler {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &HealthHandler{
		log:    log.WithComponent("health"),
		probes: make(map[string]Probe),
	}
}

// AddProbe registers a named dependency probe for readiness checks.
func (h *HealthHandler) AddProbe(name string, probe Probe) {
	h.mu.Lock()
	h.probes[name] = probe
	h.mu.Unlock()
}

// LivenessCheck answers as long as the process can serve HTTP.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck runs all dependency probes in parallel and reports 503 as
// soon as any dependency cannot serve.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	h.mu.RLock()
	probes := make(map[string]Probe, len(h.probes))
	for name, probe := range h.probes {
		probes[name] = probe
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	var mu sync.Mutex
	checks := make(map[string]string, len(probes))

	g, ctx := errgroup.WithContext(ctx)
	for name, probe := range probes {
		name, probe := name, probe
		g.Go(func() error {
			status := "ok"
			if err := probe(ctx); err != nil {
				status = "error"
				h.log.Warn(ctx, "Readiness probe failed",
					logger.String("probe", name),
					logger.String("cause", err.Error()))
			}
			mu.Lock()
			checks[name] = status
			mu.Unlock()
			return nil
		})
	}
	// Probes report through the checks map; the group only fans them out.
	_ = g.Wait()

	status, httpStatus := "ready", http.StatusOK
	for _, probeStatus := range checks {
		if probeStatus != "ok" {
			status, httpStatus = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}
