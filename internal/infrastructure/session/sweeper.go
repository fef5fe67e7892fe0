package session

import (
	"context"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// Sweeper purges expired sessions on a fixed interval. Expiry is also
// enforced lazily on every Get, the sweeper only bounds how long dead key
// material lingers in memory.
type Sweeper struct {
	store    service.SessionStore
	interval time.Duration
	metrics  service.Metrics
	logger   logger.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper over the given store. A non-positive interval
// falls back to one minute.
func NewSweeper(store service.SessionStore, interval time.Duration, metrics service.Metrics, log logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		metrics:  metrics,
		logger:   log.WithComponent("session_sweeper"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop. It blocks and should be run in a goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "session sweeper started", logger.Duration("interval", s.interval))
	for {
		select {
		case <-s.stop:
			s.logger.Info(ctx, "session sweeper stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop shuts the sweeper down and waits for the loop to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) sweep(ctx context.Context) {
	purged := s.store.PurgeExpired(time.Now().UTC())
	if purged > 0 {
		s.logger.Debug(ctx, "expired sessions purged", logger.Int("count", purged))
	}
	if s.metrics != nil {
		for i := 0; i < purged; i++ {
			s.metrics.RecordSessionEvent("purged")
		}
		s.metrics.UpdateActiveSessions(s.store.Count())
	}
}
