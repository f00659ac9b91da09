package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/metrics"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

// HealthAPI is the health endpoint of the monitoring client.
type HealthAPI interface {
	Health(ctx context.Context) (*domain.Health, error)
}

// HealthPoller refreshes the backend health shown in the header.
type HealthPoller struct {
	api      HealthAPI
	env      pollEnv
	interval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	mu       sync.Mutex
}

func NewHealthPoller(api HealthAPI, store *snapshot.Store, seq *Sequencer, log logger.Logger, interval time.Duration) *HealthPoller {
	return &HealthPoller{
		api:      api,
		env:      pollEnv{store: store, seq: seq, logger: log},
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start checks health immediately and then once per interval.
func (hp *HealthPoller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	hp.mu.Lock()
	hp.cancel = cancel
	hp.mu.Unlock()

	hp.wg.Add(1)
	go func() {
		defer hp.wg.Done()

		hp.Refresh(ctx)

		ticker := time.NewTicker(hp.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				hp.Refresh(ctx)
			case <-hp.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels an in-flight check and waits for the loop to exit.
func (hp *HealthPoller) Stop() {
	hp.stopOnce.Do(func() {
		hp.mu.Lock()
		if hp.cancel != nil {
			hp.cancel()
		}
		hp.mu.Unlock()
		close(hp.stopCh)
	})
	hp.wg.Wait()
}

// Refresh fetches /health once. A failed check keeps the last known health.
func (hp *HealthPoller) Refresh(ctx context.Context) error {
	_, err := poll(ctx, hp.env, snapshot.Health, hp.api.Health,
		func(seq uint64, h *domain.Health) bool {
			if !hp.env.store.ApplyHealth(seq, h) {
				return false
			}
			metrics.RecordBackendHealth(h.IsHealthy())
			return true
		})
	return err
}
