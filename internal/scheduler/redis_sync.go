package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

// SnapshotLoader reads the last persisted snapshot. A nil snapshot with a
// nil error means nothing was stored.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*snapshot.Persisted, error)
}

// RedisSyncer seeds the in-memory store from Redis on startup
type RedisSyncer struct {
	loader SnapshotLoader
	store  *snapshot.Store
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	loader SnapshotLoader,
	store *snapshot.Store,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		loader: loader,
		store:  store,
		logger: log,
	}
}

// Sync loads the persisted snapshot and restores the slices no live fetch
// has filled yet.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("restoring snapshot from redis")

	p, err := rs.loader.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	if p == nil {
		rs.logger.Info("no snapshot found in redis")
		return nil
	}

	if !rs.store.Restore(*p) {
		rs.logger.Info("snapshot in redis not used",
			logger.Time("saved_at", p.SavedAt))
		return nil
	}

	rs.logger.Info("restored snapshot from redis",
		logger.Int("channels", len(p.Channels)),
		logger.Int("alerts", len(p.Alerts)),
		logger.Int("inputs", len(p.Inputs)),
		logger.Time("saved_at", p.SavedAt))

	return nil
}
