package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

const (
	// DefaultGCThreshold is how long an input must be missing from the
	// snapshot before its cached thumbnail is dropped.
	DefaultGCThreshold = time.Hour
)

// ThumbnailCache is the part of the Redis store the collector sweeps.
type ThumbnailCache interface {
	CachedThumbnailIDs(ctx context.Context) ([]int, error)
	InvalidateThumbnail(ctx context.Context, inputID int) error
}

// GarbageCollector drops cached thumbnails of inputs that no longer exist,
// such as inputs deleted from another console.
type GarbageCollector struct {
	cache     ThumbnailCache
	store     *snapshot.Store
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time

	mu           sync.Mutex
	missingSince map[int]time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(
	cache ThumbnailCache,
	store *snapshot.Store,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		cache:        cache,
		store:        store,
		logger:       log,
		interval:     interval,
		threshold:    threshold,
		now:          time.Now,
		missingSince: make(map[int]time.Time),
		stopCh:       make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := gc.Collect(ctx); err != nil {
					gc.logger.Error("thumbnail garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	gc.stopOnce.Do(func() { close(gc.stopCh) })
}

// Collect invalidates the thumbnails of inputs missing from the snapshot
// for longer than the threshold and returns how many it removed. Nothing
// is collected until the input list has been fetched or restored.
func (gc *GarbageCollector) Collect(ctx context.Context) (int, error) {
	if !gc.store.Ready() || !gc.store.Loaded(snapshot.Inputs) {
		gc.logger.Debug("input list not loaded, skipping thumbnail collection")
		return 0, nil
	}

	ids, err := gc.cache.CachedThumbnailIDs(ctx)
	if err != nil {
		return 0, err
	}

	now := gc.now()
	gc.mu.Lock()
	defer gc.mu.Unlock()

	cached := make(map[int]struct{}, len(ids))
	deleted := 0
	for _, id := range ids {
		cached[id] = struct{}{}

		if _, ok := gc.store.Input(id); ok {
			delete(gc.missingSince, id)
			continue
		}

		since, seen := gc.missingSince[id]
		if !seen {
			gc.missingSince[id] = now
			continue
		}
		missingFor := now.Sub(since)
		if missingFor < gc.threshold {
			continue
		}

		if err := gc.cache.InvalidateThumbnail(ctx, id); err != nil {
			gc.logger.Warn("failed to drop stale thumbnail",
				logger.Int("input_id", id),
				logger.Error(err))
			continue
		}
		delete(gc.missingSince, id)

		gc.logger.Info("garbage collected thumbnail",
			logger.Int("input_id", id),
			logger.String("missing_for", missingFor.String()))
		deleted++
	}

	// Thumbnails that expired on their own.
	for id := range gc.missingSince {
		if _, ok := cached[id]; !ok {
			delete(gc.missingSince, id)
		}
	}

	if deleted > 0 {
		gc.logger.Info("thumbnail garbage collection completed",
			logger.Int("deleted", deleted))
	} else {
		gc.logger.Debug("no thumbnails to garbage collect")
	}
	return deleted, nil
}
