package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultSnapshotTTL is how long a persisted snapshot stays usable (24 hours)
	DefaultSnapshotTTL = 24 * time.Hour
	// DefaultThumbnailTTL is the lifetime of a cached input thumbnail
	DefaultThumbnailTTL = 30 * time.Second
)

// Store handles Redis operations for the warm-start snapshot, the thumbnail
// cache and the operator action log
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis store. A zero ttl uses DefaultSnapshotTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// Ping checks the connection, for readiness reporting
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

type snapshotMeta struct {
	Filter  domain.ChannelFilter `json:"filter"`
	SavedAt time.Time            `json:"saved_at"`
}

// SaveSnapshot stores every part of the snapshot in one pipeline
func (s *Store) SaveSnapshot(ctx context.Context, p snapshot.Persisted) error {
	parts := map[string]any{
		PartMeta:     snapshotMeta{Filter: p.Filter, SavedAt: p.SavedAt},
		PartChannels: p.Channels,
		PartAlerts:   p.Alerts,
		PartInputs:   p.Inputs,
		PartHealth:   p.Health,
	}

	pipe := s.client.TxPipeline()
	for _, part := range snapshotParts {
		data, err := json.Marshal(parts[part])
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot %s: %w", part, err)
		}
		pipe.Set(ctx, SnapshotKey(part), data, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the persisted snapshot. It returns nil, nil when no
// snapshot is stored.
func (s *Store) LoadSnapshot(ctx context.Context) (*snapshot.Persisted, error) {
	keys := make([]string, len(snapshotParts))
	for i, part := range snapshotParts {
		keys[i] = SnapshotKey(part)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	raw := make(map[string][]byte, len(vals))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			raw[snapshotParts[i]] = []byte(str)
		}
	}

	metaData, ok := raw[PartMeta]
	if !ok {
		return nil, nil
	}

	var meta snapshotMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot meta: %w", err)
	}

	p := &snapshot.Persisted{Filter: meta.Filter, SavedAt: meta.SavedAt}
	targets := map[string]any{
		PartChannels: &p.Channels,
		PartAlerts:   &p.Alerts,
		PartInputs:   &p.Inputs,
		PartHealth:   &p.Health,
	}
	for part, dst := range targets {
		data, ok := raw[part]
		if !ok {
			continue
		}
		if err := json.Unmarshal(data, dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", part, err)
		}
	}

	return p, nil
}

// DeleteSnapshot removes every part of the persisted snapshot
func (s *Store) DeleteSnapshot(ctx context.Context) error {
	keys := make([]string, len(snapshotParts))
	for i, part := range snapshotParts {
		keys[i] = SnapshotKey(part)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
