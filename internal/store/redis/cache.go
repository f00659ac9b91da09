package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tally/internal/domain"
)

// CacheThumbnail stores an input thumbnail with its content type
func (s *Store) CacheThumbnail(ctx context.Context, inputID int, thumb domain.Thumbnail, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultThumbnailTTL
	}
	key := ThumbnailKey(inputID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "content_type", thumb.ContentType, "data", thumb.Data)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache thumbnail: %w", err)
	}
	return nil
}

// GetCachedThumbnail retrieves a cached thumbnail. A miss returns nil, nil.
func (s *Store) GetCachedThumbnail(ctx context.Context, inputID int) (*domain.Thumbnail, error) {
	vals, err := s.client.HGetAll(ctx, ThumbnailKey(inputID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get cached thumbnail: %w", err)
	}
	data, ok := vals["data"]
	if !ok {
		return nil, nil // Cache miss
	}
	return &domain.Thumbnail{ContentType: vals["content_type"], Data: []byte(data)}, nil
}

// InvalidateThumbnail removes a cached thumbnail
func (s *Store) InvalidateThumbnail(ctx context.Context, inputID int) error {
	if err := s.client.Del(ctx, ThumbnailKey(inputID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate thumbnail: %w", err)
	}
	return nil
}

// CachedThumbnailIDs lists the input ids that have a cached thumbnail
func (s *Store) CachedThumbnailIDs(ctx context.Context) ([]int, error) {
	var ids []int
	iter := s.client.Scan(ctx, 0, KeyPrefixThumbnail+"*", 0).Iterator()
	for iter.Next(ctx) {
		id, err := strconv.Atoi(strings.TrimPrefix(iter.Val(), KeyPrefixThumbnail))
		if err != nil {
			continue // Not ours
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan thumbnails: %w", err)
	}
	return ids, nil
}

// FlushThumbnails removes all cached thumbnails
func (s *Store) FlushThumbnails(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixThumbnail+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete thumbnail key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush thumbnails: %w", err)
	}
	return nil
}
