package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/tally/internal/domain"
)

// MaxActions is how many operator actions the log keeps
const MaxActions = 200

// RecordAction prepends an action to the log and trims it to MaxActions
func (s *Store) RecordAction(ctx context.Context, rec domain.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, ActionsKey(), data)
	pipe.LTrim(ctx, ActionsKey(), 0, MaxActions-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	return nil
}

// RecentActions returns up to n actions, newest first
func (s *Store) RecentActions(ctx context.Context, n int) ([]domain.ActionRecord, error) {
	if n <= 0 || n > MaxActions {
		n = MaxActions
	}
	items, err := s.client.LRange(ctx, ActionsKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get actions: %w", err)
	}

	out := make([]domain.ActionRecord, 0, len(items))
	for _, item := range items {
		var rec domain.ActionRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			// Skip entries that couldn't be decoded
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
