package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// DefaultCheckpointKey is the key holding the checkpoint document.
const DefaultCheckpointKey = "cfr:checkpoint"

// CheckpointStore implements driven.CheckpointStore as one JSON value in
// Redis. Save is a single SET so the record is always overwritten whole.
type CheckpointStore struct {
	client redis.UniversalClient
	key    string
}

// NewCheckpointStore creates a Redis-backed CheckpointStore. An empty key
// selects DefaultCheckpointKey.
func NewCheckpointStore(client redis.UniversalClient, key string) *CheckpointStore {
	if key == "" {
		key = DefaultCheckpointKey
	}
	return &CheckpointStore{client: client, key: key}
}

// Load returns the stored checkpoint, or nil when the key is absent
func (s *CheckpointStore) Load(ctx context.Context) (*domain.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &cp, nil
}

// Save overwrites the stored checkpoint
func (s *CheckpointStore) Save(ctx context.Context, cp *domain.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set checkpoint: %w", err)
	}
	return nil
}

// Clear removes the stored checkpoint
func (s *CheckpointStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}
