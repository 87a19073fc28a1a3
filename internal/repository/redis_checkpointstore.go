package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const checkpointKeyPrefix = "ckpt:"

// RedisCheckpointStore keeps workflow checkpoints in Redis, one JSON value
// per instance key. SET is atomic, which is all the engine requires: a
// concurrent reader sees either the previous snapshot or the new one, never
// a partial write.
type RedisCheckpointStore struct {
	client *redis.Client
}

// NewRedisCheckpointStore creates a new RedisCheckpointStore.
func NewRedisCheckpointStore(client *redis.Client) *RedisCheckpointStore {
	return &RedisCheckpointStore{client: client}
}

// Save writes a checkpoint, replacing any previous one for the instance.
func (s *RedisCheckpointStore) Save(ctx context.Context, cp *Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint %s: %w", cp.InstanceKey, err)
	}
	// Checkpoints are retained until a future run resumes or replaces them,
	// so no expiry is set.
	if err := s.client.Set(ctx, checkpointKeyPrefix+cp.InstanceKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save checkpoint %s: %w", cp.InstanceKey, err)
	}
	return nil
}

// Load retrieves the last checkpoint for an instance.
func (s *RedisCheckpointStore) Load(ctx context.Context, instanceKey string) (*Checkpoint, error) {
	payload, err := s.client.Get(ctx, checkpointKeyPrefix+instanceKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint %s: %w", instanceKey, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return nil, fmt.Errorf("malformed checkpoint %s: %w", instanceKey, err)
	}
	return &cp, nil
}
