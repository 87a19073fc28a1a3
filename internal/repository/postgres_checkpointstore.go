package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCheckpointStore persists workflow checkpoints in PostgreSQL. The
// instance key is the primary key, so each Save atomically replaces the
// previous snapshot for that instance.
type PostgresCheckpointStore struct {
	db *pgxpool.Pool
}

// NewPostgresCheckpointStore creates a new PostgresCheckpointStore.
func NewPostgresCheckpointStore(db *pgxpool.Pool) *PostgresCheckpointStore {
	return &PostgresCheckpointStore{db: db}
}

// Save writes a checkpoint, replacing any previous one for the instance.
func (s *PostgresCheckpointStore) Save(ctx context.Context, cp *Checkpoint) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO workflow_checkpoints (instance_key, run_id, node, state, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (instance_key) DO UPDATE SET
		   run_id = EXCLUDED.run_id,
		   node = EXCLUDED.node,
		   state = EXCLUDED.state,
		   updated_at = now()`,
		cp.InstanceKey, cp.RunID, cp.Node, cp.State)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint %s: %w", cp.InstanceKey, err)
	}
	return nil
}

// Load retrieves the last checkpoint for an instance.
func (s *PostgresCheckpointStore) Load(ctx context.Context, instanceKey string) (*Checkpoint, error) {
	var cp Checkpoint
	err := s.db.QueryRow(ctx,
		`SELECT instance_key, run_id, node, state, updated_at
		 FROM workflow_checkpoints WHERE instance_key = $1`, instanceKey).
		Scan(&cp.InstanceKey, &cp.RunID, &cp.Node, &cp.State, &cp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint %s: %w", instanceKey, err)
	}
	return &cp, nil
}
