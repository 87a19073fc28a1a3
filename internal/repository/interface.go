package repository

import (
	"context"
	"errors"
	"time"

	"credit-advisor/backend/pkg/models"
)

// ErrNotFound is returned when no record exists for the given key.
var ErrNotFound = errors.New("record not found")

// ProfileStore holds one denormalized document per user, upserted by user_id
// at each workflow milestone. Repeated runs overwrite; the store never holds
// history.
type ProfileStore interface {
	// Get retrieves the latest persisted record for a user, or ErrNotFound.
	Get(ctx context.Context, userID string) (*models.PersistedRecord, error)
	// UpsertProfile writes the scoring/narration milestone.
	UpsertProfile(ctx context.Context, userID string, pred models.HealthLabel, limit int64, profile string, profileIP models.FeatureProfile) error
	// UpsertSuggestions writes the candidate-retrieval milestone.
	UpsertSuggestions(ctx context.Context, userID string, suggestions []models.CardSuggestion) error
	// UpsertFinal writes the re-ranking milestone.
	UpsertFinal(ctx context.Context, userID string, cards []models.CardRecommendation) error
	// UpsertOutcome writes the terminal milestone from the validation step.
	UpsertOutcome(ctx context.Context, rec *models.PersistedRecord) error
}

// Checkpoint is the durable snapshot of a workflow instance after a step.
// One record per instance key; last writer wins.
type Checkpoint struct {
	InstanceKey string    `json:"instance_key"`
	RunID       string    `json:"run_id"`
	Node        string    `json:"node"`
	State       []byte    `json:"state"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CheckpointStore makes workflow runs crash-resumable. Each Save replaces the
// previous checkpoint for the instance atomically.
type CheckpointStore interface {
	Save(ctx context.Context, cp *Checkpoint) error
	// Load retrieves the last checkpoint for an instance, or ErrNotFound.
	Load(ctx context.Context, instanceKey string) (*Checkpoint, error)
}

// ProductStore holds the credit card product catalog with embeddings for
// similarity retrieval.
type ProductStore interface {
	Insert(ctx context.Context, product *models.CardProduct) error
	// SearchSimilar returns the k products nearest to the query embedding.
	SearchSimilar(ctx context.Context, embedding []float32, k int) ([]models.CardProduct, error)
}
