package services

import (
	"context"
	"errors"

	"credit-advisor/backend/pkg/models"
)

// Sentinel errors for external collaborator failures. The workflow engine
// checks these with errors.Is to tell input errors from transport errors
// from soft validation failures.
var (
	// ErrUserNotFound means no stored record matches the user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrMalformedInput means stored feature values could not be coerced to
	// model input types.
	ErrMalformedInput = errors.New("malformed model input")
	// ErrServiceUnavailable is a transport error talking to a collaborator.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrValidationFailed means the re-ranker produced structurally invalid
	// output. It is the only soft failure: the engine retries it.
	ErrValidationFailed = errors.New("recommendation output failed validation")
)

// Scorer returns a user's credit health classification. Deterministic and
// side-effect free for a fixed model artifact.
type Scorer interface {
	Score(ctx context.Context, userID string) (*models.ScoreResult, error)
}

// Narrator turns a scoring result into a free-text explanation.
type Narrator interface {
	Narrate(ctx context.Context, profileIP models.FeatureProfile, pred models.HealthLabel, limit int64) (string, error)
}

// CandidateRetriever returns coarse candidate products for a profile. An
// empty result is legal, not an error.
type CandidateRetriever interface {
	RetrieveCandidates(ctx context.Context, profile string, profileIP models.FeatureProfile, pred models.HealthLabel, limit int64) ([]models.CardSuggestion, error)
}

// Reranker produces the final validated recommendation list, or
// ErrValidationFailed when the output is malformed.
type Reranker interface {
	Rerank(ctx context.Context, profile string, profileIP models.FeatureProfile, pred models.HealthLabel, limit int64, candidates []models.CardSuggestion) (*models.RecommendationSet, error)
}

// Completer is the minimal LLM surface narration and re-ranking use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbeddingClient produces retrieval embeddings for a text.
type EmbeddingClient interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}
