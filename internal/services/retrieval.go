package services

import (
	"context"
	"fmt"
	"strings"

	"credit-advisor/backend/internal/repository"
	"credit-advisor/backend/pkg/models"
)

// VectorRetriever finds candidate card products by embedding a profile-based
// search prompt and querying the product store for nearest neighbours.
type VectorRetriever struct {
	embedder EmbeddingClient
	products repository.ProductStore
	k        int
}

// NewVectorRetriever creates a new VectorRetriever returning at most k
// candidates per query.
func NewVectorRetriever(embedder EmbeddingClient, products repository.ProductStore, k int) *VectorRetriever {
	return &VectorRetriever{embedder: embedder, products: products, k: k}
}

// RetrieveCandidates returns coarse candidates for the profile. An empty
// catalog yields an empty result, which is legal.
func (r *VectorRetriever) RetrieveCandidates(ctx context.Context, profile string, profileIP models.FeatureProfile, pred models.HealthLabel, limit int64) ([]models.CardSuggestion, error) {
	query := retrievalPrompt(profile, profileIP, pred, limit)
	embedding, err := r.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed retrieval query: %w", err)
	}

	products, err := r.products.SearchSimilar(ctx, embedding, r.k)
	if err != nil {
		return nil, fmt.Errorf("candidate retrieval failed: %w", err)
	}

	suggestions := make([]models.CardSuggestion, 0, len(products))
	for _, p := range products {
		suggestions = append(suggestions, models.CardSuggestion{
			Name:     strings.Join(strings.Split(p.Title, "-"), " ") + " card",
			Features: p.Features,
		})
	}
	return suggestions, nil
}
