package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-advisor/backend/pkg/models"
)

type stubEmbedder struct {
	embedding []float32
	text      string
}

func (s *stubEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	s.text = text
	return s.embedding, nil
}

type stubProductStore struct {
	products []models.CardProduct
	gotK     int
}

func (s *stubProductStore) Insert(ctx context.Context, product *models.CardProduct) error {
	return nil
}

func (s *stubProductStore) SearchSimilar(ctx context.Context, embedding []float32, k int) ([]models.CardProduct, error) {
	s.gotK = k
	return s.products, nil
}

func TestRetrieveCandidates_MapsTitlesToDisplayNames(t *testing.T) {
	store := &stubProductStore{products: []models.CardProduct{
		{Title: "platinum-travel", Features: "travel rewards"},
		{Title: "everyday-cashback", Features: "flat cashback"},
	}}
	embedder := &stubEmbedder{embedding: []float32{0.1, 0.2}}
	retriever := NewVectorRetriever(embedder, store, 3)

	profileIP := models.FeatureProfile{"Occupation": "Engineer"}
	suggestions, err := retriever.RetrieveCandidates(context.Background(), "a solid profile", profileIP, models.HealthGood, 9000)
	require.NoError(t, err)

	require.Len(t, suggestions, 2)
	assert.Equal(t, "platinum travel card", suggestions[0].Name)
	assert.Equal(t, "travel rewards", suggestions[0].Features)
	assert.Equal(t, "everyday cashback card", suggestions[1].Name)
	assert.Equal(t, 3, store.gotK)
	// the search prompt carries the profile
	assert.Contains(t, embedder.text, "a solid profile")
}

func TestRetrieveCandidates_EmptyCatalogIsLegal(t *testing.T) {
	retriever := NewVectorRetriever(&stubEmbedder{embedding: []float32{0.1}}, &stubProductStore{}, 3)

	suggestions, err := retriever.RetrieveCandidates(context.Background(), "profile", nil, models.HealthStandard, 4000)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestNarrate_CombinesImportancesAndProfile(t *testing.T) {
	llm := &stubCompleter{text: "income is strong but utilization is high"}
	sidecar := &stubImportances{text: "Credit_Utilization_Ratio: 0.27"}
	narrator := NewCreditNarrator(llm, sidecar)

	text, err := narrator.Narrate(context.Background(), models.FeatureProfile{"Annual_Income": 52000.0}, models.HealthStandard, 4000)
	require.NoError(t, err)

	assert.Equal(t, "income is strong but utilization is high", text)
	assert.Contains(t, llm.prompt, "Credit_Utilization_Ratio: 0.27")
	assert.Contains(t, llm.prompt, "Standard")
}

type stubImportances struct {
	text string
}

func (s *stubImportances) FeatureImportances(ctx context.Context) (string, error) {
	return s.text, nil
}
