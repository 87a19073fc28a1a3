package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-advisor/backend/pkg/models"
)

// stubCompleter returns a canned completion and records the prompt.
type stubCompleter struct {
	text   string
	err    error
	prompt string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

var rerankCandidates = []models.CardSuggestion{
	{Name: "secured credit builder card", Features: "secured deposit"},
	{Name: "low interest balance card", Features: "low APR"},
}

func TestRerank_ParsesCardObjectInOrder(t *testing.T) {
	llm := &stubCompleter{text: `Here are my picks:
{"secured credit builder card": "rebuilds history with a deposit", "low interest balance card": "keeps interest low"}
Hope that helps!`}
	reranker := NewLLMReranker(llm)

	set, err := reranker.Rerank(context.Background(), "a strained profile", nil, models.HealthPoor, 1500, rerankCandidates)
	require.NoError(t, err)

	require.Len(t, set.Cards, 2)
	assert.Equal(t, "secured credit builder card", set.Cards[0].Name)
	assert.Equal(t, "rebuilds history with a deposit", set.Cards[0].Description)
	assert.Equal(t, "low interest balance card", set.Cards[1].Name)
	assert.Contains(t, llm.prompt, "secured credit builder card")
}

func TestRerank_EmptyCandidates(t *testing.T) {
	reranker := NewLLMReranker(&stubCompleter{})
	_, err := reranker.Rerank(context.Background(), "profile", nil, models.HealthGood, 9000, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRerank_MalformedOutput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no JSON object", "I could not decide on any cards."},
		{"truncated object", `{"card a": "desc`},
		{"array instead of object", `["card a", "card b"]`},
		{"non-string description", `{"card a": {"nested": true}}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reranker := NewLLMReranker(&stubCompleter{text: tt.text})
			_, err := reranker.Rerank(context.Background(), "profile", nil, models.HealthGood, 9000, rerankCandidates)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestRerank_TransportErrorIsNotValidationFailure(t *testing.T) {
	reranker := NewLLMReranker(&stubCompleter{err: ErrServiceUnavailable})
	_, err := reranker.Rerank(context.Background(), "profile", nil, models.HealthGood, 9000, rerankCandidates)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotErrorIs(t, err, ErrValidationFailed)
}
