package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"credit-advisor/backend/pkg/models"
)

// LLMReranker asks the LLM to pick and describe the best cards for a user
// from the retrieved candidates. It owns all structural validation of the
// model output: downstream steps receive either a well-formed, non-empty
// RecommendationSet or ErrValidationFailed.
type LLMReranker struct {
	llm Completer
}

// NewLLMReranker creates a new LLMReranker.
func NewLLMReranker(llm Completer) *LLMReranker {
	return &LLMReranker{llm: llm}
}

// Rerank produces the final recommendation list. Transport errors propagate
// as-is; malformed or empty model output comes back as ErrValidationFailed.
func (r *LLMReranker) Rerank(ctx context.Context, profile string, profileIP models.FeatureProfile, pred models.HealthLabel, limit int64, candidates []models.CardSuggestion) (*models.RecommendationSet, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates to rank: %w", ErrValidationFailed)
	}

	raw, err := r.llm.Complete(ctx, rerankPrompt(profile, candidates))
	if err != nil {
		return nil, fmt.Errorf("re-ranking failed: %w", err)
	}

	cards, err := parseCardObject(raw)
	if err != nil {
		return nil, err
	}
	return &models.RecommendationSet{Cards: cards}, nil
}

// parseCardObject extracts the {"CardName": "description", ...} object the
// prompt asks for, preserving the model's ordering. Any structural deviation
// is ErrValidationFailed.
func parseCardObject(raw string) ([]models.CardRecommendation, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in re-ranker output: %w", ErrValidationFailed)
	}

	dec := json.NewDecoder(strings.NewReader(raw[start : end+1]))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("re-ranker output is not an object: %w", ErrValidationFailed)
	}

	var cards []models.CardRecommendation
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed re-ranker output: %w", ErrValidationFailed)
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("non-string card name in re-ranker output: %w", ErrValidationFailed)
		}
		var description string
		if err := dec.Decode(&description); err != nil {
			return nil, fmt.Errorf("non-string card description in re-ranker output: %w", ErrValidationFailed)
		}
		cards = append(cards, models.CardRecommendation{Name: name, Description: description})
	}

	if len(cards) == 0 {
		return nil, fmt.Errorf("empty card list in re-ranker output: %w", ErrValidationFailed)
	}
	return cards, nil
}
