package services

import (
	"context"
	"fmt"

	"credit-advisor/backend/pkg/models"
)

// FeatureImportanceProvider supplies the classifier's feature importance
// text for narration prompts.
type FeatureImportanceProvider interface {
	FeatureImportances(ctx context.Context) (string, error)
}

// CreditNarrator produces the free-text credit score explanation by
// prompting the LLM with the scored profile and the model's feature
// importances.
type CreditNarrator struct {
	llm     Completer
	sidecar FeatureImportanceProvider
}

// NewCreditNarrator creates a new CreditNarrator.
func NewCreditNarrator(llm Completer, sidecar FeatureImportanceProvider) *CreditNarrator {
	return &CreditNarrator{llm: llm, sidecar: sidecar}
}

// Narrate returns the explanation text. Failures are fatal to the calling
// step; no retry happens here.
func (n *CreditNarrator) Narrate(ctx context.Context, profileIP models.FeatureProfile, pred models.HealthLabel, limit int64) (string, error) {
	featImps, err := n.sidecar.FeatureImportances(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch feature importances: %w", err)
	}
	text, err := n.llm.Complete(ctx, narrationPrompt(profileIP, pred, limit, featImps))
	if err != nil {
		return "", fmt.Errorf("narration failed: %w", err)
	}
	return text, nil
}
