package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"credit-advisor/backend/pkg/models"
)

// HTTPMLClient talks to the ML sidecar that owns the trained classifier and
// the embedding model. It implements Scorer and EmbeddingClient.
type HTTPMLClient struct {
	url string

	mu       sync.Mutex
	featImps string
}

// NewHTTPMLClient creates a new HTTPMLClient.
func NewHTTPMLClient(url string) *HTTPMLClient {
	return &HTTPMLClient{url: url}
}

type scoreResponse struct {
	Pred               string                `json:"pred"`
	AllowedCreditLimit int64                 `json:"allowed_credit_limit"`
	Profile            models.FeatureProfile `json:"profile"`
}

// Score returns the credit health label, allowed credit limit and feature
// profile for a user. Status codes map onto the collaborator contract:
// 404 is an unknown user, 422 a stored record the model cannot consume,
// anything else non-200 a transport failure.
func (c *HTTPMLClient) Score(ctx context.Context, userID string) (*models.ScoreResult, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url+"/score/"+userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("no stored record for user %s: %w", userID, ErrUserNotFound)
	case http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("stored record for user %s: %w", userID, ErrMalformedInput)
	default:
		return nil, fmt.Errorf("scoring returned status %d: %w", resp.StatusCode, ErrServiceUnavailable)
	}

	var body scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode scoring response: %w", err)
	}
	pred, err := models.ParseHealthLabel(body.Pred)
	if err != nil {
		return nil, fmt.Errorf("scoring response for user %s: %w", userID, ErrMalformedInput)
	}
	if body.AllowedCreditLimit < 0 {
		return nil, fmt.Errorf("negative credit limit for user %s: %w", userID, ErrMalformedInput)
	}
	return &models.ScoreResult{
		Pred:               pred,
		AllowedCreditLimit: body.AllowedCreditLimit,
		Profile:            body.Profile,
	}, nil
}

// FeatureImportances returns the model's feature importance text used in
// narration prompts. The model artifact is fixed for the process lifetime,
// so the first successful fetch is cached.
func (c *HTTPMLClient) FeatureImportances(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.featImps != "" {
		return c.featImps, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.url+"/feature_importances", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("feature importance request failed: %w", ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("feature importances returned status %d: %w", resp.StatusCode, ErrServiceUnavailable)
	}
	var body struct {
		FeatureImportance string `json:"feature_importance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode feature importances: %w", err)
	}
	c.featImps = body.FeatureImportance
	return c.featImps, nil
}

// GetEmbedding returns the embedding for a given text.
func (c *HTTPMLClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	requestBody, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/embedding", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding returned status %d: %w", resp.StatusCode, ErrServiceUnavailable)
	}

	var embedding []float32
	if err := json.NewDecoder(resp.Body).Decode(&embedding); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return embedding, nil
}
