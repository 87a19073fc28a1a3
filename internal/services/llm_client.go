package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LLMConfig configures the completion client.
type LLMConfig struct {
	URL         string
	Model       string
	MaxTokens   int
	Temperature float64
	CacheSize   int
	// HTTPClient carries outbound auth (e.g. an oauth2 client-credentials
	// transport) when the gateway requires it. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// HTTPLLMClient calls an OpenAI-style completion endpoint. Responses are
// cached in a size-bounded LRU keyed by a fingerprint of the normalized
// prompt, so repeated identical prompts within a process don't pay for a
// second upstream call.
type HTTPLLMClient struct {
	cfg    LLMConfig
	client *http.Client
	cache  *lru.Cache[string, string]
}

// NewHTTPLLMClient creates a new HTTPLLMClient.
func NewHTTPLLMClient(cfg LLMConfig) (*HTTPLLMClient, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}
	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion cache: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLLMClient{cfg: cfg, client: client, cache: cache}, nil
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// promptFingerprint normalizes surrounding whitespace and hashes the prompt.
func promptFingerprint(prompt string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(prompt)))
	return hex.EncodeToString(sum[:])
}

// Complete invokes the LLM with the given prompt, consulting the cache first.
func (c *HTTPLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	key := promptFingerprint(prompt)
	if text, ok := c.cache.Get(key); ok {
		return text, nil
	}

	requestBody, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Prompt:      prompt,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.URL+"/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion returned status %d: %w", resp.StatusCode, ErrServiceUnavailable)
	}

	var body completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices: %w", ErrServiceUnavailable)
	}

	text := body.Choices[0].Text
	c.cache.Add(key, text)
	return text, nil
}
