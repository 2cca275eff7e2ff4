// Package embedding turns text into vectors via Ollama or OpenAI-compatible APIs.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"text2sql/pkg/config"
)

// HTTPTimeout bounds a single embedding call. Ollama may need to load the
// model on first use.
const HTTPTimeout = 60 * time.Second

// Provider generates an embedding vector for a text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	ModelName() string
	ProviderName() string
}

// NewProvider returns the provider described by an embedding AI URI.
func NewProvider(api config.AIAPI) (Provider, error) {
	if api.ModelType != config.ModelTypeEmbedding {
		return nil, fmt.Errorf("embedding provider needs an embedding model, got %s", api.ModelType)
	}
	switch api.APIType {
	case config.APITypeOllama:
		return NewOllamaProvider(api.BaseURL, api.Model), nil
	case config.APITypeOpenAI:
		return NewOpenAIProvider(api.BaseURL, api.APIKey, api.BareModel()), nil
	default:
		return nil, fmt.Errorf("unsupported embedding api type: %s", api.APIType)
	}
}

func postJSON(ctx context.Context, client *http.Client, url, apiKey string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding request failed status=%d body=%s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
