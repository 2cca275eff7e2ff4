package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

type ollamaEmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// Ollama returns one embedding per input.
type ollamaEmbeddingResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: HTTPTimeout},
	}
}

func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	var resp ollamaEmbeddingResponse
	err := postJSON(ctx, p.client, p.baseURL+"/api/embed", "", ollamaEmbeddingRequest{Model: p.model, Input: text}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("received empty embedding from Ollama (model may not be installed: try 'ollama pull %s')", p.model)
	}
	return resp.Embeddings[0], nil
}

func (p *OllamaProvider) ModelName() string { return p.model }

func (p *OllamaProvider) ProviderName() string { return "ollama" }
