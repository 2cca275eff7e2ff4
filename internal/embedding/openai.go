package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type OpenAIProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type openAIEmbeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: HTTPTimeout},
	}
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	var resp openAIEmbeddingResponse
	err := postJSON(ctx, p.client, p.baseURL+"/v1/embeddings", p.apiKey, openAIEmbeddingRequest{Input: text, Model: p.model}, &resp)
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("received empty embedding from OpenAI")
	}
	return resp.Data[0].Embedding, nil
}

func (p *OpenAIProvider) ModelName() string { return p.model }

func (p *OpenAIProvider) ProviderName() string { return "openai" }
