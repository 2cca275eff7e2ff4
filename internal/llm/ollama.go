package llm

import (
	"context"
	"net/http"
)

type OllamaTranslator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

func (t *OllamaTranslator) Generate(ctx context.Context, systemPrompt, query string) (string, error) {
	payload := map[string]any{
		"model":    t.model,
		"messages": chatMessages(systemPrompt, query),
		"stream":   false,
		"options":  map[string]any{"temperature": t.temperature},
	}

	var parsed struct {
		Message message `json:"message"`
	}
	if err := postChat(ctx, t.client, t.baseURL+"/api/chat", t.apiKey, payload, &parsed); err != nil {
		return "", err
	}
	return finish(parsed.Message.Content)
}
