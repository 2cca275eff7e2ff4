package llm

import (
	"context"
	"fmt"
	"net/http"
)

type OpenAITranslator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

func (t *OpenAITranslator) Generate(ctx context.Context, systemPrompt, query string) (string, error) {
	payload := map[string]any{
		"model":       t.model,
		"messages":    chatMessages(systemPrompt, query),
		"temperature": t.temperature,
	}

	var parsed struct {
		Choices []struct {
			Message message `json:"message"`
		} `json:"choices"`
	}
	if err := postChat(ctx, t.client, t.baseURL+"/v1/chat/completions", t.apiKey, payload, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion choices")
	}
	return finish(parsed.Choices[0].Message.Content)
}
