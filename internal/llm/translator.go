// Package llm sends the assembled system prompt and the user's question to a
// chat model and returns the SQL it answers with.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"text2sql/pkg/config"
)

const DefaultTimeout = 60 * time.Second

type Translator interface {
	Generate(ctx context.Context, systemPrompt, query string) (string, error)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewTranslator returns the chat client described by an LLM AI URI.
func NewTranslator(api config.AIAPI, timeout time.Duration, temperature float64) (Translator, error) {
	if api.ModelType != config.ModelTypeLLM {
		return nil, fmt.Errorf("translator needs an llm model, got %s", api.ModelType)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	switch api.APIType {
	case config.APITypeOpenAI:
		return &OpenAITranslator{
			baseURL:     strings.TrimRight(api.BaseURL, "/"),
			apiKey:      api.APIKey,
			model:       api.BareModel(),
			temperature: temperature,
			client:      client,
		}, nil
	case config.APITypeOllama:
		return &OllamaTranslator{
			baseURL:     strings.TrimRight(api.BaseURL, "/"),
			apiKey:      api.APIKey,
			model:       api.Model,
			temperature: temperature,
			client:      client,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM API type: %s", api.APIType)
	}
}

func chatMessages(systemPrompt, query string) []message {
	return []message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: query},
	}
}

func postChat(ctx context.Context, client *http.Client, url, apiKey string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read chat response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode chat completion response: %w", err)
	}
	return nil
}

func finish(content string) (string, error) {
	sql := StripMarkdownSQL(content)
	if strings.TrimSpace(sql) == "" {
		return "", fmt.Errorf("model returned empty SQL")
	}
	return sql, nil
}

// StripMarkdownSQL removes a surrounding ``` or ```sql fence.
func StripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
