package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"interview-ai-simulator/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CompletionAdapter = (*OpenRouterAdapter)(nil)

// OpenRouterAdapter implements adapter.CompletionAdapter against OpenRouter's
// OpenAI-compatible gateway. Base URL defaults to
// https://openrouter.ai/api/v1 (configurable). Chat completions path is the
// same as OpenAI: /chat/completions.
// Authorization: Bearer <OPENROUTER_API_KEY>
type OpenRouterAdapter struct {
	apiKey string
	base   string
	model  string
	client *http.Client
}

func NewOpenRouterAdapter(apiKey, model, base string) (*OpenRouterAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openrouter api key empty")
	}
	if model == "" {
		model = "nvidia/nemotron-nano-12b-v2-vl:free"
	}
	if base == "" {
		base = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (o *OpenRouterAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{o.model}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (o *OpenRouterAdapter) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = o.model
	}

	reqBody := struct {
		Model    string        `json:"model"`
		Messages []wireMessage `json:"messages"`
	}{Model: model, Messages: []wireMessage{{Role: "user", Content: prompt}}}

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openrouter http %d", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message wireMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("no choice content")
}

func (o *OpenRouterAdapter) CountTokens(ctx context.Context, model, prompt string) (int, error) {
	return estimateTokens(model, prompt)
}
