package llm

import (
	"context"
	"errors"
	"net/http"
)

// OpenAI talks to any /chat/completions endpoint, api_base usually ending in /v1.
type OpenAI struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func (o *OpenAI) Name() string { return ProviderOpenAI + ":" + o.model }

func (o *OpenAI) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	req := struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature"`
		MaxTokens   int       `json:"max_tokens"`
		Stream      bool      `json:"stream"`
	}{Model: o.model, Messages: messages, Temperature: temperature(opts), MaxTokens: maxTokens}

	var resp struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, o.http, o.baseURL+"/chat/completions", o.apiKey, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
