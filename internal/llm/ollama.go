package llm

import (
	"context"
	"net/http"
)

// Ollama uses the /api/chat endpoint without streaming.
type Ollama struct {
	baseURL string
	model   string
	http    *http.Client
}

func (o *Ollama) Name() string { return ProviderOllama + ":" + o.model }

func (o *Ollama) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	req := struct {
		Model    string    `json:"model"`
		Messages []Message `json:"messages"`
		Stream   bool      `json:"stream"`
		Options  struct {
			Temperature float64 `json:"temperature"`
		} `json:"options"`
	}{Model: o.model, Messages: messages}
	req.Options.Temperature = temperature(opts)

	var resp struct {
		Message Message `json:"message"`
	}
	if err := postJSON(ctx, o.http, o.baseURL+"/api/chat", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}
