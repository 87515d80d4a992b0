// Package llm talks to chat completion backends used for drafting pages:
// a local Ollama server or any OpenAI compatible endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/version"
)

// Provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

const (
	DefaultTimeout     = 120 * time.Second
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1200
	DefaultOllamaBase  = "http://localhost:11434"
)

// ErrNotConfigured is returned when no provider is set up.
var ErrNotConfigured = errors.New("no LLM configured; use --no-llm or set llm_provider (ollama or openai)")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System and User build messages.
func System(content string) Message { return Message{Role: "system", Content: content} }
func User(content string) Message   { return Message{Role: "user", Content: content} }

// Options tune a single completion.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client returns the assistant reply for a conversation.
type Client interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
	Name() string
}

// Settings selects and configures a provider.
type Settings struct {
	Provider   string
	Model      string
	OllamaBase string
	APIBase    string
	APIKey     string
	Timeout    time.Duration
}

// SettingsFromConfig reads llm_provider, model, ollama_base, api_base and api_key.
func SettingsFromConfig() Settings {
	return Settings{
		Provider:   config.Get("llm_provider", ProviderOllama),
		Model:      config.Get("model", ""),
		OllamaBase: config.Get("ollama_base", DefaultOllamaBase),
		APIBase:    config.Get("api_base", ""),
		APIKey:     config.Get("api_key", ""),
	}
}

// Validate reports the settings a provider is missing.
func (s Settings) Validate() error {
	switch normalizeProvider(s.Provider) {
	case ProviderOllama:
		if strings.TrimSpace(s.Model) == "" {
			return fmt.Errorf("provider ollama requires: model")
		}
		return nil
	case ProviderOpenAI:
		var missing []string
		for _, kv := range [][2]string{{"api_base", s.APIBase}, {"api_key", s.APIKey}, {"model", s.Model}} {
			if strings.TrimSpace(kv[1]) == "" {
				missing = append(missing, kv[0])
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("provider openai requires: %s", strings.Join(missing, ", "))
		}
		return nil
	case "", ProviderNone:
		return ErrNotConfigured
	default:
		return fmt.Errorf("unknown llm provider %q: use ollama or openai", s.Provider)
	}
}

// New creates the client for the configured provider.
func New(s Settings) (Client, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := &http.Client{Timeout: timeout}
	if normalizeProvider(s.Provider) == ProviderOllama {
		base := s.OllamaBase
		if strings.TrimSpace(base) == "" {
			base = DefaultOllamaBase
		}
		return &Ollama{baseURL: strings.TrimRight(base, "/"), model: s.Model, http: hc}, nil
	}
	return &OpenAI{baseURL: strings.TrimRight(s.APIBase, "/"), apiKey: s.APIKey, model: s.Model, http: hc}, nil
}

func normalizeProvider(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "openai_compat" {
		return ProviderOpenAI
	}
	return p
}

// postJSON sends body and decodes the response into out.
func postJSON(ctx context.Context, hc *http.Client, url, apiKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		colors.StructuredWarn("llm", "chat", "failed", err, "", colors.Fields("url", url))
		return fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("llm response: %w", err)
	}
	colors.StructuredDebug("llm", "chat", "completed", nil, "", colors.Fields("url", url, "status", resp.StatusCode, "duration_seconds", time.Since(start).Seconds()))
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > 300 {
			msg = msg[:300] + "..."
		}
		return fmt.Errorf("llm request failed: HTTP %d: %s", resp.StatusCode, msg)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode llm response: %w", err)
	}
	return nil
}

func temperature(opts Options) float64 {
	if opts.Temperature <= 0 {
		return DefaultTemperature
	}
	return opts.Temperature
}
