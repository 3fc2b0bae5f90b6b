package ai

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

	"github.com/tidwall/gjson"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/httpclient"
)

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.8
	maxReplyBytes      = 1 << 20
)

var ErrEmptyCompletion = errors.New("empty completion")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is one chat-completion backend in the fallback chain.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (string, error)
}

type ProviderConfig struct {
	Name    string
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIProvider talks to any endpoint that speaks the OpenAI
// chat-completions protocol.
type OpenAIProvider struct {
	cfg    ProviderConfig
	client *http.Client
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAIProvider{cfg: cfg, client: httpclient.New(cfg.Timeout)}
}

func (p *OpenAIProvider) Name() string {
	return p.cfg.Name
}

func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", p.cfg.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s reply: %w", p.cfg.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s returned status %d", p.cfg.Name, resp.StatusCode)
	}

	content := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.content").String())
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

// DefaultProviders builds the aimlapi, openrouter and groq chain from their
// keys. Providers without a key are left out.
func DefaultProviders(keys [3]string, timeout time.Duration) []Provider {
	specs := []ProviderConfig{
		{Name: "aimlapi", URL: "https://api.aimlapi.com/v1/chat/completions", Model: "gpt-4o-mini"},
		{Name: "openrouter", URL: "https://openrouter.ai/api/v1/chat/completions", Model: "openai/gpt-4o-mini"},
		{Name: "groq", URL: "https://api.groq.com/openai/v1/chat/completions", Model: "llama-3.1-70b-versatile"},
	}

	out := make([]Provider, 0, len(specs))
	for i, spec := range specs {
		key := strings.TrimSpace(keys[i])
		if key == "" {
			continue
		}
		spec.APIKey = key
		spec.Timeout = timeout
		out = append(out, NewOpenAIProvider(spec))
	}
	return out
}
