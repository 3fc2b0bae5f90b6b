package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/metrics"
)

const (
	ChatApology = "Sorry, I'm having trouble responding right now. Please try again!"

	DefaultImageBaseURL = "https://image.pollinations.ai/prompt/"

	ideaSystemPrompt = `You are a creative crypto coin idea generator. Generate unique, fun, and viral meme coin ideas.
You MUST respond in valid JSON format only, with no additional text.
The JSON must have these exact keys: name, symbol, description, imagePrompt`

	ideaUserPrompt = `Generate a creative meme coin idea. Make it fun, catchy, and potentially viral.

Respond ONLY with this JSON format:
{
  "name": "Creative Coin Name",
  "symbol": "SYMBOL",
  "description": "A fun description of what this coin represents",
  "imagePrompt": "A detailed prompt for generating the coin's logo image"
}`

	chatSystemPrompt = `You are CastBot, an AI assistant for the CastLaunchEarn platform.
You help users create coins, understand the platform, check their stats, and navigate features.
You are friendly, helpful, and knowledgeable about crypto, Farcaster, and the Base blockchain.
Keep responses concise but informative.`
)

var ErrAllProvidersFailed = errors.New("all ai providers failed")

type Idea struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	ImagePrompt string `json:"imagePrompt"`
	ImageURL    string `json:"imageUrl"`
}

var FallbackIdea = Idea{
	Name:        "Moon Rocket",
	Symbol:      "MOON",
	Description: "To the moon! 🚀",
	ImagePrompt: "A cute cartoon rocket flying to the moon with stars background",
}

type Config struct {
	MaxAttempts  int
	ImageBaseURL string
}

// Service tries its providers in order. Idea generation and chat never fail
// outright; they degrade to a static fallback.
type Service struct {
	providers    []Provider
	maxAttempts  int
	imageBaseURL string
	seed         func() int
	log          *zap.Logger
}

func NewService(providers []Provider, cfg Config, log *zap.Logger) *Service {
	if cfg.MaxAttempts <= 0 || cfg.MaxAttempts > len(providers) {
		cfg.MaxAttempts = len(providers)
	}
	if strings.TrimSpace(cfg.ImageBaseURL) == "" {
		cfg.ImageBaseURL = DefaultImageBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		providers:    providers,
		maxAttempts:  cfg.MaxAttempts,
		imageBaseURL: cfg.ImageBaseURL,
		seed:         func() int { return rand.IntN(1_000_000) },
		log:          log,
	}
}

// Complete returns the first non-empty completion from the provider chain.
func (s *Service) Complete(ctx context.Context, messages []Message) (string, error) {
	for i := 0; i < s.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		provider := s.providers[i]

		content, err := provider.Complete(ctx, messages)
		if err != nil {
			metrics.RecordAIRequest(provider.Name(), "error")
			s.log.Warn("ai provider failed", zap.String("provider", provider.Name()), zap.Error(err))
			continue
		}
		metrics.RecordAIRequest(provider.Name(), "ok")
		return content, nil
	}
	return "", ErrAllProvidersFailed
}

func (s *Service) GenerateIdea(ctx context.Context) Idea {
	idea := FallbackIdea

	content, err := s.Complete(ctx, []Message{
		{Role: "system", Content: ideaSystemPrompt},
		{Role: "user", Content: ideaUserPrompt},
	})
	if err == nil {
		if parsed, ok := parseIdea(content); ok {
			idea = parsed
		} else {
			s.log.Warn("ai idea reply was not json", zap.Int("length", len(content)))
		}
	}

	idea.ImageURL = s.ImageURL(idea)
	return idea
}

func (s *Service) Chat(ctx context.Context, message, chatContext string) string {
	system := chatSystemPrompt
	if c := strings.TrimSpace(chatContext); c != "" {
		system += "\nCurrent context: " + c
	}

	content, err := s.Complete(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: message},
	})
	if err != nil {
		return ChatApology
	}
	return content
}

// ImageURL points at a generated logo for the idea.
func (s *Service) ImageURL(idea Idea) string {
	prompt := strings.TrimSpace(idea.ImagePrompt)
	if prompt == "" {
		prompt = fmt.Sprintf("Logo for crypto coin %s %s", idea.Name, idea.Symbol)
	}
	return fmt.Sprintf("%s%s?width=1024&height=1024&nologo=true&seed=%d",
		s.imageBaseURL, url.PathEscape(prompt), s.seed())
}

// parseIdea pulls the outermost JSON object out of a reply that may be
// wrapped in prose or a code fence.
func parseIdea(content string) (Idea, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Idea{}, false
	}
	raw := content[start : end+1]
	if !gjson.Valid(raw) {
		return Idea{}, false
	}

	obj := gjson.Parse(raw)
	idea := Idea{
		Name:        strings.TrimSpace(obj.Get("name").String()),
		Symbol:      strings.ToUpper(strings.TrimSpace(obj.Get("symbol").String())),
		Description: strings.TrimSpace(obj.Get("description").String()),
		ImagePrompt: strings.TrimSpace(obj.Get("imagePrompt").String()),
	}
	if idea.Name == "" || idea.Symbol == "" {
		return Idea{}, false
	}
	return idea, true
}
