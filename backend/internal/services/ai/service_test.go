package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Complete(context.Context, []Message) (string, error) {
	p.calls++
	return p.reply, p.err
}

func completionServer(t *testing.T, status int, content string, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req completionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1000, req.MaxTokens)
		assert.InDelta(t, 0.8, req.Temperature, 1e-9)

		w.WriteHeader(status)
		reply, _ := json.Marshal(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
		_, _ = w.Write(reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompleteFallsThroughProviders(t *testing.T) {
	var downHits, upHits atomic.Int32
	down := completionServer(t, http.StatusServiceUnavailable, "", &downHits)
	up := completionServer(t, http.StatusOK, "hello there", &upHits)

	svc := NewService([]Provider{
		NewOpenAIProvider(ProviderConfig{Name: "down", URL: down.URL, APIKey: "test-key", Model: "m"}),
		NewOpenAIProvider(ProviderConfig{Name: "up", URL: up.URL, APIKey: "test-key", Model: "m"}),
	}, Config{}, nil)

	content, err := svc.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello there", content)
	assert.Equal(t, int32(1), downHits.Load())
	assert.Equal(t, int32(1), upHits.Load())
}

func TestCompleteHonoursAttemptBound(t *testing.T) {
	first := &stubProvider{name: "a", err: errors.New("boom")}
	second := &stubProvider{name: "b", reply: "never reached"}

	svc := NewService([]Provider{first, second}, Config{MaxAttempts: 1}, nil)

	_, err := svc.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.Equal(t, 0, second.calls)
}

func TestGenerateIdeaParsesFencedJSON(t *testing.T) {
	provider := &stubProvider{name: "a", reply: "Sure!\n```json\n{\"name\":\"Frog Fest\",\"symbol\":\"frog\",\"description\":\"ribbit\",\"imagePrompt\":\"a green frog\"}\n```"}
	svc := NewService([]Provider{provider}, Config{}, nil)
	svc.seed = func() int { return 42 }

	idea := svc.GenerateIdea(context.Background())
	assert.Equal(t, "Frog Fest", idea.Name)
	assert.Equal(t, "FROG", idea.Symbol)
	assert.Equal(t, "https://image.pollinations.ai/prompt/a%20green%20frog?width=1024&height=1024&nologo=true&seed=42", idea.ImageURL)
}

func TestGenerateIdeaFallsBack(t *testing.T) {
	cases := map[string][]Provider{
		"no providers":  nil,
		"all failing":   {&stubProvider{name: "a", err: errors.New("down")}},
		"not json":      {&stubProvider{name: "a", reply: "I cannot do that"}},
		"missing field": {&stubProvider{name: "a", reply: `{"name":"Only Name"}`}},
	}

	for name, providers := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(providers, Config{}, nil)
			idea := svc.GenerateIdea(context.Background())
			assert.Equal(t, "Moon Rocket", idea.Name)
			assert.Equal(t, "MOON", idea.Symbol)
			assert.True(t, strings.HasPrefix(idea.ImageURL, DefaultImageBaseURL+"A%20cute%20cartoon%20rocket"))
		})
	}
}

func TestChatApologisesWhenProvidersFail(t *testing.T) {
	svc := NewService([]Provider{&stubProvider{name: "a", err: errors.New("down")}}, Config{}, nil)
	assert.Equal(t, ChatApology, svc.Chat(context.Background(), "hello", ""))

	ok := NewService([]Provider{&stubProvider{name: "a", reply: "gm"}}, Config{}, nil)
	assert.Equal(t, "gm", ok.Chat(context.Background(), "hello", "on the create page"))
}

func TestDefaultProvidersSkipsMissingKeys(t *testing.T) {
	providers := DefaultProviders([3]string{"", "key-2", " "}, 0)
	require.Len(t, providers, 1)
	assert.Equal(t, "openrouter", providers[0].Name())
}
