package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// scriptedGenerator replays errs in order, then answers with out.
type scriptedGenerator struct {
	errs      []error
	out       *Generation
	webSearch bool
	calls     int
}

func (g *scriptedGenerator) Name() string            { return "scripted" }
func (g *scriptedGenerator) SupportsWebSearch() bool { return g.webSearch }

func (g *scriptedGenerator) Generate(context.Context, GenerateRequest) (*Generation, error) {
	g.calls++
	if g.calls <= len(g.errs) {
		return nil, g.errs[g.calls-1]
	}
	return g.out, nil
}

func TestGenerateWith_RetriesTransient(t *testing.T) {
	g := &scriptedGenerator{
		errs: []error{errors.New("gemini generate: Error 503, UNAVAILABLE")},
		out:  &Generation{Text: "ok"},
	}
	out, err := GenerateWith(context.Background(), g, GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.Equal(t, 2, g.calls)
}

func TestGenerateWith_RateLimitIsNotRetried(t *testing.T) {
	g := &scriptedGenerator{
		errs: []error{errors.New("Error 429, RESOURCE_EXHAUSTED")},
		out:  &Generation{Text: "never"},
	}
	_, err := GenerateWith(context.Background(), g, GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, 1, g.calls)
}

func TestGenerateWith_StrayDigitsAreNotRateLimits(t *testing.T) {
	g := &scriptedGenerator{
		errs: []error{errors.New(`Post "https://api.example.com/v1/jobs/429": 503 Service Unavailable`)},
		out:  &Generation{Text: "ok"},
	}
	out, err := GenerateWith(context.Background(), g, GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.Equal(t, 2, g.calls, "a transient error is retried")
}

func TestGenerateWith_PermanentError(t *testing.T) {
	g := &scriptedGenerator{errs: []error{errors.New("invalid argument")}}
	_, err := GenerateWith(context.Background(), g, GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.False(t, IsRateLimited(err))
	assert.Equal(t, 1, g.calls)
}

func TestGenerateWith_NoGrounding(t *testing.T) {
	g := &scriptedGenerator{out: &Generation{Text: "x"}}
	_, err := GenerateWith(context.Background(), g, GenerateRequest{Prompt: "p", WebSearch: true})
	assert.ErrorIs(t, err, ErrNoGrounding)
	assert.Zero(t, g.calls)
}

func TestGenerateWith_Empty(t *testing.T) {
	g := &scriptedGenerator{out: &Generation{Text: "  "}}
	_, err := GenerateWith(context.Background(), g, GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	// Citations alone count as an answer.
	g = &scriptedGenerator{out: &Generation{Citations: []Citation{{URL: "https://example.com"}}}}
	out, err := GenerateWith(context.Background(), g, GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Len(t, out.Citations, 1)
}

func TestGenerate_NoProvider(t *testing.T) {
	SetGenerator(ProviderGemini, "m", nil)
	_, err := Generate(context.Background(), GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrRateLimited, true},
		{"wrapped", errors.Join(errors.New("x"), ErrRateLimited), true},
		{"429 text", errors.New("status 429 Too Many Requests"), true},
		{"gemini quota", errors.New("RESOURCE_EXHAUSTED: quota"), true},
		{"groq", errors.New("rate_limit_exceeded"), true},
		{"error 429", errors.New("Error 429"), true},
		{"gemini api 429", fmt.Errorf("gemini generate: %w", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}), true},
		{"gemini api 400", fmt.Errorf("gemini generate: %w", genai.APIError{Code: 400, Message: "quota 429 words"}), false},
		{"429 in url", errors.New(`Post "https://api.example.com/v1/batch/429": dial tcp: i/o timeout`), false},
		{"429 in host", errors.New("lookup node429.example.net: no such host"), false},
		{"other", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestUpdateProvider(t *testing.T) {
	Init(Config{})
	SetGenerator(ProviderGemini, DefaultModel(ProviderGemini), nil)

	t.Run("invalid provider keeps snapshot", func(t *testing.T) {
		before := CurrentProvider()
		_, err := UpdateProvider(ProviderUpdate{Provider: "openai"})
		require.Error(t, err)
		assert.Same(t, before, CurrentProvider())
	})

	t.Run("groq without key has no generator", func(t *testing.T) {
		s, err := UpdateProvider(ProviderUpdate{Provider: "groq"})
		require.NoError(t, err)
		assert.Equal(t, ProviderGroq, s.Provider)
		assert.Equal(t, "llama-3.3-70b-versatile", s.ModelName)
		assert.False(t, s.HasGroqKey)
		_, err = s.Generator()
		assert.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("groq with key publishes new snapshot", func(t *testing.T) {
		before := CurrentProvider()
		s, err := UpdateProvider(ProviderUpdate{GroqAPIKey: "gsk_test", ModelName: "llama-3.1-8b-instant"})
		require.NoError(t, err)
		assert.NotSame(t, before, s)
		assert.Same(t, s, CurrentProvider())
		assert.True(t, s.HasGroqKey)
		gen, err := s.Generator()
		require.NoError(t, err)
		assert.Equal(t, "groq:llama-3.1-8b-instant", gen.Name())
		assert.False(t, gen.SupportsWebSearch())
		// The earlier snapshot is untouched.
		assert.False(t, before.HasGroqKey)
	})
}
