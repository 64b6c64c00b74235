package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"github.com/cenkalti/backoff/v5"
	"google.golang.org/genai"
)

// GenerateRequest is one "ask a language model for text" call.
type GenerateRequest struct {
	Prompt    string
	System    string
	JSON      bool // hint that the answer must be a JSON document
	WebSearch bool // enable the provider's web-search grounding tool
}

// Citation is a web source the model's search tool visited.
// URL may be a grounding-proxy redirect rather than the destination.
type Citation struct {
	URL   string
	Title string
}

// Generation is a model answer plus its grounding side-channel.
type Generation struct {
	Text      string
	Citations []Citation
	Queries   []string // web search queries the tool issued
}

// Generator is the language-model collaborator.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Generation, error)
	SupportsWebSearch() bool
	Name() string
}

// newGenerator builds the generator for a provider snapshot.
func newGenerator(s ProviderSettings) (Generator, error) {
	switch s.Provider {
	case ProviderGroq:
		if s.GroqAPIKey == "" {
			return nil, fmt.Errorf("groq: %w", ErrNoProvider)
		}
		return newGroqGenerator(s.GroqAPIKey, s.ModelName), nil
	default:
		if s.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini: %w", ErrNoProvider)
		}
		g, err := newGeminiGenerator(context.Background(), s.GeminiAPIKey, s.ModelName)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
}

// Generate runs req on the current provider with the configured timeout.
// Transient failures are retried with backoff; rate-limits are returned at once
// wrapped in ErrRateLimited.
func Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	gen, err := CurrentProvider().Generator()
	if err != nil {
		return nil, err
	}
	return GenerateWith(ctx, gen, req)
}

// GenerateWith runs req on a specific generator.
func GenerateWith(ctx context.Context, gen Generator, req GenerateRequest) (*Generation, error) {
	if req.WebSearch && !gen.SupportsWebSearch() {
		return nil, ErrNoGrounding
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.ModelTimeout)
	defer cancel()

	operation := func() (*Generation, error) {
		metrics.LLMCalls.Add(1)
		out, err := gen.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		metrics.LLMErrors.Add(1)
		if IsRateLimited(err) {
			metrics.RateLimited.Add(1)
			return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrRateLimited, err))
		}
		if !isTransient(err) {
			return nil, backoff.Permanent(err)
		}
		slog.Debug("llm: transient error, retrying", slog.String("provider", gen.Name()), slog.Any("error", err))
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 4 * time.Second

	out, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Text) == "" && len(out.Citations) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}

// isTransient returns true for network failures and 5xx-like provider errors.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if code, ok := apiErrorCode(err); ok {
		return code >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	for _, m := range []string{"500", "502", "503", "504", "UNAVAILABLE", "INTERNAL"} {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// --- Gemini ---

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func newGeminiGenerator(ctx context.Context, apiKey, model string) (*geminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.ModelTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &geminiGenerator{client: client, model: model}, nil
}

func (g *geminiGenerator) Name() string            { return "gemini:" + g.model }
func (g *geminiGenerator) SupportsWebSearch() bool { return true }

func (g *geminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	conf := &genai.GenerateContentConfig{}
	if req.System != "" {
		conf.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.WebSearch {
		// The JSON mime type conflicts with tool use; the prompt asks for JSON instead.
		conf.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if req.JSON {
		conf.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), conf)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	out := &Generation{Text: resp.Text()}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out, nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return out, nil
	}
	out.Queries = gm.WebSearchQueries
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		out.Citations = append(out.Citations, Citation{URL: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return out, nil
}

// --- Groq (OpenAI-compatible) ---

type groqGenerator struct {
	client *llm.Client
	model  string
}

func newGroqGenerator(apiKey, model string) *groqGenerator {
	client := llm.NewClient(cfg.GroqAPIBase, apiKey, model,
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithTemperature(cfg.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: cfg.ModelTimeout}),
	)
	return &groqGenerator{client: client, model: model}
}

func (g *groqGenerator) Name() string            { return "groq:" + g.model }
func (g *groqGenerator) SupportsWebSearch() bool { return false }

const jsonOnlyInstruction = "Respond with a single valid JSON object and nothing else."

func (g *groqGenerator) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	if req.WebSearch {
		return nil, ErrNoGrounding
	}
	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\n\n" + jsonOnlyInstruction)
	}
	text, err := g.client.Complete(ctx, system, req.Prompt)
	if err != nil {
		return nil, fmt.Errorf("groq complete: %w", err)
	}
	return &Generation{Text: StripFences(text)}, nil
}
