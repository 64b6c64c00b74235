package garbhserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/anatolykoptev/go_garbh/internal/engine/content"
	"github.com/anatolykoptev/go_garbh/internal/engine/media"
	"github.com/anatolykoptev/go_garbh/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CurriculumInput is the input for daily_curriculum.
type CurriculumInput struct {
	Week        int      `json:"week" jsonschema:"Pregnancy week, 1-42"`
	Mood        string   `json:"mood,omitempty" jsonschema:"How the mother feels today, e.g. Tired, Anxious, Happy"`
	ExcludeURLs []string `json:"exclude_urls,omitempty" jsonschema:"Links already shown to the user"`
	SessionID   string   `json:"session_id,omitempty" jsonschema:"Session id from a previous call"`
}

// CurriculumOutput is the daily plan. Fallback is set when the canned plan
// was served because the provider is rate limited.
type CurriculumOutput struct {
	SessionID  string             `json:"session_id"`
	Sankalpa   content.Sankalpa   `json:"sankalpa"`
	Activities []content.Activity `json:"activities"`
	Fallback   bool               `json:"fallback,omitempty"`
	Notice     string             `json:"notice,omitempty"`
}

// DreamInput is the input for interpret_dream.
type DreamInput struct {
	DreamText string `json:"dream_text" jsonschema:"The dream as the mother wrote it"`
}

// RaagaRecommendationsOutput lists model-chosen raagas with links.
type RaagaRecommendationsOutput struct {
	SessionID string        `json:"session_id"`
	Raagas    []media.Raaga `json:"raagas"`
}

// VedicNamesInput is the input for vedic_names.
type VedicNamesInput struct {
	Gender         string `json:"gender" jsonschema:"boy, girl or unisex"`
	StartingLetter string `json:"starting_letter,omitempty" jsonschema:"Optional first letter"`
	Theme          string `json:"theme,omitempty" jsonschema:"Optional theme: Modern, Traditional, Nature, Spiritual, Royal"`
}

// VedicNamesOutput lists suggested names.
type VedicNamesOutput struct {
	Names []content.VedicName `json:"names"`
}

// DadJokesOutput is a batch of jokes. Fallback is set for the canned joke.
type DadJokesOutput struct {
	Jokes    []string `json:"jokes"`
	Fallback bool     `json:"fallback,omitempty"`
}

type emptyInput struct{}

func registerDailyCurriculum(server *mcp.Server, s *Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "daily_curriculum",
		Description: "Generate today's Garbh Sanskar plan for a pregnancy week: a Sankalpa (virtue, description, mantra) and four activities (MATH, ART, SPIRITUALITY, BONDING), each with validated web resources. Optionally tailored to the mother's mood.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr(true)},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input CurriculumInput) (*mcp.CallToolResult, *CurriculumOutput, error) {
		out, err := s.dailyCurriculum(ctx, input)
		return nil, out, err
	})
}

func (s *Services) dailyCurriculum(ctx context.Context, input CurriculumInput) (*CurriculumOutput, error) {
	sid, exclude := toolutil.Session(ctx, input.SessionID, input.ExcludeURLs)
	mood := strings.TrimSpace(input.Mood)

	c, err := content.DailyCurriculum(ctx, input.Week, mood, s.Resources, exclude)
	if errors.Is(err, engine.ErrRateLimited) {
		slog.Warn("daily_curriculum: rate limited, serving canned plan", slog.Int("week", input.Week))
		canned := content.CannedCurriculum()
		return &CurriculumOutput{
			SessionID:  sid,
			Sankalpa:   canned.Sankalpa,
			Activities: canned.Activities,
			Fallback:   true,
			Notice:     toolutil.TryAgainLater,
		}, nil
	}
	if err != nil {
		return nil, toolutil.ToolError("daily_curriculum", err)
	}

	var shown []engine.ResourceLink
	for _, a := range c.Activities {
		shown = append(shown, a.Resources...)
	}
	toolutil.Remember(ctx, sid, resourceLinks(shown)...)

	return &CurriculumOutput{SessionID: sid, Sankalpa: c.Sankalpa, Activities: c.Activities}, nil
}

func registerInterpretDream(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "interpret_dream",
		Description: "Gently interpret a pregnancy dream journal entry and return an interpretation with a positive affirmation.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input DreamInput) (*mcp.CallToolResult, *content.DreamInterpretation, error) {
		d, err := content.InterpretDream(ctx, input.DreamText)
		if err != nil {
			return nil, nil, toolutil.ToolError("interpret_dream", err)
		}
		return nil, d, nil
	})
}

func registerFinancialWisdom(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "financial_wisdom",
		Description: "Three practical financial planning tips for expecting parents, each with an icon name (PiggyBank, TrendingUp, DollarSign, Wallet, CreditCard).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, *content.FinancialWisdom, error) {
		f, err := content.GenerateFinancialWisdom(ctx)
		if err != nil {
			return nil, nil, toolutil.ToolError("financial_wisdom", err)
		}
		return nil, f, nil
	})
}

func registerRhythmicMath(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "rhythmic_math",
		Description: "Three rhythmic math activities (beat counting, skip counting) with a duration and tempo in BPM.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, *content.RhythmicMath, error) {
		r, err := content.GenerateRhythmicMath(ctx)
		if err != nil {
			return nil, nil, toolutil.ToolError("rhythmic_math", err)
		}
		return nil, r, nil
	})
}

func registerRaagaRecommendations(server *mcp.Server, s *Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "raaga_recommendations",
		Description: "Ask the guide for three calming raagas for different times of day and find a playable link for each.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr(true)},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, *RaagaRecommendationsOutput, error) {
		out, err := s.raagaRecommendations(ctx, input)
		return nil, out, err
	})
}

func (s *Services) raagaRecommendations(ctx context.Context, input ListInput) (*RaagaRecommendationsOutput, error) {
	sid, exclude := toolutil.Session(ctx, input.SessionID, input.ExcludeURLs)
	list, err := content.RaagaRecommendations(ctx, s.Finder, exclude)
	if err != nil {
		return nil, toolutil.ToolError("raaga_recommendations", err)
	}
	links := make([]engine.DiscoveredLink, 0, len(list.Raagas))
	for _, r := range list.Raagas {
		links = append(links, engine.DiscoveredLink{URL: r.URL, Provenance: r.Provenance})
	}
	toolutil.Remember(ctx, sid, links...)
	return &RaagaRecommendationsOutput{SessionID: sid, Raagas: list.Raagas}, nil
}

func registerVedicNames(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "vedic_names",
		Description: "Suggest Vedic/Sanskrit baby names with meaning, origin and significance. Filter by gender (boy, girl, unisex), starting letter and theme (Modern, Traditional, Nature, Spiritual, Royal).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input VedicNamesInput) (*mcp.CallToolResult, *VedicNamesOutput, error) {
		cacheKey := engine.CacheKey("vedic_names", strings.ToLower(input.Gender), strings.ToUpper(input.StartingLetter), input.Theme)
		if out, ok := toolutil.CacheLoadJSON[VedicNamesOutput](ctx, cacheKey); ok {
			return nil, &out, nil
		}
		names, err := content.VedicNames(ctx, input.Gender, input.StartingLetter, input.Theme)
		if err != nil {
			return nil, nil, toolutil.ToolError("vedic_names", err)
		}
		out := VedicNamesOutput{Names: names}
		if len(names) > 0 {
			toolutil.CacheStoreJSON(ctx, cacheKey, out)
		}
		return nil, &out, nil
	})
}

func registerDadJokes(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "dad_jokes",
		Description: "A batch of wholesome dad jokes for the expecting father.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, *DadJokesOutput, error) {
		return nil, dadJokes(ctx), nil
	})
}

// dadJokes never fails; any generation error serves the canned joke.
func dadJokes(ctx context.Context) *DadJokesOutput {
	jokes, err := content.DadJokes(ctx)
	if err != nil {
		slog.Warn("dad_jokes: serving canned joke", slog.Any("error", err))
		return &DadJokesOutput{Jokes: []string{content.CannedJoke}, Fallback: true}
	}
	return &DadJokesOutput{Jokes: jokes}
}
