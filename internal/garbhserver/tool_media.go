package garbhserver

import (
	"context"
	"errors"
	"strings"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/anatolykoptev/go_garbh/internal/engine/media"
	"github.com/anatolykoptev/go_garbh/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FindMediaLinkInput is the input for find_media_link.
type FindMediaLinkInput struct {
	SearchTerm  string   `json:"search_term" jsonschema:"What to find, e.g. Raag Yaman or Gayatri Mantra"`
	Context     string   `json:"context,omitempty" jsonschema:"Extra words appended to the search, e.g. instrumental meditation"`
	ExcludeURLs []string `json:"exclude_urls,omitempty" jsonschema:"Links already shown to the user"`
	SessionID   string   `json:"session_id,omitempty" jsonschema:"Session id from a previous call; links shown in the session are not repeated"`
}

// FindMediaLinkOutput carries one playable link.
type FindMediaLinkOutput struct {
	SessionID string                `json:"session_id"`
	Link      engine.DiscoveredLink `json:"link"`
}

// FindActivityResourcesInput is the input for find_activity_resources.
type FindActivityResourcesInput struct {
	Title       string   `json:"title" jsonschema:"Activity title"`
	Description string   `json:"description,omitempty" jsonschema:"Activity description"`
	Category    string   `json:"category,omitempty" jsonschema:"MATH, ART, SPIRITUALITY or BONDING"`
	ExcludeURLs []string `json:"exclude_urls,omitempty" jsonschema:"Links already shown to the user"`
	SessionID   string   `json:"session_id,omitempty" jsonschema:"Session id from a previous call"`
}

// FindActivityResourcesOutput lists at least one resource.
type FindActivityResourcesOutput struct {
	SessionID string                `json:"session_id"`
	Resources []engine.ResourceLink `json:"resources"`
}

// ListInput is the input for the catalog listing tools.
type ListInput struct {
	ExcludeURLs []string `json:"exclude_urls,omitempty" jsonschema:"Links already shown to the user"`
	SessionID   string   `json:"session_id,omitempty" jsonschema:"Session id from a previous call"`
}

// RaagasOutput lists raagas with their links.
type RaagasOutput struct {
	SessionID string        `json:"session_id"`
	Raagas    []media.Raaga `json:"raagas"`
}

// MantrasOutput lists mantras with their links.
type MantrasOutput struct {
	SessionID string         `json:"session_id"`
	Mantras   []media.Mantra `json:"mantras"`
}

func registerFindMediaLink(server *mcp.Server, s *Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_media_link",
		Description: "Find one currently playable YouTube link for a topic (raaga, mantra, lullaby, yoga session). Candidates are verified through oEmbed; the provenance field says whether the link was verified, unverified, or is a search_fallback results page.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr(true)},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input FindMediaLinkInput) (*mcp.CallToolResult, *FindMediaLinkOutput, error) {
		out, err := s.findMediaLink(ctx, input)
		return nil, out, err
	})
}

func (s *Services) findMediaLink(ctx context.Context, input FindMediaLinkInput) (*FindMediaLinkOutput, error) {
	term := strings.TrimSpace(input.SearchTerm)
	if term == "" {
		return nil, errors.New("search_term is required")
	}
	sid, exclude := toolutil.Session(ctx, input.SessionID, input.ExcludeURLs)
	link := s.Finder.FindVerifiedLink(ctx, engine.DiscoveryRequest{
		SearchTerm: term,
		Context:    strings.TrimSpace(input.Context),
		Exclude:    exclude,
	})
	toolutil.Remember(ctx, sid, link)
	return &FindMediaLinkOutput{SessionID: sid, Link: link}, nil
}

func registerFindActivityResources(server *mcp.Server, s *Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_activity_resources",
		Description: "Find 1-3 reachable web resources (articles, videos, guides) for a pregnancy wellness activity. Uses grounded search with link validation and repair; always returns at least one resource, falling back to a web search link.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr(true)},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input FindActivityResourcesInput) (*mcp.CallToolResult, *FindActivityResourcesOutput, error) {
		out, err := s.findActivityResources(ctx, input)
		return nil, out, err
	})
}

func (s *Services) findActivityResources(ctx context.Context, input FindActivityResourcesInput) (*FindActivityResourcesOutput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	sid, exclude := toolutil.Session(ctx, input.SessionID, input.ExcludeURLs)
	resources := s.Resources.FindResources(ctx, title, input.Description, strings.ToUpper(strings.TrimSpace(input.Category)), exclude)
	toolutil.Remember(ctx, sid, resourceLinks(resources)...)
	return &FindActivityResourcesOutput{SessionID: sid, Resources: resources}, nil
}

func registerInitialRaagas(server *mcp.Server, s *Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "initial_raagas",
		Description: "List the core pregnancy raagas (Yaman, Bhimpalasi, Bhairavi) with time of day, benefit and a playable link for each.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr(true)},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, *RaagasOutput, error) {
		return nil, s.initialRaagas(ctx, input), nil
	})
}

func (s *Services) initialRaagas(ctx context.Context, input ListInput) *RaagasOutput {
	sid, exclude := toolutil.Session(ctx, input.SessionID, input.ExcludeURLs)
	raagas := media.InitialRaagas(ctx, s.Finder, exclude)
	links := make([]engine.DiscoveredLink, 0, len(raagas))
	for _, r := range raagas {
		links = append(links, engine.DiscoveredLink{URL: r.URL, Provenance: r.Provenance})
	}
	toolutil.Remember(ctx, sid, links...)
	return &RaagasOutput{SessionID: sid, Raagas: raagas}
}

func registerInitialMantras(server *mcp.Server, s *Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "initial_mantras",
		Description: "Pick three mantras from a pool of ten (Gayatri, Om, Shanti, Mahamrityunjaya, ...) with meaning, repetition count and a playable chanting link. The selection and the links vary per call.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr(true)},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, *MantrasOutput, error) {
		return nil, s.initialMantras(ctx, input), nil
	})
}

func (s *Services) initialMantras(ctx context.Context, input ListInput) *MantrasOutput {
	sid, exclude := toolutil.Session(ctx, input.SessionID, input.ExcludeURLs)
	mantras := media.InitialMantras(ctx, s.Finder, exclude)
	links := make([]engine.DiscoveredLink, 0, len(mantras))
	for _, m := range mantras {
		links = append(links, engine.DiscoveredLink{URL: m.URL, Provenance: m.Provenance})
	}
	toolutil.Remember(ctx, sid, links...)
	return &MantrasOutput{SessionID: sid, Mantras: mantras}
}

func resourceLinks(rs []engine.ResourceLink) []engine.DiscoveredLink {
	out := make([]engine.DiscoveredLink, 0, len(rs))
	for _, r := range rs {
		out = append(out, engine.DiscoveredLink{URL: r.URL, Title: r.Title, Provenance: r.Provenance})
	}
	return out
}

func ptr[T any](v T) *T { return &v }
