package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/anatolykoptev/go_garbh/internal/engine/sources"
)

const (
	googleSearchURL       = "https://www.google.com/search"
	defaultRepairAttempts = 2
)

// LinkValidator decides whether an arbitrary URL is reachable.
type LinkValidator interface {
	Validate(ctx context.Context, url string) bool
}

// LinkFinder is the Discovery Orchestrator as seen by the pipeline.
type LinkFinder interface {
	FindVerifiedLink(ctx context.Context, req engine.DiscoveryRequest) engine.DiscoveredLink
}

// Pipeline is the Resource-Repair Pipeline: one broad grounded search, link
// validation, per-slot repair, then a synthesized search link.
type Pipeline struct {
	// Generator overrides the current provider's generator when set.
	Generator      engine.Generator
	Validator      LinkValidator
	Agent          LinkFinder
	Quorum         int
	RepairAttempts int
}

// NewPipeline wires the validator and agent from the engine configuration.
func NewPipeline(agent LinkFinder) *Pipeline {
	return &Pipeline{
		Validator:      sources.NewLinkValidator(),
		Agent:          agent,
		Quorum:         engine.Cfg.ResourceQuorum,
		RepairAttempts: defaultRepairAttempts,
	}
}

type resourceList struct {
	Resources []engine.ResourceLink `json:"resources"`
}

// singleResource accepts either {"resources":[...]} or a bare resource object.
type singleResource struct {
	Resources []engine.ResourceLink `json:"resources"`
	engine.ResourceLink
}

// FindResources returns at least one resource for an activity. exclude lists
// URLs the caller has already shown; they are never returned.
func (p *Pipeline) FindResources(ctx context.Context, title, description, category string, exclude []string) []engine.ResourceLink {
	gen, err := p.generator()
	if err != nil || !gen.SupportsWebSearch() {
		slog.Debug("resources: no grounded search, using agent", slog.String("title", title), slog.Any("error", err))
		return p.agentOrFallback(ctx, title, category, exclude)
	}

	excluded := map[string]bool{}
	for _, u := range exclude {
		excluded[u] = true
	}

	initial, err := p.broadSearch(ctx, gen, title, description, category)
	if err != nil {
		slog.Warn("resources: broad search failed", slog.String("title", title), slog.Any("error", err))
		return p.agentOrFallback(ctx, title, category, exclude)
	}

	var kept []engine.ResourceLink
	seen := map[string]bool{}
	for _, r := range initial {
		if !p.accept(ctx, r, seen, excluded) {
			slog.Debug("resources: dropped candidate", slog.String("url", r.URL))
			continue
		}
		kept = append(kept, r)
	}

	if missing := p.quorum() - len(kept); missing > 0 {
		kept = append(kept, p.repair(ctx, gen, title, description, category, missing, seen, excluded)...)
	}

	if len(kept) == 0 {
		return p.agentOrFallback(ctx, title, category, exclude)
	}
	return kept
}

// accept validates r and records its URL. Duplicates and excluded URLs fail.
func (p *Pipeline) accept(ctx context.Context, r engine.ResourceLink, seen, excluded map[string]bool) bool {
	if r.URL == "" || seen[r.URL] || excluded[r.URL] {
		return false
	}
	if !p.Validator.Validate(ctx, r.URL) {
		return false
	}
	seen[r.URL] = true
	return true
}

func (p *Pipeline) broadSearch(ctx context.Context, gen engine.Generator, title, description, category string) ([]engine.ResourceLink, error) {
	out, err := engine.GenerateWith(ctx, gen, engine.GenerateRequest{
		Prompt:    resourceListPrompt(title, description, category),
		WebSearch: true,
	})
	if err != nil {
		return nil, err
	}
	var list resourceList
	if err := engine.DecodeModelJSON(out.Text, &list); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}
	for i := range list.Resources {
		list.Resources[i].URL = strings.TrimSpace(list.Resources[i].URL)
		list.Resources[i].Provenance = engine.ProvenanceVerified
	}
	return list.Resources, nil
}

// repair runs one narrow single-resource cycle per missing slot. A rate limit
// stops all model calls and falls back once to the agent.
func (p *Pipeline) repair(ctx context.Context, gen engine.Generator, title, description, category string,
	missing int, seen, excluded map[string]bool,
) []engine.ResourceLink {
	var found []engine.ResourceLink
	for range missing {
		engine.IncrRepairCycle()
		r, err := p.repairSlot(ctx, gen, title, description, category, seen, excluded)
		if errors.Is(err, engine.ErrRateLimited) {
			slog.Warn("resources: rate limited during repair, using agent", slog.String("title", title))
			if link, ok := p.agentResource(ctx, title, category, seen, excluded); ok {
				found = append(found, link)
			}
			break
		}
		if r != nil {
			found = append(found, *r)
		}
	}
	return found
}

func (p *Pipeline) repairSlot(ctx context.Context, gen engine.Generator, title, description, category string,
	seen, excluded map[string]bool,
) (*engine.ResourceLink, error) {
	attempts := p.RepairAttempts
	if attempts <= 0 {
		attempts = defaultRepairAttempts
	}
	for attempt := range attempts {
		out, err := engine.GenerateWith(ctx, gen, engine.GenerateRequest{
			Prompt:    resourceRepairPrompt(title, description, category, keys(seen)),
			WebSearch: true,
		})
		if err != nil {
			if engine.IsRateLimited(err) {
				return nil, engine.ErrRateLimited
			}
			slog.Debug("resources: repair call failed", slog.Int("attempt", attempt+1), slog.Any("error", err))
			continue
		}
		var one singleResource
		if err := engine.DecodeModelJSON(out.Text, &one); err != nil {
			slog.Debug("resources: repair parse failed", slog.Int("attempt", attempt+1), slog.Any("error", err))
			continue
		}
		r := one.ResourceLink
		if len(one.Resources) > 0 {
			r = one.Resources[0]
		}
		r.URL = strings.TrimSpace(r.URL)
		if p.accept(ctx, r, seen, excluded) {
			r.Provenance = engine.ProvenanceVerified
			return &r, nil
		}
		slog.Debug("resources: repair candidate rejected", slog.String("url", r.URL))
	}
	return nil, nil
}

// agentResource wraps a specific agent link as a resource. Search-page
// fallbacks and duplicates are not returned.
func (p *Pipeline) agentResource(ctx context.Context, title, category string, seen, excluded map[string]bool) (engine.ResourceLink, bool) {
	if p.Agent == nil {
		return engine.ResourceLink{}, false
	}
	link := p.Agent.FindVerifiedLink(ctx, engine.DiscoveryRequest{
		SearchTerm: strings.TrimSpace(title + " " + category + " pregnancy"),
		Exclude:    keys(excluded),
	})
	if !link.Found() || seen[link.URL] || excluded[link.URL] {
		return engine.ResourceLink{}, false
	}
	seen[link.URL] = true
	return engine.ResourceLink{
		Title:       "Video: " + title,
		URL:         link.URL,
		Description: "A curated video guide for " + title,
		Provenance:  link.Provenance,
	}, true
}

func (p *Pipeline) agentOrFallback(ctx context.Context, title, category string, exclude []string) []engine.ResourceLink {
	excluded := map[string]bool{}
	for _, u := range exclude {
		excluded[u] = true
	}
	if r, ok := p.agentResource(ctx, title, category, map[string]bool{}, excluded); ok {
		return []engine.ResourceLink{r}
	}
	return []engine.ResourceLink{FallbackResource(title, category)}
}

// FallbackResource is the deterministic web-search link for an activity.
// It makes no network call.
func FallbackResource(title, category string) engine.ResourceLink {
	engine.IncrResourceFallback()
	q := strings.TrimSpace(title + " pregnancy activity " + category)
	return engine.ResourceLink{
		Title:       "Search: " + title,
		URL:         engine.SearchQueryURL(googleSearchURL, "q", q),
		Description: "Click here to search for this activity on Google.",
		Provenance:  engine.ProvenanceSearchFallback,
	}
}

func (p *Pipeline) generator() (engine.Generator, error) {
	if p.Generator != nil {
		return p.Generator, nil
	}
	return engine.CurrentProvider().Generator()
}

func (p *Pipeline) quorum() int {
	if p.Quorum > 0 {
		return p.Quorum
	}
	return engine.DefaultResourceQuorum
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func resourceListPrompt(title, description, category string) string {
	return fmt.Sprintf(`Find 3 to 5 high-quality, currently available web resources (articles, videos, guides) for this pregnancy wellness activity.

Activity: %s
Category: %s
Description: %s

Use Google Search. Only include URLs you actually found.
Respond with JSON only, in this exact shape:
{"resources": [{"title": "...", "url": "https://...", "description": "one sentence"}]}`,
		title, category, engine.TruncateAtWord(description, 400))
}

func resourceRepairPrompt(title, description, category string, known []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `Find exactly ONE high-quality, currently available web resource for this pregnancy wellness activity.

Activity: %s
Category: %s
Description: %s
`, title, category, engine.TruncateAtWord(description, 400))
	if len(known) > 0 {
		sb.WriteString("\nDo not return any of these URLs:\n")
		for _, u := range known {
			sb.WriteString("- " + u + "\n")
		}
	}
	sb.WriteString(`
Use Google Search. Respond with JSON only:
{"title": "...", "url": "https://...", "description": "one sentence"}`)
	return sb.String()
}
