package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anatolykoptev/go_garbh/internal/engine"
)

// Grounded-Search Extractor: one web-search-grounded model call, then candidates
// are mined from the grounding citations (resolved through the proxy layer) and,
// with lower confidence, from URLs in the answer text.

const (
	groundedMaxExcluded = 5
	redirectMaxHops     = 5
)

// groundingProxyHosts serve redirect links in place of cited destinations.
var groundingProxyHosts = map[string]bool{
	"vertexaisearch.cloud.google.com": true,
}

// GroundedExtractor is the secondary discovery strategy.
type GroundedExtractor struct {
	// Generator overrides the current provider's generator when set.
	Generator engine.Generator
	Resolver  *RedirectResolver
}

// NewGroundedExtractor builds an extractor on the current provider.
func NewGroundedExtractor() *GroundedExtractor {
	return &GroundedExtractor{Resolver: NewRedirectResolver()}
}

// Name implements the discovery strategy interface.
func (g *GroundedExtractor) Name() string { return "grounded" }

// Discover implements the discovery strategy interface.
func (g *GroundedExtractor) Discover(ctx context.Context, query string, exclude []string, limit int) engine.Candidates {
	return g.SearchGrounded(ctx, query, exclude, limit)
}

// SearchGrounded asks the model to web-search for videos matching query and
// returns canonical watch-URL candidates not present in exclude.
func (g *GroundedExtractor) SearchGrounded(ctx context.Context, query string, exclude []string, limit int) engine.Candidates {
	engine.IncrGroundedSearch()
	if limit <= 0 {
		limit = engine.Cfg.CandidateLimit
	}
	gen := g.Generator
	if gen == nil {
		var err error
		if gen, err = engine.CurrentProvider().Generator(); err != nil {
			return engine.FailedCandidates(err)
		}
	}

	out, err := engine.GenerateWith(ctx, gen, engine.GenerateRequest{
		Prompt:    groundedPrompt(query, exclude),
		WebSearch: true,
	})
	if err != nil {
		slog.Debug("grounded: model call failed", slog.String("query", query), slog.Any("error", err))
		return engine.FailedCandidates(fmt.Errorf("grounded search: %w", err))
	}

	results := g.extract(ctx, out, exclude, limit)
	slog.Debug("grounded: candidates",
		slog.String("query", query),
		slog.Any("web_queries", out.Queries),
		slog.Int("citations", len(out.Citations)),
		slog.Int("count", len(results)))
	return engine.Candidates{Results: results}
}

func groundedPrompt(query string, exclude []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Search YouTube for videos about: %s\n", query)
	sb.WriteString("List each video as its full watch URL followed by its title, one per line.\n")
	if len(exclude) > groundedMaxExcluded {
		exclude = exclude[:groundedMaxExcluded]
	}
	if len(exclude) > 0 {
		sb.WriteString("Do not list these URLs, they are unavailable:\n")
		for _, u := range exclude {
			sb.WriteString("- " + u + "\n")
		}
	}
	return sb.String()
}

// extract merges citation and text candidates, keyed by video ID.
func (g *GroundedExtractor) extract(ctx context.Context, out *engine.Generation, exclude []string, limit int) []engine.SearchResult {
	excluded := map[string]bool{}
	for _, u := range exclude {
		if id := ExtractVideoID(u); id != "" {
			excluded[id] = true
		}
	}
	seen := map[string]bool{}
	var results []engine.SearchResult
	add := func(rawURL, title string) {
		id := ExtractVideoID(rawURL)
		if id == "" || seen[id] || excluded[id] || len(results) >= limit {
			return
		}
		seen[id] = true
		results = append(results, engine.SearchResult{ID: id, URL: WatchURL(id), Title: citationTitle(title)})
	}

	for _, c := range out.Citations {
		dest := c.URL
		if g.Resolver != nil && g.Resolver.IsProxy(dest) {
			resolved, err := g.Resolver.Resolve(ctx, dest)
			if err != nil {
				slog.Debug("grounded: redirect unresolved", slog.String("url", dest), slog.Any("error", err))
				continue
			}
			dest = resolved
		}
		add(dest, c.Title)
	}
	for _, u := range findVideoURLs(out.Text) {
		add(u, "")
	}
	return results
}

// citationTitle drops titles that are just the cited domain.
func citationTitle(t string) string {
	t = strings.TrimSpace(t)
	if strings.Contains(t, " ") || !strings.Contains(t, ".") {
		return t
	}
	return ""
}

// RedirectResolver follows a grounding-proxy redirect chain hop by hop.
type RedirectResolver struct {
	Client  *http.Client // must not follow redirects itself
	Timeout time.Duration
	MaxHops int
}

// NewRedirectResolver builds a resolver from the engine configuration.
func NewRedirectResolver() *RedirectResolver {
	return &RedirectResolver{
		Client:  engine.NoRedirectClient(engine.Cfg.HTTPClient),
		Timeout: engine.Cfg.VerifyTimeout,
		MaxHops: redirectMaxHops,
	}
}

// IsProxy reports whether rawURL is a grounding redirect rather than a destination.
func (r *RedirectResolver) IsProxy(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return groundingProxyHosts[strings.ToLower(u.Hostname())] ||
		strings.Contains(u.Path, "grounding-api-redirect")
}

// Resolve returns the final destination of rawURL. It stops early once a hop
// lands on the video platform, without requesting the platform page.
func (r *RedirectResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	engine.IncrRedirectResolve()
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = engine.DefaultVerifyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hops := r.MaxHops
	if hops <= 0 {
		hops = redirectMaxHops
	}
	current := rawURL
	for range hops {
		next, err := r.hop(ctx, current)
		if err != nil {
			return "", err
		}
		if next == "" {
			return current, nil
		}
		current = next
		if IsYouTubeHost(current) {
			return current, nil
		}
	}
	return current, nil
}

// hop requests rawURL once and returns the redirect target, or "" when the
// response is not a redirect.
func (r *RedirectResolver) hop(ctx context.Context, rawURL string) (string, error) {
	resp, err := r.do(ctx, http.MethodHead, rawURL)
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		resp.Body.Close()
		resp, err = r.do(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return "", nil
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", nil
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rawURL, err)
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("resolve location %q: %w", loc, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (r *RedirectResolver) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", engine.UserAgentChrome)
	return r.Client.Do(req)
}
