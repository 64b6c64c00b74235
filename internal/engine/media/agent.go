// Package media finds playable media links and activity resources.
// It composes the leaf components of engine/sources into bounded fallback
// policies that always return a usable answer.
package media

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/anatolykoptev/go_garbh/internal/engine/sources"
)

const ytSearchResultsURL = "https://www.youtube.com/results"

// Discoverer is a content discovery strategy. Implementations never panic and
// report failure through the returned Candidates.
type Discoverer interface {
	Name() string
	Discover(ctx context.Context, query string, exclude []string, limit int) engine.Candidates
}

// Verifier decides whether a candidate URL is live, embeddable content.
type Verifier interface {
	Verify(ctx context.Context, url string) bool
}

// Agent is the Discovery Orchestrator. It verifies candidates one at a time
// until a quorum is reached and returns a random member of the verified pool.
type Agent struct {
	Primary   Discoverer
	Secondary Discoverer // tried once when Primary yields no verified candidate; may be nil
	Verifier  Verifier
	Limit     int
	Quorum    int
	// Pick returns an index in [0, n). Defaults to a uniform random choice.
	Pick func(n int) int
}

// NewAgent wires the scraper, the grounded extractor and the oEmbed verifier
// from the engine configuration.
func NewAgent() *Agent {
	return &Agent{
		Primary:   sources.NewScraper(),
		Secondary: sources.NewGroundedExtractor(),
		Verifier:  sources.NewVerifier(),
		Limit:     engine.Cfg.CandidateLimit,
		Quorum:    engine.Cfg.VerifyQuorum,
	}
}

// FindVerifiedLink returns one link for the request. It never fails: when no
// candidate verifies it degrades to the first scraped candidate, then to a
// platform search-results URL. The Provenance field says which.
func (a *Agent) FindVerifiedLink(ctx context.Context, req engine.DiscoveryRequest) engine.DiscoveredLink {
	engine.IncrDiscovery()
	query := strings.TrimSpace(req.SearchTerm + " " + req.Context)
	exclude := excludeSet(req)

	primary := a.discover(ctx, a.Primary, query, req.Exclude)
	if link, ok := a.selectVerified(ctx, primary, exclude); ok {
		slog.Info("agent: verified link",
			slog.String("query", query), slog.String("strategy", a.Primary.Name()), slog.String("url", link.URL))
		return link
	}

	if a.Secondary != nil {
		secondary := a.discover(ctx, a.Secondary, query, req.Exclude)
		if link, ok := a.selectVerified(ctx, secondary, exclude); ok {
			slog.Info("agent: verified link",
				slog.String("query", query), slog.String("strategy", a.Secondary.Name()), slog.String("url", link.URL))
			return link
		}
	}

	for _, r := range primary.Results {
		if exclude[r.URL] {
			continue
		}
		engine.IncrDiscoveryUnverified()
		slog.Info("agent: no candidate verified, returning first scraped",
			slog.String("query", query), slog.String("url", r.URL))
		return engine.DiscoveredLink{URL: r.URL, Title: r.Title, Provenance: engine.ProvenanceUnverified}
	}

	engine.IncrDiscoveryFallback()
	fallback := SearchFallbackURL(req.SearchTerm)
	slog.Info("agent: no candidates, returning search page",
		slog.String("query", query), slog.String("url", fallback))
	return engine.DiscoveredLink{URL: fallback, Title: req.SearchTerm, Provenance: engine.ProvenanceSearchFallback}
}

// excludeSet holds the excluded URLs plus the canonical watch URL of each
// excluded video, so a short link excludes its watch-page form too.
func excludeSet(req engine.DiscoveryRequest) map[string]bool {
	set := req.ExcludeSet()
	for u := range set {
		if id := sources.ExtractVideoID(u); id != "" {
			set[sources.WatchURL(id)] = true
		}
	}
	return set
}

// SearchFallbackURL is the always-resolvable platform search page for term.
func SearchFallbackURL(term string) string {
	return engine.SearchQueryURL(ytSearchResultsURL, "search_query", term)
}

func (a *Agent) discover(ctx context.Context, d Discoverer, query string, exclude []string) engine.Candidates {
	if d == nil {
		return engine.Candidates{}
	}
	c := d.Discover(ctx, query, exclude, a.limit())
	if c.Status() == engine.StatusFailed {
		slog.Debug("agent: strategy failed", slog.String("strategy", d.Name()), slog.Any("error", c.Err))
	}
	return c
}

// selectVerified verifies candidates in order, skipping excluded ones, until
// the quorum is reached, then picks one verified candidate at random.
func (a *Agent) selectVerified(ctx context.Context, c engine.Candidates, exclude map[string]bool) (engine.DiscoveredLink, bool) {
	quorum := a.Quorum
	if quorum <= 0 {
		quorum = engine.DefaultVerifyQuorum
	}
	var pool []engine.SearchResult
	for _, r := range c.Results {
		if len(pool) >= quorum {
			break
		}
		if exclude[r.URL] {
			continue
		}
		if a.Verifier.Verify(ctx, r.URL) {
			r.Verified = true
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		return engine.DiscoveredLink{}, false
	}
	chosen := pool[a.pick(len(pool))]
	return engine.DiscoveredLink{URL: chosen.URL, Title: chosen.Title, Provenance: engine.ProvenanceVerified}, true
}

func (a *Agent) pick(n int) int {
	if a.Pick != nil {
		return a.Pick(n)
	}
	return rand.IntN(n)
}

func (a *Agent) limit() int {
	if a.Limit > 0 {
		return a.Limit
	}
	return engine.DefaultCandidateLimit
}
