package media

import (
	"context"
	"fmt"

	"github.com/anatolykoptev/go_garbh/internal/engine"
)

// stubDiscoverer returns a fixed candidate list and counts calls.
type stubDiscoverer struct {
	name    string
	results []engine.SearchResult
	err     error
	calls   int
	queries []string
}

func (s *stubDiscoverer) Name() string { return s.name }

func (s *stubDiscoverer) Discover(_ context.Context, query string, _ []string, limit int) engine.Candidates {
	s.calls++
	s.queries = append(s.queries, query)
	if s.err != nil {
		return engine.FailedCandidates(s.err)
	}
	out := s.results
	if len(out) > limit {
		out = out[:limit]
	}
	return engine.Candidates{Results: out}
}

// setVerifier passes exactly the URLs in ok.
type setVerifier struct {
	ok      map[string]bool
	checked []string
}

func (v *setVerifier) Verify(_ context.Context, url string) bool {
	v.checked = append(v.checked, url)
	return v.ok[url]
}

// setValidator passes exactly the URLs in ok.
type setValidator struct {
	ok    map[string]bool
	calls int
}

func (v *setValidator) Validate(_ context.Context, url string) bool {
	v.calls++
	return v.ok[url]
}

// reply is one scripted model answer.
type reply struct {
	text string
	err  error
}

// replayGenerator answers with replies in order; extra calls get an error.
type replayGenerator struct {
	replies  []reply
	noSearch bool
	calls    int
	prompts  []string
}

func (g *replayGenerator) Name() string            { return "replay" }
func (g *replayGenerator) SupportsWebSearch() bool { return !g.noSearch }

func (g *replayGenerator) Generate(_ context.Context, req engine.GenerateRequest) (*engine.Generation, error) {
	g.calls++
	g.prompts = append(g.prompts, req.Prompt)
	if g.calls > len(g.replies) {
		return nil, fmt.Errorf("replay: unexpected call %d", g.calls)
	}
	r := g.replies[g.calls-1]
	if r.err != nil {
		return nil, r.err
	}
	return &engine.Generation{Text: r.text}, nil
}

// fixedFinder is a LinkFinder with a canned answer.
type fixedFinder struct {
	link  engine.DiscoveredLink
	calls int
	reqs  []engine.DiscoveryRequest
}

func (f *fixedFinder) FindVerifiedLink(_ context.Context, req engine.DiscoveryRequest) engine.DiscoveredLink {
	f.calls++
	f.reqs = append(f.reqs, req)
	return f.link
}

func watchResults(ids ...string) []engine.SearchResult {
	out := make([]engine.SearchResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, engine.SearchResult{ID: id, URL: "https://www.youtube.com/watch?v=" + id})
	}
	return out
}

func resourceJSON(urls ...string) string {
	s := `{"resources": [`
	for i, u := range urls {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf(`{"title": "R%d", "url": %q, "description": "d"}`, i, u)
	}
	return s + "]}"
}
