package media

import (
	"context"
	"errors"
	"testing"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindVerifiedLink_NoCandidates(t *testing.T) {
	a := &Agent{
		Primary:  &stubDiscoverer{name: "scraper"},
		Verifier: &setVerifier{},
	}
	got := a.FindVerifiedLink(context.Background(), engine.DiscoveryRequest{SearchTerm: "Raag Yaman", Context: "instrumental"})

	assert.Equal(t, engine.ProvenanceSearchFallback, got.Provenance)
	assert.False(t, got.Found())
	assert.Contains(t, got.URL, "Raag+Yaman")
	assert.NotContains(t, got.URL, "instrumental", "fallback is built from the search term only")
	assert.Equal(t, "https://www.youtube.com/results?search_query=Raag+Yaman", got.URL)
}

func TestFindVerifiedLink_RandomAmongVerified(t *testing.T) {
	results := watchResults("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd", "eeeeeeeeeee")
	verified := map[string]bool{results[1].URL: true, results[3].URL: true}
	a := &Agent{
		Primary:  &stubDiscoverer{name: "scraper", results: results},
		Verifier: &setVerifier{ok: verified},
	}

	seen := map[string]int{}
	for range 200 {
		got := a.FindVerifiedLink(context.Background(), engine.DiscoveryRequest{SearchTerm: "lullaby"})
		require.True(t, verified[got.URL], "returned unverified %s", got.URL)
		assert.Equal(t, engine.ProvenanceVerified, got.Provenance)
		seen[got.URL]++
	}
	assert.Len(t, seen, 2, "both verified links should appear across trials")
}

func TestFindVerifiedLink_StopsAtQuorum(t *testing.T) {
	results := watchResults("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd", "eeeeeeeeeee")
	all := map[string]bool{}
	for _, r := range results {
		all[r.URL] = true
	}
	v := &setVerifier{ok: all}
	a := &Agent{
		Primary:  &stubDiscoverer{name: "scraper", results: results},
		Verifier: v,
		Quorum:   3,
		Pick:     func(n int) int { return n - 1 },
	}
	got := a.FindVerifiedLink(context.Background(), engine.DiscoveryRequest{SearchTerm: "om"})
	assert.Len(t, v.checked, 3)
	assert.Equal(t, results[2].URL, got.URL)
}

func TestFindVerifiedLink_ExcludedNeverReturned(t *testing.T) {
	results := watchResults("aaaaaaaaaaa", "bbbbbbbbbbb")
	v := &setVerifier{ok: map[string]bool{results[0].URL: true, results[1].URL: true}}
	a := &Agent{
		Primary:  &stubDiscoverer{name: "scraper", results: results},
		Verifier: v,
	}
	for range 50 {
		got := a.FindVerifiedLink(context.Background(), engine.DiscoveryRequest{
			SearchTerm: "gayatri",
			Exclude:    []string{results[0].URL},
		})
		assert.Equal(t, results[1].URL, got.URL)
	}
	assert.NotContains(t, v.checked, results[0].URL, "excluded candidates are not verified")
}

func TestFindVerifiedLink_ShortLinkExcludesWatchURL(t *testing.T) {
	results := watchResults("aaaaaaaaaaa")
	a := &Agent{
		Primary:  &stubDiscoverer{name: "scraper", results: results},
		Verifier: &setVerifier{ok: map[string]bool{results[0].URL: true}},
	}
	got := a.FindVerifiedLink(context.Background(), engine.DiscoveryRequest{
		SearchTerm: "om",
		Exclude:    []string{"https://youtu.be/aaaaaaaaaaa"},
	})
	assert.Equal(t, engine.ProvenanceSearchFallback, got.Provenance)
}

func TestFindVerifiedLink_UnverifiedDegrade(t *testing.T) {
	results := watchResults("aaaaaaaaaaa", "bbbbbbbbbbb")
	a := &Agent{
		Primary:  &stubDiscoverer{name: "scraper", results: results},
		Verifier: &setVerifier{},
	}
	got := a.FindVerifiedLink(context.Background(), engine.DiscoveryRequest{
		SearchTerm: "om",
		Exclude:    []string{results[0].URL},
	})
	assert.Equal(t, results[1].URL, got.URL)
	assert.Equal(t, engine.ProvenanceUnverified, got.Provenance)
	assert.True(t, got.Found())
}

func TestFindVerifiedLink_SecondaryStrategy(t *testing.T) {
	scraped := watchResults("aaaaaaaaaaa")
	grounded := watchResults("zzzzzzzzzzz")
	secondary := &stubDiscoverer{name: "grounded", results: grounded}
	a := &Agent{
		Primary:   &stubDiscoverer{name: "scraper", results: scraped},
		Secondary: secondary,
		Verifier:  &setVerifier{ok: map[string]bool{grounded[0].URL: true}},
	}
	got := a.FindVerifiedLink(context.Background(), engine.DiscoveryRequest{SearchTerm: "yaman"})
	assert.Equal(t, grounded[0].URL, got.URL)
	assert.Equal(t, engine.ProvenanceVerified, got.Provenance)
	assert.Equal(t, 1, secondary.calls)
}

func TestFindVerifiedLink_SecondaryNotCalledWhenPrimaryVerifies(t *testing.T) {
	scraped := watchResults("aaaaaaaaaaa")
	secondary := &stubDiscoverer{name: "grounded"}
	a := &Agent{
		Primary:   &stubDiscoverer{name: "scraper", results: scraped},
		Secondary: secondary,
		Verifier:  &setVerifier{ok: map[string]bool{scraped[0].URL: true}},
	}
	a.FindVerifiedLink(context.Background(), engine.DiscoveryRequest{SearchTerm: "yaman"})
	assert.Zero(t, secondary.calls)
}

func TestFindVerifiedLink_FailedStrategiesFallBack(t *testing.T) {
	primary := &stubDiscoverer{name: "scraper", err: errors.New("status 429")}
	a := &Agent{
		Primary:   primary,
		Secondary: &stubDiscoverer{name: "grounded", err: engine.ErrNoGrounding},
		Verifier:  &setVerifier{},
	}
	got := a.FindVerifiedLink(context.Background(), engine.DiscoveryRequest{SearchTerm: "Om Chanting", Context: "healing"})
	assert.Equal(t, engine.ProvenanceSearchFallback, got.Provenance)
	assert.Equal(t, []string{"Om Chanting healing"}, primary.queries)
}

func TestFindVerifiedLink_RespectsLimit(t *testing.T) {
	results := watchResults("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd")
	v := &setVerifier{}
	a := &Agent{
		Primary:  &stubDiscoverer{name: "scraper", results: results},
		Verifier: v,
		Limit:    2,
	}
	a.FindVerifiedLink(context.Background(), engine.DiscoveryRequest{SearchTerm: "om"})
	assert.Len(t, v.checked, 2)
}
